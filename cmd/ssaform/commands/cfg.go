package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lac-dcc/DCC888/pkg/cfg"
)

// cfgCmd represents the cfg command
var cfgCmd = &cobra.Command{
	Use:   "cfg <program>",
	Short: "Show the basic blocks of a program",
	Long: `Partitions the program into basic blocks and prints the blocks, their
edges and the cyclomatic complexity of the graph.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		prog, _, err := loadProgram(s, args[0])
		if err != nil {
			return err
		}

		g, err := cfg.Partition(prog)
		if err != nil {
			return fmt.Errorf("partitioning program: %w", err)
		}
		info := g.Info()

		return emit(cmd.OutOrStdout(), s, info, func(w io.Writer) { printCFGInfo(w, info) })
	},
}

// printCFGInfo prints CFG information in human-readable format.
func printCFGInfo(w io.Writer, info *cfg.CFGInfo) {
	fmt.Fprintf(w, "Cyclomatic Complexity: %d\n", info.CyclomaticComplexity)
	fmt.Fprintf(w, "Entry Block: B%d\n", info.EntryBlockID)
	fmt.Fprintf(w, "Exit Blocks: %s\n", blockList(info.ExitBlockIDs))
	fmt.Fprintf(w, "\nBlocks (%d):\n", len(info.Blocks))
	for _, block := range info.Blocks {
		fmt.Fprintf(w, "  B%d (%s, leader %d)\n", block.ID, block.Type, block.Leader)
		for _, stmt := range block.Statements {
			fmt.Fprintf(w, "    %s\n", stmt)
		}
	}

	fmt.Fprintf(w, "\nEdges (%d):\n", len(info.Edges))
	for _, edge := range info.Edges {
		fmt.Fprintf(w, "  B%d --%s--> B%d\n", edge.SourceID, edge.EdgeType, edge.TargetID)
	}
}

func blockList(blocks []int) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = fmt.Sprintf("B%d", b)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
