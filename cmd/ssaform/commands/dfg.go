package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lac-dcc/DCC888/pkg/cfg"
	"github.com/lac-dcc/DCC888/pkg/dfg"
)

var dfgCmd = &cobra.Command{
	Use:   "dfg <program>",
	Short: "Show def-use chains and liveness",
	Long: `Runs reaching definitions and liveness over the program's block graph.
Outputs variable references, def-use edges and per-block live sets.`,
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
		info := dfg.Extract(g)

		return emit(cmd.OutOrStdout(), s, info, func(w io.Writer) { printDFGInfo(w, info) })
	},
}

func printDFGInfo(w io.Writer, info *dfg.DFGInfo) {
	names := make([]string, 0, len(info.Variables))
	for name := range info.Variables {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "Variables (%d):\n", len(names))
	for _, name := range names {
		var defs, uses int
		for _, ref := range info.Variables[name] {
			if ref.RefType == dfg.RefTypeDefinition {
				defs++
			} else {
				uses++
			}
		}
		fmt.Fprintf(w, "  %s: %d definitions, %d uses\n", name, defs, uses)
	}

	fmt.Fprintf(w, "\nDataflow Edges (%d):\n", len(info.DataflowEdges))
	for _, edge := range info.DataflowEdges {
		fmt.Fprintf(w, "  %s: %d -> %d\n", edge.VarName, edge.DefRef.Inst, edge.UseRef.Inst)
	}

	fmt.Fprintf(w, "\nLiveness:\n")
	for _, l := range info.Liveness {
		fmt.Fprintf(w, "  B%d in={%s} out={%s}\n", l.Block, strings.Join(l.LiveIn, ", "), strings.Join(l.LiveOut, ", "))
	}
}
