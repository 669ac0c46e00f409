package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lac-dcc/DCC888/pkg/cfg"
	"github.com/lac-dcc/DCC888/pkg/dom"
)

var domCmd = &cobra.Command{
	Use:   "dom <program>",
	Short: "Show dominance information",
	Long: `Computes the dominator tree of the program's block graph, its J-edges
(edges whose source does not dominate their target) and the dominance
frontier of every block.`,
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
		tree, err := dom.Analyze(g)
		if err != nil {
			return fmt.Errorf("computing dominators: %w", err)
		}
		report := dom.NewReport(tree, dom.ComputeFrontier(g, tree))

		return emit(cmd.OutOrStdout(), s, report, func(w io.Writer) { printDomReport(w, report) })
	},
}

func printDomReport(w io.Writer, r *dom.Report) {
	fmt.Fprintf(w, "Blocks (%d):\n", len(r.Blocks))
	for _, b := range r.Blocks {
		idom := "-"
		if b.IDom >= 0 {
			idom = fmt.Sprintf("B%d", b.IDom)
		}
		fmt.Fprintf(w, "  B%d idom=%s level=%d children=%s DF=%s\n",
			b.Block, idom, b.Level, blockList(b.Children), blockList(b.Frontier))
	}

	fmt.Fprintf(w, "\nJ-edges (%d):\n", len(r.JEdges))
	for _, e := range r.JEdges {
		fmt.Fprintf(w, "  B%d -> B%d\n", e.Foot, e.Head)
	}
}
