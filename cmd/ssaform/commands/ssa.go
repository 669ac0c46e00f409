package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lac-dcc/DCC888/pkg/cache"
	"github.com/lac-dcc/DCC888/pkg/ir"
	"github.com/lac-dcc/DCC888/pkg/loader"
	"github.com/lac-dcc/DCC888/pkg/ssa"
)

var ssaCmd = &cobra.Command{
	Use:   "ssa <program>",
	Short: "Convert a program to SSA form",
	Long: `Converts the program to static single assignment form. Phi functions are
placed according to --policy:

  maximal   a phi for every variable read in a join block (default)
  minimal   phis only where two definitions meet
  pruned    minimal, restricted to variables live on entry

The output is a program document holding the renamed environment and
program, so it can be fed back to "ssaform run".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if p, _ := cmd.Flags().GetString("policy"); p != "" {
			s.cfg.PhiPolicy = p
		}
		policy, err := ssa.ParsePolicy(s.cfg.PhiPolicy)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("cache") {
			s.cfg.CacheEnabled, _ = cmd.Flags().GetBool("cache")
		}

		prog, env, err := loadProgram(s, args[0])
		if err != nil {
			return err
		}

		out, err := convert(s, prog, env, policy)
		if err != nil {
			return err
		}

		return emit(cmd.OutOrStdout(), s, out, func(w io.Writer) { printSSA(w, out) })
	},
}

func init() {
	ssaCmd.Flags().StringP("policy", "p", "", "Phi placement policy (maximal, minimal, pruned)")
	ssaCmd.Flags().Bool("cache", false, "Reuse and store conversions in the result cache")
}

// ssaOutput is the structured output of the ssa command.
type ssaOutput struct {
	Policy   ssa.Policy       `json:"policy" yaml:"policy" msgpack:"policy"`
	Stats    ssa.Stats        `json:"stats" yaml:"stats" msgpack:"stats"`
	Cached   bool             `json:"cached" yaml:"cached" msgpack:"cached"`
	Document *loader.Document `json:"document" yaml:"document" msgpack:"document"`
}

func convert(s *settings, prog *ir.Program, env *ir.Env, policy ssa.Policy) (*ssaOutput, error) {
	opts := ssa.Options{Policy: policy, Logger: s.logger}

	if !s.cfg.CacheEnabled {
		res, err := ssa.Convert(prog, env, opts)
		if err != nil {
			return nil, err
		}
		return &ssaOutput{
			Policy:   policy,
			Stats:    res.Stats,
			Document: loader.FromProgram(res.Program, res.Env),
		}, nil
	}

	store := cache.NewResultStore(s.cfg.CacheMaxEntries, s.cfg.CachePath)
	if err := store.Load(); err != nil {
		s.logger.Warn("ignoring unreadable cache", "path", s.cfg.CachePath, "error", err)
	}
	res, hit, err := store.Convert(prog, env, opts)
	if err != nil {
		return nil, err
	}
	if !hit {
		if err := store.Save(); err != nil {
			s.logger.Warn("failed to save cache", "path", s.cfg.CachePath, "error", err)
		}
	}
	s.logger.Debug("cache lookup", "hit", hit, "entries", store.Len())

	return &ssaOutput{Policy: policy, Stats: res.Stats, Cached: hit, Document: res.Document}, nil
}

func printSSA(w io.Writer, out *ssaOutput) {
	fmt.Fprintf(w, "Policy: %s\n", out.Policy)
	fmt.Fprintf(w, "Blocks: %d  J-edges: %d  Phis: %d  Instructions: %d\n",
		out.Stats.Blocks, out.Stats.JEdges, out.Stats.Phis, out.Stats.Instructions)
	if out.Cached {
		fmt.Fprintln(w, "(cached)")
	}

	fmt.Fprintf(w, "\nEnvironment:\n")
	for _, b := range out.Document.Env {
		fmt.Fprintf(w, "  %s = %d\n", b.Name, b.Value)
	}

	prog, err := out.Document.Build()
	if err != nil {
		fmt.Fprintf(w, "\n<invalid program: %v>\n", err)
		return
	}
	fmt.Fprintf(w, "\nProgram:\n")
	for i, in := range prog.Insts {
		fmt.Fprintf(w, "  %3d: %s\n", i, in)
	}
}
