package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lac-dcc/DCC888/pkg/interp"
	"github.com/lac-dcc/DCC888/pkg/ir"
	"github.com/lac-dcc/DCC888/pkg/ssa"
)

var runCmd = &cobra.Command{
	Use:   "run <program>",
	Short: "Interpret a program",
	Long: `Executes the program over its environment and prints the final value of
every variable. With --ssa the program is converted first and the SSA
program is executed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("max-steps") {
			s.cfg.MaxSteps, _ = cmd.Flags().GetInt("max-steps")
		}
		toSSA, _ := cmd.Flags().GetBool("ssa")
		withTrace, _ := cmd.Flags().GetBool("trace")

		prog, env, err := loadProgram(s, args[0])
		if err != nil {
			return err
		}

		if toSSA {
			if p, _ := cmd.Flags().GetString("policy"); p != "" {
				s.cfg.PhiPolicy = p
			}
			policy, err := ssa.ParsePolicy(s.cfg.PhiPolicy)
			if err != nil {
				return err
			}
			res, err := ssa.Convert(prog, env, ssa.Options{Policy: policy, Logger: s.logger})
			if err != nil {
				return err
			}
			prog, env = res.Program, res.Env
		}

		out := &runOutput{}
		if withTrace {
			out.Trace, err = interp.RunTrace(prog, env, s.cfg.MaxSteps)
		} else {
			_, err = interp.Run(prog, env, s.cfg.MaxSteps)
		}
		if err != nil {
			return err
		}
		out.Env = finalBindings(env)
		s.logger.Info("run finished", "bindings", len(out.Env), "steps", len(out.Trace))

		return emit(cmd.OutOrStdout(), s, out, func(w io.Writer) { printRun(w, out) })
	},
}

func init() {
	runCmd.Flags().Bool("ssa", false, "Convert to SSA form before running")
	runCmd.Flags().StringP("policy", "p", "", "Phi placement policy used with --ssa")
	runCmd.Flags().Bool("trace", false, "Print every executed instruction")
	runCmd.Flags().Int("max-steps", 0, "Abort after this many executed instructions")
}

type runOutput struct {
	Env   []ir.Binding   `json:"env" yaml:"env" msgpack:"env"`
	Trace []interp.Trace `json:"trace,omitempty" yaml:"trace,omitempty" msgpack:"trace,omitempty"`
}

// finalBindings lists the last value of every name in order of first
// binding.
func finalBindings(env *ir.Env) []ir.Binding {
	final := interp.Final(env)
	names := env.Names()
	out := make([]ir.Binding, len(names))
	for i, n := range names {
		out[i] = ir.Binding{Name: n, Value: final[n]}
	}
	return out
}

func printRun(w io.Writer, out *runOutput) {
	if len(out.Trace) > 0 {
		fmt.Fprintln(w, "Trace:")
		for _, t := range out.Trace {
			if t.Dst != "" {
				fmt.Fprintf(w, "  %3d: %-30s %s = %d\n", t.Index, t.Inst, t.Dst, t.Value)
			} else {
				fmt.Fprintf(w, "  %3d: %s\n", t.Index, t.Inst)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Environment:")
	for _, b := range out.Env {
		fmt.Fprintf(w, "  %s = %d\n", b.Name, b.Value)
	}
}
