package commands

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lac-dcc/DCC888/internal/scanner"
	"github.com/lac-dcc/DCC888/pkg/interp"
	"github.com/lac-dcc/DCC888/pkg/ir"
	"github.com/lac-dcc/DCC888/pkg/loader"
	"github.com/lac-dcc/DCC888/pkg/ssa"
)

var checkCmd = &cobra.Command{
	Use:   "check <path>...",
	Short: "Verify SSA conversion over a tree of programs",
	Long: `Finds every program document (.yaml, .yml, .json, .msgpack) under the given
paths, converts each one under every phi policy and checks that:

  - every variable of the SSA program is defined exactly once
  - running the SSA program leaves every variable with the value the
    original program computes

Files can be excluded with a .ssaformignore file using gitignore syntax.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		policies := []ssa.Policy{ssa.PolicyMaximal, ssa.PolicyMinimal, ssa.PolicyPruned}
		if p, _ := cmd.Flags().GetString("policy"); p != "" {
			policy, err := ssa.ParsePolicy(p)
			if err != nil {
				return err
			}
			policies = []ssa.Policy{policy}
		}

		var files []scanner.FileInfo
		for _, root := range args {
			found, err := scanner.Scan(root)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", root, err)
			}
			files = append(files, found...)
		}
		s.logger.Debug("found programs", "count", len(files))

		results := make([]checkResult, len(files)*len(policies))
		eg, ctx := errgroup.WithContext(cmd.Context())
		eg.SetLimit(runtime.NumCPU())
		for i, f := range files {
			for j, policy := range policies {
				f, policy := f, policy
				slot := &results[i*len(policies)+j]
				eg.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					*slot = checkFile(f, policy, s.cfg.MaxSteps)
					return nil
				})
			}
		}
		if err := eg.Wait(); err != nil {
			return fmt.Errorf("check interrupted: %w", err)
		}

		out := &checkOutput{Results: results}
		for _, r := range results {
			if r.Status != checkOK {
				out.Failed++
			}
		}
		s.logger.Info("check finished", "files", len(files), "checks", len(results), "failed", out.Failed)

		if err := emit(cmd.OutOrStdout(), s, out, func(w io.Writer) { printCheck(w, out) }); err != nil {
			return err
		}
		if out.Failed > 0 {
			return fmt.Errorf("%d of %d checks failed", out.Failed, len(results))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringP("policy", "p", "", "Check a single phi placement policy")
}

const (
	checkOK    = "ok"
	checkFail  = "fail"
	checkError = "error"
)

type checkResult struct {
	Path   string     `json:"path" yaml:"path" msgpack:"path"`
	Policy ssa.Policy `json:"policy" yaml:"policy" msgpack:"policy"`
	Status string     `json:"status" yaml:"status" msgpack:"status"`
	Phis   int        `json:"phis" yaml:"phis" msgpack:"phis"`
	Error  string     `json:"error,omitempty" yaml:"error,omitempty" msgpack:"error,omitempty"`
}

type checkOutput struct {
	Results []checkResult `json:"results" yaml:"results" msgpack:"results"`
	Failed  int           `json:"failed" yaml:"failed" msgpack:"failed"`
}

func checkFile(f scanner.FileInfo, policy ssa.Policy, maxSteps int) checkResult {
	r := checkResult{Path: f.FullPath, Policy: policy}

	prog, env, err := loader.Load(f.FullPath)
	if err != nil {
		r.Status, r.Error = checkError, err.Error()
		return r
	}
	phis, err := verifyProgram(prog, env, policy, maxSteps)
	r.Phis = phis
	var mismatch *mismatchError
	switch {
	case err == nil:
		r.Status = checkOK
	case errors.As(err, &mismatch):
		r.Status, r.Error = checkFail, err.Error()
	default:
		r.Status, r.Error = checkError, err.Error()
	}
	return r
}

// mismatchError reports an SSA program that disagrees with its original.
type mismatchError struct{ msg string }

func (e *mismatchError) Error() string { return e.msg }

// verifyProgram converts prog and compares the final values of both
// programs. It returns the number of inserted phis.
func verifyProgram(prog *ir.Program, env *ir.Env, policy ssa.Policy, maxSteps int) (int, error) {
	res, err := ssa.Convert(prog, env, ssa.Options{Policy: policy})
	if err != nil {
		return 0, err
	}
	phis := res.Stats.Phis

	if v := ssa.SingleAssignment(res.Program); v != "" {
		return phis, &mismatchError{fmt.Sprintf("%s is defined more than once", v)}
	}

	want, err := interp.Run(prog, env.Clone(), maxSteps)
	if err != nil {
		return phis, fmt.Errorf("running original: %w", err)
	}
	got, err := interp.Run(res.Program, res.Env.Clone(), maxSteps)
	if err != nil {
		return phis, &mismatchError{fmt.Sprintf("running ssa form: %v", err)}
	}

	current := currentVersions(got)
	for _, name := range want.Names() {
		w, _ := want.Lookup(name)
		g, ok := current[name]
		if !ok {
			return phis, &mismatchError{fmt.Sprintf("%s has no version in the ssa run", name)}
		}
		if g != w {
			return phis, &mismatchError{fmt.Sprintf("%s = %d in ssa form, want %d", name, g, w)}
		}
	}
	return phis, nil
}

// currentVersions maps each original name to the value of its most
// recently bound version in env.
func currentVersions(env *ir.Env) map[string]int64 {
	out := make(map[string]int64)
	bindings := env.Bindings()
	for i := len(bindings) - 1; i >= 0; i-- {
		b := bindings[i]
		cut := strings.LastIndexByte(b.Name, '_')
		if cut < 0 {
			continue
		}
		if _, err := strconv.Atoi(b.Name[cut+1:]); err != nil {
			continue
		}
		base := b.Name[:cut]
		if _, seen := out[base]; !seen {
			out[base] = b.Value
		}
	}
	return out
}

func printCheck(w io.Writer, out *checkOutput) {
	for _, r := range out.Results {
		fmt.Fprintf(w, "%-5s %-8s %s", r.Status, r.Policy, r.Path)
		if r.Status == checkOK {
			fmt.Fprintf(w, " (%d phis)\n", r.Phis)
		} else {
			fmt.Fprintf(w, "\n      %s\n", r.Error)
		}
	}
	fmt.Fprintf(w, "\n%d checks, %d failed\n", len(out.Results), out.Failed)
}
