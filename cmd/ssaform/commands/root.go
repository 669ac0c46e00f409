// Package commands provides the CLI commands for ssaform.
package commands

import (
	"fmt"
	"io"

	"github.com/containerd/errdefs"
	"github.com/spf13/cobra"

	"github.com/lac-dcc/DCC888/internal/config"
	"github.com/lac-dcc/DCC888/internal/log"
	"github.com/lac-dcc/DCC888/pkg/ir"
	"github.com/lac-dcc/DCC888/pkg/loader"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "ssaform",
	Short: "ssaform - Static single assignment construction for three-address programs",
	Long: `ssaform reads a program document (YAML, JSON or msgpack) holding an initial
environment and a list of add/mul/lth/geq/bt instructions, and converts it to
SSA form by inserting phi functions at dominance frontiers.

Commands:
  cfg         Show the basic blocks and edges of a program
  dom         Show the dominator tree, J-edges and dominance frontiers
  dfg         Show def-use chains and liveness
  ssa         Convert a program to SSA form
  run         Interpret a program, optionally after SSA conversion
  check       Verify SSA conversion over a tree of programs
  doctor      Check configuration, cache and pipeline health
  init        Create a configuration file interactively

Use "ssaform [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

// ExitCode maps an error to a process exit status: 2 for malformed input,
// 3 for undefined variables, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errdefs.IsInvalidArgument(err):
		return 2
	case errdefs.IsNotFound(err):
		return 3
	default:
		return 1
	}
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file path (default: ./.ssaform/config.yaml, then ~/.ssaform/config.yaml)")
	RootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().StringP("format", "f", "", "Output format (text, json, yaml, msgpack)")
	RootCmd.PersistentFlags().BoolP("json", "j", false, "Output as JSON (same as --format json)")

	RootCmd.AddCommand(cfgCmd)
	RootCmd.AddCommand(domCmd)
	RootCmd.AddCommand(dfgCmd)
	RootCmd.AddCommand(ssaCmd)
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(checkCmd)
	RootCmd.AddCommand(doctorCmd)
	RootCmd.AddCommand(initCmd)
}

// settings is the configuration of one command invocation, with flags
// applied on top of the config files.
type settings struct {
	cfg    *config.Config
	logger log.Logger
	format config.OutputFormat
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	var (
		cfg *config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: loading config: %w", errdefs.ErrInvalidArgument, err)
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		cfg.OutputFormat = config.OutputFormat(f)
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		cfg.OutputFormat = config.OutputJSON
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errdefs.ErrInvalidArgument, err)
	}

	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	return &settings{cfg: cfg, logger: logger, format: cfg.OutputFormat}, nil
}

// loadProgram reads the program document named by the command's only
// argument.
func loadProgram(s *settings, path string) (*ir.Program, *ir.Env, error) {
	prog, env, err := loader.Load(path)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Debug("loaded program", "path", path, "instructions", prog.Len(), "bindings", env.Len())
	return prog, env, nil
}

// emit writes v in the selected structured format, or calls text for the
// human-readable form.
func emit(w io.Writer, s *settings, v interface{}, text func(io.Writer)) error {
	if s.format == config.OutputText || s.format == "" {
		text(w)
		return nil
	}
	format, err := loader.ParseFormat(string(s.format))
	if err != nil {
		return err
	}
	if err := loader.Encode(w, v, format); err != nil {
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	return nil
}
