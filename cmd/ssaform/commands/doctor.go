package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lac-dcc/DCC888/internal/config"
	"github.com/lac-dcc/DCC888/internal/healthcheck"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on configuration and cache",
	Long: `Checks the configuration, verifies that the result cache can be read and
converts a sample program to make sure the SSA form computes the same values
as the original.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = effectiveConfigPath()
		}

		result, err := healthcheck.Check(s.cfg, configPath, configPath)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		if err := emit(cmd.OutOrStdout(), s, result, func(w io.Writer) { displayDoctorResult(w, result) }); err != nil {
			return err
		}
		if result.HasError() {
			return fmt.Errorf("health check failed: one or more components are not working")
		}
		return nil
	},
}

// effectiveConfigPath returns the highest priority config file that
// exists, or "" when only defaults apply.
func effectiveConfigPath() string {
	for _, path := range []string{config.ProjectConfigFilePath(), config.GlobalConfigFilePath()} {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func displayDoctorResult(w io.Writer, result *healthcheck.HealthCheckResult) {
	if result.EffectivePath != "" {
		fmt.Fprintf(w, "Using config: %s (%s)\n\n", result.EffectivePath, result.EffectiveScope)
	} else {
		fmt.Fprintf(w, "Using config: defaults (run 'ssaform init' to create a config file)\n\n")
	}

	printComponent(w, "Config", result.Config)
	printComponent(w, "Cache", result.Cache)
	printComponent(w, "Pipeline", result.Pipeline)
}

func printComponent(w io.Writer, name string, c healthcheck.ComponentStatus) {
	fmt.Fprintf(w, "%s:\n", name)
	fmt.Fprintf(w, "  Status: %s %s\n", formatStatusIcon(c.Status), c.Status)
	if c.Detail != "" {
		fmt.Fprintf(w, "  %s\n", c.Detail)
	}
	if c.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", c.Error)
	}
}

func formatStatusIcon(status string) string {
	switch status {
	case healthcheck.StatusReady:
		return "✓"
	case healthcheck.StatusError:
		return "✗"
	default:
		return "-"
	}
}
