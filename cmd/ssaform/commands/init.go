package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/lac-dcc/DCC888/internal/config"
	"github.com/lac-dcc/DCC888/internal/healthcheck"
	"github.com/lac-dcc/DCC888/pkg/ssa"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize ssaform configuration interactively",
	Long: `Guides you through setting up ssaform configuration step by step.
Creates a config file with the phi policy, logging, output and cache settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd.OutOrStdout())
	},
}

func runInit(w io.Writer) error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Conversion ===
	var policy, format string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Phi Placement").
				Description("Which variables get a phi function at join blocks?").
				Options(
					huh.NewOption("Maximal - every variable read in the join block", string(ssa.PolicyMaximal)),
					huh.NewOption("Minimal - only where definitions meet", string(ssa.PolicyMinimal)),
					huh.NewOption("Pruned - minimal, live variables only", string(ssa.PolicyPruned)),
				).
				Value(&policy),
			huh.NewSelect[string]().
				Title("Output Format").
				Options(
					huh.NewOption("Text", string(config.OutputText)),
					huh.NewOption("JSON", string(config.OutputJSON)),
					huh.NewOption("YAML", string(config.OutputYAML)),
					huh.NewOption("MessagePack", string(config.OutputMsgpack)),
				).
				Value(&format),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.PhiPolicy = policy
	cfg.OutputFormat = config.OutputFormat(format)

	// === SECTION 2: Logging ===
	logLevel := cfg.LogLevel
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log Level").
				Options(
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&logLevel),
			huh.NewConfirm().
				Title("Log as JSON?").
				Value(&cfg.LogJSON),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.LogLevel = logLevel

	// === SECTION 3: Cache ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Result Cache").
				Description("Cache conversions on disk so repeated runs are instant?").
				Affirmative("Yes").
				Negative("No").
				Value(&cfg.CacheEnabled),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	if cfg.CacheEnabled {
		maxEntries := strconv.Itoa(cfg.CacheMaxEntries)
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Cache file").
					Placeholder(cfg.CachePath).
					Value(&cfg.CachePath),
				huh.NewInput().
					Title("Maximum cached conversions").
					Value(&maxEntries).
					Validate(func(s string) error {
						n, err := strconv.Atoi(s)
						if err != nil || n <= 0 {
							return fmt.Errorf("enter a positive number")
						}
						return nil
					}),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		cfg.CacheMaxEntries, _ = strconv.Atoi(maxEntries)
	}

	// === SECTION 4: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.ssaform/config.yaml)", "global"),
					huh.NewOption("Project (./.ssaform/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalConfigFilePath()
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Fprintln(w, "\n=== Configuration Preview ===")
	fmt.Fprintf(w, "Config path: %s\n", configPath)
	fmt.Fprintf(w, "Phi policy: %s\n", cfg.PhiPolicy)
	fmt.Fprintf(w, "Output format: %s\n", cfg.OutputFormat)
	fmt.Fprintf(w, "Log level: %s (json: %t)\n", cfg.LogLevel, cfg.LogJSON)
	if cfg.CacheEnabled {
		fmt.Fprintf(w, "Cache: %s (max %d entries)\n", cfg.CachePath, cfg.CacheMaxEntries)
	} else {
		fmt.Fprintln(w, "Cache: disabled")
	}
	fmt.Fprintln(w, "================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(w, "Configuration saved to: %s\n", configPath)

	fmt.Fprintln(w, "\n=== Running Health Check ===")
	loadedCfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("reloading saved config: %w", err)
	}
	result, err := healthcheck.Check(loadedCfg, configPath, effectiveConfigPath())
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	displayDoctorResult(w, result)
	if result.EffectivePath != "" && result.EffectivePath != configPath {
		fmt.Fprintf(w, "\nNote: %s takes priority over the saved config.\n", result.EffectivePath)
	}
	return nil
}
