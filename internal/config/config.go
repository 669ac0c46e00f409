package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lac-dcc/DCC888/internal/log"
	"github.com/lac-dcc/DCC888/pkg/ssa"
)

// OutputFormat selects how commands print their results
type OutputFormat string

const (
	OutputText    OutputFormat = "text"
	OutputJSON    OutputFormat = "json"
	OutputYAML    OutputFormat = "yaml"
	OutputMsgpack OutputFormat = "msgpack"
)

// Config holds all configuration for ssaform
type Config struct {
	// PhiPolicy selects phi placement: maximal, minimal or pruned
	PhiPolicy string `yaml:"phi_policy" env:"SSAFORM_PHI_POLICY"`

	// Logging
	LogLevel string `yaml:"log_level" env:"SSAFORM_LOG_LEVEL"`
	LogJSON  bool   `yaml:"log_json" env:"SSAFORM_LOG_JSON"`

	// Conversion result cache
	CacheEnabled    bool   `yaml:"cache_enabled" env:"SSAFORM_CACHE_ENABLED"`
	CachePath       string `yaml:"cache_path" env:"SSAFORM_CACHE_PATH"`
	CacheMaxEntries int    `yaml:"cache_max_entries" env:"SSAFORM_CACHE_MAX_ENTRIES"`

	// MaxSteps bounds interpreter runs
	MaxSteps int `yaml:"max_steps" env:"SSAFORM_MAX_STEPS"`

	OutputFormat OutputFormat `yaml:"output_format" env:"SSAFORM_OUTPUT_FORMAT"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PhiPolicy:       string(ssa.PolicyMaximal),
		LogLevel:        "warn",
		LogJSON:         false,
		CacheEnabled:    false,
		CachePath:       defaultCachePath(),
		CacheMaxEntries: 256,
		MaxSteps:        1 << 20,
		OutputFormat:    OutputText,
	}
}

// defaultCachePath returns ~/.ssaform/cache.msgpack
func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ssaform", "cache.msgpack")
	}
	return filepath.Join(home, ".ssaform", "cache.msgpack")
}

// GlobalConfigFilePath returns the global config file path (~/.ssaform/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ssaform", "config.yaml")
	}
	return filepath.Join(home, ".ssaform", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.ssaform/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".ssaform", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.ssaform/config.yaml)
// 3. Global config (~/.ssaform/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{GlobalConfigFilePath(), ProjectConfigFilePath()} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SSAFORM_PHI_POLICY"); v != "" {
		cfg.PhiPolicy = v
	}
	if v := os.Getenv("SSAFORM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SSAFORM_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
	if v := os.Getenv("SSAFORM_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled = parseBool(v)
	}
	if v := os.Getenv("SSAFORM_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("SSAFORM_CACHE_MAX_ENTRIES"); v != "" {
		i, err := parseInt(v)
		if err != nil {
			return fmt.Errorf("SSAFORM_CACHE_MAX_ENTRIES: %w", err)
		}
		cfg.CacheMaxEntries = i
	}
	if v := os.Getenv("SSAFORM_MAX_STEPS"); v != "" {
		i, err := parseInt(v)
		if err != nil {
			return fmt.Errorf("SSAFORM_MAX_STEPS: %w", err)
		}
		cfg.MaxSteps = i
	}
	if v := os.Getenv("SSAFORM_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}
	return nil
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if _, err := ssa.ParsePolicy(c.PhiPolicy); err != nil {
		return fmt.Errorf("invalid phi_policy: %w", err)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	switch c.OutputFormat {
	case OutputText, OutputJSON, OutputYAML, OutputMsgpack:
		// Valid
	default:
		return fmt.Errorf("invalid output_format: %s (must be 'text', 'json', 'yaml' or 'msgpack')", c.OutputFormat)
	}

	if c.CacheEnabled {
		if c.CachePath == "" {
			return fmt.Errorf("cache_path is required when cache_enabled is true")
		}
		if c.CacheMaxEntries <= 0 {
			return fmt.Errorf("cache_max_entries must be positive")
		}
	}

	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive")
	}

	return nil
}

// Policy returns the configured phi policy.
func (c *Config) Policy() ssa.Policy {
	p, err := ssa.ParsePolicy(c.PhiPolicy)
	if err != nil {
		return ssa.PolicyMaximal
	}
	return p
}

// Logger builds the logger described by the configuration.
func (c *Config) Logger() (*log.DefaultLogger, error) {
	return log.FromConfig(c.LogLevel, c.LogJSON)
}

func parseBool(s string) bool {
	return s == "true" || s == "1" || s == "yes"
}

// parseInt attempts to parse a string as int
func parseInt(s string) (int, error) {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return i, nil
}
