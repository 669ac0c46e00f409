package healthcheck

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lac-dcc/DCC888/internal/config"
	"github.com/lac-dcc/DCC888/pkg/cache"
	"github.com/lac-dcc/DCC888/pkg/interp"
	"github.com/lac-dcc/DCC888/pkg/ir"
	"github.com/lac-dcc/DCC888/pkg/ssa"
)

const (
	StatusReady    = "ready"
	StatusEmpty    = "empty"
	StatusDisabled = "disabled"
	StatusError    = "error"
)

// ComponentStatus represents the health status of one part of the setup.
type ComponentStatus struct {
	Status string `json:"status" yaml:"status"` // "ready", "empty", "disabled", "error"
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	SavedPath      string          `json:"saved_path,omitempty" yaml:"saved_path,omitempty"`
	SavedScope     string          `json:"saved_scope,omitempty" yaml:"saved_scope,omitempty"` // "global" or "project"
	EffectivePath  string          `json:"effective_path,omitempty" yaml:"effective_path,omitempty"`
	EffectiveScope string          `json:"effective_scope,omitempty" yaml:"effective_scope,omitempty"`
	Config         ComponentStatus `json:"config" yaml:"config"`
	Cache          ComponentStatus `json:"cache" yaml:"cache"`
	Pipeline       ComponentStatus `json:"pipeline" yaml:"pipeline"`
}

// HasError reports whether any component failed.
func (r *HealthCheckResult) HasError() bool {
	return r.Config.Status == StatusError || r.Cache.Status == StatusError || r.Pipeline.Status == StatusError
}

// Check performs a health check against the given config.
// savedPath is where the user saved config (may be empty outside init).
// effectivePath is the config file actually in use (considering priority).
func Check(cfg *config.Config, savedPath string, effectivePath string) (*HealthCheckResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	result := &HealthCheckResult{
		SavedPath:      savedPath,
		SavedScope:     scopeFromPath(savedPath),
		EffectivePath:  effectivePath,
		EffectiveScope: scopeFromPath(effectivePath),
	}

	result.Config = checkConfig(cfg)
	result.Cache = checkCache(cfg)
	result.Pipeline = checkPipeline(cfg)

	return result, nil
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}

	globalDir := filepath.Dir(config.GlobalConfigFilePath())
	if abs, err := filepath.Abs(path); err == nil && strings.HasPrefix(abs, globalDir+string(filepath.Separator)) {
		return "global"
	}

	return "project"
}

func checkConfig(cfg *config.Config) ComponentStatus {
	if err := cfg.Validate(); err != nil {
		return ComponentStatus{Status: StatusError, Error: err.Error()}
	}
	return ComponentStatus{
		Status: StatusReady,
		Detail: fmt.Sprintf("policy %s, log level %s, output %s", cfg.PhiPolicy, cfg.LogLevel, cfg.OutputFormat),
	}
}

// checkCache verifies that the cache file, when present, can be loaded.
func checkCache(cfg *config.Config) ComponentStatus {
	if !cfg.CacheEnabled {
		return ComponentStatus{Status: StatusDisabled}
	}

	if _, err := os.Stat(cfg.CachePath); os.IsNotExist(err) {
		return ComponentStatus{Status: StatusEmpty, Detail: cfg.CachePath}
	}

	store := cache.NewResultStore(cfg.CacheMaxEntries, cfg.CachePath)
	if err := store.Load(); err != nil {
		return ComponentStatus{Status: StatusError, Detail: cfg.CachePath, Error: err.Error()}
	}
	return ComponentStatus{
		Status: StatusReady,
		Detail: fmt.Sprintf("%s (%d entries)", cfg.CachePath, store.Len()),
	}
}

// checkPipeline converts a small program with the configured policy and
// checks that the SSA form computes the same values as the original.
func checkPipeline(cfg *config.Config) ComponentStatus {
	prog, err := ir.NewProgram(
		ir.NewBinary("a", ir.OpAdd, "zero", "one"),
		ir.NewBranch("a", 3),
		ir.NewBinary("a", ir.OpMul, "a", "two"),
		ir.NewBinary("b", ir.OpAdd, "a", "one"),
	)
	if err != nil {
		return ComponentStatus{Status: StatusError, Error: err.Error()}
	}
	env := func() *ir.Env {
		return ir.NewEnv(ir.Binding{Name: "zero", Value: 0}, ir.Binding{Name: "one", Value: 1}, ir.Binding{Name: "two", Value: 2})
	}

	res, err := ssa.Convert(prog, env(), ssa.Options{Policy: cfg.Policy()})
	if err != nil {
		return ComponentStatus{Status: StatusError, Error: err.Error()}
	}

	want, err := interp.Run(prog, env(), cfg.MaxSteps)
	if err != nil {
		return ComponentStatus{Status: StatusError, Error: err.Error()}
	}
	got, err := interp.Run(res.Program, res.Env, cfg.MaxSteps)
	if err != nil {
		return ComponentStatus{Status: StatusError, Error: err.Error()}
	}

	wantB, _ := want.Lookup("b")
	gotB, _ := got.Lookup(ssa.VersionName("b", 1))
	if wantB != gotB {
		return ComponentStatus{Status: StatusError, Error: fmt.Sprintf("ssa form computed b = %d, want %d", gotB, wantB)}
	}
	return ComponentStatus{
		Status: StatusReady,
		Detail: fmt.Sprintf("%s policy, %d phis", cfg.Policy(), res.Stats.Phis),
	}
}
