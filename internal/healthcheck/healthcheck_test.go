package healthcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lac-dcc/DCC888/internal/config"
	"github.com/lac-dcc/DCC888/pkg/cache"
)

func TestCheckWithNilConfig(t *testing.T) {
	_, err := Check(nil, "", "")
	if err == nil {
		t.Error("Expected error for nil config, got nil")
	}
}

func TestCheckDefaultConfig(t *testing.T) {
	for _, policy := range []string{"maximal", "minimal", "pruned"} {
		t.Run(policy, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.PhiPolicy = policy

			result, err := Check(cfg, "", "")
			if err != nil {
				t.Fatalf("Check() failed: %v", err)
			}

			if result.Config.Status != StatusReady {
				t.Errorf("Config.Status = %q, want %q (%s)", result.Config.Status, StatusReady, result.Config.Error)
			}
			if result.Cache.Status != StatusDisabled {
				t.Errorf("Cache.Status = %q, want %q", result.Cache.Status, StatusDisabled)
			}
			if result.Pipeline.Status != StatusReady {
				t.Errorf("Pipeline.Status = %q, want %q (%s)", result.Pipeline.Status, StatusReady, result.Pipeline.Error)
			}
			if result.HasError() {
				t.Error("HasError() = true, want false")
			}
		})
	}
}

func TestCheckInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = "loud"

	result, err := Check(cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Config.Status != StatusError {
		t.Errorf("Config.Status = %q, want %q", result.Config.Status, StatusError)
	}
	if !result.HasError() {
		t.Error("HasError() = false, want true")
	}
}

func TestCheckCache(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.CacheEnabled = true
	cfg.CachePath = filepath.Join(dir, "cache.msgpack")

	result, err := Check(cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Cache.Status != StatusEmpty {
		t.Errorf("Cache.Status = %q, want %q", result.Cache.Status, StatusEmpty)
	}

	store := cache.NewResultStore(cfg.CacheMaxEntries, cfg.CachePath)
	if err := store.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	result, _ = Check(cfg, "", "")
	if result.Cache.Status != StatusReady {
		t.Errorf("Cache.Status = %q, want %q (%s)", result.Cache.Status, StatusReady, result.Cache.Error)
	}

	if err := os.WriteFile(cfg.CachePath, []byte("not msgpack"), 0644); err != nil {
		t.Fatal(err)
	}
	result, _ = Check(cfg, "", "")
	if result.Cache.Status != StatusError {
		t.Errorf("Cache.Status = %q, want %q", result.Cache.Status, StatusError)
	}
}

func TestScopeFromPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"empty path", "", ""},
		{"global path", filepath.Join(home, ".ssaform", "config.yaml"), "global"},
		{"project path", "/project/.ssaform/config.yaml", "project"},
		{"relative project path", ".ssaform/config.yaml", "project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scopeFromPath(tt.path)
			if result != tt.expected {
				t.Errorf("scopeFromPath(%q) = %q, want %q", tt.path, result, tt.expected)
			}
		})
	}
}
