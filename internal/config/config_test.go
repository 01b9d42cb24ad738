package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoad_Defaults tests configuration with no file and no environment
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Store.Path != ".aucsync/cache.db" {
		t.Errorf("Store.Path = %q, want default", cfg.Store.Path)
	}
	if cfg.Remote.Timeout != 10*time.Second {
		t.Errorf("Remote.Timeout = %v, want 10s", cfg.Remote.Timeout)
	}
	if cfg.Sync.MaxAttempts != 10 {
		t.Errorf("Sync.MaxAttempts = %d, want 10", cfg.Sync.MaxAttempts)
	}
	if cfg.Sync.ProbeInterval != 30*time.Second {
		t.Errorf("Sync.ProbeInterval = %v, want 30s", cfg.Sync.ProbeInterval)
	}
	if cfg.Feed.Enabled {
		t.Error("Feed.Enabled = true, want disabled by default")
	}
	if cfg.Feed.Port != 8199 {
		t.Errorf("Feed.Port = %d, want 8199", cfg.Feed.Port)
	}
}

// TestLoad_File tests loading an explicit YAML config file
func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store:
  path: /var/lib/aucsync/cache.db
remote:
  decision_url: https://api.example.com/decisions
sync:
  max_attempts: 5
feed:
  enabled: true
  port: 9000
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Store.Path != "/var/lib/aucsync/cache.db" {
		t.Errorf("Store.Path = %q, want file value", cfg.Store.Path)
	}
	if cfg.Remote.DecisionURL != "https://api.example.com/decisions" {
		t.Errorf("Remote.DecisionURL = %q, want file value", cfg.Remote.DecisionURL)
	}
	if cfg.Sync.MaxAttempts != 5 {
		t.Errorf("Sync.MaxAttempts = %d, want 5", cfg.Sync.MaxAttempts)
	}
	if !cfg.Feed.Enabled || cfg.Feed.Port != 9000 {
		t.Errorf("Feed = %+v, want enabled on port 9000", cfg.Feed)
	}

	// Defaults still fill unset keys
	if cfg.Sync.SweepInterval != 15*time.Minute {
		t.Errorf("Sync.SweepInterval = %v, want default 15m", cfg.Sync.SweepInterval)
	}
}

// TestLoad_MissingFile tests that an explicit path must exist
func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of missing file succeeded, want error")
	}
}

// TestLoad_ProbeURLDefaultsToDecisionURL tests the probe fallback
func TestLoad_ProbeURLDefaultsToDecisionURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
remote:
  decision_url: https://api.example.com/decisions
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Remote.ProbeURL != cfg.Remote.DecisionURL {
		t.Errorf("Remote.ProbeURL = %q, want decision URL fallback", cfg.Remote.ProbeURL)
	}
}

// TestLoad_Environment tests AUCSYNC_* environment overrides
func TestLoad_Environment(t *testing.T) {
	t.Setenv("AUCSYNC_STORE_PATH", "/tmp/envtest.db")
	t.Setenv("AUCSYNC_SYNC_MAX_ATTEMPTS", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Store.Path != "/tmp/envtest.db" {
		t.Errorf("Store.Path = %q, want env value", cfg.Store.Path)
	}
	if cfg.Sync.MaxAttempts != 3 {
		t.Errorf("Sync.MaxAttempts = %d, want env value", cfg.Sync.MaxAttempts)
	}
}

// TestValidate_Invariants tests the configuration validation
func TestValidate_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"empty store path", func(c *Config) { c.Store.Path = "" }, true},
		{"zero max attempts", func(c *Config) { c.Sync.MaxAttempts = 0 }, true},
		{"feed port out of range", func(c *Config) {
			c.Feed.Enabled = true
			c.Feed.Port = 70000
		}, true},
		{"bad port but feed disabled", func(c *Config) {
			c.Feed.Enabled = false
			c.Feed.Port = 70000
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
