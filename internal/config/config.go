// Package config loads runtime configuration for aucsync.
//
// Configuration is resolved in order: built-in defaults, an optional YAML
// config file, then AUCSYNC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the runtime configuration for aucsync.
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	Remote RemoteConfig `mapstructure:"remote"`
	Sync   SyncConfig   `mapstructure:"sync"`
	Feed   FeedConfig   `mapstructure:"feed"`
	Log    LogConfig    `mapstructure:"log"`
}

// StoreConfig locates the embedded database.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// RemoteConfig describes the remote endpoints.
type RemoteConfig struct {
	// DecisionURL is the decision-acceptance endpoint.
	DecisionURL string `mapstructure:"decision_url"`
	// ProbeURL is probed to determine connectivity; defaults to the
	// decision endpoint when empty.
	ProbeURL string `mapstructure:"probe_url"`
	// Timeout bounds one delivery attempt.
	Timeout time.Duration `mapstructure:"timeout"`
}

// SyncConfig tunes the orchestrator and daemon.
type SyncConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	LeaseTTL      time.Duration `mapstructure:"lease_ttl"`
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// OfflineMarker forces offline mode while the file exists.
	OfflineMarker string `mapstructure:"offline_marker"`
}

// FeedConfig controls the WebSocket status feed.
type FeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LogConfig controls daemon file logging.
type LogConfig struct {
	// File is the daemon log path; empty logs to stderr.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Load reads configuration from the given file path. An empty path loads
// defaults and environment variables only; a missing file at an explicit
// path is an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("store.path", ".aucsync/cache.db")
	v.SetDefault("remote.timeout", 10*time.Second)
	v.SetDefault("sync.max_attempts", 10)
	v.SetDefault("sync.lease_ttl", 2*time.Minute)
	v.SetDefault("sync.probe_interval", 30*time.Second)
	v.SetDefault("sync.sweep_interval", 15*time.Minute)
	v.SetDefault("sync.offline_marker", ".aucsync/offline")
	v.SetDefault("feed.enabled", false)
	v.SetDefault("feed.port", 8199)
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)

	v.SetEnvPrefix("AUCSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Remote.ProbeURL == "" {
		cfg.Remote.ProbeURL = cfg.Remote.DecisionURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return errors.New("store.path is required")
	}
	if c.Sync.MaxAttempts <= 0 {
		return errors.New("sync.max_attempts must be positive")
	}
	if c.Feed.Enabled && (c.Feed.Port <= 0 || c.Feed.Port > 65535) {
		return fmt.Errorf("feed.port %d out of range", c.Feed.Port)
	}
	return nil
}
