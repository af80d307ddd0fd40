// Package config manages grist configuration. The config file is TOML and
// lives in the user config directory; every value has a working default so
// the engine runs without any file present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	ConfigDir    = "grist"
	ConfigFile   = "config.toml"
	DatabaseFile = "grist.db"
)

// Config holds engine tuning knobs. Durations are stored as milliseconds so
// the file stays editable by hand.
type Config struct {
	GitBinary string   `toml:"git_binary"`
	ExtraPath []string `toml:"extra_path"`

	ShortTimeoutMs int `toml:"short_timeout_ms"` // status/diff queries
	LongTimeoutMs  int `toml:"long_timeout_ms"`  // commit/push, may run hooks

	StatusTTLMs      int `toml:"status_ttl_ms"`
	AheadBehindTTLMs int `toml:"ahead_behind_ttl_ms"`
	ActivityTTLMs    int `toml:"activity_ttl_ms"`

	MaxOutputBytes int64 `toml:"max_output_bytes"`
	ActivityDays   int   `toml:"activity_days"`

	DatabasePath string `toml:"database_path"`

	path string // file the config was loaded from, empty for defaults
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		GitBinary:        "git",
		ExtraPath:        []string{"/usr/local/bin", "/opt/homebrew/bin"},
		ShortTimeoutMs:   10_000,
		LongTimeoutMs:    300_000,
		StatusTTLMs:      2_500,
		AheadBehindTTLMs: 5_000,
		ActivityTTLMs:    60_000,
		MaxOutputBytes:   10 << 20,
		ActivityDays:     90,
	}
	if dir, err := os.UserConfigDir(); err == nil {
		cfg.DatabasePath = filepath.Join(dir, ConfigDir, DatabaseFile)
	}
	return cfg
}

// DefaultPath returns the standard config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigDir, ConfigFile), nil
}

// Load reads the config at path, filling unset fields from defaults. A
// missing file is not an error; it yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.path = path
	cfg.applyFloors()
	return cfg, nil
}

// Save writes the configuration to the path it was loaded from, or the
// default location when it came from defaults.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// applyFloors clamps nonsensical values back to defaults so a hand-edited
// file cannot disable timeouts entirely.
func (c *Config) applyFloors() {
	def := Default()
	if c.GitBinary == "" {
		c.GitBinary = def.GitBinary
	}
	if c.ShortTimeoutMs <= 0 {
		c.ShortTimeoutMs = def.ShortTimeoutMs
	}
	if c.LongTimeoutMs <= 0 {
		c.LongTimeoutMs = def.LongTimeoutMs
	}
	if c.StatusTTLMs <= 0 {
		c.StatusTTLMs = def.StatusTTLMs
	}
	if c.AheadBehindTTLMs <= 0 {
		c.AheadBehindTTLMs = def.AheadBehindTTLMs
	}
	if c.ActivityTTLMs <= 0 {
		c.ActivityTTLMs = def.ActivityTTLMs
	}
	if c.MaxOutputBytes <= 0 {
		c.MaxOutputBytes = def.MaxOutputBytes
	}
	if c.ActivityDays <= 0 {
		c.ActivityDays = def.ActivityDays
	}
}

// ShortTimeout bounds status and diff queries.
func (c *Config) ShortTimeout() time.Duration {
	return time.Duration(c.ShortTimeoutMs) * time.Millisecond
}

// LongTimeout bounds commit and revert operations that may invoke slow
// hooks or network I/O.
func (c *Config) LongTimeout() time.Duration {
	return time.Duration(c.LongTimeoutMs) * time.Millisecond
}

// StatusTTL is short so staging actions feel immediate.
func (c *Config) StatusTTL() time.Duration {
	return time.Duration(c.StatusTTLMs) * time.Millisecond
}

// AheadBehindTTL coalesces ahead/behind queries against the polling cadence.
func (c *Config) AheadBehindTTL() time.Duration {
	return time.Duration(c.AheadBehindTTLMs) * time.Millisecond
}

// ActivityTTL bounds how often the activity series is recomputed.
func (c *Config) ActivityTTL() time.Duration {
	return time.Duration(c.ActivityTTLMs) * time.Millisecond
}
