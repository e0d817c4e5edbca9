// Package config holds the server configuration: defaults, optional TOML
// file overlay, and validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// Config is the top-level server configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `toml:"listen"`

	// DBPath is the SQLite database path. ":memory:" is valid.
	DBPath string `toml:"db_path"`

	// WeeklyTargetHours is the full-time-week threshold used for
	// submit eligibility. The portal default is 40.
	WeeklyTargetHours float64 `toml:"weekly_target_hours"`

	// SyncAttempts and SyncBackoff bound remote retry behavior for both
	// entry mirroring and submission persistence.
	SyncAttempts int    `toml:"sync_attempts"`
	SyncBackoff  string `toml:"sync_backoff"` // Go duration, e.g. "2s"

	// AllowedOrigins lists CORS origins for the browser frontend.
	AllowedOrigins []string `toml:"allowed_origins"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Listen:            ":8080",
		DBPath:            "timeportal.db",
		WeeklyTargetHours: 40,
		SyncAttempts:      3,
		SyncBackoff:       "2s",
		AllowedOrigins:    []string{"http://localhost:5173", "http://localhost:8080"},
	}
}

// Load reads the TOML file at path over the defaults. An empty path or a
// missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is empty")
	}
	if c.DBPath == "" {
		return errors.New("db_path is empty")
	}
	if c.WeeklyTargetHours <= 0 {
		return fmt.Errorf("weekly_target_hours %v must be positive", c.WeeklyTargetHours)
	}
	if c.SyncAttempts < 1 {
		return fmt.Errorf("sync_attempts %d must be at least 1", c.SyncAttempts)
	}
	if _, err := time.ParseDuration(c.SyncBackoff); err != nil {
		return fmt.Errorf("sync_backoff %q: %w", c.SyncBackoff, err)
	}
	return nil
}

// Target returns the weekly threshold as a decimal.
func (c Config) Target() decimal.Decimal {
	return decimal.NewFromFloat(c.WeeklyTargetHours)
}

// SyncBackoffDuration parses SyncBackoff, falling back to 2s on garbage.
func (c Config) SyncBackoffDuration() time.Duration {
	d, err := time.ParseDuration(c.SyncBackoff)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}
