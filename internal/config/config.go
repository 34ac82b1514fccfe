package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config holds the server configuration. Values come from the optional JSON
// config file and can be overridden through WARTERAUM_* environment
// variables.
type Config struct {
	// ListenAddr is the address the HTTP/WebSocket server binds to.
	ListenAddr string `json:"listen_addr" env:"WARTERAUM_ADDR"`

	// DatabasePath is the SQLite database file.
	DatabasePath string `json:"database_path" env:"WARTERAUM_DB"`

	// MediaDir is the root directory for uploaded audio and image blobs.
	MediaDir string `json:"media_dir" env:"WARTERAUM_MEDIA_DIR"`

	// AuthToken guards the WebSocket endpoint. Empty disables the check.
	AuthToken string `json:"auth_token" env:"WARTERAUM_TOKEN"`

	// RetentionHours is the age after which client and message records are
	// purged.
	RetentionHours int `json:"retention_hours" env:"WARTERAUM_RETENTION_HOURS"`

	// SweepIntervalMinutes is how often the retention sweep runs.
	SweepIntervalMinutes int `json:"sweep_interval_minutes" env:"WARTERAUM_SWEEP_INTERVAL_MINUTES"`

	// MaxMessageSize caps inbound WebSocket frames in bytes.
	MaxMessageSize int64 `json:"max_message_size" env:"WARTERAUM_MAX_MESSAGE_SIZE"`

	LogLevel string `json:"log_level" env:"WARTERAUM_LOG_LEVEL"`
	LogPath  string `json:"log_path" env:"WARTERAUM_LOG_PATH"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:           ":3000",
		DatabasePath:         "data/warteraum.sqlite",
		MediaDir:             "data/media",
		RetentionHours:       24,
		SweepIntervalMinutes: 60,
		MaxMessageSize:       64 * 1024,
		LogLevel:             "info",
	}
}

// Load builds the effective configuration: defaults, then the JSON file at
// path (if it exists), then environment overrides. A missing file is not an
// error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// fall through to defaults
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if c.RetentionHours <= 0 {
		return fmt.Errorf("retention_hours must be positive, got %d", c.RetentionHours)
	}
	if c.SweepIntervalMinutes <= 0 {
		return fmt.Errorf("sweep_interval_minutes must be positive, got %d", c.SweepIntervalMinutes)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("max_message_size must be positive, got %d", c.MaxMessageSize)
	}
	return nil
}
