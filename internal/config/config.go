package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Simplabel configuration
type Config struct {
	// Directory is the shared image directory every session coordinates on
	Directory string `mapstructure:"directory"`
	// Username identifies the labeler; it is sanitized before use and the
	// reserved name "master" is rejected
	Username string `mapstructure:"username"`
	// Categories optionally seeds the shared category list. When set it
	// replaces any category file already present in the directory.
	Categories []string `mapstructure:"categories"`
	// ResetLock force-releases a stale session lock left behind by a
	// crashed session before acquiring. Manual recovery only.
	ResetLock bool `mapstructure:"reset_lock"`
	// Redundant hides other labelers' work so each user labels blind.
	// Conflict highlighting is disabled in this mode.
	Redundant bool `mapstructure:"redundant"`

	Session SessionConfig `mapstructure:"session"`
	Images  ImagesConfig  `mapstructure:"images"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SessionConfig controls the opportunistic background timers
type SessionConfig struct {
	// AutoSaveSeconds is the interval between unconditional flushes of the
	// session's label store to disk (0 disables auto-save)
	AutoSaveSeconds int `mapstructure:"auto_save_seconds"`
	// AutoRefreshSeconds is the interval between re-reads of other users'
	// stores so conflict highlighting stays current (0 disables)
	AutoRefreshSeconds int `mapstructure:"auto_refresh_seconds"`
}

// ImagesConfig controls image discovery
type ImagesConfig struct {
	// Patterns are glob patterns matched case-insensitively against file
	// names to decide which directory entries count as images
	Patterns []string `mapstructure:"patterns"`
}

// LoggingConfig controls the debug log file behavior
type LoggingConfig struct {
	// Enabled turns file logging on/off
	Enabled bool `mapstructure:"enabled"`
	// Level sets the log level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size before rotation
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated log files to keep
	MaxBackups int `mapstructure:"max_backups"`
	// Compress determines whether rotated logs are gzipped
	Compress bool `mapstructure:"compress"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			AutoSaveSeconds:    60,
			AutoRefreshSeconds: 60,
		},
		Images: ImagesConfig{
			Patterns: []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.bmp", "*.tif", "*.tiff"},
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
	}
}

// AutoSaveInterval returns the auto-save interval as a duration.
// Zero means auto-save is disabled.
func (c *SessionConfig) AutoSaveInterval() time.Duration {
	return time.Duration(c.AutoSaveSeconds) * time.Second
}

// AutoRefreshInterval returns the auto-refresh interval as a duration.
// Zero means auto-refresh is disabled.
func (c *SessionConfig) AutoRefreshInterval() time.Duration {
	return time.Duration(c.AutoRefreshSeconds) * time.Second
}

// SetDefaults sets all default values in viper. This must be called before
// reading the config file so defaults apply to missing keys.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("session.auto_save_seconds", defaults.Session.AutoSaveSeconds)
	viper.SetDefault("session.auto_refresh_seconds", defaults.Session.AutoRefreshSeconds)

	viper.SetDefault("images.patterns", defaults.Images.Patterns)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load unmarshals the current viper state into a Config and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the directory where the config file lives
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "simplabel")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".simplabel"
	}
	return filepath.Join(home, ".config", "simplabel")
}

// ConfigFile returns the full path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
