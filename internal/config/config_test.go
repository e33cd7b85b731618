package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Verify default session config
	if cfg.Session.AutoSaveSeconds != 60 {
		t.Errorf("Session.AutoSaveSeconds = %d, want 60", cfg.Session.AutoSaveSeconds)
	}
	if cfg.Session.AutoRefreshSeconds != 60 {
		t.Errorf("Session.AutoRefreshSeconds = %d, want 60", cfg.Session.AutoRefreshSeconds)
	}

	// Verify default image patterns cover the common formats
	if len(cfg.Images.Patterns) == 0 {
		t.Fatal("Images.Patterns should not be empty by default")
	}
	found := false
	for _, p := range cfg.Images.Patterns {
		if p == "*.jpg" {
			found = true
		}
	}
	if !found {
		t.Errorf("Images.Patterns = %v, should include *.jpg", cfg.Images.Patterns)
	}

	// Verify default logging config
	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.MaxSizeMB != 10 {
		t.Errorf("Logging.MaxSizeMB = %d, want 10", cfg.Logging.MaxSizeMB)
	}
	if cfg.Logging.MaxBackups != 3 {
		t.Errorf("Logging.MaxBackups = %d, want 3", cfg.Logging.MaxBackups)
	}

	// Directory and username have no defaults; they come from flags
	if cfg.Directory != "" {
		t.Errorf("Directory = %q, want empty", cfg.Directory)
	}
	if cfg.Username != "" {
		t.Errorf("Username = %q, want empty", cfg.Username)
	}
}

func TestDefaultPassesValidation(t *testing.T) {
	cfg := Default()

	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("Default() config should pass validation, got: %v", ValidationErrors(errs))
	}
}

func TestSessionIntervals(t *testing.T) {
	sc := SessionConfig{AutoSaveSeconds: 30, AutoRefreshSeconds: 0}

	if got := sc.AutoSaveInterval(); got != 30*time.Second {
		t.Errorf("AutoSaveInterval() = %v, want 30s", got)
	}
	if got := sc.AutoRefreshInterval(); got != 0 {
		t.Errorf("AutoRefreshInterval() = %v, want 0 (disabled)", got)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("respects XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

		want := filepath.Join("/tmp/xdg", "simplabel")
		if got := ConfigDir(); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})

	t.Run("falls back to ~/.config", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")

		home, err := os.UserHomeDir()
		if err != nil {
			t.Skipf("no home directory: %v", err)
		}
		want := filepath.Join(home, ".config", "simplabel")
		if got := ConfigDir(); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	got := ConfigFile()
	if !strings.HasSuffix(got, filepath.Join("simplabel", "config.yaml")) {
		t.Errorf("ConfigFile() = %q, want path ending in simplabel/config.yaml", got)
	}
}
