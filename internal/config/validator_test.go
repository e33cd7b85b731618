package config

import (
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "test.field",
		Value:   123,
		Message: "must be greater than zero",
	}

	expected := "test.field: must be greater than zero (got: 123)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "test.field", Value: 123, Message: "is invalid"},
		}
		expected := "test.field: is invalid (got: 123)"
		if errs.Error() != expected {
			t.Errorf("Error() = %q, want %q", errs.Error(), expected)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "a", Value: 1, Message: "bad"},
			{Field: "b", Value: 2, Message: "worse"},
		}
		got := errs.Error()
		if !strings.HasPrefix(got, "2 validation errors:") {
			t.Errorf("Error() = %q, want count header", got)
		}
		if !strings.Contains(got, "a: bad") || !strings.Contains(got, "b: worse") {
			t.Errorf("Error() = %q, missing individual messages", got)
		}
	})
}

func TestValidate_Session(t *testing.T) {
	cfg := Default()
	cfg.Session.AutoSaveSeconds = -1
	cfg.Session.AutoRefreshSeconds = -5

	errs := cfg.Validate()
	if len(errs) != 2 {
		t.Fatalf("Validate() returned %d errors, want 2: %v", len(errs), ValidationErrors(errs))
	}
	if errs[0].Field != "session.auto_save_seconds" {
		t.Errorf("first error field = %q, want session.auto_save_seconds", errs[0].Field)
	}
	if errs[1].Field != "session.auto_refresh_seconds" {
		t.Errorf("second error field = %q, want session.auto_refresh_seconds", errs[1].Field)
	}
}

func TestValidate_Session_ZeroDisables(t *testing.T) {
	cfg := Default()
	cfg.Session.AutoSaveSeconds = 0
	cfg.Session.AutoRefreshSeconds = 0

	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("zero intervals should be valid (disabled), got: %v", ValidationErrors(errs))
	}
}

func TestValidate_Images(t *testing.T) {
	t.Run("empty pattern list", func(t *testing.T) {
		cfg := Default()
		cfg.Images.Patterns = nil

		errs := cfg.Validate()
		if len(errs) != 1 || errs[0].Field != "images.patterns" {
			t.Errorf("Validate() = %v, want one images.patterns error", ValidationErrors(errs))
		}
	})

	t.Run("blank pattern", func(t *testing.T) {
		cfg := Default()
		cfg.Images.Patterns = []string{"*.jpg", "   "}

		errs := cfg.Validate()
		if len(errs) != 1 || errs[0].Field != "images.patterns[1]" {
			t.Errorf("Validate() = %v, want one images.patterns[1] error", ValidationErrors(errs))
		}
	})
}

func TestValidate_Logging(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "invalid level",
			mutate:    func(c *Config) { c.Logging.Level = "verbose" },
			wantField: "logging.level",
		},
		{
			name:      "zero max size",
			mutate:    func(c *Config) { c.Logging.MaxSizeMB = 0 },
			wantField: "logging.max_size_mb",
		},
		{
			name:      "excessive max size",
			mutate:    func(c *Config) { c.Logging.MaxSizeMB = 5000 },
			wantField: "logging.max_size_mb",
		},
		{
			name:      "negative backups",
			mutate:    func(c *Config) { c.Logging.MaxBackups = -1 },
			wantField: "logging.max_backups",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			if len(errs) != 1 {
				t.Fatalf("Validate() returned %d errors, want 1: %v", len(errs), ValidationErrors(errs))
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("error field = %q, want %q", errs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidate_EmptyLevelAllowed(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = ""

	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("empty level should be valid (defaulted later), got: %v", ValidationErrors(errs))
	}
}
