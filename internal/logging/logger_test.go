package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")

	log, err := New(path, LevelDebug, RotationConfig{})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	log.WithUser("alice").Info("session started", "images", 3)
	if err := log.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log entry is not JSON: %v", err)
	}
	if entry["msg"] != "session started" {
		t.Errorf("msg = %v, want %q", entry["msg"], "session started")
	}
	if entry["user"] != "alice" {
		t.Errorf("user = %v, want %q", entry["user"], "alice")
	}
	if entry["images"] != float64(3) {
		t.Errorf("images = %v, want 3", entry["images"])
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")

	log, err := New(path, LevelWarn, RotationConfig{})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")
	if err := log.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("below-threshold messages were written")
	}
	if !strings.Contains(string(data), "shown") {
		t.Error("warn message missing")
	}
}

func TestNop_DiscardsOutput(t *testing.T) {
	log := Nop()
	log.Info("goes nowhere")
	if err := log.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestRotatingWriter_RotatesAndKeepsBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "debug.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}

	// Each write is half a megabyte; the third pushes past the limit.
	chunk := make([]byte, 512*1024)
	for i := range chunk {
		chunk[i] = 'x'
	}
	for i := 0; i < 3; i++ {
		if _, err := rw.Write(chunk); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("active log file missing: %v", err)
	}
	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("backup missing: %v", err)
	}
}

func TestRotatingWriter_NoRotationWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "debug.log")

	rw, err := NewRotatingWriter(path, RotationConfig{})
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	for i := 0; i < 10; i++ {
		if _, err := fmt.Fprintf(rw, "line %d\n", i); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected a single log file, found %d entries", len(entries))
	}
}
