package session

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
}

var testPatterns = []string{"*.jpg", "*.jpeg", "*.png"}

func TestDiscoverImages_Root(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.jpg"))
	touch(t, filepath.Join(dir, "a.png"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, ".hidden.jpg"))

	images, err := DiscoverImages(dir, testPatterns)
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	if want := []string{"a.png", "b.jpg"}; !reflect.DeepEqual(images, want) {
		t.Errorf("images = %v, want %v", images, want)
	}
}

func TestDiscoverImages_CaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "SHOUTY.JPG"))
	touch(t, filepath.Join(dir, "Mixed.Jpeg"))

	images, err := DiscoverImages(dir, testPatterns)
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	if len(images) != 2 {
		t.Errorf("images = %v, want both case variants matched", images)
	}
}

func TestDiscoverImages_SubdirectoryFallback(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "readme.md"))
	touch(t, filepath.Join(dir, "batch1", "a.jpg"))
	touch(t, filepath.Join(dir, "batch2", "b.jpg"))
	touch(t, filepath.Join(dir, ".git", "c.jpg"))

	images, err := DiscoverImages(dir, testPatterns)
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	if want := []string{"batch1/a.jpg", "batch2/b.jpg"}; !reflect.DeepEqual(images, want) {
		t.Errorf("images = %v, want %v", images, want)
	}
}

func TestDiscoverImages_RootWinsOverSubdirs(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "root.jpg"))
	touch(t, filepath.Join(dir, "batch", "nested.jpg"))

	images, err := DiscoverImages(dir, testPatterns)
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	if want := []string{"root.jpg"}; !reflect.DeepEqual(images, want) {
		t.Errorf("images = %v, want root-level only", images)
	}
}

func TestDiscoverImages_Empty(t *testing.T) {
	images, err := DiscoverImages(t.TempDir(), testPatterns)
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	if len(images) != 0 {
		t.Errorf("images = %v, want none", images)
	}
}

func TestDiscoverImages_BadPattern(t *testing.T) {
	if _, err := DiscoverImages(t.TempDir(), []string{"[unclosed"}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}
