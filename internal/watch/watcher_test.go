package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hlgirard/simplabel/internal/logging"
)

func TestPeerStoreUser(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantUser string
		wantOK   bool
	}{
		{"peer store", "labeled_bob.json", "bob", true},
		{"master store", "labeled_master.json", "master", true},
		{"category file", "labels.json", "", false},
		{"lock token", ".bob_lock", "", false},
		{"temp file", "labeled_bob.json.tmp123", "", false},
		{"empty user", "labeled_.json", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, ok := peerStoreUser(tt.filename)
			if user != tt.wantUser || ok != tt.wantOK {
				t.Errorf("peerStoreUser(%q) = %q, %v; want %q, %v",
					tt.filename, user, ok, tt.wantUser, tt.wantOK)
			}
		})
	}
}

func TestWatcher_NotifiesOnPeerWrite(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, "alice", logging.Nop())
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Stop()

	var mu sync.Mutex
	changed := make(map[string]int)
	notified := make(chan struct{}, 4)
	w.SetChangeCallback(func(user string) {
		mu.Lock()
		changed[user]++
		mu.Unlock()
		notified <- struct{}{}
	})
	w.Start()

	// A peer saves; alice saves her own store; an unrelated file appears.
	if err := os.WriteFile(filepath.Join(dir, "labeled_bob.json"), []byte("{}"), 0644); err != nil {
		t.Fatalf("failed to write peer store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "labeled_alice.json"), []byte("{}"), 0644); err != nil {
		t.Fatalf("failed to write own store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write unrelated file: %v", err)
	}

	select {
	case <-notified:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}

	// Allow the debounce window to flush any trailing events.
	time.Sleep(2 * debounceWindow)

	mu.Lock()
	defer mu.Unlock()
	if changed["bob"] == 0 {
		t.Error("expected a notification for bob's store")
	}
	if changed["alice"] != 0 {
		t.Error("own store writes must not notify")
	}
	if len(changed) != 1 {
		t.Errorf("changed = %v, want only bob", changed)
	}
}

func TestWatcher_StopIsClean(t *testing.T) {
	w, err := New(t.TempDir(), "alice", logging.Nop())
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	w.Start()
	w.Stop()
	// No callback after stop; just verify Stop does not panic or hang.
}
