// Package watch surfaces peer label-store writes as refresh hints so the
// session notices new labels between its polled refresh intervals. The
// watcher supplements the timers; losing an event only delays a refresh
// until the next tick.
package watch

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hlgirard/simplabel/internal/logging"
)

// debounceWindow collapses the burst of events an atomic rename produces
const debounceWindow = 100 * time.Millisecond

// Watcher watches a label directory for peer store writes
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	username string
	log      *logging.Logger

	// Callback invoked (from the watch goroutine) when a peer store changed
	onChange func(user string)

	stopCh chan struct{}
}

// New creates a watcher for the given label directory. Events for the
// given username's own store are ignored.
func New(dir, username string, log *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		watcher:  fsw,
		dir:      dir,
		username: username,
		log:      log,
		stopCh:   make(chan struct{}),
	}, nil
}

// SetChangeCallback sets the callback for peer store changes. Must be set
// before Start.
func (w *Watcher) SetChangeCallback(cb func(user string)) {
	w.onChange = cb
}

// Start begins watching for peer store writes
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop stops the watcher and releases the inotify handle
func (w *Watcher) Stop() {
	close(w.stopCh)
	_ = w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	debounce := time.NewTimer(0)
	<-debounce.C

	pending := make(map[string]struct{})

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Atomic saves surface as create/rename of the final name.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			user, ok := peerStoreUser(filepath.Base(event.Name))
			if !ok || user == w.username {
				continue
			}
			pending[user] = struct{}{}
			debounce.Reset(debounceWindow)

		case <-debounce.C:
			for user := range pending {
				w.log.Debug("peer store changed", "peer", user)
				if w.onChange != nil {
					w.onChange(user)
				}
			}
			pending = make(map[string]struct{})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

// peerStoreUser extracts the username from a label store filename,
// reporting false for anything that is not a store file.
func peerStoreUser(name string) (string, bool) {
	if !strings.HasPrefix(name, "labeled_") || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	user := strings.TrimSuffix(strings.TrimPrefix(name, "labeled_"), ".json")
	if user == "" {
		return "", false
	}
	return user, true
}
