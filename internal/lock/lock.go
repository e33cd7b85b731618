// Package lock provides the filesystem-based mutual exclusion used to keep
// two sessions from running under the same username at once. Each username
// has one token file in the label directory holding a two-state flag
// (locked/unlocked). This is a cooperative, best-effort primitive: the
// shared directory is the only coordination medium available, and the
// usage model assumes non-malicious users under a single administrator.
//
// The Locker interface isolates callers from the file-based design so an
// alternative backend (for example an advisory OS file lock) could be
// substituted without touching them.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Token file states.
const (
	stateLocked   = "locked"
	stateUnlocked = "unlocked"
)

// ErrAlreadyLocked is returned when the username's token is already held
// by another session.
var ErrAlreadyLocked = errors.New("username is locked by another session")

// Locker is the mutual-exclusion contract a session depends on.
type Locker interface {
	// Acquire takes the lock, failing with ErrAlreadyLocked if it is held.
	Acquire() error
	// Release unconditionally returns the lock to the unlocked state.
	// It is idempotent.
	Release() error
	// IsLocked reports whether the lock is currently held.
	IsLocked() (bool, error)
}

// FileLock is a Locker backed by a per-username token file.
type FileLock struct {
	path     string
	username string
}

// New returns the FileLock for a username within a directory, creating the
// token file in the unlocked state if this is the first reference to the
// username.
func New(dir, username string) (*FileLock, error) {
	l := &FileLock{
		path:     TokenPath(dir, username),
		username: username,
	}

	// First reference creates the token unlocked. O_EXCL keeps a racing
	// first reference from clobbering a token another process just wrote.
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("failed to create lock token: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(stateUnlocked); err != nil {
		return nil, fmt.Errorf("failed to initialize lock token: %w", err)
	}
	return l, nil
}

// TokenPath returns the lock token path for a username within a directory.
func TokenPath(dir, username string) string {
	return filepath.Join(dir, "."+username+"_lock")
}

// Username returns the username this lock guards.
func (l *FileLock) Username() string {
	return l.username
}

// Acquire sets the token to locked. Fails with ErrAlreadyLocked if the
// token currently reads locked. Two processes racing here rely on the
// filesystem's write semantics; that is acceptable under the cooperative
// single-admin usage model.
func (l *FileLock) Acquire() error {
	locked, err := l.IsLocked()
	if err != nil {
		return err
	}
	if locked {
		return fmt.Errorf("%w: %s", ErrAlreadyLocked, l.username)
	}
	return l.write(stateLocked)
}

// Release unconditionally sets the token to unlocked. Idempotent.
func (l *FileLock) Release() error {
	return l.write(stateUnlocked)
}

// IsLocked reports whether the token currently reads locked. A missing
// token counts as unlocked.
func (l *FileLock) IsLocked() (bool, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read lock token: %w", err)
	}
	return strings.TrimSpace(string(data)) == stateLocked, nil
}

func (l *FileLock) write(state string) error {
	if err := os.WriteFile(l.path, []byte(state), 0644); err != nil {
		return fmt.Errorf("failed to write lock token: %w", err)
	}
	return nil
}

// Manager hands out locks for usernames within one label directory and
// answers peer-lock queries without forcing callers to hold a FileLock
// for every user they only want to inspect.
type Manager struct {
	dir string
}

// NewManager creates a Manager for the given directory.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// ForUser returns the lock for a username, creating its token on first
// reference.
func (m *Manager) ForUser(username string) (*FileLock, error) {
	return New(m.dir, username)
}

// IsLocked reports whether the given username's token reads locked.
// A username with no token yet is unlocked.
func (m *Manager) IsLocked(username string) (bool, error) {
	l := &FileLock{path: TokenPath(m.dir, username), username: username}
	return l.IsLocked()
}

// AnyPeerLocked reports the first username other than current whose lock
// is held, or "" when no peer session is active.
func (m *Manager) AnyPeerLocked(users []string, current string) (string, error) {
	for _, user := range users {
		if user == current {
			continue
		}
		locked, err := m.IsLocked(user)
		if err != nil {
			return "", err
		}
		if locked {
			return user, nil
		}
	}
	return "", nil
}
