// Package store reads and writes the persistent label state shared by all
// labeling sessions: the ordered category list, one label mapping per user,
// and the reconciled master mapping. All files live directly in the image
// directory and every write is a whole-file atomic replace, so concurrent
// sessions writing different users' files never interfere.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File names within the label directory.
const (
	// CategoriesFileName holds the shared, ordered category list.
	CategoriesFileName = "labels.json"

	// MasterUser is the reserved username for the reconciled label set.
	MasterUser = "master"

	userFilePrefix = "labeled_"
	userFileSuffix = ".json"
)

// Sentinel errors returned by store operations.
var (
	// ErrNotFound is returned when a requested file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrCorrupt is returned when a label file exists but cannot be parsed.
	ErrCorrupt = errors.New("label file corrupted")

	// ErrNoDirectory is returned when the label directory does not exist.
	ErrNoDirectory = errors.New("label directory does not exist")
)

// Store provides access to the label files of a single directory.
type Store struct {
	dir string
}

// New creates a Store rooted at the given directory. The directory must
// already exist; sessions never create the image directory themselves.
func New(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoDirectory, dir)
		}
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoDirectory, dir)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory this store operates on.
func (s *Store) Dir() string {
	return s.dir
}

// CategoriesPath returns the path of the shared category list file.
func (s *Store) CategoriesPath() string {
	return filepath.Join(s.dir, CategoriesFileName)
}

// UserLabelsPath returns the path of a user's label file.
func (s *Store) UserLabelsPath(username string) string {
	return filepath.Join(s.dir, userFilePrefix+username+userFileSuffix)
}

// LoadCategories reads the shared category list. Every entry is sanitized
// and duplicates are removed while preserving first-seen order.
// Returns ErrNotFound if the file does not exist.
func (s *Store) LoadCategories() ([]string, error) {
	data, err := os.ReadFile(s.CategoriesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, CategoriesFileName)
		}
		return nil, fmt.Errorf("failed to read category file: %w", err)
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, CategoriesFileName, err)
	}

	return dedupe(sanitizeAll(raw)), nil
}

// SaveCategories persists the full ordered category list, overwriting any
// prior file. Entries are sanitized and deduplicated before writing so the
// on-disk list is always in canonical form.
func (s *Store) SaveCategories(categories []string) error {
	canonical := dedupe(sanitizeAll(categories))
	data, err := json.MarshalIndent(canonical, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}
	return atomicWriteFile(s.CategoriesPath(), data, 0644)
}

// LoadUserLabels reads a user's image-to-category mapping. A missing file
// is not an error: the user simply has no labels yet and an empty mapping
// is returned. A present-but-unparsable file returns ErrCorrupt.
func (s *Store) LoadUserLabels(username string) (map[string]string, error) {
	path := s.UserLabelsPath(username)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read label file for %s: %w", username, err)
	}

	var labels map[string]string
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}
	if labels == nil {
		labels = map[string]string{}
	}
	return labels, nil
}

// SaveUserLabels fully overwrites a user's label file with the given
// mapping. The write is atomic; readers never observe a partial file.
func (s *Store) SaveUserLabels(username string, labels map[string]string) error {
	data, err := json.MarshalIndent(labels, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal labels for %s: %w", username, err)
	}
	return atomicWriteFile(s.UserLabelsPath(username), data, 0644)
}

// DeleteUserLabels removes a user's label file. Deleting a file that does
// not exist is not an error.
func (s *Store) DeleteUserLabels(username string) error {
	if err := os.Remove(s.UserLabelsPath(username)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete label file for %s: %w", username, err)
	}
	return nil
}

// LoadMasterLabels reads the reconciled master mapping.
// Returns ErrNotFound if no master file has been produced yet.
func (s *Store) LoadMasterLabels() (map[string]string, error) {
	path := s.UserLabelsPath(MasterUser)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("failed to stat master file: %w", err)
	}
	return s.LoadUserLabels(MasterUser)
}

// SaveMasterLabels writes the reconciled mapping under the reserved master
// filename, distinct from any human user's file.
func (s *Store) SaveMasterLabels(labels map[string]string) error {
	return s.SaveUserLabels(MasterUser, labels)
}

// Users returns the sanitized usernames of every labeler that has a label
// file in the directory, sorted alphabetically. The reserved master user
// is included when a master file exists; it participates in aggregation
// like any other labeler.
func (s *Store) Users() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read label directory: %w", err)
	}

	var users []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, userFilePrefix) || !strings.HasSuffix(name, userFileSuffix) {
			continue
		}
		user := strings.TrimSuffix(strings.TrimPrefix(name, userFilePrefix), userFileSuffix)
		if user == "" {
			continue
		}
		users = append(users, user)
	}
	sort.Strings(users)
	return users, nil
}

// sanitizeAll applies category sanitization to every entry.
func sanitizeAll(categories []string) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if s := SanitizeCategory(c); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// dedupe removes duplicates while preserving first-seen order.
func dedupe(categories []string) []string {
	seen := make(map[string]bool, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// atomicWriteFile writes data to a file atomically by writing to a
// temporary file in the same directory, then renaming. The target file is
// never observable in a partially-written state.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
