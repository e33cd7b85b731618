// Package flow sorts a labeled directory into per-category
// subdirectories, the batch counterpart to interactive labeling. It
// prefers the reconciled master store and falls back to a named user's
// store when no explicit choice is made.
package flow

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hlgirard/simplabel/internal/logging"
	"github.com/hlgirard/simplabel/internal/store"
)

// Sentinel errors returned by Run.
var (
	// ErrNoMaster is returned when no user was named and no master store
	// exists to fall back on.
	ErrNoMaster = errors.New("no master labels found")

	// ErrNoLabels is returned when the selected store is empty.
	ErrNoLabels = errors.New("no labels to flow")
)

// Summary reports what a flow run did.
type Summary struct {
	// Labeler is the store the labels came from (a username or "master").
	Labeler string
	// Moved is how many images were placed, per category.
	Moved map[string]int
	// Missing lists labeled images absent from the source directory.
	Missing []string
}

// Total returns the number of images placed across all categories.
func (s Summary) Total() int {
	n := 0
	for _, count := range s.Moved {
		n += count
	}
	return n
}

// Runner copies or moves labeled images into category subdirectories.
type Runner struct {
	store *store.Store
	log   *logging.Logger

	// Move relocates images instead of copying them.
	Move bool
}

// New creates a Runner over the given label directory.
func New(srcDir string, log *logging.Logger) (*Runner, error) {
	st, err := store.New(srcDir)
	if err != nil {
		return nil, err
	}
	return &Runner{store: st, log: log.WithDirectory(srcDir)}, nil
}

// Run fans the selected store out into targetDir/<category>/ directories.
// An empty username selects the master store; a labeled image missing
// from the source directory is recorded in the summary, not fatal.
func (r *Runner) Run(targetDir, username string) (Summary, error) {
	labeler := username
	var labels map[string]string
	var err error

	if labeler == "" {
		labeler = store.MasterUser
		labels, err = r.store.LoadMasterLabels()
		if errors.Is(err, store.ErrNotFound) {
			return Summary{}, fmt.Errorf("%w: promote one or name a labeler", ErrNoMaster)
		}
	} else {
		labels, err = r.store.LoadUserLabels(store.SanitizeUsername(labeler))
	}
	if err != nil {
		return Summary{}, err
	}
	if len(labels) == 0 {
		return Summary{}, fmt.Errorf("%w for %s", ErrNoLabels, labeler)
	}

	summary := Summary{Labeler: labeler, Moved: map[string]int{}}
	for image, category := range labels {
		src := filepath.Join(r.store.Dir(), filepath.FromSlash(image))
		if _, err := os.Stat(src); err != nil {
			if os.IsNotExist(err) {
				summary.Missing = append(summary.Missing, image)
				r.log.Warn("labeled image missing from directory", "image", image)
				continue
			}
			return summary, fmt.Errorf("failed to stat %s: %w", image, err)
		}

		dstDir := filepath.Join(targetDir, category)
		if err := os.MkdirAll(dstDir, 0755); err != nil {
			return summary, fmt.Errorf("failed to create category directory: %w", err)
		}

		dst := filepath.Join(dstDir, filepath.Base(image))
		if r.Move {
			err = moveFile(src, dst)
		} else {
			err = copyFile(src, dst)
		}
		if err != nil {
			return summary, fmt.Errorf("failed to place %s: %w", image, err)
		}
		summary.Moved[category]++
	}

	r.log.Info("flow complete",
		"labeler", labeler,
		"placed", summary.Total(),
		"missing", len(summary.Missing),
		"moved", r.Move,
	)
	return summary, nil
}

// copyFile copies src to dst, preserving the modification time so
// downstream tooling keyed on capture time keeps working.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// moveFile renames src to dst, copying across filesystems when rename
// is not possible.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
