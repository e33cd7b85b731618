// Package aggregate merges per-user label stores into a unified
// cross-user view and classifies each image's consensus state. Reads are
// deliberately uncached: every build re-scans all user files so a
// consistency check always reflects other sessions' latest saves.
// Labeling sessions are long and infrequent-write, so the extra I/O is
// acceptable in exchange for never acting on stale labels.
package aggregate

import (
	"github.com/hlgirard/simplabel/internal/logging"
	"github.com/hlgirard/simplabel/internal/store"
)

// View maps each image identifier to the labels users assigned it,
// keyed by username. Derived state; never persisted.
type View map[string]map[string]string

// Labels returns the username-to-category mapping for an image, or nil if
// no user has labeled it.
func (v View) Labels(image string) map[string]string {
	return v[image]
}

// Distinct returns the distinct categories assigned to an image.
func (v View) Distinct(image string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, category := range v[image] {
		if !seen[category] {
			seen[category] = true
			out = append(out, category)
		}
	}
	return out
}

// add records one user's label for an image.
func (v View) add(image, username, category string) {
	labels, ok := v[image]
	if !ok {
		labels = make(map[string]string)
		v[image] = labels
	}
	labels[username] = category
}

// Classification partitions a list of images into three disjoint ordered
// sublists by consensus state.
type Classification struct {
	// Agreed holds images where every assigned label is identical
	// (including images labeled by a single user).
	Agreed []string
	// Disagreed holds images with two or more distinct labels.
	Disagreed []string
	// Unlabeled holds images no user has labeled.
	Unlabeled []string
}

// Aggregator builds Views from the on-disk label stores.
type Aggregator struct {
	store *store.Store
	log   *logging.Logger
}

// New creates an Aggregator over the given store.
func New(st *store.Store, log *logging.Logger) *Aggregator {
	return &Aggregator{store: st, log: log}
}

// Build folds every known user's on-disk labels into a fresh View, then
// folds the in-memory current store last under the current username's key
// so unsaved edits are visible. In redundant mode other users' labels are
// deliberately hidden and an empty view is returned, which disables
// conflict detection entirely.
func (a *Aggregator) Build(users []string, currentUser string, current map[string]string, redundant bool) (View, error) {
	view := make(View)
	if redundant {
		return view, nil
	}

	for _, user := range users {
		if user == currentUser {
			continue
		}
		labels, err := a.store.LoadUserLabels(user)
		if err != nil {
			return nil, err
		}
		for image, category := range labels {
			view.add(image, user, category)
		}
	}

	for image, category := range current {
		view.add(image, currentUser, category)
	}

	a.log.Debug("aggregated view built", "users", len(users), "images", len(view))
	return view, nil
}

// ClassifyFresh rebuilds the view from disk and classifies imageIDs
// against it. Callers that need consensus decisions (reconciliation
// entry, master promotion) go through here so the result reflects the
// current on-disk state of every user, never a stale cache.
func (a *Aggregator) ClassifyFresh(imageIDs, users []string, currentUser string, current map[string]string, redundant bool) (Classification, View, error) {
	view, err := a.Build(users, currentUser, current, redundant)
	if err != nil {
		return Classification{}, nil, err
	}
	return Classify(imageIDs, view), view, nil
}

// Classify partitions imageIDs into agreed, disagreed, and unlabeled
// sublists, preserving the input order within each partition.
func Classify(imageIDs []string, view View) Classification {
	var c Classification
	for _, image := range imageIDs {
		labels := view[image]
		switch {
		case len(labels) == 0:
			c.Unlabeled = append(c.Unlabeled, image)
		case len(view.Distinct(image)) > 1:
			c.Disagreed = append(c.Disagreed, image)
		default:
			c.Agreed = append(c.Agreed, image)
		}
	}
	return c
}
