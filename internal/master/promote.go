// Package master produces the canonical label file once every labeled
// image has a unanimous category across users. Promotion is not owned by
// any user: whichever session runs it takes the reserved master lock for
// the duration of the write. Two sessions promoting at nearly the same
// time still race last-write-wins on the file itself; that is an accepted
// limitation of the single-directory coordination model.
package master

import (
	"errors"
	"fmt"

	"github.com/hlgirard/simplabel/internal/aggregate"
	"github.com/hlgirard/simplabel/internal/lock"
	"github.com/hlgirard/simplabel/internal/logging"
	"github.com/hlgirard/simplabel/internal/store"
)

// Sentinel errors returned by Promote.
var (
	// ErrNeedsReconciliation is the expected, recoverable precondition
	// failure: disagreed labels exist and the caller should run the
	// reconciliation workflow instead.
	ErrNeedsReconciliation = errors.New("disagreed labels require reconciliation")

	// ErrDeclined is returned when the caller declines to promote past
	// unlabeled images. The operation simply does not happen.
	ErrDeclined = errors.New("promotion declined")
)

// Promoter builds and writes the master label store.
type Promoter struct {
	store *store.Store
	locks *lock.Manager
	agg   *aggregate.Aggregator
	log   *logging.Logger
}

// New creates a Promoter.
func New(st *store.Store, locks *lock.Manager, agg *aggregate.Aggregator, log *logging.Logger) *Promoter {
	return &Promoter{store: st, locks: locks, agg: agg, log: log}
}

// Promote recomputes the conflict classification and, when no
// disagreement remains, writes the canonical mapping under the reserved
// master filename. The caller must have flushed its pending edits first.
//
// confirmUnlabeled is consulted when unlabeled images remain; returning
// false aborts with ErrDeclined. Re-running promotion after no new labels
// were added produces an equivalent mapping.
func (p *Promoter) Promote(imageIDs, users []string, currentUser string, current map[string]string, confirmUnlabeled func(count int) bool) (map[string]string, error) {
	classification, view, err := p.agg.ClassifyFresh(imageIDs, users, currentUser, current, false)
	if err != nil {
		return nil, err
	}

	if n := len(classification.Disagreed); n > 0 {
		return nil, fmt.Errorf("%w: %d images disagreed", ErrNeedsReconciliation, n)
	}
	if n := len(classification.Unlabeled); n > 0 {
		if confirmUnlabeled == nil || !confirmUnlabeled(n) {
			return nil, fmt.Errorf("%w: %d images unlabeled", ErrDeclined, n)
		}
	}

	promoted := make(map[string]string, len(view))
	for image, labels := range view {
		category, err := unanimous(image, labels)
		if err != nil {
			return nil, err
		}
		promoted[image] = category
	}

	// The reserved identity's lock guards the write against a session
	// running under the master name, not against a concurrent promotion
	// that has already passed this point.
	masterLock, err := p.locks.ForUser(store.MasterUser)
	if err != nil {
		return nil, err
	}
	if err := masterLock.Acquire(); err != nil {
		return nil, fmt.Errorf("cannot promote: %w", err)
	}
	defer masterLock.Release()

	if err := p.store.SaveMasterLabels(promoted); err != nil {
		return nil, err
	}

	p.log.Info("master labels promoted", "images", len(promoted), "users", len(users))
	return promoted, nil
}

// unanimous returns the single category all users assigned to an image.
// Classification has already ruled out disagreement; this re-checks the
// invariant explicitly instead of trusting call order.
func unanimous(image string, labels map[string]string) (string, error) {
	var category string
	for _, c := range labels {
		if category == "" {
			category = c
			continue
		}
		if c != category {
			return "", fmt.Errorf("label divergence for %s after conflict check: %q vs %q", image, category, c)
		}
	}
	return category, nil
}
