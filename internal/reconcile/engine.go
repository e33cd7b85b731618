// Package reconcile implements the guided workflow for resolving
// disagreed labels. The engine is a two-state machine: in Labeling mode
// classify actions belong to the session's own store; in Reconciling mode
// they land in a transient resolution set that is broadcast into every
// labeler's store on commit, making the decision unanimous.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/hlgirard/simplabel/internal/aggregate"
	"github.com/hlgirard/simplabel/internal/lock"
	"github.com/hlgirard/simplabel/internal/logging"
	"github.com/hlgirard/simplabel/internal/store"
)

// State identifies the engine's mode.
type State int

const (
	// StateLabeling is the initial mode: classifications go to the
	// session's own label store.
	StateLabeling State = iota
	// StateReconciling routes classifications into the transient
	// resolution set.
	StateReconciling
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateLabeling:
		return "labeling"
	case StateReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}

// Sentinel errors returned by engine transitions.
var (
	// ErrPeerLocked blocks entry into reconciliation while another
	// labeler's session is active. This is a retry-later condition, not
	// a failure.
	ErrPeerLocked = errors.New("another labeler session is active")

	// ErrNotReconciling is returned when a reconciling-only operation is
	// called in labeling mode.
	ErrNotReconciling = errors.New("engine is not reconciling")

	// ErrAlreadyReconciling is returned when entry is attempted twice.
	ErrAlreadyReconciling = errors.New("engine is already reconciling")
)

// Engine drives the Labeling/Reconciling state machine for one session.
type Engine struct {
	store *store.Store
	locks *lock.Manager
	agg   *aggregate.Aggregator
	log   *logging.Logger

	state       State
	resolutions map[string]string
}

// New creates an Engine in the Labeling state.
func New(st *store.Store, locks *lock.Manager, agg *aggregate.Aggregator, log *logging.Logger) *Engine {
	return &Engine{
		store: st,
		locks: locks,
		agg:   agg,
		log:   log,
		state: StateLabeling,
	}
}

// State returns the engine's current mode.
func (e *Engine) State() State {
	return e.state
}

// Resolutions returns a copy of the transient resolution set.
func (e *Engine) Resolutions() map[string]string {
	out := make(map[string]string, len(e.resolutions))
	for image, category := range e.resolutions {
		out[image] = category
	}
	return out
}

// Enter transitions Labeling -> Reconciling. The caller must have flushed
// the session's pending edits to disk first; the engine verifies that no
// other known user's lock is held, then returns a fresh conflict
// classification so the caller can reorder its image list as
// agreed ++ disagreed ++ unlabeled with the cursor on the first disagreed
// image. The resolution set starts empty.
func (e *Engine) Enter(imageIDs, users []string, currentUser string, current map[string]string) (aggregate.Classification, error) {
	if e.state == StateReconciling {
		return aggregate.Classification{}, ErrAlreadyReconciling
	}

	peer, err := e.locks.AnyPeerLocked(users, currentUser)
	if err != nil {
		return aggregate.Classification{}, err
	}
	if peer != "" {
		return aggregate.Classification{}, fmt.Errorf("%w: %s", ErrPeerLocked, peer)
	}

	classification, _, err := e.agg.ClassifyFresh(imageIDs, users, currentUser, current, false)
	if err != nil {
		return aggregate.Classification{}, err
	}

	e.resolutions = make(map[string]string)
	e.state = StateReconciling
	e.log.Info("entered reconciliation",
		"agreed", len(classification.Agreed),
		"disagreed", len(classification.Disagreed),
		"unlabeled", len(classification.Unlabeled),
	)
	return classification, nil
}

// Resolve records the chosen category for an image in the transient set.
// Per-user stores are neither consulted nor mutated here.
func (e *Engine) Resolve(image, category string) error {
	if e.state != StateReconciling {
		return ErrNotReconciling
	}
	e.resolutions[image] = category
	return nil
}

// Commit transitions Reconciling -> Labeling by broadcasting every
// resolution into every known user's store and persisting all of them.
// Once a master file exists it counts as a labeler like any other, so it
// receives the broadcast too; leaving it out would freeze its old values
// as permanent disagreements. The caller's in-memory store is updated in
// place so the session's view matches what was just written under its
// name.
func (e *Engine) Commit(users []string, currentUser string, current map[string]string) error {
	if e.state != StateReconciling {
		return ErrNotReconciling
	}

	for _, user := range users {
		var labels map[string]string
		if user == currentUser {
			labels = current
		} else {
			loaded, err := e.store.LoadUserLabels(user)
			if err != nil {
				return fmt.Errorf("failed to load %s's labels for broadcast: %w", user, err)
			}
			labels = loaded
		}

		for image, category := range e.resolutions {
			labels[image] = category
		}
		if err := e.store.SaveUserLabels(user, labels); err != nil {
			return fmt.Errorf("failed to persist broadcast for %s: %w", user, err)
		}
	}

	e.log.Info("reconciliation committed", "resolutions", len(e.resolutions), "users", len(users))
	e.resolutions = nil
	e.state = StateLabeling
	return nil
}

// Discard drops the transient set and returns to Labeling without
// touching any store. Used when the session is torn down mid-reconcile.
func (e *Engine) Discard() {
	if e.state == StateReconciling {
		e.log.Info("reconciliation discarded", "resolutions", len(e.resolutions))
	}
	e.resolutions = nil
	e.state = StateLabeling
}
