// Package session owns one labeler's view of a shared image directory:
// the ordered image list and cursor, the in-memory label store, and the
// transitions into reconciliation and master promotion. The presentation
// layer calls into the controller and renders whatever state it exposes;
// nothing here knows about terminals.
package session

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/hlgirard/simplabel/internal/aggregate"
	"github.com/hlgirard/simplabel/internal/config"
	"github.com/hlgirard/simplabel/internal/lock"
	"github.com/hlgirard/simplabel/internal/logging"
	"github.com/hlgirard/simplabel/internal/master"
	"github.com/hlgirard/simplabel/internal/reconcile"
	"github.com/hlgirard/simplabel/internal/store"
)

// RemoveCategory is the always-available pseudo-category that clears an
// image's label instead of assigning one.
const RemoveCategory = "Remove"

// Sentinel errors returned by controller operations.
var (
	// ErrEmptyUsername is returned when the username sanitizes to nothing.
	ErrEmptyUsername = errors.New("username is empty")

	// ErrReservedUsername is returned when a session is requested under
	// the reserved master identity.
	ErrReservedUsername = errors.New("username is reserved")

	// ErrNoCategories is returned when no category list was supplied and
	// none exists in the directory.
	ErrNoCategories = errors.New("no categories defined")

	// ErrUnknownCategory is returned when a label (stored or requested)
	// names a category outside the shared list.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrNoCurrentImage is returned by image-relative operations when the
	// image list is empty.
	ErrNoCurrentImage = errors.New("no current image")

	// ErrRemoveDuringReconcile is returned when a removal is requested
	// while reconciling; resolutions assign a category, never clear one.
	ErrRemoveDuringReconcile = errors.New("cannot remove labels while reconciling")
)

// Controller drives a single labeling session.
type Controller struct {
	cfg      *config.Config
	store    *store.Store
	locks    *lock.Manager
	lock     *lock.FileLock
	agg      *aggregate.Aggregator
	engine   *reconcile.Engine
	promoter *master.Promoter
	log      *logging.Logger

	username   string
	categories []string
	users      []string

	images []string
	cursor int

	labels map[string]string
	view   aggregate.View
	dirty  bool

	lastSave    time.Time
	lastRefresh time.Time
	refreshHint bool
}

// New opens a labeling session on cfg.Directory for cfg.Username: the
// username is sanitized, the session lock acquired, categories resolved,
// the user's saved labels loaded and validated, and the image list
// discovered and ordered. The lock is released again if any later step
// fails.
func New(cfg *config.Config, log *logging.Logger) (*Controller, error) {
	username := store.SanitizeUsername(cfg.Username)
	if username == "" {
		return nil, ErrEmptyUsername
	}
	if store.IsReservedUsername(username) {
		return nil, fmt.Errorf("%w: %s", ErrReservedUsername, username)
	}

	st, err := store.New(cfg.Directory)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:      cfg,
		store:    st,
		locks:    lock.NewManager(st.Dir()),
		log:      log.WithUser(username).WithDirectory(st.Dir()),
		username: username,
		labels:   map[string]string{},
	}
	c.agg = aggregate.New(st, c.log)
	c.engine = reconcile.New(st, c.locks, c.agg, c.log)
	c.promoter = master.New(st, c.locks, c.agg, c.log)

	c.lock, err = c.locks.ForUser(username)
	if err != nil {
		return nil, err
	}
	if cfg.ResetLock {
		if err := c.lock.Release(); err != nil {
			return nil, err
		}
		c.log.Warn("session lock force-released")
	}
	if err := c.lock.Acquire(); err != nil {
		return nil, fmt.Errorf("another session is already running as %s: %w", username, err)
	}

	ok := false
	defer func() {
		if !ok {
			c.lock.Release()
		}
	}()

	if err := c.resolveCategories(); err != nil {
		return nil, err
	}

	c.labels, err = st.LoadUserLabels(username)
	if err != nil {
		return nil, err
	}
	if err := c.validateLabels(); err != nil {
		return nil, err
	}

	c.images, err = DiscoverImages(st.Dir(), cfg.Images.Patterns)
	if err != nil {
		return nil, err
	}
	if len(c.images) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, st.Dir())
	}

	if err := c.Refresh(); err != nil {
		return nil, err
	}
	c.reorderForLabeling()

	now := time.Now()
	c.lastSave = now
	c.lastRefresh = now

	c.log.Info("session opened",
		"images", len(c.images),
		"labeled", len(c.labels),
		"categories", len(c.categories),
		"redundant", cfg.Redundant,
	)
	ok = true
	return c, nil
}

// resolveCategories seeds the shared category file from the config when
// categories were given, or loads the existing file otherwise. A seeded
// list always gains the removal pseudo-category.
func (c *Controller) resolveCategories() error {
	if len(c.cfg.Categories) > 0 {
		seeded := append(slices.Clone(c.cfg.Categories), RemoveCategory)
		if err := c.store.SaveCategories(seeded); err != nil {
			return err
		}
	}

	categories, err := c.store.LoadCategories()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: pass --categories to create the list", ErrNoCategories)
		}
		return err
	}
	c.categories = categories
	return nil
}

// validateLabels checks every stored label against the category list. A
// store written against a different list is treated as corrupt rather
// than silently mislabeled.
func (c *Controller) validateLabels() error {
	for image, category := range c.labels {
		if !c.knownCategory(category) {
			return fmt.Errorf("%w: %s is labeled %q", ErrUnknownCategory, image, category)
		}
	}
	return nil
}

func (c *Controller) knownCategory(category string) bool {
	return category == RemoveCategory || slices.Contains(c.categories, category)
}

// reorderForLabeling arranges the image list as images labeled only by
// other users, then images this user has labeled, then the unlabeled
// remainder in random order, with the cursor on the first unlabeled
// image. Random order keeps concurrent labelers from colliding on the
// same images.
func (c *Controller) reorderForLabeling() {
	var others, mine, unlabeled []string
	for _, image := range c.images {
		switch {
		case c.labels[image] != "":
			mine = append(mine, image)
		case len(c.view.Labels(image)) > 0:
			others = append(others, image)
		default:
			unlabeled = append(unlabeled, image)
		}
	}

	rand.Shuffle(len(unlabeled), func(i, j int) {
		unlabeled[i], unlabeled[j] = unlabeled[j], unlabeled[i]
	})

	c.images = c.images[:0]
	c.images = append(c.images, others...)
	c.images = append(c.images, mine...)
	c.images = append(c.images, unlabeled...)
	c.cursor = clamp(len(others)+len(mine), len(c.images))
}

func clamp(i, n int) int {
	if n == 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	if i < 0 {
		return 0
	}
	return i
}

// Current returns the image under the cursor.
func (c *Controller) Current() (string, bool) {
	if len(c.images) == 0 {
		return "", false
	}
	return c.images[c.cursor], true
}

// Images returns the ordered image list.
func (c *Controller) Images() []string {
	return slices.Clone(c.images)
}

// Cursor returns the current position in the image list.
func (c *Controller) Cursor() int { return c.cursor }

// Username returns the sanitized session username.
func (c *Controller) Username() string { return c.username }

// Categories returns the shared category list (without the removal
// pseudo-category unless it was saved into the file).
func (c *Controller) Categories() []string { return slices.Clone(c.categories) }

// Users returns the known labelers, current user included.
func (c *Controller) Users() []string { return slices.Clone(c.users) }

// LabeledCount returns how many images this session has labeled.
func (c *Controller) LabeledCount() int { return len(c.labels) }

// Dirty reports whether unsaved edits exist.
func (c *Controller) Dirty() bool { return c.dirty }

// Reconciling reports whether the session is in reconciliation mode.
func (c *Controller) Reconciling() bool {
	return c.engine.State() == reconcile.StateReconciling
}

// OwnLabel returns this session's label for an image ("" when unlabeled).
func (c *Controller) OwnLabel(image string) string {
	return c.labels[image]
}

// LabelsFor returns every user's label for an image: the last refreshed
// view overlaid with this session's in-memory state, so unsaved edits are
// always reflected.
func (c *Controller) LabelsFor(image string) map[string]string {
	merged := map[string]string{}
	for user, category := range c.view.Labels(image) {
		merged[user] = category
	}
	if own, ok := c.labels[image]; ok {
		merged[c.username] = own
	} else {
		delete(merged, c.username)
	}
	return merged
}

// Classification partitions the image list into agreed, disagreed and
// unlabeled. Like LabelsFor, the last refreshed view is overlaid with
// this session's in-memory labels so unsaved edits are classified too.
func (c *Controller) Classification() aggregate.Classification {
	merged := make(aggregate.View, len(c.view))
	for image, row := range c.view {
		labels := map[string]string{}
		for user, category := range row {
			if user != c.username {
				labels[user] = category
			}
		}
		if len(labels) > 0 {
			merged[image] = labels
		}
	}
	for image, category := range c.labels {
		if merged[image] == nil {
			merged[image] = map[string]string{}
		}
		merged[image][c.username] = category
	}
	return aggregate.Classify(c.images, merged)
}

// Classify assigns a category to the current image and advances. In
// labeling mode the choice lands in this session's store; the removal
// pseudo-category clears the label instead. In reconciliation mode the
// choice lands in the transient resolution set.
func (c *Controller) Classify(category string) error {
	image, ok := c.Current()
	if !ok {
		return ErrNoCurrentImage
	}
	if !c.knownCategory(category) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	if c.Reconciling() {
		if category == RemoveCategory {
			return ErrRemoveDuringReconcile
		}
		if err := c.engine.Resolve(image, category); err != nil {
			return err
		}
		c.log.Debug("conflict resolved", "image", image, "category", category)
		c.Advance()
		return nil
	}

	if category == RemoveCategory {
		delete(c.labels, image)
	} else {
		c.labels[image] = category
	}
	c.dirty = true
	c.log.Debug("image classified", "image", image, "category", category)

	// When the refresh interval has elapsed, pick up other sessions'
	// progress here: rebuild the view and re-partition the ordering. The
	// re-partition already lands the cursor on the first unlabeled image,
	// which subsumes advancing past the one just labeled.
	if interval := c.cfg.Session.AutoRefreshInterval(); interval > 0 && time.Since(c.lastRefresh) >= interval {
		if err := c.Refresh(); err != nil {
			return err
		}
		c.reorderForLabeling()
		return nil
	}

	c.Advance()
	return nil
}

// Advance moves the cursor forward, stopping at the last image.
func (c *Controller) Advance() {
	c.cursor = clamp(c.cursor+1, len(c.images))
}

// Retreat moves the cursor backward, stopping at the first image.
func (c *Controller) Retreat() {
	c.cursor = clamp(c.cursor-1, len(c.images))
}

// JumpTo moves the cursor to an absolute position.
func (c *Controller) JumpTo(i int) error {
	if i < 0 || i >= len(c.images) {
		return fmt.Errorf("position %d out of range [0, %d)", i, len(c.images))
	}
	c.cursor = i
	return nil
}

// NextUnlabeled moves the cursor to the next image no labeler has
// touched, wrapping around the list. An image another user already
// labeled is skipped just like this session's own. The cursor stays put
// when nothing qualifies.
func (c *Controller) NextUnlabeled() bool {
	n := len(c.images)
	for step := 1; step <= n; step++ {
		i := (c.cursor + step) % n
		if len(c.LabelsFor(c.images[i])) == 0 {
			c.cursor = i
			return true
		}
	}
	return false
}

// Save flushes this session's labels to disk.
func (c *Controller) Save() error {
	if err := c.store.SaveUserLabels(c.username, c.labels); err != nil {
		return err
	}
	c.dirty = false
	c.lastSave = time.Now()
	c.log.Debug("labels saved", "count", len(c.labels))
	return nil
}

// Refresh re-reads the directory for labelers and rebuilds the aggregate
// view from their stores. Called on a timer and on watcher hints; the
// session never holds other users' data longer than one refresh interval.
func (c *Controller) Refresh() error {
	users, err := c.store.Users()
	if err != nil {
		return err
	}
	if !slices.Contains(users, c.username) {
		users = append(users, c.username)
		slices.Sort(users)
	}
	c.users = users

	view, err := c.agg.Build(c.users, c.username, c.labels, c.cfg.Redundant)
	if err != nil {
		return err
	}
	c.view = view
	c.lastRefresh = time.Now()
	c.refreshHint = false
	return nil
}

// HintRefresh marks the view stale so the next Poll refreshes it
// regardless of the timer. Safe to call from the watcher goroutine's
// message, which the presentation loop delivers on its own thread.
func (c *Controller) HintRefresh() {
	c.refreshHint = true
}

// Poll runs the opportunistic background work: auto-save when edits are
// pending and the interval elapsed, refresh when the watcher hinted at a
// peer write. The interval-driven refresh lives in Classify instead, so
// the ordering re-partition happens at a point where moving the cursor is
// expected. Called from the presentation tick rather than a scheduler so
// all controller access stays on one goroutine.
func (c *Controller) Poll() error {
	if interval := c.cfg.Session.AutoSaveInterval(); interval > 0 && c.dirty && time.Since(c.lastSave) >= interval {
		if err := c.Save(); err != nil {
			return err
		}
	}

	if c.refreshHint {
		if err := c.Refresh(); err != nil {
			return err
		}
	}
	return nil
}

// EnterReconcile flushes pending edits and switches to reconciliation
// mode. The image list is reordered agreed, disagreed, unlabeled with the
// cursor on the first disagreed image.
func (c *Controller) EnterReconcile() error {
	if err := c.Save(); err != nil {
		return err
	}

	classification, err := c.engine.Enter(c.images, c.users, c.username, c.labels)
	if err != nil {
		return err
	}

	c.images = c.images[:0]
	c.images = append(c.images, classification.Agreed...)
	c.images = append(c.images, classification.Disagreed...)
	c.images = append(c.images, classification.Unlabeled...)
	c.cursor = clamp(len(classification.Agreed), len(c.images))

	c.log.Info("reconciliation started", "disagreed", len(classification.Disagreed))
	return nil
}

// CommitReconcile broadcasts the resolutions into every labeler's store
// and returns to labeling mode.
func (c *Controller) CommitReconcile() error {
	if err := c.engine.Commit(c.users, c.username, c.labels); err != nil {
		return err
	}
	c.dirty = false
	if err := c.Refresh(); err != nil {
		return err
	}
	c.reorderForLabeling()
	return nil
}

// DiscardReconcile drops the resolutions and returns to labeling mode
// without touching any store.
func (c *Controller) DiscardReconcile() {
	c.engine.Discard()
	c.reorderForLabeling()
}

// Resolutions returns the pending reconciliation choices.
func (c *Controller) Resolutions() map[string]string {
	return c.engine.Resolutions()
}

// PromoteMaster flushes pending edits and writes the canonical master
// store, consulting confirmUnlabeled when unlabeled images remain.
func (c *Controller) PromoteMaster(confirmUnlabeled func(count int) bool) (map[string]string, error) {
	if err := c.Save(); err != nil {
		return nil, err
	}

	promoted, err := c.promoter.Promote(c.images, c.users, c.username, c.labels, confirmUnlabeled)
	if err != nil {
		return nil, err
	}

	// The master file now exists; pick it up as a labeler.
	if err := c.Refresh(); err != nil {
		return nil, err
	}
	return promoted, nil
}

// ResetSession discards unsaved edits and rebuilds the session from what
// is on disk.
func (c *Controller) ResetSession() error {
	labels, err := c.store.LoadUserLabels(c.username)
	if err != nil {
		return err
	}
	c.labels = labels
	c.dirty = false

	if c.Reconciling() {
		c.engine.Discard()
	}
	if err := c.Refresh(); err != nil {
		return err
	}
	c.reorderForLabeling()
	c.log.Info("session reset", "labeled", len(c.labels))
	return nil
}

// DeleteSavedData removes this user's label file and clears the
// in-memory store. Other users' data is untouched.
func (c *Controller) DeleteSavedData() error {
	if err := c.store.DeleteUserLabels(c.username); err != nil {
		return err
	}
	c.labels = map[string]string{}
	c.dirty = false

	if err := c.Refresh(); err != nil {
		return err
	}
	c.reorderForLabeling()
	c.log.Warn("saved labels deleted")
	return nil
}

// Close flushes pending edits, abandons any in-flight reconciliation and
// releases the session lock.
func (c *Controller) Close() error {
	if c.Reconciling() {
		c.engine.Discard()
	}

	var saveErr error
	if c.dirty {
		saveErr = c.Save()
	}

	if err := c.lock.Release(); err != nil {
		return err
	}
	c.log.Info("session closed", "labeled", len(c.labels))
	return saveErr
}

// Abandon releases the session lock without flushing pending edits, for
// when the user chooses to quit and throw unsaved work away. Any
// in-flight reconciliation is discarded too.
func (c *Controller) Abandon() error {
	if c.Reconciling() {
		c.engine.Discard()
	}
	if err := c.lock.Release(); err != nil {
		return err
	}
	c.log.Info("session abandoned", "unsaved", c.dirty)
	return nil
}
