package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"push-manager/core/catalog"
	"push-manager/core/clock"
	"push-manager/core/kvstore"
	"push-manager/core/notice"
	"push-manager/core/provider"

	"go.uber.org/zap"
)

// SelectedAtTag carries the selection timestamp next to the category tag.
const SelectedAtTag = catalog.SelectedAtTag

// Option customises a Reconciler.
type Option func(*Reconciler)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(r *Reconciler) { r.clock = c }
}

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// WithNotifier sets where user-visible notices go.
func WithNotifier(n notice.Notifier) Option {
	return func(r *Reconciler) { r.notifier = n }
}

// WithConfig sets retry policies and the notice duration.
func WithConfig(cfg Config) Option {
	return func(r *Reconciler) {
		r.identifierPolicy = cfg.IdentifierPolicy()
		r.writePolicy = cfg.WritePolicy()
		if cfg.NoticeDuration > 0 {
			r.noticeDuration = cfg.NoticeDuration
		}
	}
}

// Reconciler keeps the single category tag on a remote push subscription
// in line with the category the visitor selected locally.
//
// State changes are guarded by mu. Tag writes are serialised by writeMu so
// that updates for two categories never interleave. Every application
// takes a generation number; only the newest generation may touch state or
// the store when it finishes.
type Reconciler struct {
	provider   provider.Provider
	store      kvstore.Store
	catalog    *catalog.Catalog
	externalID string

	notifier         notice.Notifier
	clock            clock.Clock
	logger           *zap.Logger
	identifierPolicy RetryPolicy
	writePolicy      RetryPolicy
	noticeDuration   time.Duration

	// ctx scopes work started by provider events; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      SubscriptionState
	generation uint64

	writeMu sync.Mutex
}

// New creates a reconciler for one subscriber. store should already be
// scoped to that subscriber.
func New(p provider.Provider, store kvstore.Store, cat *catalog.Catalog, externalID string, opts ...Option) *Reconciler {
	defaults := Config{
		IdentifierMaxAttempts:   5,
		IdentifierBaseDelay:     500 * time.Millisecond,
		IdentifierBackoffFactor: 2,
		WriteMaxAttempts:        3,
		WriteBaseDelay:          time.Second,
		WriteBackoffFactor:      2,
	}

	r := &Reconciler{
		provider:         p,
		store:            store,
		catalog:          cat,
		externalID:       externalID,
		notifier:         notice.Nop{},
		clock:            clock.Real(),
		logger:           zap.NewNop(),
		identifierPolicy: defaults.IdentifierPolicy(),
		writePolicy:      defaults.WritePolicy(),
		noticeDuration:   5 * time.Second,
		state: SubscriptionState{
			State:      StateUninitialized,
			Permission: provider.PermissionDefault,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("external_id", externalID))
	r.ctx, r.cancel = context.WithCancel(context.Background())
	return r
}

// transitionLocked moves to next if the lifecycle allows it. mu must be held.
func (r *Reconciler) transitionLocked(next State) error {
	current := r.state.State
	if !current.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}
	if current != next {
		r.logger.Debug("State transition", zap.String("from", string(current)), zap.String("to", string(next)))
	}
	r.state.State = next
	return nil
}

// guardLocked returns the error for actions the current state forbids.
func (r *Reconciler) guardLocked() error {
	switch r.state.State {
	case StateFailed:
		return ErrDisabled
	case StateUninitialized, StateInitializing:
		return ErrNotReady
	}
	return nil
}

// Start initializes the provider, subscribes to its events and reconciles
// the persisted selection. A second call fails with ErrInvalidTransition.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	err := r.transitionLocked(StateInitializing)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	if err := r.provider.Init(ctx); err != nil {
		return r.fail(err)
	}

	r.provider.OnSubscriptionChange(func(optedIn bool) {
		if err := r.OnSubscriptionChanged(r.ctx, optedIn); err != nil && !IsRecoverable(err) {
			r.logger.Warn("Subscription change not reconciled", zap.Error(err))
		}
	})
	r.provider.OnPermissionChange(func(p provider.Permission) {
		r.OnPermissionChanged(p)
	})

	permission, err := r.provider.Permission(ctx)
	if err != nil {
		return r.fail(err)
	}
	optedIn, err := r.provider.OptedIn(ctx)
	if err != nil {
		return r.fail(err)
	}
	remoteID, err := r.provider.RemoteUserID(ctx)
	if err != nil {
		// The id is polled again before any tag write
		r.logger.Warn("Remote identifier lookup failed during start", zap.Error(err))
		remoteID = ""
	}

	if r.externalID != "" {
		if err := r.store.Set(KeyExternalID, r.externalID); err != nil {
			r.logger.Warn("Failed to persist external id", zap.Error(err))
		}
	}

	return r.OnReady(ctx, provider.RemoteState{
		Permission:   permission,
		OptedIn:      optedIn,
		RemoteUserID: remoteID,
	})
}

// fail records a session-fatal initialization error and disables actions.
func (r *Reconciler) fail(cause error) error {
	kind, sentinel := FailureInit, ErrInitFailed
	if errors.Is(cause, provider.ErrUnsupported) {
		kind, sentinel = FailureUnsupported, ErrUnsupported
	}

	r.mu.Lock()
	r.state.State = StateFailed
	r.state.IsInitialized = false
	r.state.PendingUpdate = false
	r.state.FailureKind = kind
	r.state.LastError = cause.Error()
	r.mu.Unlock()

	r.logger.Error("Push provider unavailable", zap.String("kind", string(kind)), zap.Error(cause))

	n := notice.Notice{
		Title:      "Benachrichtigungen nicht verfügbar",
		Body:       "Der Benachrichtigungsdienst konnte nicht geladen werden. Bitte versuchen Sie es später erneut.",
		Level:      notice.LevelError,
		Persistent: true,
	}
	if kind == FailureUnsupported {
		n.Body = "Ihr Browser unterstützt keine Push-Benachrichtigungen."
	}
	r.notifier.Notify(n)

	return fmt.Errorf("%w: %w", sentinel, cause)
}

// OnReady populates the subscription state once the provider is
// initialized and re-applies the persisted category when opted in.
func (r *Reconciler) OnReady(ctx context.Context, remote provider.RemoteState) error {
	r.mu.Lock()
	if r.state.State != StateInitializing {
		current := r.state.State
		r.mu.Unlock()
		return fmt.Errorf("%w: ready signalled in state %s", ErrInvalidTransition, current)
	}

	r.state.IsInitialized = true
	r.state.IsSubscribed = remote.OptedIn
	r.state.Permission = remote.Permission
	r.state.RemoteUserID = remote.RemoteUserID

	next := StateUnsubscribed
	if remote.OptedIn {
		next = StateReady
	}
	if err := r.transitionLocked(next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	r.logger.Info("Push provider ready",
		zap.Bool("opted_in", remote.OptedIn),
		zap.String("permission", string(remote.Permission)),
		zap.Bool("has_remote_id", remote.RemoteUserID != ""),
	)

	if !remote.OptedIn {
		return nil
	}

	sel, err := LoadSelection(r.store)
	if err != nil {
		return fmt.Errorf("failed to load selection: %w", err)
	}
	if sel.SelectedCategoryID == "" {
		return nil
	}
	if !r.catalog.Has(sel.SelectedCategoryID) {
		r.logger.Warn("Persisted category is not in the catalog", zap.String("category", sel.SelectedCategoryID))
		return nil
	}

	_, err = r.apply(ctx, sel.SelectedCategoryID, false)
	return err
}

// ApplyCategory tags the subscriber with categoryID and removes every other
// catalog tag. The newest call wins; older calls still running return
// ErrSuperseded and never touch the persisted record.
func (r *Reconciler) ApplyCategory(ctx context.Context, categoryID string) (PersistedSelection, error) {
	return r.apply(ctx, categoryID, false)
}

func (r *Reconciler) apply(ctx context.Context, categoryID string, force bool) (PersistedSelection, error) {
	if !r.catalog.Has(categoryID) {
		return PersistedSelection{}, fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
	}

	r.mu.Lock()
	if err := r.guardLocked(); err != nil {
		r.mu.Unlock()
		return PersistedSelection{}, err
	}
	if !r.state.IsSubscribed {
		r.mu.Unlock()
		return PersistedSelection{}, ErrNotSubscribed
	}

	if !force && !r.state.PendingUpdate && r.state.LastError == "" {
		sel, err := LoadSelection(r.store)
		if err == nil && sel.LastAppliedCategoryID == categoryID && sel.SelectedCategoryID == categoryID {
			r.mu.Unlock()
			r.logger.Debug("Category already applied", zap.String("category", categoryID))
			return sel, nil
		}
	}

	if err := r.transitionLocked(StateApplying); err != nil {
		r.mu.Unlock()
		return PersistedSelection{}, err
	}
	r.generation++
	gen := r.generation
	r.state.PendingUpdate = true
	r.state.LastError = ""
	r.mu.Unlock()

	log := r.logger.With(zap.String("category", categoryID), zap.Uint64("generation", gen))
	log.Info("Applying category")

	remoteID, err := Retry(ctx, r.clock, r.identifierPolicy, func(ctx context.Context, attempt int) (string, error) {
		if r.stale(gen) {
			return "", Permanent(ErrSuperseded)
		}
		id, err := r.provider.RemoteUserID(ctx)
		if err != nil {
			log.Warn("Remote identifier lookup failed", zap.Int("attempt", attempt), zap.Error(err))
			return "", classify(err)
		}
		if id == "" {
			log.Debug("Remote identifier not yet available", zap.Int("attempt", attempt))
			return "", ErrIdentifierUnavailable
		}
		return id, nil
	})
	if err != nil {
		return PersistedSelection{}, r.finishFailure(gen, categoryID, err)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	_, err = Retry(ctx, r.clock, r.writePolicy, func(ctx context.Context, attempt int) (struct{}, error) {
		if r.stale(gen) {
			return struct{}{}, Permanent(ErrSuperseded)
		}
		if err := r.writeTags(ctx, remoteID, categoryID); err != nil {
			log.Warn("Tag update failed", zap.Int("attempt", attempt), zap.Error(err))
			return struct{}{}, classify(err)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return PersistedSelection{}, r.finishFailure(gen, categoryID, err)
	}

	return r.finishSuccess(gen, categoryID, remoteID)
}

func (r *Reconciler) stale(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gen != r.generation
}

// writeTags removes the other catalog tags and adds categoryID, in one
// request when the provider supports it and removal-first otherwise.
func (r *Reconciler) writeTags(ctx context.Context, remoteID, categoryID string) error {
	remove := r.catalog.Others(categoryID)
	// A category dropped from the catalog may still be tagged remotely.
	if prev, ok, err := r.store.Get(KeyLastAppliedCategory); err == nil && ok &&
		prev != "" && prev != categoryID && !r.catalog.Has(prev) {
		remove = append(remove, prev)
	}
	add := map[string]string{
		categoryID:    "true",
		SelectedAtTag: strconv.FormatInt(r.clock.Now().Unix(), 10),
	}

	if editor, ok := r.provider.(provider.TagEditor); ok {
		return editor.EditTags(ctx, remoteID, add, remove)
	}
	if err := r.provider.RemoveTags(ctx, remoteID, remove); err != nil {
		return fmt.Errorf("remove tags: %w", err)
	}
	if err := r.provider.AddTags(ctx, remoteID, add); err != nil {
		return fmt.Errorf("add tags: %w", err)
	}
	return nil
}

func (r *Reconciler) finishSuccess(gen uint64, categoryID, remoteID string) (PersistedSelection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		return PersistedSelection{}, ErrSuperseded
	}

	if err := saveApplied(r.store, categoryID, r.clock.Now()); err != nil {
		r.state.PendingUpdate = false
		r.state.LastError = err.Error()
		r.settleLocked()
		return PersistedSelection{}, &ApplyError{CategoryID: categoryID, Err: fmt.Errorf("persist selection: %w", err)}
	}

	r.state.RemoteUserID = remoteID
	r.state.PendingUpdate = false
	r.state.LastError = ""
	r.settleLocked()

	sel, err := LoadSelection(r.store)
	if err != nil {
		return PersistedSelection{}, err
	}
	r.logger.Info("Category applied", zap.String("category", categoryID))
	return sel, nil
}

func (r *Reconciler) finishFailure(gen uint64, categoryID string, cause error) error {
	if errors.Is(cause, ErrSuperseded) {
		return ErrSuperseded
	}

	r.mu.Lock()
	if gen != r.generation {
		r.mu.Unlock()
		return ErrSuperseded
	}
	r.state.PendingUpdate = false
	r.state.LastError = cause.Error()
	r.settleLocked()
	r.mu.Unlock()

	r.logger.Warn("Category application failed", zap.String("category", categoryID), zap.Error(cause))
	r.notifier.Notify(notice.Notice{
		Title:      "Aktualisierung ausstehend",
		Body:       "Ihre Auswahl wird in Kürze aktualisiert.",
		Level:      notice.LevelWarning,
		DurationMs: r.noticeDuration.Milliseconds(),
	})

	return &ApplyError{CategoryID: categoryID, Err: cause}
}

// settleLocked leaves StateApplying once the newest application finished.
// An opt-out that arrived meanwhile keeps StateUnsubscribed.
func (r *Reconciler) settleLocked() {
	if r.state.State == StateApplying {
		_ = r.transitionLocked(StateReady)
	}
}

// OnSubscriptionChanged reacts to opt-in changes. Opting in re-applies the
// persisted category; opting out clears the application record but keeps
// the selected category for later.
func (r *Reconciler) OnSubscriptionChanged(ctx context.Context, optedIn bool) error {
	r.mu.Lock()
	if err := r.guardLocked(); err != nil {
		r.mu.Unlock()
		r.logger.Debug("Subscription change ignored", zap.Bool("opted_in", optedIn), zap.Error(err))
		return nil
	}

	previous := r.state.IsSubscribed
	r.state.IsSubscribed = optedIn
	if previous == optedIn {
		r.mu.Unlock()
		return nil
	}

	if !optedIn {
		err := r.optedOutLocked()
		r.mu.Unlock()
		r.logger.Info("Subscriber opted out")
		return err
	}

	sel, err := LoadSelection(r.store)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("failed to load selection: %w", err)
	}
	if sel.SelectedCategoryID != "" && !r.catalog.Has(sel.SelectedCategoryID) {
		r.logger.Warn("Persisted category is not in the catalog", zap.String("category", sel.SelectedCategoryID))
	}
	if sel.SelectedCategoryID == "" || !r.catalog.Has(sel.SelectedCategoryID) {
		err := r.transitionLocked(StateReady)
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	r.logger.Info("Subscriber opted in", zap.String("category", sel.SelectedCategoryID))
	_, err = r.apply(ctx, sel.SelectedCategoryID, true)
	return err
}

// optedOutLocked invalidates any running application and clears the
// application record. mu must be held.
func (r *Reconciler) optedOutLocked() error {
	r.generation++
	r.state.PendingUpdate = false
	if r.state.State != StateUnsubscribed {
		if err := r.transitionLocked(StateUnsubscribed); err != nil {
			return err
		}
	}
	if err := clearApplied(r.store); err != nil {
		return fmt.Errorf("failed to clear application record: %w", err)
	}
	return nil
}

// OnPermissionChanged records the browser permission. Permission is not
// opt-in, so no tags are touched.
func (r *Reconciler) OnPermissionChanged(p provider.Permission) {
	r.mu.Lock()
	r.state.Permission = p
	r.mu.Unlock()
	r.logger.Debug("Permission changed", zap.String("permission", string(p)))
}

// Subscribe opts the subscriber in and applies categoryID, or the
// persisted category when categoryID is empty.
func (r *Reconciler) Subscribe(ctx context.Context, categoryID string) error {
	if categoryID != "" && !r.catalog.Has(categoryID) {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
	}

	r.mu.Lock()
	err := r.guardLocked()
	r.mu.Unlock()
	if err != nil {
		return err
	}

	if err := r.provider.OptIn(ctx); err != nil {
		r.mu.Lock()
		r.state.LastError = err.Error()
		r.mu.Unlock()
		return fmt.Errorf("opt-in failed: %w", err)
	}

	r.mu.Lock()
	r.state.IsSubscribed = true
	if categoryID != "" {
		if err := r.store.Set(KeySelectedCategory, categoryID); err != nil {
			r.mu.Unlock()
			return fmt.Errorf("failed to persist selection: %w", err)
		}
	}
	sel, err := LoadSelection(r.store)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("failed to load selection: %w", err)
	}
	if sel.SelectedCategoryID == "" {
		if r.state.State == StateUnsubscribed {
			err = r.transitionLocked(StateReady)
		}
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	r.logger.Info("Subscribed", zap.String("category", sel.SelectedCategoryID))
	_, err = r.apply(ctx, sel.SelectedCategoryID, true)
	return err
}

// Unsubscribe opts the subscriber out and clears the application record.
func (r *Reconciler) Unsubscribe(ctx context.Context) error {
	r.mu.Lock()
	err := r.guardLocked()
	r.mu.Unlock()
	if err != nil {
		return err
	}

	if err := r.provider.OptOut(ctx); err != nil {
		r.mu.Lock()
		r.state.LastError = err.Error()
		r.mu.Unlock()
		return fmt.Errorf("opt-out failed: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.IsSubscribed = false
	r.state.LastError = ""
	r.logger.Info("Unsubscribed")
	return r.optedOutLocked()
}

// SelectCategory records the visitor's choice and applies it when opted
// in. While opted out, not yet ready or disabled only the local selection
// is stored.
func (r *Reconciler) SelectCategory(ctx context.Context, categoryID string) error {
	cat, ok := r.catalog.Get(categoryID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
	}

	r.mu.Lock()
	if err := r.store.Set(KeySelectedCategory, categoryID); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("failed to persist selection: %w", err)
	}
	canApply := r.guardLocked() == nil && r.state.IsSubscribed
	permission := r.state.Permission
	r.mu.Unlock()

	r.logger.Info("Category selected", zap.String("category", categoryID), zap.Bool("apply", canApply))

	if permission == provider.PermissionGranted {
		r.notifier.Notify(notice.Notice{
			Title:      "Kategorie geändert: " + cat.Name,
			Body:       cat.Body,
			Level:      notice.LevelInfo,
			DurationMs: r.noticeDuration.Milliseconds(),
		})
	}

	if !canApply {
		return nil
	}
	_, err := r.apply(ctx, categoryID, false)
	return err
}

// Snapshot returns the current subscription state and persisted selection.
func (r *Reconciler) Snapshot() (Snapshot, error) {
	r.mu.Lock()
	state := r.state
	r.mu.Unlock()

	sel, err := LoadSelection(r.store)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Subscription: state, Selection: sel}, nil
}

// State returns the current lifecycle state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.State
}

// Close cancels event-driven work and invalidates running applications.
func (r *Reconciler) Close() {
	r.mu.Lock()
	r.generation++
	r.mu.Unlock()
	r.cancel()
}
