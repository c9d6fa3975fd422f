package subscription

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"push-manager/core/catalog"
	"push-manager/core/clock"
	"push-manager/core/kvstore"
	"push-manager/core/notice"
	"push-manager/core/provider"
	"push-manager/core/reconcile"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrSessionNotFound is returned for external ids without an open session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEventsUnsupported is returned when the provider cannot take browser events.
	ErrEventsUnsupported = errors.New("provider does not accept browser events")
	// ErrInvalidExternalID is returned for empty or oversized external ids.
	ErrInvalidExternalID = errors.New("invalid external id")
)

const maxExternalIDLength = 128

// ProviderFactory creates a provider bound to one external id.
type ProviderFactory func(externalID string) provider.Provider

// CatalogSource yields the current category catalog.
type CatalogSource interface {
	Get(ctx context.Context) (*catalog.Catalog, error)
}

// EventReporter is implemented by providers that learn about browser
// permission and opt-in changes over HTTP.
type EventReporter interface {
	ReportPermission(p provider.Permission)
	ReportSubscription(optedIn bool, subscriptionID string)
}

// Session is one visitor's reconciler with its provider and notice inbox.
type Session struct {
	ExternalID string
	CreatedAt  time.Time

	provider   provider.Provider
	reconciler *reconcile.Reconciler
	inbox      *notice.Inbox
}

// Snapshot returns the session's subscription state and persisted selection.
func (s *Session) Snapshot() (reconcile.Snapshot, error) {
	return s.reconciler.Snapshot()
}

// Service owns the open sessions, keyed by external id.
type Service struct {
	factory  ProviderFactory
	store    kvstore.Store
	catalogs CatalogSource
	cfg      reconcile.Config
	clock    clock.Clock
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	opening  singleflight.Group
}

// NewService creates a session service. store is shared; every session
// gets its own scope inside it.
func NewService(factory ProviderFactory, store kvstore.Store, catalogs CatalogSource, cfg reconcile.Config, logger *zap.Logger) *Service {
	return &Service{
		factory:  factory,
		store:    store,
		catalogs: catalogs,
		cfg:      cfg,
		clock:    clock.Real(),
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// WithClock replaces the clock used by new sessions.
func (s *Service) WithClock(c clock.Clock) *Service {
	s.clock = c
	return s
}

// Categories returns the current catalog.
func (s *Service) Categories(ctx context.Context) ([]catalog.Category, error) {
	cat, err := s.catalogs.Get(ctx)
	if err != nil {
		return nil, err
	}
	return cat.All(), nil
}

// Open returns the session for externalID, creating and starting it when
// needed. A session whose provider failed to initialize is kept so the
// caller can read its state and notices; the start error is returned
// alongside it. Concurrent opens of the same id share one start.
func (s *Service) Open(ctx context.Context, externalID string) (*Session, error) {
	if externalID == "" || len(externalID) > maxExternalIDLength {
		return nil, ErrInvalidExternalID
	}

	if sess, err := s.Get(externalID); err == nil {
		return sess, nil
	}

	type opened struct {
		session *Session
		err     error
	}

	result, err, _ := s.opening.Do(externalID, func() (interface{}, error) {
		if sess, err := s.Get(externalID); err == nil {
			return opened{session: sess}, nil
		}

		sess, startErr := s.start(ctx, externalID)
		if sess == nil {
			return nil, startErr
		}

		s.mu.Lock()
		s.sessions[externalID] = sess
		s.mu.Unlock()

		return opened{session: sess, err: startErr}, nil
	})
	if err != nil {
		return nil, err
	}

	o := result.(opened)
	return o.session, o.err
}

func (s *Service) start(ctx context.Context, externalID string) (*Session, error) {
	cat, err := s.catalogs.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	log := s.logger.With(zap.String("external_id", externalID))
	inbox := notice.NewInbox(0)
	p := s.factory(externalID)

	rec := reconcile.New(p, kvstore.Scoped(s.store, externalID), cat, externalID,
		reconcile.WithLogger(s.logger),
		reconcile.WithClock(s.clock),
		reconcile.WithConfig(s.cfg),
		reconcile.WithNotifier(notice.Multi{inbox, notice.NewLogNotifier(log)}),
	)

	sess := &Session{
		ExternalID: externalID,
		CreatedAt:  s.clock.Now(),
		provider:   p,
		reconciler: rec,
		inbox:      inbox,
	}

	err = rec.Start(ctx)
	switch {
	case err == nil:
		log.Info("Session started")
		return sess, nil
	case errors.Is(err, reconcile.ErrInitFailed), errors.Is(err, reconcile.ErrUnsupported), reconcile.IsRecoverable(err):
		log.Warn("Session started with errors", zap.Error(err))
		return sess, err
	default:
		rec.Close()
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
}

// Get returns the open session for externalID.
func (s *Service) Get(externalID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[externalID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Count returns the number of open sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close tears down the session for externalID. The persisted selection
// stays in the store.
func (s *Service) Close(externalID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[externalID]
	delete(s.sessions, externalID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.reconciler.Close()
	s.logger.Info("Session closed", zap.String("external_id", externalID))
	return nil
}

// CloseAll tears down every open session.
func (s *Service) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.reconciler.Close()
	}
}

// SelectCategory records the visitor's choice and applies it when opted in.
func (s *Service) SelectCategory(ctx context.Context, externalID, categoryID string) (reconcile.Snapshot, error) {
	sess, err := s.Get(externalID)
	if err != nil {
		return reconcile.Snapshot{}, err
	}
	return s.after(sess, sess.reconciler.SelectCategory(ctx, categoryID))
}

// Subscribe opts the visitor in, optionally switching to categoryID first.
func (s *Service) Subscribe(ctx context.Context, externalID, categoryID string) (reconcile.Snapshot, error) {
	sess, err := s.Get(externalID)
	if err != nil {
		return reconcile.Snapshot{}, err
	}
	return s.after(sess, sess.reconciler.Subscribe(ctx, categoryID))
}

// Unsubscribe opts the visitor out.
func (s *Service) Unsubscribe(ctx context.Context, externalID string) (reconcile.Snapshot, error) {
	sess, err := s.Get(externalID)
	if err != nil {
		return reconcile.Snapshot{}, err
	}
	return s.after(sess, sess.reconciler.Unsubscribe(ctx))
}

// ReportSubscription forwards an opt-in change observed by the browser.
func (s *Service) ReportSubscription(externalID string, optedIn bool, subscriptionID string) (reconcile.Snapshot, error) {
	sess, err := s.Get(externalID)
	if err != nil {
		return reconcile.Snapshot{}, err
	}
	reporter, ok := sess.provider.(EventReporter)
	if !ok {
		return reconcile.Snapshot{}, ErrEventsUnsupported
	}
	reporter.ReportSubscription(optedIn, subscriptionID)
	return sess.Snapshot()
}

// ReportPermission forwards a permission change observed by the browser.
func (s *Service) ReportPermission(externalID string, p provider.Permission) (reconcile.Snapshot, error) {
	sess, err := s.Get(externalID)
	if err != nil {
		return reconcile.Snapshot{}, err
	}
	reporter, ok := sess.provider.(EventReporter)
	if !ok {
		return reconcile.Snapshot{}, ErrEventsUnsupported
	}
	reporter.ReportPermission(p)
	return sess.Snapshot()
}

// Notices drains the session's pending notices.
func (s *Service) Notices(externalID string) ([]notice.Notice, error) {
	sess, err := s.Get(externalID)
	if err != nil {
		return nil, err
	}
	return sess.inbox.Drain(), nil
}

// after pairs an action's error with the session snapshot taken after it.
func (s *Service) after(sess *Session, actionErr error) (reconcile.Snapshot, error) {
	snap, err := sess.Snapshot()
	if err != nil {
		return reconcile.Snapshot{}, errors.Join(actionErr, err)
	}
	return snap, actionErr
}
