package subscription

import (
	"context"
	"sync"
	"time"

	"push-manager/core/catalog"
	"push-manager/core/clock"
	"push-manager/core/kvstore"
	"push-manager/core/provider"
	"push-manager/core/reconcile"
	"push-manager/core/token"

	"go.uber.org/zap"
)

// fakeProvider behaves like a browser-backed provider session.
type fakeProvider struct {
	provider.Emitter

	mu         sync.Mutex
	initErr    error
	addErr     error
	optedIn    bool
	permission provider.Permission
	remoteID   string
	tags       map[string]string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		permission: provider.PermissionGranted,
		remoteID:   "os-1",
		tags:       make(map[string]string),
	}
}

func (f *fakeProvider) Init(ctx context.Context) error { return f.initErr }

func (f *fakeProvider) Permission(ctx context.Context) (provider.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.permission, nil
}

func (f *fakeProvider) OptedIn(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.optedIn, nil
}

func (f *fakeProvider) RemoteUserID(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remoteID, nil
}

func (f *fakeProvider) AddTags(ctx context.Context, userID string, tags map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	for k, v := range tags {
		f.tags[k] = v
	}
	return nil
}

func (f *fakeProvider) RemoveTags(ctx context.Context, userID string, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.tags, k)
	}
	return nil
}

func (f *fakeProvider) OptIn(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.optedIn = true
	return nil
}

func (f *fakeProvider) OptOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.optedIn = false
	return nil
}

func (f *fakeProvider) ReportPermission(p provider.Permission) {
	f.mu.Lock()
	f.permission = p
	f.mu.Unlock()
	f.EmitPermission(p)
}

func (f *fakeProvider) ReportSubscription(optedIn bool, subscriptionID string) {
	f.mu.Lock()
	changed := f.optedIn != optedIn
	f.optedIn = optedIn
	f.mu.Unlock()
	if changed {
		f.EmitSubscription(optedIn)
	}
}

func (f *fakeProvider) tag(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tags[key]
}

// plainProvider hides the event reporting methods.
type plainProvider struct {
	provider.Provider
}

type staticCatalog struct {
	cat *catalog.Catalog
	err error
}

func (s staticCatalog) Get(ctx context.Context) (*catalog.Catalog, error) {
	return s.cat, s.err
}

var testConfig = reconcile.Config{
	IdentifierMaxAttempts:   2,
	IdentifierBaseDelay:     10 * time.Millisecond,
	IdentifierBackoffFactor: 2,
	WriteMaxAttempts:        2,
	WriteBaseDelay:          10 * time.Millisecond,
	WriteBackoffFactor:      2,
	NoticeDuration:          time.Second,
}

type fixture struct {
	service   *Service
	store     *kvstore.Memory
	providers map[string]*fakeProvider
	issuer    *token.Issuer
	mu        sync.Mutex
	factoryN  int
}

func newFixture() *fixture {
	f := &fixture{
		store:     kvstore.NewMemory(),
		providers: make(map[string]*fakeProvider),
	}
	factory := func(externalID string) provider.Provider {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.factoryN++
		p, ok := f.providers[externalID]
		if !ok {
			p = newFakeProvider()
			f.providers[externalID] = p
		}
		return p
	}
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	f.service = NewService(factory, f.store, staticCatalog{cat: catalog.Default()}, testConfig, zap.NewNop()).WithClock(clk)
	f.issuer, _ = token.NewIssuer(token.Config{Secret: "test-secret", TTLMinutes: 60}, nil)
	return f
}

// fake returns the provider for externalID, creating it ahead of Open.
func (f *fixture) fake(externalID string) *fakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.providers[externalID]
	if !ok {
		p = newFakeProvider()
		f.providers[externalID] = p
	}
	return p
}
