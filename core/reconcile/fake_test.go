package reconcile

import (
	"context"
	"sync"
	"time"

	"push-manager/core/catalog"
	"push-manager/core/clock"
	"push-manager/core/kvstore"
	"push-manager/core/notice"
	"push-manager/core/provider"
)

// fakeProvider scripts provider responses and records calls. It keeps a
// simulated remote tag set so tests can check the one-category invariant.
type fakeProvider struct {
	provider.Emitter

	mu         sync.Mutex
	initErr    error
	permission provider.Permission
	optedIn    bool

	// ids are returned by successive RemoteUserID calls; the last one repeats.
	ids       []string
	idErr     error
	idCalls   int
	onIDCall  func(call int)
	onAddCall func(call int)
	addErrs   []error
	addCalls  []map[string]string
	remCalls  [][]string
	optInErr  error
	optOutErr error
	optIns    int
	optOuts   int
	remote    map[string]string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		permission: provider.PermissionGranted,
		ids:        []string{"os-1"},
		remote:     make(map[string]string),
	}
}

func (f *fakeProvider) Init(ctx context.Context) error {
	return f.initErr
}

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
	f.idCalls++
	call := f.idCalls
	hook := f.onIDCall
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idErr != nil {
		return "", f.idErr
	}
	if len(f.ids) == 0 {
		return "", nil
	}
	idx := call - 1
	if idx >= len(f.ids) {
		idx = len(f.ids) - 1
	}
	return f.ids[idx], nil
}

func (f *fakeProvider) AddTags(ctx context.Context, userID string, tags map[string]string) error {
	f.mu.Lock()
	f.addCalls = append(f.addCalls, tags)
	n := len(f.addCalls)
	hook := f.onAddCall
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if n <= len(f.addErrs) && f.addErrs[n-1] != nil {
		return f.addErrs[n-1]
	}
	for k, v := range tags {
		f.remote[k] = v
	}
	return nil
}

func (f *fakeProvider) RemoveTags(ctx context.Context, userID string, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remCalls = append(f.remCalls, keys)
	for _, k := range keys {
		delete(f.remote, k)
	}
	return nil
}

func (f *fakeProvider) OptIn(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.optIns++
	if f.optInErr != nil {
		return f.optInErr
	}
	f.optedIn = true
	return nil
}

func (f *fakeProvider) OptOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.optOuts++
	if f.optOutErr != nil {
		return f.optOutErr
	}
	f.optedIn = false
	return nil
}

func (f *fakeProvider) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idCalls = 0
	f.addCalls = nil
	f.remCalls = nil
}

func (f *fakeProvider) counts() (ids, adds, removes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.idCalls, len(f.addCalls), len(f.remCalls)
}

// activeCategories lists catalog ids tagged "true" remotely.
func (f *fakeProvider) activeCategories(cat *catalog.Catalog) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, id := range cat.IDs() {
		if f.remote[id] == "true" {
			out = append(out, id)
		}
	}
	return out
}

// editorProvider adds single-request tag editing.
type editorProvider struct {
	*fakeProvider
	edits int
}

func (e *editorProvider) EditTags(ctx context.Context, userID string, add map[string]string, remove []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.edits++
	for _, k := range remove {
		delete(e.remote, k)
	}
	for k, v := range add {
		e.remote[k] = v
	}
	return nil
}

// failingStore rejects SetAll so confirmed applications cannot be saved.
type failingStore struct {
	*kvstore.Memory
	err error
}

func (s *failingStore) SetAll(values map[string]string) error {
	return s.err
}

type harness struct {
	provider *fakeProvider
	store    *kvstore.Memory
	clock    *clock.Fake
	inbox    *notice.Inbox
	catalog  *catalog.Catalog
	rec      *Reconciler
}

var testConfig = Config{
	IdentifierMaxAttempts:   3,
	IdentifierBaseDelay:     100 * time.Millisecond,
	IdentifierBackoffFactor: 2,
	WriteMaxAttempts:        2,
	WriteBaseDelay:          time.Second,
	WriteBackoffFactor:      2,
	NoticeDuration:          3 * time.Second,
}

func newHarness(p provider.Provider, fp *fakeProvider) *harness {
	h := &harness{
		provider: fp,
		store:    kvstore.NewMemory(),
		clock:    clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		inbox:    notice.NewInbox(0),
		catalog:  catalog.Default(),
	}
	h.rec = New(p, h.store, h.catalog, "visitor-1",
		WithClock(h.clock),
		WithNotifier(h.inbox),
		WithConfig(testConfig),
	)
	return h
}

func newDefaultHarness() *harness {
	fp := newFakeProvider()
	return newHarness(fp, fp)
}
