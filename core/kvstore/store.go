package kvstore

import (
	"sort"
	"sync"
)

// Store is a synchronous key/value store.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// SetAll stores every pair or, on error, none of them.
	SetAll(values map[string]string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	m.entries[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) SetAll(values map[string]string) error {
	m.mu.Lock()
	for k, v := range values {
		m.entries[k] = v
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Keys returns all stored keys, sorted.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type scoped struct {
	inner  Store
	prefix string
}

// Scoped returns a view of inner where every key is prefixed with namespace.
func Scoped(inner Store, namespace string) Store {
	return &scoped{inner: inner, prefix: namespace + ":"}
}

func (s *scoped) key(k string) string {
	return s.prefix + k
}

func (s *scoped) Get(key string) (string, bool, error) {
	return s.inner.Get(s.key(key))
}

func (s *scoped) Set(key, value string) error {
	return s.inner.Set(s.key(key), value)
}

func (s *scoped) SetAll(values map[string]string) error {
	prefixed := make(map[string]string, len(values))
	for k, v := range values {
		prefixed[s.key(k)] = v
	}
	return s.inner.SetAll(prefixed)
}

func (s *scoped) Remove(key string) error {
	return s.inner.Remove(s.key(key))
}
