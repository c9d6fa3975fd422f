package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Permission is the browser-level notification permission.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// ParsePermission validates a permission string reported by a browser.
func ParsePermission(s string) (Permission, error) {
	switch p := Permission(s); p {
	case PermissionDefault, PermissionGranted, PermissionDenied:
		return p, nil
	default:
		return "", fmt.Errorf("invalid permission %q", s)
	}
}

// RemoteState is the provider's view of a subscriber right after init.
type RemoteState struct {
	Permission   Permission
	OptedIn      bool
	RemoteUserID string
}

var (
	// ErrUnsupported means the environment cannot receive push notifications.
	ErrUnsupported = errors.New("push notifications are not supported")
	// ErrNotConfigured means the provider lacks credentials or an app id.
	ErrNotConfigured = errors.New("push provider is not configured")
)

// Provider is the push SDK surface the reconciler needs.
type Provider interface {
	// Init prepares the provider. Failure is fatal for the session.
	Init(ctx context.Context) error
	Permission(ctx context.Context) (Permission, error)
	OptedIn(ctx context.Context) (bool, error)
	// RemoteUserID returns the provider-assigned id, or "" while the
	// provider has not created the subscriber yet.
	RemoteUserID(ctx context.Context) (string, error)
	AddTags(ctx context.Context, userID string, tags map[string]string) error
	RemoveTags(ctx context.Context, userID string, keys []string) error
	OptIn(ctx context.Context) error
	OptOut(ctx context.Context) error
	OnSubscriptionChange(fn func(optedIn bool))
	OnPermissionChange(fn func(p Permission))
}

// TagEditor is implemented by providers that can remove and add tags in a
// single request.
type TagEditor interface {
	EditTags(ctx context.Context, userID string, add map[string]string, remove []string) error
}

// Emitter stores event callbacks and dispatches to them synchronously.
type Emitter struct {
	mu           sync.Mutex
	subscription []func(bool)
	permission   []func(Permission)
}

// OnSubscriptionChange registers fn for opt-in changes.
func (e *Emitter) OnSubscriptionChange(fn func(optedIn bool)) {
	e.mu.Lock()
	e.subscription = append(e.subscription, fn)
	e.mu.Unlock()
}

// OnPermissionChange registers fn for permission changes.
func (e *Emitter) OnPermissionChange(fn func(p Permission)) {
	e.mu.Lock()
	e.permission = append(e.permission, fn)
	e.mu.Unlock()
}

// EmitSubscription calls every subscription callback with optedIn.
func (e *Emitter) EmitSubscription(optedIn bool) {
	e.mu.Lock()
	fns := append([]func(bool){}, e.subscription...)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(optedIn)
	}
}

// EmitPermission calls every permission callback with p.
func (e *Emitter) EmitPermission(p Permission) {
	e.mu.Lock()
	fns := append([]func(Permission){}, e.permission...)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}
