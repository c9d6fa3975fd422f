package onesignal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"push-manager/core/provider"
)

// ErrNoPushSubscription means the user has no push channel to toggle.
var ErrNoPushSubscription = errors.New("onesignal: user has no push subscription")

// Session implements provider.Provider for one external id.
type Session struct {
	provider.Emitter

	client     *Client
	externalID string

	mu             sync.Mutex
	permission     provider.Permission
	optedIn        bool
	subscriptionID string
}

var (
	_ provider.Provider  = (*Session)(nil)
	_ provider.TagEditor = (*Session)(nil)
)

func newSession(c *Client, externalID string) *Session {
	return &Session{
		client:     c,
		externalID: externalID,
		permission: provider.PermissionDefault,
	}
}

// ExternalID returns the visitor id this session is bound to.
func (s *Session) ExternalID() string {
	return s.externalID
}

// Init checks configuration and reachability. A missing user is not an
// error: OneSignal creates it once the browser subscribes.
func (s *Session) Init(ctx context.Context) error {
	if !s.client.Configured() {
		return provider.ErrNotConfigured
	}
	if s.externalID == "" {
		return fmt.Errorf("onesignal: empty external id")
	}

	user, err := s.client.GetUserByExternalID(ctx, s.externalID)
	if IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if sub, ok := s.remember(user); ok {
		s.mu.Lock()
		s.optedIn = sub.Enabled
		s.mu.Unlock()
	}
	return nil
}

// remember refreshes the push subscription id. The opt-in flag is only
// taken from the server on Init; later changes arrive through
// ReportSubscription so listeners see them.
func (s *Session) remember(user *User) (Subscription, bool) {
	sub, ok := user.PushSubscription()
	if !ok {
		return Subscription{}, false
	}
	s.mu.Lock()
	s.subscriptionID = sub.ID
	s.mu.Unlock()
	return sub, true
}

func (s *Session) Permission(ctx context.Context) (provider.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission, nil
}

func (s *Session) OptedIn(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.optedIn, nil
}

// RemoteUserID returns the onesignal_id, or "" while the user does not exist.
func (s *Session) RemoteUserID(ctx context.Context) (string, error) {
	user, err := s.client.GetUserByExternalID(ctx, s.externalID)
	if IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	s.remember(user)
	return user.Identity["onesignal_id"], nil
}

func (s *Session) AddTags(ctx context.Context, userID string, tags map[string]string) error {
	return s.client.UpdateUserTags(ctx, userID, tags)
}

func (s *Session) RemoveTags(ctx context.Context, userID string, keys []string) error {
	tags := make(map[string]string, len(keys))
	for _, k := range keys {
		tags[k] = ""
	}
	return s.client.UpdateUserTags(ctx, userID, tags)
}

// EditTags removes and adds tags in one PATCH.
func (s *Session) EditTags(ctx context.Context, userID string, add map[string]string, remove []string) error {
	tags := make(map[string]string, len(add)+len(remove))
	for _, k := range remove {
		tags[k] = ""
	}
	for k, v := range add {
		tags[k] = v
	}
	return s.client.UpdateUserTags(ctx, userID, tags)
}

func (s *Session) OptIn(ctx context.Context) error {
	return s.setEnabled(ctx, true)
}

func (s *Session) OptOut(ctx context.Context) error {
	return s.setEnabled(ctx, false)
}

func (s *Session) setEnabled(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	subID := s.subscriptionID
	s.mu.Unlock()

	if subID == "" {
		if _, err := s.RemoteUserID(ctx); err != nil {
			return err
		}
		s.mu.Lock()
		subID = s.subscriptionID
		s.mu.Unlock()
	}
	if subID == "" {
		return ErrNoPushSubscription
	}

	if err := s.client.SetSubscriptionEnabled(ctx, subID, enabled); err != nil {
		return err
	}

	s.mu.Lock()
	s.optedIn = enabled
	s.mu.Unlock()
	return nil
}

// ReportPermission records a permission change seen by the browser and
// notifies listeners when it differs from the last known value.
func (s *Session) ReportPermission(p provider.Permission) {
	s.mu.Lock()
	changed := s.permission != p
	s.permission = p
	s.mu.Unlock()

	if changed {
		s.EmitPermission(p)
	}
}

// ReportSubscription records an opt-in change seen by the browser.
// subscriptionID may be empty when the browser does not know it.
func (s *Session) ReportSubscription(optedIn bool, subscriptionID string) {
	s.mu.Lock()
	changed := s.optedIn != optedIn
	s.optedIn = optedIn
	if subscriptionID != "" {
		s.subscriptionID = subscriptionID
	}
	s.mu.Unlock()

	if changed {
		s.EmitSubscription(optedIn)
	}
}
