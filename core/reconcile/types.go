package reconcile

import (
	"time"

	"push-manager/core/provider"
)

// State is the lifecycle position of a reconciler.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateApplying      State = "applying"
	StateUnsubscribed  State = "unsubscribed"
	// StateFailed is entered when the provider cannot initialize. It is
	// final for the session.
	StateFailed State = "failed"
)

var transitions = map[State][]State{
	StateUninitialized: {StateInitializing},
	StateInitializing:  {StateReady, StateUnsubscribed, StateFailed},
	StateReady:         {StateApplying, StateUnsubscribed},
	StateApplying:      {StateReady, StateApplying, StateUnsubscribed},
	StateUnsubscribed:  {StateApplying, StateReady},
}

// CanTransition reports whether the lifecycle allows moving to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// FailureKind distinguishes the two session-fatal errors.
type FailureKind string

const (
	FailureInit        FailureKind = "init_failed"
	FailureUnsupported FailureKind = "unsupported"
)

// SubscriptionState is the transient, per-session view of the remote
// subscription. It is rebuilt from the provider on every start.
type SubscriptionState struct {
	State         State               `json:"state"`
	IsInitialized bool                `json:"is_initialized"`
	IsSubscribed  bool                `json:"is_subscribed"`
	Permission    provider.Permission `json:"permission"`
	RemoteUserID  string              `json:"remote_user_id,omitempty"`
	PendingUpdate bool                `json:"pending_update"`
	LastError     string              `json:"last_error,omitempty"`
	FailureKind   FailureKind         `json:"failure_kind,omitempty"`
}

// PersistedSelection is what survives between sessions in the key/value
// store. The application record (LastAppliedCategoryID, LastAppliedAt) is
// only written after the provider confirmed the tag update.
type PersistedSelection struct {
	SelectedCategoryID    string     `json:"selected_category_id,omitempty"`
	ExternalID            string     `json:"external_id,omitempty"`
	LastAppliedCategoryID string     `json:"last_applied_category_id,omitempty"`
	LastAppliedAt         *time.Time `json:"last_applied_at,omitempty"`
}

// Snapshot bundles both halves of a session's state.
type Snapshot struct {
	Subscription SubscriptionState  `json:"subscription"`
	Selection    PersistedSelection `json:"selection"`
}

// ActionsEnabled reports whether subscribe, unsubscribe and category
// changes may reach the provider.
func (s SubscriptionState) ActionsEnabled() bool {
	return s.State != StateFailed && s.IsInitialized
}
