package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrIdentifierUnavailable is the transient "not created yet" signal
	// while polling the provider. Callers only see it once retries ran out.
	ErrIdentifierUnavailable = errors.New("remote identifier not yet available")
	// ErrInitFailed means the provider failed to load or initialize.
	ErrInitFailed = errors.New("push provider initialization failed")
	// ErrUnsupported means push is not available in the visitor's environment.
	ErrUnsupported = errors.New("push notifications are not supported")
	// ErrDisabled is returned for actions after a session-fatal failure.
	ErrDisabled = errors.New("subscription actions are disabled")
	// ErrNotReady is returned for actions before initialization finished.
	ErrNotReady = errors.New("reconciler is not ready")
	// ErrNotSubscribed is returned when applying while opted out.
	ErrNotSubscribed = errors.New("subscriber is not opted in")
	// ErrUnknownCategory is returned for ids missing from the catalog.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrSuperseded is returned by an application that lost to a newer one.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrInvalidTransition is returned for moves the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ApplyError reports a category application that failed after retries.
// It is recoverable: the persisted selection is untouched and the next
// user action tries again.
type ApplyError struct {
	CategoryID string
	Err        error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to apply category %s: %v", e.CategoryID, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether err leaves the session usable.
func IsRecoverable(err error) bool {
	if err == nil {
		return true
	}
	var applyErr *ApplyError
	if errors.As(err, &applyErr) {
		return true
	}
	return errors.Is(err, ErrSuperseded) || errors.Is(err, ErrIdentifierUnavailable)
}
