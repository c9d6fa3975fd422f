package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"push-manager/core/clock"
)

// ErrRetriesExhausted wraps the last error once every attempt failed.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryPolicy bounds an operation to MaxAttempts calls. The wait before
// attempt n (n >= 2) is BaseDelay * BackoffFactor^(n-2). A factor below 1
// gives a fixed delay.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
}

// Validate rejects policies that could never run or would hang.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("base delay must not be negative, got %s", p.BaseDelay)
	}
	return nil
}

// Delay returns the wait before the given 1-based attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	factor := p.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(factor, float64(attempt-2)))
}

// MaxWait is the total time spent waiting if every attempt fails.
func (p RetryPolicy) MaxWait() time.Duration {
	var total time.Duration
	for n := 2; n <= p.MaxAttempts; n++ {
		total += p.Delay(n)
	}
	return total
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// temporary is implemented by transport errors that know whether a retry
// can help (see onesignal.APIError).
type temporary interface {
	Temporary() bool
}

// classify turns non-temporary transport errors into permanent ones.
func classify(err error) error {
	var t temporary
	if errors.As(err, &t) && !t.Temporary() {
		return Permanent(err)
	}
	return err
}

// Retry runs op until it succeeds, returns a Permanent error, the context
// ends, or policy.MaxAttempts calls have been made.
func Retry[T any](ctx context.Context, clk clock.Clock, policy RetryPolicy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	if err := policy.Validate(); err != nil {
		return zero, err
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if delay := policy.Delay(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-clk.After(delay):
			}
		} else if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx, attempt)
		if err == nil {
			return result, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		lastErr = err
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, policy.MaxAttempts, lastErr)
}
