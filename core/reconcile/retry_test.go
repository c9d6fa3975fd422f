package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"push-manager/core/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond, BackoffFactor: 2}
	assert.Equal(t, time.Duration(0), p.Delay(1))
	assert.Equal(t, 100*time.Millisecond, p.Delay(2))
	assert.Equal(t, 200*time.Millisecond, p.Delay(3))
	assert.Equal(t, 400*time.Millisecond, p.Delay(4))
	assert.Equal(t, 700*time.Millisecond, p.MaxWait())

	fixed := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, BackoffFactor: 0}
	assert.Equal(t, time.Second, fixed.Delay(2))
	assert.Equal(t, time.Second, fixed.Delay(3))
}

func TestRetry_SucceedsAfterTransientErrors(t *testing.T) {
	clk := clock.NewFake(time.Now())
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond, BackoffFactor: 3}

	calls := 0
	got, err := Retry(context.Background(), clk, policy, func(ctx context.Context, attempt int) (string, error) {
		calls++
		assert.Equal(t, calls, attempt)
		if attempt < 3 {
			return "", errors.New("not yet")
		}
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 30 * time.Millisecond}, clk.Waits())
}

func TestRetry_ExhaustsWithStrictlyIncreasingWaits(t *testing.T) {
	clk := clock.NewFake(time.Now())
	policy := RetryPolicy{MaxAttempts: 4, BaseDelay: 50 * time.Millisecond, BackoffFactor: 1.5}
	cause := errors.New("still missing")

	calls := 0
	_, err := Retry(context.Background(), clk, policy, func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, cause
	})

	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 4, calls)

	waits := clk.Waits()
	require.Len(t, waits, 3)
	for i := 1; i < len(waits); i++ {
		assert.Greater(t, waits[i], waits[i-1])
	}
}

func TestRetry_PermanentStopsImmediately(t *testing.T) {
	clk := clock.NewFake(time.Now())
	cause := errors.New("bad request")

	calls := 0
	_, err := Retry(context.Background(), clk, RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second}, func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, Permanent(cause)
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clk.Waits())
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Retry(ctx, clock.NewFake(time.Now()), RetryPolicy{MaxAttempts: 3}, func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestRetry_InvalidPolicy(t *testing.T) {
	_, err := Retry(context.Background(), clock.Real(), RetryPolicy{MaxAttempts: 0}, func(ctx context.Context, attempt int) (int, error) {
		t.Fatal("operation must not run")
		return 0, nil
	})
	assert.Error(t, err)
}

type tempErr struct{ temp bool }

func (e tempErr) Error() string   { return "transport" }
func (e tempErr) Temporary() bool { return e.temp }

func TestClassify(t *testing.T) {
	plain := errors.New("plain")
	assert.Equal(t, plain, classify(plain))

	transient := tempErr{temp: true}
	assert.Equal(t, error(transient), classify(transient))

	var perm *permanentError
	assert.ErrorAs(t, classify(tempErr{temp: false}), &perm)
}
