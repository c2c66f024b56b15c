package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConflict = errors.New("conflict")

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return errConflict
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhausted(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 2, Delay: time.Millisecond, Backoff: true}, func() error {
		calls++
		return errConflict
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errConflict)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("bad credentials")
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{
		MaxAttempts: 5,
		Delay:       time.Millisecond,
		ShouldRetry: func(err error) bool { return errors.Is(err, errConflict) },
	}, func() error {
		calls++
		return fatal
	})

	assert.Same(t, fatal, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithRetry(ctx, RetryConfig{MaxAttempts: 5, Delay: time.Hour}, func() error {
		calls++
		cancel()
		return errConflict
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errConflict)
	assert.Equal(t, 1, calls)
}

func TestWithRetryZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{}, func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
