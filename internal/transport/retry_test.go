package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/curator/pkg/errors"
)

// noSleep makes retry tests instant.
func noSleep(_ context.Context, _ time.Duration) error { return nil }

// classifyByStatus is a simple test policy: 5xx transient, other
// non-2xx terminal, request errors transient.
func classifyByStatus(statusCode int, err error) Class {
	switch {
	case err != nil:
		return ClassTransient
	case statusCode >= 500:
		return ClassTransient
	case statusCode >= 400:
		return ClassTerminal
	default:
		return ClassSuccess
	}
}

func TestRetrierDo(t *testing.T) {
	t.Run("success on first attempt", func(t *testing.T) {
		r := &Retrier{MaxRetries: 3, Classify: classifyByStatus, Sleep: noSleep}
		outcome := r.Do(context.Background(), func(_ context.Context) (int, error) {
			return 200, nil
		})
		assert.Equal(t, RetrySucceeded, outcome.State)
		assert.Equal(t, 1, outcome.Attempts)
		assert.Equal(t, 200, outcome.StatusCode)
		assert.NoError(t, outcome.Err)
	})

	t.Run("transient failures retried until success", func(t *testing.T) {
		attempts := 0
		r := &Retrier{MaxRetries: 3, Classify: classifyByStatus, Sleep: noSleep}
		outcome := r.Do(context.Background(), func(_ context.Context) (int, error) {
			attempts++
			if attempts < 3 {
				return 503, nil
			}
			return 200, nil
		})
		assert.Equal(t, RetrySucceeded, outcome.State)
		assert.Equal(t, 3, outcome.Attempts)
	})

	t.Run("persistent transient failure exhausts exactly the retry budget", func(t *testing.T) {
		attempts := 0
		r := &Retrier{MaxRetries: 2, Classify: classifyByStatus, Sleep: noSleep}
		outcome := r.Do(context.Background(), func(_ context.Context) (int, error) {
			attempts++
			return 500, nil
		})
		assert.Equal(t, RetryTerminallyFailed, outcome.State)
		assert.Equal(t, 3, attempts, "one initial attempt plus two retries")
		assert.Equal(t, 3, outcome.Attempts)
		assert.Equal(t, ClassTransient, outcome.Class)
	})

	t.Run("terminal failure is never retried", func(t *testing.T) {
		attempts := 0
		r := &Retrier{MaxRetries: 5, Classify: classifyByStatus, Sleep: noSleep}
		outcome := r.Do(context.Background(), func(_ context.Context) (int, error) {
			attempts++
			return 404, nil
		})
		assert.Equal(t, RetryTerminallyFailed, outcome.State)
		assert.Equal(t, ClassTerminal, outcome.Class)
		assert.Equal(t, 1, attempts)
	})

	t.Run("canceled sleep ends the state machine", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r := &Retrier{
			MaxRetries: 3,
			Classify:   classifyByStatus,
			// Real context-aware sleep observes the canceled context.
			Sleep: sleepContext,
		}
		outcome := r.Do(ctx, func(_ context.Context) (int, error) {
			return 500, nil
		})
		assert.Equal(t, RetryTerminallyFailed, outcome.State)
		assert.ErrorIs(t, outcome.Err, errors.ErrCanceled)
	})
}

func TestRetryStateString(t *testing.T) {
	assert.Equal(t, "pending", RetryPending.String())
	assert.Equal(t, "retrying", Retrying.String())
	assert.Equal(t, "succeeded", RetrySucceeded.String())
	assert.Equal(t, "terminally-failed", RetryTerminallyFailed.String())
}

func TestSleepContext(t *testing.T) {
	t.Run("zero duration returns immediately", func(t *testing.T) {
		assert.NoError(t, sleepContext(context.Background(), 0))
	})

	t.Run("cancellation interrupts the sleep", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		err := sleepContext(ctx, 10*time.Second)
		require.Error(t, err)
		assert.Less(t, time.Since(start), time.Second)
	})
}
