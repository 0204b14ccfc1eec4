package repometa

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/curator/pkg/errors"
)

// fakeClock drives the budget through simulated time: sleeps advance
// the clock instead of waiting.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestBudget(limit int, window time.Duration) (*Budget, *fakeClock) {
	clock := newFakeClock()
	b := NewBudget(limit, window)
	b.now = clock.Now
	b.sleep = clock.Sleep
	return b, clock
}

func TestBudgetAcquire(t *testing.T) {
	t.Run("grants up to the limit without waiting", func(t *testing.T) {
		b, clock := newTestBudget(3, time.Hour)
		for i := 0; i < 3; i++ {
			require.NoError(t, b.Acquire(context.Background()))
		}
		assert.Empty(t, clock.sleeps)
		assert.Equal(t, 0, b.Remaining())
	})

	t.Run("exhausted budget suspends until the window resets", func(t *testing.T) {
		b, clock := newTestBudget(2, time.Hour)
		require.NoError(t, b.Acquire(context.Background()))
		require.NoError(t, b.Acquire(context.Background()))

		// Third acquire must wait out the remainder of the window and
		// then succeed in the fresh one.
		require.NoError(t, b.Acquire(context.Background()))
		require.Len(t, clock.sleeps, 1)
		assert.Equal(t, time.Hour, clock.sleeps[0])
		assert.Equal(t, 1, b.Remaining())
	})

	t.Run("window refills on its own once time passes", func(t *testing.T) {
		b, clock := newTestBudget(1, time.Hour)
		require.NoError(t, b.Acquire(context.Background()))
		assert.Equal(t, 0, b.Remaining())

		clock.now = clock.now.Add(2 * time.Hour)
		assert.Equal(t, 1, b.Remaining())
		require.NoError(t, b.Acquire(context.Background()))
		assert.Empty(t, clock.sleeps)
	})

	t.Run("deadline before the reset fails fast", func(t *testing.T) {
		b, clock := newTestBudget(1, time.Hour)
		require.NoError(t, b.Acquire(context.Background()))

		// The window resets in an hour; this caller only has a minute.
		ctx, cancel := context.WithDeadline(context.Background(), clock.now.Add(time.Minute))
		defer cancel()

		err := b.Acquire(ctx)
		require.ErrorIs(t, err, errors.ErrBudgetExhausted)
		assert.Empty(t, clock.sleeps, "never parked")
	})

	t.Run("cancellation interrupts the wait", func(t *testing.T) {
		b, _ := newTestBudget(1, time.Hour)
		b.sleep = sleepContext // Real sleep so cancellation matters

		require.NoError(t, b.Acquire(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := b.Acquire(ctx)
		require.Error(t, err)
	})
}
