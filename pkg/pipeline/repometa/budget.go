package repometa

import (
	"context"
	"sync"
	"time"

	"github.com/openshelf/curator/pkg/errors"
)

// Budget is the shared request budget for one pipeline run: a fixed
// quota of requests per time window, spent by every worker through a
// single synchronization point. When the quota is exhausted, Acquire
// blocks all callers until the window resets instead of letting them
// issue requests that would only be rejected. A caller whose context
// deadline falls before the reset gets ErrBudgetExhausted immediately.
type Budget struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	remaining int
	resetAt   time.Time

	// Injectable for tests with a simulated clock.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewBudget creates a budget of limit requests per window.
func NewBudget(limit int, window time.Duration) *Budget {
	return &Budget{
		limit:  limit,
		window: window,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Acquire spends one unit of budget, blocking until the current window
// has room or the context ends.
func (b *Budget) Acquire(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := b.now()
		if !now.Before(b.resetAt) {
			b.remaining = b.limit
			b.resetAt = now.Add(b.window)
		}
		if b.remaining > 0 {
			b.remaining--
			b.mu.Unlock()
			return nil
		}
		wait := b.resetAt.Sub(now)
		resetAt := b.resetAt
		b.mu.Unlock()

		// Waiting can never succeed if the caller's deadline falls
		// before the window resets; fail fast instead of parking it.
		if deadline, ok := ctx.Deadline(); ok && deadline.Before(resetAt) {
			return errors.ErrBudgetExhausted
		}

		if err := b.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Remaining returns the budget left in the current window.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.now().Before(b.resetAt) {
		return b.limit
	}
	return b.remaining
}

// sleepContext sleeps for d or until the context ends.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
