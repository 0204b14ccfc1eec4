package transport

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/openshelf/curator/pkg/errors"
)

// Class is the policy classification of one attempt's outcome.
type Class int

// Attempt classifications.
const (
	// ClassSuccess means the attempt answered successfully.
	ClassSuccess Class = iota
	// ClassTransient means the failure may resolve itself; retry.
	ClassTransient
	// ClassTerminal means the resource genuinely failed; never retry.
	ClassTerminal
)

// Classifier maps an attempt's HTTP status code (0 when the request
// never produced a response) and error to a Class. The transient vs
// terminal boundary is policy, not hardcoded: every caller supplies its
// own table.
type Classifier func(statusCode int, err error) Class

// RetryState is the explicit state of one in-flight request.
type RetryState int

// Retry states.
const (
	RetryPending RetryState = iota
	Retrying
	RetrySucceeded
	RetryTerminallyFailed
)

// String implements fmt.Stringer.
func (s RetryState) String() string {
	switch s {
	case RetryPending:
		return "pending"
	case Retrying:
		return "retrying"
	case RetrySucceeded:
		return "succeeded"
	case RetryTerminallyFailed:
		return "terminally-failed"
	default:
		return "unknown"
	}
}

// Outcome is the final result of driving one request through the retry
// state machine.
type Outcome struct {
	State      RetryState
	Class      Class
	StatusCode int // Last observed status code, 0 if none
	Attempts   int // Total attempts issued
	Err        error
}

// Retrier advances a request through the states
// pending -> retrying(attempt) -> succeeded | terminally-failed,
// sleeping an exponential backoff between transient failures.
type Retrier struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// Classify decides whether an attempt outcome is retried.
	Classify Classifier

	// NewBackOff builds the delay schedule for one request. Defaults to
	// an exponential schedule starting at one second.
	NewBackOff func() backoff.BackOff

	// Sleep waits between attempts. Overridable in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do drives attempt through the state machine until it succeeds, fails
// terminally, exhausts its retries, or the context ends. attempt
// returns the observed status code (0 if none) and error.
func (r *Retrier) Do(ctx context.Context, attempt func(ctx context.Context) (int, error)) Outcome {
	newBackOff := r.NewBackOff
	if newBackOff == nil {
		newBackOff = defaultBackOff
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	bo := newBackOff()
	outcome := Outcome{State: RetryPending}

	for {
		outcome.Attempts++
		statusCode, err := attempt(ctx)
		outcome.StatusCode = statusCode
		outcome.Err = err
		outcome.Class = r.Classify(statusCode, err)

		switch outcome.Class {
		case ClassSuccess:
			outcome.State = RetrySucceeded
			return outcome
		case ClassTerminal:
			outcome.State = RetryTerminallyFailed
			return outcome
		}

		// Transient: retry if the budget allows.
		if outcome.Attempts > r.MaxRetries {
			outcome.State = RetryTerminallyFailed
			return outcome
		}
		outcome.State = Retrying

		if err := sleep(ctx, bo.NextBackOff()); err != nil {
			outcome.State = RetryTerminallyFailed
			outcome.Err = errors.ErrCanceled
			return outcome
		}
	}
}

// defaultBackOff returns the standard exponential schedule.
func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // The attempt budget bounds the loop, not wall time
	return bo
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
