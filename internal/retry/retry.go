// Package retry re-runs a unit of work from scratch while its failures are
// classified as transient.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is wrapped by the error returned once every attempt failed transiently.
var ErrExhausted = errors.New("retry attempts exhausted")

// State is the lifecycle state of one attempt.
type State int

const (
	StateIdle State = iota
	StateStarted
	StateCommitted
	StateAbortedRetry
	StateAbortedFatal
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateCommitted:
		return "committed"
	case StateAbortedRetry:
		return "aborted_retry"
	case StateAbortedFatal:
		return "aborted_fatal"
	default:
		return "idle"
	}
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateAbortedFatal
}

// Policy configures Do.
type Policy struct {
	MaxAttempts int
	IsTransient func(error) bool
	// Backoff returns the pause before the given retry attempt (2, 3, ...).
	Backoff func(attempt int) time.Duration
	// OnTransition observes every state change of every attempt.
	OnTransition func(attempt int, state State, err error)
}

// Do runs work until it succeeds, fails with a non-transient error, the
// context ends, or MaxAttempts attempts have failed transiently.
func Do(ctx context.Context, p Policy, work func(ctx context.Context, attempt int) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context, attempt int) (struct{}, error) {
		return struct{}{}, work(ctx, attempt)
	})
	return err
}

// DoValue is Do for units of work that produce a result.
func DoValue[T any](ctx context.Context, p Policy, work func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	notify := func(attempt int, s State, err error) {
		if p.OnTransition != nil {
			p.OnTransition(attempt, s, err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 && p.Backoff != nil {
			if d := p.Backoff(attempt); d > 0 {
				timer := time.NewTimer(d)
				select {
				case <-ctx.Done():
					timer.Stop()
					notify(attempt-1, StateAbortedFatal, ctx.Err())
					return zero, ctx.Err()
				case <-timer.C:
				}
			}
		}
		if err := ctx.Err(); err != nil {
			notify(attempt, StateAbortedFatal, err)
			return zero, err
		}

		notify(attempt, StateStarted, nil)
		v, err := work(ctx, attempt)
		if err == nil {
			notify(attempt, StateCommitted, nil)
			return v, nil
		}
		if p.IsTransient == nil || !p.IsTransient(err) {
			notify(attempt, StateAbortedFatal, err)
			return zero, err
		}
		lastErr = err
		if attempt < maxAttempts {
			notify(attempt, StateAbortedRetry, err)
		}
	}

	err := fmt.Errorf("%w after %d attempts: %w", ErrExhausted, maxAttempts, lastErr)
	notify(maxAttempts, StateAbortedFatal, err)
	return zero, err
}
