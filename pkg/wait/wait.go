// Package wait polls live UI state until a condition holds or a deadline passes.
//
// Every suspension point in keep-runner goes through this package. There are
// no fixed sleeps: a wait is always a probe plus a bound.
package wait

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/logger"
)

// Poll spacing defaults.
const (
	DefaultInterval    = 100 * time.Millisecond
	DefaultMaxInterval = time.Second
)

// Spec describes one bounded wait. Specs are built per call and never stored.
type Spec struct {
	Name        string        // step name reported on timeout
	Timeout     time.Duration // <= 0 means a single immediate check
	Interval    time.Duration // poll interval hint (0 = DefaultInterval)
	Backoff     bool          // grow the interval exponentially
	MaxInterval time.Duration // cap for exponential growth (0 = DefaultMaxInterval)
}

// For returns a spec with the given name and timeout and default spacing.
func For(name string, timeout time.Duration) Spec {
	return Spec{Name: name, Timeout: timeout}
}

// Every returns a copy of s polling at interval.
func (s Spec) Every(interval time.Duration) Spec {
	s.Interval = interval
	return s
}

// WithBackoff returns a copy of s that polls with exponential spacing.
func (s Spec) WithBackoff() Spec {
	s.Backoff = true
	return s
}

func (s Spec) policy() backoff.BackOff {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	if !s.Backoff {
		return backoff.NewConstantBackOff(interval)
	}
	maxInterval := s.MaxInterval
	if maxInterval <= 0 {
		maxInterval = DefaultMaxInterval
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxInterval = maxInterval
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0 // the deadline is ours, not the policy's
	b.Reset()
	return b
}

// Probe inspects the UI once. It returns the observed value and whether the
// condition holds. A probe error means "not yet": it is recorded as the last
// observed state and polling continues.
type Probe[T any] func(ctx context.Context) (T, bool, error)

// Until calls probe until it reports true and returns its value.
// When the deadline passes (or ctx is cancelled) it returns a core.ErrTimedOut
// error carrying spec.Name and the last observed state. It never blocks past
// the deadline. The error's cause is the final probe error, or the context
// error when the final probe succeeded without the condition holding.
func Until[T any](ctx context.Context, spec Spec, probe Probe[T]) (T, error) {
	var zero T

	if spec.Timeout <= 0 {
		v, ok, err := probe(ctx)
		if err == nil && ok {
			return v, nil
		}
		return zero, timedOut(spec, observed(v, err), causeOf(err, ctx.Err()))
	}

	waitCtx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	policy := spec.policy()
	var last interface{}
	var lastErr error
	for {
		v, ok, err := probe(waitCtx)
		if err == nil && ok {
			return v, nil
		}
		last, lastErr = observed(v, err), err

		next := policy.NextBackOff()
		if next == backoff.Stop {
			next = DefaultMaxInterval
		}
		timer := time.NewTimer(next)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			return zero, timedOut(spec, last, causeOf(lastErr, waitCtx.Err()))
		case <-timer.C:
		}
	}
}

// Eventually polls check until it holds and reports whether it did before the
// deadline. A timeout is a false result, not an error; only cancellation of
// the caller's ctx is returned as an error.
func Eventually(ctx context.Context, spec Spec, check func(ctx context.Context) (bool, error)) (bool, error) {
	_, err := Until(ctx, spec, func(ctx context.Context) (struct{}, bool, error) {
		ok, err := check(ctx)
		return struct{}{}, ok, err
	})
	switch {
	case err == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, err
	case errors.Is(err, core.ErrTimedOut):
		return false, nil
	default:
		return false, err
	}
}

// Absent proves absence under a bound: it reports true when present never
// held during spec.Timeout. A longer wait cannot prove a negative, so callers
// pass a deliberately short timeout and read true as the negative assertion.
func Absent(ctx context.Context, spec Spec, present func(ctx context.Context) (bool, error)) (bool, error) {
	appeared, err := Eventually(ctx, spec, present)
	if err != nil {
		return false, err
	}
	return !appeared, nil
}

func observed(v interface{}, err error) interface{} {
	if err != nil {
		return err.Error()
	}
	return v
}

// causeOf prefers the error of the final probe over the context error, so
// callers can still match driver errors with errors.Is.
func causeOf(probeErr, ctxErr error) error {
	if probeErr != nil {
		return probeErr
	}
	return ctxErr
}

func timedOut(spec Spec, last interface{}, cause error) error {
	logger.Debug("wait %q timed out after %s, last observed: %v", spec.Name, spec.Timeout, last)
	e := core.TimedOut(spec.Name, last).WithDetails(map[string]interface{}{
		core.DetailTimeout: spec.Timeout.String(),
	})
	if cause != nil {
		e = e.WithCause(cause)
	}
	return e
}
