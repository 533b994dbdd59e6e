package utils

import (
	"context"
	"time"
)

// RetryPolicy parameterizes every remote attempt in the system, GPS reads and
// HTTP fetches alike.
type RetryPolicy struct {
	Timeout     time.Duration // per-attempt bound
	MaxAttempts int
	BaseDelay   time.Duration
	BackoffCap  time.Duration
}

// DefaultRetryPolicy mirrors the configuration defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Timeout:     15 * time.Second,
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		BackoffCap:  8 * time.Second,
	}
}

// Backoff returns the delay to wait after the given 1-based failed attempt.
type Backoff func(attempt int) time.Duration

// ExponentialBackoff doubles the base delay per attempt, capped.
func (p RetryPolicy) ExponentialBackoff() Backoff {
	return func(attempt int) time.Duration {
		delay := p.BaseDelay * time.Duration(1<<uint(attempt-1))
		if delay > p.BackoffCap {
			delay = p.BackoffCap
		}
		return delay
	}
}

// LinearBackoff grows the base delay by the attempt number.
func (p RetryPolicy) LinearBackoff() Backoff {
	return func(attempt int) time.Duration {
		return p.BaseDelay * time.Duration(attempt)
	}
}

// WithRetry runs op up to policy.MaxAttempts times. Each attempt gets its own
// timeout context; between failed attempts it waits per the backoff function.
// The first success wins; cancellation of the parent context stops the loop.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, backoff Backoff, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		result  T
		lastErr error
	)

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if policy.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
		}

		result, lastErr = op(attemptCtx)
		if cancel != nil {
			cancel()
		}
		if lastErr == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}

	return result, lastErr
}
