package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// retryPolicy is an exponential backoff schedule.
type retryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// retryWithPolicy calls fn until it succeeds, returns an error retryable
// rejects, or MaxRetries retries have been spent. The last error is
// returned when retries run out.
func retryWithPolicy[T any](
	ctx context.Context,
	policy retryPolicy,
	fn func(ctx context.Context) (T, error),
	retryable func(error) bool,
	onRetry func(attempt int, delay time.Duration, err error),
) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !retryable(err) || attempt >= policy.MaxRetries {
			return zero, err
		}

		delay := backoff(policy, attempt)
		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
}

func backoff(policy retryPolicy, attempt int) time.Duration {
	delay := float64(policy.InitialDelay) * math.Pow(policy.Multiplier, float64(attempt))
	if delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}
	// 0-20% jitter
	if policy.Jitter {
		delay += rand.Float64() * 0.2 * delay
	}
	return time.Duration(delay)
}
