package content

import (
	"context"
	"time"
)

// RetryConfig configures exponential backoff for source loads
type RetryConfig struct {
	MaxAttempts int           // Total attempts including the first (default 3)
	BaseDelay   time.Duration // Delay before the second attempt
	MaxDelay    time.Duration // Upper bound for any single delay
	Multiplier  float64       // Backoff growth factor
}

// DefaultRetryConfig returns the defaults used for remote sources
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2.0,
	}
}

// retryWithBackoff executes fn until it succeeds or attempts run out.
// Retry stops immediately on context cancellation.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	var lastErr error
	var zero T
	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := config.BaseDelay

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if config.MaxDelay > 0 && backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}

	return zero, lastErr
}
