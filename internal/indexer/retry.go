package indexer

import (
	"context"
	"time"
)

// RetryConfig configures exponential backoff for sink writes
type RetryConfig struct {
	MaxRetries int           // Maximum number of attempts
	BaseDelay  time.Duration // Initial delay between attempts
	MaxDelay   time.Duration // Maximum delay between attempts
	Multiplier float64       // Exponential backoff multiplier
}

// DefaultRetryConfig rides out a database briefly locked by a serving process
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2,
	}
}

// retryWithBackoff executes fn until it succeeds or attempts run out.
// onRetry is called after every failed attempt that will be retried.
// Retry is skipped on context cancellation.
func retryWithBackoff(ctx context.Context, config RetryConfig, fn func() error, onRetry func(attempt int, err error)) error {
	var lastErr error
	backoff := config.BaseDelay
	attempts := config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Apply exponential backoff before next retry
		if attempt < attempts-1 {
			if onRetry != nil {
				onRetry(attempt+1, err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}

	return lastErr
}
