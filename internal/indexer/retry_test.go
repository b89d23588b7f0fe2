package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastRetry(n int) RetryConfig {
	return RetryConfig{MaxRetries: n, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestRetryWithBackoff(t *testing.T) {
	boom := errors.New("boom")

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		var retried []int
		err := retryWithBackoff(context.Background(), fastRetry(3), func() error {
			calls++
			if calls < 3 {
				return boom
			}
			return nil
		}, func(attempt int, err error) {
			retried = append(retried, attempt)
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{1, 2}, retried)
	})

	t.Run("returns last error", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), fastRetry(2), func() error {
			calls++
			return boom
		}, nil)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 2, calls)
	})

	t.Run("zero retries still runs once", func(t *testing.T) {
		calls := 0
		_ = retryWithBackoff(context.Background(), RetryConfig{}, func() error {
			calls++
			return boom
		}, nil)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := retryWithBackoff(ctx, fastRetry(5), func() error {
			calls++
			cancel()
			return boom
		}, nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
