package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	t.Run("returns first success", func(t *testing.T) {
		calls := 0
		result, err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) (int, error) {
			calls++
			return 42, nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 42, result)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		result, err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("not yet")
			}
			return "done", nil
		})

		assert.NoError(t, err)
		assert.Equal(t, "done", result)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausts after max attempts", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		_, err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) (int, error) {
			calls++
			return 0, boom
		})

		require.Error(t, err)
		assert.Equal(t, 3, calls)

		var exhausted *RetryExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 3, exhausted.Attempts)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := Retry(ctx, 5, 50*time.Millisecond, func(ctx context.Context) (int, error) {
			calls++
			cancel()
			return 0, errors.New("fail")
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("treats zero attempts as one", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), 0, time.Millisecond, func(ctx context.Context) (int, error) {
			calls++
			return 0, errors.New("fail")
		})

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestRetryUntil(t *testing.T) {
	t.Run("accepts matching result immediately", func(t *testing.T) {
		result, ok, err := RetryUntil(context.Background(), 3, time.Millisecond,
			func(ctx context.Context) (int, error) { return 10, nil },
			func(v int) bool { return v == 10 },
		)

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 10, result)
	})

	t.Run("returns last result best-effort when never accepted", func(t *testing.T) {
		calls := 0
		result, ok, err := RetryUntil(context.Background(), 3, time.Millisecond,
			func(ctx context.Context) (int, error) {
				calls++
				return calls, nil
			},
			func(v int) bool { return false },
		)

		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 3, result)
		assert.Equal(t, 3, calls)
	})

	t.Run("accepts once the value converges", func(t *testing.T) {
		calls := 0
		result, ok, err := RetryUntil(context.Background(), 5, time.Millisecond,
			func(ctx context.Context) (int, error) {
				calls++
				return calls, nil
			},
			func(v int) bool { return v >= 2 },
		)

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 2, result)
	})

	t.Run("errors only when every attempt failed", func(t *testing.T) {
		_, ok, err := RetryUntil(context.Background(), 2, time.Millisecond,
			func(ctx context.Context) (int, error) { return 0, errors.New("down") },
			func(v int) bool { return true },
		)

		assert.False(t, ok)
		var exhausted *RetryExhaustedError
		require.ErrorAs(t, err, &exhausted)
	})

	t.Run("transient failure followed by unaccepted result is best-effort", func(t *testing.T) {
		calls := 0
		result, ok, err := RetryUntil(context.Background(), 3, time.Millisecond,
			func(ctx context.Context) (int, error) {
				calls++
				if calls == 1 {
					return 0, errors.New("transient")
				}
				return 7, nil
			},
			func(v int) bool { return false },
		)

		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 7, result)
	})
}
