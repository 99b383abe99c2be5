package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	first, err := store.MarkProcessed(ctx, "complete:abc-123", time.Minute)
	require.NoError(t, err)
	assert.True(t, first, "first mark should succeed")

	second, err := store.MarkProcessed(ctx, "complete:abc-123", time.Minute)
	require.NoError(t, err)
	assert.False(t, second, "duplicate mark should be rejected")
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	processed, err := store.IsProcessed(ctx, "complete:unknown")
	require.NoError(t, err)
	assert.False(t, processed)

	_, err = store.MarkProcessed(ctx, "complete:known", time.Minute)
	require.NoError(t, err)

	processed, err = store.IsProcessed(ctx, "complete:known")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_Expiration(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "complete:short-lived", 20*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	processed, err := store.IsProcessed(ctx, "complete:short-lived")
	require.NoError(t, err)
	assert.False(t, processed, "expired key should no longer count as processed")

	// an expired key can be claimed again
	again, err := store.MarkProcessed(ctx, "complete:short-lived", time.Minute)
	require.NoError(t, err)
	assert.True(t, again)
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestInMemoryIdempotencyStore_ConcurrentMarks(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	const goroutines = 20

	results := make(chan bool, goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			ok, err := store.MarkProcessed(ctx, "complete:contested", time.Minute)
			require.NoError(t, err)
			results <- ok
		}()
	}

	winners := 0
	for i := 0; i < goroutines; i++ {
		if <-results {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one goroutine should win the mark")
}
