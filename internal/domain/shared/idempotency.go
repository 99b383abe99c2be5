package shared

import (
	"context"
	"time"
)

// IdempotencyStore tracks request keys that have already been acted on.
// Completing an inspection triggers external billing side effects, so a
// retried completion request must be recognizable as a duplicate.
type IdempotencyStore interface {
	// MarkProcessed records the key with a TTL. Returns true if the key was
	// newly recorded, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the key has been recorded and not expired
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the store
	Close() error
}
