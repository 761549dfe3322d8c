package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already processed.
// Payment recording uses it to ignore a provider reference that has been seen before.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release removes a key so that a failed operation can be attempted again
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
