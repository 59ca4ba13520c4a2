package shared

import (
	"context"
	"time"
)

// IdempotencyStore tracks keys that have already been acted upon, so that
// repeated triggers (a re-fired cron tick, a replayed request, a second
// scheduler replica) do not re-execute side-effecting work.
type IdempotencyStore interface {
	// MarkProcessed records the key with a TTL. Returns true if the key was
	// newly recorded, false if it was already present (someone else won).
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the key has already been recorded.
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
