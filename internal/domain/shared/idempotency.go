package shared

import (
	"context"
	"time"
)

// IdempotencyStore is the fast-path duplicate filter for webhook delivery
// keys. It is advisory only: a false negative is tolerable because the
// persistent processed-event record is checked inside the applying
// transaction.
type IdempotencyStore interface {
	// MarkProcessed records a delivery key with a TTL. Returns true when
	// the key was newly recorded, false when it was already present.
	MarkProcessed(ctx context.Context, deliveryKey string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether a delivery key has been recorded
	IsProcessed(ctx context.Context, deliveryKey string) (bool, error)

	// Close releases the store's resources
	Close() error
}
