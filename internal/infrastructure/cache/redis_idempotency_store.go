package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const webhookDedupPrefix = "webhook:dedup:"

// RedisIdempotencyStore implements shared.IdempotencyStore on Redis so all
// service instances share webhook dedup state. SETNX answers "have we seen
// this delivery" without touching Postgres on the replay path; the
// webhook_events insert stays the transactional authority.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store on an existing Redis client
func NewRedisIdempotencyStore(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = webhookDedupPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed records a delivery key with a TTL using SETNX. Returns true
// when the key was newly set, false when the delivery was already seen.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, deliveryKey string, ttl time.Duration) (bool, error) {
	fresh, err := s.client.SetNX(ctx, s.keyPrefix+deliveryKey, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark delivery as processed: %w", err)
	}
	return fresh, nil
}

// IsProcessed checks whether a delivery key is present
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, deliveryKey string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.keyPrefix+deliveryKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check delivery dedup state: %w", err)
	}
	return exists > 0, nil
}

// Close closes the underlying Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// Ensure RedisIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
