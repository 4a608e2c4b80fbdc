package cache

import (
	"context"
	"sync"
	"time"

	"github.com/giftbridge/backend/internal/domain/shared"
)

type dedupEntry struct {
	expiresAt time.Time
}

// InMemoryIdempotencyStore implements shared.IdempotencyStore with a local
// map. Suitable for single-instance deployments and tests; distributed
// deployments should use the Redis store so replicas share dedup state.
// Either way the store is only the fast path: the webhook_events table
// insert remains the authority.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	entries   map[string]dedupEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts a background
// goroutine that evicts expired delivery keys
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		entries:  make(map[string]dedupEntry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.evictLoop()

	return store
}

// MarkProcessed records a delivery key with a TTL. Returns true when the key
// was newly recorded, false when the delivery was already seen.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, deliveryKey string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.entries[deliveryKey]; exists && time.Now().Before(e.expiresAt) {
		return false, nil
	}

	s.entries[deliveryKey] = dedupEntry{
		expiresAt: time.Now().Add(ttl),
	}
	return true, nil
}

// IsProcessed checks whether a delivery key has been seen and not yet expired
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, deliveryKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[deliveryKey]
	if !exists {
		return false, nil
	}
	if time.Now().After(e.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Close stops the eviction goroutine. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) evictLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *InMemoryIdempotencyStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of tracked delivery keys
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure InMemoryIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
