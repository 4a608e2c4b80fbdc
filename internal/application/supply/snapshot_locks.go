package supply

import (
	"sync"

	"github.com/google/uuid"
)

// SnapshotLocks serializes in-process snapshot writers. Webhook deltas and
// full-sync replaces share one instance: a delta's read-modify-write holds
// its (supplier, SKU) slot shared against other deltas and exclusive
// against a replace of the whole supplier, so neither writer can interleave
// with and lose the other's update.
type SnapshotLocks struct {
	mu        sync.Mutex
	suppliers map[uuid.UUID]*supplierLocks
}

type supplierLocks struct {
	rw   sync.RWMutex
	mu   sync.Mutex
	skus map[string]*sync.Mutex
}

// NewSnapshotLocks creates an empty lock set
func NewSnapshotLocks() *SnapshotLocks {
	return &SnapshotLocks{suppliers: make(map[uuid.UUID]*supplierLocks)}
}

func (l *SnapshotLocks) forSupplier(supplierID uuid.UUID) *supplierLocks {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.suppliers[supplierID]
	if !ok {
		s = &supplierLocks{skus: make(map[string]*sync.Mutex)}
		l.suppliers[supplierID] = s
	}
	return s
}

// LockSKU serializes one (supplier, SKU) read-modify-write. Deltas for
// different SKUs of the same supplier proceed concurrently; a full replace
// of the supplier waits for them all.
func (l *SnapshotLocks) LockSKU(supplierID uuid.UUID, sku string) func() {
	s := l.forSupplier(supplierID)
	s.rw.RLock()

	s.mu.Lock()
	m, ok := s.skus[sku]
	if !ok {
		m = &sync.Mutex{}
		s.skus[sku] = m
	}
	s.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		s.rw.RUnlock()
	}
}

// LockSupplier takes a supplier exclusively for a full snapshot replace
func (l *SnapshotLocks) LockSupplier(supplierID uuid.UUID) func() {
	s := l.forSupplier(supplierID)
	s.rw.Lock()
	return s.rw.Unlock
}
