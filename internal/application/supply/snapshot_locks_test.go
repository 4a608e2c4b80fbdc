package supply

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSnapshotLocks(t *testing.T) {
	t.Run("a full replace excludes sku deltas", func(t *testing.T) {
		locks := NewSnapshotLocks()
		supplierID := uuid.New()

		release := locks.LockSupplier(supplierID)

		acquired := make(chan struct{})
		go func() {
			unlock := locks.LockSKU(supplierID, "MUG-01")
			close(acquired)
			unlock()
		}()

		select {
		case <-acquired:
			t.Fatal("sku lock granted while the supplier was held exclusively")
		case <-time.After(50 * time.Millisecond):
		}

		release()
		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("sku lock never granted after the replace released")
		}
	})

	t.Run("deltas for different skus do not block each other", func(t *testing.T) {
		locks := NewSnapshotLocks()
		supplierID := uuid.New()

		unlockA := locks.LockSKU(supplierID, "MUG-01")
		defer unlockA()

		acquired := make(chan struct{})
		go func() {
			unlock := locks.LockSKU(supplierID, "TOTE-09")
			close(acquired)
			unlock()
		}()

		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("a different sku was blocked by an unrelated delta")
		}
	})

	t.Run("suppliers are independent", func(t *testing.T) {
		locks := NewSnapshotLocks()

		release := locks.LockSupplier(uuid.New())
		defer release()

		// Acquiring a different supplier's sku must not block.
		acquired := make(chan struct{})
		go func() {
			unlock := locks.LockSKU(uuid.New(), "MUG-01")
			close(acquired)
			unlock()
		}()

		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("an unrelated supplier was blocked by the replace")
		}
	})
}
