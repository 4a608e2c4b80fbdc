package supply

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSnapshot(t *testing.T) *InventorySnapshot {
	t.Helper()
	snapshot, err := NewInventorySnapshot(uuid.New(), "MUG-CORP-01",
		decimal.NewFromInt(50), decimal.NewFromInt(10), 5, SnapshotSourcePoll)
	require.NoError(t, err)
	return snapshot
}

func TestNewInventorySnapshot(t *testing.T) {
	t.Run("creates snapshot", func(t *testing.T) {
		snapshot := newTestSnapshot(t)

		assert.True(t, snapshot.QuantityOnHand.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, SnapshotSourcePoll, snapshot.Source)
		assert.False(t, snapshot.SyncedAt.IsZero())
	})

	t.Run("rejects negative quantity", func(t *testing.T) {
		_, err := NewInventorySnapshot(uuid.New(), "MUG-CORP-01",
			decimal.NewFromInt(-1), decimal.NewFromInt(10), 5, SnapshotSourcePoll)

		assert.Error(t, err)
	})

	t.Run("rejects empty SKU", func(t *testing.T) {
		_, err := NewInventorySnapshot(uuid.New(), "",
			decimal.NewFromInt(1), decimal.NewFromInt(10), 5, SnapshotSourcePoll)

		assert.Error(t, err)
	})
}

func TestInventorySnapshot_Deltas(t *testing.T) {
	t.Run("quantity delta applies signed adjustment", func(t *testing.T) {
		snapshot := newTestSnapshot(t)

		snapshot.ApplyQuantityDelta(decimal.NewFromInt(-20))

		assert.True(t, snapshot.QuantityOnHand.Equal(decimal.NewFromInt(30)))
		assert.Equal(t, SnapshotSourceWebhook, snapshot.Source)
	})

	t.Run("late decrement clamps at zero", func(t *testing.T) {
		snapshot := newTestSnapshot(t)

		snapshot.ApplyQuantityDelta(decimal.NewFromInt(-80))

		assert.True(t, snapshot.QuantityOnHand.IsZero())
	})

	t.Run("pricing delta updates cost and lead time", func(t *testing.T) {
		snapshot := newTestSnapshot(t)

		require.NoError(t, snapshot.ApplyPricing(decimal.NewFromInt(12), 7))

		assert.True(t, snapshot.UnitCost.Equal(decimal.NewFromInt(12)))
		assert.Equal(t, 7, snapshot.LeadTimeDays)
	})

	t.Run("overwrite replaces everything from a full poll", func(t *testing.T) {
		snapshot := newTestSnapshot(t)
		snapshot.ApplyQuantityDelta(decimal.NewFromInt(-20))

		require.NoError(t, snapshot.Overwrite(decimal.NewFromInt(100), decimal.NewFromInt(9), 4, SnapshotSourcePoll))

		assert.True(t, snapshot.QuantityOnHand.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, SnapshotSourcePoll, snapshot.Source)
	})
}

func TestInventorySnapshot_Staleness(t *testing.T) {
	window := 30 * time.Minute

	t.Run("fresh snapshot is not stale", func(t *testing.T) {
		snapshot := newTestSnapshot(t)

		assert.False(t, snapshot.IsStale(window, time.Now()))
	})

	t.Run("snapshot past the window is stale", func(t *testing.T) {
		snapshot := newTestSnapshot(t)

		assert.True(t, snapshot.IsStale(window, time.Now().Add(time.Hour)))
	})
}

func TestProcessedWebhookEvent(t *testing.T) {
	t.Run("creates idempotency record", func(t *testing.T) {
		event, err := NewProcessedWebhookEvent("PRINTCO", "evt-123", WebhookEventInventoryDelta)

		require.NoError(t, err)
		assert.Equal(t, "PRINTCO", event.SupplierCode)
		assert.Equal(t, "evt-123", event.EventID)
	})

	t.Run("rejects missing event id", func(t *testing.T) {
		_, err := NewProcessedWebhookEvent("PRINTCO", "", WebhookEventInventoryDelta)

		assert.Error(t, err)
	})
}

func TestAdapterRegistry(t *testing.T) {
	t.Run("resolves registered adapter", func(t *testing.T) {
		registry := NewAdapterRegistry(stubAdapter{code: "standard-json"})

		adapter, err := registry.Resolve("standard-json")

		require.NoError(t, err)
		assert.Equal(t, "standard-json", adapter.Code())
		assert.ElementsMatch(t, []string{"standard-json"}, registry.Codes())
	})

	t.Run("unknown code errors", func(t *testing.T) {
		registry := NewAdapterRegistry()

		_, err := registry.Resolve("nope")

		assert.Error(t, err)
	})
}

type stubAdapter struct {
	code string
}

func (s stubAdapter) Code() string { return s.code }

func (s stubAdapter) FetchInventory(_ context.Context, _ *Supplier, _ string) (*CatalogItem, error) {
	return nil, nil
}

func (s stubAdapter) FetchCatalog(_ context.Context, _ *Supplier) ([]CatalogItem, error) {
	return nil, nil
}

func (s stubAdapter) VerifyWebhookSignature(_ *Supplier, _ []byte, _ string) error { return nil }

func (s stubAdapter) ParseWebhookEvent(_ []byte) (*WebhookEvent, error) {
	return &WebhookEvent{Kind: WebhookEventUnknown}, nil
}
