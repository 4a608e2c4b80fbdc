package supply

import (
	"time"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotSource records how an inventory snapshot was obtained
type SnapshotSource string

const (
	// SnapshotSourceWebhook means the snapshot was updated by a supplier push
	SnapshotSourceWebhook SnapshotSource = "webhook"
	// SnapshotSourcePoll means the snapshot came from a scheduled full sync
	SnapshotSourcePoll SnapshotSource = "poll"
)

// InventorySnapshot is the per (supplier, SKU) view of quantity-on-hand,
// unit cost and lead time. Snapshots are advisory: they are overwritten
// wholesale on each sync and are never authoritative for charging the
// customer. Staleness is an expected condition, not an error.
type InventorySnapshot struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	SupplierID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_snapshot_supplier_sku,priority:1"`
	SKU          string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_snapshot_supplier_sku,priority:2;index"`
	QuantityOnHand decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LeadTimeDays int             `gorm:"not null;default:0"`
	Source       SnapshotSource  `gorm:"type:varchar(20);not null"`
	SyncedAt     time.Time       `gorm:"not null;index"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InventorySnapshot) TableName() string {
	return "inventory_snapshots"
}

// NewInventorySnapshot creates a snapshot for a (supplier, SKU) pair
func NewInventorySnapshot(supplierID uuid.UUID, sku string, qty, unitCost decimal.Decimal, leadTimeDays int, source SnapshotSource) (*InventorySnapshot, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if sku == "" || len(sku) > 100 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU must be 1-100 characters")
	}
	if qty.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity on hand cannot be negative")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if leadTimeDays < 0 {
		return nil, shared.NewDomainError("INVALID_LEAD_TIME", "Lead time cannot be negative")
	}

	now := time.Now()
	return &InventorySnapshot{
		ID:             uuid.New(),
		SupplierID:     supplierID,
		SKU:            sku,
		QuantityOnHand: qty,
		UnitCost:       unitCost,
		LeadTimeDays:   leadTimeDays,
		Source:         source,
		SyncedAt:       now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Overwrite replaces the snapshot contents wholesale with freshly synced values
func (s *InventorySnapshot) Overwrite(qty, unitCost decimal.Decimal, leadTimeDays int, source SnapshotSource) error {
	if qty.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity on hand cannot be negative")
	}
	if unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if leadTimeDays < 0 {
		return shared.NewDomainError("INVALID_LEAD_TIME", "Lead time cannot be negative")
	}

	now := time.Now()
	s.QuantityOnHand = qty
	s.UnitCost = unitCost
	s.LeadTimeDays = leadTimeDays
	s.Source = source
	s.SyncedAt = now
	s.UpdatedAt = now
	return nil
}

// ApplyQuantityDelta adjusts quantity-on-hand by a signed delta, clamped at zero.
// Deltas arrive from webhooks which may race a full poll; the clamp keeps a
// late decrement from driving the snapshot negative.
func (s *InventorySnapshot) ApplyQuantityDelta(delta decimal.Decimal) {
	now := time.Now()
	next := s.QuantityOnHand.Add(delta)
	if next.IsNegative() {
		next = decimal.Zero
	}
	s.QuantityOnHand = next
	s.Source = SnapshotSourceWebhook
	s.SyncedAt = now
	s.UpdatedAt = now
}

// ApplyPricing updates unit cost and lead time from a pricing delta
func (s *InventorySnapshot) ApplyPricing(unitCost decimal.Decimal, leadTimeDays int) error {
	if unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if leadTimeDays < 0 {
		return shared.NewDomainError("INVALID_LEAD_TIME", "Lead time cannot be negative")
	}
	now := time.Now()
	s.UnitCost = unitCost
	s.LeadTimeDays = leadTimeDays
	s.Source = SnapshotSourceWebhook
	s.SyncedAt = now
	s.UpdatedAt = now
	return nil
}

// IsStale reports whether the snapshot is older than the freshness window
func (s *InventorySnapshot) IsStale(window time.Duration, now time.Time) bool {
	return now.Sub(s.SyncedAt) > window
}

// CanCover returns true if quantity-on-hand covers the requested quantity
func (s *InventorySnapshot) CanCover(quantity decimal.Decimal) bool {
	return s.QuantityOnHand.GreaterThanOrEqual(quantity)
}
