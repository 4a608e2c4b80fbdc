package supply

import (
	"context"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SupplierRepository defines the interface for supplier persistence
type SupplierRepository interface {
	// FindByID finds a supplier by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)

	// FindByCode finds a supplier by its unique code
	FindByCode(ctx context.Context, code string) (*Supplier, error)

	// FindAllActive returns all active suppliers
	FindAllActive(ctx context.Context) ([]Supplier, error)

	// FindAll returns suppliers with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Supplier, error)

	// Save creates or updates a supplier
	Save(ctx context.Context, supplier *Supplier) error

	// ExistsByCode checks if a supplier code is taken
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// InventorySnapshotRepository defines the interface for snapshot persistence
type InventorySnapshotRepository interface {
	// FindBySKU returns all snapshots for a SKU across suppliers
	FindBySKU(ctx context.Context, sku string) ([]InventorySnapshot, error)

	// FindBySupplierAndSKU returns the snapshot for one (supplier, SKU) pair
	FindBySupplierAndSKU(ctx context.Context, supplierID uuid.UUID, sku string) (*InventorySnapshot, error)

	// FindBySupplier returns all snapshots for a supplier
	FindBySupplier(ctx context.Context, supplierID uuid.UUID) ([]InventorySnapshot, error)

	// Save creates or updates a snapshot (upsert on supplier+SKU)
	Save(ctx context.Context, snapshot *InventorySnapshot) error

	// SaveTx saves within an existing transaction
	SaveTx(tx *gorm.DB, snapshot *InventorySnapshot) error

	// ReplaceForSupplier overwrites all snapshots for a supplier from a full poll
	ReplaceForSupplier(ctx context.Context, supplierID uuid.UUID, snapshots []InventorySnapshot) error
}

// WebhookEventRepository persists the webhook idempotency records
type WebhookEventRepository interface {
	// InsertTx inserts the idempotency record inside the delta-applying
	// transaction. Returns shared.ErrAlreadyExists on a duplicate
	// (supplier_code, event_id) pair.
	InsertTx(tx *gorm.DB, event *ProcessedWebhookEvent) error

	// Exists checks whether a delivery has already been processed
	Exists(ctx context.Context, supplierCode, eventID string) (bool, error)
}
