package persistence

import (
	"context"
	"errors"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventorySnapshotRepository implements supply.InventorySnapshotRepository
type GormInventorySnapshotRepository struct {
	db *gorm.DB
}

// NewGormInventorySnapshotRepository creates a new GormInventorySnapshotRepository
func NewGormInventorySnapshotRepository(db *gorm.DB) *GormInventorySnapshotRepository {
	return &GormInventorySnapshotRepository{db: db}
}

// FindBySKU returns all snapshots for a SKU across suppliers
func (r *GormInventorySnapshotRepository) FindBySKU(ctx context.Context, sku string) ([]supply.InventorySnapshot, error) {
	var snapshots []supply.InventorySnapshot
	if err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		Order("unit_cost ASC").
		Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// FindBySupplierAndSKU returns the snapshot for one (supplier, SKU) pair
func (r *GormInventorySnapshotRepository) FindBySupplierAndSKU(ctx context.Context, supplierID uuid.UUID, sku string) (*supply.InventorySnapshot, error) {
	var snapshot supply.InventorySnapshot
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND sku = ?", supplierID, sku).
		First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}

// FindBySupplier returns all snapshots for a supplier
func (r *GormInventorySnapshotRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID) ([]supply.InventorySnapshot, error) {
	var snapshots []supply.InventorySnapshot
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("sku ASC").
		Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// Save upserts a snapshot on its (supplier_id, sku) key
func (r *GormInventorySnapshotRepository) Save(ctx context.Context, snapshot *supply.InventorySnapshot) error {
	return r.upsert(r.db.WithContext(ctx), snapshot)
}

// SaveTx saves within an existing transaction
func (r *GormInventorySnapshotRepository) SaveTx(tx *gorm.DB, snapshot *supply.InventorySnapshot) error {
	return r.upsert(tx, snapshot)
}

func (r *GormInventorySnapshotRepository) upsert(db *gorm.DB, snapshot *supply.InventorySnapshot) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "supplier_id"}, {Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quantity_on_hand", "unit_cost", "lead_time_days", "source", "synced_at", "updated_at",
		}),
	}).Create(snapshot).Error
}

// ReplaceForSupplier overwrites all snapshots for a supplier from a full
// poll, removing SKUs the supplier no longer reports
func (r *GormInventorySnapshotRepository) ReplaceForSupplier(ctx context.Context, supplierID uuid.UUID, snapshots []supply.InventorySnapshot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("supplier_id = ?", supplierID).
			Delete(&supply.InventorySnapshot{}).Error; err != nil {
			return err
		}
		if len(snapshots) == 0 {
			return nil
		}
		return tx.Create(&snapshots).Error
	})
}

// Ensure GormInventorySnapshotRepository implements InventorySnapshotRepository
var _ supply.InventorySnapshotRepository = (*GormInventorySnapshotRepository)(nil)
