package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/giftbridge/backend/internal/domain/fulfillment"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductionOrderRepository implements fulfillment.ProductionOrderRepository
type GormProductionOrderRepository struct {
	db *gorm.DB
}

// NewGormProductionOrderRepository creates a new GormProductionOrderRepository
func NewGormProductionOrderRepository(db *gorm.DB) *GormProductionOrderRepository {
	return &GormProductionOrderRepository{db: db}
}

// FindByID finds a production order by ID, transitions and kitting preloaded
func (r *GormProductionOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.ProductionOrder, error) {
	var po fulfillment.ProductionOrder
	if err := r.db.WithContext(ctx).
		Preload("Transitions", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at ASC")
		}).
		Preload("KittingItems").
		First(&po, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// FindByOrderLineID finds the production order owning an order line
func (r *GormProductionOrderRepository) FindByOrderLineID(ctx context.Context, lineID uuid.UUID) (*fulfillment.ProductionOrder, error) {
	var po fulfillment.ProductionOrder
	if err := r.db.WithContext(ctx).
		Preload("Transitions").
		Preload("KittingItems").
		First(&po, "order_line_id = ?", lineID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

// FindByCustomerOrderID returns all production orders for a customer order
func (r *GormProductionOrderRepository) FindByCustomerOrderID(ctx context.Context, orderID uuid.UUID) ([]fulfillment.ProductionOrder, error) {
	var orders []fulfillment.ProductionOrder
	if err := r.db.WithContext(ctx).
		Preload("KittingItems").
		Where("customer_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByStatus returns production orders in a given status
func (r *GormProductionOrderRepository) FindByStatus(ctx context.Context, status fulfillment.ProductionOrderStatus, filter shared.Filter) ([]fulfillment.ProductionOrder, error) {
	var orders []fulfillment.ProductionOrder
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindStuck returns non-terminal production orders whose last status change
// is older than the cutoff and that have not been escalated yet
func (r *GormProductionOrderRepository) FindStuck(ctx context.Context, cutoff time.Time) ([]fulfillment.ProductionOrder, error) {
	var orders []fulfillment.ProductionOrder
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ? AND escalated = ?",
			[]fulfillment.ProductionOrderStatus{
				fulfillment.ProductionOrderStatusConfirmed,
				fulfillment.ProductionOrderStatusInProduction,
			}, cutoff, false).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindProvisionalBySupplier returns provisional production orders awaiting
// a confirmation sync for one supplier
func (r *GormProductionOrderRepository) FindProvisionalBySupplier(ctx context.Context, supplierID uuid.UUID) ([]fulfillment.ProductionOrder, error) {
	var orders []fulfillment.ProductionOrder
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND provisional = ? AND status = ?",
			supplierID, true, fulfillment.ProductionOrderStatusCreated).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates a production order
func (r *GormProductionOrderRepository) Save(ctx context.Context, po *fulfillment.ProductionOrder) error {
	if err := r.db.WithContext(ctx).Save(po).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveTx saves within an existing transaction
func (r *GormProductionOrderRepository) SaveTx(tx *gorm.DB, po *fulfillment.ProductionOrder) error {
	if err := tx.Save(po).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock updates with optimistic locking on the version column
func (r *GormProductionOrderRepository) SaveWithLock(ctx context.Context, po *fulfillment.ProductionOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.SaveWithLockTx(tx, po)
	})
}

// SaveWithLockTx applies the optimistic version check within an existing
// transaction, so callers can post ledger entries atomically with the
// status change.
func (r *GormProductionOrderRepository) SaveWithLockTx(tx *gorm.DB, po *fulfillment.ProductionOrder) error {
	// The lock predicate uses the version the row was loaded with, not
	// Version-1: domain mutations may bump the version several times
	// between one load and one save.
	expected := po.PersistedVersion()
	if expected == 0 {
		expected = po.Version - 1
	}
	result := tx.Model(&fulfillment.ProductionOrder{}).
		Where("id = ? AND version = ?", po.ID, expected).
		Select("*").
		Omit("Transitions", "KittingItems", "created_at").
		Updates(po)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	po.MarkPersisted()
	// Transition log rows and kitting items are append-mostly; persist
	// any that are new alongside the aggregate update.
	for i := range po.Transitions {
		if err := tx.Save(&po.Transitions[i]).Error; err != nil {
			return err
		}
	}
	for i := range po.KittingItems {
		if err := tx.Save(&po.KittingItems[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormProductionOrderRepository implements ProductionOrderRepository
var _ fulfillment.ProductionOrderRepository = (*GormProductionOrderRepository)(nil)
