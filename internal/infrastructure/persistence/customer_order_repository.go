package persistence

import (
	"context"
	"errors"

	"github.com/giftbridge/backend/internal/domain/fulfillment"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerOrderRepository implements fulfillment.CustomerOrderRepository
type GormCustomerOrderRepository struct {
	db *gorm.DB
}

// NewGormCustomerOrderRepository creates a new GormCustomerOrderRepository
func NewGormCustomerOrderRepository(db *gorm.DB) *GormCustomerOrderRepository {
	return &GormCustomerOrderRepository{db: db}
}

// FindByID finds an order by ID, lines preloaded
func (r *GormCustomerOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.CustomerOrder, error) {
	var order fulfillment.CustomerOrder
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber finds an order by its unique order number
func (r *GormCustomerOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*fulfillment.CustomerOrder, error) {
	var order fulfillment.CustomerOrder
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&order, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAll returns orders with filtering and pagination
func (r *GormCustomerOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]fulfillment.CustomerOrder, error) {
	var orders []fulfillment.CustomerOrder
	query := r.db.WithContext(ctx).Model(&fulfillment.CustomerOrder{}).Preload("Lines")
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates an order and its lines
func (r *GormCustomerOrderRepository) Save(ctx context.Context, order *fulfillment.CustomerOrder) error {
	return r.SaveTx(r.db.WithContext(ctx), order)
}

// SaveTx saves within an existing transaction. Lines are saved row by row:
// association saves only insert missing children, they never update the
// status of a line that already exists.
func (r *GormCustomerOrderRepository) SaveTx(tx *gorm.DB, order *fulfillment.CustomerOrder) error {
	if err := tx.Omit("Lines").Save(order).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	for i := range order.Lines {
		if err := tx.Save(&order.Lines[i]).Error; err != nil {
			if isUniqueViolation(err) {
				return shared.ErrAlreadyExists
			}
			return err
		}
	}
	return nil
}

// ExistsByOrderNumber checks if an order number is taken
func (r *GormCustomerOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&fulfillment.CustomerOrder{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormCustomerOrderRepository implements CustomerOrderRepository
var _ fulfillment.CustomerOrderRepository = (*GormCustomerOrderRepository)(nil)
