package fulfillment

import (
	"context"
	"time"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerOrderRepository defines the interface for customer order persistence
type CustomerOrderRepository interface {
	// FindByID finds an order by ID, lines preloaded
	FindByID(ctx context.Context, id uuid.UUID) (*CustomerOrder, error)

	// FindByOrderNumber finds an order by its unique order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*CustomerOrder, error)

	// FindAll returns orders with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]CustomerOrder, error)

	// Save creates or updates an order and its lines
	Save(ctx context.Context, order *CustomerOrder) error

	// SaveTx saves within an existing transaction
	SaveTx(tx *gorm.DB, order *CustomerOrder) error

	// ExistsByOrderNumber checks if an order number is taken
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)
}

// ProductionOrderRepository defines the interface for production order persistence
type ProductionOrderRepository interface {
	// FindByID finds a production order by ID, transitions and kitting preloaded
	FindByID(ctx context.Context, id uuid.UUID) (*ProductionOrder, error)

	// FindByOrderLineID finds the production order owning an order line
	FindByOrderLineID(ctx context.Context, lineID uuid.UUID) (*ProductionOrder, error)

	// FindByCustomerOrderID returns all production orders for a customer order
	FindByCustomerOrderID(ctx context.Context, orderID uuid.UUID) ([]ProductionOrder, error)

	// FindByStatus returns production orders in a given status
	FindByStatus(ctx context.Context, status ProductionOrderStatus, filter shared.Filter) ([]ProductionOrder, error)

	// FindStuck returns non-terminal production orders whose last status
	// change is older than the cutoff
	FindStuck(ctx context.Context, cutoff time.Time) ([]ProductionOrder, error)

	// FindProvisionalBySupplier returns provisional production orders
	// awaiting a confirmation sync for one supplier
	FindProvisionalBySupplier(ctx context.Context, supplierID uuid.UUID) ([]ProductionOrder, error)

	// Save creates or updates a production order
	Save(ctx context.Context, po *ProductionOrder) error

	// SaveTx saves within an existing transaction
	SaveTx(tx *gorm.DB, po *ProductionOrder) error

	// SaveWithLock updates with optimistic locking on the version column.
	// Returns shared.ErrConcurrencyConflict when the row moved underneath.
	SaveWithLock(ctx context.Context, po *ProductionOrder) error

	// SaveWithLockTx applies the optimistic version check within an
	// existing transaction
	SaveWithLockTx(tx *gorm.DB, po *ProductionOrder) error
}
