package fulfillment

import (
	"fmt"
	"time"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLineStatus represents the routing status of an order line
type OrderLineStatus string

const (
	// OrderLineStatusPending means the line has not been routed yet
	OrderLineStatusPending OrderLineStatus = "PENDING"
	// OrderLineStatusRouted means exactly one production order owns the line
	OrderLineStatusRouted OrderLineStatus = "ROUTED"
	// OrderLineStatusSplit means the line was replaced by sub-lines across suppliers
	OrderLineStatusSplit OrderLineStatus = "SPLIT"
	// OrderLineStatusCancelled means the line was cancelled before routing
	OrderLineStatusCancelled OrderLineStatus = "CANCELLED"
)

// OrderLine is one SKU+quantity item within a customer order.
// A line is immutable once routed; a quantity split across suppliers is
// modeled as child lines (SplitFrom set), each owned by exactly one
// production order.
type OrderLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU       string          `gorm:"type:varchar(100);not null;index"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Price charged to the customer
	Status    OrderLineStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	SplitFrom *uuid.UUID      `gorm:"type:uuid;index"` // Parent line when this line came from a split
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLine) TableName() string {
	return "order_lines"
}

// NewOrderLine creates a new order line
func NewOrderLine(orderID uuid.UUID, sku string, quantity decimal.Decimal, unitPrice valueobject.Money) (*OrderLine, error) {
	if sku == "" || len(sku) > 100 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU must be 1-100 characters")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &OrderLine{
		ID:        uuid.New(),
		OrderID:   orderID,
		SKU:       sku,
		Quantity:  quantity,
		UnitPrice: unitPrice.Amount(),
		Status:    OrderLineStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkRouted marks the line as owned by a production order
func (l *OrderLine) MarkRouted() error {
	if l.Status != OrderLineStatusPending {
		return shared.NewDomainError("LINE_ALREADY_ROUTED", fmt.Sprintf("Order line is already %s", l.Status))
	}
	l.Status = OrderLineStatusRouted
	l.UpdatedAt = time.Now()
	return nil
}

// MarkSplit marks the line as replaced by sub-lines
func (l *OrderLine) MarkSplit() error {
	if l.Status != OrderLineStatusPending {
		return shared.NewDomainError("LINE_ALREADY_ROUTED", fmt.Sprintf("Order line is already %s", l.Status))
	}
	l.Status = OrderLineStatusSplit
	l.UpdatedAt = time.Now()
	return nil
}

// IsRouted returns true once the line (or its split children) own production orders
func (l *OrderLine) IsRouted() bool {
	return l.Status == OrderLineStatusRouted || l.Status == OrderLineStatusSplit
}

// SplitInto derives a child line carrying part of this line's quantity
func (l *OrderLine) SplitInto(quantity decimal.Decimal) (*OrderLine, error) {
	if quantity.LessThanOrEqual(decimal.Zero) || quantity.GreaterThan(l.Quantity) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Split quantity must be positive and within the parent line quantity")
	}
	now := time.Now()
	parentID := l.ID
	return &OrderLine{
		ID:        uuid.New(),
		OrderID:   l.OrderID,
		SKU:       l.SKU,
		Quantity:  quantity,
		UnitPrice: l.UnitPrice,
		Status:    OrderLineStatusPending,
		SplitFrom: &parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CustomerOrderStatus is the aggregate view over a customer order's lines
type CustomerOrderStatus string

const (
	CustomerOrderStatusPending   CustomerOrderStatus = "PENDING"
	CustomerOrderStatusRouted    CustomerOrderStatus = "ROUTED"
	CustomerOrderStatusCancelled CustomerOrderStatus = "CANCELLED"
)

// CustomerOrder is the parent customer order as seen by this subsystem:
// a set of order lines to route plus an aggregate status. Customer-facing
// attributes (payment, delivery address, gifting notes) live upstream.
type CustomerOrder struct {
	shared.BaseAggregateRoot
	OrderNumber string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_customer_order_number"`
	CustomerRef string              `gorm:"type:varchar(100);not null"` // Upstream customer identifier, opaque here
	Status      CustomerOrderStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Lines       []OrderLine         `gorm:"foreignKey:OrderID;references:ID"`
	CancelledAt *time.Time
	CancelReason string             `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (CustomerOrder) TableName() string {
	return "customer_orders"
}

// NewCustomerOrder creates a new customer order
func NewCustomerOrder(orderNumber, customerRef string) (*CustomerOrder, error) {
	if orderNumber == "" || len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number must be 1-50 characters")
	}
	if customerRef == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_REF", "Customer reference cannot be empty")
	}

	order := &CustomerOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		CustomerRef:       customerRef,
		Status:            CustomerOrderStatusPending,
		Lines:             make([]OrderLine, 0),
	}
	return order, nil
}

// AddLine adds a new line to the order; only allowed before routing
func (o *CustomerOrder) AddLine(sku string, quantity decimal.Decimal, unitPrice valueobject.Money) (*OrderLine, error) {
	if o.Status != CustomerOrderStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines to a routed or cancelled order")
	}
	line, err := NewOrderLine(o.ID, sku, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	o.Lines = append(o.Lines, *line)
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return line, nil
}

// MarkRouted records that every line is routed
func (o *CustomerOrder) MarkRouted() {
	o.Status = CustomerOrderStatusRouted
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

// Cancel cancels the order. In-flight production orders are handled by the
// orchestrator; this only records the order-level decision.
func (o *CustomerOrder) Cancel(reason string) error {
	if o.Status == CustomerOrderStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Order is already cancelled")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}
	now := time.Now()
	o.Status = CustomerOrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now
	o.IncrementVersion()
	return nil
}

// RoutableLines returns lines still awaiting routing
func (o *CustomerOrder) RoutableLines() []OrderLine {
	lines := make([]OrderLine, 0)
	for _, line := range o.Lines {
		if line.Status == OrderLineStatusPending {
			lines = append(lines, line)
		}
	}
	return lines
}

// IsFullyRouted returns true when no line is still pending
func (o *CustomerOrder) IsFullyRouted() bool {
	if len(o.Lines) == 0 {
		return false
	}
	for _, line := range o.Lines {
		if line.Status == OrderLineStatusPending {
			return false
		}
	}
	return true
}
