package fulfillment

import (
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants for the fulfillment context
const (
	EventTypeCustomerOrderRouted        = "fulfillment.order.routed"
	EventTypeCustomerOrderCancelled     = "fulfillment.order.cancelled"
	EventTypeProductionOrderCreated     = "fulfillment.production_order.created"
	EventTypeProductionOrderTransitioned = "fulfillment.production_order.transitioned"
	EventTypeProductionOrderEscalated   = "fulfillment.production_order.escalated"
)

// CustomerOrderRoutedEvent is raised when every line of an order is routed
type CustomerOrderRoutedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	LineCount   int    `json:"line_count"`
}

// NewCustomerOrderRoutedEvent creates a new CustomerOrderRoutedEvent
func NewCustomerOrderRoutedEvent(o *CustomerOrder) *CustomerOrderRoutedEvent {
	return &CustomerOrderRoutedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerOrderRouted, "CustomerOrder", o.ID),
		OrderNumber:     o.OrderNumber,
		LineCount:       len(o.Lines),
	}
}

// CustomerOrderCancelledEvent is raised when an order is cancelled
type CustomerOrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

// NewCustomerOrderCancelledEvent creates a new CustomerOrderCancelledEvent
func NewCustomerOrderCancelledEvent(o *CustomerOrder, reason string) *CustomerOrderCancelledEvent {
	return &CustomerOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerOrderCancelled, "CustomerOrder", o.ID),
		OrderNumber:     o.OrderNumber,
		Reason:          reason,
	}
}

// ProductionOrderCreatedEvent is raised when routing creates a production order
type ProductionOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderLineID  uuid.UUID       `json:"order_line_id"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SKU          string          `json:"sku"`
	Quantity     decimal.Decimal `json:"quantity"`
	CostEstimate decimal.Decimal `json:"cost_estimate"`
	Provisional  bool            `json:"provisional"`
}

// NewProductionOrderCreatedEvent creates a new ProductionOrderCreatedEvent
func NewProductionOrderCreatedEvent(p *ProductionOrder) *ProductionOrderCreatedEvent {
	return &ProductionOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductionOrderCreated, "ProductionOrder", p.ID),
		OrderLineID:     p.OrderLineID,
		SupplierID:      p.SupplierID,
		SKU:             p.SKU,
		Quantity:        p.Quantity,
		CostEstimate:    p.CostEstimate,
		Provisional:     p.Provisional,
	}
}

// ProductionOrderTransitionedEvent is raised on every status change
type ProductionOrderTransitionedEvent struct {
	shared.BaseDomainEvent
	FromStatus ProductionOrderStatus `json:"from_status"`
	ToStatus   ProductionOrderStatus `json:"to_status"`
	Actor      string                `json:"actor"`
}

// NewProductionOrderTransitionedEvent creates a new ProductionOrderTransitionedEvent
func NewProductionOrderTransitionedEvent(p *ProductionOrder, from, to ProductionOrderStatus, actor string) *ProductionOrderTransitionedEvent {
	return &ProductionOrderTransitionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductionOrderTransitioned, "ProductionOrder", p.ID),
		FromStatus:      from,
		ToStatus:        to,
		Actor:           actor,
	}
}

// ProductionOrderEscalatedEvent is raised when an order is flagged for review
type ProductionOrderEscalatedEvent struct {
	shared.BaseDomainEvent
	SupplierID uuid.UUID `json:"supplier_id"`
	Reason     string    `json:"reason"`
}

// NewProductionOrderEscalatedEvent creates a new ProductionOrderEscalatedEvent
func NewProductionOrderEscalatedEvent(p *ProductionOrder, reason string) *ProductionOrderEscalatedEvent {
	return &ProductionOrderEscalatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductionOrderEscalated, "ProductionOrder", p.ID),
		SupplierID:      p.SupplierID,
		Reason:          reason,
	}
}
