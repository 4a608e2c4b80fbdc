package supply

import (
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants for the supply context
const (
	EventTypeSupplierCreated   = "supply.supplier.created"
	EventTypeInventorySynced   = "supply.inventory.synced"
	EventTypeWebhookApplied    = "supply.webhook.applied"
)

// SupplierCreatedEvent is raised when a supplier is registered
type SupplierCreatedEvent struct {
	shared.BaseDomainEvent
	Code        string `json:"code"`
	Name        string `json:"name"`
	AdapterCode string `json:"adapter_code"`
}

// NewSupplierCreatedEvent creates a new SupplierCreatedEvent
func NewSupplierCreatedEvent(s *Supplier) *SupplierCreatedEvent {
	return &SupplierCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplierCreated, "Supplier", s.ID),
		Code:            s.Code,
		Name:            s.Name,
		AdapterCode:     s.AdapterCode,
	}
}

// InventorySyncedEvent is raised after a full-poll reconciliation for a supplier
type InventorySyncedEvent struct {
	shared.BaseDomainEvent
	SupplierCode string `json:"supplier_code"`
	ItemCount    int    `json:"item_count"`
}

// NewInventorySyncedEvent creates a new InventorySyncedEvent
func NewInventorySyncedEvent(supplierID uuid.UUID, supplierCode string, itemCount int) *InventorySyncedEvent {
	return &InventorySyncedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventorySynced, "Supplier", supplierID),
		SupplierCode:    supplierCode,
		ItemCount:       itemCount,
	}
}

// WebhookAppliedEvent is raised when a webhook delta is applied to the cache
type WebhookAppliedEvent struct {
	shared.BaseDomainEvent
	SupplierCode  string           `json:"supplier_code"`
	WebhookID     string           `json:"webhook_id"`
	Kind          WebhookEventKind `json:"kind"`
	SKU           string           `json:"sku"`
	QuantityDelta *decimal.Decimal `json:"quantity_delta,omitempty"`
}

// NewWebhookAppliedEvent creates a new WebhookAppliedEvent
func NewWebhookAppliedEvent(supplierID uuid.UUID, supplierCode, webhookID string, kind WebhookEventKind, sku string, qtyDelta *decimal.Decimal) *WebhookAppliedEvent {
	return &WebhookAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWebhookApplied, "Supplier", supplierID),
		SupplierCode:    supplierCode,
		WebhookID:       webhookID,
		Kind:            kind,
		SKU:             sku,
		QuantityDelta:   qtyDelta,
	}
}
