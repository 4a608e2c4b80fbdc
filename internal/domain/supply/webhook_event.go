package supply

import (
	"time"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProcessedWebhookEvent records a webhook delivery that has been applied.
// The unique (supplier_code, event_id) index is the authority for idempotent
// webhook ingestion: the record is inserted in the same transaction that
// applies the delta, so a duplicate delivery can never apply twice even
// across service instances.
type ProcessedWebhookEvent struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key"`
	SupplierCode string           `gorm:"type:varchar(50);not null;uniqueIndex:idx_webhook_supplier_event,priority:1"`
	EventID      string           `gorm:"type:varchar(200);not null;uniqueIndex:idx_webhook_supplier_event,priority:2"`
	Kind         WebhookEventKind `gorm:"type:varchar(30);not null"`
	ProcessedAt  time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProcessedWebhookEvent) TableName() string {
	return "webhook_events"
}

// NewProcessedWebhookEvent creates the idempotency record for a delivery
func NewProcessedWebhookEvent(supplierCode, eventID string, kind WebhookEventKind) (*ProcessedWebhookEvent, error) {
	if supplierCode == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_CODE", "Supplier code cannot be empty")
	}
	if eventID == "" || len(eventID) > 200 {
		return nil, shared.NewDomainError("INVALID_EVENT_ID", "Event ID must be 1-200 characters")
	}
	return &ProcessedWebhookEvent{
		ID:           uuid.New(),
		SupplierCode: supplierCode,
		EventID:      eventID,
		Kind:         kind,
		ProcessedAt:  time.Now(),
	}, nil
}
