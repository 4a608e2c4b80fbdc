package persistence

import (
	"context"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
	"gorm.io/gorm"
)

// GormWebhookEventRepository implements supply.WebhookEventRepository.
// The unique (supplier_code, event_id) index makes the insert the
// idempotency authority for webhook ingestion.
type GormWebhookEventRepository struct {
	db *gorm.DB
}

// NewGormWebhookEventRepository creates a new GormWebhookEventRepository
func NewGormWebhookEventRepository(db *gorm.DB) *GormWebhookEventRepository {
	return &GormWebhookEventRepository{db: db}
}

// InsertTx inserts the idempotency record inside the delta-applying
// transaction. Returns shared.ErrAlreadyExists on a duplicate delivery.
func (r *GormWebhookEventRepository) InsertTx(tx *gorm.DB, event *supply.ProcessedWebhookEvent) error {
	if err := tx.Create(event).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Exists checks whether a delivery has already been processed
func (r *GormWebhookEventRepository) Exists(ctx context.Context, supplierCode, eventID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&supply.ProcessedWebhookEvent{}).
		Where("supplier_code = ? AND event_id = ?", supplierCode, eventID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormWebhookEventRepository implements WebhookEventRepository
var _ supply.WebhookEventRepository = (*GormWebhookEventRepository)(nil)
