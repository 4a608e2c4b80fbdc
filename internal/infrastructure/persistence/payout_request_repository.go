package persistence

import (
	"context"
	"errors"

	"github.com/giftbridge/backend/internal/domain/settlement"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPayoutRequestRepository implements settlement.PayoutRequestRepository
type GormPayoutRequestRepository struct {
	db *gorm.DB
}

// NewGormPayoutRequestRepository creates a new GormPayoutRequestRepository
func NewGormPayoutRequestRepository(db *gorm.DB) *GormPayoutRequestRepository {
	return &GormPayoutRequestRepository{db: db}
}

// FindByID finds a payout request by ID, settled entries preloaded
func (r *GormPayoutRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.PayoutRequest, error) {
	var request settlement.PayoutRequest
	if err := r.db.WithContext(ctx).
		Preload("SettledEntries").
		First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// FindBySupplier returns a supplier's payout requests, newest first
func (r *GormPayoutRequestRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]settlement.PayoutRequest, error) {
	var requests []settlement.PayoutRequest
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// FindByStatus returns payout requests in a given status
func (r *GormPayoutRequestRepository) FindByStatus(ctx context.Context, status settlement.PayoutRequestStatus, filter shared.Filter) ([]settlement.PayoutRequest, error) {
	var requests []settlement.PayoutRequest
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// Save creates or updates a payout request
func (r *GormPayoutRequestRepository) Save(ctx context.Context, request *settlement.PayoutRequest) error {
	if err := r.db.WithContext(ctx).Save(request).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLockTx updates within a transaction using an optimistic version
// check. RowsAffected of zero means another writer moved the row first.
func (r *GormPayoutRequestRepository) SaveWithLockTx(tx *gorm.DB, request *settlement.PayoutRequest) error {
	// Compare against the version seen at load time; the domain may have
	// bumped Version more than once since.
	expected := request.PersistedVersion()
	if expected == 0 {
		expected = request.Version - 1
	}
	result := tx.Model(&settlement.PayoutRequest{}).
		Where("id = ? AND version = ?", request.ID, expected).
		Select("*").
		Omit("SettledEntries", "created_at").
		Updates(request)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	request.MarkPersisted()
	for i := range request.SettledEntries {
		if err := tx.Save(&request.SettledEntries[i]).Error; err != nil {
			if isUniqueViolation(err) {
				return shared.ErrAlreadyExists
			}
			return err
		}
	}
	return nil
}

// Ensure GormPayoutRequestRepository implements PayoutRequestRepository
var _ settlement.PayoutRequestRepository = (*GormPayoutRequestRepository)(nil)
