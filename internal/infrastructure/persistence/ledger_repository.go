package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/giftbridge/backend/internal/domain/settlement"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerRepository implements settlement.LedgerRepository
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// FindByID finds a ledger entry by ID
func (r *GormLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.LedgerEntry, error) {
	var entry settlement.LedgerEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindAll returns entries matching the filter, newest first, with total count
func (r *GormLedgerRepository) FindAll(ctx context.Context, filter settlement.LedgerFilter) ([]settlement.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&settlement.LedgerEntry{})
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []settlement.LedgerEntry
	if err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// FindSaleByProductionOrder returns the SALE entry for a production order
func (r *GormLedgerRepository) FindSaleByProductionOrder(ctx context.Context, productionOrderID uuid.UUID) (*settlement.LedgerEntry, error) {
	var entry settlement.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("production_order_id = ? AND kind = ?", productionOrderID, settlement.LedgerKindSale).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindUnsettledBySupplier returns UNPAID SALE and ADJUSTMENT entries a payout
// could settle, oldest first
func (r *GormLedgerRepository) FindUnsettledBySupplier(ctx context.Context, supplierID uuid.UUID) ([]settlement.LedgerEntry, error) {
	var entries []settlement.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND status = ? AND kind IN ?",
			supplierID, settlement.LedgerStatusUnpaid,
			[]settlement.LedgerEntryKind{settlement.LedgerKindSale, settlement.LedgerKindAdjustment}).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByPayoutRequest returns entries referencing a payout request
func (r *GormLedgerRepository) FindByPayoutRequest(ctx context.Context, payoutRequestID uuid.UUID) ([]settlement.LedgerEntry, error) {
	var entries []settlement.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("payout_request_id = ?", payoutRequestID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Insert appends a new entry. The unique index on the sale guard column is
// what enforces one SALE per production order under concurrency.
func (r *GormLedgerRepository) Insert(ctx context.Context, entry *settlement.LedgerEntry) error {
	return r.insert(r.db.WithContext(ctx), entry)
}

// InsertTx appends within an existing transaction
func (r *GormLedgerRepository) InsertTx(tx *gorm.DB, entry *settlement.LedgerEntry) error {
	return r.insert(tx, entry)
}

func (r *GormLedgerRepository) insert(db *gorm.DB, entry *settlement.LedgerEntry) error {
	if err := db.Create(entry).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrDuplicateSaleEntry
		}
		return err
	}
	return nil
}

// UpdateStatusTx updates status of the given entries within a transaction.
// PaidAt is stamped when moving to PAID.
func (r *GormLedgerRepository) UpdateStatusTx(tx *gorm.DB, entryIDs []uuid.UUID, status settlement.LedgerEntryStatus, gatewayTag string) error {
	if len(entryIDs) == 0 {
		return nil
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}
	if status == settlement.LedgerStatusPaid {
		updates["paid_at"] = now
	}
	if gatewayTag != "" {
		updates["gateway_tag"] = gatewayTag
	}
	return tx.Model(&settlement.LedgerEntry{}).
		Where("id IN ?", entryIDs).
		Updates(updates).Error
}

// SumBalance sums all non-cancelled entry amounts for a supplier
func (r *GormLedgerRepository) SumBalance(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error) {
	return r.sumBalance(r.db.WithContext(ctx), supplierID)
}

// SumBalanceTx sums within an existing transaction
func (r *GormLedgerRepository) SumBalanceTx(tx *gorm.DB, supplierID uuid.UUID) (decimal.Decimal, error) {
	return r.sumBalance(tx, supplierID)
}

func (r *GormLedgerRepository) sumBalance(db *gorm.DB, supplierID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := db.Model(&settlement.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("supplier_id = ? AND status != ?", supplierID, settlement.LedgerStatusCancelled).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormLedgerRepository implements LedgerRepository
var _ settlement.LedgerRepository = (*GormLedgerRepository)(nil)
