package settlement

import (
	"context"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerFilter narrows ledger queries
type LedgerFilter struct {
	shared.Filter
	SupplierID *uuid.UUID
	Kind       *LedgerEntryKind
	Status     *LedgerEntryStatus
}

// LedgerRepository defines the interface for ledger entry persistence.
// Entries are append-only; updates touch only status, paidAt and the
// gateway tag.
type LedgerRepository interface {
	// FindByID finds a ledger entry by ID
	FindByID(ctx context.Context, id uuid.UUID) (*LedgerEntry, error)

	// FindAll returns entries matching the filter, newest first
	FindAll(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, int64, error)

	// FindSaleByProductionOrder returns the SALE entry for a production
	// order, or shared.ErrNotFound
	FindSaleByProductionOrder(ctx context.Context, productionOrderID uuid.UUID) (*LedgerEntry, error)

	// FindUnsettledBySupplier returns UNPAID SALE/ADJUSTMENT entries a
	// payout could settle, oldest first
	FindUnsettledBySupplier(ctx context.Context, supplierID uuid.UUID) ([]LedgerEntry, error)

	// FindByPayoutRequest returns entries referencing a payout request
	// (the PAYOUT hold and any REFUND)
	FindByPayoutRequest(ctx context.Context, payoutRequestID uuid.UUID) ([]LedgerEntry, error)

	// Insert appends a new entry. A unique-constraint violation on the
	// sale guard is translated to shared.ErrDuplicateSaleEntry.
	Insert(ctx context.Context, entry *LedgerEntry) error

	// InsertTx appends within an existing transaction
	InsertTx(tx *gorm.DB, entry *LedgerEntry) error

	// UpdateStatusTx updates status/paidAt of entries within a transaction
	UpdateStatusTx(tx *gorm.DB, entryIDs []uuid.UUID, status LedgerEntryStatus, gatewayTag string) error

	// SumBalance sums all non-cancelled entry amounts for a supplier
	SumBalance(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error)

	// SumBalanceTx sums within an existing transaction, for the balance
	// re-check at payout approval
	SumBalanceTx(tx *gorm.DB, supplierID uuid.UUID) (decimal.Decimal, error)
}

// PayoutRequestRepository defines the interface for payout persistence
type PayoutRequestRepository interface {
	// FindByID finds a payout request by ID, settled entries preloaded
	FindByID(ctx context.Context, id uuid.UUID) (*PayoutRequest, error)

	// FindBySupplier returns a supplier's payout requests, newest first
	FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]PayoutRequest, error)

	// FindByStatus returns payout requests in a given status
	FindByStatus(ctx context.Context, status PayoutRequestStatus, filter shared.Filter) ([]PayoutRequest, error)

	// Save creates or updates a payout request
	Save(ctx context.Context, request *PayoutRequest) error

	// SaveWithLockTx updates within a transaction using an optimistic
	// version check. Returns shared.ErrConcurrencyConflict when another
	// writer moved the row first.
	SaveWithLockTx(tx *gorm.DB, request *PayoutRequest) error
}
