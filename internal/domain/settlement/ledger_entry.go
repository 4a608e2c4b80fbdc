package settlement

import (
	"time"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryKind classifies a ledger entry
type LedgerEntryKind string

const (
	// LedgerKindSale is the debit created when a production order completes
	LedgerKindSale LedgerEntryKind = "SALE"
	// LedgerKindPayout is the hold/credit created by the payout workflow
	LedgerKindPayout LedgerEntryKind = "PAYOUT"
	// LedgerKindRefund reverses a payout hold on rejection
	LedgerKindRefund LedgerEntryKind = "REFUND"
	// LedgerKindAdjustment is a manual operator correction
	LedgerKindAdjustment LedgerEntryKind = "ADJUSTMENT"
)

// LedgerEntryStatus tracks settlement of an entry
type LedgerEntryStatus string

const (
	LedgerStatusUnpaid    LedgerEntryStatus = "UNPAID"
	LedgerStatusPending   LedgerEntryStatus = "PENDING"
	LedgerStatusPaid      LedgerEntryStatus = "PAID"
	LedgerStatusCancelled LedgerEntryStatus = "CANCELLED"
)

// LedgerEntry is an append-only financial fact: money owed to (positive) or
// paid/reversed by (negative) a supplier. After creation only Status and
// PaidAt may change. Production orders and payout requests are referenced by
// identifier, never embedded, so the immutable financial record stays
// decoupled from the mutable operational one.
//
// At most one SALE entry may exist per production order. SaleGuard carries
// the production order ID only for SALE entries and is nil otherwise; the
// unique index on it is the storage-level guarantee under concurrency, with
// the application pre-check giving the friendly error on the common path.
type LedgerEntry struct {
	ID                uuid.UUID         `gorm:"type:uuid;primary_key"`
	SupplierID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	CustomerOrderID   *uuid.UUID        `gorm:"type:uuid;index"`
	ProductionOrderID *uuid.UUID        `gorm:"type:uuid;index"`
	SaleGuard         *uuid.UUID        `gorm:"type:uuid;uniqueIndex:idx_ledger_sale_guard"`
	PayoutRequestID   *uuid.UUID        `gorm:"type:uuid;index"`
	Kind              LedgerEntryKind   `gorm:"type:varchar(20);not null;index"`
	Status            LedgerEntryStatus `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
	Amount            decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Currency          string            `gorm:"type:varchar(3);not null;default:'USD'"`
	Description       string            `gorm:"type:varchar(500)"`
	GatewayTag        string            `gorm:"type:varchar(100)"`
	OperatorID        *uuid.UUID        `gorm:"type:uuid"`
	PaidAt            *time.Time
	CreatedAt         time.Time `gorm:"not null;index"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// NewSaleEntry creates the debit owed to a supplier for a completed
// production order
func NewSaleEntry(supplierID, customerOrderID, productionOrderID uuid.UUID, amount decimal.Decimal) (*LedgerEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Sale amount must be positive")
	}
	now := time.Now()
	poID := productionOrderID
	orderID := customerOrderID
	return &LedgerEntry{
		ID:                uuid.New(),
		SupplierID:        supplierID,
		CustomerOrderID:   &orderID,
		ProductionOrderID: &poID,
		SaleGuard:         &poID,
		Kind:              LedgerKindSale,
		Status:            LedgerStatusUnpaid,
		Amount:            amount,
		Currency:          "USD",
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// NewPayoutEntry creates the negative hold entry posted when a payout
// request is approved
func NewPayoutEntry(supplierID, payoutRequestID uuid.UUID, requestedAmount decimal.Decimal) (*LedgerEntry, error) {
	if requestedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payout amount must be positive")
	}
	now := time.Now()
	prID := payoutRequestID
	return &LedgerEntry{
		ID:              uuid.New(),
		SupplierID:      supplierID,
		PayoutRequestID: &prID,
		Kind:            LedgerKindPayout,
		Status:          LedgerStatusPending,
		Amount:          requestedAmount.Neg(),
		Currency:        "USD",
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// NewRefundEntry reverses a payout hold when the request is rejected
func NewRefundEntry(supplierID, payoutRequestID uuid.UUID, requestedAmount decimal.Decimal, reason string) (*LedgerEntry, error) {
	if requestedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	now := time.Now()
	prID := payoutRequestID
	return &LedgerEntry{
		ID:              uuid.New(),
		SupplierID:      supplierID,
		PayoutRequestID: &prID,
		Kind:            LedgerKindRefund,
		Status:          LedgerStatusPaid,
		Amount:          requestedAmount,
		Currency:        "USD",
		Description:     reason,
		PaidAt:          &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// NewAdjustmentEntry creates a manual operator correction, positive or
// negative but never zero
func NewAdjustmentEntry(supplierID uuid.UUID, amount decimal.Decimal, reason string, operatorID uuid.UUID) (*LedgerEntry, error) {
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Adjustment amount cannot be zero")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Adjustment reason is required")
	}
	now := time.Now()
	opID := operatorID
	return &LedgerEntry{
		ID:          uuid.New(),
		SupplierID:  supplierID,
		Kind:        LedgerKindAdjustment,
		Status:      LedgerStatusUnpaid,
		Amount:      amount,
		Currency:    "USD",
		Description: reason,
		OperatorID:  &opID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// MarkPaid settles the entry
func (e *LedgerEntry) MarkPaid(gatewayTag string) error {
	if e.Status == LedgerStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Ledger entry is already paid")
	}
	if e.Status == LedgerStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot pay a cancelled ledger entry")
	}
	now := time.Now()
	e.Status = LedgerStatusPaid
	e.PaidAt = &now
	if gatewayTag != "" {
		e.GatewayTag = gatewayTag
	}
	e.UpdatedAt = now
	return nil
}

// MarkPending puts the entry on hold pending settlement
func (e *LedgerEntry) MarkPending() error {
	if e.Status != LedgerStatusUnpaid {
		return shared.NewDomainError("INVALID_STATE", "Only unpaid entries can move to pending")
	}
	e.Status = LedgerStatusPending
	e.UpdatedAt = time.Now()
	return nil
}

// Cancel voids the entry; cancelled entries are excluded from balances
func (e *LedgerEntry) Cancel() error {
	if e.Status == LedgerStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel a paid ledger entry")
	}
	e.Status = LedgerStatusCancelled
	e.UpdatedAt = time.Now()
	return nil
}

// CountsTowardBalance reports whether the entry contributes to the
// supplier's net balance
func (e *LedgerEntry) CountsTowardBalance() bool {
	return e.Status != LedgerStatusCancelled
}
