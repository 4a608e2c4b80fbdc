package settlement

import (
	"time"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutRequestStatus is the payout workflow state
type PayoutRequestStatus string

const (
	PayoutStatusPending    PayoutRequestStatus = "PENDING"
	PayoutStatusProcessing PayoutRequestStatus = "PROCESSING"
	PayoutStatusPaid       PayoutRequestStatus = "PAID"
	PayoutStatusRejected   PayoutRequestStatus = "REJECTED"
)

var payoutTransitions = map[PayoutRequestStatus][]PayoutRequestStatus{
	PayoutStatusPending:    {PayoutStatusProcessing, PayoutStatusRejected},
	PayoutStatusProcessing: {PayoutStatusPaid, PayoutStatusRejected},
	PayoutStatusPaid:       {},
	PayoutStatusRejected:   {},
}

// CanTransitionTo checks the payout allow-list
func (s PayoutRequestStatus) CanTransitionTo(target PayoutRequestStatus) bool {
	for _, allowed := range payoutTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions
func (s PayoutRequestStatus) IsTerminal() bool {
	return len(payoutTransitions[s]) == 0
}

// SettledEntry links a payout request to one ledger entry it settles
type SettledEntry struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	PayoutRequestID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_payout_settled_entry,priority:1"`
	LedgerEntryID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_payout_settled_entry,priority:2"`
	CreatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SettledEntry) TableName() string {
	return "payout_request_entries"
}

// PayoutRequest is a supplier's claim against their accumulated ledger
// balance. Immutable once PAID or REJECTED. Concurrency control is the
// aggregate Version column: approve/confirm/reject all save through an
// optimistic version check so two racing operators cannot both succeed.
type PayoutRequest struct {
	shared.BaseAggregateRoot
	SupplierID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	RequestedAmount decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Currency        string              `gorm:"type:varchar(3);not null;default:'USD'"`
	Status          PayoutRequestStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	SettledEntries  []SettledEntry      `gorm:"foreignKey:PayoutRequestID;references:ID"`
	RejectionReason string              `gorm:"type:varchar(500)"`
	ProofReference  string              `gorm:"type:varchar(200)"` // Payment gateway / bank transfer reference from confirm
	ApprovedBy      *uuid.UUID          `gorm:"type:uuid"`
	RejectedBy      *uuid.UUID          `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	PaidAt          *time.Time
	RejectedAt      *time.Time
}

// TableName returns the table name for GORM
func (PayoutRequest) TableName() string {
	return "payout_requests"
}

// NewPayoutRequest creates a pending payout request
func NewPayoutRequest(supplierID uuid.UUID, requestedAmount decimal.Decimal) (*PayoutRequest, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if requestedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Requested amount must be positive")
	}

	request := &PayoutRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SupplierID:        supplierID,
		RequestedAmount:   requestedAmount,
		Currency:          "USD",
		Status:            PayoutStatusPending,
		SettledEntries:    make([]SettledEntry, 0),
	}
	request.AddDomainEvent(NewPayoutRequestedEvent(request))
	return request, nil
}

// Approve moves PENDING to PROCESSING. The caller re-checks the supplier
// balance and posts the hold entry in the same transaction; this method
// only records the state change.
func (p *PayoutRequest) Approve(operatorID uuid.UUID, settles []uuid.UUID) error {
	if !p.Status.CanTransitionTo(PayoutStatusProcessing) {
		return shared.ErrIllegalTransition
	}
	now := time.Now()
	p.Status = PayoutStatusProcessing
	p.ApprovedBy = &operatorID
	p.ApprovedAt = &now
	for _, entryID := range settles {
		p.SettledEntries = append(p.SettledEntries, SettledEntry{
			ID:              uuid.New(),
			PayoutRequestID: p.ID,
			LedgerEntryID:   entryID,
			CreatedAt:       now,
		})
	}
	p.UpdatedAt = now
	p.IncrementVersion()
	p.AddDomainEvent(NewPayoutApprovedEvent(p, operatorID))
	return nil
}

// Confirm moves PROCESSING to PAID and records the payment proof
func (p *PayoutRequest) Confirm(proofReference string) error {
	if !p.Status.CanTransitionTo(PayoutStatusPaid) {
		return shared.ErrIllegalTransition
	}
	if proofReference == "" {
		return shared.NewDomainError("INVALID_PROOF", "Payment proof reference is required")
	}
	now := time.Now()
	p.Status = PayoutStatusPaid
	p.ProofReference = proofReference
	p.PaidAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	p.AddDomainEvent(NewPayoutPaidEvent(p))
	return nil
}

// Reject moves PENDING or PROCESSING to REJECTED with a reason
func (p *PayoutRequest) Reject(reason string, operatorID uuid.UUID) error {
	if !p.Status.CanTransitionTo(PayoutStatusRejected) {
		return shared.ErrIllegalTransition
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Rejection reason is required")
	}
	now := time.Now()
	wasProcessing := p.Status == PayoutStatusProcessing
	p.Status = PayoutStatusRejected
	p.RejectionReason = reason
	p.RejectedBy = &operatorID
	p.RejectedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	p.AddDomainEvent(NewPayoutRejectedEvent(p, reason, wasProcessing))
	return nil
}

// HeldSinceApproval reports whether a balance hold exists for this request.
// Only an approved (PROCESSING) request has posted the hold entry, so only
// its rejection needs a reversing REFUND.
func (p *PayoutRequest) HeldSinceApproval() bool {
	return p.ApprovedAt != nil
}

// SettledEntryIDs returns the ledger entry IDs this request settles
func (p *PayoutRequest) SettledEntryIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.SettledEntries))
	for _, entry := range p.SettledEntries {
		ids = append(ids, entry.LedgerEntryID)
	}
	return ids
}
