package settlement

import (
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants for the settlement context
const (
	EventTypeSalePosted       = "settlement.ledger.sale_posted"
	EventTypeAdjustmentPosted = "settlement.ledger.adjustment_posted"
	EventTypePayoutRequested  = "settlement.payout.requested"
	EventTypePayoutApproved   = "settlement.payout.approved"
	EventTypePayoutPaid       = "settlement.payout.paid"
	EventTypePayoutRejected   = "settlement.payout.rejected"
)

// SalePostedEvent is raised when a SALE entry is appended to the ledger
type SalePostedEvent struct {
	shared.BaseDomainEvent
	SupplierID        uuid.UUID       `json:"supplier_id"`
	ProductionOrderID uuid.UUID       `json:"production_order_id"`
	Amount            decimal.Decimal `json:"amount"`
}

// NewSalePostedEvent creates a new SalePostedEvent
func NewSalePostedEvent(entry *LedgerEntry) *SalePostedEvent {
	event := &SalePostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalePosted, "LedgerEntry", entry.ID),
		SupplierID:      entry.SupplierID,
		Amount:          entry.Amount,
	}
	if entry.ProductionOrderID != nil {
		event.ProductionOrderID = *entry.ProductionOrderID
	}
	return event
}

// AdjustmentPostedEvent is raised on a manual operator correction
type AdjustmentPostedEvent struct {
	shared.BaseDomainEvent
	SupplierID uuid.UUID       `json:"supplier_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
}

// NewAdjustmentPostedEvent creates a new AdjustmentPostedEvent
func NewAdjustmentPostedEvent(entry *LedgerEntry) *AdjustmentPostedEvent {
	return &AdjustmentPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAdjustmentPosted, "LedgerEntry", entry.ID),
		SupplierID:      entry.SupplierID,
		Amount:          entry.Amount,
		Reason:          entry.Description,
	}
}

// PayoutRequestedEvent is raised when a supplier files a payout claim
type PayoutRequestedEvent struct {
	shared.BaseDomainEvent
	SupplierID uuid.UUID       `json:"supplier_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// NewPayoutRequestedEvent creates a new PayoutRequestedEvent
func NewPayoutRequestedEvent(p *PayoutRequest) *PayoutRequestedEvent {
	return &PayoutRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayoutRequested, "PayoutRequest", p.ID),
		SupplierID:      p.SupplierID,
		Amount:          p.RequestedAmount,
	}
}

// PayoutApprovedEvent is raised when an operator approves a payout
type PayoutApprovedEvent struct {
	shared.BaseDomainEvent
	SupplierID uuid.UUID       `json:"supplier_id"`
	Amount     decimal.Decimal `json:"amount"`
	ApprovedBy uuid.UUID       `json:"approved_by"`
}

// NewPayoutApprovedEvent creates a new PayoutApprovedEvent
func NewPayoutApprovedEvent(p *PayoutRequest, operatorID uuid.UUID) *PayoutApprovedEvent {
	return &PayoutApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayoutApproved, "PayoutRequest", p.ID),
		SupplierID:      p.SupplierID,
		Amount:          p.RequestedAmount,
		ApprovedBy:      operatorID,
	}
}

// PayoutPaidEvent is raised when a payout is confirmed paid
type PayoutPaidEvent struct {
	shared.BaseDomainEvent
	SupplierID     uuid.UUID       `json:"supplier_id"`
	Amount         decimal.Decimal `json:"amount"`
	ProofReference string          `json:"proof_reference"`
}

// NewPayoutPaidEvent creates a new PayoutPaidEvent
func NewPayoutPaidEvent(p *PayoutRequest) *PayoutPaidEvent {
	return &PayoutPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayoutPaid, "PayoutRequest", p.ID),
		SupplierID:      p.SupplierID,
		Amount:          p.RequestedAmount,
		ProofReference:  p.ProofReference,
	}
}

// PayoutRejectedEvent is raised when a payout is rejected
type PayoutRejectedEvent struct {
	shared.BaseDomainEvent
	SupplierID    uuid.UUID       `json:"supplier_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
	HoldReversed  bool            `json:"hold_reversed"`
}

// NewPayoutRejectedEvent creates a new PayoutRejectedEvent
func NewPayoutRejectedEvent(p *PayoutRequest, reason string, holdReversed bool) *PayoutRejectedEvent {
	return &PayoutRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayoutRejected, "PayoutRequest", p.ID),
		SupplierID:      p.SupplierID,
		Amount:          p.RequestedAmount,
		Reason:          reason,
		HoldReversed:    holdReversed,
	}
}
