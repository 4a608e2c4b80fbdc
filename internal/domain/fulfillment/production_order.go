package fulfillment

import (
	"fmt"
	"time"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductionOrderStatus represents the status of a production order
type ProductionOrderStatus string

const (
	ProductionOrderStatusCreated      ProductionOrderStatus = "CREATED"
	ProductionOrderStatusConfirmed    ProductionOrderStatus = "CONFIRMED"
	ProductionOrderStatusInProduction ProductionOrderStatus = "IN_PRODUCTION"
	ProductionOrderStatusQCPending    ProductionOrderStatus = "QC_PENDING"
	ProductionOrderStatusQCPassed     ProductionOrderStatus = "QC_PASSED"
	ProductionOrderStatusQCFailed     ProductionOrderStatus = "QC_FAILED"
	ProductionOrderStatusCompleted    ProductionOrderStatus = "COMPLETED"
	ProductionOrderStatusCancelled    ProductionOrderStatus = "CANCELLED"
	ProductionOrderStatusFailed       ProductionOrderStatus = "FAILED"
)

// IsValid checks if the status is a valid ProductionOrderStatus
func (s ProductionOrderStatus) IsValid() bool {
	switch s {
	case ProductionOrderStatusCreated, ProductionOrderStatusConfirmed,
		ProductionOrderStatusInProduction, ProductionOrderStatusQCPending,
		ProductionOrderStatusQCPassed, ProductionOrderStatusQCFailed,
		ProductionOrderStatusCompleted, ProductionOrderStatusCancelled,
		ProductionOrderStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of ProductionOrderStatus
func (s ProductionOrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for states that admit no further transitions
func (s ProductionOrderStatus) IsTerminal() bool {
	switch s {
	case ProductionOrderStatusCompleted, ProductionOrderStatusCancelled, ProductionOrderStatusFailed:
		return true
	}
	return false
}

// legalTransitions is the single allow-list for production order transitions.
// Illegal moves are rejected, never clamped. CANCELLED is reachable from any
// non-terminal state and is handled separately in CanTransitionTo.
var legalTransitions = map[ProductionOrderStatus][]ProductionOrderStatus{
	ProductionOrderStatusCreated:      {ProductionOrderStatusConfirmed},
	ProductionOrderStatusConfirmed:    {ProductionOrderStatusInProduction},
	ProductionOrderStatusInProduction: {ProductionOrderStatusQCPending, ProductionOrderStatusFailed},
	ProductionOrderStatusQCPending:    {ProductionOrderStatusQCPassed, ProductionOrderStatusQCFailed},
	ProductionOrderStatusQCPassed:     {ProductionOrderStatusCompleted},
	ProductionOrderStatusQCFailed:     {ProductionOrderStatusInProduction, ProductionOrderStatusFailed},
}

// CanTransitionTo checks if the status can transition to the target status
func (s ProductionOrderStatus) CanTransitionTo(target ProductionOrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == ProductionOrderStatusCancelled {
		return true
	}
	for _, allowed := range legalTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// StatusTransition records one applied transition: who, when, and why
type StatusTransition struct {
	ID                uuid.UUID             `gorm:"type:uuid;primary_key"`
	ProductionOrderID uuid.UUID             `gorm:"type:uuid;not null;index"`
	FromStatus        ProductionOrderStatus `gorm:"type:varchar(20);not null"`
	ToStatus          ProductionOrderStatus `gorm:"type:varchar(20);not null"`
	Actor             string                `gorm:"type:varchar(100);not null"` // Operator ID or "system"
	Notes             string                `gorm:"type:varchar(500)"`
	OccurredAt        time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StatusTransition) TableName() string {
	return "production_order_transitions"
}

// ProductionOrder is the unit of work routed to exactly one supplier for
// exactly one (sub-)line. It owns the QC/kitting lifecycle and is the source
// of the SALE ledger entry posted on completion. Orders are never deleted;
// cancellation is a terminal soft state.
type ProductionOrder struct {
	shared.BaseAggregateRoot
	OrderLineID     uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_production_order_line"`
	CustomerOrderID uuid.UUID             `gorm:"type:uuid;not null;index"`
	SupplierID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	SKU             string                `gorm:"type:varchar(100);not null"`
	Quantity        decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status          ProductionOrderStatus `gorm:"type:varchar(20);not null;default:'CREATED';index"`
	CostEstimate    decimal.Decimal       `gorm:"type:decimal(18,4);not null"` // quantity * snapshot unit cost at route time
	ActualCost      *decimal.Decimal      `gorm:"type:decimal(18,4)"`          // supplier-reported, set during production
	LeadTimeDays    int                   `gorm:"not null;default:0"`
	// Provisional is set when routing selected from stale snapshots only;
	// a confirmation sync must clear it before production starts.
	Provisional  bool       `gorm:"not null;default:false"`
	Escalated    bool       `gorm:"not null;default:false;index"`
	EscalationReason string `gorm:"type:varchar(500)"`
	ReworkCount  int        `gorm:"not null;default:0"`
	QCNotes      string     `gorm:"type:varchar(500)"`
	Transitions  []StatusTransition `gorm:"foreignKey:ProductionOrderID;references:ID"`
	KittingItems []KittingItem      `gorm:"foreignKey:ProductionOrderID;references:ID"`
	ConfirmedAt  *time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
}

// TableName returns the table name for GORM
func (ProductionOrder) TableName() string {
	return "production_orders"
}

// NewProductionOrder creates a production order for a routed (sub-)line
func NewProductionOrder(line *OrderLine, supplierID uuid.UUID, unitCost decimal.Decimal, leadTimeDays int, provisional bool) (*ProductionOrder, error) {
	if line == nil {
		return nil, shared.NewDomainError("INVALID_LINE", "Order line is required")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	po := &ProductionOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderLineID:       line.ID,
		CustomerOrderID:   line.OrderID,
		SupplierID:        supplierID,
		SKU:               line.SKU,
		Quantity:          line.Quantity,
		Status:            ProductionOrderStatusCreated,
		CostEstimate:      line.Quantity.Mul(unitCost).Round(4),
		LeadTimeDays:      leadTimeDays,
		Provisional:       provisional,
		Transitions:       make([]StatusTransition, 0),
		KittingItems:      make([]KittingItem, 0),
	}

	po.AddDomainEvent(NewProductionOrderCreatedEvent(po))

	return po, nil
}

// TransitionTo applies a status transition after validating it against the
// allow-list. Rework bookkeeping, timestamps and the transition log are all
// recorded here so no caller can skip them.
func (p *ProductionOrder) TransitionTo(target ProductionOrderStatus, actor, notes string) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown status %q", target))
	}
	if !p.Status.CanTransitionTo(target) {
		return shared.NewDomainError("ILLEGAL_TRANSITION",
			fmt.Sprintf("Cannot transition production order from %s to %s", p.Status, target))
	}
	if actor == "" {
		actor = "system"
	}

	now := time.Now()
	from := p.Status

	p.Transitions = append(p.Transitions, StatusTransition{
		ID:                uuid.New(),
		ProductionOrderID: p.ID,
		FromStatus:        from,
		ToStatus:          target,
		Actor:             actor,
		Notes:             notes,
		OccurredAt:        now,
	})

	p.Status = target
	switch target {
	case ProductionOrderStatusConfirmed:
		p.ConfirmedAt = &now
	case ProductionOrderStatusCompleted:
		p.CompletedAt = &now
	case ProductionOrderStatusCancelled:
		p.CancelledAt = &now
	case ProductionOrderStatusInProduction:
		if from == ProductionOrderStatusQCFailed {
			p.ReworkCount++
		}
	}
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewProductionOrderTransitionedEvent(p, from, target, actor))

	return nil
}

// Confirm moves the order to CONFIRMED. A provisional order must have its
// routing confirmed by a fresh inventory sync first.
func (p *ProductionOrder) Confirm(actor string) error {
	if p.Provisional {
		return shared.NewDomainError("PROVISIONAL_ROUTING",
			"Production order was routed from stale inventory and requires a confirmation sync")
	}
	return p.TransitionTo(ProductionOrderStatusConfirmed, actor, "")
}

// ConfirmRouting clears the provisional flag after a fresh sync verified the
// selected supplier can still cover the quantity
func (p *ProductionOrder) ConfirmRouting() {
	if !p.Provisional {
		return
	}
	p.Provisional = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// RecordQCResult applies a quality-control outcome to a QC_PENDING order.
// A failure beyond maxRework forces the order to FAILED and escalates it.
func (p *ProductionOrder) RecordQCResult(passed bool, notes, actor string, maxRework int) error {
	if p.Status != ProductionOrderStatusQCPending {
		return shared.NewDomainError("ILLEGAL_TRANSITION",
			fmt.Sprintf("Cannot record QC result in %s status", p.Status))
	}
	p.QCNotes = notes

	if passed {
		return p.TransitionTo(ProductionOrderStatusQCPassed, actor, notes)
	}

	if err := p.TransitionTo(ProductionOrderStatusQCFailed, actor, notes); err != nil {
		return err
	}
	if p.ReworkCount >= maxRework {
		// Rework budget exhausted; surface for operator attention instead of looping.
		if err := p.TransitionTo(ProductionOrderStatusFailed, "system",
			fmt.Sprintf("QC failed after %d rework attempts", p.ReworkCount)); err != nil {
			return err
		}
		p.Escalate(fmt.Sprintf("QC rework limit (%d) exceeded", maxRework))
		return nil
	}
	return p.TransitionTo(ProductionOrderStatusInProduction, "system", "rework")
}

// RecordActualCost records the supplier-reported cost of the work
func (p *ProductionOrder) RecordActualCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Actual cost cannot be negative")
	}
	if p.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot record cost on a terminal production order")
	}
	p.ActualCost = &cost
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// AmountOwed is the amount owed to the supplier for this order:
// actual cost, falling back to the estimate when actual is unset
func (p *ProductionOrder) AmountOwed() decimal.Decimal {
	if p.ActualCost != nil {
		return *p.ActualCost
	}
	return p.CostEstimate
}

// Escalate flags the order for operator attention
func (p *ProductionOrder) Escalate(reason string) {
	p.Escalated = true
	p.EscalationReason = reason
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	p.AddDomainEvent(NewProductionOrderEscalatedEvent(p, reason))
}

// ClearEscalation removes the escalation flag after operator action
func (p *ProductionOrder) ClearEscalation() {
	p.Escalated = false
	p.EscalationReason = ""
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// IsStuck reports whether the order has sat in CONFIRMED or IN_PRODUCTION
// past the given SLA. Stuck orders are escalated, never auto-cancelled:
// supplier-side production cannot be safely aborted from here.
func (p *ProductionOrder) IsStuck(sla time.Duration, now time.Time) bool {
	switch p.Status {
	case ProductionOrderStatusConfirmed, ProductionOrderStatusInProduction:
		return now.Sub(p.UpdatedAt) > sla
	}
	return false
}

// IsCompleted returns true if the order reached COMPLETED
func (p *ProductionOrder) IsCompleted() bool {
	return p.Status == ProductionOrderStatusCompleted
}

// ReadyToShip returns true when the order is completed and its kitting
// checklist (if any) is fully scanned
func (p *ProductionOrder) ReadyToShip() bool {
	return p.IsCompleted() && p.KittingComplete()
}
