package routing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Candidate is one supplier's offer for a SKU, assembled by the caller from
// the inventory cache and supplier records. The routing package is pure
// computation over candidates; it performs no I/O.
type Candidate struct {
	SupplierID     uuid.UUID
	SupplierCode   string
	UnitCost       decimal.Decimal
	LeadTimeDays   int
	QuantityOnHand decimal.Decimal
	Reliability    decimal.Decimal // [0,1], from supplier performance history
	SyncedAt       time.Time
	Stale          bool // Snapshot older than the configured freshness window
}

// CanCover returns true if the candidate's quantity-on-hand covers the request
func (c Candidate) CanCover(quantity decimal.Decimal) bool {
	return c.QuantityOnHand.GreaterThanOrEqual(quantity)
}

// Constraints narrow the candidate set for a selection request.
// Nil fields mean unconstrained.
type Constraints struct {
	PreferredSupplierID *uuid.UUID
	MaxLeadTimeDays     *int
	MaxUnitCost         *decimal.Decimal
}

// Admits returns true if the candidate satisfies the hard constraints.
// The preferred-supplier hint is not a hard constraint and is handled
// separately during selection.
func (c Constraints) Admits(candidate Candidate) bool {
	if c.MaxLeadTimeDays != nil && candidate.LeadTimeDays > *c.MaxLeadTimeDays {
		return false
	}
	if c.MaxUnitCost != nil && candidate.UnitCost.GreaterThan(*c.MaxUnitCost) {
		return false
	}
	return true
}

// Selection is the outcome of picking a single supplier for a full quantity
type Selection struct {
	SupplierID   uuid.UUID
	SupplierCode string
	UnitCost     decimal.Decimal
	LeadTimeDays int
	// Provisional is set when every admitted candidate was stale; the
	// resulting production order requires a confirmation sync before work
	// begins.
	Provisional bool
}

// Allocation is one (supplier, sub-quantity) slice of a split plan
type Allocation struct {
	SupplierID   uuid.UUID
	SupplierCode string
	UnitCost     decimal.Decimal
	LeadTimeDays int
	Quantity     decimal.Decimal
	Stale        bool
}

// SplitPlan covers a quantity no single supplier could fill, greedily
// allocated across suppliers by ascending cost
type SplitPlan struct {
	Allocations []Allocation
	Provisional bool
}
