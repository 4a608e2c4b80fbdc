package routing

import (
	"sort"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PlanSplit allocates a quantity no single supplier can cover across the
// top suppliers by ascending unit cost, greedily draining each candidate's
// quantity-on-hand. maxFanOut caps how many suppliers one order line may be
// split across (0 means unlimited). Returns shared.ErrNoSupplierAvailable
// when the admitted candidates cannot jointly cover the quantity.
func PlanSplit(candidates []Candidate, quantity decimal.Decimal, constraints Constraints, maxFanOut int) (*SplitPlan, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if constraints.Admits(c) && c.QuantityOnHand.GreaterThan(decimal.Zero) {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil, shared.ErrNoSupplierAvailable
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if !eligible[i].UnitCost.Equal(eligible[j].UnitCost) {
			return eligible[i].UnitCost.LessThan(eligible[j].UnitCost)
		}
		return eligible[i].LeadTimeDays < eligible[j].LeadTimeDays
	})

	remaining := quantity
	plan := &SplitPlan{Allocations: make([]Allocation, 0, 2), Provisional: true}
	for _, c := range eligible {
		if maxFanOut > 0 && len(plan.Allocations) == maxFanOut {
			break
		}
		take := c.QuantityOnHand
		if take.GreaterThan(remaining) {
			take = remaining
		}
		plan.Allocations = append(plan.Allocations, Allocation{
			SupplierID:   c.SupplierID,
			SupplierCode: c.SupplierCode,
			UnitCost:     c.UnitCost,
			LeadTimeDays: c.LeadTimeDays,
			Quantity:     take,
			Stale:        c.Stale,
		})
		if !c.Stale {
			plan.Provisional = false
		}
		remaining = remaining.Sub(take)
		if remaining.LessThanOrEqual(decimal.Zero) {
			return plan, nil
		}
	}

	// Total inventory across suppliers is insufficient. Reported upward,
	// never silently degraded to a partial fill.
	return nil, shared.ErrNoSupplierAvailable
}
