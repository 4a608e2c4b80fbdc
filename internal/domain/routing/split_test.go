package routing

import (
	"testing"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanSplit(t *testing.T) {
	t.Run("splits quantity across two suppliers by ascending cost", func(t *testing.T) {
		a := candidate("A", 100, 3, 50)
		b := candidate("B", 90, 7, 50)

		plan, err := PlanSplit([]Candidate{a, b}, decimal.NewFromInt(80), Constraints{}, 0)

		require.NoError(t, err)
		require.Len(t, plan.Allocations, 2)
		assert.Equal(t, "B", plan.Allocations[0].SupplierCode)
		assert.True(t, plan.Allocations[0].Quantity.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, "A", plan.Allocations[1].SupplierCode)
		assert.True(t, plan.Allocations[1].Quantity.Equal(decimal.NewFromInt(30)))

		total := decimal.Zero
		for _, alloc := range plan.Allocations {
			total = total.Add(alloc.Quantity)
		}
		assert.True(t, total.Equal(decimal.NewFromInt(80)))
		assert.False(t, plan.Provisional)
	})

	t.Run("fails when total inventory is insufficient", func(t *testing.T) {
		a := candidate("A", 100, 3, 30)
		b := candidate("B", 90, 7, 30)

		plan, err := PlanSplit([]Candidate{a, b}, decimal.NewFromInt(80), Constraints{}, 0)

		assert.Nil(t, plan)
		assert.Equal(t, shared.ErrNoSupplierAvailable, err)
	})

	t.Run("fan-out cap limits supplier count", func(t *testing.T) {
		a := candidate("A", 100, 3, 30)
		b := candidate("B", 90, 7, 30)
		c := candidate("C", 110, 4, 30)

		plan, err := PlanSplit([]Candidate{a, b, c}, decimal.NewFromInt(80), Constraints{}, 2)

		assert.Nil(t, plan)
		assert.Equal(t, shared.ErrNoSupplierAvailable, err)
	})

	t.Run("single supplier absorbs the whole quantity", func(t *testing.T) {
		a := candidate("A", 100, 3, 100)

		plan, err := PlanSplit([]Candidate{a}, decimal.NewFromInt(80), Constraints{}, 0)

		require.NoError(t, err)
		require.Len(t, plan.Allocations, 1)
		assert.True(t, plan.Allocations[0].Quantity.Equal(decimal.NewFromInt(80)))
	})

	t.Run("constraints filter candidates before allocation", func(t *testing.T) {
		a := candidate("A", 100, 3, 50)
		b := candidate("B", 90, 7, 50)
		maxLead := 5

		plan, err := PlanSplit([]Candidate{a, b}, decimal.NewFromInt(40), Constraints{MaxLeadTimeDays: &maxLead}, 0)

		require.NoError(t, err)
		require.Len(t, plan.Allocations, 1)
		assert.Equal(t, "A", plan.Allocations[0].SupplierCode)
	})

	t.Run("all-stale allocations mark the plan provisional", func(t *testing.T) {
		a := candidate("A", 100, 3, 50)
		b := candidate("B", 90, 7, 50)
		a.Stale = true
		b.Stale = true

		plan, err := PlanSplit([]Candidate{a, b}, decimal.NewFromInt(80), Constraints{}, 0)

		require.NoError(t, err)
		assert.True(t, plan.Provisional)
	})

	t.Run("candidates with zero stock are skipped", func(t *testing.T) {
		empty := candidate("A", 80, 3, 0)
		b := candidate("B", 90, 7, 100)

		plan, err := PlanSplit([]Candidate{empty, b}, decimal.NewFromInt(50), Constraints{}, 0)

		require.NoError(t, err)
		require.Len(t, plan.Allocations, 1)
		assert.Equal(t, "B", plan.Allocations[0].SupplierCode)
	})
}
