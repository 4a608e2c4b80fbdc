package fulfillment

import (
	"testing"
	"time"

	"github.com/giftbridge/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLine(t *testing.T) *OrderLine {
	t.Helper()
	price := valueobject.NewMoneyUSD(decimal.NewFromInt(25))
	line, err := NewOrderLine(uuid.New(), "MUG-CORP-01", decimal.NewFromInt(40), price)
	require.NoError(t, err)
	return line
}

func newTestProductionOrder(t *testing.T) *ProductionOrder {
	t.Helper()
	po, err := NewProductionOrder(newTestLine(t), uuid.New(), decimal.NewFromInt(10), 5, false)
	require.NoError(t, err)
	return po
}

// drive walks the order through the happy path up to the given status
func drive(t *testing.T, po *ProductionOrder, target ProductionOrderStatus) {
	t.Helper()
	path := []ProductionOrderStatus{
		ProductionOrderStatusConfirmed,
		ProductionOrderStatusInProduction,
		ProductionOrderStatusQCPending,
		ProductionOrderStatusQCPassed,
		ProductionOrderStatusCompleted,
	}
	for _, status := range path {
		require.NoError(t, po.TransitionTo(status, "test", ""))
		if status == target {
			return
		}
	}
}

func TestNewProductionOrder(t *testing.T) {
	t.Run("creates order in CREATED with cost estimate", func(t *testing.T) {
		line := newTestLine(t)
		supplierID := uuid.New()

		po, err := NewProductionOrder(line, supplierID, decimal.NewFromInt(10), 5, false)

		require.NoError(t, err)
		assert.Equal(t, ProductionOrderStatusCreated, po.Status)
		assert.Equal(t, line.ID, po.OrderLineID)
		assert.Equal(t, line.OrderID, po.CustomerOrderID)
		assert.Equal(t, supplierID, po.SupplierID)
		assert.True(t, po.CostEstimate.Equal(decimal.NewFromInt(400)))
		assert.Equal(t, 5, po.LeadTimeDays)
		assert.False(t, po.Provisional)
		assert.Len(t, po.GetDomainEvents(), 1)
	})

	t.Run("provisional flag survives creation", func(t *testing.T) {
		po, err := NewProductionOrder(newTestLine(t), uuid.New(), decimal.NewFromInt(10), 5, true)

		require.NoError(t, err)
		assert.True(t, po.Provisional)
	})

	t.Run("rejects nil line", func(t *testing.T) {
		po, err := NewProductionOrder(nil, uuid.New(), decimal.NewFromInt(10), 5, false)

		assert.Nil(t, po)
		assert.Error(t, err)
	})
}

func TestProductionOrder_TransitionTo(t *testing.T) {
	t.Run("happy path reaches COMPLETED", func(t *testing.T) {
		po := newTestProductionOrder(t)

		drive(t, po, ProductionOrderStatusCompleted)

		assert.Equal(t, ProductionOrderStatusCompleted, po.Status)
		assert.NotNil(t, po.ConfirmedAt)
		assert.NotNil(t, po.CompletedAt)
		assert.Len(t, po.Transitions, 5)
	})

	t.Run("illegal transition is rejected and leaves the order unchanged", func(t *testing.T) {
		po := newTestProductionOrder(t)
		drive(t, po, ProductionOrderStatusCompleted)
		before := po.Status

		err := po.TransitionTo(ProductionOrderStatusInProduction, "test", "")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Cannot transition")
		assert.Equal(t, before, po.Status)
	})

	t.Run("skipping states is rejected", func(t *testing.T) {
		po := newTestProductionOrder(t)

		err := po.TransitionTo(ProductionOrderStatusQCPending, "test", "")

		assert.Error(t, err)
		assert.Equal(t, ProductionOrderStatusCreated, po.Status)
	})

	t.Run("cancellation reachable from any non-terminal state", func(t *testing.T) {
		po := newTestProductionOrder(t)
		drive(t, po, ProductionOrderStatusInProduction)

		require.NoError(t, po.TransitionTo(ProductionOrderStatusCancelled, "operator-1", "customer withdrew"))

		assert.Equal(t, ProductionOrderStatusCancelled, po.Status)
		assert.NotNil(t, po.CancelledAt)
	})

	t.Run("cancellation of a terminal order is rejected", func(t *testing.T) {
		po := newTestProductionOrder(t)
		drive(t, po, ProductionOrderStatusCompleted)

		assert.Error(t, po.TransitionTo(ProductionOrderStatusCancelled, "test", ""))
	})

	t.Run("transition log records actor and notes", func(t *testing.T) {
		po := newTestProductionOrder(t)

		require.NoError(t, po.TransitionTo(ProductionOrderStatusConfirmed, "operator-7", "rush order"))

		require.Len(t, po.Transitions, 1)
		assert.Equal(t, ProductionOrderStatusCreated, po.Transitions[0].FromStatus)
		assert.Equal(t, ProductionOrderStatusConfirmed, po.Transitions[0].ToStatus)
		assert.Equal(t, "operator-7", po.Transitions[0].Actor)
		assert.Equal(t, "rush order", po.Transitions[0].Notes)
	})

	t.Run("blank actor defaults to system", func(t *testing.T) {
		po := newTestProductionOrder(t)

		require.NoError(t, po.TransitionTo(ProductionOrderStatusConfirmed, "", ""))

		assert.Equal(t, "system", po.Transitions[0].Actor)
	})
}

func TestProductionOrder_Confirm(t *testing.T) {
	t.Run("provisional order cannot be confirmed before a sync", func(t *testing.T) {
		po, err := NewProductionOrder(newTestLine(t), uuid.New(), decimal.NewFromInt(10), 5, true)
		require.NoError(t, err)

		err = po.Confirm("operator-1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "stale inventory")
		assert.Equal(t, ProductionOrderStatusCreated, po.Status)
	})

	t.Run("confirmation sync clears provisional and unblocks confirm", func(t *testing.T) {
		po, err := NewProductionOrder(newTestLine(t), uuid.New(), decimal.NewFromInt(10), 5, true)
		require.NoError(t, err)

		po.ConfirmRouting()

		require.NoError(t, po.Confirm("operator-1"))
		assert.Equal(t, ProductionOrderStatusConfirmed, po.Status)
	})
}

func TestProductionOrder_RecordQCResult(t *testing.T) {
	const maxRework = 3

	t.Run("pass moves to QC_PASSED", func(t *testing.T) {
		po := newTestProductionOrder(t)
		drive(t, po, ProductionOrderStatusQCPending)

		require.NoError(t, po.RecordQCResult(true, "all good", "qc-station-2", maxRework))

		assert.Equal(t, ProductionOrderStatusQCPassed, po.Status)
		assert.Equal(t, "all good", po.QCNotes)
	})

	t.Run("failure within budget goes back to rework", func(t *testing.T) {
		po := newTestProductionOrder(t)
		drive(t, po, ProductionOrderStatusQCPending)

		require.NoError(t, po.RecordQCResult(false, "misprint", "qc-station-2", maxRework))

		assert.Equal(t, ProductionOrderStatusInProduction, po.Status)
		assert.Equal(t, 1, po.ReworkCount)
		assert.False(t, po.Escalated)
	})

	t.Run("exhausting the rework budget forces FAILED and escalates", func(t *testing.T) {
		po := newTestProductionOrder(t)
		drive(t, po, ProductionOrderStatusQCPending)

		for i := 0; i < maxRework; i++ {
			require.NoError(t, po.RecordQCResult(false, "misprint", "qc", maxRework))
			require.Equal(t, ProductionOrderStatusInProduction, po.Status)
			require.NoError(t, po.TransitionTo(ProductionOrderStatusQCPending, "supplier", ""))
		}

		require.NoError(t, po.RecordQCResult(false, "misprint again", "qc", maxRework))

		assert.Equal(t, ProductionOrderStatusFailed, po.Status)
		assert.Equal(t, maxRework, po.ReworkCount)
		assert.True(t, po.Escalated)
		assert.Contains(t, po.EscalationReason, "rework limit")
	})

	t.Run("QC result outside QC_PENDING is rejected", func(t *testing.T) {
		po := newTestProductionOrder(t)

		assert.Error(t, po.RecordQCResult(true, "", "qc", maxRework))
	})
}

func TestProductionOrder_Costs(t *testing.T) {
	t.Run("amount owed falls back to the estimate", func(t *testing.T) {
		po := newTestProductionOrder(t)

		assert.True(t, po.AmountOwed().Equal(decimal.NewFromInt(400)))
	})

	t.Run("actual cost takes precedence", func(t *testing.T) {
		po := newTestProductionOrder(t)
		require.NoError(t, po.RecordActualCost(decimal.NewFromInt(385)))

		assert.True(t, po.AmountOwed().Equal(decimal.NewFromInt(385)))
	})

	t.Run("cost cannot be recorded on a terminal order", func(t *testing.T) {
		po := newTestProductionOrder(t)
		drive(t, po, ProductionOrderStatusCompleted)

		assert.Error(t, po.RecordActualCost(decimal.NewFromInt(385)))
	})
}

func TestProductionOrder_Kitting(t *testing.T) {
	t.Run("checklist only attaches after QC pass", func(t *testing.T) {
		po := newTestProductionOrder(t)

		_, err := po.AddKittingItem("gift box", "BC-001")

		assert.Error(t, err)
	})

	t.Run("order without checklist is ready to ship when completed", func(t *testing.T) {
		po := newTestProductionOrder(t)
		drive(t, po, ProductionOrderStatusCompleted)

		assert.True(t, po.ReadyToShip())
	})

	t.Run("unscanned checklist gates ready-to-ship", func(t *testing.T) {
		po := newTestProductionOrder(t)
		drive(t, po, ProductionOrderStatusQCPassed)

		item1, err := po.AddKittingItem("gift box", "BC-001")
		require.NoError(t, err)
		item2, err := po.AddKittingItem("ribbon + card", "BC-002")
		require.NoError(t, err)

		require.NoError(t, po.TransitionTo(ProductionOrderStatusCompleted, "supplier", ""))
		assert.False(t, po.ReadyToShip())

		require.NoError(t, po.ScanKittingItem(item1.ID, "packer-3"))
		assert.False(t, po.ReadyToShip())

		require.NoError(t, po.ScanKittingItem(item2.ID, "packer-3"))
		assert.True(t, po.ReadyToShip())
	})

	t.Run("double scan is rejected", func(t *testing.T) {
		po := newTestProductionOrder(t)
		drive(t, po, ProductionOrderStatusQCPassed)
		item, err := po.AddKittingItem("gift box", "BC-001")
		require.NoError(t, err)

		require.NoError(t, po.ScanKittingItem(item.ID, "packer-3"))
		assert.Error(t, po.ScanKittingItem(item.ID, "packer-3"))
	})

	t.Run("scanning an unknown item fails", func(t *testing.T) {
		po := newTestProductionOrder(t)
		drive(t, po, ProductionOrderStatusQCPassed)

		assert.Error(t, po.ScanKittingItem(uuid.New(), "packer-3"))
	})
}

func TestProductionOrder_IsStuck(t *testing.T) {
	sla := 48 * time.Hour

	t.Run("fresh confirmed order is not stuck", func(t *testing.T) {
		po := newTestProductionOrder(t)
		drive(t, po, ProductionOrderStatusConfirmed)

		assert.False(t, po.IsStuck(sla, time.Now()))
	})

	t.Run("confirmed order past the SLA is stuck", func(t *testing.T) {
		po := newTestProductionOrder(t)
		drive(t, po, ProductionOrderStatusConfirmed)

		assert.True(t, po.IsStuck(sla, time.Now().Add(72*time.Hour)))
	})

	t.Run("terminal orders are never stuck", func(t *testing.T) {
		po := newTestProductionOrder(t)
		drive(t, po, ProductionOrderStatusCompleted)

		assert.False(t, po.IsStuck(sla, time.Now().Add(72*time.Hour)))
	})
}
