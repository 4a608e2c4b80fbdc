package fulfillment

import (
	"context"
	"testing"
	"time"

	"github.com/giftbridge/backend/internal/domain/fulfillment"
	"github.com/giftbridge/backend/internal/domain/settlement"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/shared/valueobject"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/giftbridge/backend/internal/infrastructure/config"
	"github.com/giftbridge/backend/internal/infrastructure/persistence"
	"github.com/giftbridge/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type gormTxManager struct {
	db *gorm.DB
}

func (m gormTxManager) Transaction(fn func(tx *gorm.DB) error) error {
	return m.db.Transaction(fn)
}

type fulfillmentFixture struct {
	db           *gorm.DB
	orderRepo    fulfillment.CustomerOrderRepository
	poRepo       fulfillment.ProductionOrderRepository
	ledgerRepo   settlement.LedgerRepository
	snapshotRepo supply.InventorySnapshotRepository
	production   *ProductionService
	orders       *OrderService
	supplierID   uuid.UUID
}

func setupFulfillmentFixture(t *testing.T) *fulfillmentFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&supply.InventorySnapshot{},
		&fulfillment.CustomerOrder{},
		&fulfillment.OrderLine{},
		&fulfillment.ProductionOrder{},
		&fulfillment.StatusTransition{},
		&fulfillment.KittingItem{},
		&settlement.LedgerEntry{},
	))

	orderRepo := persistence.NewGormCustomerOrderRepository(db)
	poRepo := persistence.NewGormProductionOrderRepository(db)
	ledgerRepo := persistence.NewGormLedgerRepository(db)
	snapshotRepo := persistence.NewGormInventorySnapshotRepository(db)

	metrics, err := telemetry.NewBusinessMetrics()
	require.NoError(t, err)

	cfg := config.FulfillmentConfig{MaxQCRework: 1, ProductionSLA: 72 * time.Hour}
	txm := gormTxManager{db: db}

	return &fulfillmentFixture{
		db:           db,
		orderRepo:    orderRepo,
		poRepo:       poRepo,
		ledgerRepo:   ledgerRepo,
		snapshotRepo: snapshotRepo,
		production:   NewProductionService(poRepo, ledgerRepo, snapshotRepo, txm, cfg, zap.NewNop(), metrics),
		orders:       NewOrderService(orderRepo, poRepo, txm, zap.NewNop(), metrics),
		supplierID:   uuid.New(),
	}
}

// newRoutedPO persists an order with one routed line and its production order
func (f *fulfillmentFixture) newRoutedPO(t *testing.T, provisional bool) *fulfillment.ProductionOrder {
	t.Helper()
	ctx := context.Background()

	order, err := fulfillment.NewCustomerOrder("ORD-"+uuid.NewString()[:8], "cust-42")
	require.NoError(t, err)
	line, err := order.AddLine("MUG-01", decimal.NewFromInt(10), valueobject.NewMoneyUSDFromFloat(19.99))
	require.NoError(t, err)
	require.NoError(t, order.Lines[0].MarkRouted())
	require.NoError(t, f.orderRepo.Save(ctx, order))

	po, err := fulfillment.NewProductionOrder(line, f.supplierID, decimal.NewFromInt(4), 5, provisional)
	require.NoError(t, err)
	require.NoError(t, f.poRepo.Save(ctx, po))
	return po
}

// advance walks a production order to the given status via legal transitions
func (f *fulfillmentFixture) advance(t *testing.T, po *fulfillment.ProductionOrder, target fulfillment.ProductionOrderStatus) *fulfillment.ProductionOrder {
	t.Helper()
	ctx := context.Background()

	path := []fulfillment.ProductionOrderStatus{
		fulfillment.ProductionOrderStatusConfirmed,
		fulfillment.ProductionOrderStatusInProduction,
		fulfillment.ProductionOrderStatusQCPending,
	}
	for _, step := range path {
		updated, err := f.production.Transition(ctx, TransitionRequest{
			ProductionOrderID: po.ID, Target: step, Actor: "tester",
		})
		require.NoError(t, err)
		po = updated
		if po.Status == target {
			return po
		}
	}
	if target == fulfillment.ProductionOrderStatusQCPassed || target == fulfillment.ProductionOrderStatusCompleted {
		updated, err := f.production.RecordQC(ctx, QCRequest{ProductionOrderID: po.ID, Passed: true, Actor: "tester"})
		require.NoError(t, err)
		po = updated
	}
	if target == fulfillment.ProductionOrderStatusCompleted {
		updated, err := f.production.Transition(ctx, TransitionRequest{
			ProductionOrderID: po.ID, Target: fulfillment.ProductionOrderStatusCompleted, Actor: "tester",
		})
		require.NoError(t, err)
		po = updated
	}
	return po
}

func TestProductionService_Transition(t *testing.T) {
	ctx := context.Background()

	t.Run("walks the happy path", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)

		po = f.advance(t, po, fulfillment.ProductionOrderStatusQCPending)
		assert.Equal(t, fulfillment.ProductionOrderStatusQCPending, po.Status)

		loaded, err := f.production.GetProductionOrder(ctx, po.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.Transitions, 3)
	})

	t.Run("provisional order cannot confirm", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, true)

		_, err := f.production.Transition(ctx, TransitionRequest{
			ProductionOrderID: po.ID,
			Target:            fulfillment.ProductionOrderStatusConfirmed,
			Actor:             "tester",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stale inventory")
	})

	t.Run("illegal move is rejected", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)

		_, err := f.production.Transition(ctx, TransitionRequest{
			ProductionOrderID: po.ID,
			Target:            fulfillment.ProductionOrderStatusCompleted,
			Actor:             "tester",
		})
		require.Error(t, err)
	})

	t.Run("completion posts the sale for the actual cost", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)
		po = f.advance(t, po, fulfillment.ProductionOrderStatusInProduction)

		actual := decimal.NewFromInt(38)
		po, err := f.production.Transition(ctx, TransitionRequest{
			ProductionOrderID: po.ID,
			Target:            fulfillment.ProductionOrderStatusQCPending,
			Actor:             "tester",
			ActualCost:        &actual,
		})
		require.NoError(t, err)

		po, err = f.production.RecordQC(ctx, QCRequest{ProductionOrderID: po.ID, Passed: true, Actor: "inspector"})
		require.NoError(t, err)

		po, err = f.production.Transition(ctx, TransitionRequest{
			ProductionOrderID: po.ID,
			Target:            fulfillment.ProductionOrderStatusCompleted,
			Actor:             "tester",
		})
		require.NoError(t, err)
		assert.Equal(t, fulfillment.ProductionOrderStatusCompleted, po.Status)

		sale, err := f.ledgerRepo.FindSaleByProductionOrder(ctx, po.ID)
		require.NoError(t, err)
		assert.True(t, sale.Amount.Equal(decimal.NewFromInt(38)))
		assert.Equal(t, settlement.LedgerStatusUnpaid, sale.Status)
	})

	t.Run("completion falls back to the cost estimate", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)
		po = f.advance(t, po, fulfillment.ProductionOrderStatusCompleted)

		sale, err := f.ledgerRepo.FindSaleByProductionOrder(ctx, po.ID)
		require.NoError(t, err)
		// 10 units at a unit cost of 4
		assert.True(t, sale.Amount.Equal(decimal.NewFromInt(40)))
	})

	t.Run("an existing sale rolls the completion back", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)
		po = f.advance(t, po, fulfillment.ProductionOrderStatusQCPassed)

		earlier, err := settlement.NewSaleEntry(f.supplierID, po.CustomerOrderID, po.ID, decimal.NewFromInt(40))
		require.NoError(t, err)
		require.NoError(t, f.ledgerRepo.Insert(ctx, earlier))

		_, err = f.production.Transition(ctx, TransitionRequest{
			ProductionOrderID: po.ID,
			Target:            fulfillment.ProductionOrderStatusCompleted,
			Actor:             "tester",
		})
		assert.ErrorIs(t, err, shared.ErrDuplicateSaleEntry)

		loaded, err := f.production.GetProductionOrder(ctx, po.ID)
		require.NoError(t, err)
		assert.Equal(t, fulfillment.ProductionOrderStatusQCPassed, loaded.Status)
	})
}

func TestProductionOrderOptimisticLock(t *testing.T) {
	ctx := context.Background()

	t.Run("several version bumps between load and save still persist", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)

		loaded, err := f.poRepo.FindByID(ctx, po.ID)
		require.NoError(t, err)
		require.NoError(t, loaded.TransitionTo(fulfillment.ProductionOrderStatusConfirmed, "tester", ""))
		require.NoError(t, loaded.TransitionTo(fulfillment.ProductionOrderStatusInProduction, "tester", ""))
		require.NoError(t, loaded.RecordActualCost(decimal.NewFromInt(38)))
		require.NoError(t, f.poRepo.SaveWithLock(ctx, loaded))

		again, err := f.poRepo.FindByID(ctx, po.ID)
		require.NoError(t, err)
		assert.Equal(t, fulfillment.ProductionOrderStatusInProduction, again.Status)
		require.NotNil(t, again.ActualCost)
		assert.True(t, again.ActualCost.Equal(decimal.NewFromInt(38)))
	})

	t.Run("a stale copy cannot overwrite a newer row", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)

		first, err := f.poRepo.FindByID(ctx, po.ID)
		require.NoError(t, err)
		second, err := f.poRepo.FindByID(ctx, po.ID)
		require.NoError(t, err)

		require.NoError(t, first.TransitionTo(fulfillment.ProductionOrderStatusConfirmed, "tester", ""))
		require.NoError(t, f.poRepo.SaveWithLock(ctx, first))

		require.NoError(t, second.TransitionTo(fulfillment.ProductionOrderStatusConfirmed, "tester", ""))
		err = f.poRepo.SaveWithLock(ctx, second)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

func TestProductionService_RecordQC(t *testing.T) {
	ctx := context.Background()

	t.Run("failure under the rework budget loops back to production", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)
		po = f.advance(t, po, fulfillment.ProductionOrderStatusQCPending)

		po, err := f.production.RecordQC(ctx, QCRequest{
			ProductionOrderID: po.ID, Passed: false, Notes: "misprint", Actor: "inspector",
		})
		require.NoError(t, err)
		assert.Equal(t, fulfillment.ProductionOrderStatusInProduction, po.Status)
		assert.Equal(t, 1, po.ReworkCount)
		assert.False(t, po.Escalated)
	})

	t.Run("failure past the rework budget fails and escalates", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)
		po = f.advance(t, po, fulfillment.ProductionOrderStatusQCPending)

		po, err := f.production.RecordQC(ctx, QCRequest{
			ProductionOrderID: po.ID, Passed: false, Notes: "misprint", Actor: "inspector",
		})
		require.NoError(t, err)

		po, err = f.production.Transition(ctx, TransitionRequest{
			ProductionOrderID: po.ID, Target: fulfillment.ProductionOrderStatusQCPending, Actor: "tester",
		})
		require.NoError(t, err)

		po, err = f.production.RecordQC(ctx, QCRequest{
			ProductionOrderID: po.ID, Passed: false, Notes: "misprint again", Actor: "inspector",
		})
		require.NoError(t, err)
		assert.Equal(t, fulfillment.ProductionOrderStatusFailed, po.Status)
		assert.True(t, po.Escalated)
	})

	t.Run("qc outside QC_PENDING is rejected", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)

		_, err := f.production.RecordQC(ctx, QCRequest{ProductionOrderID: po.ID, Passed: true, Actor: "inspector"})
		require.Error(t, err)
	})
}

func TestProductionService_Kitting(t *testing.T) {
	ctx := context.Background()

	t.Run("checklist gates ready to ship", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)
		po = f.advance(t, po, fulfillment.ProductionOrderStatusQCPassed)

		po, err := f.production.AddKittingItem(ctx, po.ID, "gift box with ribbon", "KIT-001")
		require.NoError(t, err)
		require.Len(t, po.KittingItems, 1)

		po, err = f.production.Transition(ctx, TransitionRequest{
			ProductionOrderID: po.ID, Target: fulfillment.ProductionOrderStatusCompleted, Actor: "tester",
		})
		require.NoError(t, err)
		assert.False(t, po.ReadyToShip())

		po, err = f.production.ScanKittingItem(ctx, po.ID, po.KittingItems[0].ID, "packer-3")
		require.NoError(t, err)
		assert.True(t, po.ReadyToShip())
	})

	t.Run("kitting before qc pass is rejected", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)

		_, err := f.production.AddKittingItem(ctx, po.ID, "gift box", "")
		require.Error(t, err)
	})
}

func TestProductionService_ConfirmProvisionalOrders(t *testing.T) {
	ctx := context.Background()
	window := 30 * time.Minute

	t.Run("fresh covering snapshot confirms routing", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, true)

		snapshot, err := supply.NewInventorySnapshot(
			f.supplierID, "MUG-01", decimal.NewFromInt(100), decimal.NewFromInt(4), 5,
			supply.SnapshotSourcePoll,
		)
		require.NoError(t, err)
		require.NoError(t, f.snapshotRepo.Save(ctx, snapshot))

		confirmed, err := f.production.ConfirmProvisionalOrders(ctx, f.supplierID, window)
		require.NoError(t, err)
		assert.Equal(t, 1, confirmed)

		loaded, err := f.production.GetProductionOrder(ctx, po.ID)
		require.NoError(t, err)
		assert.False(t, loaded.Provisional)
	})

	t.Run("insufficient snapshot leaves the order provisional", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, true)

		snapshot, err := supply.NewInventorySnapshot(
			f.supplierID, "MUG-01", decimal.NewFromInt(3), decimal.NewFromInt(4), 5,
			supply.SnapshotSourcePoll,
		)
		require.NoError(t, err)
		require.NoError(t, f.snapshotRepo.Save(ctx, snapshot))

		confirmed, err := f.production.ConfirmProvisionalOrders(ctx, f.supplierID, window)
		require.NoError(t, err)
		assert.Equal(t, 0, confirmed)

		loaded, err := f.production.GetProductionOrder(ctx, po.ID)
		require.NoError(t, err)
		assert.True(t, loaded.Provisional)
	})
}

func TestProductionService_SweepStuckOrders(t *testing.T) {
	ctx := context.Background()

	f := setupFulfillmentFixture(t)
	po := f.newRoutedPO(t, false)
	po = f.advance(t, po, fulfillment.ProductionOrderStatusConfirmed)

	fresh := f.newRoutedPO(t, false)
	f.advance(t, fresh, fulfillment.ProductionOrderStatusConfirmed)

	stale := time.Now().Add(-100 * time.Hour)
	require.NoError(t, f.db.Model(&fulfillment.ProductionOrder{}).
		Where("id = ?", po.ID).
		Update("updated_at", stale).Error)

	escalated, err := f.production.SweepStuckOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, escalated)

	loaded, err := f.production.GetProductionOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Escalated)
	assert.Contains(t, loaded.EscalationReason, "SLA")

	untouched, err := f.production.GetProductionOrder(ctx, fresh.ID)
	require.NoError(t, err)
	assert.False(t, untouched.Escalated)
}
