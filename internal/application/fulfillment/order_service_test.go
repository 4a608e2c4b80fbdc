package fulfillment

import (
	"context"
	"testing"

	"github.com/giftbridge/backend/internal/domain/fulfillment"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an order with lines", func(t *testing.T) {
		f := setupFulfillmentFixture(t)

		order, err := f.orders.CreateOrder(ctx, CreateOrderRequest{
			OrderNumber: "ORD-2001",
			CustomerRef: "cust-42",
			Lines: []OrderLineInput{
				{SKU: "MUG-01", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromFloat(19.99)},
				{SKU: "TOTE-02", Quantity: decimal.NewFromInt(25), UnitPrice: decimal.NewFromFloat(7.50)},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, fulfillment.CustomerOrderStatusPending, order.Status)
		require.Len(t, order.Lines, 2)
		assert.Equal(t, fulfillment.OrderLineStatusPending, order.Lines[0].Status)

		loaded, err := f.orderRepo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.Lines, 2)
	})

	t.Run("rejects a duplicate order number", func(t *testing.T) {
		f := setupFulfillmentFixture(t)

		req := CreateOrderRequest{
			OrderNumber: "ORD-2002",
			CustomerRef: "cust-42",
			Lines:       []OrderLineInput{{SKU: "MUG-01", Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromFloat(19.99)}},
		}
		_, err := f.orders.CreateOrder(ctx, req)
		require.NoError(t, err)

		_, err = f.orders.CreateOrder(ctx, req)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("rejects an order without lines", func(t *testing.T) {
		f := setupFulfillmentFixture(t)

		_, err := f.orders.CreateOrder(ctx, CreateOrderRequest{
			OrderNumber: "ORD-2003",
			CustomerRef: "cust-42",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one line")
	})
}

func TestOrderService_GetOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("reports shippable only when every production order is packed", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)

		order, err := f.orderRepo.FindByID(ctx, po.CustomerOrderID)
		require.NoError(t, err)
		order.MarkRouted()
		require.NoError(t, f.orderRepo.Save(ctx, order))

		view, err := f.orders.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, view.ProductionOrders, 1)
		assert.False(t, view.ReadyToShip)

		f.advance(t, po, fulfillment.ProductionOrderStatusCompleted)

		view, err = f.orders.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, view.ReadyToShip)
	})

	t.Run("unknown order returns not found", func(t *testing.T) {
		f := setupFulfillmentFixture(t)

		_, err := f.orders.GetOrder(ctx, f.supplierID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestOrderService_CancelOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels production orders not yet with the supplier", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)

		result, err := f.orders.CancelOrder(ctx, po.CustomerOrderID, "customer changed their mind", "ops-1")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Cancelled)
		assert.Equal(t, 0, result.Escalated)
		assert.Equal(t, fulfillment.CustomerOrderStatusCancelled, result.Order.Status)

		loaded, err := f.production.GetProductionOrder(ctx, po.ID)
		require.NoError(t, err)
		assert.Equal(t, fulfillment.ProductionOrderStatusCancelled, loaded.Status)
	})

	t.Run("escalates production orders already in flight", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)
		po = f.advance(t, po, fulfillment.ProductionOrderStatusInProduction)

		result, err := f.orders.CancelOrder(ctx, po.CustomerOrderID, "event called off", "ops-1")
		require.NoError(t, err)
		assert.Equal(t, 0, result.Cancelled)
		assert.Equal(t, 1, result.Escalated)

		loaded, err := f.production.GetProductionOrder(ctx, po.ID)
		require.NoError(t, err)
		assert.Equal(t, fulfillment.ProductionOrderStatusInProduction, loaded.Status)
		assert.True(t, loaded.Escalated)
		assert.Contains(t, loaded.EscalationReason, "cancelled while IN_PRODUCTION")
	})

	t.Run("provisional confirmed orders are still safe to cancel", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, true)

		result, err := f.orders.CancelOrder(ctx, po.CustomerOrderID, "duplicate submission", "ops-1")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Cancelled)
	})

	t.Run("cancelling twice is rejected", func(t *testing.T) {
		f := setupFulfillmentFixture(t)
		po := f.newRoutedPO(t, false)

		_, err := f.orders.CancelOrder(ctx, po.CustomerOrderID, "first", "ops-1")
		require.NoError(t, err)

		_, err = f.orders.CancelOrder(ctx, po.CustomerOrderID, "second", "ops-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already cancelled")
	})
}
