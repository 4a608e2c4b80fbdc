package fulfillment

import (
	"testing"

	"github.com/giftbridge/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomerOrder(t *testing.T) {
	t.Run("creates pending order", func(t *testing.T) {
		order, err := NewCustomerOrder("GB-2026-000123", "acme-corp")

		require.NoError(t, err)
		assert.Equal(t, CustomerOrderStatusPending, order.Status)
		assert.Equal(t, "GB-2026-000123", order.OrderNumber)
		assert.Empty(t, order.Lines)
	})

	t.Run("rejects empty order number", func(t *testing.T) {
		order, err := NewCustomerOrder("", "acme-corp")

		assert.Nil(t, order)
		assert.Error(t, err)
	})

	t.Run("rejects empty customer reference", func(t *testing.T) {
		order, err := NewCustomerOrder("GB-2026-000123", "")

		assert.Nil(t, order)
		assert.Error(t, err)
	})
}

func TestCustomerOrder_AddLine(t *testing.T) {
	price := valueobject.NewMoneyUSD(decimal.NewFromInt(25))

	t.Run("adds lines while pending", func(t *testing.T) {
		order, _ := NewCustomerOrder("GB-2026-000123", "acme-corp")

		line, err := order.AddLine("MUG-CORP-01", decimal.NewFromInt(40), price)

		require.NoError(t, err)
		assert.Equal(t, order.ID, line.OrderID)
		assert.Equal(t, OrderLineStatusPending, line.Status)
		assert.Len(t, order.Lines, 1)
	})

	t.Run("rejects lines on a cancelled order", func(t *testing.T) {
		order, _ := NewCustomerOrder("GB-2026-000123", "acme-corp")
		require.NoError(t, order.Cancel("duplicate"))

		_, err := order.AddLine("MUG-CORP-01", decimal.NewFromInt(40), price)

		assert.Error(t, err)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		order, _ := NewCustomerOrder("GB-2026-000123", "acme-corp")

		_, err := order.AddLine("MUG-CORP-01", decimal.Zero, price)

		assert.Error(t, err)
	})
}

func TestOrderLine_Routing(t *testing.T) {
	price := valueobject.NewMoneyUSD(decimal.NewFromInt(25))

	t.Run("a line routes exactly once", func(t *testing.T) {
		order, _ := NewCustomerOrder("GB-2026-000123", "acme-corp")
		line, _ := order.AddLine("MUG-CORP-01", decimal.NewFromInt(40), price)

		require.NoError(t, line.MarkRouted())
		assert.Error(t, line.MarkRouted())
		assert.Error(t, line.MarkSplit())
	})

	t.Run("split derives child lines carrying the parent reference", func(t *testing.T) {
		order, _ := NewCustomerOrder("GB-2026-000123", "acme-corp")
		line, _ := order.AddLine("MUG-CORP-01", decimal.NewFromInt(80), price)

		child, err := line.SplitInto(decimal.NewFromInt(50))

		require.NoError(t, err)
		assert.Equal(t, line.SKU, child.SKU)
		assert.True(t, child.Quantity.Equal(decimal.NewFromInt(50)))
		assert.True(t, child.UnitPrice.Equal(line.UnitPrice))
		require.NotNil(t, child.SplitFrom)
		assert.Equal(t, line.ID, *child.SplitFrom)
		assert.Equal(t, OrderLineStatusPending, child.Status)
	})

	t.Run("split quantity must fit within the parent", func(t *testing.T) {
		order, _ := NewCustomerOrder("GB-2026-000123", "acme-corp")
		line, _ := order.AddLine("MUG-CORP-01", decimal.NewFromInt(80), price)

		_, err := line.SplitInto(decimal.NewFromInt(100))

		assert.Error(t, err)
	})
}

func TestCustomerOrder_Status(t *testing.T) {
	price := valueobject.NewMoneyUSD(decimal.NewFromInt(25))

	t.Run("fully routed when no line is pending", func(t *testing.T) {
		order, _ := NewCustomerOrder("GB-2026-000123", "acme-corp")
		order.AddLine("MUG-CORP-01", decimal.NewFromInt(40), price)
		order.AddLine("TOTE-CORP-02", decimal.NewFromInt(10), price)

		assert.False(t, order.IsFullyRouted())
		require.NoError(t, order.Lines[0].MarkRouted())
		assert.False(t, order.IsFullyRouted())
		require.NoError(t, order.Lines[1].MarkRouted())
		assert.True(t, order.IsFullyRouted())
	})

	t.Run("order without lines is never fully routed", func(t *testing.T) {
		order, _ := NewCustomerOrder("GB-2026-000123", "acme-corp")

		assert.False(t, order.IsFullyRouted())
	})

	t.Run("routable lines excludes routed and split", func(t *testing.T) {
		order, _ := NewCustomerOrder("GB-2026-000123", "acme-corp")
		order.AddLine("MUG-CORP-01", decimal.NewFromInt(40), price)
		order.AddLine("TOTE-CORP-02", decimal.NewFromInt(10), price)
		require.NoError(t, order.Lines[0].MarkSplit())

		routable := order.RoutableLines()

		require.Len(t, routable, 1)
		assert.Equal(t, "TOTE-CORP-02", routable[0].SKU)
	})

	t.Run("cancel records reason and timestamp", func(t *testing.T) {
		order, _ := NewCustomerOrder("GB-2026-000123", "acme-corp")

		require.NoError(t, order.Cancel("customer withdrew"))

		assert.Equal(t, CustomerOrderStatusCancelled, order.Status)
		assert.Equal(t, "customer withdrew", order.CancelReason)
		assert.NotNil(t, order.CancelledAt)
		assert.Error(t, order.Cancel("again"))
	})
}
