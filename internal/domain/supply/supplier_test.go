package supply

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSupplier(t *testing.T) {
	t.Run("creates active supplier with uppercased code", func(t *testing.T) {
		supplier, err := NewSupplier("printco-eu", "PrintCo Europe BV", "standard-json")

		require.NoError(t, err)
		assert.Equal(t, "PRINTCO-EU", supplier.Code)
		assert.Equal(t, SupplierStatusActive, supplier.Status)
		assert.Equal(t, "standard-json", supplier.AdapterCode)
		assert.True(t, supplier.OnTimeRate.Equal(decimal.NewFromInt(1)))
		assert.Len(t, supplier.GetDomainEvents(), 1)
	})

	t.Run("rejects empty code", func(t *testing.T) {
		supplier, err := NewSupplier("", "PrintCo", "standard-json")

		assert.Nil(t, supplier)
		assert.Error(t, err)
	})

	t.Run("rejects code with invalid characters", func(t *testing.T) {
		supplier, err := NewSupplier("print co!", "PrintCo", "standard-json")

		assert.Nil(t, supplier)
		assert.Error(t, err)
	})

	t.Run("rejects empty adapter code", func(t *testing.T) {
		supplier, err := NewSupplier("printco", "PrintCo", "")

		assert.Nil(t, supplier)
		assert.Error(t, err)
	})
}

func TestSupplier_StatusChanges(t *testing.T) {
	t.Run("deactivate and reactivate", func(t *testing.T) {
		supplier, _ := NewSupplier("printco", "PrintCo", "standard-json")

		supplier.Deactivate()
		assert.False(t, supplier.IsActive())

		supplier.Activate()
		assert.True(t, supplier.IsActive())
	})

	t.Run("block records the reason", func(t *testing.T) {
		supplier, _ := NewSupplier("printco", "PrintCo", "standard-json")

		supplier.Block("repeated QC failures")

		assert.Equal(t, SupplierStatusBlocked, supplier.Status)
		assert.False(t, supplier.IsActive())
		assert.Equal(t, "repeated QC failures", supplier.Notes)
	})
}

func TestSupplier_WebhookSecret(t *testing.T) {
	t.Run("accepts a sufficiently long secret", func(t *testing.T) {
		supplier, _ := NewSupplier("printco", "PrintCo", "standard-json")

		require.NoError(t, supplier.SetWebhookSecret("0123456789abcdef0123"))
		assert.Equal(t, "0123456789abcdef0123", supplier.WebhookSecret)
	})

	t.Run("rejects short secrets", func(t *testing.T) {
		supplier, _ := NewSupplier("printco", "PrintCo", "standard-json")

		assert.Error(t, supplier.SetWebhookSecret("short"))
	})
}

func TestSupplier_Reliability(t *testing.T) {
	t.Run("score averages on-time and QC pass rates", func(t *testing.T) {
		supplier, _ := NewSupplier("printco", "PrintCo", "standard-json")
		require.NoError(t, supplier.RecordPerformance(decimal.NewFromFloat(0.9), decimal.NewFromFloat(0.7)))

		assert.True(t, supplier.ReliabilityScore().Equal(decimal.NewFromFloat(0.8)))
	})

	t.Run("rejects rates outside [0,1]", func(t *testing.T) {
		supplier, _ := NewSupplier("printco", "PrintCo", "standard-json")

		assert.Error(t, supplier.RecordPerformance(decimal.NewFromFloat(1.2), decimal.NewFromFloat(0.7)))
		assert.Error(t, supplier.RecordPerformance(decimal.NewFromFloat(0.9), decimal.NewFromFloat(-0.1)))
	})
}
