package supply

import (
	"context"
	"testing"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/giftbridge/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSupplierService(t *testing.T) *SupplierService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&supply.Supplier{}))

	registry := supply.NewAdapterRegistry(&fakeAdapter{code: "fake"})
	return NewSupplierService(persistence.NewGormSupplierRepository(db), registry, zap.NewNop())
}

func TestSupplierService_RegisterSupplier(t *testing.T) {
	ctx := context.Background()

	t.Run("registers with contact and secret", func(t *testing.T) {
		service := setupSupplierService(t)

		supplier, err := service.RegisterSupplier(ctx, RegisterSupplierRequest{
			Code:          "ACME",
			Name:          "Acme Gifts Co",
			AdapterCode:   "fake",
			APIBaseURL:    "https://api.acme.example",
			WebhookSecret: "super-secret-signing-key",
			ContactName:   "Jordan Lee",
			ContactEmail:  "jordan@acme.example",
		})
		require.NoError(t, err)
		assert.Equal(t, "ACME", supplier.Code)
		assert.True(t, supplier.IsActive())

		loaded, err := service.GetSupplier(ctx, supplier.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jordan Lee", loaded.ContactName)
	})

	t.Run("rejects duplicate code", func(t *testing.T) {
		service := setupSupplierService(t)

		_, err := service.RegisterSupplier(ctx, RegisterSupplierRequest{
			Code: "ACME", Name: "Acme Gifts Co", AdapterCode: "fake",
		})
		require.NoError(t, err)

		_, err = service.RegisterSupplier(ctx, RegisterSupplierRequest{
			Code: "ACME", Name: "Acme Again", AdapterCode: "fake",
		})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("rejects unregistered adapter code", func(t *testing.T) {
		service := setupSupplierService(t)

		_, err := service.RegisterSupplier(ctx, RegisterSupplierRequest{
			Code: "ACME", Name: "Acme Gifts Co", AdapterCode: "nope",
		})
		require.Error(t, err)
	})
}

func TestSupplierService_StatusChanges(t *testing.T) {
	ctx := context.Background()

	service := setupSupplierService(t)
	supplier, err := service.RegisterSupplier(ctx, RegisterSupplierRequest{
		Code: "ACME", Name: "Acme Gifts Co", AdapterCode: "fake",
	})
	require.NoError(t, err)

	deactivated, err := service.DeactivateSupplier(ctx, supplier.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive())

	activated, err := service.ActivateSupplier(ctx, supplier.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsActive())

	blocked, err := service.BlockSupplier(ctx, supplier.ID, "repeated QC failures")
	require.NoError(t, err)
	assert.False(t, blocked.IsActive())

	updated, err := service.RecordPerformance(ctx, supplier.ID,
		decimal.RequireFromString("0.95"), decimal.RequireFromString("0.85"))
	require.NoError(t, err)
	assert.True(t, updated.ReliabilityScore().Equal(decimal.RequireFromString("0.9")))
}
