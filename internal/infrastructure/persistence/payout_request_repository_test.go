package persistence

import (
	"context"
	"testing"

	"github.com/giftbridge/backend/internal/domain/settlement"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPayoutRequestTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&settlement.PayoutRequest{}, &settlement.SettledEntry{})
	require.NoError(t, err)

	return db
}

func TestPayoutRequestRepository_Save(t *testing.T) {
	db := setupPayoutRequestTestDB(t)
	repo := NewGormPayoutRequestRepository(db)
	ctx := context.Background()

	t.Run("saves and reloads a request", func(t *testing.T) {
		request, err := settlement.NewPayoutRequest(uuid.New(), decimal.NewFromInt(5000))
		require.NoError(t, err)

		require.NoError(t, repo.Save(ctx, request))

		found, err := repo.FindByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, settlement.PayoutStatusPending, found.Status)
		assert.True(t, found.RequestedAmount.Equal(decimal.NewFromInt(5000)))
	})

	t.Run("returns not found for an unknown ID", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestPayoutRequestRepository_FindBySupplier(t *testing.T) {
	db := setupPayoutRequestTestDB(t)
	repo := NewGormPayoutRequestRepository(db)
	ctx := context.Background()

	supplierID := uuid.New()
	for i := 1; i <= 3; i++ {
		request, err := settlement.NewPayoutRequest(supplierID, decimal.NewFromInt(int64(i*100)))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, request))
	}

	t.Run("returns the supplier's requests paginated", func(t *testing.T) {
		requests, err := repo.FindBySupplier(ctx, supplierID, shared.Filter{Page: 1, PageSize: 2})
		require.NoError(t, err)
		assert.Len(t, requests, 2)
	})

	t.Run("returns empty for a supplier without requests", func(t *testing.T) {
		requests, err := repo.FindBySupplier(ctx, uuid.New(), shared.Filter{Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Len(t, requests, 0)
	})
}

func TestPayoutRequestRepository_SaveWithLockTx(t *testing.T) {
	db := setupPayoutRequestTestDB(t)
	repo := NewGormPayoutRequestRepository(db)
	ctx := context.Background()

	t.Run("persists an approval with settled entries", func(t *testing.T) {
		request, err := settlement.NewPayoutRequest(uuid.New(), decimal.NewFromInt(1200))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, request))

		entryID := uuid.New()
		require.NoError(t, request.Approve(uuid.New(), []uuid.UUID{entryID}))

		err = db.Transaction(func(tx *gorm.DB) error {
			return repo.SaveWithLockTx(tx, request)
		})
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, settlement.PayoutStatusProcessing, found.Status)
		require.Len(t, found.SettledEntries, 1)
		assert.Equal(t, entryID, found.SettledEntries[0].LedgerEntryID)
	})

	t.Run("rejects a stale version", func(t *testing.T) {
		request, err := settlement.NewPayoutRequest(uuid.New(), decimal.NewFromInt(800))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, request))

		require.NoError(t, request.Approve(uuid.New(), nil))
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return repo.SaveWithLockTx(tx, request)
		}))

		// Replaying the same version must lose to the earlier writer.
		err = db.Transaction(func(tx *gorm.DB) error {
			return repo.SaveWithLockTx(tx, request)
		})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}
