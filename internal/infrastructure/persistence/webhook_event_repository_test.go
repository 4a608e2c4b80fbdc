package persistence

import (
	"context"
	"testing"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupWebhookEventTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&supply.ProcessedWebhookEvent{})
	require.NoError(t, err)

	return db
}

func TestWebhookEventRepository_InsertTx(t *testing.T) {
	db := setupWebhookEventTestDB(t)
	repo := NewGormWebhookEventRepository(db)

	t.Run("inserts a new delivery record", func(t *testing.T) {
		event, err := supply.NewProcessedWebhookEvent("ACME", "evt-001", supply.WebhookEventInventoryDelta)
		require.NoError(t, err)

		err = db.Transaction(func(tx *gorm.DB) error {
			return repo.InsertTx(tx, event)
		})
		require.NoError(t, err)
	})

	t.Run("rejects a duplicate delivery", func(t *testing.T) {
		first, err := supply.NewProcessedWebhookEvent("ACME", "evt-dup", supply.WebhookEventInventoryDelta)
		require.NoError(t, err)
		err = db.Transaction(func(tx *gorm.DB) error {
			return repo.InsertTx(tx, first)
		})
		require.NoError(t, err)

		replay, err := supply.NewProcessedWebhookEvent("ACME", "evt-dup", supply.WebhookEventInventoryDelta)
		require.NoError(t, err)
		err = db.Transaction(func(tx *gorm.DB) error {
			return repo.InsertTx(tx, replay)
		})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("same event ID from another supplier is distinct", func(t *testing.T) {
		event, err := supply.NewProcessedWebhookEvent("GLOBEX", "evt-dup", supply.WebhookEventInventoryDelta)
		require.NoError(t, err)
		err = db.Transaction(func(tx *gorm.DB) error {
			return repo.InsertTx(tx, event)
		})
		require.NoError(t, err)
	})
}

func TestWebhookEventRepository_Exists(t *testing.T) {
	db := setupWebhookEventTestDB(t)
	repo := NewGormWebhookEventRepository(db)
	ctx := context.Background()

	event, err := supply.NewProcessedWebhookEvent("ACME", "evt-seen", supply.WebhookEventPricingDelta)
	require.NoError(t, err)
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.InsertTx(tx, event)
	}))

	t.Run("reports a processed delivery", func(t *testing.T) {
		seen, err := repo.Exists(ctx, "ACME", "evt-seen")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("reports an unseen delivery", func(t *testing.T) {
		seen, err := repo.Exists(ctx, "ACME", "evt-unseen")
		require.NoError(t, err)
		assert.False(t, seen)
	})
}
