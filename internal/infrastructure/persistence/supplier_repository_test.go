package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockSupplierRepository creates a GormSupplierRepository with a mocked SQL connection
func newMockSupplierRepository(t *testing.T) (*GormSupplierRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormSupplierRepository(gormDB), mock, mockDB
}

func TestGormSupplierRepository_FindByID(t *testing.T) {
	t.Run("finds existing supplier", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		supplierID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "code", "name", "status", "adapter_code", "on_time_rate", "qc_pass_rate"}).
			AddRow(supplierID, "ACME", "Acme Print Co", "active", "standard-json", decimal.NewFromInt(1), decimal.NewFromInt(1))

		mock.ExpectQuery(`SELECT \* FROM "suppliers" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(supplierID, 1).
			WillReturnRows(rows)

		supplier, err := repo.FindByID(context.Background(), supplierID)

		assert.NoError(t, err)
		assert.NotNil(t, supplier)
		assert.Equal(t, supplierID, supplier.ID)
		assert.Equal(t, "ACME", supplier.Code)
		assert.Equal(t, supply.SupplierStatusActive, supplier.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing supplier to not found", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		supplierID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "suppliers" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(supplierID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		supplier, err := repo.FindByID(context.Background(), supplierID)

		assert.Nil(t, supplier)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSupplierRepository_FindByCode(t *testing.T) {
	t.Run("uppercases code before lookup", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		supplierID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "code", "name", "status", "adapter_code"}).
			AddRow(supplierID, "ACME", "Acme Print Co", "active", "standard-json")

		mock.ExpectQuery(`SELECT \* FROM "suppliers" WHERE code = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("ACME", 1).
			WillReturnRows(rows)

		supplier, err := repo.FindByCode(context.Background(), "acme")

		assert.NoError(t, err)
		assert.Equal(t, "ACME", supplier.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSupplierRepository_FindAllActive(t *testing.T) {
	t.Run("filters on active status ordered by code", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "code", "name", "status", "adapter_code"}).
			AddRow(uuid.New(), "ACME", "Acme Print Co", "active", "standard-json").
			AddRow(uuid.New(), "NORD", "Nordic Mugs", "active", "standard-json")

		mock.ExpectQuery(`SELECT \* FROM "suppliers" WHERE status = \$1 ORDER BY code ASC`).
			WithArgs("active").
			WillReturnRows(rows)

		suppliers, err := repo.FindAllActive(context.Background())

		assert.NoError(t, err)
		assert.Len(t, suppliers, 2)
		assert.Equal(t, "ACME", suppliers[0].Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSupplierRepository_ExistsByCode(t *testing.T) {
	t.Run("reports existing code", func(t *testing.T) {
		repo, mock, mockDB := newMockSupplierRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"count"}).AddRow(1)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "suppliers" WHERE code = \$1`).
			WithArgs("ACME").
			WillReturnRows(rows)

		exists, err := repo.ExistsByCode(context.Background(), "acme")

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
