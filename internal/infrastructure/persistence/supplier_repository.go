package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSupplierRepository implements supply.SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by ID
func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*supply.Supplier, error) {
	var supplier supply.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

// FindByCode finds a supplier by its unique code
func (r *GormSupplierRepository) FindByCode(ctx context.Context, code string) (*supply.Supplier, error) {
	var supplier supply.Supplier
	if err := r.db.WithContext(ctx).
		First(&supplier, "code = ?", strings.ToUpper(code)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

// FindAllActive returns all active suppliers
func (r *GormSupplierRepository) FindAllActive(ctx context.Context) ([]supply.Supplier, error) {
	var suppliers []supply.Supplier
	if err := r.db.WithContext(ctx).
		Where("status = ?", supply.SupplierStatusActive).
		Order("code ASC").
		Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// FindAll returns suppliers with filtering and pagination
func (r *GormSupplierRepository) FindAll(ctx context.Context, filter shared.Filter) ([]supply.Supplier, error) {
	var suppliers []supply.Supplier
	query := r.db.WithContext(ctx).Model(&supply.Supplier{})
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if err := query.
		Order("code ASC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// Save creates or updates a supplier
func (r *GormSupplierRepository) Save(ctx context.Context, supplier *supply.Supplier) error {
	if err := r.db.WithContext(ctx).Save(supplier).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ExistsByCode checks if a supplier code is taken
func (r *GormSupplierRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&supply.Supplier{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormSupplierRepository implements SupplierRepository
var _ supply.SupplierRepository = (*GormSupplierRepository)(nil)
