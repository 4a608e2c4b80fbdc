package supply

import (
	"context"
	"fmt"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/giftbridge/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SupplierService manages the supplier directory
type SupplierService struct {
	supplierRepo supply.SupplierRepository
	registry     *supply.AdapterRegistry
	logger       *zap.Logger
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(
	supplierRepo supply.SupplierRepository,
	registry *supply.AdapterRegistry,
	logger *zap.Logger,
) *SupplierService {
	return &SupplierService{
		supplierRepo: supplierRepo,
		registry:     registry,
		logger:       logger,
	}
}

// RegisterSupplierRequest onboards a new supplier
type RegisterSupplierRequest struct {
	Code          string
	Name          string
	AdapterCode   string
	APIBaseURL    string
	WebhookSecret string
	ContactName   string
	ContactEmail  string
}

// RegisterSupplier creates a supplier bound to a registered adapter
func (s *SupplierService) RegisterSupplier(ctx context.Context, req RegisterSupplierRequest) (*supply.Supplier, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "supplier", "register_supplier")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrSupplierCode, req.Code)

	if _, err := s.registry.Resolve(req.AdapterCode); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	exists, err := s.supplierRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check supplier code: %w", err)
	}
	if exists {
		telemetry.RecordError(span, shared.ErrAlreadyExists)
		return nil, shared.ErrAlreadyExists
	}

	supplier, err := supply.NewSupplier(req.Code, req.Name, req.AdapterCode)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.APIBaseURL != "" {
		if err := supplier.SetAPIBaseURL(req.APIBaseURL); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	if req.WebhookSecret != "" {
		if err := supplier.SetWebhookSecret(req.WebhookSecret); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	if req.ContactName != "" || req.ContactEmail != "" {
		if err := supplier.SetContact(req.ContactName, req.ContactEmail); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save supplier: %w", err)
	}

	s.logger.Info("Supplier registered",
		zap.String("supplier_id", supplier.ID.String()),
		zap.String("code", supplier.Code),
		zap.String("adapter_code", supplier.AdapterCode),
	)
	return supplier, nil
}

// GetSupplier returns one supplier by ID
func (s *SupplierService) GetSupplier(ctx context.Context, id uuid.UUID) (*supply.Supplier, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "supplier", "get_supplier")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrSupplierID, id.String())

	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return supplier, nil
}

// ListSuppliers returns suppliers matching the filter
func (s *SupplierService) ListSuppliers(ctx context.Context, filter shared.Filter) ([]supply.Supplier, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "supplier", "list_suppliers")
	defer span.End()

	suppliers, err := s.supplierRepo.FindAll(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}

// ActivateSupplier makes a supplier eligible for routing
func (s *SupplierService) ActivateSupplier(ctx context.Context, id uuid.UUID) (*supply.Supplier, error) {
	return s.changeStatus(ctx, id, "activate_supplier", func(supplier *supply.Supplier) error {
		supplier.Activate()
		return nil
	})
}

// DeactivateSupplier removes a supplier from routing without blocking it
func (s *SupplierService) DeactivateSupplier(ctx context.Context, id uuid.UUID) (*supply.Supplier, error) {
	return s.changeStatus(ctx, id, "deactivate_supplier", func(supplier *supply.Supplier) error {
		supplier.Deactivate()
		return nil
	})
}

// BlockSupplier blocks a supplier with a reason
func (s *SupplierService) BlockSupplier(ctx context.Context, id uuid.UUID, reason string) (*supply.Supplier, error) {
	return s.changeStatus(ctx, id, "block_supplier", func(supplier *supply.Supplier) error {
		supplier.Block(reason)
		return nil
	})
}

// RecordPerformance updates the on-time and QC pass rates feeding the
// routing reliability score
func (s *SupplierService) RecordPerformance(ctx context.Context, id uuid.UUID, onTimeRate, qcPassRate decimal.Decimal) (*supply.Supplier, error) {
	return s.changeStatus(ctx, id, "record_performance", func(supplier *supply.Supplier) error {
		return supplier.RecordPerformance(onTimeRate, qcPassRate)
	})
}

func (s *SupplierService) changeStatus(ctx context.Context, id uuid.UUID, method string, mutate func(*supply.Supplier) error) (*supply.Supplier, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "supplier", method)
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrSupplierID, id.String())

	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	if err := mutate(supplier); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save supplier: %w", err)
	}

	s.logger.Info("Supplier updated",
		zap.String("supplier_id", supplier.ID.String()),
		zap.String("status", string(supplier.Status)),
	)
	return supplier, nil
}
