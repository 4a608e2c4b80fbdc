package settlement

import (
	"context"
	"fmt"

	"github.com/giftbridge/backend/internal/domain/settlement"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/giftbridge/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService handles ledger queries and manual adjustments. SALE entries
// are never posted here; they come from the production order completion flow.
type LedgerService struct {
	ledgerRepo   settlement.LedgerRepository
	supplierRepo supply.SupplierRepository
	logger       *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	ledgerRepo settlement.LedgerRepository,
	supplierRepo supply.SupplierRepository,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		ledgerRepo:   ledgerRepo,
		supplierRepo: supplierRepo,
		logger:       logger,
	}
}

// PostAdjustmentRequest represents a manual operator correction
type PostAdjustmentRequest struct {
	SupplierID uuid.UUID
	Amount     decimal.Decimal
	Reason     string
	OperatorID uuid.UUID
}

// PostAdjustment appends an ADJUSTMENT entry to a supplier's ledger
func (s *LedgerService) PostAdjustment(ctx context.Context, req PostAdjustmentRequest) (*settlement.LedgerEntry, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "post_adjustment")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSupplierID, req.SupplierID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	if _, err := s.supplierRepo.FindByID(ctx, req.SupplierID); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}

	entry, err := settlement.NewAdjustmentEntry(req.SupplierID, req.Amount, req.Reason, req.OperatorID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.ledgerRepo.Insert(ctx, entry); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to insert adjustment: %w", err)
	}

	s.logger.Info("Ledger adjustment posted",
		zap.String("supplier_id", req.SupplierID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("operator_id", req.OperatorID.String()),
	)
	return entry, nil
}

// SupplierBalance is a supplier's net ledger position
type SupplierBalance struct {
	SupplierID uuid.UUID       `json:"supplier_id"`
	Balance    decimal.Decimal `json:"balance"`
	Currency   string          `json:"currency"`
}

// GetBalance returns the supplier's net balance: the sum of all
// non-cancelled entry amounts
func (s *LedgerService) GetBalance(ctx context.Context, supplierID uuid.UUID) (*SupplierBalance, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "get_balance")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrSupplierID, supplierID.String())

	if _, err := s.supplierRepo.FindByID(ctx, supplierID); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}

	balance, err := s.ledgerRepo.SumBalance(ctx, supplierID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to sum balance: %w", err)
	}

	return &SupplierBalance{
		SupplierID: supplierID,
		Balance:    balance,
		Currency:   "USD",
	}, nil
}

// ListLedger returns a page of ledger entries matching the filter
func (s *LedgerService) ListLedger(ctx context.Context, filter settlement.LedgerFilter) (*shared.Paginated[settlement.LedgerEntry], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "list_ledger")
	defer span.End()

	entries, total, err := s.ledgerRepo.FindAll(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	page := shared.NewPaginated(entries, total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetEntry returns one ledger entry
func (s *LedgerService) GetEntry(ctx context.Context, id uuid.UUID) (*settlement.LedgerEntry, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "get_entry")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrLedgerEntryID, id.String())

	entry, err := s.ledgerRepo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return entry, nil
}
