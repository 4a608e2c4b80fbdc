package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giftbridge/backend/internal/domain/fulfillment"
	"github.com/giftbridge/backend/internal/domain/settlement"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/giftbridge/backend/internal/infrastructure/config"
	"github.com/giftbridge/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductionService drives the production order lifecycle. Completion is
// the financial moment: the SALE ledger entry for the amount owed to the
// supplier is posted in the same transaction as the COMPLETED transition,
// guarded by the ledger's unique sale index.
type ProductionService struct {
	poRepo       fulfillment.ProductionOrderRepository
	ledgerRepo   settlement.LedgerRepository
	snapshotRepo supply.InventorySnapshotRepository
	txManager    TransactionManager
	cfg          config.FulfillmentConfig
	logger       *zap.Logger
	metrics      *telemetry.BusinessMetrics
}

// NewProductionService creates a new ProductionService
func NewProductionService(
	poRepo fulfillment.ProductionOrderRepository,
	ledgerRepo settlement.LedgerRepository,
	snapshotRepo supply.InventorySnapshotRepository,
	txManager TransactionManager,
	cfg config.FulfillmentConfig,
	logger *zap.Logger,
	metrics *telemetry.BusinessMetrics,
) *ProductionService {
	return &ProductionService{
		poRepo:       poRepo,
		ledgerRepo:   ledgerRepo,
		snapshotRepo: snapshotRepo,
		txManager:    txManager,
		cfg:          cfg,
		logger:       logger,
		metrics:      metrics,
	}
}

// GetProductionOrder returns one production order with its transition log
// and kitting checklist
func (s *ProductionService) GetProductionOrder(ctx context.Context, id uuid.UUID) (*fulfillment.ProductionOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production", "get_production_order")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrProductionOrderID, id.String())

	po, err := s.poRepo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return po, nil
}

// TransitionRequest moves a production order to a target status
type TransitionRequest struct {
	ProductionOrderID uuid.UUID
	Target            fulfillment.ProductionOrderStatus
	Actor             string
	Notes             string
	ActualCost        *decimal.Decimal // Supplier-reported cost, usually sent with QC_PENDING
}

// Transition applies a status change. Moving to COMPLETED additionally
// posts the SALE ledger entry atomically with the status update.
func (s *ProductionService) Transition(ctx context.Context, req TransitionRequest) (*fulfillment.ProductionOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production", "transition")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrProductionOrderID, req.ProductionOrderID.String(),
		telemetry.SpanAttrStatus, string(req.Target),
	)

	po, err := s.poRepo.FindByID(ctx, req.ProductionOrderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get production order: %w", err)
	}

	if req.ActualCost != nil {
		if err := po.RecordActualCost(*req.ActualCost); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if req.Target == fulfillment.ProductionOrderStatusConfirmed {
		err = po.Confirm(req.Actor)
	} else {
		err = po.TransitionTo(req.Target, req.Actor, req.Notes)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if req.Target == fulfillment.ProductionOrderStatusCompleted {
		if err := s.completeWithSale(ctx, po); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	} else {
		if err := s.poRepo.SaveWithLock(ctx, po); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	s.logger.Info("Production order transitioned",
		zap.String("production_order_id", po.ID.String()),
		zap.String("status", string(po.Status)),
		zap.String("actor", req.Actor),
	)
	return po, nil
}

// completeWithSale persists the COMPLETED transition and the SALE entry in
// one transaction. The unique sale guard makes a second SALE for the same
// production order impossible even under a concurrency race.
func (s *ProductionService) completeWithSale(ctx context.Context, po *fulfillment.ProductionOrder) error {
	// Friendly pre-check on the common path; the unique index still decides
	// under a race.
	if _, err := s.ledgerRepo.FindSaleByProductionOrder(ctx, po.ID); err == nil {
		return shared.ErrDuplicateSaleEntry
	} else if !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("failed to check for an existing sale: %w", err)
	}

	sale, err := settlement.NewSaleEntry(po.SupplierID, po.CustomerOrderID, po.ID, po.AmountOwed())
	if err != nil {
		return err
	}

	err = s.txManager.Transaction(func(tx *gorm.DB) error {
		if err := s.poRepo.SaveWithLockTx(tx, po); err != nil {
			return err
		}
		return s.ledgerRepo.InsertTx(tx, sale)
	})
	if err != nil {
		if errors.Is(err, shared.ErrDuplicateSaleEntry) {
			return shared.ErrDuplicateSaleEntry
		}
		return fmt.Errorf("failed to complete production order: %w", err)
	}

	s.metrics.RecordSalePosted(ctx, po.SupplierID.String())
	s.logger.Info("Sale posted for completed production order",
		zap.String("production_order_id", po.ID.String()),
		zap.String("supplier_id", po.SupplierID.String()),
		zap.String("amount", sale.Amount.String()),
	)
	return nil
}

// QCRequest records a quality-control outcome
type QCRequest struct {
	ProductionOrderID uuid.UUID
	Passed            bool
	Notes             string
	Actor             string
}

// RecordQC applies a QC result. A failure beyond the configured rework
// budget forces the order to FAILED and escalates it.
func (s *ProductionService) RecordQC(ctx context.Context, req QCRequest) (*fulfillment.ProductionOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production", "record_qc")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrProductionOrderID, req.ProductionOrderID.String())

	po, err := s.poRepo.FindByID(ctx, req.ProductionOrderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get production order: %w", err)
	}

	wasEscalated := po.Escalated
	if err := po.RecordQCResult(req.Passed, req.Notes, req.Actor, s.cfg.MaxQCRework); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.poRepo.SaveWithLock(ctx, po); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if po.Escalated && !wasEscalated {
		s.metrics.RecordEscalation(ctx, "qc_rework_limit")
	}

	s.logger.Info("QC result recorded",
		zap.String("production_order_id", po.ID.String()),
		zap.Bool("passed", req.Passed),
		zap.String("status", string(po.Status)),
		zap.Int("rework_count", po.ReworkCount),
	)
	return po, nil
}

// AddKittingItem attaches a checklist entry to a QC-passed order
func (s *ProductionService) AddKittingItem(ctx context.Context, poID uuid.UUID, description, barcode string) (*fulfillment.ProductionOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production", "add_kitting_item")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrProductionOrderID, poID.String())

	po, err := s.poRepo.FindByID(ctx, poID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get production order: %w", err)
	}
	if _, err := po.AddKittingItem(description, barcode); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.poRepo.SaveWithLock(ctx, po); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return po, nil
}

// ScanKittingItem confirms one checklist entry
func (s *ProductionService) ScanKittingItem(ctx context.Context, poID, itemID uuid.UUID, operator string) (*fulfillment.ProductionOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production", "scan_kitting_item")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrProductionOrderID, poID.String())

	po, err := s.poRepo.FindByID(ctx, poID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get production order: %w", err)
	}
	if err := po.ScanKittingItem(itemID, operator); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.poRepo.SaveWithLock(ctx, po); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return po, nil
}

// ConfirmProvisionalOrders re-checks provisionally routed orders for one
// supplier after a fresh sync. Orders whose snapshot is now fresh and still
// covers the quantity have their routing confirmed; the rest stay
// provisional until the next sync or an operator intervenes.
func (s *ProductionService) ConfirmProvisionalOrders(ctx context.Context, supplierID uuid.UUID, freshnessWindow time.Duration) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production", "confirm_provisional_orders")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrSupplierID, supplierID.String())

	orders, err := s.poRepo.FindProvisionalBySupplier(ctx, supplierID)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to load provisional orders: %w", err)
	}

	confirmed := 0
	now := time.Now()
	for i := range orders {
		po := &orders[i]
		snapshot, err := s.snapshotRepo.FindBySupplierAndSKU(ctx, supplierID, po.SKU)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			telemetry.RecordError(span, err)
			return confirmed, fmt.Errorf("failed to load snapshot: %w", err)
		}
		if snapshot.IsStale(freshnessWindow, now) || !snapshot.CanCover(po.Quantity) {
			continue
		}

		po.ConfirmRouting()
		if err := s.poRepo.SaveWithLock(ctx, po); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				continue
			}
			telemetry.RecordError(span, err)
			return confirmed, err
		}
		confirmed++
	}

	if confirmed > 0 {
		s.logger.Info("Provisional routings confirmed",
			zap.String("supplier_id", supplierID.String()),
			zap.Int("confirmed", confirmed),
		)
	}
	return confirmed, nil
}

// SweepStuckOrders escalates orders sitting in CONFIRMED or IN_PRODUCTION
// past the production SLA. Returns how many were escalated.
func (s *ProductionService) SweepStuckOrders(ctx context.Context) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production", "sweep_stuck_orders")
	defer span.End()

	cutoff := time.Now().Add(-s.cfg.ProductionSLA)
	orders, err := s.poRepo.FindStuck(ctx, cutoff)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to find stuck orders: %w", err)
	}

	escalated := 0
	for i := range orders {
		po := &orders[i]
		po.Escalate(fmt.Sprintf("no progress since %s, production SLA %s exceeded",
			po.UpdatedAt.Format(time.RFC3339), s.cfg.ProductionSLA))
		if err := s.poRepo.SaveWithLock(ctx, po); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				continue
			}
			telemetry.RecordError(span, err)
			return escalated, err
		}
		escalated++
		s.metrics.RecordEscalation(ctx, "sla_exceeded")
	}

	if escalated > 0 {
		s.logger.Warn("Stuck production orders escalated", zap.Int("escalated", escalated))
	}
	return escalated, nil
}

// ClearEscalation removes the escalation flag after operator action
func (s *ProductionService) ClearEscalation(ctx context.Context, poID uuid.UUID) (*fulfillment.ProductionOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "production", "clear_escalation")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrProductionOrderID, poID.String())

	po, err := s.poRepo.FindByID(ctx, poID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get production order: %w", err)
	}
	po.ClearEscalation()
	if err := s.poRepo.SaveWithLock(ctx, po); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return po, nil
}
