package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giftbridge/backend/internal/domain/fulfillment"
	"github.com/giftbridge/backend/internal/domain/routing"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/giftbridge/backend/internal/infrastructure/config"
	"github.com/giftbridge/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RoutingService assembles candidates from the inventory cache and drives
// the pure selection/split logic in the routing domain package. Routing an
// order is atomic: either every pending line ends up owned by production
// orders or nothing changes.
type RoutingService struct {
	orderRepo    fulfillment.CustomerOrderRepository
	poRepo       fulfillment.ProductionOrderRepository
	supplierRepo supply.SupplierRepository
	snapshotRepo supply.InventorySnapshotRepository
	txManager    TransactionManager
	cfg          config.RoutingConfig
	logger       *zap.Logger
	metrics      *telemetry.BusinessMetrics
}

// NewRoutingService creates a new RoutingService
func NewRoutingService(
	orderRepo fulfillment.CustomerOrderRepository,
	poRepo fulfillment.ProductionOrderRepository,
	supplierRepo supply.SupplierRepository,
	snapshotRepo supply.InventorySnapshotRepository,
	txManager TransactionManager,
	cfg config.RoutingConfig,
	logger *zap.Logger,
	metrics *telemetry.BusinessMetrics,
) *RoutingService {
	return &RoutingService{
		orderRepo:    orderRepo,
		poRepo:       poRepo,
		supplierRepo: supplierRepo,
		snapshotRepo: snapshotRepo,
		txManager:    txManager,
		cfg:          cfg,
		logger:       logger,
		metrics:      metrics,
	}
}

func (s *RoutingService) weights() routing.Weights {
	return routing.Weights{
		Cost:             s.cfg.CostWeight,
		LeadTime:         s.cfg.LeadTimeWeight,
		Reliability:      s.cfg.ReliabilityWeight,
		StalenessPenalty: s.cfg.StalenessPenalty,
	}
}

// SupplierInventory is one supplier's cached offer for a SKU
type SupplierInventory struct {
	SupplierID     uuid.UUID       `json:"supplier_id"`
	SupplierCode   string          `json:"supplier_code"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	LeadTimeDays   int             `json:"lead_time_days"`
	SyncedAt       time.Time       `json:"synced_at"`
	Stale          bool            `json:"stale"`
}

// GetInventory returns the cached per-supplier availability for a SKU,
// active suppliers only
func (s *RoutingService) GetInventory(ctx context.Context, sku string) ([]SupplierInventory, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "routing", "get_inventory")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrSKU, sku)

	candidates, err := s.buildCandidates(ctx, sku)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	views := make([]SupplierInventory, 0, len(candidates))
	for _, c := range candidates {
		views = append(views, SupplierInventory{
			SupplierID:     c.SupplierID,
			SupplierCode:   c.SupplierCode,
			QuantityOnHand: c.QuantityOnHand,
			UnitCost:       c.UnitCost,
			LeadTimeDays:   c.LeadTimeDays,
			SyncedAt:       c.SyncedAt,
			Stale:          c.Stale,
		})
	}
	return views, nil
}

// SelectSupplierRequest asks for a routing decision without side effects
type SelectSupplierRequest struct {
	SKU                 string
	Quantity            decimal.Decimal
	PreferredSupplierID *uuid.UUID
	MaxLeadTimeDays     *int
	MaxUnitCost         *decimal.Decimal
}

// RoutingDecision is the outcome of a selection request: a single-supplier
// selection when one supplier covers the quantity, otherwise a split plan
type RoutingDecision struct {
	Selection *routing.Selection `json:"selection,omitempty"`
	Split     *routing.SplitPlan `json:"split,omitempty"`
}

// SelectSupplier previews the routing decision for a SKU and quantity.
// Nothing is persisted; RouteOrder applies the same logic with effects.
func (s *RoutingService) SelectSupplier(ctx context.Context, req SelectSupplierRequest) (*RoutingDecision, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "routing", "select_supplier")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSKU, req.SKU,
		telemetry.SpanAttrQuantity, req.Quantity.String(),
	)

	candidates, err := s.buildCandidates(ctx, req.SKU)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	decision, err := s.decide(candidates, req.Quantity, req.constraints())
	if err != nil {
		if errors.Is(err, shared.ErrNoSupplierAvailable) {
			s.metrics.RecordRoutingFailure(ctx, req.SKU)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	return decision, nil
}

func (r SelectSupplierRequest) constraints() routing.Constraints {
	return routing.Constraints{
		PreferredSupplierID: r.PreferredSupplierID,
		MaxLeadTimeDays:     r.MaxLeadTimeDays,
		MaxUnitCost:         r.MaxUnitCost,
	}
}

// decide tries a single-supplier selection, falling back to a split plan
// when no one supplier covers the quantity
func (s *RoutingService) decide(candidates []routing.Candidate, quantity decimal.Decimal, constraints routing.Constraints) (*RoutingDecision, error) {
	selection, err := routing.SelectSupplier(candidates, quantity, constraints, s.weights())
	if err == nil {
		return &RoutingDecision{Selection: selection}, nil
	}
	if !errors.Is(err, shared.ErrNoSupplierAvailable) {
		return nil, err
	}

	plan, splitErr := routing.PlanSplit(candidates, quantity, constraints, s.cfg.MaxSplitFanOut)
	if splitErr != nil {
		return nil, splitErr
	}
	return &RoutingDecision{Split: plan}, nil
}

// RouteOrderRequest routes every pending line of a customer order
type RouteOrderRequest struct {
	OrderID             uuid.UUID
	PreferredSupplierID *uuid.UUID
	MaxLeadTimeDays     *int
	MaxUnitCost         *decimal.Decimal
}

func (r RouteOrderRequest) constraints() routing.Constraints {
	return routing.Constraints{
		PreferredSupplierID: r.PreferredSupplierID,
		MaxLeadTimeDays:     r.MaxLeadTimeDays,
		MaxUnitCost:         r.MaxUnitCost,
	}
}

// RouteOrderResult reports what routing created
type RouteOrderResult struct {
	OrderID          uuid.UUID                     `json:"order_id"`
	ProductionOrders []*fulfillment.ProductionOrder `json:"production_orders"`
	FullyRouted      bool                          `json:"fully_routed"`
}

// RouteOrder routes all pending lines of an order. Already-routed lines are
// skipped, so retrying after a transient failure is safe. Any line no
// supplier set can satisfy fails the whole call and rolls everything back.
func (s *RoutingService) RouteOrder(ctx context.Context, req RouteOrderRequest) (*RouteOrderResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "routing", "route_order")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, req.OrderID.String())

	order, err := s.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order.Status == fulfillment.CustomerOrderStatusCancelled {
		err := shared.NewDomainError("INVALID_STATE", "Cannot route a cancelled order")
		telemetry.RecordError(span, err)
		return nil, err
	}

	constraints := req.constraints()
	created := make([]*fulfillment.ProductionOrder, 0, len(order.Lines))

	pending := len(order.Lines)
	for i := 0; i < pending; i++ {
		line := &order.Lines[i]
		if line.Status != fulfillment.OrderLineStatusPending {
			continue
		}

		candidates, err := s.buildCandidates(ctx, line.SKU)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}

		decision, err := s.decide(candidates, line.Quantity, constraints)
		if err != nil {
			if errors.Is(err, shared.ErrNoSupplierAvailable) {
				s.metrics.RecordRoutingFailure(ctx, line.SKU)
			}
			telemetry.RecordError(span, err)
			return nil, err
		}

		if decision.Selection != nil {
			po, err := s.routeWholeLine(ctx, line, decision.Selection)
			if err != nil {
				telemetry.RecordError(span, err)
				return nil, err
			}
			created = append(created, po)
			continue
		}

		children, err := s.routeSplitLine(ctx, order, line, decision.Split)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		created = append(created, children...)
	}

	if order.IsFullyRouted() {
		order.MarkRouted()
	}

	err = s.txManager.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.SaveTx(tx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		for _, po := range created {
			if err := s.poRepo.SaveTx(tx, po); err != nil {
				return fmt.Errorf("failed to save production order: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Order routed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("production_orders", len(created)),
		zap.Bool("fully_routed", order.Status == fulfillment.CustomerOrderStatusRouted),
	)

	result := &RouteOrderResult{
		OrderID:          order.ID,
		ProductionOrders: created,
		FullyRouted:      order.Status == fulfillment.CustomerOrderStatusRouted,
	}
	if len(created) == 0 {
		// Nothing was pending. Report the production orders an earlier call
		// created so a retry sees the same outcome as the original.
		existing, err := s.poRepo.FindByCustomerOrderID(ctx, order.ID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to load production orders: %w", err)
		}
		result.ProductionOrders = make([]*fulfillment.ProductionOrder, len(existing))
		for i := range existing {
			result.ProductionOrders[i] = &existing[i]
		}
	}
	return result, nil
}

func (s *RoutingService) routeWholeLine(ctx context.Context, line *fulfillment.OrderLine, selection *routing.Selection) (*fulfillment.ProductionOrder, error) {
	if err := line.MarkRouted(); err != nil {
		return nil, err
	}
	po, err := fulfillment.NewProductionOrder(line, selection.SupplierID, selection.UnitCost, selection.LeadTimeDays, selection.Provisional)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRoutingDecision(ctx, selection.SupplierCode, selection.Provisional)
	return po, nil
}

func (s *RoutingService) routeSplitLine(ctx context.Context, order *fulfillment.CustomerOrder, line *fulfillment.OrderLine, plan *routing.SplitPlan) ([]*fulfillment.ProductionOrder, error) {
	if err := line.MarkSplit(); err != nil {
		return nil, err
	}

	created := make([]*fulfillment.ProductionOrder, 0, len(plan.Allocations))
	for _, alloc := range plan.Allocations {
		child, err := line.SplitInto(alloc.Quantity)
		if err != nil {
			return nil, err
		}
		if err := child.MarkRouted(); err != nil {
			return nil, err
		}
		po, err := fulfillment.NewProductionOrder(child, alloc.SupplierID, alloc.UnitCost, alloc.LeadTimeDays, alloc.Stale)
		if err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, *child)
		created = append(created, po)
		s.metrics.RecordRoutingDecision(ctx, alloc.SupplierCode, alloc.Stale)
	}

	s.metrics.RecordRoutingSplit(ctx, len(plan.Allocations))
	return created, nil
}

// buildCandidates joins the snapshot cache with the supplier directory for
// one SKU. Inactive and blocked suppliers never become candidates.
func (s *RoutingService) buildCandidates(ctx context.Context, sku string) ([]routing.Candidate, error) {
	snapshots, err := s.snapshotRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	now := time.Now()
	candidates := make([]routing.Candidate, 0, len(snapshots))
	for i := range snapshots {
		snapshot := &snapshots[i]
		supplier, err := s.supplierRepo.FindByID(ctx, snapshot.SupplierID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load supplier: %w", err)
		}
		if !supplier.IsActive() {
			continue
		}
		candidates = append(candidates, routing.Candidate{
			SupplierID:     supplier.ID,
			SupplierCode:   supplier.Code,
			UnitCost:       snapshot.UnitCost,
			LeadTimeDays:   snapshot.LeadTimeDays,
			QuantityOnHand: snapshot.QuantityOnHand,
			Reliability:    supplier.ReliabilityScore(),
			SyncedAt:       snapshot.SyncedAt,
			Stale:          snapshot.IsStale(s.cfg.FreshnessWindow, now),
		})
	}
	return candidates, nil
}
