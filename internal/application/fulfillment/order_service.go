package fulfillment

import (
	"context"
	"fmt"

	"github.com/giftbridge/backend/internal/domain/fulfillment"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/shared/valueobject"
	"github.com/giftbridge/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService handles customer order intake, views and cancellation
type OrderService struct {
	orderRepo fulfillment.CustomerOrderRepository
	poRepo    fulfillment.ProductionOrderRepository
	txManager TransactionManager
	logger    *zap.Logger
	metrics   *telemetry.BusinessMetrics
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo fulfillment.CustomerOrderRepository,
	poRepo fulfillment.ProductionOrderRepository,
	txManager TransactionManager,
	logger *zap.Logger,
	metrics *telemetry.BusinessMetrics,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		poRepo:    poRepo,
		txManager: txManager,
		logger:    logger,
		metrics:   metrics,
	}
}

// OrderLineInput is one SKU+quantity item of an incoming order
type OrderLineInput struct {
	SKU       string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// CreateOrderRequest registers a customer order for routing
type CreateOrderRequest struct {
	OrderNumber string
	CustomerRef string
	Lines       []OrderLineInput
}

// CreateOrder registers a customer order with its lines
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*fulfillment.CustomerOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create_order")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrOrderNumber, req.OrderNumber)

	if len(req.Lines) == 0 {
		err := shared.NewDomainError("INVALID_INPUT", "Order must have at least one line")
		telemetry.RecordError(span, err)
		return nil, err
	}

	exists, err := s.orderRepo.ExistsByOrderNumber(ctx, req.OrderNumber)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check order number: %w", err)
	}
	if exists {
		telemetry.RecordError(span, shared.ErrAlreadyExists)
		return nil, shared.ErrAlreadyExists
	}

	order, err := fulfillment.NewCustomerOrder(req.OrderNumber, req.CustomerRef)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	for _, line := range req.Lines {
		if _, err := order.AddLine(line.SKU, line.Quantity, valueobject.NewMoneyUSD(line.UnitPrice)); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Info("Customer order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("lines", len(order.Lines)),
	)
	return order, nil
}

// OrderView is a customer order with its production orders and the
// aggregate shippable state
type OrderView struct {
	Order            *fulfillment.CustomerOrder    `json:"order"`
	ProductionOrders []fulfillment.ProductionOrder `json:"production_orders"`
	ReadyToShip      bool                          `json:"ready_to_ship"`
}

// GetOrder returns the order with its production orders. The order is
// ready to ship when every production order is completed with its kitting
// checklist fully scanned.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "get_order")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, id.String())

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	pos, err := s.poRepo.FindByCustomerOrderID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load production orders: %w", err)
	}

	ready := order.Status == fulfillment.CustomerOrderStatusRouted && len(pos) > 0
	for i := range pos {
		if !pos[i].ReadyToShip() {
			ready = false
			break
		}
	}

	return &OrderView{
		Order:            order,
		ProductionOrders: pos,
		ReadyToShip:      ready,
	}, nil
}

// ListOrders returns orders matching the filter
func (s *OrderService) ListOrders(ctx context.Context, filter shared.Filter) ([]fulfillment.CustomerOrder, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "list_orders")
	defer span.End()

	orders, err := s.orderRepo.FindAll(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// CancelOrderResult reports what cancellation did to in-flight work
type CancelOrderResult struct {
	Order     *fulfillment.CustomerOrder `json:"order"`
	Cancelled int                        `json:"cancelled_production_orders"`
	Escalated int                        `json:"escalated_production_orders"`
}

// CancelOrder cancels a customer order. Production orders that have not
// reached the supplier (CREATED, or CONFIRMED but still provisional) are
// cancelled with it; anything further along is escalated for an operator
// to resolve with the supplier, never aborted automatically.
func (s *OrderService) CancelOrder(ctx context.Context, id uuid.UUID, reason, actor string) (*CancelOrderResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "cancel_order")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, id.String())

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if err := order.Cancel(reason); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	pos, err := s.poRepo.FindByCustomerOrderID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load production orders: %w", err)
	}

	result := &CancelOrderResult{Order: order}
	toSave := make([]*fulfillment.ProductionOrder, 0, len(pos))
	for i := range pos {
		po := &pos[i]
		switch {
		case po.Status.IsTerminal():
			continue
		case po.Status == fulfillment.ProductionOrderStatusCreated,
			po.Status == fulfillment.ProductionOrderStatusConfirmed && po.Provisional:
			if err := po.TransitionTo(fulfillment.ProductionOrderStatusCancelled, actor, reason); err != nil {
				telemetry.RecordError(span, err)
				return nil, err
			}
			result.Cancelled++
		default:
			po.Escalate(fmt.Sprintf("customer order cancelled while %s", po.Status))
			result.Escalated++
			s.metrics.RecordEscalation(ctx, "order_cancelled")
		}
		toSave = append(toSave, po)
	}

	err = s.txManager.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.SaveTx(tx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		for _, po := range toSave {
			if err := s.poRepo.SaveWithLockTx(tx, po); err != nil {
				return fmt.Errorf("failed to save production order: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Customer order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("reason", reason),
		zap.Int("cancelled_pos", result.Cancelled),
		zap.Int("escalated_pos", result.Escalated),
	)
	return result, nil
}
