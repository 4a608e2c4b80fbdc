package supply

import (
	"context"
	"errors"
	"fmt"

	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/giftbridge/backend/internal/infrastructure/config"
	"github.com/giftbridge/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WebhookOutcome describes what ingestion did with a delivery
type WebhookOutcome string

const (
	// WebhookOutcomeApplied means the delta was applied to the snapshot
	WebhookOutcomeApplied WebhookOutcome = "applied"
	// WebhookOutcomeDuplicate means the delivery was already processed
	WebhookOutcomeDuplicate WebhookOutcome = "duplicate"
	// WebhookOutcomeIgnored means the payload parsed to an unknown kind
	WebhookOutcomeIgnored WebhookOutcome = "ignored"
)

// WebhookResult is the ingestion outcome returned to the HTTP layer.
// Duplicates and unknown kinds are successes from the supplier's point of
// view; only signature failures and storage errors surface as errors.
type WebhookResult struct {
	Outcome WebhookOutcome `json:"outcome"`
	EventID string         `json:"event_id"`
	Kind    string         `json:"kind"`
}

// WebhookService ingests supplier webhook deliveries. The unique
// (supplier_code, event_id) row inserted in the delta-applying transaction
// is the idempotency authority; the shared.IdempotencyStore in front of it
// only short-circuits retried deliveries without a database round trip.
type WebhookService struct {
	supplierRepo supply.SupplierRepository
	snapshotRepo supply.InventorySnapshotRepository
	eventRepo    supply.WebhookEventRepository
	registry     *supply.AdapterRegistry
	dedupStore   shared.IdempotencyStore
	txManager    TransactionManager
	locks        *SnapshotLocks
	cfg          config.WebhookConfig
	logger       *zap.Logger
	metrics      *telemetry.BusinessMetrics
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(
	supplierRepo supply.SupplierRepository,
	snapshotRepo supply.InventorySnapshotRepository,
	eventRepo supply.WebhookEventRepository,
	registry *supply.AdapterRegistry,
	dedupStore shared.IdempotencyStore,
	txManager TransactionManager,
	locks *SnapshotLocks,
	cfg config.WebhookConfig,
	logger *zap.Logger,
	metrics *telemetry.BusinessMetrics,
) *WebhookService {
	return &WebhookService{
		supplierRepo: supplierRepo,
		snapshotRepo: snapshotRepo,
		eventRepo:    eventRepo,
		registry:     registry,
		dedupStore:   dedupStore,
		txManager:    txManager,
		locks:        locks,
		cfg:          cfg,
		logger:       logger,
		metrics:      metrics,
	}
}

// ProcessWebhook verifies, parses and applies one webhook delivery.
// Returns shared.ErrWebhookSignatureInvalid when the payload cannot be
// attributed to the supplier.
func (s *WebhookService) ProcessWebhook(ctx context.Context, supplierCode string, payload []byte, signature string) (*WebhookResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "webhook", "process_webhook")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrSupplierCode, supplierCode)

	supplier, err := s.supplierRepo.FindByCode(ctx, supplierCode)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}

	adapter, err := s.registry.Resolve(supplier.AdapterCode)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := adapter.VerifyWebhookSignature(supplier, payload, signature); err != nil {
		s.metrics.RecordWebhookRejected(ctx, supplierCode)
		s.logger.Warn("Webhook signature verification failed",
			zap.String("supplier_code", supplierCode),
		)
		telemetry.RecordError(span, err)
		return nil, err
	}

	event, err := adapter.ParseWebhookEvent(payload)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrWebhookEventID, event.EventID)

	if event.Kind == supply.WebhookEventUnknown {
		s.logger.Info("Webhook event kind not recognized, acknowledged without effect",
			zap.String("supplier_code", supplierCode),
			zap.String("event_id", event.EventID),
		)
		return &WebhookResult{Outcome: WebhookOutcomeIgnored, EventID: event.EventID, Kind: string(event.Kind)}, nil
	}

	dedupKey := supplierCode + ":" + event.EventID
	seen, err := s.dedupStore.IsProcessed(ctx, dedupKey)
	if err != nil {
		// The store is only a fast path; fall through to the database check.
		s.logger.Warn("Dedup store lookup failed", zap.Error(err))
	}
	if seen {
		s.metrics.RecordWebhookDuplicate(ctx, supplierCode)
		return &WebhookResult{Outcome: WebhookOutcomeDuplicate, EventID: event.EventID, Kind: string(event.Kind)}, nil
	}

	outcome, err := s.applyEvent(ctx, supplier, supplierCode, event)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if outcome == WebhookOutcomeApplied {
		if _, err := s.dedupStore.MarkProcessed(ctx, dedupKey, s.cfg.DedupTTL); err != nil {
			s.logger.Warn("Dedup store mark failed", zap.Error(err))
		}
		s.metrics.RecordWebhookReceived(ctx, supplierCode, string(event.Kind))
	} else {
		s.metrics.RecordWebhookDuplicate(ctx, supplierCode)
	}

	return &WebhookResult{Outcome: outcome, EventID: event.EventID, Kind: string(event.Kind)}, nil
}

// applyEvent applies the delta and records the idempotency row in one
// transaction. A duplicate (supplier_code, event_id) insert rolls the
// whole thing back.
func (s *WebhookService) applyEvent(ctx context.Context, supplier *supply.Supplier, supplierCode string, event *supply.WebhookEvent) (WebhookOutcome, error) {
	var sku string
	switch event.Kind {
	case supply.WebhookEventInventoryDelta:
		sku = event.InventoryDelta.SKU
	case supply.WebhookEventPricingDelta:
		sku = event.PricingDelta.SKU
	}

	unlock := s.locks.LockSKU(supplier.ID, sku)
	defer unlock()

	snapshot, err := s.snapshotRepo.FindBySupplierAndSKU(ctx, supplier.ID, sku)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return "", fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snapshot == nil || errors.Is(err, shared.ErrNotFound) {
		snapshot, err = s.newSnapshotFromEvent(supplier, sku, event)
		if err != nil {
			return "", err
		}
	} else {
		switch event.Kind {
		case supply.WebhookEventInventoryDelta:
			snapshot.ApplyQuantityDelta(event.InventoryDelta.QuantityDelta)
		case supply.WebhookEventPricingDelta:
			if err := snapshot.ApplyPricing(event.PricingDelta.UnitCost, event.PricingDelta.LeadTimeDays); err != nil {
				return "", err
			}
		}
	}

	record, err := supply.NewProcessedWebhookEvent(supplierCode, event.EventID, event.Kind)
	if err != nil {
		return "", err
	}

	err = s.txManager.Transaction(func(tx *gorm.DB) error {
		if err := s.eventRepo.InsertTx(tx, record); err != nil {
			return err
		}
		return s.snapshotRepo.SaveTx(tx, snapshot)
	})
	if errors.Is(err, shared.ErrAlreadyExists) {
		return WebhookOutcomeDuplicate, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to apply webhook event: %w", err)
	}

	s.logger.Info("Webhook event applied",
		zap.String("supplier_code", supplierCode),
		zap.String("event_id", event.EventID),
		zap.String("kind", string(event.Kind)),
		zap.String("sku", sku),
	)
	return WebhookOutcomeApplied, nil
}

// newSnapshotFromEvent creates a snapshot for a SKU first seen via webhook.
// A negative opening delta clamps to zero, matching ApplyQuantityDelta.
func (s *WebhookService) newSnapshotFromEvent(supplier *supply.Supplier, sku string, event *supply.WebhookEvent) (*supply.InventorySnapshot, error) {
	qty := decimal.Zero
	unitCost := decimal.Zero
	leadTimeDays := 0
	if event.Kind == supply.WebhookEventInventoryDelta && event.InventoryDelta.QuantityDelta.IsPositive() {
		qty = event.InventoryDelta.QuantityDelta
	}
	if event.Kind == supply.WebhookEventPricingDelta {
		unitCost = event.PricingDelta.UnitCost
		leadTimeDays = event.PricingDelta.LeadTimeDays
	}
	return supply.NewInventorySnapshot(supplier.ID, sku, qty, unitCost, leadTimeDays, supply.SnapshotSourceWebhook)
}
