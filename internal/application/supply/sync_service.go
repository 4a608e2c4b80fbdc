package supply

import (
	"context"
	"fmt"
	"time"

	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/giftbridge/backend/internal/infrastructure/config"
	"github.com/giftbridge/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncService reconciles the inventory cache against supplier catalogs with
// a full poll per supplier. The poll overwrites whatever webhooks wrote in
// the meantime, which is the intended repair path for missed deliveries.
type SyncService struct {
	supplierRepo supply.SupplierRepository
	snapshotRepo supply.InventorySnapshotRepository
	registry     *supply.AdapterRegistry
	locks        *SnapshotLocks
	cfg          config.SyncConfig
	logger       *zap.Logger
	metrics      *telemetry.BusinessMetrics
}

// NewSyncService creates a new SyncService
func NewSyncService(
	supplierRepo supply.SupplierRepository,
	snapshotRepo supply.InventorySnapshotRepository,
	registry *supply.AdapterRegistry,
	locks *SnapshotLocks,
	cfg config.SyncConfig,
	logger *zap.Logger,
	metrics *telemetry.BusinessMetrics,
) *SyncService {
	return &SyncService{
		supplierRepo: supplierRepo,
		snapshotRepo: snapshotRepo,
		registry:     registry,
		locks:        locks,
		cfg:          cfg,
		logger:       logger,
		metrics:      metrics,
	}
}

// SyncSupplier fully polls one supplier's catalog and replaces its
// snapshots. Returns the number of SKUs synced.
func (s *SyncService) SyncSupplier(ctx context.Context, supplierID uuid.UUID) (int, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sync", "sync_supplier")
	defer span.End()

	telemetry.SetAttribute(span, telemetry.SpanAttrSupplierID, supplierID.String())

	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to get supplier: %w", err)
	}

	adapter, err := s.registry.Resolve(supplier.AdapterCode)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}

	pollCtx := ctx
	if s.cfg.PollTimeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, s.cfg.PollTimeout)
		defer cancel()
	}

	started := time.Now()
	catalog, err := adapter.FetchCatalog(pollCtx, supplier)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to fetch catalog for %s: %w", supplier.Code, err)
	}

	snapshots := make([]supply.InventorySnapshot, 0, len(catalog))
	for _, item := range catalog {
		snapshot, err := supply.NewInventorySnapshot(
			supplier.ID, item.SKU, item.QuantityOnHand, item.UnitCost, item.LeadTimeDays,
			supply.SnapshotSourcePoll,
		)
		if err != nil {
			s.logger.Warn("Skipping invalid catalog item",
				zap.String("supplier_code", supplier.Code),
				zap.String("sku", item.SKU),
				zap.Error(err),
			)
			continue
		}
		snapshots = append(snapshots, *snapshot)
	}

	// Hold the supplier exclusively so a webhook delta's read-modify-write
	// cannot interleave with the delete-and-recreate.
	unlock := s.locks.LockSupplier(supplier.ID)
	err = s.snapshotRepo.ReplaceForSupplier(ctx, supplier.ID, snapshots)
	unlock()
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to replace snapshots for %s: %w", supplier.Code, err)
	}

	elapsed := time.Since(started)
	s.metrics.RecordSyncDuration(ctx, supplier.Code, elapsed.Seconds())
	s.logger.Info("Supplier catalog synced",
		zap.String("supplier_code", supplier.Code),
		zap.Int("sku_count", len(snapshots)),
		zap.Duration("elapsed", elapsed),
	)
	return len(snapshots), nil
}

// SyncAllActive polls every active supplier. One supplier failing does not
// stop the rest; the error count comes back with the summary.
func (s *SyncService) SyncAllActive(ctx context.Context) (synced, failed int) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sync", "sync_all_active")
	defer span.End()

	suppliers, err := s.supplierRepo.FindAllActive(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to list active suppliers for sync", zap.Error(err))
		return 0, 0
	}

	for _, supplier := range suppliers {
		if _, err := s.SyncSupplier(ctx, supplier.ID); err != nil {
			failed++
			s.logger.Error("Supplier sync failed",
				zap.String("supplier_code", supplier.Code),
				zap.Error(err),
			)
			continue
		}
		synced++
	}

	telemetry.SetAttributes(span, "synced", synced, "failed", failed)
	return synced, failed
}
