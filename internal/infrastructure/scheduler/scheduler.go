package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appfulfillment "github.com/giftbridge/backend/internal/application/fulfillment"
	appsupply "github.com/giftbridge/backend/internal/application/supply"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/giftbridge/backend/internal/infrastructure/config"
)

// Scheduler runs the periodic background work: polling supplier catalogs,
// confirming provisionally routed production orders after each fresh sync,
// and sweeping production orders that blew through the SLA.
type Scheduler struct {
	syncService  *appsupply.SyncService
	production   *appfulfillment.ProductionService
	supplierRepo supply.SupplierRepository
	syncCfg      config.SyncConfig
	routingCfg   config.RoutingConfig
	logger       *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new Scheduler
func NewScheduler(
	syncService *appsupply.SyncService,
	production *appfulfillment.ProductionService,
	supplierRepo supply.SupplierRepository,
	syncCfg config.SyncConfig,
	routingCfg config.RoutingConfig,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		syncService:  syncService,
		production:   production,
		supplierRepo: supplierRepo,
		syncCfg:      syncCfg,
		routingCfg:   routingCfg,
		logger:       logger,
	}
}

// Start launches the sync and sweep loops. A no-op when sync is disabled
// or the scheduler is already running.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.syncCfg.Enabled {
		s.logger.Info("Background sync disabled, scheduler not started")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(2)
	go s.syncLoop(ctx)
	go s.sweepLoop(ctx)

	s.logger.Info("Scheduler started",
		zap.Duration("sync_interval", s.syncCfg.Interval),
		zap.Duration("sla_sweep_every", s.syncCfg.SLASweepEvery),
	)
	return nil
}

// Stop stops the loops and waits for in-flight runs to finish, bounded by
// the passed context.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) syncLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.syncCfg.Interval)
	defer ticker.Stop()

	// Run immediately on start
	s.runSync(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

// runSync polls every active supplier, then re-checks provisional
// production orders against the snapshots the poll just refreshed.
func (s *Scheduler) runSync(ctx context.Context) {
	synced, failed := s.syncService.SyncAllActive(ctx)
	s.logger.Info("Inventory sync cycle finished",
		zap.Int("synced", synced),
		zap.Int("failed", failed),
	)

	suppliers, err := s.supplierRepo.FindAllActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list active suppliers for provisional confirmation", zap.Error(err))
		return
	}
	for i := range suppliers {
		confirmed, err := s.production.ConfirmProvisionalOrders(ctx, suppliers[i].ID, s.routingCfg.FreshnessWindow)
		if err != nil {
			s.logger.Error("Failed to confirm provisional orders",
				zap.String("supplier_code", suppliers[i].Code),
				zap.Error(err),
			)
			continue
		}
		if confirmed > 0 {
			s.logger.Info("Provisional production orders confirmed",
				zap.String("supplier_code", suppliers[i].Code),
				zap.Int("confirmed", confirmed),
			)
		}
	}
}

func (s *Scheduler) sweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.syncCfg.SLASweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			escalated, err := s.production.SweepStuckOrders(ctx)
			if err != nil {
				s.logger.Error("SLA sweep failed", zap.Error(err))
				continue
			}
			if escalated > 0 {
				s.logger.Warn("Stuck production orders escalated", zap.Int("escalated", escalated))
			}
		}
	}
}
