package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	fulfillmentapp "github.com/giftbridge/backend/internal/application/fulfillment"
	routingapp "github.com/giftbridge/backend/internal/application/routing"
	settlementapp "github.com/giftbridge/backend/internal/application/settlement"
	supplyapp "github.com/giftbridge/backend/internal/application/supply"
	"github.com/giftbridge/backend/internal/domain/shared"
	"github.com/giftbridge/backend/internal/domain/supply"
	"github.com/giftbridge/backend/internal/infrastructure/adapters"
	"github.com/giftbridge/backend/internal/infrastructure/cache"
	"github.com/giftbridge/backend/internal/infrastructure/config"
	"github.com/giftbridge/backend/internal/infrastructure/logger"
	"github.com/giftbridge/backend/internal/infrastructure/persistence"
	"github.com/giftbridge/backend/internal/infrastructure/scheduler"
	"github.com/giftbridge/backend/internal/infrastructure/telemetry"
	"github.com/giftbridge/backend/internal/interfaces/http/dto"
	"github.com/giftbridge/backend/internal/interfaces/http/handler"
	"github.com/giftbridge/backend/internal/interfaces/http/middleware"
	"github.com/giftbridge/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting GiftBridge Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry providers. No-ops when disabled.
	ctx := context.Background()
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    30 * time.Second,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	metrics, err := telemetry.NewBusinessMetrics()
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, cfg.Database.DBName, log); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Webhook deduplication store. Redis gives the fast path shared across
	// instances; the in-memory store keeps a single instance working when
	// Redis is unreachable (the database unique index remains the authority).
	var dedupStore shared.IdempotencyStore
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, falling back to in-memory webhook dedup", zap.Error(err))
		_ = redisClient.Close()
		dedupStore = cache.NewInMemoryIdempotencyStore()
	} else {
		dedupStore = cache.NewRedisIdempotencyStore(redisClient, "giftbridge:webhook")
		log.Info("Redis connected successfully")
	}
	pingCancel()
	defer func() {
		if err := dedupStore.Close(); err != nil {
			log.Error("Error closing dedup store", zap.Error(err))
		}
	}()

	// Supplier adapter registry
	registry := supply.NewAdapterRegistry(
		adapters.NewStandardJSONAdapter(log, adapters.StandardJSONAdapterOptions{
			Timeout:    cfg.Sync.PollTimeout,
			MaxRetries: cfg.Webhook.MaxRetries,
			BaseDelay:  cfg.Webhook.RetryBaseDelay,
		}),
	)

	// Initialize repositories
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	snapshotRepo := persistence.NewGormInventorySnapshotRepository(db.DB)
	eventRepo := persistence.NewGormWebhookEventRepository(db.DB)
	orderRepo := persistence.NewGormCustomerOrderRepository(db.DB)
	poRepo := persistence.NewGormProductionOrderRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	payoutRepo := persistence.NewGormPayoutRequestRepository(db.DB)

	// Initialize application services. Webhook deltas and full syncs write
	// the same snapshot rows, so both services share one lock set.
	snapshotLocks := supplyapp.NewSnapshotLocks()
	supplierService := supplyapp.NewSupplierService(supplierRepo, registry, log)
	syncService := supplyapp.NewSyncService(supplierRepo, snapshotRepo, registry, snapshotLocks, cfg.Sync, log, metrics)
	webhookService := supplyapp.NewWebhookService(supplierRepo, snapshotRepo, eventRepo, registry, dedupStore, db, snapshotLocks, cfg.Webhook, log, metrics)
	routingService := routingapp.NewRoutingService(orderRepo, poRepo, supplierRepo, snapshotRepo, db, cfg.Routing, log, metrics)
	orderService := fulfillmentapp.NewOrderService(orderRepo, poRepo, db, log, metrics)
	productionService := fulfillmentapp.NewProductionService(poRepo, ledgerRepo, snapshotRepo, db, cfg.Fulfillment, log, metrics)
	ledgerService := settlementapp.NewLedgerService(ledgerRepo, supplierRepo, log)
	payoutService := settlementapp.NewPayoutService(payoutRepo, ledgerRepo, supplierRepo, db, log, metrics)

	// Background sync and SLA sweep
	sched := scheduler.NewScheduler(syncService, productionService, supplierRepo, cfg.Sync, cfg.Routing, log)
	if err := sched.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Initialize handlers
	routingHandler := handler.NewRoutingHandler(routingService)
	orderHandler := handler.NewOrderHandler(orderService)
	productionHandler := handler.NewProductionHandler(productionService)
	financeHandler := handler.NewFinanceHandler(ledgerService, payoutService)
	supplierHandler := handler.NewSupplierHandler(supplierService, syncService)
	webhookHandler := handler.NewWebhookHandler(webhookService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	if err := dto.RegisterValidations(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - OpenTelemetry request spans
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.CORS(cfg.HTTP))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Supplier webhook endpoints. Called directly by supplier systems and
	// authenticated by HMAC signature, not by operator headers.
	webhookGroup := engine.Group("/api/v1/webhooks")
	webhookGroup.POST("/suppliers/:supplierCode", webhookHandler.Receive)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	routingRoutes := router.NewDomainGroup("routing", "/routing").
		GET("/inventory/:sku", routingHandler.GetInventory).
		POST("/select-supplier", routingHandler.SelectSupplier).
		POST("/route-order/:orderId", routingHandler.RouteOrder)

	orderRoutes := router.NewDomainGroup("orders", "/orders").
		POST("", orderHandler.Create).
		GET("", orderHandler.List).
		GET("/:id", orderHandler.Get).
		POST("/:id/cancel", orderHandler.Cancel)

	productionRoutes := router.NewDomainGroup("production", "/production-orders").
		GET("/:id", productionHandler.Get).
		PUT("/:id/status", productionHandler.UpdateStatus).
		POST("/:id/qc", productionHandler.RecordQC).
		POST("/:id/kitting/items", productionHandler.AddKittingItem).
		POST("/:id/kitting/scan", productionHandler.ScanKittingItem).
		POST("/:id/escalation/clear", productionHandler.ClearEscalation)

	financeRoutes := router.NewDomainGroup("finance", "/finance").
		GET("/ledger", financeHandler.ListLedger).
		GET("/balance/:supplierId", financeHandler.GetBalance).
		POST("/adjustments", financeHandler.PostAdjustment).
		POST("/payouts", financeHandler.CreatePayout).
		GET("/payouts", financeHandler.ListPayouts).
		GET("/payouts/:id", financeHandler.GetPayout).
		POST("/payouts/:id/approve", financeHandler.ApprovePayout).
		POST("/payouts/:id/confirm", financeHandler.ConfirmPayout).
		POST("/payouts/:id/reject", financeHandler.RejectPayout)

	supplierRoutes := router.NewDomainGroup("suppliers", "/suppliers").
		POST("", supplierHandler.Register).
		GET("", supplierHandler.List).
		GET("/:id", supplierHandler.Get).
		POST("/:id/activate", supplierHandler.Activate).
		POST("/:id/deactivate", supplierHandler.Deactivate).
		POST("/:id/block", supplierHandler.Block).
		POST("/:id/performance", supplierHandler.RecordPerformance).
		POST("/:id/sync", supplierHandler.Sync)

	r.Register(routingRoutes).
		Register(orderRoutes).
		Register(productionRoutes).
		Register(financeRoutes).
		Register(supplierRoutes)

	// Setup routes
	r.Setup()

	// Simple ping for basic liveness checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler did not stop cleanly", zap.Error(err))
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
