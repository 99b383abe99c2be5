package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	gormlogger "gorm.io/gorm/logger"

	"go.uber.org/zap"

	appbilling "github.com/propman/backend/internal/application/billing"
	appinspection "github.com/propman/backend/internal/application/inspection"
	billinggw "github.com/propman/backend/internal/infrastructure/billing"
	"github.com/propman/backend/internal/infrastructure/cache"
	"github.com/propman/backend/internal/infrastructure/config"
	"github.com/propman/backend/internal/infrastructure/event"
	"github.com/propman/backend/internal/infrastructure/logger"
	"github.com/propman/backend/internal/infrastructure/persistence"
	"github.com/propman/backend/internal/infrastructure/telemetry"
	"github.com/propman/backend/internal/interfaces/http/handler"
	"github.com/propman/backend/internal/interfaces/http/middleware"
	"github.com/propman/backend/internal/interfaces/http/router"

	"github.com/propman/backend/internal/infrastructure/auth"
)

const serviceVersion = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting propman backend",
		zap.String("env", cfg.App.Env),
		zap.String("version", serviceVersion))

	// Database
	gormLogLevel := gormlogger.Warn
	if cfg.App.Env == "development" {
		gormLogLevel = gormlogger.Info
	}
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database,
		logger.NewGormLogger(log, gormLogLevel))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Tracing
	ctx := context.Background()
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Warn("tracer provider shutdown failed", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry.Enabled, log); err != nil {
		log.Fatal("failed to register database tracing", zap.Error(err))
	}

	// Repositories
	inspRepo := persistence.NewGormInspectionRepository(db.DB)
	meterRepo := persistence.NewGormMeterRepository(db.DB)
	tierRepo := persistence.NewGormPricingTierRepository(db.DB)
	assetCatalog := persistence.NewGormAssetCatalog(db.DB)

	// Billing gateway and application services
	gateway, err := billinggw.NewHTTPGateway(&billinggw.Config{
		BaseURL: cfg.Billing.BaseURL,
		APIKey:  cfg.Billing.APIKey,
		Timeout: cfg.Billing.Timeout,
	})
	if err != nil {
		log.Fatal("failed to create billing gateway", zap.Error(err))
	}

	reconciliationService := appbilling.NewReconciliationService(
		gateway, inspRepo, meterRepo, tierRepo, log)
	reconciliationService.SetRetrySchedule(cfg.Reconciliation.MaxAttempts, cfg.Reconciliation.RetryDelay)

	lifecycleService := appinspection.NewLifecycleService(
		inspRepo, assetCatalog, meterRepo, reconciliationService)
	lifecycleService.SetReloadSchedule(cfg.Reconciliation.ReloadRetries, cfg.Reconciliation.ReloadDelay)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("failed to start event bus", zap.Error(err))
	}
	lifecycleService.SetEventPublisher(eventBus)
	eventBus.Subscribe(appbilling.NewInspectionCompletedHandler(reconciliationService, log))

	// Auth and idempotency
	jwtService := auth.NewJWTService(cfg.JWT)
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(),
	).CreateStore()
	if err != nil {
		log.Fatal("failed to create idempotency store", zap.Error(err))
	}
	defer idempotencyStore.Close()

	// Handlers
	inspectionHandler := handler.NewInspectionHandler(lifecycleService, log)
	billingHandler := handler.NewBillingHandler(reconciliationService, log)
	systemHandler := handler.NewSystemHandler(serviceVersion, log)

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("failed to set up request validator", zap.Error(err))
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName))
		engine.Use(middleware.SpanErrorMarker())
	}

	engine.GET("/health", healthHandler(db))

	// Routes
	r := router.NewRouter(engine)
	r.Use(middleware.JWT(middleware.JWTConfig{
		Service:   jwtService,
		SkipPaths: []string{router.APIVersion + "/system/ping"},
	}))

	inspections := router.NewDomainGroup("/inspections")
	inspections.AddRoutes(func(g *gin.RouterGroup) {
		g.POST("", inspectionHandler.Create)
		g.GET("", inspectionHandler.List)
		g.GET("/:id", inspectionHandler.GetByID)
		g.PUT("/:id/inspector", inspectionHandler.AssignInspector)
		g.POST("/:id/start", inspectionHandler.Start)
		g.PUT("/:id/items/:itemId", inspectionHandler.UpdateItem)
		g.POST("/:id/complete",
			middleware.Idempotency(idempotencyStore, middleware.DefaultIdempotencyTTL, log),
			inspectionHandler.Complete)
		g.POST("/:id/cancel", inspectionHandler.Cancel)
		g.POST("/:id/recalculate", middleware.RequireManager(), inspectionHandler.Recalculate)
		g.GET("/:id/billing", billingHandler.Summary)
	})
	r.AddRegistrar(inspections)

	billingGroup := router.NewDomainGroup("/billing")
	billingGroup.AddRoutes(func(g *gin.RouterGroup) {
		g.POST("/utility-preview", billingHandler.PreviewUtilityCost)
	})
	r.AddRegistrar(billingGroup)

	system := router.NewDomainGroup("/system")
	system.AddRoutes(func(g *gin.RouterGroup) {
		g.GET("/ping", systemHandler.Ping)
		g.GET("/info", systemHandler.Info)
	})
	r.AddRegistrar(system)

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("event bus stop failed", zap.Error(err))
	}
	log.Info("server stopped")
}

// healthHandler reports liveness including database connectivity.
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB.DB()
		if err == nil {
			pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(pingCtx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}
