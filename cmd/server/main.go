package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appbyom "github.com/merch/byom/internal/application/byom"
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/infrastructure/auth"
	"github.com/merch/byom/internal/infrastructure/cache"
	"github.com/merch/byom/internal/infrastructure/config"
	"github.com/merch/byom/internal/infrastructure/event"
	"github.com/merch/byom/internal/infrastructure/export"
	"github.com/merch/byom/internal/infrastructure/logger"
	"github.com/merch/byom/internal/infrastructure/migration"
	"github.com/merch/byom/internal/infrastructure/persistence"
	"github.com/merch/byom/internal/infrastructure/printing"
	"github.com/merch/byom/internal/infrastructure/storage"
	"github.com/merch/byom/internal/infrastructure/strategy"
	"github.com/merch/byom/internal/infrastructure/telemetry"
	"github.com/merch/byom/internal/interfaces/http/handler"
	"github.com/merch/byom/internal/interfaces/http/middleware"
	"github.com/merch/byom/internal/interfaces/http/router"
	"github.com/merch/byom/migrations"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//	@title			BYOM API
//	@version		1.0
//	@description	Build-your-own-merch customization, pricing and design approval API

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize telemetry, then tee exported logs into the application logger
	obs, err := setupTelemetry(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log = obs.bridgedLogger(logCfg, log)
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting BYOM service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database with zap-backed GORM logging, tracing and query metrics
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	dbMetrics, err := telemetry.NewDBMetricsPlugin(obs.meter.Meter("byom.db"), telemetry.DefaultDBMetricsConfig(), log)
	if err != nil {
		log.Fatal("Failed to create database metrics", zap.Error(err))
	}
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(gormLog),
		persistence.WithPlugins(
			telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry, "postgresql"), log),
			dbMetrics,
		),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbMetrics.StartPoolStatsCollection(ctx)
	defer dbMetrics.Stop()
	log.Info("Database connected successfully")

	if err := migrateUp(db.DB, cfg.Database.MigrationsPath, log); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Redis-backed stores with in-memory fallback
	stores := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	)
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()
	idempotency, err := stores.CreateIdempotencyStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotency.Close()
	}()

	drafts, closeDrafts, err := newDraftRepository(cfg, db, stores, gormLog)
	if err != nil {
		log.Fatal("Failed to open draft store", zap.Error(err))
	}
	defer closeDrafts()

	// Object storage for uploaded graphics
	objects, err := newObjectStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// Repositories
	designRepo := persistence.NewGormDesignRepository(db.DB)
	policyRepo := persistence.NewGormPricingPolicyRepository(db.DB)
	cartLineRepo := persistence.NewGormCartLineRepository(db.DB)

	// Pricing strategies
	basePrices := make(map[byom.MerchandiseType]int64, len(cfg.Pricing.BasePrices))
	for mt, price := range cfg.Pricing.BasePrices {
		basePrices[byom.MerchandiseType(mt)] = price
	}
	strategies, err := strategy.NewRegistryWithDefaults(basePrices, cfg.Pricing.Currency)
	if err != nil {
		log.Fatal("Failed to register pricing strategies", zap.Error(err))
	}

	// Business metrics
	metrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:          obs.meter.Meter("byom.workflow"),
		Logger:         log,
		StatusProvider: telemetry.NewGormDesignStatusProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	if obs.meter.IsEnabled() {
		metrics.StartPeriodicCollection(ctx, 0)
	}
	defer metrics.Stop()

	// Domain event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewIdempotentHandler("design_decision",
		appbyom.NewDesignDecisionHandler(log).WithNotifier(appbyom.NewLoggingOwnerNotifier(log)),
		idempotency, event.DefaultEventDedupTTL, log))
	eventBus.Subscribe(appbyom.NewReviewQueueHandler(log))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		_ = eventBus.Stop(context.Background())
	}()

	// Application services
	formatter := appbyom.NewPriceFormatter(cfg.Pricing.Locale)
	pricingService := appbyom.NewPricingService(policyRepo, strategies, eventBus, formatter, log).
		WithMetrics(metrics)
	draftService := appbyom.NewDraftService(drafts, log)
	uploader := appbyom.NewGraphicUploader(objects, appbyom.UploadConfig{
		MaxBytes:         cfg.Workflow.MaxUploadBytes,
		ThumbnailWidth:   cfg.Workflow.ThumbnailWidth,
		ThumbnailQuality: cfg.Workflow.ThumbnailQuality,
	}, log)

	proofTemplate, err := printing.NewProofTemplate(cfg.Pricing.StickerCatalogURL, formatter.Format)
	if err != nil {
		log.Fatal("Failed to parse proof sheet template", zap.Error(err))
	}
	proofRenderer := printing.NewChromeProofRenderer(printing.ChromeConfigFrom(cfg.Printing), log)
	defer func() {
		_ = proofRenderer.Close()
	}()

	designService := appbyom.NewDesignService(designRepo, cartLineRepo, pricingService, uploader, idempotency, eventBus, log).
		WithMetrics(metrics).
		WithSubmitGuardTTL(cfg.Workflow.SubmitGuardTTL).
		WithProofs(proofTemplate, proofRenderer).
		WithExporter(export.NewXLSXDesignExporter())
	pipeline := appbyom.NewSubmissionPipeline(designService, log).WithMetrics(metrics)

	editorService := appbyom.NewEditorService(draftService, pricingService, cfg.Editor.SessionIdleTimeout, log).
		WithMetrics(metrics)
	editorService.StartSweeper(ctx, cfg.Editor.SweepInterval)
	defer editorService.Stop()

	// Handlers
	handlers := router.Handlers{
		Editor:  handler.NewEditorHandler(editorService),
		Drafts:  handler.NewDraftHandler(draftService),
		Designs: handler.NewDesignHandler(designService, pipeline, cfg.Workflow.MaxUploadBytes),
		Pricing: handler.NewPricingHandler(pricingService),
		Admin:   handler.NewAdminHandler(designService, pricingService),
	}
	healthHandler := handler.NewHealthHandler(db, editorService)

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

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
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. Tracing and metrics
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     obs.tracer.IsEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(obs.meter, log))
	engine.Use(middleware.Profiling(obs.profiler.IsEnabled()))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler.Health)

	// API routes: authentication first, then span attributes and rate limits
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: auth.NewJWTService(cfg.JWT),
		Logger:     log,
	}))
	r.Use(middleware.TracingAttributeInjector())

	var submitGuard gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		apiLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer apiLimiter.Stop()
		submitLimiter := middleware.NewRateLimiter(cfg.HTTP.SubmitRateLimitRequests, cfg.HTTP.SubmitRateLimitWindow)
		defer submitLimiter.Stop()

		r.Use(middleware.RateLimit(apiLimiter))
		submitGuard = middleware.RateLimit(submitLimiter)
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
			zap.Int("submit_requests", cfg.HTTP.SubmitRateLimitRequests),
		)
	}

	r.Register(router.Groups(handlers, router.Guards{
		Submit: submitGuard,
		Admin:  middleware.RequireRole(auth.RoleAdmin),
	})...)
	r.Setup()

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()
	if err := obs.shutdown(shutdownCtx); err != nil {
		log.Warn("Telemetry shutdown incomplete", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrateUp applies pending schema migrations, from dir when set or the
// embedded set otherwise
func migrateUp(db *gorm.DB, dir string, log *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	var m *migration.Migrator
	if dir != "" {
		m, err = migration.NewFromDir(sqlDB, dir, log)
	} else {
		m, err = migration.NewEmbedded(sqlDB, migrations.FS, log)
	}
	if err != nil {
		return err
	}
	return m.Up()
}

// newDraftRepository selects the durable draft store. The returned func
// releases whatever the store opened.
func newDraftRepository(cfg *config.Config, db *persistence.Database, stores *cache.StoreFactory, gormLog *logger.GormLogger) (byom.DraftRepository, func(), error) {
	noop := func() {}
	switch cfg.Drafts.Backend {
	case "postgres":
		return persistence.NewGormDraftRepository(db.DB), noop, nil
	case "redis":
		repo, err := stores.CreateDraftStore(cfg.Drafts)
		return repo, noop, err
	case "memory":
		return cache.NewInMemoryDraftStore(), noop, nil
	default:
		local, err := persistence.NewSQLiteDatabase(cfg.Drafts.SQLitePath, persistence.WithLogger(gormLog))
		if err != nil {
			return nil, noop, err
		}
		return persistence.NewGormDraftRepository(local.DB), func() { _ = local.Close() }, nil
	}
}

// newObjectStorage returns S3 storage, or process memory for the stub driver
func newObjectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (appbyom.ObjectStorage, error) {
	if cfg.Storage.Driver != "s3" {
		log.Warn("Using in-memory object storage; uploads are lost on restart")
		return storage.NewMemoryObjectStorage(cfg.Storage.PublicBaseURL), nil
	}
	s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiry),
	)
	if err != nil {
		return nil, err
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("S3 object storage ready", zap.String("bucket", s3.GetBucket()))
	return s3, nil
}
