package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	eventapp "github.com/pix/backend/internal/application/event"
	pixapp "github.com/pix/backend/internal/application/pix"
	"github.com/pix/backend/internal/domain/pix"
	"github.com/pix/backend/internal/domain/shared"
	"github.com/pix/backend/internal/infrastructure/auth"
	"github.com/pix/backend/internal/infrastructure/cache"
	"github.com/pix/backend/internal/infrastructure/config"
	"github.com/pix/backend/internal/infrastructure/directory"
	"github.com/pix/backend/internal/infrastructure/event"
	"github.com/pix/backend/internal/infrastructure/logger"
	"github.com/pix/backend/internal/infrastructure/persistence"
	"github.com/pix/backend/internal/infrastructure/scheduler"
	"github.com/pix/backend/internal/interfaces/http/handler"
	"github.com/pix/backend/internal/interfaces/http/middleware"
	"github.com/pix/backend/internal/interfaces/http/router"
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

	log.Info("Starting Pix Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	keyRepo := persistence.NewGormPixKeyRepository(db.DB)
	claimRepo := persistence.NewGormClaimRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Inject outbox publisher into repositories so aggregate saves and their
	// events commit in one transaction
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)
	keyRepo.SetOutboxEventSaver(outboxPublisher)
	claimRepo.SetOutboxEventSaver(outboxPublisher)

	// Directory gateway
	directoryClient := directory.NewClient(cfg.Directory, log)

	// Claim policy from configuration
	claimPolicy := pixapp.ClaimPolicy{
		Ownership: pix.ClaimWindows{
			Resolution: cfg.Claim.OwnershipResolutionWindow,
			Completion: cfg.Claim.OwnershipCompletionWindow,
		},
		Portability: pix.ClaimWindows{
			Resolution: cfg.Claim.PortabilityResolutionWindow,
			Completion: cfg.Claim.PortabilityCompletionWindow,
		},
		OwnershipExpiryOutcome:   pix.ClaimStatus(cfg.Claim.OwnershipExpiryOutcome),
		PortabilityExpiryOutcome: pix.ClaimStatus(cfg.Claim.PortabilityExpiryOutcome),
	}
	if err := claimPolicy.Validate(); err != nil {
		log.Fatal("Invalid claim policy", zap.Error(err))
	}

	// Initialize application services
	claimWaiter := pixapp.NewClaimWaiter()
	keyService := pixapp.NewKeyService(keyRepo, directoryClient, log)
	claimService := pixapp.NewClaimService(claimRepo, keyRepo, directoryClient, claimPolicy, claimWaiter, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Idempotency store shared by the notification handlers. Webhook
	// redeliveries carry the same deterministic event ID and are dropped.
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	idempotencyConfig := shared.DefaultIdempotencyConfig()
	if cfg.Event.IdempotencyTTL > 0 {
		idempotencyConfig.TTL = cfg.Event.IdempotencyTTL
	}

	// Register notification handlers wrapped with idempotent delivery
	claimNotificationHandler := pixapp.NewClaimNotificationHandler(claimService, log)
	keyNotificationHandler := pixapp.NewKeyNotificationHandler(keyService, log)
	for _, h := range []shared.EventHandler{claimNotificationHandler, keyNotificationHandler} {
		eventBus.Subscribe(event.NewIdempotentHandler(h, idempotencyStore, log,
			event.WithIdempotencyConfig(idempotencyConfig)))
	}
	log.Info("Event handlers registered",
		zap.Strings("claim_notification_events", claimNotificationHandler.EventTypes()),
		zap.Strings("key_notification_events", keyNotificationHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize and start outbox processor for guaranteed event delivery
	if cfg.Event.ProcessorEnabled {
		processorConfig := event.OutboxProcessorConfig{
			BatchSize:        cfg.Event.BatchSize,
			PollInterval:     cfg.Event.PollInterval,
			CleanupEnabled:   cfg.Event.CleanupEnabled,
			CleanupRetention: cfg.Event.CleanupRetention,
			CleanupInterval:  time.Hour,
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
	}

	// Expiry reconciler sweeps overdue claims and forces their default
	// outcome when the Directory's notification never arrived
	reconciler := pixapp.NewExpiryReconciler(claimService, claimRepo, log)
	if cfg.Reconciler.BatchSize > 0 {
		reconciler.SetBatchSize(cfg.Reconciler.BatchSize)
	}
	sweepScheduler := scheduler.NewSweepScheduler(
		scheduler.NewSweepSchedulerConfig(cfg.Reconciler), reconciler, log)
	if err := sweepScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sweep scheduler", zap.Error(err))
	}
	defer func() {
		if err := sweepScheduler.Stop(context.Background()); err != nil {
			log.Error("Error stopping sweep scheduler", zap.Error(err))
		}
	}()

	// JWT service for API authentication
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	keyHandler := handler.NewKeyHandler(keyService)
	claimHandler := handler.NewClaimHandler(claimService, cfg.HTTP.WaitTimeout)
	notificationHandler := handler.NewNotificationHandler(eventBus, cfg.Directory.WebhookSecret, log)
	systemHandler := handler.NewSystemHandler(db)
	outboxHandler := handler.NewOutboxHandler(outboxService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
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
	// 7. RateLimit - Apply rate limiting (if enabled)
	// 8. JWT - Authenticate API requests
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// JWT authentication. Health probes and Directory webhooks skip it;
	// webhooks authenticate with their own shared-secret token instead.
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/ready",
			"/api/v1/system/info",
		},
		SkipPathPrefixes: []string{
			"/api/v1/webhooks/",
		},
		Logger: log,
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Health endpoints live outside API versioning for load balancer probes
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	// Register API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(keyHandler).
		Register(claimHandler).
		Register(notificationHandler).
		Register(systemHandler).
		Register(outboxHandler).
		Setup()

	// Create HTTP server
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Drain in-flight requests before the deferred component shutdowns run
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
