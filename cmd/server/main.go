package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	_ "github.com/storefront/backend/docs"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	identityapp "github.com/storefront/backend/internal/application/identity"
	orderingapp "github.com/storefront/backend/internal/application/ordering"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/messaging"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

//	@title			Storefront API
//	@version		1.0
//	@description	Product catalog and order placement API

//	@contact.name	API Support
//	@contact.url	https://github.com/storefront/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const version = "1.0.0"

func main() {
	migrate := flag.Bool("migrate", false, "apply pending database migrations before serving")
	seed := flag.Bool("seed", false, "insert demo users and products into empty tables")
	flag.Parse()

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

	// Telemetry first so the remaining components pick up the global providers
	ctx := context.Background()
	otel, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otel.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = otel.WrapLogger(log)

	log.Info("Starting Storefront Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if *migrate {
		if err := runMigrations(cfg.Database, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Initialize database connection with zap-backed gorm logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
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

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	dbTracing.TracerProvider = otel.TracerProvider()
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if *seed {
		if err := persistence.SeedDemoData(ctx, db.DB, log); err != nil {
			log.Fatal("Failed to seed demo data", zap.Error(err))
		}
	}

	// Redis backed stores, falling back to in-memory ones
	stores, err := cache.NewFactory(ctx, cfg.Redis, cache.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing redis", zap.Error(err))
		}
	}()

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if stores.RedisEnabled() {
		blacklist = auth.NewRedisTokenBlacklist(stores.Client())
	}

	images, err := newImageResolver(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)
	outboxPublisher := event.NewOutboxPublisher(eventSerializer, event.WithMaxRetries(cfg.Event.MaxRetries))
	txScope := persistence.NewGormTransactionScope(db.DB, outboxPublisher)

	// Notification sinks for OrderPlaced
	sinks, err := messaging.BuildSinks(cfg.Notification, log)
	if err != nil {
		log.Fatal("Failed to initialize notification sinks", zap.Error(err))
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			log.Error("Error closing notification sinks", zap.Error(err))
		}
	}()

	eventBus := event.NewInMemoryEventBus(log)
	notifier := event.NewIdempotentHandler(
		orderingapp.NewOrderPlacedNotificationHandler(log, sinks.All()...),
		stores.IdempotencyStore(),
		log,
	)
	eventBus.Subscribe(notifier)
	log.Info("Event handlers registered", zap.Strings("order_placed_events", notifier.EventTypes()))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// The outbox processor delivers committed OrderPlaced events to the bus
	if cfg.Event.ProcessorEnabled {
		outboxConfig := event.DefaultOutboxProcessorConfig()
		if cfg.Event.BatchSize > 0 {
			outboxConfig.BatchSize = cfg.Event.BatchSize
		}
		if cfg.Event.PollInterval > 0 {
			outboxConfig.PollInterval = cfg.Event.PollInterval
		}
		outboxConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		if cfg.Event.CleanupRetention > 0 {
			outboxConfig.CleanupRetention = cfg.Event.CleanupRetention
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, outboxConfig, log)
		if err := outboxProcessor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", outboxConfig.BatchSize),
			zap.Duration("poll_interval", outboxConfig.PollInterval),
		)
	}

	// Initialize application services
	productOpts := []catalogapp.ProductServiceOption{
		catalogapp.WithImageURLResolver(images),
		catalogapp.WithPageSizes(cfg.Catalog.DefaultPerPage, cfg.Catalog.MaxPerPage),
	}
	orderOpts := []orderingapp.OrderServiceOption{
		orderingapp.WithPlacementTimeout(cfg.Order.PlacementTimeout),
		orderingapp.WithListPageSize(cfg.Order.ListPageSize),
	}
	if cfg.Catalog.CacheEnabled {
		listings := stores.ProductListCache(cfg.Catalog.CacheTTL)
		productOpts = append(productOpts, catalogapp.WithListingCache(listings))
		orderOpts = append(orderOpts, orderingapp.WithListingInvalidator(listings))
	}
	if cfg.Telemetry.MetricsEnabled {
		orderMetrics, err := telemetry.NewOrderMetrics(otel.Meter("storefront/ordering"))
		if err != nil {
			log.Fatal("Failed to register order metrics", zap.Error(err))
		}
		orderOpts = append(orderOpts, orderingapp.WithOrderMetrics(orderMetrics))
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	productService := catalogapp.NewProductService(productRepo, log, productOpts...)
	orderService := orderingapp.NewOrderService(productRepo, orderRepo, txScope, log, orderOpts...)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request id, tracing, logging, recovery, then request shaping
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		Enabled:        otel.TracingEnabled(),
		TracerProvider: otel.TracerProvider(),
		SkipPaths:      []string{"/health", "/api/v1/system/ping"},
	}))
	if otel.TracingEnabled() {
		engine.Use(middleware.TracingAttributeInjector(), middleware.SpanErrorMarker())
	}
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	httpMetrics, err := middleware.HTTPMetrics(otel.Meter("storefront/http"))
	if err != nil {
		log.Fatal("Failed to register HTTP metrics", zap.Error(err))
	}
	engine.Use(httpMetrics)
	engine.Use(middleware.Profiling(cfg.Telemetry.ProfilingEnabled, "/health", "/swagger"))

	limiterCtx, stopLimiters := context.WithCancel(ctx)
	defer stopLimiters()
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		go limiter.RunCleanup(limiterCtx)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	jwtMiddleware := middleware.JWTAuthMiddleware(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Logger:         log,
	})
	guards := router.Guards{
		JWT:     jwtMiddleware,
		Swagger: middleware.SwaggerProtection(cfg.Swagger, jwtMiddleware),
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		go authLimiter.RunCleanup(limiterCtx)
		guards.AuthRateLimit = middleware.AuthRateLimit(authLimiter)
	}

	checks := map[string]handler.Pinger{"database": db}
	if stores.RedisEnabled() {
		checks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return stores.Client().Ping(ctx).Err()
		})
	}

	routes := router.Storefront(engine, router.Handlers{
		Product: handler.NewProductHandler(productService),
		Order:   handler.NewOrderHandler(orderService),
		Auth:    handler.NewAuthHandler(authService),
		System:  handler.NewSystemHandler(version, checks),
	}, guards)
	log.Debug("API routes registered", zap.Strings("routes", routes))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// runMigrations applies the embedded migrations over a dedicated connection,
// since the migrate driver closes the pool it is given
func runMigrations(cfg config.DatabaseConfig, log *zap.Logger) error {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	return errors.Join(m.Up(), m.Close())
}

// newImageResolver presigns S3 URLs when object storage is enabled and
// prefixes the configured base URL otherwise
func newImageResolver(cfg *config.Config, log *zap.Logger) (catalogapp.ImageURLResolver, error) {
	if !cfg.Storage.Enabled {
		return storage.NewStaticImageURLs(cfg.Catalog.ImageBaseURL), nil
	}
	s3, err := storage.NewS3ImageStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	log.Info("Object storage enabled", zap.String("bucket", s3.Bucket()))
	return s3, nil
}
