package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	syncapp "github.com/membercard/backend/internal/application/sync"
	syncdomain "github.com/membercard/backend/internal/domain/sync"
	"github.com/membercard/backend/internal/infrastructure/adapters"
	"github.com/membercard/backend/internal/infrastructure/auth"
	"github.com/membercard/backend/internal/infrastructure/cache"
	"github.com/membercard/backend/internal/infrastructure/config"
	"github.com/membercard/backend/internal/infrastructure/logger"
	"github.com/membercard/backend/internal/infrastructure/persistence"
	"github.com/membercard/backend/internal/infrastructure/scheduler"
	"github.com/membercard/backend/internal/infrastructure/telemetry"
	"github.com/membercard/backend/internal/infrastructure/vcard"
	"github.com/membercard/backend/internal/interfaces/http/handler"
	"github.com/membercard/backend/internal/interfaces/http/middleware"
	"github.com/membercard/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
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

	log.Info("Starting MemberCard Sync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

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

	// Run schema migration on startup
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// Initialize OpenTelemetry tracing (if enabled)
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize repositories
	contactRepo := persistence.NewGormContactRepository(db.DB)
	configRepo := persistence.NewGormSyncConfigRepository(db.DB)
	logRepo := persistence.NewGormSyncLogRepository(db.DB)

	// Job lock: Redis when running more than one instance, in-process otherwise
	var jobLock syncapp.JobLocker
	if cfg.Sync.DistributedLock {
		redisLock, err := cache.NewRedisJobLock(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Sync.JobLockTTL)
		if err != nil {
			log.Fatal("Failed to connect to Redis for job locks", zap.Error(err))
		}
		defer func() {
			if err := redisLock.Close(); err != nil {
				log.Error("Error closing Redis job lock", zap.Error(err))
			}
		}()
		jobLock = redisLock
		log.Info("Using distributed job lock", zap.String("redis", cfg.Redis.Host))
	} else {
		jobLock = cache.NewInMemoryJobLock(cfg.Sync.JobLockTTL)
	}

	// Build the platform adapter registry. Platforms without configuration
	// stay unregistered; triggering them reports the platform unavailable.
	registry := adapters.NewRegistry(buildAdapters(cfg, log)...)
	for _, adapter := range registry.List() {
		log.Info("Platform adapter registered", zap.String("platform", string(adapter.Platform())))
	}

	// Initialize application services
	configService := syncapp.NewSyncConfigService(configRepo, cfg.Sync.MobileBaseURL, cfg.Sync.EndpointSecret, log)
	orchestrator := syncapp.NewSyncJobOrchestrator(
		configRepo, contactRepo, registry, logRepo, jobLock, log, cfg.Sync.AdapterTimeout,
	)

	// JWT service for request authentication
	jwtService := auth.NewJWTService(cfg.JWT)

	// Interval scheduler (if enabled)
	if cfg.Scheduler.Enabled {
		syncScheduler, err := scheduler.NewSyncScheduler(scheduler.SyncSchedulerConfig{
			Enabled:           cfg.Scheduler.Enabled,
			PollInterval:      cfg.Scheduler.PollInterval,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Sync.JobLockTTL,
		}, configRepo, orchestrator, log)
		if err != nil {
			log.Fatal("Invalid scheduler configuration", zap.Error(err))
		}
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			if err := syncScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()
		log.Info("Sync scheduler started",
			zap.Duration("poll_interval", cfg.Scheduler.PollInterval),
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
		)
	}

	// Initialize HTTP handlers
	configHandler := handler.NewSyncConfigHandler(configService)
	jobHandler := handler.NewSyncJobHandler(orchestrator)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

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
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	// 8. Tracing - Record request spans (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Request tracing (if enabled)
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Sync domain (configurations, triggers, run history)
	syncRoutes := router.NewDomainGroup("sync", "/sync")
	syncRoutes.POST("/configs", configHandler.Create)
	syncRoutes.GET("/configs", configHandler.List)
	syncRoutes.GET("/configs/:id", configHandler.GetByID)
	syncRoutes.PATCH("/configs/:id", configHandler.Update)
	syncRoutes.DELETE("/configs/:id", configHandler.Deactivate)
	syncRoutes.POST("/configs/:id/trigger", jobHandler.Trigger)
	syncRoutes.GET("/configs/:id/runs", jobHandler.Runs)

	// System domain (service metadata)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(syncRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// buildAdapters assembles the platform adapters the configuration enables.
// The mobile adapter is always available; the directory adapter needs a
// gateway URL and each CRM connector needs OAuth client credentials.
func buildAdapters(cfg *config.Config, log *zap.Logger) []syncdomain.PlatformAdapter {
	httpClient := &http.Client{Timeout: cfg.Sync.AdapterTimeout}

	list := []syncdomain.PlatformAdapter{
		adapters.NewMobileAdapter(adapters.NewHTTPMobileTransport(httpClient), vcard.NewCodec()),
	}

	if cfg.Sync.DirectoryGatewayURL != "" {
		list = append(list, adapters.NewDirectoryAdapter(
			adapters.NewHTTPDirectoryClient(cfg.Sync.DirectoryGatewayURL, httpClient),
		))
	}

	crmPlatforms := []struct {
		platform  syncdomain.PlatformCode
		connector config.CRMConnectorConfig
	}{
		{syncdomain.PlatformGoogle, cfg.Sync.Google},
		{syncdomain.PlatformOutlook, cfg.Sync.Outlook},
		{syncdomain.PlatformSalesforce, cfg.Sync.Salesforce},
	}
	for _, crm := range crmPlatforms {
		if !crm.connector.Configured() {
			continue
		}
		tokens := (&clientcredentials.Config{
			ClientID:     crm.connector.ClientID,
			ClientSecret: crm.connector.ClientSecret,
			TokenURL:     crm.connector.TokenURL,
		}).TokenSource(context.Background())
		adapter, err := adapters.NewCRMAdapter(crm.platform, httpClient, tokens)
		if err != nil {
			log.Warn("Skipping CRM adapter", zap.String("platform", string(crm.platform)), zap.Error(err))
			continue
		}
		list = append(list, adapter)
	}

	return list
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
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
