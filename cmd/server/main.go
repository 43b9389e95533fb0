package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gridapp "github.com/erp/workstation/internal/application/grid"
	printingapp "github.com/erp/workstation/internal/application/printing"
	"github.com/erp/workstation/internal/infrastructure/auth"
	"github.com/erp/workstation/internal/infrastructure/config"
	"github.com/erp/workstation/internal/infrastructure/draft"
	"github.com/erp/workstation/internal/infrastructure/logger"
	"github.com/erp/workstation/internal/infrastructure/persistence"
	printinginfra "github.com/erp/workstation/internal/infrastructure/printing"
	"github.com/erp/workstation/internal/infrastructure/printing/adapters"
	"github.com/erp/workstation/internal/infrastructure/scheduler"
	"github.com/erp/workstation/internal/infrastructure/storage"
	"github.com/erp/workstation/internal/interfaces/http/handler"
	"github.com/erp/workstation/internal/interfaces/http/middleware"
	"github.com/erp/workstation/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			Workstation API
//	@version		1.0
//	@description	Grid column settings and print pagination for the budgeting workstation

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting workstation server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Initialize database connection backed by the zap GORM logger
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(log.Logger, logger.MapGormLogLevel(cfg.Log.Level)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access database pool", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver()))

	// Grid settings
	settingsRepo := persistence.NewGormTableSettingsRepository(db.DB)
	settingsService := gridapp.NewSettingsService(settingsRepo, log.Named("grid"),
		gridapp.WithSessionDefaults(cfg.Grid.ResizeDebounce, cfg.Grid.SaveTimeout))

	// Print drafts
	draftStore, err := draft.NewStore(cfg.Draft, cfg.Redis, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize draft store", zap.Error(err))
	}
	defer func() {
		if err := draftStore.Close(); err != nil {
			log.Error("Error closing draft store", zap.Error(err))
		}
	}()
	log.Info("Draft store ready", zap.String("backend", cfg.Draft.Backend))

	// Export storage and rendering
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	documents, err := storage.New(initCtx, &cfg.Storage, log.Logger)
	initCancel()
	if err != nil {
		log.Fatal("Failed to initialize export storage", zap.Error(err))
	}

	exporter, err := printinginfra.NewExporterFromConfig(cfg.Print, documents, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize exporter", zap.Error(err))
	}
	defer func() {
		if err := exporter.Close(); err != nil {
			log.Error("Error closing exporter", zap.Error(err))
		}
	}()

	printService := printingapp.NewPrintService(
		adapters.NewDefaultRegistry(),
		draftStore,
		exporter,
		log.Named("print"),
		printingapp.WithDefaultRowHeight(cfg.Print.RowHeightMM),
	)

	// Expired export cleanup
	var sweeper *scheduler.Sweeper
	if cleaner, ok := documents.(scheduler.Cleaner); ok && cfg.Storage.Retention > 0 {
		sweeperCfg := scheduler.DefaultSweeperConfig()
		sweeperCfg.Retention = cfg.Storage.Retention
		sweeperCfg.Interval = cfg.Storage.SweepInterval
		sweeper, err = scheduler.NewSweeper(sweeperCfg, cleaner, log.Logger)
		if err != nil {
			log.Fatal("Failed to initialize export sweeper", zap.Error(err))
		}
		if err := sweeper.Start(context.Background()); err != nil {
			log.Fatal("Failed to start export sweeper", zap.Error(err))
		}
	}

	// Setup Gin
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	secureCfg := middleware.DefaultSecurityConfig()
	secureCfg.HSTSEnabled = cfg.App.Env == "production"

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log.Logger),
		logger.GinMiddleware(log.Logger, "/health", "/api/v1/system/ping"),
		middleware.CORSWithConfig(corsCfg),
		middleware.SecureWithConfig(secureCfg),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.DraftSource(),
	)

	// Authentication
	jwtService := auth.NewJWTService(cfg.JWT)
	jwtCfg := middleware.DefaultJWTConfig(jwtService)
	jwtCfg.AllowQueryToken = true
	jwtCfg.Logger = log.Logger
	authMiddleware := middleware.JWTAuthMiddlewareWithConfig(jwtCfg)

	var exportLimit gin.HandlerFunc
	if cfg.HTTP.ExportRateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.ExportRateLimit, cfg.HTTP.ExportRateWindow)
		defer limiter.Stop()
		exportLimit = middleware.RateLimitByUser(limiter)
	}

	// Draft change stream
	draftEvents := handler.NewDraftEventsHandler(printService,
		handler.WithSSELogger(log.Named("draft_events")),
		handler.WithSSEHeartbeat(cfg.Draft.Heartbeat),
	)
	if err := draftEvents.Start(); err != nil {
		log.Fatal("Failed to start draft event stream", zap.Error(err))
	}

	// Routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	gridHandler := handler.NewGridSettingsHandler(settingsService)
	printHandler := handler.NewPrintHandler(printService, documents, log.Named("print_http"))
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version,
		handler.WithHealthCheck("database", sqlDB),
		handler.WithRoutes(r.Routes),
		handler.WithSystemLogger(log.Logger),
	)

	r.Register(handler.GridRoutes(gridHandler, authMiddleware).Use(middleware.Timeout(cfg.HTTP.RequestTimeout))).
		Register(handler.PrintRoutes(printHandler, draftEvents, authMiddleware, exportLimit)).
		Register(handler.SystemRoutes(systemHandler))
	r.Setup()

	// Root level health check for load balancers
	engine.GET("/health", systemHandler.Health)

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// open event streams would otherwise hold Shutdown until the timeout
	draftEvents.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if sweeper != nil {
		if err := sweeper.Stop(ctx); err != nil {
			log.Warn("Export sweeper did not stop cleanly", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
