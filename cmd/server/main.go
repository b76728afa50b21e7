package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/voltgrid/voltgrid/internal/adapter/cache"
	"github.com/voltgrid/voltgrid/internal/adapter/http/fiber/handlers"
	"github.com/voltgrid/voltgrid/internal/adapter/http/fiber/middleware"
	"github.com/voltgrid/voltgrid/internal/adapter/integration"
	"github.com/voltgrid/voltgrid/internal/adapter/integration/ocpi"
	"github.com/voltgrid/voltgrid/internal/adapter/queue"
	"github.com/voltgrid/voltgrid/internal/adapter/storage/postgres"
	"github.com/voltgrid/voltgrid/internal/ports"
	"github.com/voltgrid/voltgrid/internal/service/authorization"
	"github.com/voltgrid/voltgrid/internal/service/consumption"
	"github.com/voltgrid/voltgrid/internal/service/health"
	"github.com/voltgrid/voltgrid/internal/service/refundsync"
	"github.com/voltgrid/voltgrid/internal/service/transaction"
	"github.com/voltgrid/voltgrid/pkg/config"
)

const (
	serviceName    = "voltgrid"
	serviceVersion = "v1.0.0"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting VoltGrid",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := postgres.NewConnection(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// Redis is preferred; a local in-memory cache keeps the service
	// usable when it is unreachable.
	var appCache ports.Cache
	appCache, err = cache.NewRedisCache(cfg.Redis.URL, logger)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to local cache", zap.Error(err))
		appCache = cache.NewLocalCache(5*time.Minute, logger)
	}
	defer appCache.Close()

	messageQueue, err := queue.New(cfg.Queue.Driver, cfg.Queue.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	defer messageQueue.Close()

	transactionRepo := postgres.NewTransactionRepository(db, logger)
	stationRepo := postgres.NewChargingStationRepository(db, logger)
	userRepo := postgres.NewUserRepository(db, logger)
	tenantRepo := postgres.NewTenantRepository(db, logger)
	paymentRepo := postgres.NewPaymentRepository(db, logger)
	meterRepo := postgres.NewMeterValueRepository(db, logger)

	integrations := integration.NewDefault(cfg.Payment.Stripe.SecretKey,
		tenantRepo, paymentRepo, transactionRepo, appCache, logger)
	authorizer := authorization.NewService(logger)
	roamingService := ocpi.NewRoamingService(cfg.Roaming.BaseURL, cfg.Roaming.Token, logger)
	consumptionService := consumption.NewService(transactionRepo, meterRepo, logger)

	transactionService := transaction.NewService(
		transactionRepo,
		stationRepo,
		userRepo,
		integrations,
		roamingService,
		consumptionService,
		authorizer,
		messageQueue,
		logger,
	)

	healthService := health.NewService(&health.Config{
		Version: serviceVersion,
		DB:      sqlDB,
		Cache:   appCache,
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}
	app.Use(middleware.CircuitBreaker(logger))

	health.NewFiberHandler(healthService).RegisterRoutes(app)

	if cfg.Prometheus.Enabled {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	v1 := app.Group("/api/v1")
	protected := v1.Group("", middleware.AuthRequired(cfg.JWT))
	handlers.NewTransactionHandler(transactionService, authorizer, userRepo, logger).
		RegisterRoutes(protected)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Jobs.RefundSync.Enabled {
		task := refundsync.NewTask(integrations, logger)
		scheduler := refundsync.NewScheduler(task, tenantRepo, cfg.Jobs.RefundSync.Interval, logger)
		go scheduler.Start(ctx)
	}

	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}
