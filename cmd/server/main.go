package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/iliyamo/desk-seat-reservation/internal/config"
	"github.com/iliyamo/desk-seat-reservation/internal/database"
	"github.com/iliyamo/desk-seat-reservation/internal/handler"
	"github.com/iliyamo/desk-seat-reservation/internal/metrics"
	"github.com/iliyamo/desk-seat-reservation/internal/middleware"
	"github.com/iliyamo/desk-seat-reservation/internal/observability"
	"github.com/iliyamo/desk-seat-reservation/internal/queue"
	"github.com/iliyamo/desk-seat-reservation/internal/repository"
	"github.com/iliyamo/desk-seat-reservation/internal/router"
	"github.com/iliyamo/desk-seat-reservation/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.Env == "dev")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seats, people, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := service.Options{
		HoldDuration: cfg.HoldDuration,
		OpTimeout:    cfg.DBOpTimeout,
		Metrics:      metrics.NewCollector(reg),
		Logger:       logger,
	}
	if cfg.SeatEventsEnabled {
		opts.Events = queue.NewPublisher(cfg.RabbitURL, logger)
		audit := queue.NewAuditConsumer(cfg.RabbitURL, cfg.AuditLogPath, logger)
		go func() {
			if err := audit.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}

	clock := service.SystemClock{}
	svc := service.NewReservationService(people, opts)
	dir := service.NewDirectory(seats, people, cfg.DBOpTimeout)
	retry := handler.NewRetrier(cfg.RetryMaxAttempts)

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable; directory cache off, rate limit per process")
	} else {
		defer rdb.Close()
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))

	seatH := handler.NewSeatHandler(dir, clock, retry)
	router.RegisterRoutes(e, reg)
	router.RegisterPublic(e, seatH, cache)
	router.RegisterMember(e, seatH, handler.NewReservationHandler(svc, clock, retry), cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, handler.NewAdminSeatHandler(svc, clock, retry), cfg.JWTSecret)
	router.RegisterInternal(e, handler.NewSweepHandler(svc, clock))

	if cfg.SweepEnabled {
		go service.NewSweeper(svc, clock, logger).Start(ctx, cfg.SweepInterval)
	}

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// openStore builds the seat and person stores for the configured driver.
// The returned func releases whatever the store holds open.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (service.SeatStore, service.PersonStore, func()) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		store := repository.NewMemoryStore()
		if cfg.SeedFile != "" {
			if err := store.LoadSeedFile(cfg.SeedFile); err != nil {
				logger.Fatal("load seed file", zap.String("path", cfg.SeedFile), zap.Error(err))
			}
		}
		logger.Warn("using in-memory store; claims are lost on restart")
		return store.Seats(), store.People(), func() {}
	default:
		db, err := database.Open(ctx, database.Settings{
			User: cfg.DBUser,
			Pass: cfg.DBPass,
			Host: cfg.DBHost,
			Port: cfg.DBPort,
			Name: cfg.DBName,
		}, logger)
		if err != nil {
			logger.Fatal("failed to connect mysql", zap.Error(err))
		}
		if cfg.DBRunMigrations {
			if err := database.Migrate(db, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		return repository.NewSeatRepo(db), repository.NewPersonRepo(db), closer(db, logger)
	}
}

func closer(db *sql.DB, logger *zap.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Warn("close mysql", zap.Error(err))
		}
	}
}
