package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appdunning "github.com/mahnwerk/backend/internal/application/dunning"
	"github.com/mahnwerk/backend/internal/domain/shared"
	"github.com/mahnwerk/backend/internal/infrastructure/cache"
	"github.com/mahnwerk/backend/internal/infrastructure/config"
	"github.com/mahnwerk/backend/internal/infrastructure/logger"
	"github.com/mahnwerk/backend/internal/infrastructure/persistence"
	"github.com/mahnwerk/backend/internal/infrastructure/scheduler"
	"github.com/mahnwerk/backend/internal/infrastructure/telemetry"
	"github.com/mahnwerk/backend/internal/interfaces/http/handler"
	"github.com/mahnwerk/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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
		_ = log.Sync()
	}()

	log.Info("Starting Mahnwerk backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Tracing
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

	// Metrics
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
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

	dunningMetrics, err := telemetry.NewDunningMetrics(meterProvider.Meter("mahnwerk/dunning"), log)
	if err != nil {
		log.Fatal("Failed to initialize dunning metrics", zap.Error(err))
	}

	// Database
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

	dbTracingCfg := telemetry.DefaultDBTracingConfig()
	dbTracingCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	if err := telemetry.RegisterDBTracing(db.DB, dbTracingCfg, log); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	// Sweep deduplication store; Redis coordinates across replicas, the
	// in-memory store is enough for a single instance.
	var dedup shared.IdempotencyStore
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				log.Error("Error closing Redis store", zap.Error(err))
			}
		}()
		dedup = redisStore
		log.Info("Redis sweep deduplication enabled",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
	} else {
		memStore := cache.NewInMemoryIdempotencyStore()
		defer func() {
			_ = memStore.Close()
		}()
		dedup = memStore
	}

	// Escalation policy (statutory ladder unless overridden in config)
	policy, err := cfg.Policy.BuildPolicy()
	if err != nil {
		log.Fatal("Invalid dunning policy configuration", zap.Error(err))
	}

	// Repositories and application services
	invoices := persistence.NewGormInvoiceQueryAdapter(db.DB)
	caseRepo := persistence.NewGormDunningCaseRepository(db.DB)
	clock := shared.NewSystemClock()

	overdueService := appdunning.NewOverdueService(invoices, caseRepo, clock, dunningMetrics)
	escalationService := appdunning.NewEscalationService(invoices, caseRepo, policy, clock, dunningMetrics)
	noticeService := appdunning.NewNoticeService(invoices, caseRepo, clock)
	sweepService := appdunning.NewSweepService(overdueService, escalationService, dedup, clock, dunningMetrics, log)

	// Daily sweep scheduler
	if cfg.Scheduler.Enabled {
		sweepScheduler := scheduler.NewSweepCronScheduler(scheduler.SweepCronSchedulerConfig{
			Enabled:           cfg.Scheduler.Enabled,
			DailyCronSchedule: cfg.Scheduler.DailyCronSchedule,
			JobTimeout:        cfg.Scheduler.JobTimeout,
		}, sweepService, log)
		if err := sweepScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start sweep scheduler", zap.Error(err))
		}
		defer func() {
			if err := sweepScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sweep scheduler", zap.Error(err))
			}
		}()
		log.Info("Sweep scheduler started",
			zap.String("schedule", cfg.Scheduler.DailyCronSchedule),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
		)
	}

	// HTTP interface
	engine, err := router.NewEngine(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize HTTP engine", zap.Error(err))
	}

	dunningHandler := handler.NewDunningHandler(overdueService, escalationService, noticeService, sweepService)
	systemHandler := handler.NewSystemHandler(db, cfg.App.Name)

	// Health check endpoint (outside API versioning)
	engine.GET("/healthz", systemHandler.Healthz)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(dunningHandler).Register(systemHandler)
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

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
