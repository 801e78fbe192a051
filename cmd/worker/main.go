package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/remindhub/reminder-pipeline/internal/config"
	"github.com/remindhub/reminder-pipeline/internal/db"
	"github.com/remindhub/reminder-pipeline/internal/metrics"
	"github.com/remindhub/reminder-pipeline/internal/provider"
	"github.com/remindhub/reminder-pipeline/internal/queue"
	"github.com/remindhub/reminder-pipeline/internal/ratelimiter"
	"github.com/remindhub/reminder-pipeline/internal/repository"
	"github.com/remindhub/reminder-pipeline/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	_ = godotenv.Load() // absent .env is fine in deployed environments
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	// Migrations are owned by the API server; the worker only connects.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	// ---- metrics ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	onOutcome, onDepths := m.WorkerHooks()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsMux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: metricsMux}
	go func() {
		logger.Info("metrics endpoint starting", zap.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	// ---- consumer pipeline ----
	store := queue.NewPgStore(pool, queue.Options{
		Name:              cfg.QueueName,
		MaxAttempts:       cfg.JobMaxAttempts,
		BackoffBase:       cfg.JobBackoffBase,
		VisibilityTimeout: cfg.VisibilityTimeout,
	})
	devices := repository.NewPgDeviceRepository(pool)
	prov := provider.NewExpoProvider(cfg.PushBaseURL, cfg.PushTimeout)
	limiter := ratelimiter.New(cfg.SendRateLimit)

	proc := worker.NewProcessor(devices, prov, limiter, logger)
	consumer := worker.NewConsumer(
		store, proc,
		cfg.PollInterval, cfg.ClaimBatch, cfg.Workers,
		logger,
		worker.MetricHooks{OnOutcome: onOutcome, OnDepths: onDepths},
	)

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("shutdown signal received")
		cancel()
	}()

	logger.Info("reminder consumer starting",
		zap.Int("workers", cfg.Workers),
		zap.Duration("poll_interval", cfg.PollInterval),
	)

	// Blocks until the signal handler cancels ctx; in-flight jobs drain
	// before it returns.
	consumer.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", zap.Error(err))
	}

	logger.Info("worker stopped cleanly")
}
