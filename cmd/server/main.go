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
	"go.uber.org/zap"

	"github.com/remindhub/reminder-pipeline/internal/api"
	"github.com/remindhub/reminder-pipeline/internal/config"
	"github.com/remindhub/reminder-pipeline/internal/db"
	"github.com/remindhub/reminder-pipeline/internal/metrics"
	"github.com/remindhub/reminder-pipeline/internal/queue"
	"github.com/remindhub/reminder-pipeline/internal/repository"
	"github.com/remindhub/reminder-pipeline/internal/scheduler"
	"github.com/remindhub/reminder-pipeline/internal/service"
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
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	store := queue.NewPgStore(pool, queue.Options{
		Name:              cfg.QueueName,
		MaxAttempts:       cfg.JobMaxAttempts,
		BackoffBase:       cfg.JobBackoffBase,
		VisibilityTimeout: cfg.VisibilityTimeout,
	})
	events := repository.NewPgEventRepository(pool)
	devices := repository.NewPgDeviceRepository(pool)
	sched := scheduler.New(store, logger)
	sched.SetScheduledHook(m.RemindersScheduled.Inc)
	svc := service.NewEventService(events, devices, sched, logger)

	// ---- HTTP server ----
	router := api.NewRouter(svc, store, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped cleanly")
}
