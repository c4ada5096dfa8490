package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/digital-seva/internal/bootstrap"
	"github.com/kirillkom/digital-seva/internal/config"
	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/observability/logging"
	"github.com/kirillkom/digital-seva/internal/observability/metrics"
)

const (
	serviceName    = "worker"
	cleanupTimeout = 30 * time.Second
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if app.Events == nil {
		logger.Error("worker_requires_nats", "hint", "set NATS_URL")
		os.Exit(1)
	}

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "metrics_addr", metricsServer.Addr)
	err = app.Events.SubscribeDocumentSuperseded(ctx, func(handlerCtx context.Context, event domain.DocumentSupersededEvent) error {
		if !event.SupersededAt.IsZero() {
			workerMetrics.ObserveEventLag(serviceName, time.Since(event.SupersededAt))
		}

		workerMetrics.StartCleanup()
		start := time.Now()
		cleanupCtx, cancel := context.WithTimeout(handlerCtx, cleanupTimeout)
		defer cancel()

		err := app.Janitor.HandleSuperseded(cleanupCtx, event)
		workerMetrics.FinishCleanup(serviceName, time.Since(start), err)
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
