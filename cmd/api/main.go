package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/digital-seva/internal/adapters/http"
	"github.com/kirillkom/digital-seva/internal/bootstrap"
	"github.com/kirillkom/digital-seva/internal/config"
	"github.com/kirillkom/digital-seva/internal/observability/logging"
	"github.com/kirillkom/digital-seva/internal/observability/metrics"
)

const serviceName = "api"

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

	router := httpadapter.NewRouter(httpadapter.Services{
		Accounts:        app.Accounts,
		Intake:          app.Intake,
		Documents:       app.Documents,
		Eligibility:     app.Eligibility,
		Recommendations: app.Recommendations,
		Bookmarks:       app.Bookmarks,
		Assistant:       app.Assistant,
		Translator:      app.Translator,
		Catalog:         app.Catalog,
	}, httpadapter.Options{
		Service:          serviceName,
		Logger:           logger,
		Metrics:          metrics.NewHTTPServerMetrics(serviceName),
		MaxUploadBytes:   cfg.MaxUploadBytes,
		RateLimitRPS:     cfg.RateLimitRPS,
		RateLimitBurst:   cfg.RateLimitBurst,
		MaxInFlight:      cfg.MaxInFlight,
		BackpressureWait: cfg.BackpressureWait,
	})

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      2 * cfg.AITimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "addr", server.Addr, "store", cfg.StoreDriver, "storage", cfg.StorageDriver, "ai_provider", cfg.AIProvider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
