package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"financeiro/internal/backend"
	"financeiro/internal/cache"
	"financeiro/internal/cli"
	apphttp "financeiro/internal/http"
	"financeiro/internal/log"
	"financeiro/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	results := cache.NewLRUCache[any](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	reports := services.NewReportService(be.Store, be.Publisher(), results, logger)

	caches := cache.NewManager(logger)
	caches.Register(results)
	cacheCtx, stopCaches := context.WithCancel(context.Background())
	caches.Start(cacheCtx, time.Minute)

	srv := apphttp.NewServerWithOptions(":"+cfg.Port, reports, logger, apphttp.Options{
		WritesPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:  cfg.TrustedProxies,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		stopCaches()
		caches.Wait()
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting financeiro server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", be.AMQP != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
