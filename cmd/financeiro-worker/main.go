package main

import (
	"context"
	"errors"
	"os"
	"time"

	"financeiro/internal/backend"
	"financeiro/internal/cache"
	"financeiro/internal/cli"
	"financeiro/internal/log"
	"financeiro/internal/services"
	"financeiro/internal/sheets"
	gsheet "financeiro/internal/sheets/google"
	mem "financeiro/internal/sheets/memory"
	"financeiro/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT")).WithComponent(log.ComponentWorker)
	logger.Info("Starting financeiro-worker")

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

	var writer sheets.ReportWriter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleReportSheetName,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleReportSheetName)
	} else {
		writer = mem.New()
		logger.Info("Google Sheets disabled - exports are kept in memory only")
	}

	results := cache.NewLRUCache[any](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	reports := services.NewReportService(be.Store, nil, results, logger)
	exporter := worker.NewExportWorker(reports, writer, be.Recorder(), "sheets")

	// without AMQP the schedule is the only trigger, so it always runs
	var scheduler *services.ExportScheduler
	if cfg.ExportInterval > 0 || be.AMQP == nil {
		scheduler = services.NewExportScheduler(exporter, services.ExportSchedulerConfig{
			Interval:   cfg.ExportInterval,
			RunOnStart: false,
		})
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if scheduler != nil {
			if err := scheduler.Stop(shutdownCtx); err != nil {
				logger.Error("Export scheduler stop error", log.FieldError, err)
			}
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Performing startup export check...")
	if err := exporter.StartupExportCheck(ctx); err != nil {
		logger.Error("Failed startup export check", log.FieldError, err)
	}

	if scheduler != nil {
		if err := scheduler.Start(ctx); err != nil {
			logger.Error("Failed to start export scheduler", log.FieldError, err)
		}
	}

	if be.AMQP != nil {
		go func() {
			err := be.AMQP.ConsumeLedgerUpdated(ctx, exporter.HandleLedgerUpdated)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("AMQP not configured - relying on the periodic export")
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
