package main

import (
	"context"
	"errors"
	"os"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/backend"
	"expensetracker/internal/cli"
	applog "expensetracker/internal/log"
	gsheet "expensetracker/internal/sheets/google"
	"expensetracker/internal/worker"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting expense-sync")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateSync(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	source, err := backend.NewFactory(logger).CreateBackend(startupCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize source backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	sheetsClient, err := gsheet.NewFromConfig(startupCtx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets mirror ready", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", sheetsClient.SheetName())

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(source.Store, sheetsClient, logger)

	// Catch up on anything recorded while the worker was down.
	if err := syncWorker.Reconcile(startupCtx); err != nil {
		logger.Error("Startup reconcile failed", applog.FieldError, err)
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		select {
		case <-scheduler.Stop().Done():
		case <-shutdownCtx.Done():
		}
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", applog.FieldError, err)
		}
		if source.Cleanup != nil {
			if err := source.Cleanup(); err != nil {
				logger.Warn("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	g, gctx := errgroup.WithContext(ctx)

	if _, err := scheduler.AddFunc(cfg.SyncSchedule, func() {
		if err := syncWorker.Reconcile(gctx); err != nil {
			logger.Error("Scheduled reconcile failed", applog.FieldError, err)
		}
	}); err != nil {
		logger.Error("Invalid sync schedule", applog.FieldError, err, "schedule", cfg.SyncSchedule)
		os.Exit(1)
	}

	g.Go(func() error {
		return amqpClient.ConsumeExpenseRecorded(gctx, syncWorker.HandleExpenseRecorded)
	})
	g.Go(func() error {
		scheduler.Start()
		logger.Info("Reconcile schedule started", "schedule", cfg.SyncSchedule)
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Sync worker stopped", applog.FieldError, err)
		scheduler.Stop()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Sync worker stopped gracefully")
}
