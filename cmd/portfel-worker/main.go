package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"portfel/internal/amqp"
	"portfel/internal/cli"
	"portfel/internal/export"
	gsheet "portfel/internal/export/google"
	"portfel/internal/export/memory"
	"portfel/internal/log"
	"portfel/internal/worker"
)

func main() {
	logger, cfg, repo := cli.Bootstrap(log.ComponentWorker)
	defer repo.Close()
	logger.Info("Starting portfel-worker", log.FieldOperation, log.OpStartup)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Without a spreadsheet id exports land in an in-memory sink, which
	// keeps the alert path working in local setups.
	var appender export.TransactionAppender
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		appender = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		appender = memory.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID set, exporting to in-memory sink")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.SyncQueue, cfg.AlertQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, appender, repo.Alerts(), cfg.SyncBatchSize)

	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		// Recoverable: the periodic sweep retries whatever is left.
		logger.Error("Startup sync check failed", log.FieldError, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeMessages(ctx, syncWorker.HandleSyncMessage, syncWorker.HandleAlertMessage)
	})
	g.Go(func() error {
		return syncWorker.RunPendingSweep(ctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
