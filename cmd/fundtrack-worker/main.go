package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"fundtrack/internal/amqp"
	"fundtrack/internal/config"
	"fundtrack/internal/log"
	"fundtrack/internal/sheets"
	"fundtrack/internal/sheets/google"
	"fundtrack/internal/sheets/memory"
	"fundtrack/internal/storage"
	"fundtrack/internal/worker"
)

func main() {
	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := openRepository(cfg)
	if err != nil {
		logger.Error("Failed to open record store",
			log.FieldError, err,
			log.FieldDriver, cfg.DBDriver)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var appender sheets.RecordAppender
	if cfg.GoogleSpreadsheetID != "" {
		client, err := google.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		appender = client
		logger.Info("Google Sheets export enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		// Without a spreadsheet the worker still drains the queue and
		// marks records exported so they do not pile up.
		appender = memory.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID provided, exporting to memory only")
	}

	exportWorker := worker.NewExportWorker(repo, appender, cfg.ExportBatchSize)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.Consume(ctx, func(event *amqp.RecordEvent) error {
				return exportWorker.HandleEvent(ctx, event)
			})
		})
	} else {
		logger.Info("No AMQP_URL provided, relying on backlog sweeps only")
	}

	g.Go(func() error {
		return exportWorker.RunSweeper(ctx, cfg.ExportInterval)
	})

	logger.Info("Starting fundtrack worker",
		"batch_size", cfg.ExportBatchSize,
		"interval", cfg.ExportInterval.String())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func openRepository(cfg *config.Config) (*storage.Repository, error) {
	opts := storage.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		ConnTimeout:  cfg.DBConnTimeout,
	}
	if cfg.DBDriver == storage.DriverMySQL {
		return storage.OpenMySQL(cfg.MySQLDSN, opts)
	}
	return storage.OpenSQLite(cfg.SQLiteDBPath, opts)
}
