package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fundtrack/internal/amqp"
	"fundtrack/internal/config"
	apphttp "fundtrack/internal/http"
	"fundtrack/internal/log"
	"fundtrack/internal/services"
	"fundtrack/internal/storage"
)

func main() {
	logger := log.New(log.DefaultConfig())
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

	// Record events are optional; without a broker the store is still
	// the source of truth and the export worker catches up via its
	// backlog sweep.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Record event publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Record event publishing disabled - no AMQP_URL provided")
	}

	finance := services.NewFinanceService(repo, publisher)
	defer finance.Close()

	srv := apphttp.NewServer(":"+cfg.Port, finance)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting fundtrack server",
			"port", cfg.Port,
			log.FieldDriver, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
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
