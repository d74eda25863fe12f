package main

import (
	"context"
	"errors"
	"os"
	"time"

	"checkbook/internal/amqp"
	"checkbook/internal/cache"
	"checkbook/internal/cli"
	"checkbook/internal/log"
	"checkbook/internal/sheets"
	gsheet "checkbook/internal/sheets/google"
	sheetsmem "checkbook/internal/sheets/memory"
	"checkbook/internal/worker"
)

// The event cache absorbs AMQP redeliveries; a day of IDs is plenty.
const (
	eventCacheSize = 1024
	eventCacheTTL  = 24 * time.Hour
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentWorker, os.Getenv("LOG_LEVEL"))
	logger.Info("Starting checkbook-mirror")

	cfg := cli.LoadAndValidateConfig(logger)

	backendResult := cli.InitBackend(context.Background(), logger, cfg)

	// Choose the mirror target: Google Sheets when configured, otherwise
	// an in-memory sink so local development works without credentials.
	var appender sheets.EntryAppender
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		appender = sheetsmem.New()
		logger.Info("Google Sheets disabled - mirroring to in-memory sink")
	}

	// Event-ID cache deduplicates AMQP redeliveries.
	seen := cache.NewLRUCache[struct{}](eventCacheSize, eventCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(seen)
	cacheManager.StartCleanup(10 * time.Minute)

	mirrorWorker := worker.NewMirrorWorker(backendResult.Store, appender, seen, cfg.MirrorBatchSize)

	amqpClient := cli.InitAMQP(logger, cfg)

	cleanup := func() {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close failed", "error", err)
			}
		}
		cacheManager.Stop()
		if backendResult.Cleanup != nil {
			if err := backendResult.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, cleanup)

	// On startup, mirror any entries that were missed while down.
	logger.Info("Performing startup mirror check...")
	if err := mirrorWorker.StartupMirrorCheck(ctx); err != nil {
		logger.Error("Failed startup mirror check", "error", err)
		// Don't exit - the periodic sweep will retry
	}

	// Consume entry-created messages when AMQP is available.
	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeEntryCreated(ctx, func(msg *amqp.EntryCreatedMessage) error {
				return mirrorWorker.HandleEntryCreated(ctx, msg)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed, relying on periodic sweep", "error", err)
			}
		}()
	} else {
		logger.Info("AMQP disabled - relying on periodic pending sweep")
	}

	// Periodic sweep for entries whose messages were lost.
	ticker := time.NewTicker(cfg.MirrorInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := mirrorWorker.ProcessPendingEntries(ctx); err != nil {
					logger.Error("Periodic mirror sweep failed", "error", err)
				}
			}
		}
	}()

	logger.Info("Mirror worker configured",
		"interval", cfg.MirrorInterval,
		"batch_size", cfg.MirrorBatchSize,
		"amqp_enabled", amqpClient != nil)

	cli.WaitForShutdown(ctx, done)
}
