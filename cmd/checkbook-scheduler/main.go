package main

import (
	"context"
	"flag"
	"os"

	"checkbook/internal/amqp"
	"checkbook/internal/cli"
	"checkbook/internal/core"
	"checkbook/internal/log"
	"checkbook/internal/services"
)

func main() {
	once := flag.Bool("once", false, "process due templates once and exit")
	dateFlag := flag.String("date", "", "process as of this day (YYYY-MM-DD, implies -once)")
	flag.Parse()

	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentScheduler, os.Getenv("LOG_LEVEL"))
	logger.Info("Starting checkbook-scheduler")

	cfg := cli.LoadAndValidateConfig(logger)

	backendResult := cli.InitBackend(context.Background(), logger, cfg)

	// AMQP is optional; created entries still land in the store without it
	// and the mirror worker's pending sweep picks them up later.
	amqpClient := cli.InitAMQP(logger, cfg)

	ledgerService := services.NewLedgerService(backendResult.Store, amqpClient)
	processor := services.NewRecurringProcessor(backendResult.Store, ledgerService)
	clock := core.NewClock(cfg.Location())

	if *once || *dateFlag != "" {
		runOnce(logger, processor, clock, *dateFlag, func() {
			closeAll(logger, amqpClient, backendResult.Cleanup)
		})
		return
	}

	scheduler := services.NewScheduler(processor, clock, services.SchedulerConfig{
		Interval: cfg.SchedulerInterval,
	})

	cleanup := func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer stopCancel()
		if err := scheduler.Stop(stopCtx); err != nil {
			logger.Error("Scheduler stop failed", "error", err)
		}
		closeAll(logger, amqpClient, backendResult.Cleanup)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, cleanup)

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	logger.Info("Recurring template scheduler configured",
		"interval", cfg.SchedulerInterval,
		"backend", cfg.DataBackend)

	cli.WaitForShutdown(ctx, done)
}

// runOnce processes a single batch and exits non-zero when anything failed.
func runOnce(logger *log.Logger, processor *services.RecurringProcessor, clock core.Clock, dateFlag string, cleanup func()) {
	asOf := clock.Today()
	if dateFlag != "" {
		parsed, err := core.ParseDate(dateFlag)
		if err != nil {
			logger.Error("Invalid -date value", "date", dateFlag, "error", err)
			cleanup()
			os.Exit(1)
		}
		asOf = parsed
	}

	result, err := processor.ProcessDue(context.Background(), asOf)
	if err != nil {
		logger.Error("Processing failed", "as_of", asOf.String(), "error", err)
		cleanup()
		os.Exit(1)
	}

	logger.Info("Processing complete",
		"as_of", asOf.String(),
		"processed", result.Processed,
		"failed", result.Failed)

	cleanup()
	if result.Failed > 0 {
		os.Exit(1)
	}
}

func closeAll(logger *log.Logger, amqpClient *amqp.Client, backendCleanup func() error) {
	if amqpClient != nil {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close failed", "error", err)
		}
	}
	if backendCleanup != nil {
		if err := backendCleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}
}
