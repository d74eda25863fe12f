package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"checkbook/internal/cli"
	"checkbook/internal/core"
	"checkbook/internal/log"
	"checkbook/internal/services"
)

func main() {
	user := flag.String("user", "", "user to compute the balance for (required)")
	dateFlag := flag.String("date", "", "snapshot day (YYYY-MM-DD, default today)")
	asJSON := flag.Bool("json", false, "print the snapshot as JSON")
	flag.Parse()

	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentBalance, os.Getenv("LOG_LEVEL"))

	if *user == "" {
		fmt.Fprintln(os.Stderr, "usage: checkbook-balance -user <id> [-date YYYY-MM-DD] [-json]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger)

	backendResult := cli.InitBackend(context.Background(), logger, cfg)
	defer func() {
		if backendResult.Cleanup != nil {
			if err := backendResult.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}
	}()

	clock := core.NewClock(cfg.Location())
	asOf := clock.Today()
	if *dateFlag != "" {
		parsed, err := core.ParseDate(*dateFlag)
		if err != nil {
			logger.Error("Invalid -date value", "date", *dateFlag, "error", err)
			os.Exit(1)
		}
		asOf = parsed
	}

	balanceService := services.NewBalanceService(backendResult.Store)
	snapshot, err := balanceService.ComputeBalance(context.Background(), *user, asOf)
	if err != nil {
		logger.Error("Failed to compute balance", "user_id", *user, "as_of", asOf.String(), "error", err)
		os.Exit(1)
	}

	if *asJSON {
		out, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			logger.Error("Failed to encode snapshot", "error", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	printSnapshot(snapshot)
}

func printSnapshot(s core.BalanceSnapshot) {
	fmt.Printf("Balance for %s as of %s\n\n", s.UserID, s.Date)
	fmt.Printf("  %-24s %12s\n", "Cash", s.CashNet)
	for _, a := range s.Accounts {
		warn := ""
		if a.IsLowBalance {
			warn = "  LOW"
		}
		fmt.Printf("  %-24s %12s%s\n", a.Name, a.Balance, warn)
	}
	fmt.Printf("\n  %-24s %12s\n", "Overall", s.Overall)
}
