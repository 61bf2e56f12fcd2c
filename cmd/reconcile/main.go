// Command reconcile compares recent completed checkout sessions against
// enrollments and fulfills any the webhook missed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sparkfish/internal/app"
	"sparkfish/internal/platform/config"
	"sparkfish/internal/platform/logger"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report missing enrollments without creating them")
	lookback := flag.Duration("lookback", 0, "how far back to scan (default RECONCILE_LOOKBACK)")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	// Logs go to stderr so stdout carries only the report.
	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log, *lookback, *dryRun); err != nil {
		log.Error("reconciliation failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger, lookback time.Duration, dryRun bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			log.Warn("failed to release resources", "error", err)
		}
	}()

	report, err := a.Reconciler(lookback, dryRun).Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	// Cron alerts on the exit status; the report above still lists what failed.
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d sessions could not be fulfilled", len(report.Failed))
	}
	return nil
}
