package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sparkfish/internal/app"
	"sparkfish/internal/platform/config"
	"sparkfish/internal/platform/httpserver"
	"sparkfish/internal/platform/logger"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.UsingDevSigningKey() {
		log.Warn("SESSION_SIGNING_KEY not set; using the development key")
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.Server.Addr, a.Handler())
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting sparkfish", "addr", cfg.Server.Addr, "base_url", cfg.Server.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			_ = a.Close(context.Background())
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	// In-flight notifications drain before the stores close.
	return errors.Join(shutdownErr, a.Close(shutdownCtx))
}
