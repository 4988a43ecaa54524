package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/waste-collection/internal/app/simulator"
	"github.com/magabrotheeeer/waste-collection/internal/config"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("starting simulator", slog.String("env", cfg.Env), slog.Duration("interval", cfg.SimulatorInterval))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := simulator.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize simulator", sl.Err(err))
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		logger.Error("simulator stopped with error", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("simulator stopped gracefully")
}
