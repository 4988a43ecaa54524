package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/waste-collection/internal/app/collector"
	"github.com/magabrotheeeer/waste-collection/internal/client"
	"github.com/magabrotheeeer/waste-collection/internal/config"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/models"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.LoadConsole()
	if err != nil {
		logger.Error("failed to load config", sl.Err(err))
		os.Exit(1)
	}

	api, err := client.New(cfg.APIURL, cfg.APITimeout)
	if err != nil {
		logger.Error("failed to create api client", sl.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	console := collector.New(api, os.Stdin, os.Stdout, logger)
	lat, lng, ok, err := cfg.Coordinates()
	if err != nil {
		logger.Warn("ignoring collector position", sl.Err(err))
	} else if ok {
		console.Live = &models.Location{Lat: lat, Lng: lng}
	}

	if err := console.Run(ctx); err != nil {
		logger.Error("console stopped with error", sl.Err(err))
		os.Exit(1)
	}
}
