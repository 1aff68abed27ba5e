// Package main is the entry point for the SeaSafe data poller daemon.
//
// The poller cycles over the configured watch locations, fetches the marine
// forecast for each, persists the samples when a database is configured, and
// feeds the aggregate safety outcome into the alert manager. It runs until
// interrupted (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"seasafe/internal/alerts"
	"seasafe/internal/config"
	"seasafe/internal/db"
	"seasafe/internal/external"
	"seasafe/internal/marine"
	"seasafe/internal/scheduler"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)

	locations, err := config.ParseWatchLocations(cfg.Poller.Locations)
	if err != nil {
		return fmt.Errorf("parsing watch locations: %w", err)
	}
	if len(locations) == 0 {
		return fmt.Errorf("no watch locations configured; set WATCH_LOCATIONS")
	}

	logger.Info("seasafe data poller starting",
		"environment", cfg.Environment,
		"locations", len(locations),
		"interval", cfg.Poller.Interval.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional persistence.
	var store scheduler.SampleStore
	var pruner scheduler.SamplePruner
	var alertRepo alerts.Repository
	if cfg.Database.URL != "" {
		pool, err := db.NewPool(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()
		sampleRepo := db.NewSampleRepository(pool)
		store = sampleRepo
		pruner = sampleRepo
		alertRepo = db.NewAlertRepository(pool)
		logger.Info("database persistence enabled")
	} else {
		logger.Info("no DATABASE_URL set, running without persistence")
	}

	upstream := external.NewClient(
		&http.Client{Timeout: cfg.Upstream.Timeout},
		"open-meteo",
		cfg.Upstream.UserAgent,
		external.DefaultRetryPolicy(),
	)
	fetcher := marine.NewOpenMeteoClient(
		upstream,
		cfg.Upstream.MarineBaseURL,
		cfg.Upstream.ForecastBaseURL,
		cfg.Upstream.ForecastDays,
		logger,
	)
	marineSvc := marine.NewService(fetcher, cfg.Upstream.RefreshInterval, logger, nil)
	alertManager := alerts.NewManager(alertRepo, logger, nil)

	poller := scheduler.NewPoller(scheduler.PollerConfig{
		Source:     marineSvc,
		Store:      store,
		Pruner:     pruner,
		Alerts:     alertManager,
		Locations:  locations,
		Thresholds: cfg.Thresholds.Loaded,
		Interval:   cfg.Poller.Interval,
		Retention:  cfg.Poller.Retention,
		Logger:     logger,
	})

	err = poller.Run(ctx)
	logger.Info("data poller stopped")
	return err
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
