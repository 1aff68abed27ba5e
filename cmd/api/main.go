// Package main is the entry point for the SeaSafe API server.
//
// It loads the configuration, wires the weather upstream client, the marine
// forecast cache, the safety evaluator's routing and alerting collaborators,
// and the optional PostgreSQL persistence, then serves HTTP with the core
// chassis (middleware, routing, health checks).
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"seasafe/internal/alerts"
	"seasafe/internal/api/handlers"
	"seasafe/internal/config"
	"seasafe/internal/core"
	"seasafe/internal/db"
	"seasafe/internal/external"
	"seasafe/internal/marine"
	"seasafe/internal/routing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("seasafe API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
	)

	// Optional persistence. An empty DATABASE_URL runs purely in-memory.
	var pool *pgxpool.Pool
	var alertRepo alerts.Repository
	var historyStore handlers.HistoryStoreInterface
	var alertStore handlers.AlertStoreInterface
	if cfg.Database.URL != "" {
		pool, err = db.NewPool(context.Background(), cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		repo := db.NewAlertRepository(pool)
		alertRepo = repo
		alertStore = repo
		historyStore = db.NewSampleRepository(pool)
		logger.Info("database persistence enabled")
	} else {
		logger.Info("no DATABASE_URL set, running without persistence")
	}

	// Weather upstream: resilient HTTP client feeding the forecast cache.
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

	// Safety collaborators.
	thresholds := cfg.Thresholds.Loaded
	costModel := routing.NewCostModel(thresholds)
	routeAssessor := routing.NewRouteAssessor(marineSvc, costModel, 0)
	alertManager := alerts.NewManager(alertRepo, logger, nil)

	// Build the server and mount routes.
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	if pool != nil {
		srv.HealthProbes = append(srv.HealthProbes, db.PoolProbe{Pool: pool})
		srv.OnShutdown = append(srv.OnShutdown, func(ctx context.Context) error {
			pool.Close()
			return nil
		})
	}

	safetyHandler := handlers.NewSafetyHandler(routeAssessor, thresholds, logger)
	conditionsHandler := handlers.NewConditionsHandler(marineSvc, historyStore, thresholds, logger)
	alertsHandler := handlers.NewAlertsHandler(alertManager, alertStore, logger)

	srv.MountRoutes(func(r chi.Router) {
		r.Route("/safety", safetyHandler.RegisterRoutes)
		r.Route("/conditions", conditionsHandler.RegisterRoutes)
		r.Route("/alerts", alertsHandler.RegisterRoutes)
	})

	return runHTTPServer(srv, cfg, logger)
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
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
