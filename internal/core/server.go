// Package core provides the API chassis for the seasafe service: a chi
// router with the cross-cutting middleware chain (panic recovery, request
// correlation, structured request logging, timeouts) applied before requests
// reach domain handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"seasafe/internal/config"
)

// Server bundles the router and shared dependencies so that tests can inject
// their own configuration and logger.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	HealthProbes []HealthProbe

	// OnShutdown hooks run during graceful shutdown (e.g. closing the
	// database pool). Errors are logged; the first one is returned.
	OnShutdown []func(context.Context) error

	router *chi.Mux
}

// NewServer builds the chassis. The caller mounts domain routes afterwards
// via MountRoutes; the separation lets tests register their own handlers.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// RouteRegistrar mounts a group of domain routes onto the v1 router.
type RouteRegistrar func(r chi.Router)

// MountRoutes registers the global middleware chain, the /v1 API group, and
// the health endpoint. Middleware order matters: the recoverer is outermost
// so every panic is caught, and the request ID precedes logging so log lines
// carry the correlation ID.
func (s *Server) MountRoutes(registrars ...RouteRegistrar) {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.requestTimeout()))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))

	s.router.Route("/v1", func(r chi.Router) {
		for _, register := range registrars {
			register(r)
		}
	})

	s.router.Get("/health", s.HandleHealth)
}

// requestTimeout returns the configured soft request deadline.
func (s *Server) requestTimeout() time.Duration {
	if s.Config.Server.RequestTimeout > 0 {
		return s.Config.Server.RequestTimeout
	}
	return 15 * time.Second
}

// Shutdown performs a graceful termination of server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	var firstErr error
	for _, hook := range s.OnShutdown {
		if err := hook(ctx); err != nil {
			s.Logger.Error("shutdown hook failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.Logger.Info("server shutdown complete")
	return firstErr
}
