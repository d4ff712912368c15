// Package controller contains the controller-specific logic for the HTTP API.
package controller

import (
	"context"
	"net/http"
	"time"

	"quantplane/internal/artifact"
	"quantplane/internal/controller/handlers"
	"quantplane/internal/controller/middleware"
	"quantplane/internal/logger"
	"quantplane/internal/pipeline"
	"quantplane/internal/store"
)

// Config holds server-level settings.
type Config struct {
	Addr           string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server is the HTTP server for the controller API.
type Server struct {
	httpServer *http.Server
}

// New creates a new controller server over the given store backend.
func New(cfg Config, s store.Store, artifacts *artifact.Store, metricsHandler http.Handler) *Server {
	svc := pipeline.NewService(s)
	h := handlers.New(s, svc, artifacts)

	log := logger.New("controller")
	logMW := middleware.LoggingMiddleware(log)
	authMW := middleware.AuthMiddleware(s)
	limitMW := middleware.RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
	protected := func(fn http.HandlerFunc) http.Handler {
		return authMW(limitMW(fn))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	mux.HandleFunc("POST /tenants", h.CreateTenant)

	mux.Handle("POST /datasets", protected(h.CreateDataset))
	mux.Handle("POST /datasets/{id}/versions", protected(h.IngestVersion))
	mux.Handle("GET /datasets/{id}/versions/{vid}", protected(h.GetDatasetVersion))

	mux.Handle("POST /strategies", protected(h.CreateStrategy))
	mux.Handle("GET /strategies/{id}", protected(h.GetStrategy))
	mux.Handle("POST /accounts", protected(h.CreateAccount))

	mux.Handle("POST /forecasts", protected(h.CreateForecast))
	mux.Handle("GET /forecasts/{id}", protected(h.GetForecast))
	mux.Handle("GET /forecasts/{id}/result", protected(h.GetForecastResult))

	mux.Handle("POST /signal-runs", protected(h.CreateSignalRun))
	mux.Handle("GET /signal-runs/{id}", protected(h.GetSignalRun))

	mux.Handle("POST /sim-runs", protected(h.CreateSimRun))
	mux.Handle("GET /sim-runs/{id}", protected(h.GetSimRun))

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      logMW(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Run starts the HTTP server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
