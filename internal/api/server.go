// Copyright (c) 2026 SafHub. All rights reserved.

// Package api is the composition root of the identity backend's HTTP
// surface. Routes follow the layout hosted auth clients expect: /auth/v1
// for sessions and /rest/v1 for the row store.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/safhub/safhub/internal/identity"
	"github.com/safhub/safhub/internal/platform/config"
	"github.com/safhub/safhub/internal/platform/constants"
	"github.com/safhub/safhub/internal/platform/middleware"
)

// Server pairs the chi router with its [http.Server].
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// Handlers are the route groups mounted by [NewServer].
type Handlers struct {
	Liveness  http.HandlerFunc
	Readiness http.HandlerFunc

	// Identity serves /auth/v1: sign-up, token grants, user, logout, verify.
	Identity *identity.Handler

	// Roles serves /rest/v1/user_roles.
	Roles *identity.RoleHandler
}

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups. The rate limiters' sweepers stop with context.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context, middleware.Limits{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.Authenticate(verifier))
	r.Use(chimw.CleanPath)

	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	r.Route("/auth/v1", func(auth chi.Router) {
		auth.Use(middleware.RateLimit(context, middleware.Limits{RPS: cfg.AuthRateLimitRPS, Burst: cfg.AuthRateLimitBurst}))
		auth.Mount("/", h.Identity.Routes())
	})
	r.Route("/rest/v1", func(rest chi.Router) {
		rest.Mount("/user_roles", h.Roles.Routes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Lifecycle

/*
Run serves until ctx is cancelled, then drains in-flight requests for
at most drain.

Returns:
  - error: a listen failure, or a drain that ran past its deadline
*/
func (s *Server) Run(ctx context.Context, drain time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server_listen_failed: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("server_draining", slog.Duration("timeout", drain))
	shutdown, cancel := context.WithTimeout(context.WithoutCancel(ctx), drain)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdown); err != nil {
		return fmt.Errorf("server_shutdown_failed: %w", err)
	}
	return nil
}
