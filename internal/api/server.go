// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/chrischabot/the-wire/internal/platform/config"
	"github.com/chrischabot/the-wire/internal/platform/constants"
	"github.com/chrischabot/the-wire/internal/platform/middleware"
	"github.com/chrischabot/the-wire/internal/services/homefeed"
	"github.com/chrischabot/the-wire/internal/services/postsvc"
	"github.com/chrischabot/the-wire/internal/services/profile"
	"github.com/chrischabot/the-wire/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here and a matching Mount in [NewServer].
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles the account lifecycle: signup, login, refresh, logout,
	// password recovery.
	Auth *auth.Handler

	// Profile handles public profiles, settings, and the social graph
	// (follow/unfollow/block/unblock and their listings).
	Profile *profile.Handler

	// Posts handles post creation, retrieval, deletion, threads, replies,
	// likes, and reposts.
	Posts *postsvc.Handler

	// Feed handles the home, chronological, and global timelines.
	Feed *homefeed.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	rte := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	rte.Use(middleware.RequestID())
	rte.Use(middleware.StructuredLogger(log))
	rte.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	rte.Use(middleware.RateLimit(ctx))
	rte.Use(middleware.PanicRecovery(log))
	rte.Use(middleware.Authenticate(verifier))
	rte.Use(middleware.CORS(cfg))
	rte.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	rte.Get("/health", h.Liveness)
	rte.Get("/ready", h.Readiness)

	// # Application API
	// Domain-specific route groups, matching spec.md §6's literal paths.
	rte.Route("/api", func(api chi.Router) {
		api.Mount("/auth", h.Auth.Routes())
		api.Mount("/users", h.Profile.Routes())
		api.Mount("/posts", h.Posts.Routes())
		api.Mount("/feed", h.Feed.Routes())
	})

	return &Server{
		router: rte,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           rte,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
