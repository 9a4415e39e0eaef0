// Copyright (c) 2026 The Wire. All rights reserved.

/*
Package api implements the observability endpoints for The Wire.

It provides standard Kubernetes-style probes (liveness, readiness) to monitor the
operational health of the application and its critical dependencies.

Architecture:

  - Liveness: Returns 200 OK as long as the process is running.
  - Readiness: Performs shallow pings of Redis (the only datastore — the actor
    runtime, KV store, and queue all sit on top of it) to verify connectivity.

These handlers ensure that traffic is only routed to "warm" instances that are
fully connected to the data plane.
*/
package api

import (
	"log/slog"
	"net/http"

	"github.com/chrischabot/the-wire/internal/platform/constants"
	"github.com/chrischabot/the-wire/internal/platform/respond"
)

// # Data Structures

// HealthDependencies holds the injectable dependency checkers for system probes.
type HealthDependencies struct {
	// CheckCache performs a shallow ping of the Redis client backing the
	// KV store and queue.
	CheckCache func() error
}

// healthHandler orchestrates the execution of connectivity checks.
type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

// # Constructors

// NewHealthHandlers constructs the liveness and readiness [http.HandlerFunc] pair.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{
		dependencies: deps,
		logger:       logger,
	}
	return handler.liveness, handler.readiness
}

// # Handlers

// liveness handles GET /health.
// It confirms that the HTTP server is alive and accepting connections.
func (handler *healthHandler) liveness(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, map[string]string{
		constants.FieldStatus:  "ok",
		constants.FieldApp:     constants.AppName,
		constants.FieldVersion: constants.AppVersion,
	})
}

// readiness handles GET /ready.
// It verifies that the Redis-backed dependencies are reachable.
func (handler *healthHandler) readiness(writer http.ResponseWriter, _ *http.Request) {

	// Inner type for individual check reporting
	type checkResult struct {
		Name  string `json:"name"`
		IsOK  bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	results := make([]checkResult, 0, 1)
	isSystemReady := true

	// 1. Check Redis Connectivity
	if handler.dependencies.CheckCache != nil {
		result := checkResult{Name: "redis", IsOK: true}
		if err := handler.dependencies.CheckCache(); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			isSystemReady = false
			handler.logger.Error("readiness_check_failed",
				slog.String("dependency", "redis"),
				slog.Any("error", err),
			)
		}
		results = append(results, result)
	}

	// 2. Determine Response State
	responseStatus := "ready"
	httpStatus := http.StatusOK

	if !isSystemReady {
		responseStatus = "degraded"
		httpStatus = http.StatusServiceUnavailable

		// Manual header injection for error states to bypass default respond wrappers
		writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		writer.WriteHeader(httpStatus)
	}

	// 3. Send Response
	respond.OK(writer, map[string]any{
		constants.FieldStatus: responseStatus,
		constants.FieldChecks: results,
	})
}
