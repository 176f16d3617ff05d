package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hstefan/energy-sensors/internal/auth"
)

// healthCheckTimeout bounds each component check on /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/telegrams", func(r chi.Router) {
			r.Post("/parse", s.handleParseTelegram)
			r.Post("/parse/batch", s.handleParseBatch)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.With(s.requireScope(auth.ScopeIngest)).Post("/", s.handleStoreEvent)
			r.Get("/{id}", s.handleGetEvent)
		})

		r.Route("/clusters", func(r chi.Router) {
			r.Get("/summary", s.handleClusterSummary)
			r.With(s.requireScope(auth.ScopeCluster)).Post("/compute", s.handleComputeClusters)
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth reports the server version and the state of each
// registered component. Any failing component makes the response 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, c := range s.checks {
		if err := c.HealthCheck(ctx); err != nil {
			checks[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	clients := 0
	if s.hub != nil {
		clients = s.hub.ClientCount()
	}

	writeJSON(w, code, map[string]any{
		"status":            status,
		"version":           s.version,
		"uptime_seconds":    int64(time.Since(s.started).Seconds()),
		"websocket_clients": clients,
		"checks":            checks,
	})
}
