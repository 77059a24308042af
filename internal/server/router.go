// Package server provides HTTP server setup for the dispatch service.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telhawk-systems/telhawk-iris/internal/handlers"
)

// NewRouter constructs a ServeMux with the dispatch API routes registered.
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("/healthz", h.HealthCheck)
	mux.HandleFunc("/readyz", h.ReadyCheck)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	// Alerter registry and manual dispatch
	mux.HandleFunc("/api/v1/alerters", h.Alerters)
	mux.HandleFunc("/api/v1/dispatch/", h.Dispatch)

	return mux
}
