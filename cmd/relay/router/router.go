// Package router configures HTTP routes for the relay's HTTP server.
//
// The relay exposes an auxiliary HTTP server (separate from the main gRPC service)
// that provides health checks and Prometheus metrics.
//
// Routes configured:
//   - GET /healthz - Health check endpoint (returns 200 OK)
//   - GET /metrics - Prometheus metrics endpoint
package router

import (
	"log/slog"
	"net/http"

	"github.com/HatiCode/pulsewatch/pkg/httpx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures HTTP routes for the relay
func SetupRoutes(logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/healthz", httpx.HealthHandler())

	mux.Handle("/metrics", promhttp.Handler())

	return httpx.RecoveryMiddleware(logger)(mux)
}
