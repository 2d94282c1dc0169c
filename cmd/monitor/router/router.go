// Package router configures HTTP routes for the monitor's HTTP API.
//
// Routes configured:
//   - GET  /state?device=<id>   - Latest snapshot (defaults to the monitor's device)
//   - POST /session/connect     - Probe the sensor and start streaming
//   - POST /session/disconnect  - Stop streaming, keep the buffer
//   - POST /session/reset       - Discard the buffer and go idle
//   - GET  /ws                  - Websocket feed of snapshots
//   - GET  /healthz             - Health check endpoint (returns 200 OK)
//   - GET  /metrics             - Prometheus metrics endpoint
//
// Snapshots older than the stale threshold carry an X-Pulsewatch-Stale header.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/pulsewatch/pkg/client"
	"github.com/HatiCode/pulsewatch/pkg/httpx"
	"github.com/HatiCode/pulsewatch/pkg/storage"
)

// Session is the part of the monitor driven over HTTP.
type Session interface {
	Connect(ctx context.Context) error
	Disconnect(reason string)
	Reset()
	Snapshot() storage.Snapshot
}

// Routes holds the dependencies of the monitor's HTTP API.
type Routes struct {
	Session    Session
	Store      storage.Store
	Device     string
	StaleAfter time.Duration
	// Live serves /ws when set.
	Live   http.Handler
	Logger *slog.Logger
}

// SetupRoutes configures HTTP endpoints for the monitor.
func SetupRoutes(rt Routes) *http.ServeMux {
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}

	mux := http.NewServeMux()

	mux.Handle("GET /healthz", httpx.HealthHandler())
	mux.HandleFunc("GET /state", handleGetState(rt))

	mux.HandleFunc("POST /session/connect", handleConnect(rt))
	mux.HandleFunc("POST /session/disconnect", func(w http.ResponseWriter, r *http.Request) {
		rt.Session.Disconnect("requested")
		httpx.WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	})
	mux.HandleFunc("POST /session/reset", func(w http.ResponseWriter, r *http.Request) {
		rt.Session.Reset()
		httpx.WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	})

	if rt.Live != nil {
		mux.Handle("GET /ws", rt.Live)
	}

	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// handleGetState returns a handler for GET /state?device=<id>.
func handleGetState(rt Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		device := r.URL.Query().Get("device")
		if device == "" {
			device = rt.Device
		}
		if device == "" {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "device parameter required")
			return
		}

		snapshot, found, err := rt.Store.GetLatest(device)
		if err != nil {
			rt.Logger.Error("failed to get snapshot", "device", device, "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		if !found {
			httpx.WriteErrorMessage(w, http.StatusNotFound, fmt.Sprintf("snapshot not found for device %q", device))
			return
		}

		if rt.StaleAfter > 0 && time.Since(snapshot.GeneratedAt) > rt.StaleAfter {
			w.Header().Set(client.StaleHeader, "true")
		}

		httpx.WriteJSON(w, http.StatusOK, snapshot)
	}
}

// handleConnect returns a handler for POST /session/connect. A sensor that
// cannot be reached or does not identify as a PPG sensor yields 502.
func handleConnect(rt Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := rt.Session.Connect(r.Context()); err != nil {
			rt.Logger.Warn("connect failed", "error", err)
			httpx.WriteError(w, http.StatusBadGateway, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, rt.Session.Snapshot())
	}
}
