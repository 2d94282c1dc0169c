// Package main implements sensorsim, a stand-in for the ESP pulse oximeter
// web endpoint. Each GET /data advances the simulated waveform by one sample.
package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/HatiCode/pulsewatch/pkg/adapters"
	"github.com/HatiCode/pulsewatch/pkg/httpx"
)

// Routes returns the sensor endpoints:
//
//	GET  /data            next reading as [{"type":"IR",...},{"type":"SPO2",...}]
//	POST /finger?on=bool  place or lift the simulated finger
//	GET  /healthz
func Routes(src *adapters.SimSource, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", httpx.HealthHandler())

	mux.HandleFunc("GET /data", func(w http.ResponseWriter, r *http.Request) {
		sample, err := src.Collect(r.Context())
		if err != nil {
			httpx.WriteError(w, http.StatusServiceUnavailable, err)
			return
		}
		body, err := adapters.EncodeReadings(sample)
		if err != nil {
			logger.Error("failed to encode readings", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		// The ESP firmware serves the page to browsers on the LAN.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		_, _ = w.Write(body)
	})

	mux.HandleFunc("POST /finger", func(w http.ResponseWriter, r *http.Request) {
		on, err := strconv.ParseBool(r.URL.Query().Get("on"))
		if err != nil {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "on must be true or false")
			return
		}
		src.SetFinger(on)
		logger.Info("finger toggled", "on", on)
		w.WriteHeader(http.StatusNoContent)
	})

	return httpx.RecoveryMiddleware(logger)(httpx.LoggingMiddleware(logger)(mux))
}
