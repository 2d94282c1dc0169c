package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/HatiCode/pulsewatch/cmd/monitor/config"
	"github.com/HatiCode/pulsewatch/cmd/monitor/logger"
	"github.com/HatiCode/pulsewatch/cmd/monitor/metrics"
	"github.com/HatiCode/pulsewatch/cmd/monitor/router"
	"github.com/HatiCode/pulsewatch/cmd/monitor/sources"
	"github.com/HatiCode/pulsewatch/cmd/monitor/store"
	"github.com/HatiCode/pulsewatch/pkg/httpx"
	"github.com/HatiCode/pulsewatch/pkg/live"
	"github.com/HatiCode/pulsewatch/pkg/pipeline"
	"github.com/HatiCode/pulsewatch/pkg/rate"
	"github.com/HatiCode/pulsewatch/pkg/signal"
	"github.com/HatiCode/pulsewatch/pkg/storage"
	"github.com/HatiCode/pulsewatch/pkg/stream"
)

func main() {
	cfg := config.ParseFlags()

	logger := logger.New(cfg)
	slog.SetDefault(logger)

	logger.Info("starting pulsewatch monitor",
		"version", "v0.1.0",
		"device", cfg.Device,
		"source", cfg.Source,
		"poll_interval", cfg.PollInterval,
	)

	m := metrics.New(cfg.Device, cfg.Source, nil)
	source := sources.New(cfg, logger)
	snapshots := store.New(cfg, logger)

	hub := live.NewHub(logger)
	sinks := []Sink{&liveSink{hub: hub, metrics: m}}

	var publisher *stream.Publisher
	if cfg.NATSURL != "" {
		nc, err := stream.Connect(cfg.NATSURL, "pulsewatch-monitor-"+cfg.Device)
		if err != nil {
			logger.Error("failed to connect to nats", "url", cfg.NATSURL, "error", err)
			os.Exit(1)
		}
		publisher = stream.NewPublisher(nc, cfg.NATSSubject)
		sinks = append(sinks, publisher)
		logger.Info("publishing snapshots to nats", "subject", stream.Subject(cfg.NATSSubject, cfg.Device))
	}

	ctrl := pipeline.New(rate.NewEstimator(), signal.Capacity)
	mon := New(cfg.Device, source, ctrl, snapshots, Options{
		TailLength:     cfg.TailLength,
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        m,
		Logger:         logger,
		Sinks:          sinks,
	})

	mux := router.SetupRoutes(router.Routes{
		Session:    mon,
		Store:      snapshots,
		Device:     cfg.Device,
		StaleAfter: cfg.StaleAfter,
		Live:       hub.Handler(),
		Logger:     logger,
	})
	handler := httpx.RecoveryMiddleware(logger)(httpx.LoggingMiddleware(logger)(mux))
	httpServer := httpx.NewServer(cfg.Listen, handler, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.AutoConnect {
		if err := mon.Connect(ctx); err != nil {
			logger.Warn("autoconnect failed, waiting for POST /session/connect", "error", err)
		}
	}

	go func() {
		if err := mon.Run(ctx, cfg.PollInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("sampling loop failed", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}

	logger.Info("shutting down")
	cancel()
	mon.Disconnect("shutdown")

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("nats drain failed", "error", err)
		}
	}
	closeIfCloser(source, "source", logger)
	closeIfCloser(snapshots, "store", logger)

	if err := httpServer.Stop(10 * time.Second); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// liveSink forwards snapshots to websocket clients and tracks how many are
// connected.
type liveSink struct {
	hub     *live.Hub
	metrics *metrics.Metrics
}

func (s *liveSink) Publish(snap storage.Snapshot) error {
	s.metrics.SetLiveClients(s.hub.Len())
	return s.hub.Publish(snap)
}

func closeIfCloser(v any, name string, logger *slog.Logger) {
	if c, ok := v.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Error("close failed", "component", name, "error", err)
		}
	}
}
