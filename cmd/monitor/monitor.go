// Package main implements the pulsewatch monitor service.
// The monitor samples a PPG sensor, keeps the sliding-window pipeline for
// one session, estimates heart rate and serves the live snapshot over HTTP,
// websockets and NATS.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/HatiCode/pulsewatch/cmd/monitor/metrics"
	"github.com/HatiCode/pulsewatch/pkg/adapters"
	"github.com/HatiCode/pulsewatch/pkg/pipeline"
	"github.com/HatiCode/pulsewatch/pkg/signal"
	"github.com/HatiCode/pulsewatch/pkg/storage"
)

// Sink receives every snapshot the monitor produces.
type Sink interface {
	Publish(snap storage.Snapshot) error
}

// Monitor drives one sensor session: tick → collect → ingest → store → fan-out.
// All methods are safe for concurrent use; ticks and session transitions are
// serialized.
type Monitor struct {
	mu sync.Mutex

	device         string
	source         adapters.Source
	ctrl           *pipeline.Controller
	store          storage.Store
	sinks          []Sink
	metrics        *metrics.Metrics
	logger         *slog.Logger
	tailLen        int
	requestTimeout time.Duration
}

// Options holds the optional Monitor settings.
type Options struct {
	// TailLength is the number of buffered values per channel copied into
	// each snapshot. 0 omits the tails.
	TailLength int
	// RequestTimeout bounds one Collect or Probe call. 0 means 2s.
	RequestTimeout time.Duration
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	Sinks          []Sink
}

// New creates an idle Monitor.
func New(device string, source adapters.Source, ctrl *pipeline.Controller, store storage.Store, opts Options) *Monitor {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Second
	}

	return &Monitor{
		device:         device,
		source:         source,
		ctrl:           ctrl,
		store:          store,
		sinks:          opts.Sinks,
		metrics:        opts.Metrics,
		logger:         opts.Logger.With("device", device),
		tailLen:        opts.TailLength,
		requestTimeout: opts.RequestTimeout,
	}
}

// Connect probes the source and starts streaming. Connecting an already
// streaming session is a no-op.
func (m *Monitor) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctrl.Status() == pipeline.Streaming {
		return nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	if err := m.source.Probe(probeCtx); err != nil {
		m.metrics.RecordError("source", "probe")
		return fmt.Errorf("probe %s source: %w", m.source.Name(), err)
	}

	m.ctrl.Start()
	m.metrics.SetStreaming(true)
	m.logger.Info("session connected", "source", m.source.Name())

	m.publish(m.ctrl.State())
	return nil
}

// Disconnect stops streaming, keeping the buffer and the last estimates.
func (m *Monitor) Disconnect(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.disconnect(reason)
}

func (m *Monitor) disconnect(reason string) {
	if m.ctrl.Status() != pipeline.Streaming {
		return
	}

	m.ctrl.Stop()
	m.metrics.SetStreaming(false)
	m.logger.Info("session disconnected", "reason", reason)

	m.publish(m.ctrl.State())
}

// Reset discards the session buffer and estimates and leaves the monitor
// idle.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ctrl.Reset()
	m.metrics.SetStreaming(false)
	m.logger.Info("session reset")

	m.publish(m.ctrl.State())
}

// Streaming reports whether the session is accepting ticks.
func (m *Monitor) Streaming() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctrl.Status() == pipeline.Streaming
}

// Snapshot returns the current snapshot without storing it.
func (m *Monitor) Snapshot() storage.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(m.ctrl.State())
}

// Run samples the source at regular intervals until ctx is canceled. The
// current state is published once before the first tick so readers see
// an idle session immediately.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) error {
	m.logger.Info("starting sampling loop", "interval", interval)

	m.mu.Lock()
	m.publish(m.ctrl.State())
	m.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sampling loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := m.Tick(ctx); err != nil {
				m.logger.Warn("sampling tick failed", "error", err)
			}
		}
	}
}

// Tick performs one sampling cycle. It does nothing while the session is
// idle. A transport failure ends the session; a malformed reading is
// dropped and the session continues.
// Exported for testing purposes.
func (m *Monitor) Tick(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctrl.Status() != pipeline.Streaming {
		return nil
	}

	start := time.Now()

	sample, collectDuration, err := m.collect(ctx)
	if err != nil {
		if errors.Is(err, signal.ErrMalformedSample) {
			m.metrics.RecordSample("rejected")
			return fmt.Errorf("collect: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.metrics.RecordError("source", "collect")
		m.disconnect("collect failed")
		return fmt.Errorf("collect: %w", err)
	}

	state, err := m.ctrl.Ingest(sample)
	if err != nil {
		m.metrics.RecordSample("rejected")
		return fmt.Errorf("ingest: %w", err)
	}
	m.metrics.RecordSample("accepted")
	m.metrics.SetValidity(state.Validity)
	m.metrics.SetHeartRate("10s", state.Rate.WindowBpm10s)
	m.metrics.SetHeartRate("30s", state.Rate.WindowBpm30s)

	m.publish(state)

	m.metrics.ObserveTick(time.Since(start))
	m.logger.Debug("sampling tick complete",
		"ticks", state.Ticks,
		"ir", state.IR,
		"spo2", state.SpO2,
		"bpm_10s", state.Rate.WindowBpm10s,
		"bpm_30s", state.Rate.WindowBpm30s,
		"collect_ms", collectDuration.Milliseconds(),
		"total_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

func (m *Monitor) collect(ctx context.Context) (signal.Sample, time.Duration, error) {
	start := time.Now()

	collectCtx, cancel := context.WithTimeout(ctx, m.requestTimeout)
	defer cancel()

	sample, err := m.source.Collect(collectCtx)
	if err != nil {
		return signal.Sample{}, 0, err
	}

	duration := time.Since(start)
	m.metrics.ObserveCollect(duration)
	return sample, duration, nil
}

// publish stores the snapshot for state and hands it to every sink. Sink
// failures are logged and counted; they never affect the session.
func (m *Monitor) publish(state pipeline.State) {
	snap := m.snapshot(state)

	if err := m.store.Put(snap); err != nil {
		m.metrics.RecordError("store", "put")
		m.logger.Error("failed to store snapshot", "error", err)
	}

	for _, sink := range m.sinks {
		if err := sink.Publish(snap); err != nil {
			m.metrics.RecordError("sink", fmt.Sprintf("%T", sink))
			m.logger.Warn("failed to publish snapshot", "sink", fmt.Sprintf("%T", sink), "error", err)
		}
	}
}

func (m *Monitor) snapshot(state pipeline.State) storage.Snapshot {
	snap := storage.Snapshot{
		Device:             m.device,
		Status:             state.Status.String(),
		GeneratedAt:        time.Now(),
		Ticks:              state.Ticks,
		IR:                 state.IR,
		SpO2:               state.SpO2,
		IRValid:            state.Validity.IR,
		SpO2Valid:          state.Validity.SpO2,
		SpO2Available:      state.SpO2Available,
		HeartRateAvailable: state.HeartRateAvailable,
		WindowBpm10s:       state.Rate.WindowBpm10s,
		WindowBpm30s:       state.Rate.WindowBpm30s,
	}
	if m.tailLen > 0 {
		snap.IRTail = m.ctrl.Tail(signal.IR, m.tailLen)
		snap.SpO2Tail = m.ctrl.Tail(signal.SpO2, m.tailLen)
	}
	return snap
}
