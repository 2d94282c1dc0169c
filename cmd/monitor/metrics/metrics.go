// Package metrics provides Prometheus metrics instrumentation for the monitor.
//
// Every metric carries the device as a const label, so several monitors can
// be scraped into one Prometheus without relabelling.
//
// Metrics exposed:
//   - pulsewatch_source_collect_seconds: Histogram of sensor read latency
//   - pulsewatch_tick_seconds: Histogram of a full tick (collect, ingest, store, fan-out)
//   - pulsewatch_heart_rate_bpm: Gauge of the latest estimate per window
//   - pulsewatch_channel_valid: Gauge (0/1) of the latest validity per channel
//   - pulsewatch_streaming: Gauge (0/1) of the session state
//   - pulsewatch_samples_total: Counter of ticks by result (accepted, rejected)
//   - pulsewatch_live_clients: Gauge of connected websocket clients
//   - pulsewatch_errors_total: Counter of errors by component and reason
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/HatiCode/pulsewatch/pkg/signal"
)

// Metrics is safe to use through a nil pointer, in which case every call is
// a no-op.
type Metrics struct {
	SourceCollectSeconds prometheus.Histogram
	TickSeconds          prometheus.Histogram
	HeartRateBPM         *prometheus.GaugeVec
	ChannelValid         *prometheus.GaugeVec
	Streaming            prometheus.Gauge
	SamplesTotal         *prometheus.CounterVec
	LiveClients          prometheus.Gauge
	ErrorsTotal          *prometheus.CounterVec
}

// tickBuckets covers the 250ms cadence with room for slow sensors.
var tickBuckets = []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

// New registers the monitor metrics on reg, or on the default registerer
// when reg is nil.
func New(device, source string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	labels := prometheus.Labels{"device": device}

	return &Metrics{
		SourceCollectSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "pulsewatch_source_collect_seconds",
			Help:        "Time spent reading one sample from the source",
			Buckets:     tickBuckets,
			ConstLabels: prometheus.Labels{"device": device, "source": source},
		}),
		TickSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "pulsewatch_tick_seconds",
			Help:        "Time spent on one sampling tick",
			Buckets:     tickBuckets,
			ConstLabels: labels,
		}),
		HeartRateBPM: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "pulsewatch_heart_rate_bpm",
			Help:        "Latest heart rate estimate by window",
			ConstLabels: labels,
		}, []string{"window"}),
		ChannelValid: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "pulsewatch_channel_valid",
			Help:        "Whether the latest reading of a channel is valid (1) or not (0)",
			ConstLabels: labels,
		}, []string{"channel"}),
		Streaming: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "pulsewatch_streaming",
			Help:        "Whether the session is streaming (1) or idle (0)",
			ConstLabels: labels,
		}),
		SamplesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "pulsewatch_samples_total",
			Help:        "Total number of sampling ticks by result",
			ConstLabels: labels,
		}, []string{"result"}),
		LiveClients: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "pulsewatch_live_clients",
			Help:        "Number of connected websocket clients",
			ConstLabels: labels,
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "pulsewatch_errors_total",
			Help:        "Total number of errors by component and reason",
			ConstLabels: labels,
		}, []string{"component", "reason"}),
	}
}

func (m *Metrics) ObserveCollect(d time.Duration) {
	if m == nil {
		return
	}
	m.SourceCollectSeconds.Observe(d.Seconds())
}

func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.TickSeconds.Observe(d.Seconds())
}

func (m *Metrics) SetHeartRate(window string, bpm float64) {
	if m == nil {
		return
	}
	m.HeartRateBPM.WithLabelValues(window).Set(bpm)
}

func (m *Metrics) SetValidity(v signal.Validity) {
	if m == nil {
		return
	}
	m.ChannelValid.WithLabelValues(signal.IR.String()).Set(boolToFloat(v.IR))
	m.ChannelValid.WithLabelValues(signal.SpO2.String()).Set(boolToFloat(v.SpO2))
}

func (m *Metrics) SetStreaming(on bool) {
	if m == nil {
		return
	}
	m.Streaming.Set(boolToFloat(on))
}

func (m *Metrics) RecordSample(result string) {
	if m == nil {
		return
	}
	m.SamplesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) SetLiveClients(n int) {
	if m == nil {
		return
	}
	m.LiveClients.Set(float64(n))
}

func (m *Metrics) RecordError(component, reason string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
