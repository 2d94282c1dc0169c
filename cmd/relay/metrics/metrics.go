// Package metrics provides Prometheus metrics instrumentation for the relay.
//
// Metrics exposed:
//   - pulsewatch_relay_grpc_requests_total: Counter of gRPC requests by method and status
//   - pulsewatch_relay_grpc_request_duration_seconds: Histogram of gRPC request durations
//   - pulsewatch_relay_snapshot_fetch_duration_seconds: Histogram of snapshot fetch latency
//   - pulsewatch_relay_snapshot_fetch_errors_total: Counter of snapshot fetch errors
//   - pulsewatch_relay_heart_rate_returned_bpm: Gauge of the last estimates returned, by window
//   - pulsewatch_relay_snapshot_age_seen_seconds: Gauge of snapshot age
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GRPCRequestsTotal     *prometheus.CounterVec
	GRPCRequestDuration   *prometheus.HistogramVec
	SnapshotFetchDuration prometheus.Histogram
	SnapshotFetchErrors   prometheus.Counter
	HeartRateReturned     *prometheus.GaugeVec
	SnapshotAgeSeen       prometheus.Gauge
}

// New registers the relay metrics on reg, or on the default registerer when
// reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		GRPCRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsewatch_relay_grpc_requests_total",
			Help: "Total number of gRPC requests by method and status",
		}, []string{"method", "status"}),

		GRPCRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulsewatch_relay_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests by method",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),

		SnapshotFetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulsewatch_relay_snapshot_fetch_duration_seconds",
			Help:    "Duration of snapshot fetch from the monitor",
			Buckets: prometheus.DefBuckets,
		}),

		SnapshotFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "pulsewatch_relay_snapshot_fetch_errors_total",
			Help: "Total number of errors fetching snapshots",
		}),

		HeartRateReturned: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pulsewatch_relay_heart_rate_returned_bpm",
			Help: "Last heart rate estimate returned to clients, by window",
		}, []string{"window"}),

		SnapshotAgeSeen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pulsewatch_relay_snapshot_age_seen_seconds",
			Help: "Age of the snapshot seen from the monitor",
		}),
	}
}

func (m *Metrics) RecordGRPCRequest(method, status string) {
	m.GRPCRequestsTotal.WithLabelValues(method, status).Inc()
}

func (m *Metrics) ObserveGRPCDuration(method string, seconds float64) {
	m.GRPCRequestDuration.WithLabelValues(method).Observe(seconds)
}

func (m *Metrics) ObserveSnapshotFetch(seconds float64) {
	m.SnapshotFetchDuration.Observe(seconds)
}

func (m *Metrics) RecordSnapshotFetchError() {
	m.SnapshotFetchErrors.Inc()
}

func (m *Metrics) SetHeartRate(window string, bpm float64) {
	m.HeartRateReturned.WithLabelValues(window).Set(bpm)
}

func (m *Metrics) SetSnapshotAge(seconds float64) {
	m.SnapshotAgeSeen.Set(seconds)
}
