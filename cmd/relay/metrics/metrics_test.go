package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Shared metrics instance for all tests to avoid duplicate registration
var testMetrics = New(prometheus.NewRegistry())

func TestNew(t *testing.T) {
	m := testMetrics

	if m.GRPCRequestsTotal == nil {
		t.Error("GRPCRequestsTotal should not be nil")
	}
	if m.GRPCRequestDuration == nil {
		t.Error("GRPCRequestDuration should not be nil")
	}
	if m.SnapshotFetchDuration == nil {
		t.Error("SnapshotFetchDuration should not be nil")
	}
	if m.SnapshotFetchErrors == nil {
		t.Error("SnapshotFetchErrors should not be nil")
	}
	if m.HeartRateReturned == nil {
		t.Error("HeartRateReturned should not be nil")
	}
	if m.SnapshotAgeSeen == nil {
		t.Error("SnapshotAgeSeen should not be nil")
	}
}

func TestRecordGRPCRequest(t *testing.T) {
	m := testMetrics

	m.RecordGRPCRequest("GetState", "success")
	m.RecordGRPCRequest("GetState", "not_found")

	if got := testutil.CollectAndCount(m.GRPCRequestsTotal); got != 2 {
		t.Errorf("expected 2 series, got %d", got)
	}
}

func TestObserveGRPCDuration(t *testing.T) {
	m := testMetrics

	m.ObserveGRPCDuration("GetState", 0.012)

	if got := testutil.CollectAndCount(m.GRPCRequestDuration); got == 0 {
		t.Error("expected gRPC duration metrics to be recorded")
	}
}

func TestObserveSnapshotFetch(t *testing.T) {
	m := testMetrics

	m.ObserveSnapshotFetch(0.004)

	if got := testutil.CollectAndCount(m.SnapshotFetchDuration); got != 1 {
		t.Errorf("expected 1 histogram, got %d", got)
	}
}

func TestRecordSnapshotFetchError(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordSnapshotFetchError()
	m.RecordSnapshotFetchError()

	if got := testutil.ToFloat64(m.SnapshotFetchErrors); got != 2 {
		t.Errorf("fetch errors = %v, want 2", got)
	}
}

func TestSetHeartRate(t *testing.T) {
	m := testMetrics

	m.SetHeartRate("10s", 66)

	if got := testutil.ToFloat64(m.HeartRateReturned.WithLabelValues("10s")); got != 66 {
		t.Errorf("10s = %v, want 66", got)
	}
}

func TestSetSnapshotAge(t *testing.T) {
	m := testMetrics

	m.SetSnapshotAge(0.75)

	if got := testutil.ToFloat64(m.SnapshotAgeSeen); got != 0.75 {
		t.Errorf("age = %v, want 0.75", got)
	}
}
