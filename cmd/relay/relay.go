// Package main implements the pulsewatch relay: a gRPC front for the
// monitor's latest snapshots.
package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/HatiCode/pulsewatch/cmd/relay/metrics"
	pb "github.com/HatiCode/pulsewatch/pkg/api/monitorv1"
	"github.com/HatiCode/pulsewatch/pkg/client"
)

// StaleMetadataKey is set in the response header when the monitor marked
// the snapshot stale.
const StaleMetadataKey = "x-pulsewatch-stale"

// Relay implements the Monitor gRPC service on top of the monitor's HTTP API.
type Relay struct {
	pb.UnimplementedMonitorServer

	client  *client.MonitorClient
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a relay for the monitor at monitorURL.
func New(monitorURL string, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		client:  client.NewMonitorClientWithTimeout(monitorURL, timeout),
		logger:  logger,
		metrics: m,
	}
}

// GetState returns the latest snapshot of the requested device.
func (r *Relay) GetState(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	start := time.Now()
	device := req.GetValue()

	resp, code := r.getState(ctx, device)

	r.metrics.RecordGRPCRequest("GetState", statusLabel(code))
	r.metrics.ObserveGRPCDuration("GetState", time.Since(start).Seconds())

	if code != codes.OK {
		return nil, status.Error(code, resp.err)
	}
	return resp.state, nil
}

type getStateResult struct {
	state *structpb.Struct
	err   string
}

func (r *Relay) getState(ctx context.Context, device string) (getStateResult, codes.Code) {
	if device == "" {
		return getStateResult{err: "device is required"}, codes.InvalidArgument
	}

	fetchStart := time.Now()
	res, err := r.client.GetSnapshot(ctx, device)
	r.metrics.ObserveSnapshotFetch(time.Since(fetchStart).Seconds())

	if errors.Is(err, client.ErrNotFound) {
		return getStateResult{err: err.Error()}, codes.NotFound
	}
	if err != nil {
		r.metrics.RecordSnapshotFetchError()
		r.logger.Error("failed to fetch snapshot", "device", device, "error", err)
		return getStateResult{err: "monitor unavailable"}, codes.Unavailable
	}

	snap := res.Snapshot
	r.metrics.SetSnapshotAge(time.Since(snap.GeneratedAt).Seconds())
	r.metrics.SetHeartRate("10s", snap.WindowBpm10s)
	r.metrics.SetHeartRate("30s", snap.WindowBpm30s)

	if res.Stale {
		r.logger.Warn("serving stale snapshot", "device", device, "generated_at", snap.GeneratedAt)
		// Only fails outside a gRPC call, e.g. when invoked directly.
		_ = grpc.SetHeader(ctx, metadata.Pairs(StaleMetadataKey, "true"))
	}

	state, err := pb.FromSnapshot(snap)
	if err != nil {
		r.logger.Error("failed to convert snapshot", "device", device, "error", err)
		return getStateResult{err: "invalid snapshot"}, codes.Internal
	}

	r.logger.Debug("GetState",
		"device", device,
		"status", snap.Status,
		"bpm_10s", snap.WindowBpm10s,
		"bpm_30s", snap.WindowBpm30s,
		"stale", res.Stale,
	)
	return getStateResult{state: state}, codes.OK
}

func statusLabel(c codes.Code) string {
	switch c {
	case codes.OK:
		return "success"
	case codes.NotFound:
		return "not_found"
	case codes.InvalidArgument:
		return "invalid_argument"
	default:
		return "error"
	}
}
