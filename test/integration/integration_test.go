package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/HatiCode/pulsewatch/pkg/adapters"
	"github.com/HatiCode/pulsewatch/pkg/pipeline"
	"github.com/HatiCode/pulsewatch/pkg/signal"
	"github.com/HatiCode/pulsewatch/pkg/storage"
	"github.com/HatiCode/pulsewatch/pkg/stream"
)

func startRedis(t *testing.T, ctx context.Context) string {
	t.Helper()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func startNATS(t *testing.T, ctx context.Context) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "nats:2.10-alpine",
		ExposedPorts: []string{"4222/tcp"},
		WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start nats container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate nats container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4222")
	require.NoError(t, err)

	return fmt.Sprintf("nats://%s:%s", host, port.Port())
}

// runSession streams n simulated ticks through a controller and returns the
// snapshot of the final state.
func runSession(t *testing.T, device string, n int) storage.Snapshot {
	t.Helper()

	src := adapters.NewSimSource(adapters.NewPPGSim(4, 72, 0, 1))
	ctrl := pipeline.New(nil, 0)
	ctrl.Start()

	ctx := context.Background()
	var state pipeline.State
	for i := range n {
		sample, err := src.Collect(ctx)
		require.NoError(t, err)
		state, err = ctrl.Ingest(sample)
		require.NoError(t, err, "tick %d", i)
	}

	return storage.Snapshot{
		Device:             device,
		Status:             state.Status.String(),
		GeneratedAt:        time.Now().UTC().Truncate(time.Millisecond),
		Ticks:              state.Ticks,
		IR:                 state.IR,
		SpO2:               state.SpO2,
		IRValid:            state.Validity.IR,
		SpO2Valid:          state.Validity.SpO2,
		SpO2Available:      state.SpO2Available,
		HeartRateAvailable: state.HeartRateAvailable,
		WindowBpm10s:       state.Rate.WindowBpm10s,
		WindowBpm30s:       state.Rate.WindowBpm30s,
		IRTail:             ctrl.Tail(signal.IR, 8),
	}
}

func TestRedisStoreE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	addr := startRedis(t, ctx)

	store, err := storage.NewRedisStore(addr, "", 0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Ping(ctx))

	snap := runSession(t, "esp-01", 130)
	require.True(t, snap.HeartRateAvailable)
	assert.InDelta(t, 72, snap.WindowBpm10s, 8)
	assert.InDelta(t, 72, snap.WindowBpm30s, 6)

	require.NoError(t, store.Put(snap))

	got, ok, err := store.GetLatest("esp-01")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap.WindowBpm10s, got.WindowBpm10s)
	assert.Equal(t, snap.WindowBpm30s, got.WindowBpm30s)
	assert.Equal(t, snap.IRTail, got.IRTail)
	assert.True(t, snap.GeneratedAt.Equal(got.GeneratedAt))

	_, ok, err = store.GetLatest("esp-unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStoreTTL(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	addr := startRedis(t, ctx)

	store, err := storage.NewRedisStore(addr, "", 0, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Put(storage.Snapshot{Device: "esp-ttl", Status: "idle"}))

	_, ok, err := store.GetLatest("esp-ttl")
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		_, ok, err := store.GetLatest("esp-ttl")
		return err == nil && !ok
	}, 5*time.Second, 200*time.Millisecond, "snapshot should expire")
}

func TestNATSPublisherE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	url := startNATS(t, ctx)

	pubConn, err := stream.Connect(url, "pulsewatch-test-publisher")
	require.NoError(t, err)
	publisher := stream.NewPublisher(pubConn, "")
	t.Cleanup(func() { _ = publisher.Close() })

	subConn, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(subConn.Close)

	sub, err := subConn.SubscribeSync(stream.Subject(stream.DefaultSubjectPrefix, "esp-01"))
	require.NoError(t, err)
	require.NoError(t, subConn.Flush())

	snap := runSession(t, "esp-01", 45)
	require.NoError(t, publisher.Publish(snap))

	msg, err := sub.NextMsg(5 * time.Second)
	require.NoError(t, err)

	var got storage.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, "esp-01", got.Device)
	assert.Equal(t, "streaming", got.Status)
	assert.Equal(t, 45, got.Ticks)
	assert.Equal(t, snap.WindowBpm10s, got.WindowBpm10s)
}
