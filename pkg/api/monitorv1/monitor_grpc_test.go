package monitorv1

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/HatiCode/pulsewatch/pkg/storage"
)

type fakeMonitor struct {
	UnimplementedMonitorServer
	snaps map[string]storage.Snapshot
}

func (f *fakeMonitor) GetState(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	snap, ok := f.snaps[req.GetValue()]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "no snapshot for %q", req.GetValue())
	}
	return FromSnapshot(snap)
}

func dial(t *testing.T, srv MonitorServer) MonitorClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	RegisterMonitorServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewMonitorClient(conn)
}

func TestGetState_RoundTrip(t *testing.T) {
	generated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := storage.Snapshot{
		Device:             "esp-01",
		Status:             "streaming",
		GeneratedAt:        generated,
		Ticks:              241,
		IR:                 121000,
		SpO2:               97,
		IRValid:            true,
		SpO2Valid:          true,
		SpO2Available:      true,
		HeartRateAvailable: true,
		WindowBpm10s:       72,
		WindowBpm30s:       70,
		IRTail:             []float64{120000, 124000, 121000},
		SpO2Tail:           []float64{97, 97, 98},
	}
	client := dial(t, &fakeMonitor{snaps: map[string]storage.Snapshot{"esp-01": want}})

	resp, err := client.GetState(context.Background(), wrapperspb.String("esp-01"))
	require.NoError(t, err)

	assert.Equal(t, "esp-01", resp.GetFields()["device"].GetStringValue())
	assert.Equal(t, 72.0, resp.GetFields()["windowBpm10s"].GetNumberValue())
	assert.True(t, resp.GetFields()["heartRateAvailable"].GetBoolValue())

	got, err := ToSnapshot(resp)
	require.NoError(t, err)
	assert.Equal(t, want.Device, got.Device)
	assert.True(t, want.GeneratedAt.Equal(got.GeneratedAt))
	assert.Equal(t, want.Ticks, got.Ticks)
	assert.Equal(t, want.WindowBpm30s, got.WindowBpm30s)
	assert.Equal(t, want.IRTail, got.IRTail)
	assert.Equal(t, want.SpO2Tail, got.SpO2Tail)
}

func TestGetState_NotFound(t *testing.T) {
	client := dial(t, &fakeMonitor{})

	_, err := client.GetState(context.Background(), wrapperspb.String("missing"))
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestUnimplementedMonitorServer(t *testing.T) {
	client := dial(t, &UnimplementedMonitorServer{})

	_, err := client.GetState(context.Background(), wrapperspb.String("esp-01"))
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestToSnapshot_Nil(t *testing.T) {
	snap, err := ToSnapshot(nil)
	require.NoError(t, err)
	assert.Empty(t, snap.Device)
}
