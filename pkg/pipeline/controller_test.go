package pipeline

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatiCode/pulsewatch/pkg/signal"
)

func streaming(t *testing.T) *Controller {
	t.Helper()
	c := New(nil, 0)
	c.Start()
	return c
}

func TestNew_Defaults(t *testing.T) {
	c := New(nil, 0)

	assert.Equal(t, Idle, c.Status())
	assert.Equal(t, signal.Capacity, c.Capacity())
	assert.Len(t, c.Tail(signal.IR, signal.Capacity), signal.Capacity)
	assert.Equal(t, State{}, c.State())
}

func TestIngest_IdleRejected(t *testing.T) {
	c := New(nil, 0)

	_, err := c.Ingest(signal.Sample{IR: 150000, SpO2: 97})
	require.ErrorIs(t, err, ErrNotStreaming)
	assert.Equal(t, 0.0, c.Tail(signal.IR, 1)[0])
	assert.Equal(t, 0, c.State().Ticks)
}

func TestIngest_UpdatesState(t *testing.T) {
	c := streaming(t)
	now := time.Now()

	st, err := c.Ingest(signal.Sample{Time: now, IR: 150000, SpO2: 97})
	require.NoError(t, err)

	assert.Equal(t, Streaming, st.Status)
	assert.Equal(t, 1, st.Ticks)
	assert.Equal(t, now, st.LastSampleAt)
	assert.Equal(t, 150000.0, st.IR)
	assert.Equal(t, 97.0, st.SpO2)
	assert.True(t, st.Validity.IR)
	assert.True(t, st.Validity.SpO2)
	assert.True(t, st.SpO2Available)
	assert.True(t, st.HeartRateAvailable)
	assert.Equal(t, st, c.State())
}

func TestIngest_ValidityScenarios(t *testing.T) {
	tests := []struct {
		name       string
		sample     signal.Sample
		wantIR     bool
		wantSpO2   bool
		wantSpO2On bool
		wantHROn   bool
	}{
		{"finger present", signal.Sample{IR: 150000, SpO2: 97}, true, true, true, true},
		{"ir below floor", signal.Sample{IR: 90000, SpO2: 97}, false, true, false, false},
		{"spo2 low with valid ir", signal.Sample{IR: 150000, SpO2: 40}, true, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := streaming(t).Ingest(tt.sample)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIR, st.Validity.IR)
			assert.Equal(t, tt.wantSpO2, st.Validity.SpO2)
			assert.Equal(t, tt.wantSpO2On, st.SpO2Available)
			assert.Equal(t, tt.wantHROn, st.HeartRateAvailable)
		})
	}
}

func TestIngest_NegativeSpO2StoredAsZero(t *testing.T) {
	c := streaming(t)

	st, err := c.Ingest(signal.Sample{IR: 5000, SpO2: -999})
	require.NoError(t, err)

	assert.Equal(t, 0.0, st.SpO2)
	assert.Equal(t, 0.0, c.Tail(signal.SpO2, 1)[0])
	assert.False(t, st.Validity.SpO2)
}

func TestIngest_MalformedSampleKeepsState(t *testing.T) {
	c := streaming(t)
	prev, err := c.Ingest(signal.Sample{IR: 150000, SpO2: 97})
	require.NoError(t, err)
	tailBefore := c.Tail(signal.IR, signal.Capacity)

	for _, bad := range []signal.Sample{
		{IR: math.NaN(), SpO2: 97},
		{IR: 150000, SpO2: math.Inf(-1)},
	} {
		st, err := c.Ingest(bad)
		require.Error(t, err)
		assert.True(t, errors.Is(err, signal.ErrMalformedSample))
		assert.Equal(t, prev, st)
	}

	assert.Equal(t, prev, c.State())
	assert.Equal(t, tailBefore, c.Tail(signal.IR, signal.Capacity))
	assert.Equal(t, Streaming, c.Status(), "bad input must not halt the session")
}

func TestIngest_BufferNeverExceedsCapacity(t *testing.T) {
	c := streaming(t)
	for i := range signal.Capacity + 10 {
		_, err := c.Ingest(signal.Sample{IR: float64(i + 1), SpO2: 97})
		require.NoError(t, err)
	}

	tail := c.Tail(signal.IR, signal.Capacity+50)
	assert.Len(t, tail, signal.Capacity)
	assert.Equal(t, 11.0, tail[0])
	assert.Equal(t, signal.Capacity+10, c.State().Ticks)
}

func TestIngest_OrderPreserved(t *testing.T) {
	c := streaming(t)
	for _, v := range []float64{3, 1, 4, 1, 5} {
		_, err := c.Ingest(signal.Sample{IR: v})
		require.NoError(t, err)
	}

	assert.Equal(t, []float64{3, 1, 4, 1, 5}, c.Tail(signal.IR, 5))
}

func TestStopKeepsStateAndStartResumes(t *testing.T) {
	c := streaming(t)
	_, err := c.Ingest(signal.Sample{IR: 150000, SpO2: 97})
	require.NoError(t, err)

	c.Stop()
	assert.Equal(t, Idle, c.Status())
	assert.Equal(t, 1, c.State().Ticks)
	assert.Equal(t, 150000.0, c.State().IR)

	c.Start()
	st, err := c.Ingest(signal.Sample{IR: 160000, SpO2: 98})
	require.NoError(t, err)
	assert.Equal(t, 2, st.Ticks)
	assert.Equal(t, []float64{150000, 160000}, c.Tail(signal.IR, 2))
}

func TestReset(t *testing.T) {
	c := streaming(t)
	_, err := c.Ingest(signal.Sample{IR: 150000, SpO2: 97})
	require.NoError(t, err)

	c.Reset()

	assert.Equal(t, Idle, c.Status())
	assert.Equal(t, State{}, c.State())
	assert.Equal(t, 0.0, c.Tail(signal.IR, 1)[0])
}

func TestIngest_EndToEndSinusoid(t *testing.T) {
	c := streaming(t)

	var st State
	for j := range signal.Capacity {
		ir := 120000 + 2000*math.Cos(2*math.Pi*float64(j-10)/20)
		var err error
		st, err = c.Ingest(signal.Sample{IR: ir, SpO2: 97})
		require.NoError(t, err)
	}

	assert.InDelta(t, 12, st.Rate.WindowBpm10s, 1e-9)
	assert.InDelta(t, 12, st.Rate.WindowBpm30s, 1e-9)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "streaming", Streaming.String())
	assert.Equal(t, "Status(5)", Status(5).String())
}
