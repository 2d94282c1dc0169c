// Package pipeline drives the per-tick signal processing: it owns the sample
// buffer, classifies validity of the latest tick and recomputes both heart
// rate estimates after every accepted sample.
//
// A Controller is single-threaded by design. Exactly one driver feeds ticks
// in arrival order; the derived state after tick N reflects exactly the
// first N accepted samples.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/HatiCode/pulsewatch/pkg/rate"
	"github.com/HatiCode/pulsewatch/pkg/signal"
)

// ErrNotStreaming is returned by Ingest while the controller is idle.
var ErrNotStreaming = errors.New("pipeline is not streaming")

// Status is the ingestion state of the controller.
type Status int

const (
	// Idle means no ticks are being accepted. The last derived state is
	// retained and goes stale.
	Idle Status = iota
	// Streaming means ticks are accepted.
	Streaming
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// State is the derived state published after each tick.
type State struct {
	Status       Status
	Ticks        int
	LastSampleAt time.Time

	// Latest buffered values.
	IR   float64
	SpO2 float64

	Validity signal.Validity
	Rate     rate.Estimate

	// SpO2Available gates the SpO2 reading on IR contact.
	SpO2Available bool
	// HeartRateAvailable gates both estimates on both channels being valid.
	HeartRateAvailable bool
}

// Controller owns the buffer for one session.
type Controller struct {
	capacity  int
	estimator *rate.Estimator
	buffer    *signal.Buffer
	state     State
}

// New creates an idle controller. A nil estimator selects rate.NewEstimator
// and a capacity <= 0 selects signal.Capacity.
func New(estimator *rate.Estimator, capacity int) *Controller {
	if estimator == nil {
		estimator = rate.NewEstimator()
	}
	if capacity <= 0 {
		capacity = signal.Capacity
	}

	return &Controller{
		capacity:  capacity,
		estimator: estimator,
		buffer:    signal.NewBuffer(capacity),
	}
}

// Start moves the controller to Streaming. The buffer is kept, so a stopped
// session resumes where it left off.
func (c *Controller) Start() {
	c.state.Status = Streaming
}

// Stop moves the controller to Idle, keeping the last derived state.
func (c *Controller) Stop() {
	c.state.Status = Idle
}

// Reset discards the buffer and derived state and returns to Idle.
func (c *Controller) Reset() {
	c.buffer = signal.NewBuffer(c.capacity)
	c.state = State{}
}

// Status returns the current ingestion state.
func (c *Controller) Status() Status {
	return c.state.Status
}

// State returns the derived state after the last accepted tick.
func (c *Controller) State() State {
	return c.state
}

// Tail returns the most recent n buffered values of ch for charting.
func (c *Controller) Tail(ch signal.Channel, n int) []float64 {
	return c.buffer.Tail(ch, n)
}

// Capacity returns the per-channel buffer capacity.
func (c *Controller) Capacity() int {
	return c.capacity
}

// Ingest processes one tick. A rejected tick leaves the buffer and the
// previous derived state untouched.
func (c *Controller) Ingest(s signal.Sample) (State, error) {
	if c.state.Status != Streaming {
		return c.state, ErrNotStreaming
	}
	if err := signal.CheckSample(s); err != nil {
		return c.state, err
	}

	validity := signal.ClassifySample(s)

	// the sensor reports negative sentinels when it has no reading
	if s.SpO2 <= 0 {
		s.SpO2 = 0
	}
	c.buffer.PushSample(s)

	c.state = State{
		Status:             Streaming,
		Ticks:              c.state.Ticks + 1,
		LastSampleAt:       s.Time,
		IR:                 c.buffer.Latest(signal.IR),
		SpO2:               c.buffer.Latest(signal.SpO2),
		Validity:           validity,
		Rate:               c.estimator.Estimate(c.buffer),
		SpO2Available:      validity.IR,
		HeartRateAvailable: validity.IR && validity.SpO2,
	}

	return c.state, nil
}
