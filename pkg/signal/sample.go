// Package signal holds the raw PPG data model: samples, the per-channel
// sliding window buffer and the validity thresholds applied to each tick.
package signal

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedSample is returned when a tick carries a missing or
// non-numeric channel value. Such a tick must not reach the buffer.
var ErrMalformedSample = errors.New("malformed sample")

// Channel identifies one of the two sensor channels.
type Channel int

const (
	// IR is the raw infrared reflectance count.
	IR Channel = iota
	// SpO2 is the blood-oxygen reading derived by the sensor.
	SpO2
)

// String returns the label the sensor uses for the channel.
func (c Channel) String() string {
	switch c {
	case IR:
		return "IR"
	case SpO2:
		return "SPO2"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// Sample is one tick: a synchronized IR/SpO2 pair.
type Sample struct {
	Time time.Time
	IR   float64
	SpO2 float64
}

// CheckSample reports ErrMalformedSample when either channel is NaN or
// infinite.
func CheckSample(s Sample) error {
	if !finite(s.IR) {
		return fmt.Errorf("%w: IR value %v", ErrMalformedSample, s.IR)
	}
	if !finite(s.SpO2) {
		return fmt.Errorf("%w: SPO2 value %v", ErrMalformedSample, s.SpO2)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
