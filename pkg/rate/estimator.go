// Package rate converts peak counts over trailing IR windows into
// beats-per-minute estimates.
package rate

import (
	"github.com/HatiCode/pulsewatch/pkg/peaks"
	"github.com/HatiCode/pulsewatch/pkg/signal"
)

// Window describes one trailing sub-window of the IR channel.
type Window struct {
	// Name labels the window in logs and metrics, e.g. "10s".
	Name string

	// Samples is the number of most recent ticks covered by the window.
	Samples int

	// Multiplier extrapolates a peak count over the window to a per-minute
	// rate (60 / window length in seconds).
	Multiplier float64
}

var (
	// ShortWindow covers ~10s at a 250ms cadence.
	ShortWindow = Window{Name: "10s", Samples: 41, Multiplier: 6}

	// LongWindow covers ~30s at a 250ms cadence.
	LongWindow = Window{Name: "30s", Samples: 121, Multiplier: 2}
)

// Estimate holds both heart-rate estimates. The two windows are computed
// independently and may disagree; callers surface both.
type Estimate struct {
	WindowBpm10s float64 `json:"windowBpm10s"`
	WindowBpm30s float64 `json:"windowBpm30s"`
}

// TailReader exposes the trailing values of a channel, oldest first.
type TailReader interface {
	Tail(ch signal.Channel, n int) []float64
}

// Estimator recomputes both estimates from scratch on every call. It holds
// no state between calls.
type Estimator struct {
	Short       Window
	Long        Window
	MinDistance float64
}

// NewEstimator returns an estimator with the 10s/30s windows and the
// default peak spacing.
func NewEstimator() *Estimator {
	return &Estimator{
		Short:       ShortWindow,
		Long:        LongWindow,
		MinDistance: peaks.DefaultMinDistance,
	}
}

// Name returns the estimator identifier.
func (e *Estimator) Name() string {
	return "peak-count"
}

// Estimate counts IR peaks in each window and extrapolates them to BPM.
// During warm-up the windows include the buffer's zero fill, so the
// estimates start low and converge once the buffer holds real samples.
func (e *Estimator) Estimate(src TailReader) Estimate {
	return Estimate{
		WindowBpm10s: e.windowRate(src, e.Short),
		WindowBpm30s: e.windowRate(src, e.Long),
	}
}

func (e *Estimator) windowRate(src TailReader, w Window) float64 {
	series := src.Tail(signal.IR, w.Samples)
	return float64(peaks.Count(series, e.MinDistance)) * w.Multiplier
}
