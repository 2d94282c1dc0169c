// Package adapters provides the sample sources that feed the pulsewatch
// pipeline. Each source turns one transport into signal.Sample values:
//   - HTTPSource: polls the ESP sensor endpoint (`GET <device>/data`)
//   - I2CSource:  reads a MAX30102 directly over I2C
//   - SimSource:  synthesizes a PPG waveform for demos and tests
//
// Sources only deliver well-formed numeric pairs. Framing, parsing and the
// connection check live here; buffering and heart rate estimation happen
// in the pipeline.
package adapters

import (
	"context"

	"github.com/HatiCode/pulsewatch/pkg/signal"
)

// Source is the interface all sample sources implement.
//
// Collect is called once per tick and must respect context cancellation.
// It returns a wrapped signal.ErrMalformedSample when the transport answered
// but a channel value was missing or non-numeric.
type Source interface {
	// Collect reads one tick.
	Collect(ctx context.Context) (signal.Sample, error)

	// Probe checks that the other end is a PPG sensor before a session
	// starts streaming.
	Probe(ctx context.Context) error

	// Name returns a short identifier such as "http", "i2c" or "sim".
	Name() string
}
