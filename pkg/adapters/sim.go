package adapters

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/HatiCode/pulsewatch/pkg/signal"
)

// PPGSim generates a PPG-like waveform (not clinical) at fs Hz: a systolic
// gaussian, a smaller dicrotic gaussian, slow respiratory wander and noise.
type PPGSim struct {
	fs     float64
	hrBPM  float64
	noise  float64
	phase  float64
	t      float64
	finger bool
	rng    *rand.Rand
}

const (
	simIRBaseline  = 120000
	simIRAmplitude = 4000
	simIRFloor     = 3000
	simSpO2        = 97
	simNoSpO2      = -999
)

// NewPPGSim creates a simulator. fs=4 matches the sensor's 250ms cadence;
// noise is relative to the pulse amplitude (0.0-0.1 is reasonable). The
// same seed always produces the same sequence.
func NewPPGSim(fs, hrBPM, noise float64, seed uint64) *PPGSim {
	return &PPGSim{
		fs:     fs,
		hrBPM:  hrBPM,
		noise:  noise,
		finger: true,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// SetFinger toggles whether a finger is on the sensor.
func (s *PPGSim) SetFinger(on bool) { s.finger = on }

// SetHeartRate changes the simulated heart rate.
func (s *PPGSim) SetHeartRate(bpm float64) { s.hrBPM = bpm }

// Next advances one sample and returns the raw IR count and SpO2 reading.
func (s *PPGSim) Next() (ir, spo2 float64) {
	s.phase += (s.hrBPM / 60.0) / s.fs
	if s.phase >= 1.0 {
		s.phase -= math.Floor(s.phase)
	}
	s.t += 1 / s.fs

	n := s.noise * (2*s.rng.Float64() - 1)

	if !s.finger {
		return math.Round(simIRFloor * (1 + n)), simNoSpO2
	}

	wave := gauss(s.phase, 0.20, 0.08) + 0.35*gauss(s.phase, 0.55, 0.10)
	wander := 0.03 * math.Sin(2*math.Pi*0.25*s.t)

	ir = math.Round(simIRBaseline + simIRAmplitude*(wave+wander+n))
	spo2 = math.Round(simSpO2 + 1.5*n)
	return ir, spo2
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

// SimSource serves PPGSim samples through the Source interface.
type SimSource struct {
	mu  sync.Mutex
	sim *PPGSim
}

// NewSimSource wraps sim. It is safe for concurrent use.
func NewSimSource(sim *PPGSim) *SimSource {
	return &SimSource{sim: sim}
}

func (s *SimSource) Name() string { return "sim" }

// Probe always succeeds.
func (s *SimSource) Probe(ctx context.Context) error {
	return ctx.Err()
}

// Collect returns the next simulated tick.
func (s *SimSource) Collect(ctx context.Context) (signal.Sample, error) {
	if err := ctx.Err(); err != nil {
		return signal.Sample{}, err
	}

	s.mu.Lock()
	ir, spo2 := s.sim.Next()
	s.mu.Unlock()

	return signal.Sample{Time: time.Now(), IR: ir, SpO2: spo2}, nil
}

// SetFinger toggles finger presence on the underlying simulator.
func (s *SimSource) SetFinger(on bool) {
	s.mu.Lock()
	s.sim.SetFinger(on)
	s.mu.Unlock()
}
