package adapters

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"

	"github.com/HatiCode/pulsewatch/pkg/signal"
)

// MAX30102 registers.
const (
	regFIFOWrPtr = 0x04
	regOvfCount  = 0x05
	regFIFORdPtr = 0x06
	regFIFOData  = 0x07
	regFIFOCfg   = 0x08
	regModeCfg   = 0x09
	regSpO2Cfg   = 0x0A
	regLed1PA    = 0x0C
	regLed2PA    = 0x0D
	regPartID    = 0xFF
)

const (
	// MAX30102Addr is the default I2C address.
	MAX30102Addr = 0x57
	max30102Part = 0x15

	modeReset byte = 0b0100_0000
	modeSpO2  byte = 0b011

	// SMP_AVE=4, FIFO rollover enabled.
	fifoAvg4Rollover byte = 0b010_1_0000
	// ADC range 4096nA, 100 samples/s, 411us pulse width.
	spo2Range4096SR100PW411 byte = 0b0_01_001_11
	// 7.2mA per LED.
	ledAmplitude byte = 0x24

	fifoDepth    = 32
	adcMask      = 0x3FFFF
	resetRetries = 10
)

// spo2Window is the number of FIFO words used for the ratio of ratios
// (4s at 25 effective samples/s).
const spo2Window = 100

// I2CSource reads a MAX30102 pulse oximeter directly over I2C. IR is
// reported as the raw 18-bit count; SpO2 is estimated from the red/IR ratio
// over a rolling window.
type I2CSource struct {
	dev    *i2c.Dev
	closer i2c.BusCloser

	red, ir []float64
	last    signal.Sample
	hasLast bool
}

// NewI2CSource creates a source on an already opened bus. addr 0 selects
// MAX30102Addr.
func NewI2CSource(bus i2c.Bus, addr uint16) *I2CSource {
	if addr == 0 {
		addr = MAX30102Addr
	}
	return &I2CSource{dev: &i2c.Dev{Addr: addr, Bus: bus}}
}

// OpenI2CSource initializes the host drivers and opens busName ("" picks
// the first available bus).
func OpenI2CSource(busName string, addr uint16) (*I2CSource, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("max30102: could not initialize host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("max30102: could not open I2C bus: %w", err)
	}

	s := NewI2CSource(bus, addr)
	s.closer = bus
	return s, nil
}

func (s *I2CSource) Name() string { return "i2c" }

// Close releases the bus when it was opened by OpenI2CSource.
func (s *I2CSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Probe checks the part ID and configures the sensor for SpO2 mode.
func (s *I2CSource) Probe(ctx context.Context) error {
	part, err := s.read(ctx, regPartID)
	if err != nil {
		return fmt.Errorf("max30102: could not get part ID: %w", err)
	}
	if part != max30102Part {
		return fmt.Errorf("%w: part ID %#x", ErrNotSensor, part)
	}

	if err := s.reset(ctx); err != nil {
		return err
	}

	steps := []struct {
		reg, val byte
	}{
		{regFIFOCfg, fifoAvg4Rollover},
		{regSpO2Cfg, spo2Range4096SR100PW411},
		{regLed1PA, ledAmplitude},
		{regLed2PA, ledAmplitude},
		{regFIFOWrPtr, 0},
		{regOvfCount, 0},
		{regFIFORdPtr, 0},
		{regModeCfg, modeSpO2},
	}
	for _, st := range steps {
		if err := s.write(ctx, st.reg, st.val); err != nil {
			return fmt.Errorf("max30102: could not configure %#x: %w", st.reg, err)
		}
	}

	s.red, s.ir = s.red[:0], s.ir[:0]
	s.hasLast = false
	return nil
}

func (s *I2CSource) reset(ctx context.Context) error {
	if err := s.write(ctx, regModeCfg, modeReset); err != nil {
		return fmt.Errorf("max30102: could not reset: %w", err)
	}
	for range resetRetries {
		mode, err := s.read(ctx, regModeCfg)
		if err != nil {
			return fmt.Errorf("max30102: could not reset: %w", err)
		}
		if mode&modeReset == 0 {
			return nil
		}
	}
	return errors.New("max30102: reset did not complete")
}

// Collect drains the FIFO and returns the latest IR count with the current
// SpO2 estimate. When the FIFO is empty the previous sample is repeated.
func (s *I2CSource) Collect(ctx context.Context) (signal.Sample, error) {
	n, err := s.available(ctx)
	if err != nil {
		return signal.Sample{}, fmt.Errorf("max30102: could not read FIFO pointers: %w", err)
	}

	if n == 0 {
		if !s.hasLast {
			return signal.Sample{}, errors.New("max30102: no data available")
		}
		sample := s.last
		sample.Time = time.Now()
		return sample, nil
	}

	for range n {
		red, ir, err := s.readWord(ctx)
		if err != nil {
			return signal.Sample{}, fmt.Errorf("max30102: could not read FIFO: %w", err)
		}
		s.red = appendWindow(s.red, red)
		s.ir = appendWindow(s.ir, ir)
	}

	s.last = signal.Sample{
		Time: time.Now(),
		IR:   s.ir[len(s.ir)-1],
		SpO2: estimateSpO2(s.red, s.ir),
	}
	s.hasLast = true
	return s.last, nil
}

func (s *I2CSource) available(ctx context.Context) (int, error) {
	wr, err := s.read(ctx, regFIFOWrPtr)
	if err != nil {
		return 0, err
	}
	rd, err := s.read(ctx, regFIFORdPtr)
	if err != nil {
		return 0, err
	}
	return (int(wr) + fifoDepth - int(rd)) % fifoDepth, nil
}

// readWord reads one FIFO entry: 3 bytes red (LED1) then 3 bytes IR (LED2).
func (s *I2CSource) readWord(ctx context.Context) (red, ir float64, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	b := make([]byte, 6)
	if err := s.dev.Tx([]byte{regFIFOData}, b); err != nil {
		return 0, 0, err
	}
	red = float64((int(b[0])<<16 | int(b[1])<<8 | int(b[2])) & adcMask)
	ir = float64((int(b[3])<<16 | int(b[4])<<8 | int(b[5])) & adcMask)
	return red, ir, nil
}

func (s *I2CSource) read(ctx context.Context, reg byte) (byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b := make([]byte, 1)
	if err := s.dev.Tx([]byte{reg}, b); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *I2CSource) write(ctx context.Context, reg, val byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.dev.Write([]byte{reg, val})
	return err
}

func appendWindow(w []float64, v float64) []float64 {
	w = append(w, v)
	if len(w) > spo2Window {
		w = w[len(w)-spo2Window:]
	}
	return w
}

// estimateSpO2 applies the empirical 104 - 17R calibration, where R is the
// ratio of the red and IR AC/DC ratios. It returns 0 when either channel is
// flat or dark.
func estimateSpO2(red, ir []float64) float64 {
	redACDC := acdc(red)
	irACDC := acdc(ir)
	if redACDC == 0 || irACDC == 0 {
		return 0
	}

	spo2 := 104 - 17*(redACDC/irACDC)
	return math.Max(0, math.Min(100, spo2))
}

func acdc(w []float64) float64 {
	if len(w) == 0 {
		return 0
	}
	lo, hi := w[0], w[0]
	for _, v := range w[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo <= 0 {
		return 0
	}
	return (hi - lo) / lo
}
