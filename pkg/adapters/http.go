package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/HatiCode/pulsewatch/pkg/signal"
)

// ErrNotSensor is returned by Probe when the endpoint answers but does not
// look like a PPG sensor.
var ErrNotSensor = errors.New("endpoint is not a PPG sensor")

// HTTPSource polls a sensor that exposes its latest reading as JSON:
//
//	[{"type":"IR","value":123456},{"type":"SPO2","value":97}]
//
// Values may be JSON numbers or numeric strings.
type HTTPSource struct {
	// DeviceURL is the sensor address, e.g. "192.168.0.103" or
	// "http://esp.local". The /data path is appended.
	DeviceURL string
	// HTTPClient is optional; if nil a client with a 2s timeout is used.
	HTTPClient *http.Client
}

func (h *HTTPSource) Name() string { return "http" }

// Collect fetches one tick from the sensor.
func (h *HTTPSource) Collect(ctx context.Context) (signal.Sample, error) {
	readings, err := h.fetch(ctx)
	if err != nil {
		return signal.Sample{}, err
	}

	ir, err := readings.value(signal.IR, 0)
	if err != nil {
		return signal.Sample{}, err
	}
	spo2, err := readings.value(signal.SpO2, 1)
	if err != nil {
		return signal.Sample{}, err
	}

	return signal.Sample{Time: time.Now(), IR: ir, SpO2: spo2}, nil
}

// Probe succeeds when the first reading is labelled IR.
func (h *HTTPSource) Probe(ctx context.Context) error {
	readings, err := h.fetch(ctx)
	if err != nil {
		return err
	}
	if len(readings) == 0 || !strings.EqualFold(readings[0].Type, signal.IR.String()) {
		return ErrNotSensor
	}
	return nil
}

func (h *HTTPSource) fetch(ctx context.Context) (sensorReadings, error) {
	if h.DeviceURL == "" {
		return nil, errors.New("http source: DeviceURL is required")
	}

	cli := h.HTTPClient
	if cli == nil {
		cli = &http.Client{Timeout: 2 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, DataURL(h.DeviceURL), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sensor: status %d", resp.StatusCode)
	}

	var readings sensorReadings
	if err := json.NewDecoder(resp.Body).Decode(&readings); err != nil {
		return nil, fmt.Errorf("%w: decode sensor response: %v", signal.ErrMalformedSample, err)
	}
	return readings, nil
}

// DataURL normalizes a device address into its data endpoint: a scheme is
// added when missing and /data is appended.
func DataURL(device string) string {
	device = strings.TrimSpace(device)
	if !strings.HasPrefix(device, "http://") && !strings.HasPrefix(device, "https://") {
		device = "http://" + device
	}
	return strings.TrimRight(device, "/") + "/data"
}

// SensorReading is one labelled value in the sensor payload.
type SensorReading struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type sensorReadings []SensorReading

// value finds the reading for ch by label, falling back to position pos for
// unlabelled payloads.
func (r sensorReadings) value(ch signal.Channel, pos int) (float64, error) {
	for _, reading := range r {
		if strings.EqualFold(reading.Type, ch.String()) {
			return parseValue(ch, reading.Value)
		}
	}
	if pos < len(r) && r[pos].Type == "" {
		return parseValue(ch, r[pos].Value)
	}
	return 0, fmt.Errorf("%w: missing %s reading", signal.ErrMalformedSample, ch)
}

func parseValue(ch signal.Channel, raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("%w: missing %s value", signal.ErrMalformedSample, ch)
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("%w: %s value %s", signal.ErrMalformedSample, ch, raw)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s value %q", signal.ErrMalformedSample, ch, s)
	}
	return f, nil
}

// EncodeReadings renders a sample in the sensor's wire format.
func EncodeReadings(s signal.Sample) ([]byte, error) {
	return json.Marshal([]map[string]any{
		{"type": signal.IR.String(), "value": s.IR},
		{"type": signal.SpO2.String(), "value": s.SpO2},
	})
}
