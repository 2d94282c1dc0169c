package adapters

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HatiCode/pulsewatch/pkg/signal"
)

func sensorServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data" {
			t.Errorf("path = %q, want /data", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDataURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"192.168.0.103", "http://192.168.0.103/data"},
		{"http://esp.local", "http://esp.local/data"},
		{"https://esp.local/", "https://esp.local/data"},
		{"  esp.local:8080 ", "http://esp.local:8080/data"},
	}
	for _, tt := range tests {
		if got := DataURL(tt.in); got != tt.want {
			t.Errorf("DataURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHTTPSource_Collect(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantIR   float64
		wantSpO2 float64
		wantErr  bool
	}{
		{"numbers", `[{"type":"IR","value":123456},{"type":"SPO2","value":97}]`, 123456, 97, false},
		{"numeric strings", `[{"type":"IR","value":"123456"},{"type":"SPO2","value":" 97 "}]`, 123456, 97, false},
		{"reordered", `[{"type":"SPO2","value":95},{"type":"IR","value":110000}]`, 110000, 95, false},
		{"lowercase labels", `[{"type":"ir","value":1},{"type":"spo2","value":2}]`, 1, 2, false},
		{"untyped positional", `[{"value":150000},{"value":98}]`, 150000, 98, false},
		{"negative spo2 passes through", `[{"type":"IR","value":5000},{"type":"SPO2","value":-999}]`, 5000, -999, false},
		{"missing spo2", `[{"type":"IR","value":123456}]`, 0, 0, true},
		{"null value", `[{"type":"IR","value":null},{"type":"SPO2","value":97}]`, 0, 0, true},
		{"non-numeric", `[{"type":"IR","value":"abc"},{"type":"SPO2","value":97}]`, 0, 0, true},
		{"not json", `<html>`, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := sensorServer(t, http.StatusOK, tt.body)
			src := &HTTPSource{DeviceURL: srv.URL}

			got, err := src.Collect(context.Background())
			if tt.wantErr {
				if !errors.Is(err, signal.ErrMalformedSample) {
					t.Fatalf("Collect() error = %v, want ErrMalformedSample", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Collect() error = %v", err)
			}
			if got.IR != tt.wantIR || got.SpO2 != tt.wantSpO2 {
				t.Errorf("Collect() = IR %v SpO2 %v, want %v %v", got.IR, got.SpO2, tt.wantIR, tt.wantSpO2)
			}
			if got.Time.IsZero() {
				t.Error("sample time not set")
			}
		})
	}
}

func TestHTTPSource_CollectNon200(t *testing.T) {
	srv := sensorServer(t, http.StatusServiceUnavailable, `{}`)
	src := &HTTPSource{DeviceURL: srv.URL}

	_, err := src.Collect(context.Background())
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if errors.Is(err, signal.ErrMalformedSample) {
		t.Errorf("transport failure should not be reported as malformed: %v", err)
	}
}

func TestHTTPSource_CollectUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	src := &HTTPSource{DeviceURL: url, HTTPClient: &http.Client{Timeout: time.Second}}
	if _, err := src.Collect(context.Background()); err == nil {
		t.Fatal("expected error for unreachable device")
	}
}

func TestHTTPSource_MissingURL(t *testing.T) {
	src := &HTTPSource{}
	if _, err := src.Collect(context.Background()); err == nil {
		t.Fatal("expected error without DeviceURL")
	}
}

func TestHTTPSource_Probe(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"IR first", `[{"type":"IR","value":1},{"type":"SPO2","value":2}]`, nil},
		{"SPO2 first", `[{"type":"SPO2","value":2},{"type":"IR","value":1}]`, ErrNotSensor},
		{"empty list", `[]`, ErrNotSensor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := sensorServer(t, http.StatusOK, tt.body)
			src := &HTTPSource{DeviceURL: srv.URL}

			err := src.Probe(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Probe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHTTPSource_ContextCanceled(t *testing.T) {
	srv := sensorServer(t, http.StatusOK, `[]`)
	src := &HTTPSource{DeviceURL: srv.URL}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.Collect(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Collect() error = %v, want context.Canceled", err)
	}
}

func TestEncodeReadings_RoundTripThroughCollect(t *testing.T) {
	body, err := EncodeReadings(signal.Sample{IR: 130000, SpO2: 96})
	if err != nil {
		t.Fatalf("EncodeReadings() error = %v", err)
	}

	srv := sensorServer(t, http.StatusOK, string(body))
	src := &HTTPSource{DeviceURL: srv.URL}

	if err := src.Probe(context.Background()); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	got, err := src.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if got.IR != 130000 || got.SpO2 != 96 {
		t.Errorf("Collect() = %+v", got)
	}
}
