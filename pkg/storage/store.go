// Package storage keeps the latest derived state per device so that HTTP,
// websocket and gRPC readers never touch the pipeline directly.
//
// Only the most recent snapshot is retained; there is no session history.
package storage

import "time"

// Snapshot is the published view of one device's pipeline after a tick.
type Snapshot struct {
	Device             string    `json:"device"`
	Status             string    `json:"status"`
	GeneratedAt        time.Time `json:"generatedAt"`
	Ticks              int       `json:"ticks"`
	IR                 float64   `json:"ir"`
	SpO2               float64   `json:"spo2"`
	IRValid            bool      `json:"irValid"`
	SpO2Valid          bool      `json:"spo2Valid"`
	SpO2Available      bool      `json:"spo2Available"`
	HeartRateAvailable bool      `json:"heartRateAvailable"`
	WindowBpm10s       float64   `json:"windowBpm10s"`
	WindowBpm30s       float64   `json:"windowBpm30s"`
	IRTail             []float64 `json:"irTail"`
	SpO2Tail           []float64 `json:"spo2Tail"`
}

type Store interface {
	Put(Snapshot) error
	GetLatest(device string) (Snapshot, bool, error)
}
