package signal

// Sensor thresholds separating a coupled finger from the noise floor.
const (
	IRThreshold   = 100000
	SpO2Threshold = 50
)

// Validity holds the latest per-channel validity flags.
type Validity struct {
	IR   bool `json:"ir"`
	SpO2 bool `json:"spo2"`
}

// Classify reports whether v is a valid reading for ch.
func Classify(ch Channel, v float64) bool {
	switch ch {
	case IR:
		return v > IRThreshold
	case SpO2:
		return v > SpO2Threshold
	default:
		return false
	}
}

// ClassifySample classifies both channels of s independently.
func ClassifySample(s Sample) Validity {
	return Validity{
		IR:   Classify(IR, s.IR),
		SpO2: Classify(SpO2, s.SpO2),
	}
}
