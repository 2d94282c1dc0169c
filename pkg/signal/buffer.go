package signal

// Capacity is the number of ticks kept per channel: 60 seconds at the
// sensor's 250ms cadence, plus the current tick.
const Capacity = 241

// Series is a fixed-capacity ring of the most recent values of one channel.
// It starts full of zeros so that every window over it has its nominal
// length from the first tick on.
type Series struct {
	data []float64
	head int // index of the oldest value
}

// NewSeries creates a zero-filled series. A capacity <= 0 selects Capacity.
func NewSeries(capacity int) *Series {
	if capacity <= 0 {
		capacity = Capacity
	}
	return &Series{data: make([]float64, capacity)}
}

// Push appends v, evicting the oldest value.
func (s *Series) Push(v float64) {
	s.data[s.head] = v
	s.head = (s.head + 1) % len(s.data)
}

// Tail returns a copy of the most recent n values, oldest first.
// n is clamped to [0, capacity].
func (s *Series) Tail(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if n > len(s.data) {
		n = len(s.data)
	}

	out := make([]float64, n)
	start := s.head - n
	if start < 0 {
		start += len(s.data)
	}
	for i := range n {
		out[i] = s.data[(start+i)%len(s.data)]
	}
	return out
}

// Latest returns the most recent value.
func (s *Series) Latest() float64 {
	return s.data[(s.head-1+len(s.data))%len(s.data)]
}

// Len returns the number of values held, which is always the capacity.
func (s *Series) Len() int {
	return len(s.data)
}

// Buffer keeps one Series per channel. It is not safe for concurrent use;
// the pipeline controller is its only owner.
type Buffer struct {
	ir   *Series
	spo2 *Series
}

// NewBuffer creates a zero-filled buffer for both channels.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		ir:   NewSeries(capacity),
		spo2: NewSeries(capacity),
	}
}

func (b *Buffer) series(ch Channel) *Series {
	if ch == SpO2 {
		return b.spo2
	}
	return b.ir
}

// Push appends a value to one channel.
func (b *Buffer) Push(ch Channel, v float64) {
	b.series(ch).Push(v)
}

// PushSample appends both channels of s.
func (b *Buffer) PushSample(s Sample) {
	b.ir.Push(s.IR)
	b.spo2.Push(s.SpO2)
}

// Tail returns the most recent n values of ch, oldest first.
func (b *Buffer) Tail(ch Channel, n int) []float64 {
	return b.series(ch).Tail(n)
}

// Latest returns the most recent value of ch.
func (b *Buffer) Latest(ch Channel) float64 {
	return b.series(ch).Latest()
}

// Len returns the per-channel length.
func (b *Buffer) Len() int {
	return b.ir.Len()
}
