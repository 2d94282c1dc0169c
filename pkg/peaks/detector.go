// Package peaks finds local maxima in a sampled signal, subject to a
// minimum spacing between accepted peaks.
//
// Detection is deterministic and greedy:
//  1. A candidate is an interior index i with series[i-1] < series[i] and
//     series[i] >= series[i+1]. A plateau is reported once, at its first
//     index; a flat run with no rise into it is not a peak.
//  2. Candidates are scanned left to right. A candidate closer than
//     minDistance samples to the previously accepted peak is dropped, even
//     when it is higher.
//
// The earliest peak always wins, which keeps peak counts stable tick over
// tick as the window slides.
package peaks

// DefaultMinDistance collapses any two maxima closer than 1.75 sample
// intervals into one beat.
const DefaultMinDistance = 1.75

// Detect returns the indices of accepted peaks in series, strictly
// increasing. It never mutates series and never panics: inputs shorter than
// three samples yield an empty result, and NaN samples never compare true so
// they are never selected.
func Detect(series []float64, minDistance float64) []int {
	peaks := []int{}
	if len(series) < 3 {
		return peaks
	}

	last := -1
	for i := 1; i < len(series)-1; i++ {
		if !isCandidate(series, i) {
			continue
		}
		if last >= 0 && float64(i-last) < minDistance {
			continue
		}
		peaks = append(peaks, i)
		last = i
	}

	return peaks
}

// Count returns the number of peaks Detect would accept.
func Count(series []float64, minDistance float64) int {
	return len(Detect(series, minDistance))
}

func isCandidate(series []float64, i int) bool {
	return series[i-1] < series[i] && series[i] >= series[i+1]
}
