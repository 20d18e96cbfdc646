package signalproc

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Demean subtracts the arithmetic mean of y from every sample, ignoring
// NaNs when computing the mean (NaN samples are left untouched in the
// output). Returns a new slice.
func Demean(y []float64) []float64 {
	out := make([]float64, len(y))
	copy(out, y)

	finite := make(stats.Float64Data, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return out
	}

	mean, err := finite.Mean()
	if err != nil {
		return out
	}

	for i, v := range out {
		if !math.IsNaN(v) {
			out[i] = v - mean
		}
	}
	return out
}
