// Package signalproc implements the detector's STA/LTA front end: cosine
// tapering, demeaning, Butterworth bandpass filtering and the classic
// STA/LTA trigger itself (§4.2-4.3). Mean reductions use
// montanaflynn/stats rather than hand-rolled loops, matching the pack's
// numeric idiom (jndunlap-gohypo's stats adapters).
package signalproc

import "math"

// TaperCosine applies a cosine (Tukey) taper of fractional length frac to
// y, returning a new slice. frac <= 0, or a resulting taper length of
// zero, returns an unmodified copy.
func TaperCosine(y []float64, frac float64) []float64 {
	out := make([]float64, len(y))
	copy(out, y)

	n := len(y)
	if frac <= 0 || n == 0 {
		return out
	}

	m := int(float64(n) * frac)
	if m == 0 {
		return out
	}
	if m > n/2 {
		m = n / 2
	}

	for k := 0; k < m; k++ {
		w := 0.5 * (1 - math.Cos(math.Pi*float64(k+1)/float64(m)))
		out[k] *= w
		out[n-1-k] *= w
	}
	return out
}
