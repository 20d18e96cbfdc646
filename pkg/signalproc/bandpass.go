package signalproc

import (
	"fmt"
	"math"
)

// InvalidBandError is returned by Bandpass when the corner frequencies
// don't satisfy 0 < fmin < fmax < fs/2.
type InvalidBandError struct {
	Fmin, Fmax, SampRate float64
}

func (e InvalidBandError) Error() string {
	return fmt.Sprintf("signalproc: invalid band fmin=%g fmax=%g for samprate=%g (need 0 < fmin < fmax < fs/2)",
		e.Fmin, e.Fmax, e.SampRate)
}

// sosSection is one second-order section of a digital filter:
// b0 + b1 z^-1 + b2 z^-2 over a0 + a1 z^-1 + a2 z^-2, a0 normalized to 1.
type sosSection struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// BandpassOptions configures Bandpass. The zero value selects the §4.2
// defaults used by the STA/LTA front end: 4th order, zero-phase
// (forward-backward).
type BandpassOptions struct {
	Order   int  // 0 means 4
	OnePass bool // true disables the backward pass
}

// DefaultBandpassOptions returns the §4.2 defaults.
func DefaultBandpassOptions() BandpassOptions {
	return BandpassOptions{Order: 4}
}

// Bandpass applies a Butterworth bandpass filter (SOS form) to y, with
// corners fmin/fmax (Hz) at the given sample rate. Order and zero-phase
// behavior come from opts; the zero value of BandpassOptions is replaced
// with DefaultBandpassOptions()'s values.
func Bandpass(y []float64, fmin, fmax, sampRate float64, opts BandpassOptions) ([]float64, error) {
	nyquist := sampRate / 2
	if !(fmin > 0 && fmin < fmax && fmax < nyquist) {
		return nil, InvalidBandError{Fmin: fmin, Fmax: fmax, SampRate: sampRate}
	}

	order := opts.Order
	if order <= 0 {
		order = 4
	}

	sections := butterworthBandpassSOS(order, fmin, fmax, sampRate)

	out := make([]float64, len(y))
	copy(out, y)
	for _, s := range sections {
		out = applySection(s, out)
	}

	if !opts.OnePass {
		reverse(out)
		for _, s := range sections {
			out = applySection(s, out)
		}
		reverse(out)
	}

	return out, nil
}

func reverse(y []float64) {
	for i, j := 0, len(y)-1; i < j; i, j = i+1, j-1 {
		y[i], y[j] = y[j], y[i]
	}
}

func applySection(s sosSection, x []float64) []float64 {
	y := make([]float64, len(x))
	var x1, x2, y1, y2 float64
	for i, xi := range x {
		yi := s.b0*xi + s.b1*x1 + s.b2*x2 - s.a1*y1 - s.a2*y2
		y[i] = yi
		x2, x1 = x1, xi
		y2, y1 = y1, yi
	}
	return y
}

// butterworthBandpassSOS builds the SOS cascade for an order-N
// Butterworth bandpass via the standard analog-prototype -> lowpass-to-
// bandpass transform -> bilinear transform pipeline, turning the N
// prototype poles into 2N pre-warped analog bandpass poles grouped as
// N conjugate-pair second-order sections. This mirrors scipy.signal.butter(..., output="sos")'s
// construction for a bandpass filter.
func butterworthBandpassSOS(order int, fmin, fmax, sampRate float64) []sosSection {
	w1 := prewarp(fmin, sampRate)
	w2 := prewarp(fmax, sampRate)
	bw := w2 - w1
	w0 := math.Sqrt(w1 * w2)

	sections := make([]sosSection, 0, order)
	for k := 0; k < order; k++ {
		theta := math.Pi * (2*float64(k) + 1) / (2 * float64(order))
		// analog lowpass prototype pole on the unit circle
		pReal := -math.Sin(theta)
		pImag := math.Cos(theta)

		// lowpass-to-bandpass: p -> (p*bw/2) +/- sqrt((p*bw/2)^2 - w0^2)
		aReal := pReal * bw / 2
		aImag := pImag * bw / 2

		// (aReal+i*aImag)^2
		sqReal := aReal*aReal - aImag*aImag
		sqImag := 2 * aReal * aImag
		discReal := sqReal - w0*w0
		discImag := sqImag

		sqrtReal, sqrtImag := complexSqrt(discReal, discImag)

		p1Real, p1Imag := aReal+sqrtReal, aImag+sqrtImag
		p2Real, p2Imag := aReal-sqrtReal, aImag-sqrtImag

		sections = append(sections, bilinearSOS(p1Real, p1Imag, p2Real, p2Imag, w0, sampRate))
	}
	return sections
}

// prewarp converts a digital corner frequency (Hz) to its pre-warped
// analog angular frequency for the bilinear transform.
func prewarp(f, sampRate float64) float64 {
	t := 1 / sampRate
	return 2 / t * math.Tan(math.Pi*f*t)
}

func complexSqrt(re, im float64) (float64, float64) {
	r := math.Hypot(re, im)
	sr := math.Sqrt((r + re) / 2)
	si := math.Sqrt((r - re) / 2)
	if im < 0 {
		si = -si
	}
	return sr, si
}

// bilinearSOS builds one second-order section from the pole pair
// (p1, p2) that the lowpass-to-bandpass transform yields for one
// prototype pole. For a complex prototype pole, p1 and p2 are not
// conjugates of each other, so the section pairs p1 (prototype pole in
// the upper half-plane) or p2 (lower half-plane) with its own
// conjugate; the conjugate prototype pole's call supplies the other
// pair. For the real prototype pole of an odd order, p1 and p2 are used
// as they are. The numerator is bw*s (one zero at s=0, one at
// infinity), with bw = |p1+p2| because the prototype pole lies on the
// unit circle. Both are mapped through the bilinear transform
// s = 2*fs*(z-1)/(z+1), producing a normalized (a0==1) section.
func bilinearSOS(p1Real, p1Imag, p2Real, p2Imag, _, sampRate float64) sosSection {
	k := 2 * sampRate
	sumImag := p1Imag + p2Imag
	bw := math.Hypot(p1Real+p2Real, sumImag)

	// Denominator: (s - q1)(s - q2) = s^2 - (q1+q2)s + q1*q2
	sumReal := p1Real + p2Real
	prodReal := p1Real*p2Real - p1Imag*p2Imag
	switch {
	case sumImag > 1e-9*bw:
		sumReal, prodReal = 2*p1Real, p1Real*p1Real+p1Imag*p1Imag
	case sumImag < -1e-9*bw:
		sumReal, prodReal = 2*p2Real, p2Real*p2Real+p2Imag*p2Imag
	}

	// Numerator bw*s: substitute s = k*(z-1)/(z+1) and multiply through
	// by (z+1)^2, giving bw*k*(z^2 - 1).
	// Numerator coefficients (z^2, z^1, z^0):
	nb0 := bw * k
	nb1 := 0.0
	nb2 := -bw * k

	// Denominator coefficients (z^2, z^1, z^0):
	da0 := k*k - sumReal*k + prodReal
	da1 := 2 * (prodReal - k*k)
	da2 := k*k + sumReal*k + prodReal

	return sosSection{
		b0: nb0 / da0,
		b1: nb1 / da0,
		b2: nb2 / da0,
		a1: da1 / da0,
		a2: da2 / da0,
	}
}
