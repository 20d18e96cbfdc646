// Package solver implements the locator's damped Gauss-Newton
// hypocenter + origin-time inversion (§4.9), grounded on
// original_source/locator/locator/solver.py's exact algorithm (initial
// guess, finite-difference Jacobian, backtracking line search,
// bound projection). The per-iteration linear least-squares solve uses
// gonum.org/v1/gonum/mat, matching the pack's numeric stack
// (jndunlap-gohypo imports gonum throughout).
package solver

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/seisgo/pipeline/pkg/geometry"
	"github.com/seisgo/pipeline/pkg/seismic"
)

// Options configures Estimate; the zero value is invalid — use
// DefaultOptions and override as needed.
type Options struct {
	VpKmS        float64
	MinStations  int
	MaxDepthKM   float64
	MaxIterations int
}

// DefaultOptions returns the §4.9 defaults (MaxDepthKM=80,
// MaxIterations=30). VpKmS and MinStations have no sane default and
// must be set by the caller.
func DefaultOptions(vpKmS float64, minStations int) Options {
	return Options{
		VpKmS:         vpKmS,
		MinStations:   minStations,
		MaxDepthKM:    80,
		MaxIterations: 30,
	}
}

var steps = [4]float64{1e-4, 1e-4, 1e-3, 1e-3}

// Estimate fits a hypocenter and origin time to event's picks using the
// station coordinates in stations, keyed by StationKey. Returns
// ok=false ("no estimate") if fewer than opts.MinStations picks have
// known station metadata, or the linear subproblem is ill-conditioned.
func Estimate(event seismic.Event, stations map[seismic.StationKey]seismic.Station, opts Options) (seismic.OriginEstimate, bool) {
	if opts.VpKmS <= 0 {
		panic("solver: VpKmS must be > 0")
	}
	if opts.MinStations < 3 {
		panic("solver: MinStations must be >= 3")
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = 30
	}
	maxDepth := opts.MaxDepthKM
	if maxDepth <= 0 {
		maxDepth = 80
	}

	var picks []seismic.Pick
	var stationList []seismic.Station
	var pickEpochs []float64
	for _, p := range event.Picks {
		st, ok := stations[p.Station()]
		if !ok {
			continue
		}
		picks = append(picks, p)
		stationList = append(stationList, st)
		pickEpochs = append(pickEpochs, float64(p.TS.UnixNano())/1e9)
	}
	if len(picks) < opts.MinStations {
		return seismic.OriginEstimate{}, false
	}

	lat0 := stationList[0].Lat
	lon0 := stationList[0].Lon
	depth0 := 10.0
	minEpoch := minFloat(pickEpochs)
	maxEpoch := maxFloat(pickEpochs)
	origin0 := minEpoch - 2.0

	x := []float64{lat0, lon0, depth0, origin0}
	lower := []float64{-90, -180, 0, minEpoch - 300}
	upper := []float64{90, 180, maxDepth, maxEpoch + 300}

	residuals := func(p []float64) []float64 {
		out := make([]float64, len(picks))
		for i, st := range stationList {
			dist := geometry.Haversine(p[0], p[1], st.Lat, st.Lon)
			tt := geometry.TravelTime(dist, p[2], opts.VpKmS)
			out[i] = pickEpochs[i] - (p[3] + tt)
		}
		return out
	}

	rms := func(r []float64) float64 {
		var sumSq float64
		for _, v := range r {
			sumSq += v * v
		}
		return math.Sqrt(sumSq / float64(len(r)))
	}

	iterations := 0
	for iter := 0; iter < maxIter; iter++ {
		iterations = iter + 1
		r := residuals(x)
		rms0 := rms(r)

		jac, err := finiteDifferenceJacobian(residuals, x)
		if err != nil {
			return seismic.OriginEstimate{}, false
		}

		dx, err := solveLstsq(jac, r)
		if err != nil {
			return seismic.OriginEstimate{}, false
		}

		improved := false
		alpha := 1.0
		for i := 0; i < 8; i++ {
			xTry := make([]float64, 4)
			for k := range xTry {
				xTry[k] = clip(x[k]+alpha*dx[k], lower[k], upper[k])
			}
			rTry := residuals(xTry)
			if rms(rTry) < rms0 {
				x = xTry
				improved = true
				break
			}
			alpha *= 0.5
		}

		if !improved || stepNorm(dx, alpha) < 1e-5 {
			break
		}
	}

	finalR := residuals(x)
	finalRMS := rms(finalR)

	arrivals := make([]seismic.ArrivalResidual, 0, len(picks))
	azimuths := make([]float64, 0, len(picks))
	for i, st := range stationList {
		dist := geometry.Haversine(x[0], x[1], st.Lat, st.Lon)
		az := geometry.Azimuth(x[0], x[1], st.Lat, st.Lon)
		tt := geometry.TravelTime(dist, x[2], opts.VpKmS)
		arrivals = append(arrivals, seismic.ArrivalResidual{
			Pick:               picks[i],
			DistanceKM:         dist,
			AzimuthDeg:         az,
			PredictedTTSeconds: tt,
			ResidualSeconds:    finalR[i],
		})
		azimuths = append(azimuths, az)
	}

	return seismic.OriginEstimate{
		AssociationKey:  event.AssociationKey,
		OriginTS:        time.Unix(0, int64(x[3]*1e9)).UTC(),
		Lat:             x[0],
		Lon:             x[1],
		DepthKM:         x[2],
		RMSSeconds:      finalRMS,
		AzimuthalGapDeg: geometry.AzimuthalGap(azimuths),
		SecondaryGapDeg: geometry.SecondaryAzimuthalGap(azimuths),
		UsedStations:    len(arrivals),
		Iterations:      iterations,
		Arrivals:        arrivals,
	}, true
}

func finiteDifferenceJacobian(residuals func([]float64) []float64, x []float64) (*mat.Dense, error) {
	base := residuals(x)
	jac := mat.NewDense(len(base), len(x), nil)
	for i := range x {
		x2 := append([]float64(nil), x...)
		x2[i] += steps[i]
		perturbed := residuals(x2)
		for row := range base {
			jac.Set(row, i, (perturbed[row]-base[row])/steps[i])
		}
	}
	return jac, nil
}

// solveLstsq solves J*dx ≈ -r in the least-squares sense via gonum's QR
// based Dense.Solve, which handles the overdetermined (m > n) case
// directly.
func solveLstsq(jac *mat.Dense, r []float64) ([]float64, error) {
	neg := make([]float64, len(r))
	for i, v := range r {
		neg[i] = -v
	}
	b := mat.NewDense(len(neg), 1, neg)

	var dx mat.Dense
	if err := dx.Solve(jac, b); err != nil {
		return nil, fmt.Errorf("solver: linear solve failed: %w", err)
	}

	out := make([]float64, dx.RawMatrix().Rows)
	for i := range out {
		out[i] = dx.At(i, 0)
	}
	return out, nil
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func stepNorm(dx []float64, alpha float64) float64 {
	var sumSq float64
	for _, v := range dx {
		sumSq += (alpha * v) * (alpha * v)
	}
	return math.Sqrt(sumSq)
}

func minFloat(xs []float64) float64 {
	m := xs[0]
	for _, v := range xs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxFloat(xs []float64) float64 {
	m := xs[0]
	for _, v := range xs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
