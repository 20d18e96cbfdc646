// Package geometry implements the locator's spherical-earth and
// travel-time helpers (§4.8): haversine distance, azimuth, straight-ray
// travel time, and primary/secondary azimuthal gap. The max-gap
// reductions use gonum/floats, grounded on the pack's gonum usage in
// pkg/solver.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// EarthRadiusKM is the mean radius used by Haversine.
const EarthRadiusKM = 6371.0

// Haversine returns the great-circle distance in km between two
// lat/lon points in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := radians(lat1)
	lat2r := radians(lat2)
	dlat := radians(lat2 - lat1)
	dlon := radians(lon2 - lon1)

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}

// Azimuth returns the initial bearing from point 1 to point 2, in
// degrees, in [0, 360).
func Azimuth(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := radians(lat1)
	lat2r := radians(lat2)
	dlon := radians(lon2 - lon1)

	x := math.Sin(dlon) * math.Cos(lat2r)
	y := math.Cos(lat1r)*math.Sin(lat2r) - math.Sin(lat1r)*math.Cos(lat2r)*math.Cos(dlon)
	az := degrees(math.Atan2(x, y))
	return math.Mod(az+360, 360)
}

// TravelTime returns the straight-ray travel time in seconds through a
// homogeneous half-space at velocity v (km/s).
func TravelTime(distanceKM, depthKM, v float64) float64 {
	hyp := math.Sqrt(distanceKM*distanceKM + depthKM*depthKM)
	return hyp / v
}

// AzimuthalGap returns the largest angular gap between consecutive
// station azimuths (circular, including the wrap-around gap). Fewer
// than 2 azimuths is undefined and returns 360.
func AzimuthalGap(azimuths []float64) float64 {
	if len(azimuths) < 2 {
		return 360.0
	}
	sorted := append([]float64(nil), azimuths...)
	floats.Sort(sorted)

	gaps := make([]float64, 0, len(sorted))
	for i := 0; i < len(sorted)-1; i++ {
		gaps = append(gaps, sorted[i+1]-sorted[i])
	}
	gaps = append(gaps, 360.0+sorted[0]-sorted[len(sorted)-1])
	return floats.Max(gaps)
}

// SecondaryAzimuthalGap returns the largest gap spanning two adjacent
// stations (skip-one), the standard "secondary gap" quality metric.
// Fewer than 3 azimuths is undefined and returns 360.
func SecondaryAzimuthalGap(azimuths []float64) float64 {
	n := len(azimuths)
	if n < 3 {
		return 360.0
	}
	sorted := append([]float64(nil), azimuths...)
	floats.Sort(sorted)

	gaps := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		next := (i + 2) % n
		var gap float64
		if next > i {
			gap = sorted[next] - sorted[i]
		} else {
			gap = 360.0 + sorted[next] - sorted[i]
		}
		gaps = append(gaps, gap)
	}
	return floats.Max(gaps)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
