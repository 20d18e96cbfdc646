package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine_SamePointIsZero(t *testing.T) {
	d := Haversine(37.0, -122.0, 37.0, -122.0)
	assert.InDelta(t, 0, d, 1e-9)
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Roughly San Francisco to Los Angeles, ~559 km great-circle.
	d := Haversine(37.7749, -122.4194, 34.0522, -118.2437)
	assert.InDelta(t, 559, d, 15)
}

func TestAzimuth_NorthIsZero(t *testing.T) {
	az := Azimuth(0, 0, 1, 0)
	assert.InDelta(t, 0, az, 1e-6)
}

func TestAzimuth_EastIsNinety(t *testing.T) {
	az := Azimuth(0, 0, 0, 1)
	assert.InDelta(t, 90, az, 1e-6)
}

func TestAzimuth_AlwaysNonNegative(t *testing.T) {
	az := Azimuth(1, 0, 0, 0) // due south
	assert.GreaterOrEqual(t, az, 0.0)
	assert.Less(t, az, 360.0)
	assert.InDelta(t, 180, az, 1e-6)
}

func TestTravelTime(t *testing.T) {
	tt := TravelTime(30, 40, 5) // hyp=50, v=5
	assert.InDelta(t, 10, tt, 1e-9)
}

func TestAzimuthalGap_FewerThanTwo(t *testing.T) {
	assert.Equal(t, 360.0, AzimuthalGap([]float64{10}))
}

func TestAzimuthalGap_EvenSpread(t *testing.T) {
	gap := AzimuthalGap([]float64{0, 90, 180, 270})
	assert.InDelta(t, 90, gap, 1e-9)
}

func TestAzimuthalGap_Clustered(t *testing.T) {
	gap := AzimuthalGap([]float64{0, 10, 20})
	// largest gap is the wrap-around: 360 + 0 - 20 = 340
	assert.InDelta(t, 340, gap, 1e-9)
}

func TestSecondaryAzimuthalGap_FewerThanThree(t *testing.T) {
	assert.Equal(t, 360.0, SecondaryAzimuthalGap([]float64{0, 90}))
}

func TestSecondaryAzimuthalGap_EvenSpread(t *testing.T) {
	gap := SecondaryAzimuthalGap([]float64{0, 90, 180, 270})
	assert.InDelta(t, 180, gap, 1e-9)
}
