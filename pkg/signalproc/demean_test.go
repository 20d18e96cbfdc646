package signalproc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemean_SubtractsMean(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5}
	out := Demean(y)

	var sum float64
	for _, v := range out {
		sum += v
	}
	assert.InDelta(t, 0, sum, 1e-9)
}

func TestDemean_IgnoresNaN(t *testing.T) {
	y := []float64{1, 2, math.NaN(), 3}
	out := Demean(y)

	require := assert.New(t)
	require.True(math.IsNaN(out[2]))
	// mean of {1,2,3} is 2
	require.InDelta(-1.0, out[0], 1e-9)
	require.InDelta(0.0, out[1], 1e-9)
	require.InDelta(1.0, out[3], 1e-9)
}

func TestDemean_AllNaNReturnsCopy(t *testing.T) {
	y := []float64{math.NaN(), math.NaN()}
	out := Demean(y)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
}
