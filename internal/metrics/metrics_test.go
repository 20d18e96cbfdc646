package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDetectorCounters_IncrementAndCollect(t *testing.T) {
	before := testutil.ToFloat64(Detector.PicksEmitted)
	Detector.PicksEmitted.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Detector.PicksEmitted))

	Detector.BufferBytes.Set(1024)
	assert.Equal(t, float64(1024), testutil.ToFloat64(Detector.BufferBytes))
}

func TestLocatorCounters_IncrementAndCollect(t *testing.T) {
	before := testutil.ToFloat64(Locator.OriginsWritten)
	Locator.OriginsWritten.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Locator.OriginsWritten))
}

func TestLocatorHistograms_ObserveWithoutPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Locator.SolverIterations.Observe(4)
		Locator.CycleDuration.Observe(0.25)
	})
}
