package signalproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassicStaLta_FlatSignalStaysAtZero(t *testing.T) {
	y := make([]float64, 50)
	for i := range y {
		y[i] = 1.0
	}
	cft := ClassicStaLta(y, 10, 1, 2) // nsta=10, nlta=20

	// once lta window has accumulated, sta/lta of a constant signal is 1
	assert.InDelta(t, 1.0, cft[49], 1e-9)
}

func TestClassicStaLta_SpikeRaisesRatio(t *testing.T) {
	y := make([]float64, 100)
	for i := 50; i < 60; i++ {
		y[i] = 10.0
	}
	cft := ClassicStaLta(y, 10, 1, 5) // nsta=10, nlta=50

	assert.Greater(t, cft[55], 1.0)
}

func TestScanTriggers_OpenAndClose(t *testing.T) {
	cft := []float64{0, 0, 4, 5, 6, 2, 1, 0}
	windows := ScanTriggers(cft, 3, 1.5)

	require.Len(t, windows, 1)
	assert.Equal(t, 2, windows[0].StartIdx)
	assert.Equal(t, 6, windows[0].EndIdx)
}

func TestScanTriggers_StillOpenAtEnd(t *testing.T) {
	cft := []float64{0, 4, 5, 6}
	windows := ScanTriggers(cft, 3, 1.5)

	require.Len(t, windows, 1)
	assert.Equal(t, 1, windows[0].StartIdx)
	assert.Equal(t, 3, windows[0].EndIdx)
}

func TestScanTriggers_NoTrigger(t *testing.T) {
	cft := []float64{0, 0.1, 0.2, 0.1}
	windows := ScanTriggers(cft, 3, 1.5)
	assert.Empty(t, windows)
}

func TestWindowToSeconds(t *testing.T) {
	onset, offset := WindowToSeconds(TriggerWindow{StartIdx: 10, EndIdx: 30}, 100.0, 10.0)
	assert.Equal(t, 101.0, onset)
	assert.Equal(t, 103.0, offset)
}
