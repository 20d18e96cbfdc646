package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seisgo/pipeline/pkg/seismic"
)

func entry(sid string, start, end, sampRate float64, n int) StationBufferEntry {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = float64(i + 1)
	}
	return StationBufferEntry{
		SID: sid,
		Segment: seismic.TraceSegment{
			Start: start, End: end, SampRate: sampRate, Samples: samples,
		},
	}
}

func TestAlignStationWindow_NotReadyWhenEmpty(t *testing.T) {
	_, ok := AlignStationWindow(nil, 10)
	assert.False(t, ok)
}

func TestAlignStationWindow_NotReadyWhenShort(t *testing.T) {
	entries := []StationBufferEntry{entry("Z", 0, 1, 10, 5)}
	_, ok := AlignStationWindow(entries, 10)
	assert.False(t, ok)
}

func TestAlignStationWindow_AlignsToEarliestEnd(t *testing.T) {
	// Z channel ends one sample later than N; both have 20 buffered
	// samples at 10 Hz, window of 10 samples.
	z := entry("Z", 0, 2.0, 10, 20)
	n := entry("N", 0, 1.9, 10, 20)

	win, ok := AlignStationWindow([]StationBufferEntry{z, n}, 10)
	require.True(t, ok)
	assert.Equal(t, 1.9, win.CommonEnd)
	require.Len(t, win.Channels, 2)

	// Z must drop its last sample (offset 1) to align to commonEnd.
	var zWin, nWin []float64
	for _, c := range win.Channels {
		if c.SID == "Z" {
			zWin = c.Samples
		}
		if c.SID == "N" {
			nWin = c.Samples
		}
	}
	require.Len(t, zWin, 10)
	require.Len(t, nWin, 10)
	// z's tail sample aligned to commonEnd is one sample earlier than its
	// raw last sample, since z's raw end is one sample past commonEnd.
	assert.Equal(t, 19.0, zWin[9])
	assert.Equal(t, 20.0, nWin[9])
}

func TestAlignStationWindow_LeftPadsShortTail(t *testing.T) {
	// Z has enough raw samples (20) to pass the readiness check against
	// a 15-sample window, but aligning to N's earlier commonEnd trims
	// its usable tail down to 10 -> the window is zero-padded on the left.
	z := entry("Z", 0, 2.0, 10, 20)
	n := entry("N", 0, 1.0, 10, 20)

	win, ok := AlignStationWindow([]StationBufferEntry{z, n}, 15)
	require.True(t, ok)

	var zWin []float64
	for _, c := range win.Channels {
		if c.SID == "Z" {
			zWin = c.Samples
		}
	}
	require.Len(t, zWin, 15)
	for i := 0; i < 5; i++ {
		assert.Equal(t, 0.0, zWin[i])
	}
	assert.NotEqual(t, 0.0, zWin[14])
}
