package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seisgo/pipeline/pkg/buffer"
	"github.com/seisgo/pipeline/pkg/seismic"
)

// fakeBackend lets tests control exactly what a run produces, without
// exercising the real signal-processing pipeline.
type fakeBackend struct {
	input  int
	single Result
	singleErr error
	runs   int
}

func (f *fakeBackend) InputSamples() int { return f.input }
func (f *fakeBackend) RunSingle(string, seismic.TraceSegment) (Result, error) {
	f.runs++
	return f.single, f.singleErr
}
func (f *fakeBackend) RunStation(seismic.StationKey, buffer.AlignedWindow) (Result, error) {
	f.runs++
	return f.single, f.singleErr
}

func TestScheduler_StaLtaModeRespectsBufferSecondsGate(t *testing.T) {
	buf := buffer.New(100)
	backend := &fakeBackend{}
	sched := NewScheduler(buf, backend, ModeStaLta, 10, 5, 1)

	// only 2 seconds buffered, bufferSeconds requires 10
	outcome, err := sched.OnSegment("NC.KRP.--.HHZ", 0, 10, make([]float64, 20))
	require.NoError(t, err)
	assert.False(t, outcome.Ran)
	assert.Equal(t, 0, backend.runs)
}

func TestScheduler_StaLtaModeRunsOnceReady(t *testing.T) {
	buf := buffer.New(100)
	now := time.Now()
	pick := seismic.Pick{TS: now, Phase: seismic.PhaseP, Net: "NC", Sta: "KRP", Loc: "--", Chan: "HHZ"}
	backend := &fakeBackend{single: Result{Picks: []seismic.Pick{pick}}}
	sched := NewScheduler(buf, backend, ModeStaLta, 1, 5, 0)

	samples := make([]float64, 101) // 101 samples @ 100 Hz = 1.0s buffered
	outcome, err := sched.OnSegment("NC.KRP.--.HHZ", 0, 100, samples)
	require.NoError(t, err)
	assert.True(t, outcome.Ran)
	assert.Equal(t, ModeStaLta, outcome.Mode)
	assert.Equal(t, 1, backend.runs)
	require.Len(t, outcome.Picks, 1)
}

func TestScheduler_StaLtaModeCooldownGatesRepeatRuns(t *testing.T) {
	buf := buffer.New(100)
	backend := &fakeBackend{}
	sched := NewScheduler(buf, backend, ModeStaLta, 1, 100, 0) // detectEverySeconds huge

	samples := make([]float64, 101)
	_, err := sched.OnSegment("NC.KRP.--.HHZ", 0, 100, samples)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.runs)

	// append more samples; still within the cooldown window
	outcome, err := sched.OnSegment("NC.KRP.--.HHZ", 1.0, 100, make([]float64, 10))
	require.NoError(t, err)
	assert.False(t, outcome.Ran)
	assert.Equal(t, 1, backend.runs)
}

func TestScheduler_BackendErrorPropagates(t *testing.T) {
	buf := buffer.New(100)
	backend := &fakeBackend{singleErr: assert.AnError}
	sched := NewScheduler(buf, backend, ModeStaLta, 1, 5, 0)

	_, err := sched.OnSegment("NC.KRP.--.HHZ", 0, 100, make([]float64, 101))
	require.Error(t, err)
}

func TestScheduler_DedupSuppressesRepeatedPickWithinWindow(t *testing.T) {
	buf := buffer.New(100)
	now := time.Now()
	pick := seismic.Pick{TS: now, Phase: seismic.PhaseP, Net: "NC", Sta: "KRP", Loc: "--", Chan: "HHZ"}
	backend := &fakeBackend{single: Result{Picks: []seismic.Pick{pick}}}
	// cooldown tiny so the backend can run again immediately; dedup window large
	sched := NewScheduler(buf, backend, ModeStaLta, 1, 0, 3600)

	samples := make([]float64, 101)
	outcome1, err := sched.OnSegment("NC.KRP.--.HHZ", 0, 100, samples)
	require.NoError(t, err)
	require.Len(t, outcome1.Picks, 1)

	// backend emits the identical-time pick again; dedup should drop it
	outcome2, err := sched.OnSegment("NC.KRP.--.HHZ", 1, 100, make([]float64, 10))
	require.NoError(t, err)
	assert.Empty(t, outcome2.Picks)
}

func TestScheduler_PickerModeNotReadyUntilAligned(t *testing.T) {
	buf := buffer.New(100)
	backend := &fakeBackend{input: 50}
	sched := NewScheduler(buf, backend, ModePicker, 100, 5, 0)

	outcome, err := sched.OnSegment("NC.KRP.--.HHZ", 0, 100, make([]float64, 10))
	require.NoError(t, err)
	assert.False(t, outcome.Ran)
	assert.Equal(t, 0, backend.runs)
}

func TestScheduler_PickerModeRunsOnceChannelReachesInputSamples(t *testing.T) {
	buf := buffer.New(100)
	pick := seismic.Pick{TS: time.Now(), Phase: seismic.PhaseP, Net: "NC", Sta: "KRP", Loc: "--"}
	backend := &fakeBackend{input: 10, single: Result{Picks: []seismic.Pick{pick}}}
	sched := NewScheduler(buf, backend, ModePicker, 100, 5, 0)

	outcome, err := sched.OnSegment("NC.KRP.--.HHZ", 0, 10, make([]float64, 10))
	require.NoError(t, err)
	assert.True(t, outcome.Ran)
	assert.Equal(t, ModePicker, outcome.Mode)
	assert.Equal(t, 1, backend.runs)
}

func TestScheduler_PickerModeCooldownBlocksImmediateRerun(t *testing.T) {
	buf := buffer.New(100)
	backend := &fakeBackend{input: 10}
	sched := NewScheduler(buf, backend, ModePicker, 100, 5, 0)

	_, err := sched.OnSegment("NC.KRP.--.HHZ", 0, 10, make([]float64, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, backend.runs)

	outcome, err := sched.OnSegment("NC.KRP.--.HHN", 0, 10, make([]float64, 10))
	require.NoError(t, err)
	assert.False(t, outcome.Ran)
	assert.Equal(t, 1, backend.runs)
}
