package detector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seisgo/pipeline/pkg/buffer"
	"github.com/seisgo/pipeline/pkg/seismic"
	"github.com/seisgo/pipeline/pkg/signalproc"
)

func TestStaLtaBackend_InputSamplesUnbounded(t *testing.T) {
	b := &StaLtaBackend{}
	assert.Equal(t, -1, b.InputSamples())
}

func TestStaLtaBackend_RunSingleDetectsSpike(t *testing.T) {
	const sampRate = 100.0
	n := 1000
	samples := make([]float64, n)
	for i := 500; i < 520; i++ {
		samples[i] = 50.0
	}

	b := &StaLtaBackend{
		FMin: 1, FMax: 20, StaSeconds: 0.2, LtaSeconds: 2,
		TriggerOn: 3, TriggerOff: 1, TaperFraction: 0.01,
		BandpassOpts: signalproc.DefaultBandpassOptions(),
	}
	seg := seismic.TraceSegment{Start: 0, End: float64(n-1) / sampRate, SampRate: sampRate, Samples: samples}

	res, err := b.RunSingle("NC.KRP.--.HHZ", seg)
	require.NoError(t, err)
	require.NotEmpty(t, res.Picks)
	for _, p := range res.Picks {
		assert.Equal(t, seismic.PhaseP, p.Phase)
		assert.Equal(t, "NC", p.Net)
		assert.Equal(t, "KRP", p.Sta)
	}
}

func TestStaLtaBackend_RunSingleInvalidSID(t *testing.T) {
	b := &StaLtaBackend{FMin: 1, FMax: 10, StaSeconds: 1, LtaSeconds: 5, TaperFraction: 0.05}
	seg := seismic.TraceSegment{SampRate: 100, Samples: make([]float64, 200)}
	res, err := b.RunSingle("not-a-valid-sid", seg)
	require.NoError(t, err)
	assert.Empty(t, res.Picks)
}

func TestStaLtaBackend_RunSingleBandpassError(t *testing.T) {
	b := &StaLtaBackend{FMin: 10, FMax: 5, StaSeconds: 1, LtaSeconds: 5} // invalid band
	seg := seismic.TraceSegment{SampRate: 100, Samples: make([]float64, 100)}
	_, err := b.RunSingle("NC.KRP.--.HHZ", seg)
	require.Error(t, err)
}

func TestStaLtaBackend_RunStationIsNoop(t *testing.T) {
	b := &StaLtaBackend{}
	res, err := b.RunStation(seismic.StationKey{}, buffer.AlignedWindow{})
	require.NoError(t, err)
	assert.Empty(t, res.Picks)
}

type stubPickerModel struct {
	input  int
	result ClassifyResult
}

func (s stubPickerModel) InputSamples() int                              { return s.input }
func (s stubPickerModel) Classify(_ buffer.AlignedWindow) ClassifyResult { return s.result }

func TestPickerBackend_FiltersUnknownPhaseAndMissingTime(t *testing.T) {
	value := 0.8
	model := stubPickerModel{
		input: 100,
		result: ClassifyResult{
			Picks: []ClassifiedPick{
				{Phase: "P", PeakTime: 10, HasTime: true, PeakValue: value, HasValue: true},
				{Phase: "X", PeakTime: 10, HasTime: true}, // invalid phase
				{Phase: "S", HasTime: false},              // no time
			},
		},
	}
	backend := &PickerBackend{Model: model}

	res, err := backend.RunStation(seismic.StationKey{Net: "NC", Sta: "KRP", Loc: "--"}, buffer.AlignedWindow{})
	require.NoError(t, err)
	require.Len(t, res.Picks, 1)
	assert.Equal(t, seismic.PhaseP, res.Picks[0].Phase)
	require.NotNil(t, res.Picks[0].Score)
	assert.InDelta(t, value, *res.Picks[0].Score, 1e-9)
}

func TestPickerBackend_ScoreAbsentWhenModelHasNone(t *testing.T) {
	model := stubPickerModel{
		result: ClassifyResult{
			Picks: []ClassifiedPick{{Phase: "S", PeakTime: 1, HasTime: true}},
		},
	}
	backend := &PickerBackend{Model: model}

	res, err := backend.RunStation(seismic.StationKey{}, buffer.AlignedWindow{})
	require.NoError(t, err)
	require.Len(t, res.Picks, 1)
	assert.Nil(t, res.Picks[0].Score)
}

func TestPickerBackend_InputSamplesDelegates(t *testing.T) {
	backend := &PickerBackend{Model: stubPickerModel{input: 42}}
	assert.Equal(t, 42, backend.InputSamples())
}

func TestPickerBackend_RunSingleIsNoop(t *testing.T) {
	backend := &PickerBackend{Model: stubPickerModel{}}
	res, err := backend.RunSingle("x", seismic.TraceSegment{})
	require.NoError(t, err)
	assert.Empty(t, res.Picks)
}

func TestNoopPickerModel_DefaultsInputSamples(t *testing.T) {
	m := NoopPickerModel{}
	assert.Equal(t, 6000, m.InputSamples())

	m2 := NoopPickerModel{Samples: 500}
	assert.Equal(t, 500, m2.InputSamples())
}

func TestNoopPickerModel_ClassifyIsEmpty(t *testing.T) {
	m := NoopPickerModel{}
	res := m.Classify(buffer.AlignedWindow{})
	assert.Empty(t, res.Picks)
	assert.Empty(t, res.Detections)
}

func TestWindowToSecondsSanity(t *testing.T) {
	// sanity check that the STA/LTA pipeline's onset math doesn't
	// silently produce NaN/Inf times.
	onset, offset := signalproc.WindowToSeconds(signalproc.TriggerWindow{StartIdx: 0, EndIdx: 10}, 0, 10)
	assert.False(t, math.IsNaN(onset))
	assert.False(t, math.IsNaN(offset))
}
