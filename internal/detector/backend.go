package detector

import (
	"time"

	"github.com/seisgo/pipeline/pkg/buffer"
	"github.com/seisgo/pipeline/pkg/seismic"
	"github.com/seisgo/pipeline/pkg/signalproc"
)

// Result is one detector run's output: zero or more picks, plus (in
// picker mode) zero or more event-window detections.
type Result struct {
	Picks      []seismic.Pick
	Detections []EventWindow
}

// EventWindow is a picker-produced event detection window.
type EventWindow struct {
	StartSeconds, EndSeconds float64
}

// Backend is the §9 plugin capability set shared by the STA/LTA
// front-end and the learned phase picker: how many samples it needs
// before it can run, and how to run it against a ready window.
type Backend interface {
	// InputSamples returns the number of trailing samples this backend
	// needs to run, or -1 if unbounded (STA/LTA runs on whatever is
	// buffered).
	InputSamples() int
	// RunSingle processes one channel's segment (STA/LTA mode).
	RunSingle(sid string, seg seismic.TraceSegment) (Result, error)
	// RunStation processes an aligned multi-channel window (picker mode).
	RunStation(key seismic.StationKey, window buffer.AlignedWindow) (Result, error)
}

// StaLtaBackend wraps pkg/signalproc as a single-channel Backend.
type StaLtaBackend struct {
	FMin, FMax         float64
	SampRate           float64
	StaSeconds         float64
	LtaSeconds         float64
	TriggerOn          float64
	TriggerOff         float64
	TaperFraction      float64
	BandpassOpts       signalproc.BandpassOptions
}

func (b *StaLtaBackend) InputSamples() int { return -1 }

func (b *StaLtaBackend) RunStation(seismic.StationKey, buffer.AlignedWindow) (Result, error) {
	return Result{}, nil
}

// RunSingle preprocesses seg (taper, demean, bandpass) and runs the
// classic STA/LTA trigger over it (§4.2-§4.3), converting every
// onset/offset window to a Pick with phase P (the legacy STA/LTA output
// carries no phase classification, so P is the conventional default).
func (b *StaLtaBackend) RunSingle(sid string, seg seismic.TraceSegment) (Result, error) {
	y := signalproc.TaperCosine(seg.Samples, b.TaperFraction)
	y = signalproc.Demean(y)
	y, err := signalproc.Bandpass(y, b.FMin, b.FMax, seg.SampRate, b.BandpassOpts)
	if err != nil {
		return Result{}, err
	}

	cft := signalproc.ClassicStaLta(y, seg.SampRate, b.StaSeconds, b.LtaSeconds)
	windows := signalproc.ScanTriggers(cft, b.TriggerOn, b.TriggerOff)

	parsed, ok := seismic.ParseSID(sid)
	if !ok {
		return Result{}, nil
	}

	picks := make([]seismic.Pick, 0, len(windows))
	for _, w := range windows {
		onset, _ := signalproc.WindowToSeconds(w, seg.Start, seg.SampRate)
		picks = append(picks, seismic.Pick{
			TS:    time.Unix(0, int64(onset*1e9)).UTC(),
			Phase: seismic.PhaseP,
			Net:   parsed.Net, Sta: parsed.Sta, Loc: parsed.Loc, Chan: parsed.Chan,
		})
	}
	return Result{Picks: picks}, nil
}

// PickerModel is the opaque learned-phase-picker collaborator contract
// from §6: it reports how many samples it needs and classifies a
// multi-channel window into picks/detections.
type PickerModel interface {
	InputSamples() int
	Classify(window buffer.AlignedWindow) ClassifyResult
}

// ClassifyResult is the picker collaborator's raw output shape, before
// the §6 acceptance filter (phase must be P/S, a time must be present).
type ClassifyResult struct {
	Picks      []ClassifiedPick
	Detections []EventWindow
}

type ClassifiedPick struct {
	Phase     string
	PeakTime  float64
	HasTime   bool
	PeakValue float64
	HasValue  bool
}

// PickerBackend adapts a PickerModel to Backend for picker-mode
// DetectScheduler runs.
type PickerBackend struct {
	Model PickerModel
}

func (b *PickerBackend) InputSamples() int { return b.Model.InputSamples() }

func (b *PickerBackend) RunSingle(string, seismic.TraceSegment) (Result, error) {
	return Result{}, nil
}

// RunStation classifies an aligned window and applies the §6
// acceptance filter: only phase in {P, S} with a present time are kept;
// score is the peak value if present, else absent.
func (b *PickerBackend) RunStation(key seismic.StationKey, window buffer.AlignedWindow) (Result, error) {
	raw := b.Model.Classify(window)

	picks := make([]seismic.Pick, 0, len(raw.Picks))
	for _, cp := range raw.Picks {
		if cp.Phase != string(seismic.PhaseP) && cp.Phase != string(seismic.PhaseS) {
			continue
		}
		if !cp.HasTime {
			continue
		}
		p := seismic.Pick{
			TS:    time.Unix(0, int64(cp.PeakTime*1e9)).UTC(),
			Phase: seismic.Phase(cp.Phase),
			Net:   key.Net, Sta: key.Sta, Loc: key.Loc,
		}
		if cp.HasValue {
			v := cp.PeakValue
			p.Score = &v
		}
		picks = append(picks, p)
	}

	dets := make([]EventWindow, len(raw.Detections))
	copy(dets, raw.Detections)

	return Result{Picks: picks, Detections: dets}, nil
}
