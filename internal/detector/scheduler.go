package detector

import (
	"sync"

	"github.com/seisgo/pipeline/internal/metrics"
	"github.com/seisgo/pipeline/pkg/buffer"
	"github.com/seisgo/pipeline/pkg/dedup"
	"github.com/seisgo/pipeline/pkg/seismic"
)

// Scheduler implements DetectScheduler (§4.6): per-key last_detect and
// prev_pick state, cooldown gating, and dispatch to the configured
// Backend. Per §9, this state is process-wide and must never be shared
// across processes; it holds its own mutex since the bus consumer may
// shard work across SourceIds concurrently (§5).
type Scheduler struct {
	buf     *buffer.RollingBuffer
	backend Backend
	mode    Mode

	bufferSeconds      float64
	detectEverySeconds float64
	pickFilterSeconds  float64

	mu         sync.Mutex
	lastDetect map[string]float64
	prevPick   map[string]float64
}

// NewScheduler builds a Scheduler over buf, dispatching ready windows to
// backend.
func NewScheduler(buf *buffer.RollingBuffer, backend Backend, mode Mode, bufferSeconds, detectEverySeconds, pickFilterSeconds float64) *Scheduler {
	return &Scheduler{
		buf: buf, backend: backend, mode: mode,
		bufferSeconds: bufferSeconds, detectEverySeconds: detectEverySeconds, pickFilterSeconds: pickFilterSeconds,
		lastDetect: make(map[string]float64),
		prevPick:   make(map[string]float64),
	}
}

// Outcome is what a single incoming segment produced, ready for
// persistence.
type Outcome struct {
	Mode       Mode
	Picks      []seismic.Pick
	Detections []EventWindow
	Ran        bool
}

// OnSegment implements the per-message DetectScheduler steps (§4.6):
// buffer the segment, check readiness and cooldown for this key, run
// the backend, then dedup and advance state.
func (s *Scheduler) OnSegment(sid string, start, sampRate float64, samples []float64) (Outcome, error) {
	if err := s.buf.AddSegment(sid, start, sampRate, samples); err != nil {
		return Outcome{}, err
	}
	metrics.Detector.BufferBytes.Set(float64(s.buf.Bytes()))

	switch s.mode {
	case ModePicker:
		return s.onSegmentPicker(sid)
	default:
		return s.onSegmentStaLta(sid)
	}
}

func (s *Scheduler) onSegmentStaLta(sid string) (Outcome, error) {
	seg, ok := s.buf.Get(sid)
	if !ok {
		return Outcome{}, nil
	}
	if seg.End-seg.Start < s.bufferSeconds {
		return Outcome{}, nil
	}

	key := sid
	end := seg.End
	if !s.dueFor(key, end) {
		metrics.Detector.SchedulerSkips.Inc()
		return Outcome{}, nil
	}

	res, err := s.backend.RunSingle(sid, seg)
	metrics.Detector.TriggerRuns.Inc()
	if err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	s.lastDetect[key] = end
	s.mu.Unlock()

	accepted := s.dedupPicks(key, res.Picks)
	return Outcome{Mode: ModeStaLta, Picks: accepted, Ran: true}, nil
}

func (s *Scheduler) onSegmentPicker(sid string) (Outcome, error) {
	parsed, ok := seismic.ParseSID(sid)
	if !ok {
		return Outcome{}, nil
	}
	stationKey := parsed.Station()

	entries := s.buf.StationBuffers(stationKey)
	n := s.backend.InputSamples()
	window, ready := buffer.AlignStationWindow(entries, n)
	if !ready {
		return Outcome{}, nil
	}

	key := stationKey.Net + "." + stationKey.Sta + "." + stationKey.Loc
	end := window.CommonEnd
	if !s.dueFor(key, end) {
		metrics.Detector.SchedulerSkips.Inc()
		return Outcome{}, nil
	}

	res, err := s.backend.RunStation(stationKey, window)
	metrics.Detector.TriggerRuns.Inc()
	if err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	s.lastDetect[key] = end
	s.mu.Unlock()

	accepted := s.dedupPicks(key, res.Picks)
	return Outcome{Mode: ModePicker, Picks: accepted, Detections: res.Detections, Ran: true}, nil
}

// dueFor implements the §4.6 cooldown gate: trigger iff last_detect is
// unset, enough time has elapsed, or the clock regressed.
func (s *Scheduler) dueFor(key string, end float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, seen := s.lastDetect[key]
	if !seen {
		return true
	}
	if end-last >= s.detectEverySeconds {
		return true
	}
	if end < last {
		return true
	}
	return false
}

func (s *Scheduler) dedupPicks(key string, picks []seismic.Pick) []seismic.Pick {
	if len(picks) == 0 {
		return nil
	}
	wrapped := make([]dedup.PickOnset, len(picks))
	for i, p := range picks {
		wrapped[i] = dedup.PickOnset{Pick: p}
	}

	s.mu.Lock()
	var lastPtr *float64
	if last, ok := s.prevPick[key]; ok {
		lastPtr = &last
	}
	s.mu.Unlock()

	accepted, newLast := dedup.Dedup(wrapped, lastPtr, s.pickFilterSeconds)

	s.mu.Lock()
	s.prevPick[key] = newLast
	s.mu.Unlock()

	out := make([]seismic.Pick, len(accepted))
	for i, p := range accepted {
		out[i] = p.Pick
	}
	return out
}
