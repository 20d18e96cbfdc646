// Package buffer implements the per-channel rolling trace buffer (§4.1)
// and the multi-channel window alignment used to feed a phase picker
// (§4.4). It is grounded on the teacher's in-memory caching idiom
// (pkg/lrucache's map-of-entries-with-eviction shape), generalized from
// an LRU-by-count policy to a bound-by-duration policy per SourceID.
package buffer

import (
	"fmt"
	"math"
	"sync"

	"github.com/seisgo/pipeline/pkg/seismic"
)

// ErrInvalidSampleRate is returned by AddSegment when samprate <= 0.
type ErrInvalidSampleRate struct {
	SampRate float64
}

func (e ErrInvalidSampleRate) Error() string {
	return fmt.Sprintf("buffer: invalid sample rate %g (must be > 0)", e.SampRate)
}

// RollingBuffer maintains a bounded-duration sample history per
// SourceID. Appends are append-only; the newest sample is always
// preserved, per §4.1's trim policy.
type RollingBuffer struct {
	maxSeconds float64

	mu   sync.RWMutex
	segs map[string]*seismic.TraceSegment
}

// New returns a RollingBuffer that keeps at most maxSeconds (plus one
// sample period of slack) of history per SourceID.
func New(maxSeconds float64) *RollingBuffer {
	return &RollingBuffer{
		maxSeconds: maxSeconds,
		segs:       make(map[string]*seismic.TraceSegment),
	}
}

// AddSegment appends samples for sid, starting at epoch-seconds start,
// sampled at samprate Hz. If this is the first segment for sid it is
// created outright; otherwise samples are concatenated to the existing
// tail — concatenation is treated as physically contiguous, no gap
// detection is performed (see §9).
func (b *RollingBuffer) AddSegment(sid string, start, samprate float64, samples []float64) error {
	if samprate <= 0 {
		return ErrInvalidSampleRate{SampRate: samprate}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	seg, ok := b.segs[sid]
	if !ok {
		n := len(samples)
		end := start
		if n > 0 {
			end = start + float64(n-1)/samprate
		}
		cp := make([]float64, n)
		copy(cp, samples)
		seg = &seismic.TraceSegment{Start: start, End: end, SampRate: samprate, Samples: cp}
		b.segs[sid] = seg
	} else {
		seg.Samples = append(seg.Samples, samples...)
		n := len(seg.Samples)
		if n > 0 {
			seg.End = seg.Start + float64(n-1)/seg.SampRate
		} else {
			seg.End = start
		}
	}

	b.trim(seg)
	return nil
}

// trim drops leading samples so that End-Start <= maxSeconds, never
// reducing the segment below one sample.
func (b *RollingBuffer) trim(seg *seismic.TraceSegment) {
	cutoff := seg.End - b.maxSeconds
	if seg.Start >= cutoff {
		return
	}

	trim := int(math.Ceil((cutoff - seg.Start) * seg.SampRate))
	if trim <= 0 {
		return
	}

	maxTrim := len(seg.Samples) - 1
	if maxTrim < 0 {
		maxTrim = 0
	}
	if trim > maxTrim {
		trim = maxTrim
	}
	if trim == 0 {
		return
	}

	seg.Samples = seg.Samples[trim:]
	seg.Start += float64(trim) / seg.SampRate
}

// Get returns a copy of the current segment for sid, or false if none
// exists yet.
func (b *RollingBuffer) Get(sid string) (seismic.TraceSegment, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seg, ok := b.segs[sid]
	if !ok {
		return seismic.TraceSegment{}, false
	}
	cp := make([]float64, len(seg.Samples))
	copy(cp, seg.Samples)
	return seismic.TraceSegment{Start: seg.Start, End: seg.End, SampRate: seg.SampRate, Samples: cp}, true
}

// SegmentLength returns the number of buffered samples for sid.
func (b *RollingBuffer) SegmentLength(sid string) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	seg, ok := b.segs[sid]
	if !ok {
		return 0, false
	}
	return len(seg.Samples), true
}

// SampleRate returns the sample rate buffered for sid.
func (b *RollingBuffer) SampleRate(sid string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	seg, ok := b.segs[sid]
	if !ok {
		return 0, false
	}
	return seg.SampRate, true
}

// StationBuffers returns every (sid, segment) pair whose SourceID
// parses to the given StationKey, used to assemble multi-channel
// picker windows.
func (b *RollingBuffer) StationBuffers(key seismic.StationKey) []StationBufferEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []StationBufferEntry
	for sid, seg := range b.segs {
		parsed, ok := seismic.ParseSID(sid)
		if !ok {
			continue
		}
		if parsed.Station() != key {
			continue
		}
		cp := make([]float64, len(seg.Samples))
		copy(cp, seg.Samples)
		out = append(out, StationBufferEntry{
			SID: sid,
			Segment: seismic.TraceSegment{
				Start: seg.Start, End: seg.End, SampRate: seg.SampRate, Samples: cp,
			},
		})
	}
	return out
}

// Bytes returns the approximate memory footprint of all buffered
// samples (8 bytes each), used to drive the detector's buffer-memory
// gauge.
func (b *RollingBuffer) Bytes() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var n int64
	for _, seg := range b.segs {
		n += int64(len(seg.Samples)) * 8
	}
	return n
}

// StationBufferEntry pairs a SourceID with its buffered segment.
type StationBufferEntry struct {
	SID     string
	Segment seismic.TraceSegment
}
