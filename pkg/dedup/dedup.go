// Package dedup implements PickDedup (§4.5): suppressing picks that
// land within W seconds of the last accepted onset, per SourceId or
// StationKey running state owned by the caller (the detector's
// DetectScheduler).
package dedup

import (
	"sort"

	"github.com/seisgo/pipeline/pkg/seismic"
)

// Onseter is satisfied by anything with an onset time, so Dedup works
// for both STA/LTA (onset, offset) pairs and picker Picks.
type Onseter interface {
	OnsetSeconds() float64
}

// Dedup sorts picks ascending by onset, then accepts a pick only if
// lastTsOn is unset (nil) or the onset is more than window seconds past
// it. Returns the accepted subsequence (stable, ordering-independent of
// input order) and the new lastTsOn to carry forward. window <= 0
// accepts everything.
func Dedup[T Onseter](picks []T, lastTsOn *float64, window float64) ([]T, float64) {
	sorted := append([]T(nil), picks...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OnsetSeconds() < sorted[j].OnsetSeconds()
	})

	if window <= 0 {
		newLast := latest(sorted, lastTsOn)
		return sorted, newLast
	}

	var accepted []T
	last := lastTsOn
	for _, p := range sorted {
		onset := p.OnsetSeconds()
		if last == nil || onset-*last > window {
			accepted = append(accepted, p)
			v := onset
			last = &v
		}
	}
	if last == nil {
		return accepted, 0
	}
	return accepted, *last
}

func latest[T Onseter](sorted []T, lastTsOn *float64) float64 {
	max := 0.0
	has := false
	if lastTsOn != nil {
		max = *lastTsOn
		has = true
	}
	for _, p := range sorted {
		if !has || p.OnsetSeconds() > max {
			max = p.OnsetSeconds()
			has = true
		}
	}
	return max
}

// PickOnset adapts a seismic.Pick to Onseter using its timestamp.
type PickOnset struct {
	seismic.Pick
}

func (p PickOnset) OnsetSeconds() float64 {
	return float64(p.TS.UnixNano()) / 1e9
}

// TriggerOnset adapts a (onset, offset) STA/LTA pair to Onseter.
type TriggerOnset struct {
	Onset, Offset float64
}

func (t TriggerOnset) OnsetSeconds() float64 { return t.Onset }
