package signalproc

import "github.com/montanaflynn/stats"

// TriggerWindow is one onset-to-offset run in sample indices, inclusive
// on both ends.
type TriggerWindow struct {
	StartIdx int
	EndIdx   int
}

// ClassicStaLta computes the classic short-term/long-term average ratio
// cft[i] = mean(y^2 over the trailing nsta samples) / mean(y^2 over the
// trailing nlta samples), per §4.3. Indices before a full long-term
// window has accumulated hold ratio 0.
func ClassicStaLta(y []float64, sampRate, staSeconds, ltaSeconds float64) []float64 {
	nsta := int(staSeconds*sampRate + 0.5)
	nlta := int(ltaSeconds*sampRate + 0.5)
	if nsta < 1 {
		nsta = 1
	}
	if nlta < 1 {
		nlta = 1
	}

	sq := make([]float64, len(y))
	for i, v := range y {
		sq[i] = v * v
	}

	cft := make([]float64, len(y))
	for i := range y {
		if i+1 < nlta {
			continue
		}
		sta := windowMean(sq, i-nsta+1, i)
		lta := windowMean(sq, i-nlta+1, i)
		if lta == 0 {
			continue
		}
		cft[i] = sta / lta
	}
	return cft
}

// windowMean returns the mean of sq[max(0,from)..to] inclusive.
func windowMean(sq []float64, from, to int) float64 {
	if from < 0 {
		from = 0
	}
	if to < from {
		return 0
	}
	m, err := stats.Mean(stats.Float64Data(sq[from : to+1]))
	if err != nil {
		return 0
	}
	return m
}

// ScanTriggers finds onset/offset windows in cft: a trigger opens when
// cft[i] >= triggerOn and closes when cft[i] <= triggerOff. A trigger
// still open at the end of the signal closes at the last index.
func ScanTriggers(cft []float64, triggerOn, triggerOff float64) []TriggerWindow {
	var windows []TriggerWindow
	triggered := false
	start := 0

	for i, v := range cft {
		switch {
		case !triggered && v >= triggerOn:
			triggered = true
			start = i
		case triggered && v <= triggerOff:
			windows = append(windows, TriggerWindow{StartIdx: start, EndIdx: i})
			triggered = false
		}
	}
	if triggered {
		windows = append(windows, TriggerWindow{StartIdx: start, EndIdx: len(cft) - 1})
	}
	return windows
}

// WindowToSeconds converts a sample-index TriggerWindow to absolute
// epoch-second onset/offset times given the segment's start and sample
// rate.
func WindowToSeconds(w TriggerWindow, segmentStart, sampRate float64) (onset, offset float64) {
	return segmentStart + float64(w.StartIdx)/sampRate, segmentStart + float64(w.EndIdx)/sampRate
}
