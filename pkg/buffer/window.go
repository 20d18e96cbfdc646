package buffer

import "math"

// ChannelWindow is the windowed trailing NSamples for one channel,
// ending at the station's CommonEnd.
type ChannelWindow struct {
	SID     string
	Samples []float64
}

// AlignedWindow is the result of AlignStationWindow: a fixed-length,
// common-end-aligned window across every channel of one station.
type AlignedWindow struct {
	CommonEnd float64
	Channels  []ChannelWindow
}

// AlignStationWindow implements §4.4: given the buffered segments for
// one station's channels and a fixed window length windowSamples, trims
// every channel's tail so all channels end at the earliest channel end
// (CommonEnd), then takes (or left-zero-pads) the trailing
// windowSamples. Returns ok=false ("not ready") if entries is empty or
// any channel has fewer than windowSamples raw buffered samples; a
// channel whose tail is shorter than windowSamples once aligned to
// CommonEnd is left-padded with zeros.
func AlignStationWindow(entries []StationBufferEntry, windowSamples int) (AlignedWindow, bool) {
	if len(entries) == 0 || windowSamples <= 0 {
		return AlignedWindow{}, false
	}

	commonEnd := entries[0].Segment.End
	for _, e := range entries[1:] {
		if e.Segment.End < commonEnd {
			commonEnd = e.Segment.End
		}
	}

	channels := make([]ChannelWindow, 0, len(entries))
	for _, e := range entries {
		seg := e.Segment

		// Readiness is gated on raw buffered length, matching the
		// DetectScheduler's picker-mode check (§4.6): a channel isn't
		// ready just because its common-end-aligned tail is short.
		if len(seg.Samples) < windowSamples {
			return AlignedWindow{}, false
		}

		offset := int(math.Round((seg.End - commonEnd) * seg.SampRate))
		if offset < 0 {
			offset = 0
		}
		trimmed := seg.Samples
		if offset > 0 {
			if offset >= len(trimmed) {
				trimmed = nil
			} else {
				trimmed = trimmed[:len(trimmed)-offset]
			}
		}

		windowed := make([]float64, windowSamples)
		if len(trimmed) >= windowSamples {
			copy(windowed, trimmed[len(trimmed)-windowSamples:])
		} else {
			// left-pad with zeros
			copy(windowed[windowSamples-len(trimmed):], trimmed)
		}
		channels = append(channels, ChannelWindow{SID: e.SID, Samples: windowed})
	}

	return AlignedWindow{CommonEnd: commonEnd, Channels: channels}, true
}
