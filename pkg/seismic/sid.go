// Package seismic holds the shared channel-identification and wire
// types consumed by both the detector and the locator: SourceId/
// StationKey parsing (§3 of the pipeline specification) and the
// Pick/Station/Event/ArrivalResidual/OriginEstimate record shapes.
package seismic

import "strings"

// StationKey groups the channels belonging to one instrument.
type StationKey struct {
	Net string
	Sta string
	Loc string
}

// SourceID is the parsed form of a channel identifier: network,
// station, location, channel. Loc may be empty.
type SourceID struct {
	Net  string
	Sta  string
	Loc  string
	Chan string
}

// Station returns the StationKey grouping this channel with its
// siblings.
func (s SourceID) Station() StationKey {
	return StationKey{Net: s.Net, Sta: s.Sta, Loc: s.Loc}
}

// ParseSID parses a source id in either canonical text form:
//
//	NET.STA.LOC.CHA                 (dot separated)
//	NET_STA_LOC_CH_A_N              (underscore separated, channel
//	                                  band/instrument/component split
//	                                  into three segments and rejoined)
//
// An optional "FDSN:" prefix is stripped first. Returns false if the
// id cannot be parsed, or parses to an empty channel.
func ParseSID(sid string) (SourceID, bool) {
	if sid == "" {
		return SourceID{}, false
	}

	cleaned := strings.TrimPrefix(sid, "FDSN:")

	if strings.Contains(cleaned, "_") {
		parts := strings.Split(cleaned, "_")
		if len(parts) < 4 {
			return SourceID{}, false
		}
		net, sta, loc := parts[0], parts[1], parts[2]
		chan_ := strings.Join(parts[3:], "")
		if chan_ == "" {
			return SourceID{}, false
		}
		return SourceID{Net: net, Sta: sta, Loc: loc, Chan: chan_}, true
	}

	if strings.Contains(cleaned, ".") {
		parts := strings.Split(cleaned, ".")
		if len(parts) < 4 {
			return SourceID{}, false
		}
		if parts[3] == "" {
			return SourceID{}, false
		}
		return SourceID{Net: parts[0], Sta: parts[1], Loc: parts[2], Chan: parts[3]}, true
	}

	return SourceID{}, false
}
