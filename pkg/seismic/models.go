package seismic

import "time"

// TraceSegment is a contiguous run of samples for one SourceID held by
// a RollingBuffer. Invariant: End == Start + (len(Samples)-1)/SampRate
// when len(Samples) > 0, and End == Start when empty.
type TraceSegment struct {
	Start    float64
	End      float64
	SampRate float64
	Samples  []float64
}

// Phase is a detected arrival type. The pipeline only ever emits or
// consumes P and S.
type Phase string

const (
	PhaseP Phase = "P"
	PhaseS Phase = "S"
)

// Pick is a detected phase onset: the detector's database row, and the
// locator's association input.
type Pick struct {
	ID    int64
	TS    time.Time
	Phase Phase
	Net   string
	Sta   string
	Loc   string
	Chan  string
	Score *float64 // nil if the detector backend reported no confidence
}

// Station returns the StationKey this pick's channel belongs to.
func (p Pick) Station() StationKey {
	return StationKey{Net: p.Net, Sta: p.Sta, Loc: p.Loc}
}

// Station is an immutable station/instrument location record.
type Station struct {
	Key    StationKey
	Lat    float64
	Lon    float64
	ElevM  float64
}

// Event is the associator's output: a time-clustered group of picks
// with at most one pick per station.
type Event struct {
	Picks            []Pick
	EarliestPickTime time.Time
	AssociationKey   string
}

// ArrivalResidual is the locator's per-pick fit quality record.
type ArrivalResidual struct {
	Pick               Pick
	DistanceKM         float64
	AzimuthDeg         float64
	PredictedTTSeconds float64
	ResidualSeconds    float64
}

// OriginEstimate is the locator's hypocenter + origin-time solution for
// one Event, ready to upsert keyed by AssociationKey.
type OriginEstimate struct {
	AssociationKey        string
	OriginTS              time.Time
	Lat                   float64
	Lon                   float64
	DepthKM               float64
	RMSSeconds            float64
	AzimuthalGapDeg       float64
	SecondaryGapDeg       float64
	UsedStations          int
	Iterations            int
	Arrivals              []ArrivalResidual
}
