package detector

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/seisgo/pipeline/internal/metrics"
	"github.com/seisgo/pipeline/internal/store"
	"github.com/seisgo/pipeline/pkg/buffer"
	"github.com/seisgo/pipeline/pkg/log"
	"github.com/seisgo/pipeline/pkg/nats"
	"github.com/seisgo/pipeline/pkg/signalproc"
)

// Service is the detector's bus consumer: one cooperative consumer loop
// (§5) translating bus deliveries into Scheduler runs and persisting
// whatever survives. Handlers run to completion synchronously, one
// message at a time; the NATS transport's own MaxAckPending already
// bounds unacked deliveries at the subscription level (pkg/nats). The
// rate.Limiter is a second, softer backpressure valve on sustained
// decode+detect throughput — the knob an implementation that shards by
// SourceId (§5's sharding note) would tune per worker to keep the
// prefetch cap meaningful once more than one goroutine drains the
// subscription.
type Service struct {
	decoder   Decoder
	scheduler *Scheduler
	repo      *store.Repository
	limiter   *rate.Limiter
}

// NewService wires a decoder, scheduler and repository into a bus
// handler. prefetch bounds the sustained rate of handler invocations
// (burst = prefetch, refill = prefetch/s).
func NewService(decoder Decoder, scheduler *Scheduler, repo *store.Repository, prefetch int) *Service {
	if prefetch <= 0 {
		prefetch = 50
	}
	return &Service{
		decoder: decoder, scheduler: scheduler, repo: repo,
		limiter: rate.NewLimiter(rate.Limit(prefetch), prefetch),
	}
}

// Handle is the pkg/nats.Handler: decode, schedule, dedup, persist.
// Decode failures drop the message without requeue (§7's poison-message
// policy); all other failures are logged and the message is still
// acked, since DB/scheduling failures are not the sender's fault.
func (s *Service) Handle(routingKey string, body []byte) nats.Outcome {
	runID := uuid.NewString()

	if err := s.limiter.Wait(context.Background()); err != nil {
		log.Errorf("%s: prefetch wait failed: %v", log.Tag("detector", runID), err)
		return nats.Ack
	}

	segments, err := s.decoder.Decode(body)
	if err != nil {
		log.Warnf("%s: decode failed for routing key %s: %v", log.Tag("detector", runID), routingKey, err)
		return nats.Drop
	}

	for _, seg := range segments {
		outcome, err := s.scheduler.OnSegment(seg.SourceID, seg.StartSeconds, seg.SampRate, seg.Samples)
		if err != nil {
			log.Errorf("%s: scheduler run failed for %s: %v", log.Tag("detector", runID), seg.SourceID, err)
			continue
		}
		if !outcome.Ran {
			continue
		}
		s.persist(runID, outcome)
	}

	return nats.Ack
}

func (s *Service) persist(runID string, outcome Outcome) {
	if len(outcome.Picks) == 0 && len(outcome.Detections) == 0 {
		return
	}

	if outcome.Mode == ModePicker {
		dets := make([]store.EventDetection, 0, len(outcome.Detections))
		for i, d := range outcome.Detections {
			if i >= len(outcome.Picks) {
				break
			}
			p := outcome.Picks[i]
			dets = append(dets, store.EventDetection{
				TSOn:  time.Unix(0, int64(d.StartSeconds*1e9)).UTC(),
				TSOff: time.Unix(0, int64(d.EndSeconds*1e9)).UTC(),
				Net:   p.Net, Sta: p.Sta, Loc: p.Loc, Chan: p.Chan,
			})
		}
		if err := s.repo.InsertEventDetections(dets); err != nil {
			log.Errorf("%s: persisting event_detections failed: %v", log.Tag("detector", runID), err)
		} else {
			metrics.Detector.DetectionsEmitted.Add(float64(len(dets)))
		}
		if err := s.repo.InsertPhasePicks(outcome.Picks); err != nil {
			log.Errorf("%s: persisting phase_picks failed: %v", log.Tag("detector", runID), err)
		} else {
			metrics.Detector.PicksEmitted.Add(float64(len(outcome.Picks)))
		}
		return
	}

	legacy := make([]store.LegacyPick, 0, len(outcome.Picks))
	for _, p := range outcome.Picks {
		legacy = append(legacy, store.LegacyPick{
			TSOn: p.TS, TSOff: p.TS,
			Net: p.Net, Sta: p.Sta, Loc: p.Loc, Chan: p.Chan,
		})
	}
	if err := s.repo.InsertLegacyPicks(legacy); err != nil {
		log.Errorf("%s: persisting legacy picks failed: %v", log.Tag("detector", runID), err)
	} else {
		metrics.Detector.PicksEmitted.Add(float64(len(legacy)))
	}
}

// NewBuffer is a thin constructor kept here so callers need only import
// the detector package to assemble the consumer pipeline.
func NewBuffer(maxSeconds float64) *buffer.RollingBuffer { return buffer.New(maxSeconds) }

// NewStaLtaBackend builds a StaLtaBackend from Settings.
func NewStaLtaBackend(s Settings) *StaLtaBackend {
	return &StaLtaBackend{
		FMin: s.FMin, FMax: s.FMax,
		StaSeconds: s.StaSeconds, LtaSeconds: s.LtaSeconds,
		TriggerOn: s.TriggerOn, TriggerOff: s.TriggerOff,
		TaperFraction: s.TaperFraction,
		BandpassOpts:  signalproc.DefaultBandpassOptions(),
	}
}
