// Package metrics exposes the pipeline's Prometheus counters and
// gauges, grounded on the promhttp/promauto registration style seen in
// the pack's tfd-sim example and the teacher's prometheus/client_golang
// dependency.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Detector holds the detector service's counters and gauges.
var Detector = struct {
	PicksEmitted      prometheus.Counter
	DetectionsEmitted prometheus.Counter
	TriggerRuns       prometheus.Counter
	BufferBytes       prometheus.Gauge
	SchedulerSkips    prometheus.Counter
}{
	PicksEmitted: promauto.NewCounter(prometheus.CounterOpts{
		Name: "seismic_detector_picks_emitted_total",
		Help: "Phase picks persisted after dedup.",
	}),
	DetectionsEmitted: promauto.NewCounter(prometheus.CounterOpts{
		Name: "seismic_detector_detections_emitted_total",
		Help: "Event-window detections persisted.",
	}),
	TriggerRuns: promauto.NewCounter(prometheus.CounterOpts{
		Name: "seismic_detector_trigger_runs_total",
		Help: "Number of times a trigger backend (STA/LTA or picker) ran.",
	}),
	BufferBytes: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seismic_detector_buffer_bytes",
		Help: "Approximate bytes held across all rolling channel buffers.",
	}),
	SchedulerSkips: promauto.NewCounter(prometheus.CounterOpts{
		Name: "seismic_detector_scheduler_skips_total",
		Help: "Buffer-ready segments skipped because the detector cooldown for their key had not elapsed.",
	}),
}

// Locator holds the locator service's counters and gauges.
var Locator = struct {
	PicksFetched      prometheus.Counter
	EventsAssociated  prometheus.Counter
	OriginsWritten    prometheus.Counter
	OriginsDiscarded  prometheus.Counter
	SolverIterations  prometheus.Histogram
	CycleDuration     prometheus.Histogram
}{
	PicksFetched: promauto.NewCounter(prometheus.CounterOpts{
		Name: "seismic_locator_picks_fetched_total",
		Help: "Phase picks read from the store per poll cycle.",
	}),
	EventsAssociated: promauto.NewCounter(prometheus.CounterOpts{
		Name: "seismic_locator_events_associated_total",
		Help: "Candidate events produced by the associator.",
	}),
	OriginsWritten: promauto.NewCounter(prometheus.CounterOpts{
		Name: "seismic_locator_origins_written_total",
		Help: "Origins upserted after passing the RMS residual gate.",
	}),
	OriginsDiscarded: promauto.NewCounter(prometheus.CounterOpts{
		Name: "seismic_locator_origins_discarded_total",
		Help: "Candidate origins discarded for high RMS residual, solver non-convergence, or a failed upsert.",
	}),
	SolverIterations: promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "seismic_locator_solver_iterations",
		Help:    "Gauss-Newton iterations used per origin solve.",
		Buckets: prometheus.LinearBuckets(1, 2, 16),
	}),
	CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "seismic_locator_cycle_duration_seconds",
		Help:    "Wall-clock duration of a full poll cycle.",
		Buckets: prometheus.DefBuckets,
	}),
}
