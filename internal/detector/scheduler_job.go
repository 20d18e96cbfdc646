package detector

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/seisgo/pipeline/internal/metrics"
	"github.com/seisgo/pipeline/pkg/buffer"
	"github.com/seisgo/pipeline/pkg/log"
)

// StatsJob periodically logs and exports the rolling buffer's memory
// footprint, the same s.NewJob(gocron.DurationJob(...), gocron.NewTask(...))
// idiom the locator uses for its poll cycle and the teacher's
// taskManager uses for its background workers.
type StatsJob struct {
	buf   *buffer.RollingBuffer
	sched gocron.Scheduler
}

// NewStatsJob wires a periodic buffer-memory report, running every
// interval.
func NewStatsJob(buf *buffer.RollingBuffer, interval time.Duration) (*StatsJob, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(
			func() {
				n := buf.Bytes()
				metrics.Detector.BufferBytes.Set(float64(n))
				log.Debugf("detector: rolling buffer holds %d bytes", n)
			}))
	if err != nil {
		return nil, err
	}

	return &StatsJob{buf: buf, sched: s}, nil
}

// Start begins the periodic report.
func (j *StatsJob) Start() { j.sched.Start() }

// Shutdown stops the periodic report.
func (j *StatsJob) Shutdown() error { return j.sched.Shutdown() }
