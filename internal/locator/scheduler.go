package locator

import (
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/seisgo/pipeline/pkg/log"
)

// Service drives Cycle on a fixed interval using gocron, mirroring the
// teacher's taskManager.Start/Shutdown scheduling idiom.
type Service struct {
	cycle *Cycle
	sched gocron.Scheduler
}

// NewServiceScheduler wires cycle into a gocron scheduler that runs it
// every pollSeconds. Call Start to begin, Shutdown to stop.
func NewServiceScheduler(cycle *Cycle, pollSeconds float64) (*Service, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	interval := time.Duration(pollSeconds * float64(time.Second))
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(
			func() {
				start := time.Now()
				log.Debugf("locator: poll cycle started at %s", start.Format(time.RFC3339))
				written, err := cycle.Run()
				if err != nil {
					log.Errorf("locator: poll cycle failed: %v", err)
					return
				}
				log.Infof("locator: poll cycle wrote %d origin(s), took %s", written, time.Since(start))
			}))
	if err != nil {
		return nil, err
	}

	return &Service{cycle: cycle, sched: s}, nil
}

// Start begins the periodic poll cycle. Non-blocking; gocron runs jobs
// on its own goroutines.
func (svc *Service) Start() { svc.sched.Start() }

// Shutdown stops the scheduler, waiting for any in-flight cycle to
// finish.
func (svc *Service) Shutdown() error { return svc.sched.Shutdown() }
