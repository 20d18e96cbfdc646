package locator

import (
	"time"

	"github.com/google/uuid"

	"github.com/seisgo/pipeline/internal/metrics"
	"github.com/seisgo/pipeline/internal/store"
	"github.com/seisgo/pipeline/pkg/associator"
	"github.com/seisgo/pipeline/pkg/log"
	"github.com/seisgo/pipeline/pkg/seismic"
	"github.com/seisgo/pipeline/pkg/solver"
)

// Cycle runs one fetch -> associate -> solve -> persist pass (§4.7,
// §4.9, §4.10). The station map is cached across cycles and only
// re-fetched when a pick references a StationKey the cache doesn't
// have, so newly-registered instruments (an externally-maintained
// table per §6) are still picked up without a service restart — a
// supplemented feature absent from the distilled spec but present in
// the original locator's main loop, which carries `stations` as loop
// state and only re-queries it on a cache miss.
type Cycle struct {
	repo     *store.Repository
	settings Settings

	stations map[seismic.StationKey]seismic.Station
}

// NewCycle builds a Cycle over repo using settings for its associator
// and solver parameters.
func NewCycle(repo *store.Repository, settings Settings) *Cycle {
	return &Cycle{repo: repo, settings: settings}
}

// Run executes one poll cycle, returning the number of origins
// written. Errors fetching picks or stations abort the cycle; failures
// within a single event (solver divergence, high RMS, persistence
// error) are logged and the cycle continues to the next event (§7).
func (c *Cycle) Run() (int, error) {
	cycleID := uuid.NewString()
	cycleStart := time.Now()
	defer func() { metrics.Locator.CycleDuration.Observe(time.Since(cycleStart).Seconds()) }()

	since := time.Now().Add(-time.Duration(c.settings.LookbackSeconds) * time.Second)

	picks, err := c.repo.RecentPhasePicks(since, c.settings.MinPickScore)
	if err != nil {
		return 0, err
	}
	metrics.Locator.PicksFetched.Add(float64(len(picks)))
	if len(picks) == 0 {
		log.Debugf("%s: no picks in lookback window", log.Tag("locator", cycleID))
		return 0, nil
	}

	if err := c.ensureStations(picks); err != nil {
		return 0, err
	}

	events := associator.Associate(picks, associator.Options{
		WindowSeconds: c.settings.AssociationWindowSeconds,
		MinStations:   c.settings.MinStations,
		MinPhases:     c.settings.MinPhases,
		MinScore:      c.settings.MinPickScore,
	})
	metrics.Locator.EventsAssociated.Add(float64(len(events)))
	log.Infof("%s: %d picks associated into %d candidate events", log.Tag("locator", cycleID), len(picks), len(events))

	written := 0
	for _, ev := range events {
		written += c.solveAndPersist(cycleID, ev, c.stations)
	}
	return written, nil
}

// ensureStations refreshes the cached station map iff it is unset or a
// pick references a StationKey the cache doesn't have, matching the
// original locator's cache-miss-only refresh.
func (c *Cycle) ensureStations(picks []seismic.Pick) error {
	if c.stations != nil {
		stale := false
		for _, p := range picks {
			if _, ok := c.stations[p.Station()]; !ok {
				stale = true
				break
			}
		}
		if !stale {
			return nil
		}
	}

	stations, err := c.repo.Stations()
	if err != nil {
		return err
	}
	c.stations = stations
	return nil
}

func (c *Cycle) solveAndPersist(cycleID string, ev seismic.Event, stations map[seismic.StationKey]seismic.Station) int {
	opts := solver.Options{
		VpKmS: c.settings.VpKmS, MinStations: c.settings.MinStations,
		MaxDepthKM: c.settings.MaxDepthKM, MaxIterations: c.settings.MaxIterations,
	}

	est, ok := solver.Estimate(ev, stations, opts)
	if !ok {
		log.Warnf("%s: no estimate for association_key=%s", log.Tag("locator", cycleID), ev.AssociationKey)
		metrics.Locator.OriginsDiscarded.Inc()
		return 0
	}
	metrics.Locator.SolverIterations.Observe(float64(est.Iterations))
	if est.RMSSeconds > c.settings.MaxResidualSeconds {
		log.Infof("%s: discarding high-RMS origin association_key=%s rms=%.3f",
			log.Tag("locator", cycleID), ev.AssociationKey, est.RMSSeconds)
		metrics.Locator.OriginsDiscarded.Inc()
		return 0
	}

	if err := c.repo.UpsertOrigin(est); err != nil {
		log.Errorf("%s: persisting origin association_key=%s failed: %v", log.Tag("locator", cycleID), ev.AssociationKey, err)
		metrics.Locator.OriginsDiscarded.Inc()
		return 0
	}
	metrics.Locator.OriginsWritten.Inc()

	log.Infof("%s: origin association_key=%s lat=%.5f lon=%.5f depth_km=%.2f rms=%.3f stations=%d",
		log.Tag("locator", cycleID), est.AssociationKey, est.Lat, est.Lon, est.DepthKM, est.RMSSeconds, est.UsedStations)
	return 1
}
