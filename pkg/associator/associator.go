// Package associator implements the locator's time-window pick
// association sweep (§4.7), grouping raw picks into candidate Events
// with at most one pick per station and a stable, order-independent
// association key.
package associator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/seisgo/pipeline/pkg/seismic"
)

// Options configures Associate.
type Options struct {
	WindowSeconds float64
	MinStations   int
	MinPhases     int
	MinScore      float64
}

// Associate sweeps picks (any mix of stations/phases) into Events per
// §4.7: drop low-score picks, sort by time, then for each unused seed
// pick scan forward within WindowSeconds and keep the first pick per
// station. A candidate window is emitted as an Event only if it covers
// at least MinStations distinct stations and MinPhases total picks.
func Associate(picks []seismic.Pick, opts Options) []seismic.Event {
	var usable []seismic.Pick
	for _, p := range picks {
		if p.Score != nil && *p.Score < opts.MinScore {
			continue
		}
		usable = append(usable, p)
	}
	sort.Slice(usable, func(i, j int) bool { return usable[i].TS.Before(usable[j].TS) })

	used := make(map[int64]bool, len(usable))
	var events []seismic.Event

	i := 0
	for i < len(usable) {
		if used[usable[i].ID] {
			i++
			continue
		}
		seed := usable[i]

		j := i
		firstSeen := make(map[seismic.StationKey]seismic.Pick)
		var order []seismic.StationKey
		for j < len(usable) {
			pk := usable[j]
			if pk.TS.Sub(seed.TS).Seconds() > opts.WindowSeconds {
				break
			}
			if !used[pk.ID] {
				key := pk.Station()
				if _, seen := firstSeen[key]; !seen {
					firstSeen[key] = pk
					order = append(order, key)
				}
			}
			j++
		}

		eventPicks := make([]seismic.Pick, 0, len(order))
		for _, key := range order {
			eventPicks = append(eventPicks, firstSeen[key])
		}
		sort.Slice(eventPicks, func(a, b int) bool { return eventPicks[a].TS.Before(eventPicks[b].TS) })

		if len(firstSeen) >= opts.MinStations && len(eventPicks) >= opts.MinPhases {
			for k := i; k < j; k++ {
				used[usable[k].ID] = true
			}
			events = append(events, seismic.Event{
				Picks:            eventPicks,
				EarliestPickTime: eventPicks[0].TS,
				AssociationKey:   associationKey(eventPicks),
			})
			i = j
		} else {
			i++
		}
	}

	return events
}

// associationKey is the SHA-256 hex digest of the ascending pick ids
// joined by "_", stable across re-processing the same picks regardless
// of input order.
func associationKey(picks []seismic.Pick) string {
	ids := make([]int64, len(picks))
	for i, p := range picks {
		ids[i] = p.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "_")))
	return hex.EncodeToString(sum[:])
}
