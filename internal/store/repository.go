package store

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/seisgo/pipeline/pkg/log"
	"github.com/seisgo/pipeline/pkg/seismic"
)

// Repository wraps the shared DB handle with the pipeline's read/write
// operations (§4.10, §6). Both services hold their own Repository over
// their own DB connection — never shared across processes.
type Repository struct {
	DB        *sqlx.DB
	stmtCache sq.BaseRunner
}

// NewRepository builds a Repository over an already-connected DB.
func NewRepository(db *DB) *Repository {
	return &Repository{DB: db.Handle, stmtCache: db.Handle}
}

const insertPhasePick = `
INSERT INTO phase_picks (ts, net, sta, loc, chan, phase, score)
VALUES (:ts, :net, :sta, :loc, :chan, :phase, :score)
ON CONFLICT (ts, net, sta, loc, chan, phase) DO NOTHING`

// phasePickRow is the NamedExec parameter shape for insertPhasePick.
type phasePickRow struct {
	TS    time.Time `db:"ts"`
	Net   string    `db:"net"`
	Sta   string    `db:"sta"`
	Loc   string    `db:"loc"`
	Chan  string    `db:"chan"`
	Phase string    `db:"phase"`
	Score *float64  `db:"score"`
}

// InsertPhasePicks persists picker-mode output idempotently. Failures
// are logged and returned; the caller continues processing on error
// per §7 (picks lost on DB error are not retried).
func (r *Repository) InsertPhasePicks(picks []seismic.Pick) error {
	for _, p := range picks {
		row := phasePickRow{
			TS: p.TS, Net: p.Net, Sta: p.Sta, Loc: p.Loc, Chan: p.Chan,
			Phase: string(p.Phase), Score: p.Score,
		}
		if _, err := r.DB.NamedExec(insertPhasePick, row); err != nil {
			log.Errorf("store: insert phase_pick failed: %v", err)
			return fmt.Errorf("store: insert phase_pick: %w", err)
		}
	}
	return nil
}

// EventDetection is one picker-mode event window, written to
// event_detections.
type EventDetection struct {
	TSOn, TSOff                 time.Time
	Net, Sta, Loc, Chan         string
}

const insertEventDetection = `
INSERT INTO event_detections (ts_on, ts_off, net, sta, loc, chan)
VALUES (:ts_on, :ts_off, :net, :sta, :loc, :chan)
ON CONFLICT (ts_on, net, sta, loc, chan) DO NOTHING`

// InsertEventDetections persists picker-mode event windows idempotently.
func (r *Repository) InsertEventDetections(dets []EventDetection) error {
	for _, d := range dets {
		if _, err := r.DB.NamedExec(insertEventDetection, d); err != nil {
			log.Errorf("store: insert event_detection failed: %v", err)
			return fmt.Errorf("store: insert event_detection: %w", err)
		}
	}
	return nil
}

// LegacyPick is one STA/LTA-mode onset/offset window, written to the
// legacy `picks` table.
type LegacyPick struct {
	TSOn, TSOff         time.Time
	Net, Sta, Loc, Chan string
}

const insertLegacyPick = `
INSERT INTO picks (ts_on, ts_off, net, sta, loc, chan)
VALUES (:ts_on, :ts_off, :net, :sta, :loc, :chan)
ON CONFLICT (ts_on, net, sta, loc, chan) DO NOTHING`

// InsertLegacyPicks persists STA/LTA-mode output idempotently.
func (r *Repository) InsertLegacyPicks(picks []LegacyPick) error {
	for _, p := range picks {
		if _, err := r.DB.NamedExec(insertLegacyPick, p); err != nil {
			log.Errorf("store: insert legacy pick failed: %v", err)
			return fmt.Errorf("store: insert legacy pick: %w", err)
		}
	}
	return nil
}

// Stations returns every row of the externally-maintained stations
// table, keyed by StationKey.
func (r *Repository) Stations() (map[seismic.StationKey]seismic.Station, error) {
	rows, err := sq.Select("net", "sta", "loc", "lat", "lon", "elev_m").
		From("stations").
		RunWith(r.stmtCache).Query()
	if err != nil {
		return nil, fmt.Errorf("store: query stations: %w", err)
	}
	defer rows.Close()

	out := make(map[seismic.StationKey]seismic.Station)
	for rows.Next() {
		var s seismic.Station
		if err := rows.Scan(&s.Key.Net, &s.Key.Sta, &s.Key.Loc, &s.Lat, &s.Lon, &s.ElevM); err != nil {
			return nil, fmt.Errorf("store: scan station: %w", err)
		}
		out[s.Key] = s
	}
	return out, rows.Err()
}

// RecentPhasePicks returns phase='P' picks (per §9's DB-side filter)
// newer than since, for the locator's association cycle.
func (r *Repository) RecentPhasePicks(since time.Time, minScore float64) ([]seismic.Pick, error) {
	rows, err := sq.Select("id", "ts", "net", "sta", "loc", "chan", "phase", "score").
		From("phase_picks").
		Where(sq.Eq{"phase": "P"}).
		Where(sq.Gt{"ts": since}).
		Where(sq.Or{sq.Expr("score IS NULL"), sq.GtOrEq{"score": minScore}}).
		OrderBy("ts ASC").
		RunWith(r.stmtCache).Query()
	if err != nil {
		return nil, fmt.Errorf("store: query recent picks: %w", err)
	}
	defer rows.Close()

	var out []seismic.Pick
	for rows.Next() {
		var p seismic.Pick
		var phase string
		if err := rows.Scan(&p.ID, &p.TS, &p.Net, &p.Sta, &p.Loc, &p.Chan, &phase, &p.Score); err != nil {
			return nil, fmt.Errorf("store: scan pick: %w", err)
		}
		p.Phase = seismic.Phase(phase)
		out = append(out, p)
	}
	return out, rows.Err()
}

const upsertOrigin = `
INSERT INTO origins (association_key, status, origin_ts, lat, lon, depth_km, rms_seconds, azimuthal_gap_deg, secondary_gap_deg, used_stations, iterations, updated_at)
VALUES (:association_key, 'preliminary', :origin_ts, :lat, :lon, :depth_km, :rms_seconds, :azimuthal_gap_deg, :secondary_gap_deg, :used_stations, :iterations, now())
ON CONFLICT (association_key) DO UPDATE SET
  origin_ts = EXCLUDED.origin_ts,
  lat = EXCLUDED.lat,
  lon = EXCLUDED.lon,
  depth_km = EXCLUDED.depth_km,
  rms_seconds = EXCLUDED.rms_seconds,
  azimuthal_gap_deg = EXCLUDED.azimuthal_gap_deg,
  secondary_gap_deg = EXCLUDED.secondary_gap_deg,
  used_stations = EXCLUDED.used_stations,
  iterations = EXCLUDED.iterations,
  updated_at = now()
RETURNING id`

type originRow struct {
	AssociationKey  string    `db:"association_key"`
	OriginTS        time.Time `db:"origin_ts"`
	Lat             float64   `db:"lat"`
	Lon             float64   `db:"lon"`
	DepthKM         float64   `db:"depth_km"`
	RMSSeconds      float64   `db:"rms_seconds"`
	AzimuthalGapDeg float64   `db:"azimuthal_gap_deg"`
	SecondaryGapDeg float64   `db:"secondary_gap_deg"`
	UsedStations    int       `db:"used_stations"`
	Iterations      int       `db:"iterations"`
}

// UpsertOrigin writes or updates the origin row for est.AssociationKey,
// then atomically replaces its arrival set (DELETE-then-INSERT) per
// §4.10, all inside one transaction.
func (r *Repository) UpsertOrigin(est seismic.OriginEstimate) error {
	tx, err := r.DB.Beginx()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	row := originRow{
		AssociationKey: est.AssociationKey, OriginTS: est.OriginTS,
		Lat: est.Lat, Lon: est.Lon, DepthKM: est.DepthKM,
		RMSSeconds: est.RMSSeconds, AzimuthalGapDeg: est.AzimuthalGapDeg,
		SecondaryGapDeg: est.SecondaryGapDeg, UsedStations: est.UsedStations,
		Iterations: est.Iterations,
	}

	stmt, args, err := sqlx.Named(upsertOrigin, row)
	if err != nil {
		return fmt.Errorf("store: bind origin upsert: %w", err)
	}
	stmt = tx.Rebind(stmt)

	var originID int64
	if err := tx.QueryRow(stmt, args...).Scan(&originID); err != nil {
		return fmt.Errorf("store: upsert origin: %w", err)
	}

	if err := replaceOriginArrivals(tx, originID, est.Arrivals); err != nil {
		return err
	}

	return tx.Commit()
}

// replaceOriginArrivals atomically replaces origin_id's arrival set
// with arrivals: a DELETE followed by one INSERT per row, per
// locator/db.py's upsert helpers (§4.13). Must run inside tx so a
// partial replace is never visible.
func replaceOriginArrivals(tx *sqlx.Tx, originID int64, arrivals []seismic.ArrivalResidual) error {
	if _, err := tx.Exec(`DELETE FROM origin_arrivals WHERE origin_id = $1`, originID); err != nil {
		return fmt.Errorf("store: clear arrivals: %w", err)
	}

	for _, a := range arrivals {
		_, err := tx.Exec(`
			INSERT INTO origin_arrivals
				(origin_id, pick_id, net, sta, loc, chan, phase, distance_km, azimuth_deg, predicted_tt_seconds, residual_seconds)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			originID, a.Pick.ID, a.Pick.Net, a.Pick.Sta, a.Pick.Loc, a.Pick.Chan, string(a.Pick.Phase),
			a.DistanceKM, a.AzimuthDeg, a.PredictedTTSeconds, a.ResidualSeconds,
		)
		if err != nil {
			return fmt.Errorf("store: insert arrival: %w", err)
		}
	}
	return nil
}
