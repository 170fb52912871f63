// Package store persists parsed schedules in SQLite so a restart can serve
// the last good feed before the next download finishes.
package store

import (
	"context"
	"database/sql"
	"embed"
	"math"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/TableMateio/home-finder/gtfs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLite is a single-snapshot schedule store.
type SQLite struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (creating if needed) the database at path and migrates it.
// Use ":memory:" for a throwaway store.
func Open(path string, log *zap.Logger) (*SQLite, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// one connection: writes serialize and :memory: stays a single database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("schedule store opened", zap.String("path", path))
	return &SQLite{db: db, log: log}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "failed to read migrations")
	}
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return errors.Wrap(err, "failed to create migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return errors.Wrap(err, "failed to create migrator")
	}
	// m.Close would close db as well, so it is left to the caller's Close
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "failed to run migrations")
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Empty reports whether no snapshot has been saved.
func (s *SQLite) Empty(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshot`).Scan(&n); err != nil {
		return false, errors.Wrap(err, "failed to count snapshots")
	}
	return n == 0, nil
}

// Save replaces the stored snapshot with ds in one transaction.
func (s *SQLite) Save(ctx context.Context, ds *gtfs.Dataset) error {
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"snapshot", "stops", "routes", "trips", "stop_times"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return errors.Wrapf(err, "failed to clear %s", table)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO stops (seq, stop_id, stop_name, stop_lat, stop_lon, stop_code) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare stops insert")
	}
	for i, st := range ds.Stops() {
		if _, err := stmt.ExecContext(ctx, i, st.ID, st.Name, nullFloat(st.Lat), nullFloat(st.Lon), st.Code); err != nil {
			return errors.Wrapf(err, "failed to insert stop %s", st.ID)
		}
	}
	_ = stmt.Close()

	stmt, err = tx.PrepareContext(ctx, `INSERT INTO routes (route_id, route_short_name, route_long_name, route_type) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare routes insert")
	}
	for _, r := range ds.Routes() {
		if _, err := stmt.ExecContext(ctx, r.ID, r.ShortName, r.LongName, r.Type); err != nil {
			return errors.Wrapf(err, "failed to insert route %s", r.ID)
		}
	}
	_ = stmt.Close()

	stmt, err = tx.PrepareContext(ctx, `INSERT INTO trips (trip_id, route_id, service_id, trip_headsign, direction_id) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare trips insert")
	}
	for _, t := range ds.Trips() {
		if _, err := stmt.ExecContext(ctx, t.ID, t.RouteID, t.ServiceID, t.Headsign, t.DirectionID); err != nil {
			return errors.Wrapf(err, "failed to insert trip %s", t.ID)
		}
	}
	_ = stmt.Close()

	stmt, err = tx.PrepareContext(ctx, `INSERT INTO stop_times (seq, trip_id, arrival_time, departure_time, stop_id, stop_sequence) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare stop_times insert")
	}
	for i, st := range ds.StopTimes() {
		if _, err := stmt.ExecContext(ctx, i, st.TripID, st.ArrivalTime, st.DepartureTime, st.StopID, st.StopSequence); err != nil {
			return errors.Wrapf(err, "failed to insert stop time %d", i)
		}
	}
	_ = stmt.Close()

	if _, err := tx.ExecContext(ctx, `INSERT INTO snapshot (id, loaded_at, saved_at) VALUES (1, ?, ?)`,
		ds.Stats().LoadedAt.UTC().Format(time.RFC3339Nano), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return errors.Wrap(err, "failed to record snapshot")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit snapshot")
	}

	st := ds.Stats()
	s.log.Info("schedule snapshot saved",
		zap.Int("stops", st.Stops),
		zap.Int("stop_times", st.StopTimes),
		zap.Duration("took", time.Since(start)))
	return nil
}

// Load returns the stored snapshot. ok is false when none exists.
func (s *SQLite) Load(ctx context.Context) (ds *gtfs.Dataset, ok bool, err error) {
	var loadedAt string
	err = s.db.QueryRowContext(ctx, `SELECT loaded_at FROM snapshot WHERE id = 1`).Scan(&loadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to read snapshot")
	}

	stops, err := s.loadStops(ctx)
	if err != nil {
		return nil, false, err
	}
	routes, err := s.loadRoutes(ctx)
	if err != nil {
		return nil, false, err
	}
	trips, err := s.loadTrips(ctx)
	if err != nil {
		return nil, false, err
	}
	stopTimes, err := s.loadStopTimes(ctx)
	if err != nil {
		return nil, false, err
	}

	ds = gtfs.NewDataset(stops, routes, trips, stopTimes)
	if t, perr := time.Parse(time.RFC3339Nano, loadedAt); perr == nil {
		ds = ds.WithLoadedAt(t)
	}
	return ds, true, nil
}

func (s *SQLite) loadStops(ctx context.Context) ([]gtfs.Stop, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stop_id, stop_name, stop_lat, stop_lon, stop_code FROM stops ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query stops")
	}
	defer rows.Close()

	var out []gtfs.Stop
	for rows.Next() {
		var st gtfs.Stop
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&st.ID, &st.Name, &lat, &lon, &st.Code); err != nil {
			return nil, errors.Wrap(err, "failed to scan stop")
		}
		st.Lat, st.Lon = floatOrNaN(lat), floatOrNaN(lon)
		out = append(out, st)
	}
	return out, errors.Wrap(rows.Err(), "failed to iterate stops")
}

func (s *SQLite) loadRoutes(ctx context.Context) ([]gtfs.Route, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT route_id, route_short_name, route_long_name, route_type FROM routes ORDER BY route_id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query routes")
	}
	defer rows.Close()

	var out []gtfs.Route
	for rows.Next() {
		var r gtfs.Route
		if err := rows.Scan(&r.ID, &r.ShortName, &r.LongName, &r.Type); err != nil {
			return nil, errors.Wrap(err, "failed to scan route")
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "failed to iterate routes")
}

func (s *SQLite) loadTrips(ctx context.Context) ([]gtfs.Trip, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT trip_id, route_id, service_id, trip_headsign, direction_id FROM trips ORDER BY trip_id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query trips")
	}
	defer rows.Close()

	var out []gtfs.Trip
	for rows.Next() {
		var t gtfs.Trip
		if err := rows.Scan(&t.ID, &t.RouteID, &t.ServiceID, &t.Headsign, &t.DirectionID); err != nil {
			return nil, errors.Wrap(err, "failed to scan trip")
		}
		out = append(out, t)
	}
	return out, errors.Wrap(rows.Err(), "failed to iterate trips")
}

func (s *SQLite) loadStopTimes(ctx context.Context) ([]gtfs.StopTime, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT trip_id, arrival_time, departure_time, stop_id, stop_sequence FROM stop_times ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query stop times")
	}
	defer rows.Close()

	var out []gtfs.StopTime
	for rows.Next() {
		var st gtfs.StopTime
		if err := rows.Scan(&st.TripID, &st.ArrivalTime, &st.DepartureTime, &st.StopID, &st.StopSequence); err != nil {
			return nil, errors.Wrap(err, "failed to scan stop time")
		}
		out = append(out, st)
	}
	return out, errors.Wrap(rows.Err(), "failed to iterate stop times")
}

// NaN coordinates are stored as NULL
func nullFloat(f float64) sql.NullFloat64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func floatOrNaN(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}
