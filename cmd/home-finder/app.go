package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TableMateio/home-finder/commute"
	"github.com/TableMateio/home-finder/config"
	"github.com/TableMateio/home-finder/gtfs"
	"github.com/TableMateio/home-finder/gtfsrt"
	"github.com/TableMateio/home-finder/reporting"
	"github.com/TableMateio/home-finder/store"
)

// app wires the components described by one AppConfig
type app struct {
	cfg      config.AppConfig
	log      *zap.Logger
	schedule *gtfs.Schedule
	source   gtfs.Source
	snap     snapshotter
	poller   *gtfsrt.Poller
	planner  *commute.Planner
	reporter *reporting.Reporter
}

func newApp(cfg config.AppConfig, log *zap.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		log:      log,
		schedule: gtfs.NewSchedule(gtfs.WithLogger(log.Named("gtfs"))),
	}
	if cfg.GTFS.Source != "" {
		a.source = gtfs.SourceFor(cfg.GTFS.Source, &http.Client{Timeout: cfg.GTFS.Timeout()})
	}

	snap, err := newSnapshotter(cfg.Cache, log.Named("store"))
	if err != nil {
		return nil, err
	}
	a.snap = snap

	if cfg.GTFSRT.TripUpdatesURL != "" {
		a.poller = gtfsrt.NewPoller(gtfsrt.NewClient(cfg.GTFSRT.Timeout()),
			cfg.GTFSRT.TripUpdatesURL, cfg.GTFSRT.ReadInterval(), log.Named("gtfsrt"))
	}

	places := make(map[string]gtfs.Coordinate, len(cfg.Commute.Places))
	for _, p := range cfg.Commute.Places {
		places[p.Address] = gtfs.Coordinate{Lat: p.Lat, Lng: p.Lng}
	}
	a.planner = commute.NewPlanner(a.schedule, commute.NewStaticGeocoder(places), buildRouter(cfg.Commute), commute.Options{
		Candidates:    cfg.Commute.Candidates,
		FallbackDrive: cfg.Commute.FallbackDrive(),
		DefaultRide:   cfg.Commute.DefaultRide(),
		RideTimes:     cfg.Commute.RideTimes(),
		Logger:        log.Named("commute"),
	})

	a.reporter = reporting.New(reporting.Options{
		WebhookURL: cfg.Reporting.WebhookURL,
		MaxStored:  cfg.Reporting.MaxStored,
		Source:     cfg.Reporting.Source,
		Logger:     log.Named("reporting"),
	})
	return a, nil
}

func buildRouter(cfg config.CommuteConfig) commute.Router {
	var r commute.Router = commute.StraightLineRouter{SpeedMPH: cfg.AverageSpeedMPH}
	if cfg.Router == "osrm" {
		r = commute.OSRMRouter{BaseURL: cfg.OSRMURL, Client: &http.Client{Timeout: 10 * time.Second}}
	}
	if cfg.RouteCacheSize > 0 {
		r = commute.NewCachedRouter(r, cfg.RouteCacheSize, cfg.RouteCacheTTL())
	}
	return r
}

// start restores the last snapshot, if any, and then loads the live feed.
// A failed live load is logged; the snapshot keeps serving.
func (a *app) start(ctx context.Context) {
	if a.snap != nil {
		ds, ok, err := a.snap.restore(ctx)
		switch {
		case err != nil:
			a.log.Warn("failed to restore schedule snapshot", zap.Error(err))
		case ok:
			a.schedule.Replace(ds)
		}
	}
	if err := a.reload(ctx); err != nil {
		a.log.Error("error loading GTFS data", zap.Error(err))
	}
}

// reload loads the configured source and snapshots the result
func (a *app) reload(ctx context.Context) error {
	if a.source == nil {
		a.log.Info("no GTFS source configured")
		return nil
	}
	before := a.schedule.Dataset()
	if err := a.schedule.Load(ctx, a.source); err != nil {
		return err
	}
	if a.snap == nil || a.schedule.Dataset() == before {
		return nil
	}
	if err := a.snap.save(ctx, a.schedule.Dataset()); err != nil {
		a.log.Warn("failed to save schedule snapshot", zap.Error(err))
	}
	return nil
}

func (a *app) close(ctx context.Context) {
	if err := a.reporter.Close(ctx); err != nil {
		a.log.Warn("pending error reports dropped", zap.Error(err))
	}
	if a.snap != nil {
		if err := a.snap.close(); err != nil {
			a.log.Warn("failed to close snapshot store", zap.Error(err))
		}
	}
}

type snapshotter interface {
	save(ctx context.Context, ds *gtfs.Dataset) error
	restore(ctx context.Context) (*gtfs.Dataset, bool, error)
	close() error
}

func newSnapshotter(cfg config.CacheConfig, log *zap.Logger) (snapshotter, error) {
	switch strings.ToLower(cfg.Kind) {
	case "":
		return nil, nil
	case "gob":
		return gobSnapshot{path: cfg.Path}, nil
	case "sqlite":
		db, err := store.Open(cfg.Path, log)
		if err != nil {
			return nil, err
		}
		return sqliteSnapshot{db: db}, nil
	default:
		return nil, fmt.Errorf("unknown cache kind %q", cfg.Kind)
	}
}

type gobSnapshot struct{ path string }

func (g gobSnapshot) save(_ context.Context, ds *gtfs.Dataset) error {
	return gtfs.SerializeDatasetToFile(ds, g.path)
}

func (g gobSnapshot) restore(context.Context) (*gtfs.Dataset, bool, error) {
	ds, err := gtfs.DeserializeDatasetFromFile(g.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return ds, true, nil
}

func (gobSnapshot) close() error { return nil }

type sqliteSnapshot struct{ db *store.SQLite }

func (s sqliteSnapshot) save(ctx context.Context, ds *gtfs.Dataset) error {
	return s.db.Save(ctx, ds)
}

func (s sqliteSnapshot) restore(ctx context.Context) (*gtfs.Dataset, bool, error) {
	empty, err := s.db.Empty(ctx)
	if err != nil || empty {
		return nil, false, err
	}
	return s.db.Load(ctx)
}

func (s sqliteSnapshot) close() error { return s.db.Close() }
