package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/TableMateio/home-finder/commute"
	"github.com/TableMateio/home-finder/config"
	"github.com/TableMateio/home-finder/gtfs"
	"github.com/TableMateio/home-finder/internal"
	"github.com/TableMateio/home-finder/server"
)

func main() {
	mode := flag.String("mode", "serve", "serve|nearest|departures|commute")
	configPath := flag.String("config", "", "config file (default: config.yml search path)")
	source := flag.String("gtfs", "", "GTFS directory, zip or URL (overrides config)")
	lat := flag.Float64("lat", 0, "latitude for nearest/commute")
	lng := flag.Float64("lng", 0, "longitude for nearest/commute")
	address := flag.String("address", "", "start address for commute")
	limit := flag.Int("limit", 0, "maximum results for nearest")
	stopID := flag.String("stop", "", "stop_id for departures")
	at := flag.String("time", "", "time of day HH:MM:SS (default 08:00:00)")
	flag.Parse()

	var paths []string
	if *configPath != "" {
		paths = append(paths, *configPath)
	}
	cfg, err := config.LoadAppConfig(paths...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *source != "" {
		cfg.GTFS.Source = *source
	}

	log, err := internal.NewLogger(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.close(closeCtx)
	}()
	a.start(ctx)

	switch *mode {
	case "serve":
		if a.poller != nil {
			go a.poller.Run(ctx)
		}
		deps := server.Deps{
			Schedule: a.schedule,
			Planner:  a.planner,
			Reporter: a.reporter,
			Reload:   a.reload,
			Logger:   log.Named("http"),
		}
		if a.poller != nil {
			deps.Realtime = a.poller
		}
		srv := server.New(server.Options{Port: cfg.Server.Port, AllowedOrigins: cfg.Server.AllowedOrigins}, deps)
		if err := srv.Run(ctx); err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	case "nearest":
		printJSON(os.Stdout, server.StationsFromDistances(a.schedule.FindNearestStations(*lat, *lng, *limit)))
	case "departures":
		printJSON(os.Stdout, a.schedule.NextTrains(*stopID, *at))
	case "commute":
		var plan *commute.Plan
		if *address != "" {
			plan, err = a.planner.Plan(ctx, *address, *at)
		} else {
			plan, err = a.planner.PlanFrom(ctx, gtfs.Coordinate{Lat: *lat, Lng: *lng}, *at)
		}
		if err != nil {
			log.Fatal("commute planning failed", zap.Error(err))
		}
		printJSON(os.Stdout, server.PlanResponse(plan))
	default:
		log.Fatal("unknown mode", zap.String("mode", *mode))
	}
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
