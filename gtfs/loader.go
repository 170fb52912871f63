package gtfs

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"
)

// key columns a present table must carry
var requiredColumns = map[string]string{
	StopsFile:     "stop_id",
	RoutesFile:    "route_id",
	TripsFile:     "trip_id",
	StopTimesFile: "stop_id",
}

// LoadGTFSData fetches the feed from src and replaces the schedule with it.
// It reports success instead of returning the error; the cause is logged.
// A feed with no tables succeeds without touching the current data.
func (s *Schedule) LoadGTFSData(ctx context.Context, src Source) bool {
	if err := s.Load(ctx, src); err != nil {
		s.log.Error("error loading GTFS data", zap.Error(err))
		return false
	}
	return true
}

// Load is LoadGTFSData with the failure cause. On error the current dataset
// is left as it was.
func (s *Schedule) Load(ctx context.Context, src Source) error {
	if src == nil {
		s.log.Info("GTFS schedule initialized, no feed source configured")
		return nil
	}
	feed, err := src.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}
	if len(feed) == 0 {
		s.log.Info("GTFS schedule initialized, ready to load data when files are available")
		return nil
	}
	ds, err := BuildDataset(feed)
	if err != nil {
		return err
	}
	s.reportIntegrity(ds)
	s.Replace(ds)
	return nil
}

// BuildDataset parses every table present in feed into a new Dataset.
func BuildDataset(feed Feed) (*Dataset, error) {
	for name, col := range requiredColumns {
		text, ok := feed[name]
		if !ok || text == "" {
			continue
		}
		if !hasColumn(text, col) {
			return nil, fmt.Errorf("%s: missing %s column", name, col)
		}
	}
	return NewDataset(
		parseStops(ParseCSV(feed[StopsFile])),
		parseRoutes(ParseCSV(feed[RoutesFile])),
		parseTrips(ParseCSV(feed[TripsFile])),
		parseStopTimes(ParseCSV(feed[StopTimesFile])),
	), nil
}

func parseStops(recs []Record) []Stop {
	out := make([]Stop, 0, len(recs))
	for _, r := range recs {
		out = append(out, Stop{
			ID:   r["stop_id"],
			Name: r["stop_name"],
			Lat:  parseCoord(r["stop_lat"]),
			Lon:  parseCoord(r["stop_lon"]),
			Code: r["stop_code"],
		})
	}
	return out
}

func parseRoutes(recs []Record) []Route {
	out := make([]Route, 0, len(recs))
	for _, r := range recs {
		out = append(out, Route{
			ID:        r["route_id"],
			ShortName: r["route_short_name"],
			LongName:  r["route_long_name"],
			Type:      r["route_type"],
		})
	}
	return out
}

func parseTrips(recs []Record) []Trip {
	out := make([]Trip, 0, len(recs))
	for _, r := range recs {
		out = append(out, Trip{
			ID:          r["trip_id"],
			RouteID:     r["route_id"],
			ServiceID:   r["service_id"],
			Headsign:    r["trip_headsign"],
			DirectionID: r["direction_id"],
		})
	}
	return out
}

func parseStopTimes(recs []Record) []StopTime {
	out := make([]StopTime, 0, len(recs))
	for _, r := range recs {
		seq, _ := strconv.Atoi(r["stop_sequence"])
		out = append(out, StopTime{
			TripID:        r["trip_id"],
			ArrivalTime:   r["arrival_time"],
			DepartureTime: r["departure_time"],
			StopID:        r["stop_id"],
			StopSequence:  seq,
		})
	}
	return out
}

// parseCoord yields NaN for malformed values so ranking degrades instead of failing
func parseCoord(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// reportIntegrity logs stop times that point at unknown trips or stops.
// They stay in the dataset; lookups against them degrade gracefully.
func (s *Schedule) reportIntegrity(ds *Dataset) {
	var missingTrips, missingStops int
	for _, st := range ds.stopTimes {
		if _, ok := ds.trips[st.TripID]; !ok && len(ds.trips) > 0 {
			missingTrips++
		}
		if _, ok := ds.stopIdx[st.StopID]; !ok && len(ds.stops) > 0 {
			missingStops++
		}
	}
	if ds.dupStops > 0 {
		s.log.Warn("duplicate stop IDs dropped", zap.Int("count", ds.dupStops))
	}
	if missingTrips > 0 || missingStops > 0 {
		s.log.Warn("stop times with dangling references",
			zap.Int("unknown_trips", missingTrips),
			zap.Int("unknown_stops", missingStops))
	}
}
