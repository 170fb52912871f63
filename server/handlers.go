package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TableMateio/home-finder/commute"
	"github.com/TableMateio/home-finder/gtfs"
	"github.com/TableMateio/home-finder/gtfsrt"
	"github.com/TableMateio/home-finder/reporting"
)

const (
	maxDeparturesLimit = 50
	reportBodyLimit    = 64 << 10
)

type healthResponse struct {
	Status   string         `json:"status"`
	Schedule gtfs.Stats     `json:"schedule"`
	Realtime realtimeHealth `json:"realtime"`
}

type realtimeHealth struct {
	Enabled       bool       `json:"enabled"`
	Trips         int        `json:"trips"`
	Failures      int64      `json:"failures"`
	FeedTimestamp *time.Time `json:"feed_timestamp,omitempty"`
	LastPoll      *time.Time `json:"last_poll,omitempty"`
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Schedule: s.deps.Schedule.Stats()}
	if resp.Schedule.Stops == 0 {
		resp.Status = "empty"
	}
	if rt := s.deps.Realtime; rt != nil {
		u := rt.Latest()
		resp.Realtime = realtimeHealth{Enabled: true, Trips: u.Len(), Failures: rt.Failures()}
		if ts := u.Timestamp(); !ts.IsZero() {
			resp.Realtime.FeedTimestamp = &ts
		}
		if lp := rt.LastPoll(); !lp.IsZero() {
			resp.Realtime.LastPoll = &lp
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleNearest handles GET /api/stations/nearest
// Query params: lat, lng (required), limit (optional, default 3)
func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	origin, ok := parseLatLng(w, q.Get("lat"), q.Get("lng"))
	if !ok {
		return
	}
	limit, ok := parseLimit(w, q.Get("limit"), gtfs.DefaultNearestLimit)
	if !ok {
		return
	}

	found := s.deps.Schedule.FindNearestStations(origin.Lat, origin.Lng, limit)
	stations := StationsFromDistances(found)
	writeJSON(w, http.StatusOK, map[string]any{
		"origin":   origin,
		"stations": stations,
		"count":    len(stations),
	})
}

type departuresResponse struct {
	Stop       *Station               `json:"stop,omitempty"`
	Time       string                 `json:"time"`
	NextTrains []string               `json:"next_trains"`
	Departures []gtfsrt.LiveDeparture `json:"departures"`
}

// handleDepartures handles GET /api/stations/{stopID}/departures
// Query params: time (optional HH:MM:SS, default 08:00:00), limit (optional)
func (s *Server) handleDepartures(w http.ResponseWriter, r *http.Request) {
	stopID := chi.URLParam(r, "stopID")
	q := r.URL.Query()

	at := strings.TrimSpace(q.Get("time"))
	if at == "" {
		at = gtfs.DefaultCurrentTime
	}
	if _, ok := gtfs.ParseClock(at); !ok {
		writeError(w, http.StatusBadRequest, "time must be HH:MM:SS", map[string]any{"time": at})
		return
	}
	limit, ok := parseLimit(w, q.Get("limit"), gtfs.NextTrainsLimit)
	if !ok {
		return
	}
	if limit > maxDeparturesLimit {
		limit = maxDeparturesLimit
	}

	ds := s.deps.Schedule.Dataset()
	deps := ds.NextDepartures(stopID, at, limit)
	stop, known := ds.Stop(stopID)
	if !known && len(deps) == 0 {
		writeError(w, http.StatusNotFound, "Station not found", map[string]any{"stop_id": stopID})
		return
	}

	var updates *gtfsrt.Updates
	if s.deps.Realtime != nil {
		updates = s.deps.Realtime.Latest()
	}
	resp := departuresResponse{
		Time:       at,
		NextTrains: ds.NextTrains(stopID, at),
		Departures: gtfsrt.LiveDepartures(deps, updates),
	}
	if known {
		st := StationFromStop(stop)
		resp.Stop = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCommute handles GET /api/commute
// Query params: address or lat+lng (one required), time (optional)
func (s *Server) handleCommute(w http.ResponseWriter, r *http.Request) {
	if s.deps.Planner == nil {
		writeError(w, http.StatusServiceUnavailable, "Commute planning is not configured", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	q := r.URL.Query()
	at := strings.TrimSpace(q.Get("time"))
	if at != "" {
		if _, ok := gtfs.ParseClock(at); !ok {
			writeError(w, http.StatusBadRequest, "time must be HH:MM:SS", map[string]any{"time": at})
			return
		}
	}

	var plan *commute.Plan
	var err error
	switch address := strings.TrimSpace(q.Get("address")); {
	case address != "":
		plan, err = s.deps.Planner.Plan(ctx, address, at)
	case q.Get("lat") != "" || q.Get("lng") != "":
		origin, ok := parseLatLng(w, q.Get("lat"), q.Get("lng"))
		if !ok {
			return
		}
		plan, err = s.deps.Planner.PlanFrom(ctx, origin, at)
	default:
		writeError(w, http.StatusBadRequest, "address or lat and lng are required", nil)
		return
	}

	if errors.Is(err, commute.ErrGeocode) {
		if s.deps.Reporter != nil {
			s.deps.Reporter.ReportMapError("commute", err)
		}
		writeError(w, http.StatusUnprocessableEntity, "Could not locate address", map[string]any{"internal": err.Error()})
		return
	}
	if err != nil {
		s.log.Error("commute planning failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to plan commute", map[string]any{"internal": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, PlanResponse(plan))
}

// handleReload handles POST /api/admin/reload
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reload == nil {
		writeError(w, http.StatusServiceUnavailable, "No schedule source configured", nil)
		return
	}
	start := time.Now()
	if err := s.deps.Reload(r.Context()); err != nil {
		s.log.Error("schedule reload failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to reload schedule", map[string]any{"internal": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "reloaded",
		"schedule": s.deps.Schedule.Stats(),
		"took_ms":  time.Since(start).Milliseconds(),
	})
}

// handleListErrors handles GET /api/errors
func (s *Server) handleListErrors(w http.ResponseWriter, r *http.Request) {
	if !s.requireReporter(w) {
		return
	}
	stored := s.deps.Reporter.Stored()
	writeJSON(w, http.StatusOK, map[string]any{"errors": stored, "count": len(stored)})
}

// reportRequest is a client report. A non-empty Component marks a UI
// component failure.
type reportRequest struct {
	reporting.Report
	Component string `json:"component"`
}

// handleReportError handles POST /api/errors
// Missing url and user agent are taken from the request headers.
func (s *Server) handleReportError(w http.ResponseWriter, r *http.Request) {
	if !s.requireReporter(w) {
		return
	}
	var req reportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, reportBodyLimit))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid error report", map[string]any{"internal": err.Error()})
		return
	}
	rep := req.Report
	if rep.URL == "" {
		rep.URL = r.Referer()
	}
	if rep.UserAgent == "" {
		rep.UserAgent = r.UserAgent()
	}
	if req.Component != "" {
		var cause error
		if rep.Message != "" {
			cause = errors.New(rep.Message)
		}
		writeJSON(w, http.StatusCreated, s.deps.Reporter.ReportComponentError(req.Component, cause, rep))
		return
	}
	writeJSON(w, http.StatusCreated, s.deps.Reporter.Report(rep))
}

// handleClearErrors handles DELETE /api/errors
func (s *Server) handleClearErrors(w http.ResponseWriter, r *http.Request) {
	if !s.requireReporter(w) {
		return
	}
	s.deps.Reporter.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) requireReporter(w http.ResponseWriter) bool {
	if s.deps.Reporter == nil {
		writeError(w, http.StatusServiceUnavailable, "Error reporting is not configured", nil)
		return false
	}
	return true
}

func parseLatLng(w http.ResponseWriter, latStr, lngStr string) (gtfs.Coordinate, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil || !(lat >= -90 && lat <= 90) {
		writeError(w, http.StatusBadRequest, "lat must be a number between -90 and 90", map[string]any{"lat": latStr})
		return gtfs.Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil || !(lng >= -180 && lng <= 180) {
		writeError(w, http.StatusBadRequest, "lng must be a number between -180 and 180", map[string]any{"lng": lngStr})
		return gtfs.Coordinate{}, false
	}
	return gtfs.Coordinate{Lat: lat, Lng: lng}, true
}

func parseLimit(w http.ResponseWriter, v string, def int) (int, bool) {
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer", map[string]any{"limit": v})
		return 0, false
	}
	return n, true
}
