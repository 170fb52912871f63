package gtfs

import (
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Dataset holds one loaded copy of the four schedule tables. It is never
// mutated after construction and is safe for concurrent readers.
type Dataset struct {
	stops     []Stop                // file order, used as the ranking tie-break
	stopIdx   map[string]int        // stop_id -> index into stops
	routes    map[string]Route      // route_id -> route
	trips     map[string]Trip       // trip_id -> trip
	stopTimes []StopTime            // file order
	byStop    map[string][]StopTime // stop_id -> stop times sorted by departure_time
	loadedAt  time.Time
	dupStops  int
}

// Stats summarizes a dataset for health reporting
type Stats struct {
	Stops     int       `json:"stops"`
	Routes    int       `json:"routes"`
	Trips     int       `json:"trips"`
	StopTimes int       `json:"stop_times"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// NewDataset indexes the given tables. Duplicate stop IDs keep the first
// occurrence.
func NewDataset(stops []Stop, routes []Route, trips []Trip, stopTimes []StopTime) *Dataset {
	ds := &Dataset{
		stops:     make([]Stop, 0, len(stops)),
		stopIdx:   make(map[string]int, len(stops)),
		routes:    make(map[string]Route, len(routes)),
		trips:     make(map[string]Trip, len(trips)),
		stopTimes: stopTimes,
		byStop:    map[string][]StopTime{},
		loadedAt:  time.Now().UTC(),
	}
	for _, s := range stops {
		if _, dup := ds.stopIdx[s.ID]; dup {
			ds.dupStops++
			continue
		}
		ds.stopIdx[s.ID] = len(ds.stops)
		ds.stops = append(ds.stops, s)
	}
	for _, r := range routes {
		ds.routes[r.ID] = r
	}
	for _, t := range trips {
		ds.trips[t.ID] = t
	}
	for _, st := range stopTimes {
		ds.byStop[st.StopID] = append(ds.byStop[st.StopID], st)
	}
	for _, arr := range ds.byStop {
		sort.SliceStable(arr, func(i, j int) bool { return arr[i].DepartureTime < arr[j].DepartureTime })
	}
	return ds
}

func emptyDataset() *Dataset {
	ds := NewDataset(nil, nil, nil, nil)
	ds.loadedAt = time.Time{}
	return ds
}

// WithLoadedAt returns a copy of d stamped with t. Restored snapshots use
// it to keep their original load time.
func (d *Dataset) WithLoadedAt(t time.Time) *Dataset {
	cp := *d
	cp.loadedAt = t
	return &cp
}

// Stop looks up a stop by ID
func (d *Dataset) Stop(id string) (Stop, bool) {
	i, ok := d.stopIdx[id]
	if !ok {
		return Stop{}, false
	}
	return d.stops[i], true
}

func (d *Dataset) Route(id string) (Route, bool) {
	r, ok := d.routes[id]
	return r, ok
}

func (d *Dataset) Trip(id string) (Trip, bool) {
	t, ok := d.trips[id]
	return t, ok
}

// Stops returns the stops in load order. The slice must not be modified.
func (d *Dataset) Stops() []Stop { return d.stops }

// Routes returns all routes sorted by ID
func (d *Dataset) Routes() []Route {
	out := make([]Route, 0, len(d.routes))
	for _, r := range d.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Trips returns all trips sorted by ID
func (d *Dataset) Trips() []Trip {
	out := make([]Trip, 0, len(d.trips))
	for _, t := range d.trips {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// StopTimes returns the stop times in load order. The slice must not be modified.
func (d *Dataset) StopTimes() []StopTime { return d.stopTimes }

func (d *Dataset) Stats() Stats {
	return Stats{
		Stops:     len(d.stops),
		Routes:    len(d.routes),
		Trips:     len(d.trips),
		StopTimes: len(d.stopTimes),
		LoadedAt:  d.loadedAt,
	}
}

// Schedule is the process-wide schedule store. Queries read the current
// Dataset without locking; loads build a new Dataset and swap it in.
type Schedule struct {
	current atomic.Pointer[Dataset]
	log     *zap.Logger
}

// Option configures a Schedule
type Option func(*Schedule)

// WithLogger sets the logger used for load diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(s *Schedule) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSchedule creates an empty schedule
func NewSchedule(opts ...Option) *Schedule {
	s := &Schedule{log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	s.current.Store(emptyDataset())
	return s
}

// Dataset returns the dataset currently being served
func (s *Schedule) Dataset() *Dataset { return s.current.Load() }

// Replace installs ds as the current dataset. A nil ds is ignored.
func (s *Schedule) Replace(ds *Dataset) {
	if ds == nil {
		return
	}
	s.current.Store(ds)
	st := ds.Stats()
	s.log.Info("schedule replaced",
		zap.Int("stops", st.Stops),
		zap.Int("routes", st.Routes),
		zap.Int("trips", st.Trips),
		zap.Int("stop_times", st.StopTimes))
}

func (s *Schedule) Stats() Stats { return s.Dataset().Stats() }

func (s *Schedule) FindNearestStations(lat, lng float64, limit int) []StationDistance {
	return s.Dataset().FindNearestStations(lat, lng, limit)
}

func (s *Schedule) NextTrains(stationID, currentTime string) []string {
	return s.Dataset().NextTrains(stationID, currentTime)
}

func (s *Schedule) NextDepartures(stationID, currentTime string, limit int) []Departure {
	return s.Dataset().NextDepartures(stationID, currentTime, limit)
}
