package commute

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/TableMateio/home-finder/gtfs"
)

// Planner defaults
const (
	DefaultCandidates    = 3
	DefaultFallbackDrive = 15 * time.Minute
	DefaultRide          = 45 * time.Minute
)

// ErrGeocode wraps every failure to resolve the start address.
var ErrGeocode = errors.New("geocode failed")

// StationFinder is the slice of the schedule a Planner reads.
type StationFinder interface {
	FindNearestStations(lat, lng float64, limit int) []gtfs.StationDistance
	NextTrains(stationID, currentTime string) []string
}

// Options tunes a Planner. Zero values take the package defaults.
type Options struct {
	Candidates    int
	FallbackDrive time.Duration
	DefaultRide   time.Duration
	// RideTimes is the train ride from a stop ID to the destination.
	RideTimes map[string]time.Duration
	Logger    *zap.Logger
}

// Option is one way to commute: drive to Station, then ride.
type Option struct {
	Station       gtfs.Stop     `json:"station"`
	DistanceMiles float64       `json:"distance_miles"`
	Drive         time.Duration `json:"-"`
	Ride          time.Duration `json:"-"`
	Total         time.Duration `json:"-"`
	DriveMinutes  float64       `json:"drive_minutes"`
	RideMinutes   float64       `json:"ride_minutes"`
	TotalMinutes  float64       `json:"total_minutes"`
	// Estimated is set when the router failed and the fallback drive was used.
	Estimated  bool     `json:"estimated"`
	NextTrains []string `json:"next_trains"`
}

// Plan is a ranked list of Options, fastest first.
type Plan struct {
	Address string          `json:"address,omitempty"`
	Origin  gtfs.Coordinate `json:"origin"`
	Time    string          `json:"time"`
	Options []Option        `json:"options"`
}

// Planner ranks the stations near a starting point.
type Planner struct {
	stations StationFinder
	geocoder Geocoder
	router   Router
	opts     Options
	log      *zap.Logger
}

// NewPlanner creates a Planner. geocoder may be nil if only PlanFrom is used.
func NewPlanner(stations StationFinder, geocoder Geocoder, router Router, opts Options) *Planner {
	if opts.Candidates <= 0 {
		opts.Candidates = DefaultCandidates
	}
	if opts.FallbackDrive <= 0 {
		opts.FallbackDrive = DefaultFallbackDrive
	}
	if opts.DefaultRide <= 0 {
		opts.DefaultRide = DefaultRide
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if router == nil {
		router = StraightLineRouter{}
	}
	return &Planner{stations: stations, geocoder: geocoder, router: router, opts: opts, log: log}
}

// Plan geocodes address and ranks the stations around it.
func (p *Planner) Plan(ctx context.Context, address, currentTime string) (*Plan, error) {
	if p.geocoder == nil {
		return nil, fmt.Errorf("%w: no geocoder configured", ErrGeocode)
	}
	origin, err := p.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeocode, err)
	}
	if !finiteCoordinate(origin) {
		return nil, fmt.Errorf("%w: %q resolved to a non-finite coordinate", ErrGeocode, address)
	}
	plan, err := p.PlanFrom(ctx, origin, currentTime)
	if err != nil {
		return nil, err
	}
	plan.Address = address
	return plan, nil
}

// PlanFrom ranks the stations around origin. Ties keep distance order.
func (p *Planner) PlanFrom(ctx context.Context, origin gtfs.Coordinate, currentTime string) (*Plan, error) {
	if currentTime == "" {
		currentTime = gtfs.DefaultCurrentTime
	}
	nearest := p.stations.FindNearestStations(origin.Lat, origin.Lng, p.opts.Candidates)

	options := make([]Option, 0, len(nearest))
	for _, sd := range nearest {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opt := Option{
			Station:       sd.Stop,
			DistanceMiles: sd.DistanceMiles,
			Ride:          p.rideTime(sd.Stop.ID),
			NextTrains:    p.stations.NextTrains(sd.Stop.ID, currentTime),
		}
		to := gtfs.Coordinate{Lat: sd.Stop.Lat, Lng: sd.Stop.Lon}
		drive, err := p.router.DriveDuration(ctx, origin, to)
		if err != nil {
			p.log.Warn("drive time unavailable, using fallback",
				zap.String("stop_id", sd.Stop.ID),
				zap.Duration("fallback", p.opts.FallbackDrive),
				zap.Error(err))
			drive = p.opts.FallbackDrive
			opt.Estimated = true
		}
		opt.Drive = drive
		opt.Total = opt.Drive + opt.Ride
		opt.DriveMinutes = minutes(opt.Drive)
		opt.RideMinutes = minutes(opt.Ride)
		opt.TotalMinutes = minutes(opt.Total)
		options = append(options, opt)
	}

	sort.SliceStable(options, func(i, j int) bool { return options[i].Total < options[j].Total })

	p.log.Debug("commute planned",
		zap.Float64("lat", origin.Lat), zap.Float64("lng", origin.Lng),
		zap.Int("options", len(options)))
	return &Plan{Origin: origin, Time: currentTime, Options: options}, nil
}

func (p *Planner) rideTime(stopID string) time.Duration {
	if d, ok := p.opts.RideTimes[stopID]; ok && d > 0 {
		return d
	}
	return p.opts.DefaultRide
}

// minutes rounds to one decimal place
func minutes(d time.Duration) float64 {
	return math.Round(d.Minutes()*10) / 10
}

func finiteCoordinate(c gtfs.Coordinate) bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) && !math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0)
}
