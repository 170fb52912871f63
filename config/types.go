package config

import "time"

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port" validate:"gt=0,lte=65535"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// GTFSConfig contains GTFS static feed configuration. Source is a
// directory, a .zip path or an http(s) URL.
type GTFSConfig struct {
	Source    string `yaml:"source"`
	TimeoutMS int    `yaml:"timeoutMS" validate:"gte=0"`
}

// GTFSRTConfig contains GTFS-Realtime feed configuration. TripUpdatesURL is
// an http(s) URL or a local protobuf file path.
type GTFSRTConfig struct {
	TripUpdatesURL string `yaml:"tripUpdatesURL"`
	ReadIntervalMS int    `yaml:"readIntervalMS" validate:"gte=0"`
	TimeoutMS      int    `yaml:"timeoutMS" validate:"gte=0"`
}

// CacheConfig selects where parsed schedules are snapshotted
type CacheConfig struct {
	Kind string `yaml:"kind" validate:"omitempty,oneof=gob sqlite"`
	Path string `yaml:"path" validate:"required_with=Kind"`
}

// StationRide is the train ride from one station to the destination
type StationRide struct {
	StopID      string  `yaml:"stopID" validate:"required"`
	RideMinutes float64 `yaml:"rideMinutes" validate:"gt=0"`
}

// Place is a known address for the static geocoder
type Place struct {
	Address string  `yaml:"address" validate:"required"`
	Lat     float64 `yaml:"lat" validate:"gte=-90,lte=90"`
	Lng     float64 `yaml:"lng" validate:"gte=-180,lte=180"`
}

// CommuteConfig contains commute planner configuration
type CommuteConfig struct {
	Candidates           int           `yaml:"candidates" validate:"gte=0"`
	FallbackDriveMinutes float64       `yaml:"fallbackDriveMinutes" validate:"gte=0"`
	DefaultRideMinutes   float64       `yaml:"defaultRideMinutes" validate:"gte=0"`
	AverageSpeedMPH      float64       `yaml:"averageSpeedMPH" validate:"gte=0"`
	Router               string        `yaml:"router" validate:"omitempty,oneof=straight osrm"`
	OSRMURL              string        `yaml:"osrmURL" validate:"omitempty,url"`
	RouteCacheSize       int           `yaml:"routeCacheSize" validate:"gte=0"`
	RouteCacheTTLMinutes int           `yaml:"routeCacheTTLMinutes" validate:"gte=0"`
	Stations             []StationRide `yaml:"stations" validate:"dive"`
	Places               []Place       `yaml:"places" validate:"dive"`
}

// ReportingConfig contains error reporting configuration
type ReportingConfig struct {
	WebhookURL string `yaml:"webhookURL" validate:"omitempty,url"`
	MaxStored  int    `yaml:"maxStored" validate:"gte=0"`
	Source     string `yaml:"source"`
}

// LoggingConfig contains logger configuration
type LoggingConfig struct {
	Level       string `yaml:"level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	Development bool   `yaml:"development"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server    ServerConfig    `yaml:"server" validate:"required"`
	GTFS      GTFSConfig      `yaml:"gtfs"`
	GTFSRT    GTFSRTConfig    `yaml:"gtfsrt"`
	Cache     CacheConfig     `yaml:"cache"`
	Commute   CommuteConfig   `yaml:"commute"`
	Reporting ReportingConfig `yaml:"reporting"`
	Logging   LoggingConfig   `yaml:"logging"`
}

func millis(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

func minutes(m float64) time.Duration { return time.Duration(m * float64(time.Minute)) }

// Timeout is the static feed download timeout
func (c GTFSConfig) Timeout() time.Duration { return millis(c.TimeoutMS) }

// ReadInterval is the realtime polling period
func (c GTFSRTConfig) ReadInterval() time.Duration { return millis(c.ReadIntervalMS) }

// Timeout is the realtime fetch timeout
func (c GTFSRTConfig) Timeout() time.Duration { return millis(c.TimeoutMS) }

// FallbackDrive is the drive time assumed when routing fails
func (c CommuteConfig) FallbackDrive() time.Duration { return minutes(c.FallbackDriveMinutes) }

// DefaultRide is the ride time for stations without an entry
func (c CommuteConfig) DefaultRide() time.Duration { return minutes(c.DefaultRideMinutes) }

// RouteCacheTTL is how long a cached drive time lives
func (c CommuteConfig) RouteCacheTTL() time.Duration {
	return time.Duration(c.RouteCacheTTLMinutes) * time.Minute
}

// RideTimes maps stop ID to ride duration
func (c CommuteConfig) RideTimes() map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.Stations))
	for _, s := range c.Stations {
		out[s.StopID] = minutes(s.RideMinutes)
	}
	return out
}
