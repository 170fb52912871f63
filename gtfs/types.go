package gtfs

// Stop is a row of stops.txt
type Stop struct {
	ID   string  `json:"stop_id"`
	Name string  `json:"stop_name"`
	Lat  float64 `json:"stop_lat"`
	Lon  float64 `json:"stop_lon"`
	Code string  `json:"stop_code,omitempty"`
}

// Route is a row of routes.txt
type Route struct {
	ID        string `json:"route_id"`
	ShortName string `json:"route_short_name"`
	LongName  string `json:"route_long_name"`
	Type      string `json:"route_type"` // GTFS route_type enum, kept as text
}

// Trip is a row of trips.txt
type Trip struct {
	ID          string `json:"trip_id"`
	RouteID     string `json:"route_id"`
	ServiceID   string `json:"service_id"`
	Headsign    string `json:"trip_headsign"`
	DirectionID string `json:"direction_id"` // "0"|"1"
}

// StopTime is a row of stop_times.txt. Times are HH:MM:SS of the service
// day and the hour may exceed 23 for post-midnight service.
type StopTime struct {
	TripID        string `json:"trip_id"`
	ArrivalTime   string `json:"arrival_time"`
	DepartureTime string `json:"departure_time"`
	StopID        string `json:"stop_id"`
	StopSequence  int    `json:"stop_sequence"`
}

// Coordinate is a WGS84 point in degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// StationDistance pairs a stop with its distance from a query point
type StationDistance struct {
	Stop          Stop    `json:"stop"`
	DistanceMiles float64 `json:"distance_miles"`
}

// Departure is a scheduled departure at a stop, joined with its trip and route
type Departure struct {
	TripID        string `json:"trip_id"`
	RouteID       string `json:"route_id,omitempty"`
	RouteName     string `json:"route_name,omitempty"`
	Headsign      string `json:"headsign,omitempty"`
	StopID        string `json:"stop_id"`
	DepartureTime string `json:"departure_time"`
	Display       string `json:"display"`
}
