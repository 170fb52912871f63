package gtfs

import (
	"math"
)

// EarthRadiusMiles is the sphere radius used for all station distances.
const EarthRadiusMiles = 3959.0

// HaversineMiles returns the great-circle distance in statute miles.
// Malformed (NaN) inputs yield NaN.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	la1 := lat1 * math.Pi / 180
	la2 := lat2 * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMiles * c
}

// Distance returns the haversine distance between two coordinates in miles.
func Distance(a, b Coordinate) float64 {
	return HaversineMiles(a.Lat, a.Lng, b.Lat, b.Lng)
}
