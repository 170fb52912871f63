package gtfs

import (
	"math"
	"sort"
)

// DefaultNearestLimit is used when FindNearestStations gets a non-positive limit.
const DefaultNearestLimit = 3

// FindNearestStations ranks every stop by haversine distance from (lat, lng)
// and returns the closest limit of them, nearest first. Stops at equal
// distance keep load order; stops with unparseable coordinates sort last.
func (d *Dataset) FindNearestStations(lat, lng float64, limit int) []StationDistance {
	if limit <= 0 {
		limit = DefaultNearestLimit
	}
	ranked := make([]StationDistance, len(d.stops))
	for i, s := range d.stops {
		ranked[i] = StationDistance{Stop: s, DistanceMiles: HaversineMiles(lat, lng, s.Lat, s.Lon)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return lessDistance(ranked[i].DistanceMiles, ranked[j].DistanceMiles)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// lessDistance orders NaN after every number so the sort stays consistent.
func lessDistance(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a < b
}
