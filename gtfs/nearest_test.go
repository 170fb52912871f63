package gtfs

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func westchesterStops() []Stop {
	return []Stop{
		{ID: "WP", Name: "White Plains", Lat: 41.0339, Lon: -73.7629},
		{ID: "SC", Name: "Scarsdale", Lat: 40.9889, Lon: -73.8087},
		{ID: "GCT", Name: "Grand Central", Lat: 40.7527, Lon: -73.9772},
		{ID: "HD", Name: "Hartsdale", Lat: 41.0105, Lon: -73.7960},
	}
}

func TestFindNearestStations_WestchesterScenario(t *testing.T) {
	ds := NewDataset(westchesterStops()[:2], nil, nil, nil)

	// Scarsdale is about 1.68 mi from this point, White Plains about 2.51 mi
	got := ds.FindNearestStations(41.00, -73.78, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "SC", got[0].Stop.ID)
	assert.InDelta(t, 1.6819, got[0].DistanceMiles, 0.001)

	got = ds.FindNearestStations(41.03, -73.765, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "WP", got[0].Stop.ID)
}

func TestFindNearestStations_Ranking(t *testing.T) {
	ds := NewDataset(westchesterStops(), nil, nil, nil)
	q := Coordinate{Lat: 41.00, Lng: -73.78}

	got := ds.FindNearestStations(q.Lat, q.Lng, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"HD", "SC", "WP"}, stopIDs(got))

	// the k results are exactly the k smallest distances
	all := make([]float64, 0, 4)
	for _, s := range westchesterStops() {
		all = append(all, HaversineMiles(q.Lat, q.Lng, s.Lat, s.Lon))
	}
	sort.Float64s(all)
	for i, r := range got {
		assert.Equal(t, all[i], r.DistanceMiles)
		if i > 0 {
			assert.LessOrEqual(t, got[i-1].DistanceMiles, r.DistanceMiles)
		}
	}
}

func TestFindNearestStations_LimitBounds(t *testing.T) {
	ds := NewDataset(westchesterStops(), nil, nil, nil)

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"default limit", 0, DefaultNearestLimit},
		{"negative limit uses default", -2, DefaultNearestLimit},
		{"one", 1, 1},
		{"exactly all", 4, 4},
		{"more than stored", 10, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, ds.FindNearestStations(41, -73.8, tt.limit), tt.want)
		})
	}
}

func TestFindNearestStations_EmptyStore(t *testing.T) {
	s := NewSchedule()
	for _, limit := range []int{0, 1, 5} {
		got := s.FindNearestStations(41, -73.8, limit)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestFindNearestStations_TiesKeepLoadOrder(t *testing.T) {
	stops := []Stop{
		{ID: "b", Lat: 1, Lon: 0},
		{ID: "a", Lat: -1, Lon: 0},
		{ID: "c", Lat: 0, Lon: 1},
		{ID: "near", Lat: 0, Lon: 0.1},
	}
	ds := NewDataset(stops, nil, nil, nil)

	got := ds.FindNearestStations(0, 0, 4)
	assert.Equal(t, []string{"near", "b", "a", "c"}, stopIDs(got))
}

func TestFindNearestStations_NaNCoordinatesSortLast(t *testing.T) {
	stops := []Stop{
		{ID: "broken", Lat: math.NaN(), Lon: math.NaN()},
		{ID: "far", Lat: 10, Lon: 10},
		{ID: "close", Lat: 0.1, Lon: 0.1},
	}
	ds := NewDataset(stops, nil, nil, nil)

	got := ds.FindNearestStations(0, 0, 3)
	assert.Equal(t, []string{"close", "far", "broken"}, stopIDs(got))
	assert.True(t, math.IsNaN(got[2].DistanceMiles))
}

func stopIDs(in []StationDistance) []string {
	out := make([]string, len(in))
	for i, r := range in {
		out[i] = r.Stop.ID
	}
	return out
}
