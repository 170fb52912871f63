package gtfs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	whitePlains  = Coordinate{Lat: 41.0339, Lng: -73.7629}
	scarsdale    = Coordinate{Lat: 40.9889, Lng: -73.8087}
	grandCentral = Coordinate{Lat: 40.7527, Lng: -73.9772}
)

func TestHaversineMiles_KnownDistances(t *testing.T) {
	tests := []struct {
		name string
		a, b Coordinate
		want float64
	}{
		{"grand central to white plains", grandCentral, whitePlains, 22.4238},
		{"query point to scarsdale", Coordinate{Lat: 41.00, Lng: -73.78}, scarsdale, 1.6819},
		{"one degree of latitude", Coordinate{Lat: 0, Lng: 0}, Coordinate{Lat: 1, Lng: 0}, 69.0976},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Distance(tt.a, tt.b), 0.001)
		})
	}
}

func TestHaversineMiles_Symmetric(t *testing.T) {
	points := []Coordinate{whitePlains, scarsdale, grandCentral, {Lat: -33.8688, Lng: 151.2093}, {Lat: 0, Lng: 179.9}}
	for _, a := range points {
		for _, b := range points {
			assert.Equal(t, Distance(a, b), Distance(b, a))
		}
	}
}

func TestHaversineMiles_ZeroAndNonNegative(t *testing.T) {
	points := []Coordinate{whitePlains, scarsdale, grandCentral}
	for _, a := range points {
		assert.Equal(t, 0.0, Distance(a, a))
		for _, b := range points {
			assert.GreaterOrEqual(t, Distance(a, b), 0.0)
		}
	}
}

func TestHaversineMiles_NaNInput(t *testing.T) {
	assert.True(t, math.IsNaN(HaversineMiles(math.NaN(), 0, 1, 1)))
}
