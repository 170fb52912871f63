package commute

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TableMateio/home-finder/gtfs"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		in     string
		want   gtfs.Coordinate
		wantOK bool
	}{
		{"41.00,-73.78", gtfs.Coordinate{Lat: 41, Lng: -73.78}, true},
		{" 40.9889 , -73.8087 ", gtfs.Coordinate{Lat: 40.9889, Lng: -73.8087}, true},
		{"91,0", gtfs.Coordinate{}, false},
		{"0,181", gtfs.Coordinate{}, false},
		{"NaN,NaN", gtfs.Coordinate{}, false},
		{"41,NaN", gtfs.Coordinate{}, false},
		{"Inf,-73", gtfs.Coordinate{}, false},
		{"12 Elm St, Scarsdale", gtfs.Coordinate{}, false},
		{"1,2,3", gtfs.Coordinate{}, false},
		{"", gtfs.Coordinate{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCoordinate(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStaticGeocoder(t *testing.T) {
	g := NewStaticGeocoder(map[string]gtfs.Coordinate{
		"Grand Central Terminal": {Lat: 40.7527, Lng: -73.9772},
	})
	ctx := context.Background()

	c, err := g.Geocode(ctx, "grand  central TERMINAL")
	require.NoError(t, err)
	assert.Equal(t, 40.7527, c.Lat)

	c, err = g.Geocode(ctx, "41.03,-73.765")
	require.NoError(t, err)
	assert.Equal(t, gtfs.Coordinate{Lat: 41.03, Lng: -73.765}, c)

	_, err = g.Geocode(ctx, "Penn Station")
	assert.ErrorIs(t, err, ErrAddressNotFound)
}
