package commute

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/TableMateio/home-finder/gtfs"
)

// ErrAddressNotFound is returned when a Geocoder has no match.
var ErrAddressNotFound = errors.New("address not found")

// Geocoder resolves a free-form address to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (gtfs.Coordinate, error)
}

// StaticGeocoder looks addresses up in a fixed table. Matching ignores case
// and surrounding whitespace. Input of the form "lat,lng" is parsed
// directly.
type StaticGeocoder struct {
	places map[string]gtfs.Coordinate
}

// NewStaticGeocoder builds a StaticGeocoder from address -> coordinate.
func NewStaticGeocoder(places map[string]gtfs.Coordinate) *StaticGeocoder {
	g := &StaticGeocoder{places: make(map[string]gtfs.Coordinate, len(places))}
	for addr, c := range places {
		g.places[normalizeAddress(addr)] = c
	}
	return g
}

func (g *StaticGeocoder) Geocode(_ context.Context, address string) (gtfs.Coordinate, error) {
	if c, ok := ParseCoordinate(address); ok {
		return c, nil
	}
	if c, ok := g.places[normalizeAddress(address)]; ok {
		return c, nil
	}
	return gtfs.Coordinate{}, fmt.Errorf("%q: %w", address, ErrAddressNotFound)
}

// ParseCoordinate accepts "lat,lng" with optional spaces and checks ranges.
// NaN and infinities are rejected.
func ParseCoordinate(s string) (gtfs.Coordinate, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return gtfs.Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || !(lat >= -90 && lat <= 90) {
		return gtfs.Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || !(lng >= -180 && lng <= 180) {
		return gtfs.Coordinate{}, false
	}
	return gtfs.Coordinate{Lat: lat, Lng: lng}, true
}

func normalizeAddress(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
