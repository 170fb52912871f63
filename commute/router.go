package commute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/bluele/gcache"

	"github.com/TableMateio/home-finder/gtfs"
)

// Router estimates how long it takes to drive between two points.
type Router interface {
	DriveDuration(ctx context.Context, from, to gtfs.Coordinate) (time.Duration, error)
}

// RouterFunc adapts a function to Router.
type RouterFunc func(ctx context.Context, from, to gtfs.Coordinate) (time.Duration, error)

func (f RouterFunc) DriveDuration(ctx context.Context, from, to gtfs.Coordinate) (time.Duration, error) {
	return f(ctx, from, to)
}

// DefaultSpeedMPH is the StraightLineRouter speed when none is set.
const DefaultSpeedMPH = 30.0

var errNoDistance = errors.New("distance undefined")

// StraightLineRouter assumes a constant speed along the great circle.
type StraightLineRouter struct {
	SpeedMPH float64
}

func (r StraightLineRouter) DriveDuration(_ context.Context, from, to gtfs.Coordinate) (time.Duration, error) {
	speed := r.SpeedMPH
	if speed <= 0 {
		speed = DefaultSpeedMPH
	}
	miles := gtfs.Distance(from, to)
	if math.IsNaN(miles) {
		return 0, errNoDistance
	}
	return time.Duration(miles / speed * float64(time.Hour)), nil
}

// DefaultOSRMURL is the public OSRM demo server.
const DefaultOSRMURL = "https://router.project-osrm.org"

// OSRMRouter asks an OSRM server for the driving duration.
type OSRMRouter struct {
	BaseURL string
	Client  *http.Client
}

func (r OSRMRouter) DriveDuration(ctx context.Context, from, to gtfs.Coordinate) (time.Duration, error) {
	base := strings.TrimRight(r.BaseURL, "/")
	if base == "" {
		base = DefaultOSRMURL
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		base, from.Lng, from.Lat, to.Lng, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("osrm request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("osrm status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var obj struct {
		Code   string `json:"code"`
		Routes []struct {
			Duration float64 `json:"duration"`
			Distance float64 `json:"distance"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return 0, fmt.Errorf("osrm decode: %w", err)
	}
	if len(obj.Routes) == 0 {
		return 0, errors.New("osrm: no route")
	}
	return time.Duration(obj.Routes[0].Duration * float64(time.Second)), nil
}

// CachedRouter memoizes another Router in an expiring LRU cache. Origins
// are rounded to 4 decimal places (~11m) so nearby lookups share an entry;
// destinations are stations and stay exact. Errors are not cached.
type CachedRouter struct {
	next  Router
	cache gcache.Cache
}

// NewCachedRouter wraps next with room for size entries, each living ttl.
func NewCachedRouter(next Router, size int, ttl time.Duration) *CachedRouter {
	if size <= 0 {
		size = 1000
	}
	b := gcache.New(size).LRU()
	if ttl > 0 {
		b = b.Expiration(ttl)
	}
	return &CachedRouter{next: next, cache: b.Build()}
}

func (r *CachedRouter) DriveDuration(ctx context.Context, from, to gtfs.Coordinate) (time.Duration, error) {
	key := cacheKey(from, to)
	if v, err := r.cache.Get(key); err == nil {
		if d, ok := v.(time.Duration); ok {
			return d, nil
		}
	}
	d, err := r.next.DriveDuration(ctx, from, to)
	if err != nil {
		return 0, err
	}
	_ = r.cache.Set(key, d)
	return d, nil
}

func quantizeCoord(coord float64) float64 {
	return math.Round(coord*10000) / 10000
}

func cacheKey(from, to gtfs.Coordinate) string {
	return fmt.Sprintf("%.4f,%.4f,%.6f,%.6f",
		quantizeCoord(from.Lat), quantizeCoord(from.Lng), to.Lat, to.Lng)
}
