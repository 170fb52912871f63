package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
  allowedOrigins: ["https://homes.example"]
gtfs:
  source: /data/metro-north.zip
gtfsrt:
  tripUpdatesURL: https://feeds.example/tripupdates
  readIntervalMS: 15000
cache:
  kind: sqlite
  path: /var/cache/home-finder.db
commute:
  candidates: 5
  router: osrm
  osrmURL: http://osrm:5000
  stations:
    - stopID: WP
      rideMinutes: 38
    - stopID: SC
      rideMinutes: 33.5
  places:
    - address: 12 Elm St, Scarsdale NY
      lat: 40.99
      lng: -73.81
reporting:
  webhookURL: https://hooks.example/errors
logging:
  level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadAppConfig_File(t *testing.T) {
	cfg, err := LoadAppConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://homes.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "/data/metro-north.zip", cfg.GTFS.Source)
	assert.Equal(t, 60*time.Second, cfg.GTFS.Timeout())
	assert.Equal(t, 15*time.Second, cfg.GTFSRT.ReadInterval())
	assert.Equal(t, "sqlite", cfg.Cache.Kind)
	assert.Equal(t, 5, cfg.Commute.Candidates)
	assert.Equal(t, "osrm", cfg.Commute.Router)
	assert.Equal(t, 15*time.Minute, cfg.Commute.FallbackDrive())
	assert.Equal(t, 24*time.Hour, cfg.Commute.RouteCacheTTL())
	assert.Equal(t, map[string]time.Duration{
		"WP": 38 * time.Minute,
		"SC": 33*time.Minute + 30*time.Second,
	}, cfg.Commute.RideTimes())
	require.Len(t, cfg.Commute.Places, 1)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadAppConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadAppConfig(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadAppConfig_FirstReadablePathWins(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yml")
	p := writeConfig(t, "server:\n  port: 7000\n")
	cfg, err := LoadAppConfig(missing, p)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 45*time.Minute, cfg.Commute.DefaultRide())
}

func TestLoadAppConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "server: [\n"},
		{"port out of range", "server:\n  port: 70000\n"},
		{"unknown cache kind", "cache:\n  kind: redis\n  path: x\n"},
		{"cache without path", "cache:\n  kind: gob\n"},
		{"bad router", "commute:\n  router: teleport\n"},
		{"station without ride", "commute:\n  stations:\n    - stopID: WP\n"},
		{"bad log level", "logging:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAppConfig(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadAppConfig_TripUpdatesFilePath(t *testing.T) {
	cfg, err := LoadAppConfig(writeConfig(t, "gtfsrt:\n  tripUpdatesURL: ./data/trip-updates.pb\n"))
	require.NoError(t, err)
	assert.Equal(t, "./data/trip-updates.pb", cfg.GTFSRT.TripUpdatesURL)
}

func TestLoadAppConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HOME_FINDER_PORT", "8181")
	t.Setenv("HOME_FINDER_GTFS_SOURCE", "https://feeds.example/gtfs.zip")
	t.Setenv("HOME_FINDER_ALLOWED_ORIGINS", "http://a.example, http://b.example,")
	t.Setenv("HOME_FINDER_LOG_DEVELOPMENT", "true")

	cfg, err := LoadAppConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "https://feeds.example/gtfs.zip", cfg.GTFS.Source)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Logging.Development)
}

func TestApplyEnv_BadNumber(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, func(k string) (string, bool) {
		if k == EnvPrefix+"PORT" {
			return "eighty", true
		}
		return "", false
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOME_FINDER_PORT")
}
