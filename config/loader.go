package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "HOME_FINDER_"

// DefaultPaths are searched in order when LoadAppConfig gets no paths
var DefaultPaths = []string{"config.yml", "./config/config.yml"}

// Default returns the configuration used when no file is found
func Default() AppConfig {
	return AppConfig{
		Server: ServerConfig{Port: 8080, AllowedOrigins: []string{"*"}},
		GTFS:   GTFSConfig{Source: "data/gtfs", TimeoutMS: 60000},
		GTFSRT: GTFSRTConfig{ReadIntervalMS: 30000, TimeoutMS: 10000},
		Commute: CommuteConfig{
			Candidates:           3,
			FallbackDriveMinutes: 15,
			DefaultRideMinutes:   45,
			AverageSpeedMPH:      30,
			Router:               "straight",
			RouteCacheSize:       10000,
			RouteCacheTTLMinutes: 24 * 60,
		},
		Reporting: ReportingConfig{MaxStored: 10},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// LoadAppConfig loads the first readable file of paths (DefaultPaths when
// empty) over Default, applies .env and HOME_FINDER_* overrides and
// validates the result. A missing file is not an error.
func LoadAppConfig(paths ...string) (AppConfig, error) {
	_ = godotenv.Load()

	if len(paths) == 0 {
		paths = DefaultPaths
	}
	cfg := Default()

	var data []byte
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err == nil {
			data = b
			break
		}
		if !errors.Is(err, os.ErrNotExist) {
			return AppConfig{}, fmt.Errorf("read config %s: %w", p, err)
		}
	}
	if data != nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return AppConfig{}, err
	}
	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks struct tags on the whole tree
func Validate(cfg AppConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *AppConfig, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}

	str("GTFS_SOURCE", &cfg.GTFS.Source)
	str("TRIP_UPDATES_URL", &cfg.GTFSRT.TripUpdatesURL)
	str("CACHE_KIND", &cfg.Cache.Kind)
	str("CACHE_PATH", &cfg.Cache.Path)
	str("ROUTER", &cfg.Commute.Router)
	str("OSRM_URL", &cfg.Commute.OSRMURL)
	str("WEBHOOK_URL", &cfg.Reporting.WebhookURL)
	str("LOG_LEVEL", &cfg.Logging.Level)
	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup(EnvPrefix + "LOG_DEVELOPMENT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sLOG_DEVELOPMENT: %w", EnvPrefix, err)
		}
		cfg.Logging.Development = b
	}
	if err := num("PORT", &cfg.Server.Port); err != nil {
		return err
	}
	return num("READ_INTERVAL_MS", &cfg.GTFSRT.ReadIntervalMS)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
