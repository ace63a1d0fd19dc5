package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/obsmine/weather-obs-pipeline/internal/pipeline"
)

// Lookback bounds in days. Requests outside the range are clamped by
// the API layer, never sent to the provider.
const (
	MinLookbackDays = 1
	MaxLookbackDays = 14
)

type AppConfig struct {
	// Locations is the fixed name -> (lat, lon) table the pipeline tracks.
	Locations []pipeline.Location

	// LocalTZ is the target zone for display and daily aggregation.
	LocalTZ *time.Location

	// CacheDir holds one cache file per location.
	CacheDir string

	// DefaultLookbackDays applies when a request omits the window.
	DefaultLookbackDays int

	// AnomalyWindow is the default rolling z-score window in samples.
	AnomalyWindow int

	// FetchInterval controls how often the scheduler refreshes each location.
	FetchInterval time.Duration

	// HTTPTimeout bounds the outbound provider call.
	HTTPTimeout time.Duration

	Port string
}

// defaultLocations mirrors the western-Colorado location table the
// system was built around. Overridable via LOCATIONS.
var defaultLocations = []pipeline.Location{
	{Name: "Grand Junction, CO", Latitude: 39.0639, Longitude: -108.5506},
	{Name: "Fruita, CO", Latitude: 39.1589, Longitude: -108.7280},
	{Name: "Palisade, CO", Latitude: 39.1108, Longitude: -108.3509},
	{Name: "Montrose, CO", Latitude: 38.4783, Longitude: -107.8762},
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	tzName := getenvDefault("LOCAL_TZ", "America/Denver")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCAL_TZ %q: %w", tzName, err)
	}
	cfg.LocalTZ = tz

	cfg.CacheDir = getenvDefault("CACHE_DIR", "data")

	cfg.DefaultLookbackDays = getenvInt("DEFAULT_LOOKBACK_DAYS", 7)
	if cfg.DefaultLookbackDays < MinLookbackDays || cfg.DefaultLookbackDays > MaxLookbackDays {
		return nil, fmt.Errorf("DEFAULT_LOOKBACK_DAYS must be between %d and %d", MinLookbackDays, MaxLookbackDays)
	}

	cfg.AnomalyWindow = getenvInt("ANOMALY_WINDOW", 24)
	if cfg.AnomalyWindow < 2 {
		return nil, fmt.Errorf("ANOMALY_WINDOW must be at least 2")
	}

	intervalStr := getenvDefault("FETCH_INTERVAL", "1h")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.Port = getenvDefault("PORT", "8080")

	locs, err := loadLocations()
	if err != nil {
		return nil, err
	}
	cfg.Locations = locs

	return cfg, nil
}

// LocationByName resolves a configured location; ok is false for
// unknown names.
func (c *AppConfig) LocationByName(name string) (pipeline.Location, bool) {
	for _, loc := range c.Locations {
		if loc.Name == name {
			return loc, true
		}
	}
	return pipeline.Location{}, false
}

// ClampLookback forces a requested window into the allowed range, with
// the configured default for non-positive input.
func (c *AppConfig) ClampLookback(days int) int {
	if days <= 0 {
		return c.DefaultLookbackDays
	}
	if days < MinLookbackDays {
		return MinLookbackDays
	}
	if days > MaxLookbackDays {
		return MaxLookbackDays
	}
	return days
}

// loadLocations parses LOCATIONS entries of the form
// "Name=lat,lon;Name=lat,lon". An unset variable keeps the defaults.
func loadLocations() ([]pipeline.Location, error) {
	raw := os.Getenv("LOCATIONS")
	if raw == "" {
		return defaultLocations, nil
	}

	var locs []pipeline.Location
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, coords, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid LOCATIONS entry %q: want Name=lat,lon", entry)
		}
		latStr, lonStr, ok := strings.Cut(coords, ",")
		if !ok {
			return nil, fmt.Errorf("invalid LOCATIONS entry %q: want Name=lat,lon", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in LOCATIONS entry %q: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in LOCATIONS entry %q: %w", entry, err)
		}
		locs = append(locs, pipeline.Location{Name: strings.TrimSpace(name), Latitude: lat, Longitude: lon})
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("LOCATIONS is set but empty")
	}
	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
