// Package config loads and saves the application configuration.
// Configuration lives in a JSON file; sensitive values can be overridden
// through environment variables so they stay out of the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config represents the complete application configuration.
type Config struct {
	Observer  ObserverConfig  `json:"observer"`
	Sources   []SourceConfig  `json:"sources"`
	Feed      FeedConfig      `json:"feed"`
	Map       MapConfig       `json:"map"`
	Trails    TrailsConfig    `json:"trails"`
	Staleness StalenessConfig `json:"staleness"`
	Coverage  CoverageConfig  `json:"coverage"`
	Database  DatabaseConfig  `json:"database"`
	Bookmarks []Bookmark      `json:"bookmarks"`
}

// ObserverConfig contains the receiver's geographic location. This is
// the default map center and the origin for coverage analysis.
type ObserverConfig struct {
	// Name is a friendly identifier for this location
	Name string `json:"name"`

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64 `json:"latitude"`

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64 `json:"longitude"`

	// Elevation in meters above sea level
	Elevation float64 `json:"elevation"`

	// TimeZone is the IANA timezone name (e.g., "America/Chicago")
	TimeZone string `json:"timezone"`
}

// SourceConfig represents a single ADS-B data source.
// Multiple sources can be configured; the fusion engine merges them by
// priority.
type SourceConfig struct {
	// Name is a friendly name for this source
	Name string `json:"name"`

	// Type is the source type: "airplanes.live", "adsbexchange", "local", etc.
	Type string `json:"type"`

	// Enabled determines if this source should be polled
	Enabled bool `json:"enabled"`

	// BaseURL is the API base URL for online sources
	BaseURL string `json:"base_url"`

	// APIKey is the API key for services that require authentication
	APIKey string `json:"api_key,omitempty"`

	// Priority ranks this source against others; higher-priority
	// sources own the displayed data for aircraft they report
	Priority uint8 `json:"priority"`

	// ReceiverLatitude and ReceiverLongitude locate this source's
	// antenna, for coverage analysis. Zero for remote aggregators.
	ReceiverLatitude  float64 `json:"receiver_latitude,omitempty"`
	ReceiverLongitude float64 `json:"receiver_longitude,omitempty"`

	// RequestsPerSecond caps the outbound API call rate
	// airplanes.live: 1.0 or lower to avoid 429 errors
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// FeedConfig contains polling behavior shared by all sources.
type FeedConfig struct {
	// SearchRadiusNM is the aircraft search radius in nautical miles
	SearchRadiusNM float64 `json:"search_radius_nm"`

	// UpdateIntervalSeconds is how often to refresh aircraft data
	UpdateIntervalSeconds int `json:"update_interval_seconds"`
}

// MapConfig contains map view and zoom settings.
type MapConfig struct {
	// DefaultZoomLevel is the discrete tile zoom level at startup (0-19)
	DefaultZoomLevel int `json:"default_zoom_level"`

	// MinZoom and MaxZoom bound the continuous zoom factor
	MinZoom float64 `json:"min_zoom"`
	MaxZoom float64 `json:"max_zoom"`

	// ScrollSensitivity scales mouse wheel zoom deltas
	ScrollSensitivity float64 `json:"scroll_sensitivity"`

	// TileRadius is the tile download radius around the view center
	TileRadius int `json:"tile_radius"`
}

// TrailsConfig controls position trail history.
type TrailsConfig struct {
	// IntervalSeconds is the minimum spacing between trail samples
	IntervalSeconds float64 `json:"interval_seconds"`

	// MaxAgeSeconds is how long trail points are kept
	MaxAgeSeconds float64 `json:"max_age_seconds"`
}

// StalenessConfig controls how aircraft fade as reports age.
type StalenessConfig struct {
	// StaleStartSeconds is the age at which fading begins
	StaleStartSeconds float64 `json:"stale_start_seconds"`

	// StaleFullSeconds is the age at which fading bottoms out
	StaleFullSeconds float64 `json:"stale_full_seconds"`

	// MinOpacity is the opacity floor for fully stale aircraft
	MinOpacity float64 `json:"min_opacity"`
}

// CoverageConfig controls the coverage analysis overlay.
type CoverageConfig struct {
	// Enabled turns coverage accumulation on
	Enabled bool `json:"enabled"`

	// ShowPolygon renders the coverage boundary on the map
	ShowPolygon bool `json:"show_polygon"`

	// ShowStats renders the coverage statistics panel
	ShowStats bool `json:"show_stats"`
}

// DatabaseConfig contains database connection settings for the optional
// track history recorder.
type DatabaseConfig struct {
	// Enabled turns track recording on
	Enabled bool `json:"enabled"`

	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`
}

// Bookmark is a saved map position.
type Bookmark struct {
	// Name is the user-visible label
	Name string `json:"name"`

	// Latitude and Longitude are the saved center in decimal degrees
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// ZoomLevel is the saved discrete tile zoom level
	ZoomLevel uint8 `json:"zoom_level"`
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks ranges that would otherwise surface as confusing
// behavior deep in the view or fusion layers.
func (c *Config) Validate() error {
	if c.Observer.Latitude < -90 || c.Observer.Latitude > 90 {
		return fmt.Errorf("observer latitude %v out of range [-90, 90]", c.Observer.Latitude)
	}
	if c.Observer.Longitude < -180 || c.Observer.Longitude > 180 {
		return fmt.Errorf("observer longitude %v out of range [-180, 180]", c.Observer.Longitude)
	}
	if c.Map.DefaultZoomLevel < 0 || c.Map.DefaultZoomLevel > 19 {
		return fmt.Errorf("default zoom level %d out of range [0, 19]", c.Map.DefaultZoomLevel)
	}
	if c.Map.MinZoom >= c.Map.MaxZoom {
		return fmt.Errorf("min zoom %v must be below max zoom %v", c.Map.MinZoom, c.Map.MaxZoom)
	}
	for _, b := range c.Bookmarks {
		if b.ZoomLevel > 19 {
			return fmt.Errorf("bookmark %q zoom level %d out of range [0, 19]", b.Name, b.ZoomLevel)
		}
	}
	seen := make(map[string]struct{}, len(c.Sources))
	for _, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("source with empty name")
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

// EnabledSources returns the sources that should be polled.
func (c *Config) EnabledSources() []SourceConfig {
	out := make([]SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Observer: ObserverConfig{
			Name:      "Primary Receiver",
			Latitude:  37.6872,
			Longitude: -97.3301,
			Elevation: 0.0,
			TimeZone:  "UTC",
		},
		Sources: []SourceConfig{
			{
				Name:              "airplanes.live",
				Type:              "airplanes.live",
				Enabled:           true,
				BaseURL:           "https://api.airplanes.live/v2",
				Priority:          100,
				RequestsPerSecond: 0.5,
			},
		},
		Feed: FeedConfig{
			SearchRadiusNM:        100.0,
			UpdateIntervalSeconds: 2,
		},
		Map: MapConfig{
			DefaultZoomLevel:  10,
			MinZoom:           0.1,
			MaxZoom:           10.0,
			ScrollSensitivity: 0.1,
			TileRadius:        3,
		},
		Trails: TrailsConfig{
			IntervalSeconds: 2.0,
			MaxAgeSeconds:   300.0,
		},
		Staleness: StalenessConfig{
			StaleStartSeconds: 10.0,
			StaleFullSeconds:  30.0,
			MinOpacity:        0.1,
		},
		Coverage: CoverageConfig{
			Enabled:     false,
			ShowPolygon: true,
			ShowStats:   false,
		},
		Database: DatabaseConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         5432,
			Database:     "airscope",
			Username:     "airscope",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides.
// This allows sensitive data like passwords to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if dbPassword := os.Getenv("AIRSCOPE_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if apiKey := os.Getenv("AIRSCOPE_API_KEY"); apiKey != "" {
		for i := range c.Sources {
			c.Sources[i].APIKey = apiKey
		}
	}
	if lat := os.Getenv("AIRSCOPE_OBSERVER_LAT"); lat != "" {
		if v, err := strconv.ParseFloat(lat, 64); err == nil {
			c.Observer.Latitude = v
		}
	}
	if lon := os.Getenv("AIRSCOPE_OBSERVER_LON"); lon != "" {
		if v, err := strconv.ParseFloat(lon, 64); err == nil {
			c.Observer.Longitude = v
		}
	}
}
