// Package config loads the YAML configuration file governing server
// addresses, the upstream feed, static-data cache paths, track-store
// backend selection, weather cache tuning, and the optional NATS bus.
// Grounded on the teacher pack's curbz-decimal-niner/pkg/util.LoadConfig
// generic YAML-file idiom.
package config

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// Duration wraps time.Duration so it can be written in YAML as a plain
// string ("15s", "14d" is invalid — use "336h") — yaml.v3 has no built-in
// support for unmarshaling a duration string into a bare time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Config is the root document loaded from the configured YAML file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Fixed    FixedConfig    `yaml:"fixed"`
	Track    TrackConfig    `yaml:"track"`
	Weather  WeatherConfig  `yaml:"weather"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Bus      BusConfig      `yaml:"bus"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type UpstreamConfig struct {
	URL        string   `yaml:"url"`
	PollPeriod Duration `yaml:"poll_period"`
}

// FixedConfig names the cache paths external parsers (out of scope per
// spec §1) write downloaded static data to and reuse on subsequent runs.
type FixedConfig struct {
	CountriesCachePath string `yaml:"countries_cache_path"`
	ShapesCachePath    string `yaml:"shapes_cache_path"`
	RunwaysCachePath   string `yaml:"runways_cache_path"`
	VATSpyCachePath    string `yaml:"vatspy_cache_path"`
	AircraftDBPath     string `yaml:"aircraft_db_path"`
}

// TrackConfig selects and configures the track-point storage backend. The
// "postgres+clickhouse" and "sqlite+clickhouse" backend values dual-write
// through track.DualStore, primary first.
type TrackConfig struct {
	Backend            string           `yaml:"backend"` // "sqlite" | "postgres" | "clickhouse" | "postgres+clickhouse" | "sqlite+clickhouse"
	SQLitePath         string           `yaml:"sqlite_path"`
	Postgres           PostgresConfig   `yaml:"postgres"`
	ClickHouse         ClickHouseConfig `yaml:"clickhouse"`
	Retention          Duration         `yaml:"retention"`
	CleanupEveryNTicks int              `yaml:"cleanup_every_n_ticks"`
}

// PostgresConfig mirrors track.PostgresConfig's connection fields.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
}

// ClickHouseConfig mirrors track.ClickHouseConfig's connection fields.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type WeatherConfig struct {
	TTL     Duration `yaml:"ttl"`
	BaseURL string   `yaml:"base_url"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type BusConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// Load reads and unmarshals the YAML configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Upstream.PollPeriod == 0 {
		c.Upstream.PollPeriod = Duration(15 * time.Second)
	}
	if c.Track.Backend == "" {
		c.Track.Backend = "sqlite"
	}
	if c.Track.SQLitePath == "" {
		c.Track.SQLitePath = "vatlive_tracks.db"
	}
	if c.Track.Retention == 0 {
		c.Track.Retention = Duration(14 * 24 * time.Hour)
	}
	if c.Track.CleanupEveryNTicks == 0 {
		c.Track.CleanupEveryNTicks = 5
	}
	if c.Weather.TTL == 0 {
		c.Weather.TTL = Duration(15 * time.Minute)
	}
}
