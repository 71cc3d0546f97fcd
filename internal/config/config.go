package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultTickInterval  = 5 * time.Second
	DefaultIdleThreshold = 60 * time.Second
	DefaultMaxElapsed    = 120 * time.Second

	DefaultStatePath = "/var/lib/tabwarden/state.json"
	DefaultListen    = "127.0.0.1:7412"

	BackendFile     = "file"
	BackendPostgres = "postgres"

	IdleSourceSurface = "surface"
	IdleSourceDBus    = "dbus"
)

// Duration is a time.Duration that reads from TOML strings like "5s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	if parsed < 0 {
		return fmt.Errorf("duration %q must not be negative", string(text))
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type TrackerConfig struct {
	TickInterval Duration `toml:"tick_interval"`
	// IdleThreshold is checked against the desktop idle time with the dbus
	// source and sent to connected extensions with the surface source.
	IdleThreshold Duration `toml:"idle_threshold"`
	MaxElapsed    Duration `toml:"max_elapsed"`
}

type StoreConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
	DSN     string `toml:"dsn"`
}

type ServerConfig struct {
	Listen         string   `toml:"listen"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type DBusConfig struct {
	Enabled *bool `toml:"enabled"`
	System  bool  `toml:"system"`
}

type NotifyConfig struct {
	Desktop bool `toml:"desktop"`
}

type IdleConfig struct {
	Source string `toml:"source"`
}

type Config struct {
	Debug   bool          `toml:"debug"`
	Tracker TrackerConfig `toml:"tracker"`
	Store   StoreConfig   `toml:"store"`
	Server  ServerConfig  `toml:"server"`
	DBus    DBusConfig    `toml:"dbus"`
	Notify  NotifyConfig  `toml:"notify"`
	Idle    IdleConfig    `toml:"idle"`
}

// SetDefault fills every unset field with its built-in default.
func (c *Config) SetDefault() {
	if c.Tracker.TickInterval == 0 {
		c.Tracker.TickInterval = Duration(DefaultTickInterval)
	}
	if c.Tracker.IdleThreshold == 0 {
		c.Tracker.IdleThreshold = Duration(DefaultIdleThreshold)
	}
	if c.Tracker.MaxElapsed == 0 {
		c.Tracker.MaxElapsed = Duration(DefaultMaxElapsed)
	}

	if c.Store.Backend == "" {
		c.Store.Backend = BackendFile
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStatePath
	}

	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.AllowedOrigins == nil {
		c.Server.AllowedOrigins = []string{"chrome-extension://*", "moz-extension://*"}
	}

	if c.DBus.Enabled == nil {
		defaultVal := true
		c.DBus.Enabled = &defaultVal
	}

	if c.Idle.Source == "" {
		c.Idle.Source = IdleSourceSurface
	}
}

// Validate rejects combinations the daemon cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile:
	case BackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store backend %q requires a dsn", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Idle.Source {
	case IdleSourceSurface, IdleSourceDBus:
	default:
		return fmt.Errorf("unknown idle source %q", c.Idle.Source)
	}

	if c.Tracker.IdleThreshold.Std() < time.Second {
		return fmt.Errorf("idle_threshold must be at least 1s")
	}
	return nil
}

func LoadConfigFromFile(path string) (*Config, error) {
	file, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	config.SetDefault()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	config.SetDefault()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
