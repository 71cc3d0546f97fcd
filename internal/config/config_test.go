package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshalText(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    time.Duration
		expectError bool
	}{
		{"Seconds", "5s", 5 * time.Second, false},
		{"Minutes", "2m", 2 * time.Minute, false},
		{"Mixed", "1m30s", 90 * time.Second, false},
		{"Negative", "-5s", 0, true},
		{"Garbage", "five seconds", 0, true},
		{"Empty string", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, d.Std())
			}
		})
	}
}

func TestSetDefault(t *testing.T) {
	var config Config
	config.SetDefault()

	assert.Equal(t, DefaultTickInterval, config.Tracker.TickInterval.Std())
	assert.Equal(t, DefaultIdleThreshold, config.Tracker.IdleThreshold.Std())
	assert.Equal(t, DefaultMaxElapsed, config.Tracker.MaxElapsed.Std())
	assert.Equal(t, BackendFile, config.Store.Backend)
	assert.Equal(t, DefaultStatePath, config.Store.Path)
	assert.Equal(t, DefaultListen, config.Server.Listen)
	assert.Equal(t, IdleSourceSurface, config.Idle.Source)
	require.NotNil(t, config.DBus.Enabled)
	assert.True(t, *config.DBus.Enabled)
	assert.False(t, config.Notify.Desktop)
}

func TestSetDefault_KeepsExplicitValues(t *testing.T) {
	disabled := false
	config := Config{
		Tracker: TrackerConfig{TickInterval: Duration(10 * time.Second)},
		DBus:    DBusConfig{Enabled: &disabled},
		Server:  ServerConfig{AllowedOrigins: []string{}},
	}
	config.SetDefault()

	assert.Equal(t, 10*time.Second, config.Tracker.TickInterval.Std())
	assert.False(t, *config.DBus.Enabled)
	assert.Empty(t, config.Server.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Defaults", func(c *Config) {}, false},
		{"Postgres without dsn", func(c *Config) { c.Store.Backend = BackendPostgres }, true},
		{"Postgres with dsn", func(c *Config) {
			c.Store.Backend = BackendPostgres
			c.Store.DSN = "postgres://localhost/tabwarden"
		}, false},
		{"Unknown backend", func(c *Config) { c.Store.Backend = "redis" }, true},
		{"Unknown idle source", func(c *Config) { c.Idle.Source = "x11" }, true},
		{"Tiny idle threshold", func(c *Config) { c.Tracker.IdleThreshold = Duration(time.Millisecond) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.SetDefault()
			tt.mutate(&c)
			if tt.expectError {
				assert.Error(t, c.Validate())
			} else {
				assert.NoError(t, c.Validate())
			}
		})
	}
}

const exampleToml = `
debug = true

[tracker]
tick_interval = "10s"
idle_threshold = "90s"

[store]
backend = "file"
path = "/tmp/tabwarden.json"

[server]
listen = "127.0.0.1:9000"
allowed_origins = ["chrome-extension://abcdef"]

[dbus]
enabled = false

[notify]
desktop = true

[idle]
source = "dbus"
`

func TestLoadConfigFromBytes(t *testing.T) {
	config, err := LoadConfigFromBytes([]byte(exampleToml))
	require.NoError(t, err)

	assert.True(t, config.Debug)
	assert.Equal(t, 10*time.Second, config.Tracker.TickInterval.Std())
	assert.Equal(t, 90*time.Second, config.Tracker.IdleThreshold.Std())
	assert.Equal(t, DefaultMaxElapsed, config.Tracker.MaxElapsed.Std())
	assert.Equal(t, "/tmp/tabwarden.json", config.Store.Path)
	assert.Equal(t, "127.0.0.1:9000", config.Server.Listen)
	assert.Equal(t, []string{"chrome-extension://abcdef"}, config.Server.AllowedOrigins)
	assert.False(t, *config.DBus.Enabled)
	assert.True(t, config.Notify.Desktop)
	assert.Equal(t, IdleSourceDBus, config.Idle.Source)
}

func TestLoadConfigFromBytes_Invalid(t *testing.T) {
	_, err := LoadConfigFromBytes([]byte(`[tracker]
tick_interval = "soon"`))
	assert.Error(t, err)
}

func TestLoadConfigFromFile(t *testing.T) {
	tempFile, err := os.CreateTemp(t.TempDir(), "config-*.toml")
	require.NoError(t, err)
	_, err = tempFile.Write([]byte(exampleToml))
	require.NoError(t, err)
	tempFile.Close()

	config, err := LoadConfigFromFile(tempFile.Name())
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, config.Tracker.TickInterval.Std())
	assert.Equal(t, IdleSourceDBus, config.Idle.Source)
}

func TestLoadConfigFromFile_CreatesMissingFile(t *testing.T) {
	path := t.TempDir() + "/config.toml"

	config, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTickInterval, config.Tracker.TickInterval.Std())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
