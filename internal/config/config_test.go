package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "ottarr.db", cfg.Database.DSN)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, 7*24*time.Hour, cfg.Sync.CacheTTL)
	assert.Equal(t, 2500, cfg.Sync.BatchSize)
	assert.Equal(t, 5000, cfg.Sync.FlushSize)
	assert.Equal(t, 10, cfg.Sync.ChannelCapacity)
	assert.Equal(t, 10000, cfg.Sync.ProgressInterval)
	assert.Equal(t, 3, cfg.Sync.RetryAttempts)
	assert.Equal(t, time.Second, cfg.Sync.RetryDelay)
	assert.Equal(t, int64(100), cfg.Sync.VerifyTolerance)
	assert.Equal(t, 3*time.Second, cfg.Sync.IdleWindow)
	assert.False(t, cfg.NetGate.RequireTunnel)
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  port: 9999
sync:
  batch_size: 500
  flush_size: 1000
  verify_tolerance: 50
netgate:
  require_tunnel: true
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Sync.BatchSize)
	assert.Equal(t, 1000, cfg.Sync.FlushSize)
	assert.Equal(t, int64(50), cfg.Sync.VerifyTolerance)
	assert.True(t, cfg.NetGate.RequireTunnel)

	// Unset values keep defaults.
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadCalendarDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
sync:
  cache_ttl: 2 weeks
  timeout: 10m
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 14*24*time.Hour, cfg.Sync.CacheTTL)
	assert.Equal(t, 10*time.Minute, cfg.Sync.Timeout)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("OTTARR_SERVER_PORT", "7070")
	t.Setenv("OTTARR_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "invalid driver",
			mutate:  func(c *Config) { c.Database.Driver = "oracle" },
			wantErr: "database.driver",
		},
		{
			name:    "empty dsn",
			mutate:  func(c *Config) { c.Database.DSN = "" },
			wantErr: "database.dsn",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "flush smaller than batch",
			mutate:  func(c *Config) { c.Sync.FlushSize = c.Sync.BatchSize - 1 },
			wantErr: "sync.flush_size",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Sync.BatchSize = 0 },
			wantErr: "sync.batch_size",
		},
		{
			name:    "negative tolerance",
			mutate:  func(c *Config) { c.Sync.VerifyTolerance = -1 },
			wantErr: "sync.verify_tolerance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAddress(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 8090}
	assert.Equal(t, "127.0.0.1:8090", cfg.Address())
}
