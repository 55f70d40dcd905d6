// Package config provides configuration management for ottarr using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/jwhitfield/ottarr/pkg/duration"
)

// Default configuration values.
const (
	defaultServerPort      = 8090
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxIdleTime = 30 * time.Minute

	defaultCacheTTL         = 7 * 24 * time.Hour
	defaultBatchSize        = 2500
	defaultFlushSize        = 5000
	defaultChannelCapacity  = 10
	defaultProgressInterval = 10000
	defaultRetryAttempts    = 3
	defaultRetryDelay       = 1 * time.Second
	defaultVerifyTolerance  = 100
	defaultSyncTimeout      = 5 * time.Minute
	defaultIdleWindow       = 3 * time.Second
	defaultHTTPTimeout      = 2 * time.Minute
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Sync      SyncConfig      `mapstructure:"sync"`
	NetGate   NetGateConfig   `mapstructure:"netgate"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// SyncConfig holds catalog synchronization configuration.
type SyncConfig struct {
	// CacheTTL is the staleness TTL; cached data older than this is
	// refreshed regardless of other freshness signals.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// BatchSize is the number of parsed elements per mapped batch.
	// Transaction-size tuning, distinct from FlushSize.
	BatchSize int `mapstructure:"batch_size"`

	// FlushSize is the number of accumulated rows enqueued to the write
	// channel at a time, amortizing transaction overhead.
	FlushSize int `mapstructure:"flush_size"`

	// ChannelCapacity bounds the write queue; the parser blocks when
	// the writer falls this many batches behind.
	ChannelCapacity int `mapstructure:"channel_capacity"`

	// ProgressInterval is how many parsed elements between progress events.
	ProgressInterval int `mapstructure:"progress_interval"`

	// RetryAttempts is the total number of fetch attempts.
	RetryAttempts int `mapstructure:"retry_attempts"`

	// RetryDelay is the initial delay between fetch retries; doubles each retry.
	RetryDelay time.Duration `mapstructure:"retry_delay"`

	// VerifyTolerance is the maximum absolute divergence allowed between
	// the reported written count and the actual row count after ingest.
	// Tunable, not a correctness guarantee.
	VerifyTolerance int64 `mapstructure:"verify_tolerance"`

	// Timeout is the parent timeout wrapping synchronous sync call sites.
	Timeout time.Duration `mapstructure:"timeout"`

	// IdleWindow is how long without user interaction before queued
	// content-change notifications are flushed.
	IdleWindow time.Duration `mapstructure:"idle_window"`

	// HTTPTimeout is the per-request timeout for provider API calls.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// NetGateConfig holds the network-posture gate configuration.
type NetGateConfig struct {
	// RequireTunnel makes every sync fail fast unless a tunnel
	// interface (tun/tap/wireguard) is up.
	RequireTunnel bool `mapstructure:"require_tunnel"`
}

// SchedulerConfig holds background refresh scheduling configuration.
type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// DefaultCron is the refresh schedule for sources without their own.
	DefaultCron string `mapstructure:"default_cron"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration and are
// prefixed with OTTARR_, using underscores for nesting.
// Example: OTTARR_SERVER_PORT=8090.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/ottarr")
		v.AddConfigPath("$HOME/.ottarr")
	}

	v.SetEnvPrefix("OTTARR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not found is fine - defaults and env vars apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, DecodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// DecodeHook returns the unmarshal option used for every config decode.
// Duration fields accept calendar units ("7d", "2 weeks") in addition to
// the standard Go forms, via pkg/duration. Supplying a hook replaces
// viper's built-in set, so the string-to-slice hook is restated here.
func DecodeHook() viper.DecoderConfigOption {
	durationType := reflect.TypeOf(time.Duration(0))
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		func(from reflect.Type, to reflect.Type, data any) (any, error) {
			if from.Kind() != reflect.String || to != durationType {
				return data, nil
			}
			return duration.Parse(data.(string))
		},
		mapstructure.StringToSliceHookFunc(","),
	))
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "ottarr.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Sync defaults
	v.SetDefault("sync.cache_ttl", defaultCacheTTL)
	v.SetDefault("sync.batch_size", defaultBatchSize)
	v.SetDefault("sync.flush_size", defaultFlushSize)
	v.SetDefault("sync.channel_capacity", defaultChannelCapacity)
	v.SetDefault("sync.progress_interval", defaultProgressInterval)
	v.SetDefault("sync.retry_attempts", defaultRetryAttempts)
	v.SetDefault("sync.retry_delay", defaultRetryDelay)
	v.SetDefault("sync.verify_tolerance", defaultVerifyTolerance)
	v.SetDefault("sync.timeout", defaultSyncTimeout)
	v.SetDefault("sync.idle_window", defaultIdleWindow)
	v.SetDefault("sync.http_timeout", defaultHTTPTimeout)

	// Network gate defaults
	v.SetDefault("netgate.require_tunnel", false)

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.default_cron", "0 6 * * *")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, postgres, mysql")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Sync.BatchSize < 1 {
		return fmt.Errorf("sync.batch_size must be at least 1")
	}
	if c.Sync.FlushSize < c.Sync.BatchSize {
		return fmt.Errorf("sync.flush_size must be >= sync.batch_size")
	}
	if c.Sync.ChannelCapacity < 1 {
		return fmt.Errorf("sync.channel_capacity must be at least 1")
	}
	if c.Sync.RetryAttempts < 1 {
		return fmt.Errorf("sync.retry_attempts must be at least 1")
	}
	if c.Sync.VerifyTolerance < 0 {
		return fmt.Errorf("sync.verify_tolerance must not be negative")
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
