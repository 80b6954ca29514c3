// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort                = 8080
	defaultServerHost                = "0.0.0.0"
	defaultReadTimeout               = 30 * time.Second
	defaultRequestTimeout            = 5 * time.Second
	defaultDatabaseDriver            = DriverSQLite
	defaultDatabasePath              = "./data/grooveray.db"
	defaultDatabaseConnectionTimeout = 5 * time.Second
	defaultDatabaseEnableWAL         = true
	defaultDatabaseBusyTimeout       = 5 * time.Second
	defaultDatabaseMigrationsPath    = "file://./migrations"
	defaultDatabaseConnectMaxElapsed = 30 * time.Second
	defaultLogLevel                  = "info"
	defaultLogPretty                 = false
	defaultJWTSecret                 = "grooveray-dev-secret-change-in-production"
	defaultUserClaim                 = "userId"
	defaultTickInterval              = 5 * time.Second
	defaultTrackDuration             = 60 * time.Second
	defaultAdvanceTimeout            = 4 * time.Second
	defaultMaxConcurrentAdvances     = 8
	defaultBreakerThreshold          = 3
	defaultBreakerResetTimeout       = 30 * time.Second
	defaultSubscriberBuffer          = 32
	defaultPingInterval              = 30 * time.Second
	defaultRealtimeWriteTimeout      = 10 * time.Second
	defaultRateLimitRequests         = 30
	defaultRateLimitWindow           = time.Minute
	envPrefix                        = "GROOVERAY"

	// DriverSQLite selects the embedded SQLite store.
	DriverSQLite = "sqlite"
	// DriverPostgres selects a PostgreSQL server.
	DriverPostgres = "postgres"
)

// DefaultJWTSecret is the development signing secret. Deployments should override it.
const DefaultJWTSecret = defaultJWTSecret

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Auth      AuthConfig
	Playback  PlaybackConfig
	Realtime  RealtimeConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int
	Host           string
	ReadTimeout    time.Duration
	RequestTimeout time.Duration
	CORSOrigins    []string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver            string
	Path              string
	DSN               string
	ConnectionTimeout time.Duration
	EnableWAL         bool
	BusyTimeout       time.Duration
	MigrationsPath    string
	ConnectMaxElapsed time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// AuthConfig holds JWT verification settings
type AuthConfig struct {
	JWTSecret string
	UserClaim string
}

// PlaybackConfig holds the advancement policy and scheduler tuning
type PlaybackConfig struct {
	TickInterval          time.Duration
	DefaultTrackDuration  time.Duration
	AdvanceTimeout        time.Duration
	MaxConcurrentAdvances int
	BreakerThreshold      int
	BreakerResetTimeout   time.Duration
}

// RealtimeConfig holds broadcaster and transport settings
type RealtimeConfig struct {
	SubscriberBuffer int
	PingInterval     time.Duration
	WriteTimeout     time.Duration
	AllowedOrigins   []string
}

// RateLimitConfig limits queue and vote mutations per client
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/grooveray")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.requesttimeout", defaultRequestTimeout)
	v.SetDefault("server.corsorigins", []string{"*"})

	v.SetDefault("database.driver", defaultDatabaseDriver)
	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.connectiontimeout", defaultDatabaseConnectionTimeout)
	v.SetDefault("database.enablewal", defaultDatabaseEnableWAL)
	v.SetDefault("database.busytimeout", defaultDatabaseBusyTimeout)
	v.SetDefault("database.migrationspath", defaultDatabaseMigrationsPath)
	v.SetDefault("database.connectmaxelapsed", defaultDatabaseConnectMaxElapsed)

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	v.SetDefault("auth.jwtsecret", defaultJWTSecret)
	v.SetDefault("auth.userclaim", defaultUserClaim)

	v.SetDefault("playback.tickinterval", defaultTickInterval)
	v.SetDefault("playback.defaulttrackduration", defaultTrackDuration)
	v.SetDefault("playback.advancetimeout", defaultAdvanceTimeout)
	v.SetDefault("playback.maxconcurrentadvances", defaultMaxConcurrentAdvances)
	v.SetDefault("playback.breakerthreshold", defaultBreakerThreshold)
	v.SetDefault("playback.breakerresettimeout", defaultBreakerResetTimeout)

	v.SetDefault("realtime.subscriberbuffer", defaultSubscriberBuffer)
	v.SetDefault("realtime.pinginterval", defaultPingInterval)
	v.SetDefault("realtime.writetimeout", defaultRealtimeWriteTimeout)
	v.SetDefault("realtime.allowedorigins", []string{"*"})

	v.SetDefault("ratelimit.requests", defaultRateLimitRequests)
	v.SetDefault("ratelimit.window", defaultRateLimitWindow)
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("invalid request timeout: %v (must be > 0)", c.Server.RequestTimeout)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be one of: %s, %s)", c.Database.Driver, DriverSQLite, DriverPostgres)
	}
	if c.Database.ConnectionTimeout <= 0 {
		return fmt.Errorf("invalid database connection timeout: %v (must be > 0)", c.Database.ConnectionTimeout)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("auth jwt secret must not be empty")
	}
	if c.Auth.UserClaim == "" {
		return errors.New("auth user claim must not be empty")
	}

	if c.Playback.TickInterval <= 0 {
		return fmt.Errorf("invalid tick interval: %v (must be > 0)", c.Playback.TickInterval)
	}
	if c.Playback.DefaultTrackDuration <= 0 {
		return fmt.Errorf("invalid default track duration: %v (must be > 0)", c.Playback.DefaultTrackDuration)
	}
	if c.Playback.AdvanceTimeout <= 0 {
		return fmt.Errorf("invalid advance timeout: %v (must be > 0)", c.Playback.AdvanceTimeout)
	}
	if c.Playback.MaxConcurrentAdvances < 1 {
		return fmt.Errorf("invalid max concurrent advances: %d (must be >= 1)", c.Playback.MaxConcurrentAdvances)
	}
	if c.Playback.BreakerThreshold < 1 {
		return fmt.Errorf("invalid breaker threshold: %d (must be >= 1)", c.Playback.BreakerThreshold)
	}

	if c.Realtime.SubscriberBuffer < 1 {
		return fmt.Errorf("invalid subscriber buffer: %d (must be >= 1)", c.Realtime.SubscriberBuffer)
	}

	if c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("invalid rate limit: %d per %v", c.RateLimit.Requests, c.RateLimit.Window)
	}

	return nil
}
