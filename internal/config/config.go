// Package config defines the configuration for the seasafe service.
// Configuration is loaded once at process start and is immutable thereafter,
// strictly separating code from configuration. Values come from the OS
// environment, optionally augmented by a .env file, with safety thresholds
// overridable from a YAML file.
package config

import (
	"time"

	"seasafe/internal/types"
)

// Config is the top-level configuration struct. Populated once during process
// initialization and never modified. Components receive only the subsets
// they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"seasafe"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server     ServerConfig
	Upstream   UpstreamConfig
	Database   DatabaseConfig
	Poller     PollerConfig
	Thresholds ThresholdsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// UpstreamConfig holds the weather provider endpoints and fetch policy.
type UpstreamConfig struct {
	MarineBaseURL   string        `envconfig:"MARINE_API_URL" default:"https://marine-api.open-meteo.com" validate:"url"`
	ForecastBaseURL string        `envconfig:"FORECAST_API_URL" default:"https://api.open-meteo.com" validate:"url"`
	UserAgent       string        `envconfig:"UPSTREAM_USER_AGENT" default:"seasafe/1.0"`
	Timeout         time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"300s"`
	ForecastDays    int           `envconfig:"FORECAST_DAYS" default:"2" validate:"gte=1,lte=7"`
}

// DatabaseConfig holds connection and pool tuning parameters. URL may be
// empty, in which case persistence is disabled and evaluation runs purely
// in-memory.
type DatabaseConfig struct {
	URL             string        `envconfig:"DATABASE_URL"`
	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
}

// PollerConfig holds the watch locations re-evaluated on every poll cycle.
// Locations is a comma-separated list of name:lat:lon entries, e.g.
// "split:43.51:16.44,hvar:43.17:16.44".
type PollerConfig struct {
	Locations []string      `envconfig:"WATCH_LOCATIONS"`
	Interval  time.Duration `envconfig:"POLL_INTERVAL" default:"300s"`
	Retention time.Duration `envconfig:"SAMPLE_RETENTION" default:"720h"`
}

// ThresholdsConfig points to an optional YAML file overriding the default
// safety thresholds.
type ThresholdsConfig struct {
	File string `envconfig:"THRESHOLDS_FILE"`

	// Loaded is the resolved threshold set (defaults merged with the file).
	// Populated by LoadConfig, not by envconfig.
	Loaded types.SafetyThresholds `ignored:"true"`
}
