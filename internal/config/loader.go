// loader.go implements the configuration loading lifecycle:
//
//  1. Enforce UTC timezone to prevent drift bugs.
//  2. Load a .env file via godotenv (non-fatal if absent).
//  3. Process envconfig struct tags to populate Config.
//  4. Resolve safety thresholds (defaults, optionally overridden from YAML).
//  5. Validate via go-playground/validator plus threshold ordering rules.
//
// Any missing or invalid value fails startup immediately (fail fast).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"seasafe/internal/types"
)

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	ErrParsing    ConfigErrorType = "PARSING_FAILED"
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	ErrThresholds ConfigErrorType = "THRESHOLDS_INVALID"
)

// ConfigError is the diagnostic error type returned by LoadConfig.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LoadConfig loads and validates the service configuration.
func LoadConfig() (*Config, error) {
	// Enforce UTC; all timestamps in the system are UTC.
	time.Local = time.UTC

	// .env is a local development convenience; it never overrides values
	// already present in the environment.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to parse environment configuration",
			Err:     err,
		}
	}

	thresholds, err := loadThresholds(cfg.Thresholds.File)
	if err != nil {
		return nil, err
	}
	cfg.Thresholds.Loaded = thresholds

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadThresholds resolves the safety thresholds: defaults, with any fields
// present in the YAML file overriding them. An empty path keeps the defaults.
func loadThresholds(path string) (types.SafetyThresholds, error) {
	thresholds := types.DefaultThresholds()
	if path == "" {
		return thresholds, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return thresholds, &ConfigError{
			Type:    ErrThresholds,
			Message: fmt.Sprintf("reading thresholds file %s", path),
			Err:     err,
		}
	}

	// Unmarshal over the defaults so omitted keys keep their default values.
	if err := yaml.Unmarshal(data, &thresholds); err != nil {
		return thresholds, &ConfigError{
			Type:    ErrThresholds,
			Message: fmt.Sprintf("parsing thresholds file %s", path),
			Err:     err,
		}
	}

	if err := thresholds.Validate(); err != nil {
		return thresholds, &ConfigError{
			Type:    ErrThresholds,
			Message: "threshold ordering invariant violated",
			Err:     err,
		}
	}

	return thresholds, nil
}

// validate runs struct validation over the populated configuration.
func validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "configuration failed validation",
			Err:     err,
		}
	}
	if err := cfg.Thresholds.Loaded.Validate(); err != nil {
		return &ConfigError{
			Type:    ErrThresholds,
			Message: "threshold ordering invariant violated",
			Err:     err,
		}
	}
	return nil
}

// ParseWatchLocations parses the name:lat:lon entries from PollerConfig.
func ParseWatchLocations(entries []string) ([]types.WatchLocation, error) {
	locations := make([]types.WatchLocation, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, &ConfigError{
				Type:    ErrParsing,
				Message: fmt.Sprintf("watch location %q must be name:lat:lon", entry),
			}
		}

		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, &ConfigError{
				Type:    ErrParsing,
				Message: fmt.Sprintf("watch location %q has invalid latitude", entry),
				Err:     err,
			}
		}
		lon, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, &ConfigError{
				Type:    ErrParsing,
				Message: fmt.Sprintf("watch location %q has invalid longitude", entry),
				Err:     err,
			}
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, &ConfigError{
				Type:    ErrParsing,
				Message: fmt.Sprintf("watch location %q is out of range", entry),
			}
		}

		locations = append(locations, types.WatchLocation{
			Name:     parts[0],
			Location: types.Location{Lat: lat, Lon: lon},
		})
	}
	return locations, nil
}
