package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seasafe/internal/types"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://marine-api.open-meteo.com", cfg.Upstream.MarineBaseURL)
	assert.Equal(t, types.DefaultThresholds(), cfg.Thresholds.Loaded)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_InvalidEnvironmentFails(t *testing.T) {
	t.Setenv("APP_ENV", "production") // not a valid value; must be "prod"

	_, err := LoadConfig()
	require.Error(t, err)

	cfgErr, ok := err.(*ConfigError)
	require.True(t, ok)
	assert.Equal(t, ErrValidation, cfgErr.Type)
}

func TestLoadThresholds_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	content := "wave_height_caution: 0.8\ncaution_multiplier: 3.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	thresholds, err := loadThresholds(path)
	require.NoError(t, err)

	assert.Equal(t, 0.8, thresholds.WaveHeightCaution)
	assert.Equal(t, 3.0, thresholds.CautionMultiplier)
	// Omitted keys keep their defaults.
	assert.Equal(t, types.DefaultWaveHeightDangerous, thresholds.WaveHeightDangerous)
	assert.Equal(t, types.DefaultVisibilityBlocked, thresholds.VisibilityBlocked)
}

func TestLoadThresholds_RejectsBrokenOrdering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	// Caution above dangerous violates the ascending-severity invariant.
	content := "wave_height_caution: 2.5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := loadThresholds(path)
	require.Error(t, err)

	cfgErr, ok := err.(*ConfigError)
	require.True(t, ok)
	assert.Equal(t, ErrThresholds, cfgErr.Type)
}

func TestLoadThresholds_MissingFileFails(t *testing.T) {
	_, err := loadThresholds("/nonexistent/thresholds.yaml")
	require.Error(t, err)
}

func TestParseWatchLocations(t *testing.T) {
	locations, err := ParseWatchLocations([]string{"split:43.51:16.44", "hvar:43.17:16.44"})
	require.NoError(t, err)
	require.Len(t, locations, 2)

	assert.Equal(t, "split", locations[0].Name)
	assert.Equal(t, 43.51, locations[0].Location.Lat)
	assert.Equal(t, 16.44, locations[0].Location.Lon)
}

func TestParseWatchLocations_Invalid(t *testing.T) {
	tests := []string{
		"split",
		"split:43.51",
		"split:abc:16.44",
		"split:43.51:xyz",
		"split:95.0:16.44",
	}
	for _, entry := range tests {
		if _, err := ParseWatchLocations([]string{entry}); err == nil {
			t.Errorf("expected error for %q", entry)
		}
	}
}
