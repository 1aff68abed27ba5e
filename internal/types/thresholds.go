package types

import "fmt"

// Default threshold boundaries and multipliers. Wave heights in meters,
// wind speeds in km/h, visibility in meters.
const (
	DefaultWaveHeightCaution   = 1.0
	DefaultWaveHeightDangerous = 2.0
	DefaultWaveHeightBlocked   = 3.0

	DefaultWindSpeedCaution   = 30.0
	DefaultWindSpeedDangerous = 45.0
	DefaultWindSpeedBlocked   = 60.0

	DefaultVisibilityCaution   = 5000.0
	DefaultVisibilityDangerous = 2000.0
	DefaultVisibilityBlocked   = 500.0

	DefaultCautionMultiplier   = 2.0
	DefaultDangerousMultiplier = 5.0
)

// SafetyThresholds bundles the boundary values and cost multipliers used by
// the safety evaluator. It is constructed once at startup and treated as
// read-only configuration thereafter; inject it as a parameter rather than
// reading shared globals.
//
// Wave height and wind speed thresholds ascend in severity by increasing
// value; visibility thresholds ascend in severity by decreasing value (lower
// visibility is worse). The blocked cost multiplier is always +Inf and is not
// configurable.
type SafetyThresholds struct {
	WaveHeightCaution   float64 `yaml:"wave_height_caution" json:"wave_height_caution" validate:"gt=0"`
	WaveHeightDangerous float64 `yaml:"wave_height_dangerous" json:"wave_height_dangerous" validate:"gt=0"`
	WaveHeightBlocked   float64 `yaml:"wave_height_blocked" json:"wave_height_blocked" validate:"gt=0"`

	WindSpeedCaution   float64 `yaml:"wind_speed_caution" json:"wind_speed_caution" validate:"gt=0"`
	WindSpeedDangerous float64 `yaml:"wind_speed_dangerous" json:"wind_speed_dangerous" validate:"gt=0"`
	WindSpeedBlocked   float64 `yaml:"wind_speed_blocked" json:"wind_speed_blocked" validate:"gt=0"`

	VisibilityCaution   float64 `yaml:"visibility_caution" json:"visibility_caution" validate:"gt=0"`
	VisibilityDangerous float64 `yaml:"visibility_dangerous" json:"visibility_dangerous" validate:"gt=0"`
	VisibilityBlocked   float64 `yaml:"visibility_blocked" json:"visibility_blocked" validate:"gt=0"`

	CautionMultiplier   float64 `yaml:"caution_multiplier" json:"caution_multiplier" validate:"gte=1"`
	DangerousMultiplier float64 `yaml:"dangerous_multiplier" json:"dangerous_multiplier" validate:"gte=1"`
}

// DefaultThresholds returns the standard threshold configuration.
func DefaultThresholds() SafetyThresholds {
	return SafetyThresholds{
		WaveHeightCaution:   DefaultWaveHeightCaution,
		WaveHeightDangerous: DefaultWaveHeightDangerous,
		WaveHeightBlocked:   DefaultWaveHeightBlocked,
		WindSpeedCaution:    DefaultWindSpeedCaution,
		WindSpeedDangerous:  DefaultWindSpeedDangerous,
		WindSpeedBlocked:    DefaultWindSpeedBlocked,
		VisibilityCaution:   DefaultVisibilityCaution,
		VisibilityDangerous: DefaultVisibilityDangerous,
		VisibilityBlocked:   DefaultVisibilityBlocked,
		CautionMultiplier:   DefaultCautionMultiplier,
		DangerousMultiplier: DefaultDangerousMultiplier,
	}
}

// Validate checks the severity ordering invariants:
// caution < dangerous < blocked for wave height and wind speed, and
// caution > dangerous > blocked for visibility.
func (t SafetyThresholds) Validate() error {
	if !(t.WaveHeightCaution < t.WaveHeightDangerous && t.WaveHeightDangerous < t.WaveHeightBlocked) {
		return NewAppError(ErrCodeValidationThresholdOrder,
			fmt.Sprintf("wave height thresholds must ascend: caution %.2f < dangerous %.2f < blocked %.2f",
				t.WaveHeightCaution, t.WaveHeightDangerous, t.WaveHeightBlocked), nil)
	}
	if !(t.WindSpeedCaution < t.WindSpeedDangerous && t.WindSpeedDangerous < t.WindSpeedBlocked) {
		return NewAppError(ErrCodeValidationThresholdOrder,
			fmt.Sprintf("wind speed thresholds must ascend: caution %.2f < dangerous %.2f < blocked %.2f",
				t.WindSpeedCaution, t.WindSpeedDangerous, t.WindSpeedBlocked), nil)
	}
	if !(t.VisibilityCaution > t.VisibilityDangerous && t.VisibilityDangerous > t.VisibilityBlocked) {
		return NewAppError(ErrCodeValidationThresholdOrder,
			fmt.Sprintf("visibility thresholds must descend: caution %.2f > dangerous %.2f > blocked %.2f",
				t.VisibilityCaution, t.VisibilityDangerous, t.VisibilityBlocked), nil)
	}
	if t.CautionMultiplier < 1 || t.DangerousMultiplier < 1 {
		return NewAppError(ErrCodeValidationThresholdOrder,
			"cost multipliers must be >= 1", nil)
	}
	if t.CautionMultiplier > t.DangerousMultiplier {
		return NewAppError(ErrCodeValidationThresholdOrder,
			fmt.Sprintf("caution multiplier %.2f must not exceed dangerous multiplier %.2f",
				t.CautionMultiplier, t.DangerousMultiplier), nil)
	}
	return nil
}
