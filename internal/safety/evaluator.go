// Package safety implements the marine weather safety evaluator: a pure rule
// engine that converts raw marine/atmospheric readings into a discrete safety
// classification and a routing cost multiplier.
//
// Evaluation is deterministic, side-effect free, and total: every numeric
// input is a valid input, including negative or nonsensical values, and the
// evaluator always returns a well-formed assessment. Staleness, caching, and
// fetch failures are policies of the layers above; the evaluator has no
// timestamp-freshness logic of its own.
package safety

import (
	"fmt"

	"seasafe/internal/types"
)

// Evaluate classifies a single weather sample against the given thresholds.
//
// Each of the three conditions (wave height, wind speed, visibility) is
// checked against its tiers in descending severity with if/else-if, so at
// most one tier fires per condition. Comparisons are inclusive: a value
// exactly equal to a threshold counts as having crossed it. Wave height and
// wind speed compare with >=; visibility compares with <= because lower
// visibility is worse.
//
// The overall level is the uniform max-merge of the per-condition levels.
// Warnings accumulate independently of the overall level, in fixed wave,
// wind, visibility order.
func Evaluate(sample types.WeatherSample, thresholds types.SafetyThresholds) types.SafetyAssessment {
	level := types.LevelSafe
	var warnings []string

	// Wave height: reported to one decimal place.
	switch {
	case sample.WaveHeight >= thresholds.WaveHeightBlocked:
		level = types.MaxLevel(level, types.LevelBlocked)
		warnings = append(warnings, fmt.Sprintf("Wave height %.1fm exceeds safe limit", sample.WaveHeight))
	case sample.WaveHeight >= thresholds.WaveHeightDangerous:
		level = types.MaxLevel(level, types.LevelDangerous)
		warnings = append(warnings, fmt.Sprintf("High waves: %.1fm", sample.WaveHeight))
	case sample.WaveHeight >= thresholds.WaveHeightCaution:
		level = types.MaxLevel(level, types.LevelCaution)
		warnings = append(warnings, fmt.Sprintf("Moderate waves: %.1fm", sample.WaveHeight))
	}

	// Wind speed: reported as rounded integer km/h.
	switch {
	case sample.WindSpeed >= thresholds.WindSpeedBlocked:
		level = types.MaxLevel(level, types.LevelBlocked)
		warnings = append(warnings, fmt.Sprintf("Wind speed %.0f km/h exceeds safe limit", sample.WindSpeed))
	case sample.WindSpeed >= thresholds.WindSpeedDangerous:
		level = types.MaxLevel(level, types.LevelDangerous)
		warnings = append(warnings, fmt.Sprintf("Strong wind: %.0f km/h", sample.WindSpeed))
	case sample.WindSpeed >= thresholds.WindSpeedCaution:
		level = types.MaxLevel(level, types.LevelCaution)
		warnings = append(warnings, fmt.Sprintf("Moderate wind: %.0f km/h", sample.WindSpeed))
	}

	// Visibility: inverted comparison, reported as rounded integer meters.
	switch {
	case sample.Visibility <= thresholds.VisibilityBlocked:
		level = types.MaxLevel(level, types.LevelBlocked)
		warnings = append(warnings, fmt.Sprintf("Visibility %.0fm below safe limit", sample.Visibility))
	case sample.Visibility <= thresholds.VisibilityDangerous:
		level = types.MaxLevel(level, types.LevelDangerous)
		warnings = append(warnings, fmt.Sprintf("Poor visibility: %.0fm", sample.Visibility))
	case sample.Visibility <= thresholds.VisibilityCaution:
		level = types.MaxLevel(level, types.LevelCaution)
		warnings = append(warnings, fmt.Sprintf("Reduced visibility: %.0fm", sample.Visibility))
	}

	return types.SafetyAssessment{
		Level:          level,
		CostMultiplier: level.CostMultiplier(thresholds),
		Warnings:       warnings,
		Sample:         sample,
	}
}
