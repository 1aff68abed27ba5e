package safety

import (
	"testing"

	"seasafe/internal/types"
)

func assessmentWith(level types.SafetyLevel, warnings ...string) types.SafetyAssessment {
	return types.SafetyAssessment{
		Level:          level,
		CostMultiplier: level.CostMultiplier(types.DefaultThresholds()),
		Warnings:       warnings,
	}
}

func TestAggregate_Empty(t *testing.T) {
	level, warnings := Aggregate(nil)

	if level != types.LevelSafe {
		t.Errorf("expected Safe for empty input, got %s", level)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}

func TestAggregate_TakesWorstLevel(t *testing.T) {
	level, _ := Aggregate([]types.SafetyAssessment{
		assessmentWith(types.LevelCaution, "Moderate waves: 1.2m"),
		assessmentWith(types.LevelDangerous, "Strong wind: 50 km/h"),
		assessmentWith(types.LevelSafe),
	})

	if level != types.LevelDangerous {
		t.Errorf("expected Dangerous, got %s", level)
	}
}

func TestAggregate_DeduplicatesWarningsFirstSeenOrder(t *testing.T) {
	_, warnings := Aggregate([]types.SafetyAssessment{
		assessmentWith(types.LevelCaution, "Moderate waves: 1.2m"),
		assessmentWith(types.LevelCaution, "Moderate waves: 1.2m", "Reduced visibility: 4000m"),
		assessmentWith(types.LevelCaution, "Reduced visibility: 4000m"),
	})

	if len(warnings) != 2 {
		t.Fatalf("expected 2 distinct warnings, got %v", warnings)
	}
	if warnings[0] != "Moderate waves: 1.2m" || warnings[1] != "Reduced visibility: 4000m" {
		t.Errorf("expected first-seen order preserved, got %v", warnings)
	}
}

func TestAggregate_BlockedDominates(t *testing.T) {
	level, _ := Aggregate([]types.SafetyAssessment{
		assessmentWith(types.LevelSafe),
		assessmentWith(types.LevelBlocked, "Wave height 3.5m exceeds safe limit"),
		assessmentWith(types.LevelCaution, "Moderate wind: 35 km/h"),
	})

	if level != types.LevelBlocked {
		t.Errorf("expected Blocked, got %s", level)
	}
}
