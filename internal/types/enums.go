package types

import "math"

// SafetyLevel classifies marine conditions into discrete tiers of ascending
// severity. Aggregation across samples always takes the worst (maximum) level.
type SafetyLevel int

const (
	LevelSafe SafetyLevel = iota
	LevelCaution
	LevelDangerous
	LevelBlocked
)

// levelRank makes severity ordering explicit rather than relying on the
// declaration order of the constants. Comparison logic MUST go through Rank
// so that reordering or extending the enum cannot silently change results.
var levelRank = map[SafetyLevel]int{
	LevelSafe:      0,
	LevelCaution:   1,
	LevelDangerous: 2,
	LevelBlocked:   3,
}

// Rank returns the severity rank of the level. Unknown levels rank as Safe.
func (l SafetyLevel) Rank() int {
	return levelRank[l]
}

// MaxLevel returns the more severe of two safety levels.
func MaxLevel(a, b SafetyLevel) SafetyLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// String returns the wire/display identifier for the level.
func (l SafetyLevel) String() string {
	switch l {
	case LevelSafe:
		return "safe"
	case LevelCaution:
		return "caution"
	case LevelDangerous:
		return "dangerous"
	case LevelBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// DisplayName returns the human-facing name for the level.
// Presentation metadata only; never used in evaluation logic.
func (l SafetyLevel) DisplayName() string {
	switch l {
	case LevelSafe:
		return "Safe"
	case LevelCaution:
		return "Caution"
	case LevelDangerous:
		return "Dangerous"
	case LevelBlocked:
		return "Blocked"
	default:
		return "Unknown"
	}
}

// Description returns the human-facing description for the level.
func (l SafetyLevel) Description() string {
	switch l {
	case LevelSafe:
		return "Conditions are within safe limits for navigation"
	case LevelCaution:
		return "Conditions require increased attention"
	case LevelDangerous:
		return "Conditions are hazardous; navigation is discouraged"
	case LevelBlocked:
		return "Conditions exceed safe limits; navigation is blocked"
	default:
		return ""
	}
}

// CostMultiplier maps the level to its routing cost multiplier using the
// given thresholds. A blocked segment carries an infinite cost, which
// effectively forbids it for any routing consumer.
func (l SafetyLevel) CostMultiplier(t SafetyThresholds) float64 {
	switch l {
	case LevelCaution:
		return t.CautionMultiplier
	case LevelDangerous:
		return t.DangerousMultiplier
	case LevelBlocked:
		return math.Inf(1)
	default:
		return 1.0
	}
}

// AlertStatus represents the lifecycle state of a raised safety alert.
type AlertStatus string

const (
	AlertStatusActive    AlertStatus = "active"
	AlertStatusDismissed AlertStatus = "dismissed"
	AlertStatusCleared   AlertStatus = "cleared"
)
