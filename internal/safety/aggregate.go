package safety

import "seasafe/internal/types"

// Aggregate summarizes multiple assessments (e.g., sampled points along a
// planned route) into one UI-facing status: the worst level across all
// assessments and the union of distinct warning strings in first-seen order.
//
// An empty input yields (LevelSafe, no warnings).
func Aggregate(assessments []types.SafetyAssessment) (types.SafetyLevel, []string) {
	worst := types.LevelSafe
	seen := make(map[string]struct{})
	var warnings []string

	for _, a := range assessments {
		worst = types.MaxLevel(worst, a.Level)
		for _, w := range a.Warnings {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			warnings = append(warnings, w)
		}
	}

	return worst, warnings
}
