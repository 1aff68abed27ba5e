package types

import (
	"encoding/json"
	"math"
)

// SafetyAssessment is the output of evaluating one WeatherSample. It is a
// value type produced by the evaluator and consumed immediately by callers
// (routing engine, alert UI); it is never persisted or mutated.
//
// Warnings are ordered by evaluation order: wave height, then wind speed,
// then visibility. A sample carries zero to three warnings.
type SafetyAssessment struct {
	Level          SafetyLevel   `json:"level"`
	CostMultiplier float64       `json:"cost_multiplier"`
	Warnings       []string      `json:"warnings"`
	Sample         WeatherSample `json:"sample"`
}

// Blocked reports whether the assessed location is impassable for routing.
func (a SafetyAssessment) Blocked() bool {
	return a.Level == LevelBlocked || math.IsInf(a.CostMultiplier, 1)
}

// Annotation carries the optional safety fields attached to externally-shared
// point data. Both fields are optional: when a point has not been assessed
// the keys must be omitted from serialized output entirely, never emitted as
// null. Use pointer fields plus the conditional serializers below to keep
// that contract.
type Annotation struct {
	SafetyLevel *SafetyLevel `json:"-"`
	Warnings    []string     `json:"-"`
}

// AnnotationKeySafetyLevel and AnnotationKeyWarnings name the serialized keys.
const (
	AnnotationKeySafetyLevel = "weather_safety_level"
	AnnotationKeyWarnings    = "weather_warnings"
)

// AnnotationFromAssessment builds a populated annotation from an assessment.
func AnnotationFromAssessment(a SafetyAssessment) Annotation {
	level := a.Level
	return Annotation{
		SafetyLevel: &level,
		Warnings:    a.Warnings,
	}
}

// ToMap serializes the annotation into a key-value map, including each key
// only when the corresponding field is populated.
func (a Annotation) ToMap() map[string]any {
	m := map[string]any{}
	if a.SafetyLevel != nil {
		m[AnnotationKeySafetyLevel] = int(*a.SafetyLevel)
	}
	if a.Warnings != nil {
		m[AnnotationKeyWarnings] = a.Warnings
	}
	return m
}

// AnnotationFromMap parses an annotation from its map form. Absent keys leave
// the corresponding fields nil.
func AnnotationFromMap(m map[string]any) Annotation {
	var ann Annotation
	if v, ok := m[AnnotationKeySafetyLevel]; ok {
		switch n := v.(type) {
		case float64:
			level := SafetyLevel(int(n))
			ann.SafetyLevel = &level
		case int:
			level := SafetyLevel(n)
			ann.SafetyLevel = &level
		}
	}
	if v, ok := m[AnnotationKeyWarnings]; ok {
		switch w := v.(type) {
		case []string:
			ann.Warnings = append([]string{}, w...)
		case []any:
			warnings := make([]string, 0, len(w))
			for _, item := range w {
				if s, ok := item.(string); ok {
					warnings = append(warnings, s)
				}
			}
			ann.Warnings = warnings
		}
	}
	return ann
}

// MarshalJSON emits the annotation with absent fields omitted.
func (a Annotation) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.ToMap())
}

// UnmarshalJSON parses the annotation from its JSON map form.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*a = AnnotationFromMap(m)
	return nil
}
