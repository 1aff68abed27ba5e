package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotation_ToMapOmitsAbsentFields(t *testing.T) {
	var empty Annotation
	m := empty.ToMap()

	_, hasLevel := m[AnnotationKeySafetyLevel]
	_, hasWarnings := m[AnnotationKeyWarnings]
	assert.False(t, hasLevel, "absent level must not be serialized")
	assert.False(t, hasWarnings, "absent warnings must not be serialized")
	assert.Empty(t, m)
}

func TestAnnotation_RoundTrip(t *testing.T) {
	assessment := SafetyAssessment{
		Level:    LevelDangerous,
		Warnings: []string{"High waves: 2.4m", "Strong wind: 50 km/h"},
	}
	ann := AnnotationFromAssessment(assessment)

	m := ann.ToMap()
	assert.Equal(t, int(LevelDangerous), m[AnnotationKeySafetyLevel])

	parsed := AnnotationFromMap(m)
	require.NotNil(t, parsed.SafetyLevel)
	assert.Equal(t, LevelDangerous, *parsed.SafetyLevel)
	assert.Equal(t, assessment.Warnings, parsed.Warnings)
}

func TestAnnotation_JSONRoundTrip(t *testing.T) {
	level := LevelCaution
	ann := Annotation{
		SafetyLevel: &level,
		Warnings:    []string{"Moderate waves: 1.2m"},
	}

	data, err := json.Marshal(ann)
	require.NoError(t, err)

	// JSON decoding produces float64 ordinals and []any warnings; the
	// annotation parser must normalize both.
	var parsed Annotation
	require.NoError(t, json.Unmarshal(data, &parsed))

	require.NotNil(t, parsed.SafetyLevel)
	assert.Equal(t, LevelCaution, *parsed.SafetyLevel)
	assert.Equal(t, ann.Warnings, parsed.Warnings)
}

func TestAnnotation_EmptyJSONHasNoKeys(t *testing.T) {
	var empty Annotation
	data, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestAnnotationFromMap_IgnoresMalformedValues(t *testing.T) {
	parsed := AnnotationFromMap(map[string]any{
		AnnotationKeySafetyLevel: "not-a-number",
		AnnotationKeyWarnings:    42,
	})

	assert.Nil(t, parsed.SafetyLevel)
	assert.Nil(t, parsed.Warnings)
}
