package types

import "time"

// DefaultVisibilityMeters is the visibility assumed when an upstream source
// omits the field. Missing visibility is treated as clear conditions.
const DefaultVisibilityMeters = 10000.0

// WeatherSample is one point-in-time marine weather reading. It is a value
// type: two samples with identical fields are interchangeable for evaluation.
// Samples are constructed by the fetch layer and never mutated afterwards.
//
// WavePeriod, WindWaveHeight, SwellWaveHeight, and WindGusts are carried
// through for display and archival; the safety evaluator does not use them.
type WeatherSample struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`

	WaveHeight      float64 `json:"wave_height"`       // meters, significant wave height
	WavePeriod      float64 `json:"wave_period"`       // seconds
	WindWaveHeight  float64 `json:"wind_wave_height"`  // meters
	SwellWaveHeight float64 `json:"swell_wave_height"` // meters
	WindSpeed       float64 `json:"wind_speed"`        // km/h, sustained
	WindGusts       float64 `json:"wind_gusts"`        // km/h
	Visibility      float64 `json:"visibility"`        // meters, horizontal
}

// SampleFromMap constructs a WeatherSample from a generic key-value map, as
// produced by JSON-like upstream sources. Numeric fields default to 0.0 when
// absent, except visibility which defaults to DefaultVisibilityMeters.
// The timestamp key accepts time.Time, RFC 3339 strings, or Unix seconds.
func SampleFromMap(m map[string]any) WeatherSample {
	return WeatherSample{
		Latitude:        mapFloat(m, "latitude", 0),
		Longitude:       mapFloat(m, "longitude", 0),
		Timestamp:       mapTime(m, "timestamp"),
		WaveHeight:      mapFloat(m, "wave_height", 0),
		WavePeriod:      mapFloat(m, "wave_period", 0),
		WindWaveHeight:  mapFloat(m, "wind_wave_height", 0),
		SwellWaveHeight: mapFloat(m, "swell_wave_height", 0),
		WindSpeed:       mapFloat(m, "wind_speed", 0),
		WindGusts:       mapFloat(m, "wind_gusts", 0),
		Visibility:      mapFloat(m, "visibility", DefaultVisibilityMeters),
	}
}

// ToMap serializes the sample back to the underscore-keyed map form.
func (s WeatherSample) ToMap() map[string]any {
	return map[string]any{
		"latitude":          s.Latitude,
		"longitude":         s.Longitude,
		"timestamp":         s.Timestamp.UTC().Format(time.RFC3339),
		"wave_height":       s.WaveHeight,
		"wave_period":       s.WavePeriod,
		"wind_wave_height":  s.WindWaveHeight,
		"swell_wave_height": s.SwellWaveHeight,
		"wind_speed":        s.WindSpeed,
		"wind_gusts":        s.WindGusts,
		"visibility":        s.Visibility,
	}
}

// mapFloat reads a numeric map value, tolerating the integer types that
// generic JSON decoding and hand-built maps produce.
func mapFloat(m map[string]any, key string, def float64) float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return def
	}
}

// mapTime reads a timestamp map value as time.Time, RFC 3339 string, or Unix
// seconds. Absent or unparseable values yield the zero time.
func mapTime(m map[string]any, key string) time.Time {
	v, ok := m[key]
	if !ok || v == nil {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
		return time.Time{}
	case float64:
		return time.Unix(int64(t), 0).UTC()
	case int64:
		return time.Unix(t, 0).UTC()
	case int:
		return time.Unix(int64(t), 0).UTC()
	default:
		return time.Time{}
	}
}
