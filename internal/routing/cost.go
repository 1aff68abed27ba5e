// Package routing exposes the safety evaluator to route planning: a cost
// model that scales edge weights by the assessed cost multiplier, and route
// assessment that samples conditions along planned legs and aggregates them
// into one worst-case status. The pathfinding algorithm itself is an external
// consumer of these values.
package routing

import (
	"math"

	"seasafe/internal/safety"
	"seasafe/internal/types"
)

// CostModel converts weather samples into routing edge costs using a fixed
// threshold configuration.
type CostModel struct {
	thresholds types.SafetyThresholds
}

// NewCostModel creates a cost model over the given thresholds.
func NewCostModel(thresholds types.SafetyThresholds) *CostModel {
	return &CostModel{thresholds: thresholds}
}

// Assess evaluates the sample against the model's thresholds.
func (m *CostModel) Assess(sample types.WeatherSample) types.SafetyAssessment {
	return safety.Evaluate(sample, m.thresholds)
}

// SegmentCost scales a base edge cost by the sample's safety multiplier.
// A blocked sample yields +Inf, which forbids the segment outright.
func (m *CostModel) SegmentCost(baseCost float64, sample types.WeatherSample) float64 {
	return baseCost * m.Assess(sample).CostMultiplier
}

// Navigable reports whether conditions at the sample permit transit at all.
func (m *CostModel) Navigable(sample types.WeatherSample) bool {
	return !m.Assess(sample).Blocked()
}

// earthRadiusKm is the mean Earth radius used for distance computation.
const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points.
func DistanceKm(a, b types.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
