package routing

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"seasafe/internal/safety"
	"seasafe/internal/types"
)

// DefaultSampleSpacingKm is the distance between interpolated sample points
// along a route leg.
const DefaultSampleSpacingKm = 5.0

// sampleConcurrencyLimit bounds concurrent condition lookups during route
// assessment. Lookups for nearby points usually hit the same cache bucket,
// so a small limit is enough.
const sampleConcurrencyLimit = 8

// ConditionsSource supplies the weather sample nearest the given instant for
// a location. Implemented by marine.Service.
type ConditionsSource interface {
	SampleAt(ctx context.Context, loc types.Location, at time.Time) types.WeatherSample
}

// LegAssessment is the per-leg outcome of a route assessment.
type LegAssessment struct {
	From           types.Location    `json:"from"`
	To             types.Location    `json:"to"`
	DistanceKm     float64           `json:"distance_km"`
	Level          types.SafetyLevel `json:"level"`
	CostMultiplier float64           `json:"cost_multiplier"`
}

// RouteAssessment summarizes safety along a planned route. Level and Warnings
// aggregate the worst case across every sampled point; the UI keys its alert
// banner off this aggregate.
type RouteAssessment struct {
	Level           types.SafetyLevel `json:"level"`
	Warnings        []string          `json:"warnings"`
	Legs            []LegAssessment   `json:"legs"`
	Navigable       bool              `json:"navigable"`
	TotalDistanceKm float64           `json:"total_distance_km"`
	// WeightedCost is the distance in km with each leg scaled by its cost
	// multiplier; +Inf when any leg is blocked.
	WeightedCost float64 `json:"weighted_cost"`
}

// RouteAssessor samples conditions along routes and aggregates safety.
type RouteAssessor struct {
	source    ConditionsSource
	model     *CostModel
	spacingKm float64
}

// NewRouteAssessor creates an assessor. spacingKm <= 0 uses the default.
func NewRouteAssessor(source ConditionsSource, model *CostModel, spacingKm float64) *RouteAssessor {
	if spacingKm <= 0 {
		spacingKm = DefaultSampleSpacingKm
	}
	return &RouteAssessor{
		source:    source,
		model:     model,
		spacingKm: spacingKm,
	}
}

// Assess samples conditions along the waypoint sequence at the given
// departure time and aggregates them into a RouteAssessment. Conditions are
// looked up concurrently; the conditions source is fail-open, so assessment
// itself cannot fail once the route shape is valid.
func (r *RouteAssessor) Assess(ctx context.Context, waypoints []types.Location, departure time.Time) (*RouteAssessment, error) {
	if len(waypoints) < 2 {
		return nil, types.NewAppError(types.ErrCodeValidationRoute,
			"a route requires at least two waypoints", nil)
	}
	for _, wp := range waypoints {
		if wp.Lat < -90 || wp.Lat > 90 {
			return nil, types.NewAppError(types.ErrCodeValidationInvalidLat,
				"waypoint latitude out of range", nil)
		}
		if wp.Lon < -180 || wp.Lon > 180 {
			return nil, types.NewAppError(types.ErrCodeValidationInvalidLon,
				"waypoint longitude out of range", nil)
		}
	}

	points := SamplePoints(waypoints, r.spacingKm)

	// Fetch and evaluate each sampled point concurrently.
	assessments := make([]types.SafetyAssessment, len(points))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(sampleConcurrencyLimit)
	for i, pt := range points {
		i, pt := i, pt
		g.Go(func() error {
			sample := r.source.SampleAt(gCtx, pt, departure)
			a := r.model.Assess(sample)
			mu.Lock()
			assessments[i] = a
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
			"route assessment failed", err)
	}

	level, warnings := safety.Aggregate(assessments)

	// Per-leg multipliers: the worst assessed point between consecutive
	// waypoints sets the leg cost.
	legs := r.assessLegs(ctx, waypoints, departure)

	total := 0.0
	weighted := 0.0
	for _, leg := range legs {
		total += leg.DistanceKm
		weighted += leg.DistanceKm * leg.CostMultiplier
	}

	return &RouteAssessment{
		Level:           level,
		Warnings:        warnings,
		Legs:            legs,
		Navigable:       level != types.LevelBlocked,
		TotalDistanceKm: total,
		WeightedCost:    weighted,
	}, nil
}

// assessLegs computes the worst-case multiplier for each consecutive
// waypoint pair from the points sampled within that leg.
func (r *RouteAssessor) assessLegs(ctx context.Context, waypoints []types.Location, departure time.Time) []LegAssessment {
	legs := make([]LegAssessment, 0, len(waypoints)-1)
	for i := 0; i < len(waypoints)-1; i++ {
		from, to := waypoints[i], waypoints[i+1]
		worst := types.LevelSafe
		multiplier := 1.0

		for _, pt := range SamplePoints([]types.Location{from, to}, r.spacingKm) {
			a := r.model.Assess(r.source.SampleAt(ctx, pt, departure))
			if a.Level.Rank() > worst.Rank() {
				worst = a.Level
				multiplier = a.CostMultiplier
			}
		}

		legs = append(legs, LegAssessment{
			From:           from,
			To:             to,
			DistanceKm:     DistanceKm(from, to),
			Level:          worst,
			CostMultiplier: multiplier,
		})
	}
	return legs
}

// SamplePoints interpolates evenly spaced points along each route segment,
// always including the segment endpoints. The returned sequence contains no
// consecutive duplicates.
func SamplePoints(waypoints []types.Location, spacingKm float64) []types.Location {
	if len(waypoints) == 0 {
		return nil
	}
	if spacingKm <= 0 {
		spacingKm = DefaultSampleSpacingKm
	}

	points := []types.Location{waypoints[0]}
	for i := 0; i < len(waypoints)-1; i++ {
		from, to := waypoints[i], waypoints[i+1]
		dist := DistanceKm(from, to)
		steps := int(math.Ceil(dist / spacingKm))
		if steps < 1 {
			steps = 1
		}
		for s := 1; s <= steps; s++ {
			f := float64(s) / float64(steps)
			points = append(points, types.Location{
				Lat: from.Lat + (to.Lat-from.Lat)*f,
				Lon: from.Lon + (to.Lon-from.Lon)*f,
			})
		}
	}
	return points
}
