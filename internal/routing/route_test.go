package routing

import (
	"context"
	"math"
	"testing"
	"time"

	"seasafe/internal/types"
)

// stubSource returns samples based on latitude bands, simulating a rough
// patch of sea partway along a route.
type stubSource struct {
	sampleFor func(loc types.Location) types.WeatherSample
}

func (s *stubSource) SampleAt(_ context.Context, loc types.Location, at time.Time) types.WeatherSample {
	sample := s.sampleFor(loc)
	sample.Latitude = loc.Lat
	sample.Longitude = loc.Lon
	sample.Timestamp = at
	return sample
}

func calm(loc types.Location) types.WeatherSample {
	return types.WeatherSample{WaveHeight: 0.4, WindSpeed: 10, Visibility: 10000}
}

var departure = time.Date(2026, 2, 6, 8, 0, 0, 0, time.UTC)

func TestAssess_CalmRouteIsSafe(t *testing.T) {
	assessor := NewRouteAssessor(&stubSource{sampleFor: calm}, NewCostModel(types.DefaultThresholds()), 5)

	result, err := assessor.Assess(context.Background(), []types.Location{
		{Lat: 43.5, Lon: 16.4},
		{Lat: 43.3, Lon: 16.5},
	}, departure)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Level != types.LevelSafe {
		t.Errorf("expected Safe, got %s", result.Level)
	}
	if !result.Navigable {
		t.Error("expected navigable route")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
	if math.Abs(result.WeightedCost-result.TotalDistanceKm) > 1e-9 {
		t.Errorf("safe route weighted cost should equal distance: %v vs %v",
			result.WeightedCost, result.TotalDistanceKm)
	}
}

func TestAssess_RoughPatchPenalizesRoute(t *testing.T) {
	// Waves at dangerous level south of latitude 43.4.
	source := &stubSource{sampleFor: func(loc types.Location) types.WeatherSample {
		s := calm(loc)
		if loc.Lat < 43.4 {
			s.WaveHeight = 2.4
		}
		return s
	}}
	assessor := NewRouteAssessor(source, NewCostModel(types.DefaultThresholds()), 5)

	result, err := assessor.Assess(context.Background(), []types.Location{
		{Lat: 43.5, Lon: 16.4},
		{Lat: 43.3, Lon: 16.4},
	}, departure)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Level != types.LevelDangerous {
		t.Errorf("expected Dangerous aggregate, got %s", result.Level)
	}
	if !result.Navigable {
		t.Error("dangerous route is still navigable")
	}
	if result.WeightedCost <= result.TotalDistanceKm {
		t.Errorf("expected penalized cost above raw distance: %v vs %v",
			result.WeightedCost, result.TotalDistanceKm)
	}
}

func TestAssess_BlockedLegForbidsRoute(t *testing.T) {
	source := &stubSource{sampleFor: func(loc types.Location) types.WeatherSample {
		s := calm(loc)
		if loc.Lat < 43.4 {
			s.WaveHeight = 4.0
		}
		return s
	}}
	assessor := NewRouteAssessor(source, NewCostModel(types.DefaultThresholds()), 5)

	result, err := assessor.Assess(context.Background(), []types.Location{
		{Lat: 43.5, Lon: 16.4},
		{Lat: 43.3, Lon: 16.4},
	}, departure)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Level != types.LevelBlocked {
		t.Errorf("expected Blocked, got %s", result.Level)
	}
	if result.Navigable {
		t.Error("blocked route must not be navigable")
	}
	if !math.IsInf(result.WeightedCost, 1) {
		t.Errorf("expected +Inf weighted cost, got %v", result.WeightedCost)
	}
}

func TestAssess_RejectsInvalidRoutes(t *testing.T) {
	assessor := NewRouteAssessor(&stubSource{sampleFor: calm}, NewCostModel(types.DefaultThresholds()), 5)

	if _, err := assessor.Assess(context.Background(), []types.Location{{Lat: 43.5, Lon: 16.4}}, departure); err == nil {
		t.Error("expected error for single-waypoint route")
	}

	_, err := assessor.Assess(context.Background(), []types.Location{
		{Lat: 95, Lon: 16.4},
		{Lat: 43.3, Lon: 16.4},
	}, departure)
	if err == nil {
		t.Error("expected error for out-of-range latitude")
	}
}

func TestSamplePoints_IncludesEndpointsAndSpacing(t *testing.T) {
	from := types.Location{Lat: 43.5, Lon: 16.4}
	to := types.Location{Lat: 43.3, Lon: 16.4} // ~22 km

	points := SamplePoints([]types.Location{from, to}, 5)

	if points[0] != from {
		t.Errorf("expected route start first, got %+v", points[0])
	}
	if points[len(points)-1] != to {
		t.Errorf("expected route end last, got %+v", points[len(points)-1])
	}
	if len(points) < 4 {
		t.Errorf("expected interpolated points for a 22 km leg, got %d", len(points))
	}

	for i := 0; i < len(points)-1; i++ {
		if d := DistanceKm(points[i], points[i+1]); d > 5.1 {
			t.Errorf("gap of %.2f km between consecutive samples exceeds spacing", d)
		}
	}
}

func TestSegmentCost(t *testing.T) {
	model := NewCostModel(types.DefaultThresholds())

	safeSample := types.WeatherSample{WaveHeight: 0.3, WindSpeed: 5, Visibility: 10000}
	if got := model.SegmentCost(10, safeSample); got != 10 {
		t.Errorf("expected unscaled cost 10, got %v", got)
	}

	cautionSample := types.WeatherSample{WaveHeight: 1.5, WindSpeed: 5, Visibility: 10000}
	if got := model.SegmentCost(10, cautionSample); got != 20 {
		t.Errorf("expected doubled cost, got %v", got)
	}

	blockedSample := types.WeatherSample{WaveHeight: 3.5, WindSpeed: 5, Visibility: 10000}
	if got := model.SegmentCost(10, blockedSample); !math.IsInf(got, 1) {
		t.Errorf("expected +Inf cost for blocked sample, got %v", got)
	}
	if model.Navigable(blockedSample) {
		t.Error("blocked sample must not be navigable")
	}
}

func TestDistanceKm(t *testing.T) {
	// One degree of latitude is ~111 km.
	d := DistanceKm(types.Location{Lat: 43, Lon: 16}, types.Location{Lat: 44, Lon: 16})
	if d < 110 || d > 112 {
		t.Errorf("expected ~111 km, got %.2f", d)
	}

	if d := DistanceKm(types.Location{Lat: 43, Lon: 16}, types.Location{Lat: 43, Lon: 16}); d != 0 {
		t.Errorf("expected zero distance, got %v", d)
	}
}
