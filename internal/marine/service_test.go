package marine

import (
	"context"
	"errors"
	"testing"
	"time"

	"seasafe/internal/types"
)

// mockClock is a test clock with an adjustable current time.
type mockClock struct {
	now time.Time
}

func (c *mockClock) Now() time.Time { return c.now }

// mockFetcher implements Fetcher with scripted results.
type mockFetcher struct {
	samples []types.WeatherSample
	err     error
	calls   int
}

func (m *mockFetcher) Fetch(_ context.Context, loc types.Location) ([]types.WeatherSample, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.samples, nil
}

func makeSamples(loc types.Location, base time.Time, n int) []types.WeatherSample {
	samples := make([]types.WeatherSample, n)
	for i := range samples {
		samples[i] = types.WeatherSample{
			Latitude:   loc.Lat,
			Longitude:  loc.Lon,
			Timestamp:  base.Add(time.Duration(i) * time.Hour),
			WaveHeight: 0.5,
			WindSpeed:  12,
			Visibility: 9000,
		}
	}
	return samples
}

var testLoc = types.Location{Lat: 43.51, Lon: 16.44}

func TestForecast_CachesWithinRefreshInterval(t *testing.T) {
	now := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	clock := &mockClock{now: now}
	fetcher := &mockFetcher{samples: makeSamples(testLoc, now, 4)}

	svc := NewService(fetcher, 300*time.Second, nil, clock)

	if _, err := svc.Forecast(context.Background(), testLoc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Forecast(context.Background(), testLoc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fetcher.calls != 1 {
		t.Errorf("expected 1 upstream call within refresh interval, got %d", fetcher.calls)
	}

	// Advance past the refresh interval: next read refetches.
	clock.now = now.Add(301 * time.Second)
	if _, err := svc.Forecast(context.Background(), testLoc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.calls != 2 {
		t.Errorf("expected refetch after interval, got %d calls", fetcher.calls)
	}
}

func TestForecast_ServesStaleOnFetchFailure(t *testing.T) {
	now := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	clock := &mockClock{now: now}
	samples := makeSamples(testLoc, now, 4)
	fetcher := &mockFetcher{samples: samples}

	svc := NewService(fetcher, 300*time.Second, nil, clock)

	if _, err := svc.Forecast(context.Background(), testLoc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Upstream starts failing; cache is past its interval.
	fetcher.err = errors.New("connection refused")
	clock.now = now.Add(time.Hour)

	got, err := svc.Forecast(context.Background(), testLoc)
	if err != nil {
		t.Fatalf("expected stale data instead of error, got: %v", err)
	}
	if len(got) != len(samples) {
		t.Errorf("expected %d stale samples, got %d", len(samples), len(got))
	}
}

func TestForecast_ErrorWithoutCache(t *testing.T) {
	clock := &mockClock{now: time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)}
	fetcher := &mockFetcher{err: errors.New("connection refused")}

	svc := NewService(fetcher, 300*time.Second, nil, clock)

	if _, err := svc.Forecast(context.Background(), testLoc); err == nil {
		t.Fatal("expected error when nothing is cached")
	}
}

func TestConditions_FailOpenDefaultsToSafe(t *testing.T) {
	now := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	clock := &mockClock{now: now}
	fetcher := &mockFetcher{err: errors.New("connection refused")}

	svc := NewService(fetcher, 300*time.Second, nil, clock)

	sample := svc.Conditions(context.Background(), testLoc)

	if sample.WaveHeight != 0 || sample.WindSpeed != 0 {
		t.Errorf("expected calm defaults, got %+v", sample)
	}
	if sample.Visibility != types.DefaultVisibilityMeters {
		t.Errorf("expected clear visibility default, got %v", sample.Visibility)
	}
}

func TestConditions_PicksNearestSample(t *testing.T) {
	base := time.Date(2026, 2, 6, 10, 0, 0, 0, time.UTC)
	clock := &mockClock{now: base.Add(2*time.Hour + 10*time.Minute)}
	fetcher := &mockFetcher{samples: makeSamples(testLoc, base, 6)}

	svc := NewService(fetcher, 300*time.Second, nil, clock)

	sample := svc.Conditions(context.Background(), testLoc)

	want := base.Add(2 * time.Hour)
	if !sample.Timestamp.Equal(want) {
		t.Errorf("expected sample at %v, got %v", want, sample.Timestamp)
	}
}

func TestNewService_ClampsRefreshInterval(t *testing.T) {
	clock := &mockClock{now: time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)}

	svc := NewService(&mockFetcher{}, time.Second, nil, clock)
	if svc.refreshInterval != MinRefreshInterval {
		t.Errorf("expected clamp to %v, got %v", MinRefreshInterval, svc.refreshInterval)
	}

	svc = NewService(&mockFetcher{}, 24*time.Hour, nil, clock)
	if svc.refreshInterval != MaxRefreshInterval {
		t.Errorf("expected clamp to %v, got %v", MaxRefreshInterval, svc.refreshInterval)
	}
}

func TestCacheKey_BucketsNearbyPoints(t *testing.T) {
	a := cacheKey(types.Location{Lat: 43.511, Lon: 16.441})
	b := cacheKey(types.Location{Lat: 43.512, Lon: 16.442})
	c := cacheKey(types.Location{Lat: 44.0, Lon: 16.44})

	if a != b {
		t.Errorf("expected nearby points to share a cache key: %s vs %s", a, b)
	}
	if a == c {
		t.Error("expected distant points to use different cache keys")
	}
}
