package marine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"seasafe/internal/types"
)

// Refresh interval bounds. The service never polls the upstream more often
// than MinRefreshInterval per location, and a cache entry older than the
// configured interval is refreshed on the next read.
const (
	MinRefreshInterval = 300 * time.Second
	MaxRefreshInterval = 3600 * time.Second
)

// cacheEntry holds the most recent successful fetch for one location.
type cacheEntry struct {
	samples   []types.WeatherSample
	fetchedAt time.Time
}

// Service caches upstream marine conditions per location and applies the
// fail-open policy: fetch failures serve the last successful data, and when
// nothing has ever been fetched the service degrades to a default-safe
// sample instead of surfacing the failure. The safety evaluator downstream
// never sees fetch errors and never checks sample freshness itself.
type Service struct {
	fetcher         Fetcher
	refreshInterval time.Duration
	logger          *slog.Logger
	clock           types.Clock

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

// NewService creates a caching conditions service. The refresh interval is
// clamped to [MinRefreshInterval, MaxRefreshInterval].
func NewService(fetcher Fetcher, refreshInterval time.Duration, logger *slog.Logger, clock types.Clock) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if refreshInterval < MinRefreshInterval {
		refreshInterval = MinRefreshInterval
	}
	if refreshInterval > MaxRefreshInterval {
		refreshInterval = MaxRefreshInterval
	}
	return &Service{
		fetcher:         fetcher,
		refreshInterval: refreshInterval,
		logger:          logger,
		clock:           clock,
		cache:           make(map[string]*cacheEntry),
	}
}

// cacheKey buckets nearby coordinates together so that route sampling does
// not trigger one upstream call per interpolated point. ~1 km resolution.
func cacheKey(loc types.Location) string {
	return fmt.Sprintf("%.2f,%.2f", loc.Lat, loc.Lon)
}

// Forecast returns the hourly sample series for the location. A fresh cache
// entry is served directly; otherwise the upstream is fetched. On fetch
// failure a stale entry is served when one exists; without any cached data
// the error is returned.
func (s *Service) Forecast(ctx context.Context, loc types.Location) ([]types.WeatherSample, error) {
	key := cacheKey(loc)
	now := s.clock.Now()

	s.mu.Lock()
	entry, ok := s.cache[key]
	s.mu.Unlock()

	if ok && now.Sub(entry.fetchedAt) < s.refreshInterval {
		return entry.samples, nil
	}

	samples, err := s.fetcher.Fetch(ctx, loc)
	if err != nil {
		if ok {
			s.logger.WarnContext(ctx, "upstream fetch failed, serving stale conditions",
				"lat", loc.Lat,
				"lon", loc.Lon,
				"age", now.Sub(entry.fetchedAt).String(),
				"error", err,
			)
			return entry.samples, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = &cacheEntry{samples: samples, fetchedAt: now}
	s.mu.Unlock()

	return samples, nil
}

// Conditions returns the sample closest to the current time for the location.
// This is the fail-open entry point: any failure, including an empty upstream
// series, degrades to a default-safe sample (clear visibility, calm seas)
// that evaluates to level Safe with cost multiplier 1.0.
func (s *Service) Conditions(ctx context.Context, loc types.Location) types.WeatherSample {
	samples, err := s.Forecast(ctx, loc)
	if err != nil || len(samples) == 0 {
		if err != nil {
			s.logger.WarnContext(ctx, "no conditions available, defaulting to safe",
				"lat", loc.Lat,
				"lon", loc.Lon,
				"error", err,
			)
		}
		return defaultSafeSample(loc, s.clock.Now())
	}
	return nearestSample(samples, s.clock.Now())
}

// SampleAt returns the cached sample closest to the given instant, fetching
// if needed. Same fail-open behavior as Conditions.
func (s *Service) SampleAt(ctx context.Context, loc types.Location, at time.Time) types.WeatherSample {
	samples, err := s.Forecast(ctx, loc)
	if err != nil || len(samples) == 0 {
		return defaultSafeSample(loc, at)
	}
	return nearestSample(samples, at)
}

// defaultSafeSample is the fail-open fallback: all readings at their safe
// defaults so the evaluator yields Safe / 1.0.
func defaultSafeSample(loc types.Location, at time.Time) types.WeatherSample {
	return types.WeatherSample{
		Latitude:   loc.Lat,
		Longitude:  loc.Lon,
		Timestamp:  at,
		Visibility: types.DefaultVisibilityMeters,
	}
}

// nearestSample picks the sample whose timestamp is closest to the target.
func nearestSample(samples []types.WeatherSample, target time.Time) types.WeatherSample {
	best := samples[0]
	bestDiff := math.Abs(float64(target.Sub(best.Timestamp)))
	for _, sample := range samples[1:] {
		diff := math.Abs(float64(target.Sub(sample.Timestamp)))
		if diff < bestDiff {
			best = sample
			bestDiff = diff
		}
	}
	return best
}
