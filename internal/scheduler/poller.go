// Package scheduler implements the background polling service. The poller
// re-evaluates every configured watch location on a fixed cycle: fetch the
// marine forecast, persist the samples, assess the current conditions, and
// feed the aggregate into the alert manager.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"seasafe/internal/safety"
	"seasafe/internal/types"
)

// Poll interval bounds. The upstream forecast updates hourly, so polling
// faster than every 5 minutes only burns quota; slower than an hour misses
// deteriorating conditions.
const (
	MinPollInterval = 300 * time.Second
	MaxPollInterval = 3600 * time.Second
)

// AlertLookahead is how far into the forecast each cycle looks when deciding
// whether to raise a banner. Conditions expected to turn dangerous within
// this window alert now, not when the boat is already out.
const AlertLookahead = 6 * time.Hour

// DefaultSampleRetention bounds how long persisted samples are kept when no
// explicit retention is configured.
const DefaultSampleRetention = 30 * 24 * time.Hour

// ForecastSource abstracts the marine service operations the poller needs.
// Using an interface allows clean testing without network dependencies.
type ForecastSource interface {
	// Forecast returns the hourly sample series for a location.
	Forecast(ctx context.Context, loc types.Location) ([]types.WeatherSample, error)
	// Conditions returns the sample nearest to now. Fail-open: never errors.
	Conditions(ctx context.Context, loc types.Location) types.WeatherSample
}

// SampleStore abstracts sample persistence. Nil-able: when the service runs
// without a database the poller skips persistence.
type SampleStore interface {
	InsertBatch(ctx context.Context, samples []types.WeatherSample) error
}

// AlertSink receives the aggregate safety outcome for each watch location.
type AlertSink interface {
	Observe(ctx context.Context, key string, level types.SafetyLevel, warnings []string)
}

// SamplePruner deletes samples older than the retention cutoff. Nil-able like
// SampleStore; without a database there is nothing to prune.
type SamplePruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Poller drives the periodic re-evaluation of watch locations.
type Poller struct {
	source     ForecastSource
	store      SampleStore
	pruner     SamplePruner
	alerts     AlertSink
	locations  []types.WatchLocation
	thresholds types.SafetyThresholds
	interval   time.Duration
	retention  time.Duration
	logger     *slog.Logger
	clock      types.Clock
}

// PollerConfig holds the configuration for creating a Poller.
type PollerConfig struct {
	Source     ForecastSource
	Store      SampleStore
	Pruner     SamplePruner
	Alerts     AlertSink
	Locations  []types.WatchLocation
	Thresholds types.SafetyThresholds
	Interval   time.Duration
	Retention  time.Duration
	Logger     *slog.Logger
	Clock      types.Clock
}

// NewPoller creates a Poller. The interval is clamped to the allowed bounds.
func NewPoller(cfg PollerConfig) *Poller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}

	interval := cfg.Interval
	if interval < MinPollInterval {
		interval = MinPollInterval
	}
	if interval > MaxPollInterval {
		interval = MaxPollInterval
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultSampleRetention
	}

	return &Poller{
		source:     cfg.Source,
		store:      cfg.Store,
		pruner:     cfg.Pruner,
		alerts:     cfg.Alerts,
		locations:  cfg.Locations,
		thresholds: cfg.Thresholds,
		interval:   interval,
		retention:  retention,
		logger:     logger,
		clock:      clock,
	}
}

// Interval returns the effective (clamped) poll interval.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Run executes poll cycles until the context is cancelled. The first cycle
// runs immediately.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "poller started",
		"locations", len(p.locations),
		"interval", p.interval.String(),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.PollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.InfoContext(ctx, "poller stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce runs a single cycle over every watch location. Failures are
// isolated per location: one unreachable location must not starve the rest.
func (p *Poller) PollOnce(ctx context.Context) {
	start := p.clock.Now()

	for _, watch := range p.locations {
		if ctx.Err() != nil {
			return
		}
		p.pollLocation(ctx, watch)
	}

	p.pruneSamples(ctx)

	p.logger.InfoContext(ctx, "poll cycle complete",
		"locations", len(p.locations),
		"elapsed", time.Since(start).String(),
	)
}

// pruneSamples enforces the sample retention window once per cycle. Pruning
// is housekeeping; failures are logged and the next cycle retries.
func (p *Poller) pruneSamples(ctx context.Context) {
	if p.pruner == nil {
		return
	}

	cutoff := p.clock.Now().Add(-p.retention)
	deleted, err := p.pruner.DeleteBefore(ctx, cutoff)
	if err != nil {
		p.logger.ErrorContext(ctx, "sample retention sweep failed",
			"cutoff", cutoff,
			"error", err,
		)
		return
	}
	if deleted > 0 {
		p.logger.InfoContext(ctx, "expired samples pruned",
			"cutoff", cutoff,
			"deleted", deleted,
		)
	}
}

func (p *Poller) pollLocation(ctx context.Context, watch types.WatchLocation) {
	samples, err := p.source.Forecast(ctx, watch.Location)
	if err != nil {
		p.logger.ErrorContext(ctx, "forecast fetch failed",
			"location", watch.Name,
			"error", err,
		)
		// Conditions below still serves the stale cache or a default-safe
		// sample, so the alert evaluation proceeds regardless.
	}

	if p.store != nil && len(samples) > 0 {
		if err := p.store.InsertBatch(ctx, samples); err != nil {
			p.logger.ErrorContext(ctx, "sample persistence failed",
				"location", watch.Name,
				"count", len(samples),
				"error", err,
			)
			// Persistence is best-effort; alerting continues.
		}
	}

	now := p.clock.Now()
	horizon := now.Add(AlertLookahead)

	var assessments []types.SafetyAssessment
	for _, s := range samples {
		if s.Timestamp.Before(now.Add(-time.Hour)) || s.Timestamp.After(horizon) {
			continue
		}
		assessments = append(assessments, safety.Evaluate(s, p.thresholds))
	}
	if len(assessments) == 0 {
		// Fetch failed or the series is stale; the conditions source still
		// serves the cache or a default-safe sample.
		current := p.source.Conditions(ctx, watch.Location)
		assessments = append(assessments, safety.Evaluate(current, p.thresholds))
	}

	level, warnings := safety.Aggregate(assessments)
	p.alerts.Observe(ctx, watch.Name, level, warnings)

	p.logger.InfoContext(ctx, "location evaluated",
		"location", watch.Name,
		"samples", len(assessments),
		"level", level.String(),
		"warnings", len(warnings),
	)
}
