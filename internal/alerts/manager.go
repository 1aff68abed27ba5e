// Package alerts maintains the UI-facing safety banner state. A banner is
// keyed by a watch location or active route and carries the aggregate worst
// level across that key's sampled points. Banners are dismissible and clear
// with hysteresis so that conditions oscillating around a threshold do not
// flap the alert.
package alerts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"seasafe/internal/types"
)

// clearObservations is the number of consecutive observations below the
// raised level required before a banner clears. Prevents alert flapping.
const clearObservations = 2

// Repository persists alert events. Implemented by db.AlertRepository.
type Repository interface {
	Insert(ctx context.Context, event *types.AlertEvent) error
	UpdateStatus(ctx context.Context, id string, status types.AlertStatus, at time.Time) error
}

// bannerState tracks the in-memory lifecycle of one active banner.
type bannerState struct {
	event       types.AlertEvent
	dismissed   bool
	clearStreak int
}

// Manager raises, clears, and dismisses safety alert banners from aggregate
// observations. Persistence failures are logged and do not interrupt
// observation; the in-memory banner state is authoritative for the UI.
type Manager struct {
	repo   Repository
	logger *slog.Logger
	clock  types.Clock

	mu      sync.Mutex
	banners map[string]*bannerState
}

// NewManager creates an alert manager. repo may be nil for purely in-memory use.
func NewManager(repo Repository, logger *slog.Logger, clock types.Clock) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Manager{
		repo:    repo,
		logger:  logger,
		clock:   clock,
		banners: make(map[string]*bannerState),
	}
}

// Observe processes one aggregate safety observation for a key.
//
// A level above the current banner raises (or escalates) the banner and
// resets any dismissal. A level at the banner's level refreshes it. A lower
// level must persist for clearObservations consecutive calls before the
// banner clears; if the lower level is still above Safe, a fresh banner is
// raised at that level.
func (m *Manager) Observe(ctx context.Context, key string, level types.SafetyLevel, warnings []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	state, active := m.banners[key]

	if !active {
		if level == types.LevelSafe {
			return
		}
		m.raise(ctx, key, level, warnings, now)
		return
	}

	switch {
	case level.Rank() > state.event.Level.Rank():
		// Escalation supersedes the old banner, including its dismissal.
		m.clear(ctx, key, state, now)
		m.raise(ctx, key, level, warnings, now)

	case level.Rank() == state.event.Level.Rank():
		state.clearStreak = 0
		state.event.Warnings = warnings
		state.event.UpdatedAt = now

	default:
		state.clearStreak++
		if state.clearStreak < clearObservations {
			return
		}
		m.clear(ctx, key, state, now)
		if level != types.LevelSafe {
			m.raise(ctx, key, level, warnings, now)
		}
	}
}

// raise creates a new active banner. Caller holds the lock.
func (m *Manager) raise(ctx context.Context, key string, level types.SafetyLevel, warnings []string, now time.Time) {
	event := types.AlertEvent{
		ID:        uuid.NewString(),
		Key:       key,
		Level:     level,
		Warnings:  warnings,
		Status:    types.AlertStatusActive,
		RaisedAt:  now,
		UpdatedAt: now,
	}
	m.banners[key] = &bannerState{event: event}

	m.logger.InfoContext(ctx, "safety alert raised",
		"key", key,
		"level", level.String(),
		"warnings", len(warnings),
	)

	if m.repo != nil {
		if err := m.repo.Insert(ctx, &event); err != nil {
			m.logger.ErrorContext(ctx, "failed to persist alert event",
				"alert_id", event.ID,
				"error", err,
			)
		}
	}
}

// clear removes a banner. Caller holds the lock.
func (m *Manager) clear(ctx context.Context, key string, state *bannerState, now time.Time) {
	delete(m.banners, key)

	m.logger.InfoContext(ctx, "safety alert cleared",
		"key", key,
		"level", state.event.Level.String(),
	)

	if m.repo != nil {
		if err := m.repo.UpdateStatus(ctx, state.event.ID, types.AlertStatusCleared, now); err != nil {
			m.logger.ErrorContext(ctx, "failed to persist alert clear",
				"alert_id", state.event.ID,
				"error", err,
			)
		}
	}
}

// Dismiss hides an active banner by ID. The banner stays tracked so the same
// level does not immediately re-raise it; an escalation resets the dismissal.
func (m *Manager) Dismiss(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, state := range m.banners {
		if state.event.ID != id {
			continue
		}
		if state.dismissed {
			return types.NewAppError(types.ErrCodeConflictDismissed,
				"alert is already dismissed", nil)
		}
		state.dismissed = true
		state.event.Status = types.AlertStatusDismissed
		state.event.UpdatedAt = m.clock.Now()

		if m.repo != nil {
			if err := m.repo.UpdateStatus(ctx, id, types.AlertStatusDismissed, state.event.UpdatedAt); err != nil {
				m.logger.ErrorContext(ctx, "failed to persist alert dismissal",
					"alert_id", id,
					"error", err,
				)
			}
		}
		return nil
	}

	return types.NewAppError(types.ErrCodeNotFoundAlert, "no active alert with that id", nil)
}

// Active returns the currently visible (raised, not dismissed) banners.
func (m *Manager) Active() []types.AlertEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []types.AlertEvent
	for _, state := range m.banners {
		if !state.dismissed {
			events = append(events, state.event)
		}
	}
	return events
}
