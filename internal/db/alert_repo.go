package db

import (
	"context"
	"time"

	"seasafe/internal/types"
)

// AlertRepository provides data access for the alert_events table. The alert
// manager appends an event whenever a banner is raised and updates the status
// on dismissal or clearing; the in-memory banner map remains the source of
// truth for what is currently active, the table is the durable audit trail.
type AlertRepository struct {
	db DBTX
}

// NewAlertRepository creates an AlertRepository backed by the given database
// connection (pool or transaction).
func NewAlertRepository(db DBTX) *AlertRepository {
	return &AlertRepository{db: db}
}

// Insert appends a new alert event. The caller sets the ID.
func (r *AlertRepository) Insert(ctx context.Context, event *types.AlertEvent) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO alert_events
		 (id, key, level, warnings, status, raised_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID,
		event.Key,
		int(event.Level),
		event.Warnings,
		string(event.Status),
		event.RaisedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert alert event", err)
	}
	return nil
}

// UpdateStatus transitions an alert event to the given status.
func (r *AlertRepository) UpdateStatus(ctx context.Context, id string, status types.AlertStatus, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE alert_events SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status),
		at,
		id,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update alert status", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundAlert, "alert event not found", nil)
	}
	return nil
}

// ListRecent returns alert events raised after the cutoff, most recent first.
func (r *AlertRepository) ListRecent(ctx context.Context, since time.Time, limit int) ([]types.AlertEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, key, level, warnings, status, raised_at, updated_at
		 FROM alert_events
		 WHERE raised_at >= $1
		 ORDER BY raised_at DESC
		 LIMIT $2`,
		since,
		limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query alert events", err)
	}
	defer rows.Close()

	var results []types.AlertEvent
	for rows.Next() {
		var (
			event  types.AlertEvent
			level  int
			status string
		)
		if err := rows.Scan(
			&event.ID,
			&event.Key,
			&level,
			&event.Warnings,
			&status,
			&event.RaisedAt,
			&event.UpdatedAt,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan alert event row", err)
		}
		event.Level = types.SafetyLevel(level)
		event.Status = types.AlertStatus(status)
		results = append(results, event)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating alert event rows", err)
	}

	return results, nil
}
