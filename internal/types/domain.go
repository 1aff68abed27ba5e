package types

import "time"

// Location is a geographic point in floating-point degrees.
type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// WatchLocation is a named location the poller re-evaluates on every cycle.
type WatchLocation struct {
	Name     string   `json:"name"`
	Location Location `json:"location"`
}

// AlertEvent records a change in the aggregate safety status for a watched
// location or active route. Events are appended by the alert manager and
// surfaced to the UI as dismissible banners keyed by the worst level.
type AlertEvent struct {
	ID        string      `json:"id"`
	Key       string      `json:"key"` // watch location name or route identifier
	Level     SafetyLevel `json:"level"`
	Warnings  []string    `json:"warnings"`
	Status    AlertStatus `json:"status"`
	RaisedAt  time.Time   `json:"raised_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
