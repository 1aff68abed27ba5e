package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"seasafe/internal/core"
	"seasafe/internal/types"
)

// RecentAlertWindow is how far back the recent-events endpoint reaches.
const RecentAlertWindow = 24 * time.Hour

// AlertServiceInterface defines the alert banner contract for the alerts
// handler. Matches alerts.Manager; defined locally per the handler injection
// pattern.
type AlertServiceInterface interface {
	Active() []types.AlertEvent
	Dismiss(ctx context.Context, id string) error
}

// AlertStoreInterface defines the persisted alert event read contract.
// Matches db.AlertRepository; nil when the service runs without a database.
type AlertStoreInterface interface {
	ListRecent(ctx context.Context, since time.Time, limit int) ([]types.AlertEvent, error)
}

// AlertsHandler exposes the active alert banners, their dismissal, and the
// persisted event history.
type AlertsHandler struct {
	service AlertServiceInterface
	store   AlertStoreInterface
	logger  *slog.Logger
}

// NewAlertsHandler creates an AlertsHandler. store may be nil; the recent
// endpoint then serves an empty list.
func NewAlertsHandler(svc AlertServiceInterface, store AlertStoreInterface, logger *slog.Logger) *AlertsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertsHandler{
		service: svc,
		store:   store,
		logger:  logger,
	}
}

// RegisterRoutes mounts the alert endpoints onto the mux.
func (h *AlertsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/active", h.HandleListActive)
	r.Get("/recent", h.HandleListRecent)
	r.Post("/{id}/dismiss", h.HandleDismiss)
}

// HandleListActive handles GET /v1/alerts/active.
func (h *AlertsHandler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	active := h.service.Active()
	if active == nil {
		active = []types.AlertEvent{}
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: active})
}

// HandleListRecent handles GET /v1/alerts/recent. It serves the persisted
// alert events raised within RecentAlertWindow, newest first, regardless of
// their current status. Without a database it serves an empty list.
func (h *AlertsHandler) HandleListRecent(w http.ResponseWriter, r *http.Request) {
	events := []types.AlertEvent{}
	if h.store != nil {
		since := time.Now().Add(-RecentAlertWindow)
		var err error
		events, err = h.store.ListRecent(r.Context(), since, 0)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		if events == nil {
			events = []types.AlertEvent{}
		}
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: events})
}

// HandleDismiss handles POST /v1/alerts/{id}/dismiss. Dismissal is
// idempotent at the banner level but double-dismissing the same event is a
// conflict, which the manager reports.
func (h *AlertsHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"alert id is required",
			nil,
		))
		return
	}

	if err := h.service.Dismiss(r.Context(), id); err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: map[string]string{
		"id":     id,
		"status": string(types.AlertStatusDismissed),
	}})
}
