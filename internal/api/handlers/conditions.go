package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"seasafe/internal/core"
	"seasafe/internal/safety"
	"seasafe/internal/types"
)

// HistoryWindow is how far back the history endpoint reaches.
const HistoryWindow = 24 * time.Hour

// ConditionsServiceInterface defines the conditions lookup contract for the
// conditions handler. Matches marine.Service; defined locally per the handler
// injection pattern.
type ConditionsServiceInterface interface {
	Conditions(ctx context.Context, loc types.Location) types.WeatherSample
}

// HistoryStoreInterface defines the persisted-sample read contract. Matches
// db.SampleRepository; nil when the service runs without a database.
type HistoryStoreInterface interface {
	RecentByLocation(ctx context.Context, loc types.Location, since time.Time, limit int) ([]types.WeatherSample, error)
}

// ConditionsHandler serves current marine conditions with their safety
// assessment. The conditions source is fail-open, so this endpoint degrades
// to a default-safe sample rather than erroring when the upstream is down.
type ConditionsHandler struct {
	service    ConditionsServiceInterface
	history    HistoryStoreInterface
	thresholds types.SafetyThresholds
	logger     *slog.Logger
}

// NewConditionsHandler creates a ConditionsHandler. history may be nil; the
// history endpoint then serves an empty series.
func NewConditionsHandler(svc ConditionsServiceInterface, history HistoryStoreInterface, thresholds types.SafetyThresholds, logger *slog.Logger) *ConditionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConditionsHandler{
		service:    svc,
		history:    history,
		thresholds: thresholds,
		logger:     logger,
	}
}

// RegisterRoutes mounts the conditions endpoints onto the mux.
func (h *ConditionsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleGetConditions)
	r.Get("/history", h.HandleGetHistory)
}

// conditionsResponse pairs the sample with its assessment.
type conditionsResponse struct {
	Sample     types.WeatherSample `json:"sample"`
	Assessment assessmentPayload   `json:"assessment"`
}

// HandleGetConditions handles GET /v1/conditions?lat=&lon=.
func (h *ConditionsHandler) HandleGetConditions(w http.ResponseWriter, r *http.Request) {
	loc, err := parseLocationQuery(r.URL.Query())
	if err != nil {
		core.Error(w, r, err)
		return
	}

	sample := h.service.Conditions(r.Context(), loc)
	assessment := safety.Evaluate(sample, h.thresholds)

	w.Header().Set("Cache-Control", "private, max-age=300")
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: conditionsResponse{
		Sample:     sample,
		Assessment: payloadFromAssessment(assessment),
	}})
}

// historyResponse wraps the persisted sample series for a location.
type historyResponse struct {
	Samples []types.WeatherSample `json:"samples"`
}

// HandleGetHistory handles GET /v1/conditions/history?lat=&lon=. It serves
// the persisted samples for the location over the last HistoryWindow, newest
// first. Without a database it serves an empty series rather than erroring.
func (h *ConditionsHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	loc, err := parseLocationQuery(r.URL.Query())
	if err != nil {
		core.Error(w, r, err)
		return
	}

	samples := []types.WeatherSample{}
	if h.history != nil {
		since := time.Now().Add(-HistoryWindow)
		samples, err = h.history.RecentByLocation(r.Context(), loc, since, 0)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		if samples == nil {
			samples = []types.WeatherSample{}
		}
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: historyResponse{Samples: samples}})
}

// parseLocationQuery extracts and validates the lat/lon query parameters.
func parseLocationQuery(q url.Values) (types.Location, error) {
	latStr := q.Get("lat")
	if latStr == "" {
		return types.Location{}, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"lat query parameter is required",
			nil,
		)
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return types.Location{}, types.NewAppError(
			types.ErrCodeValidationInvalidLat,
			"lat must be a number between -90 and 90",
			nil,
		)
	}

	lonStr := q.Get("lon")
	if lonStr == "" {
		return types.Location{}, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"lon query parameter is required",
			nil,
		)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return types.Location{}, types.NewAppError(
			types.ErrCodeValidationInvalidLon,
			"lon must be a number between -180 and 180",
			nil,
		)
	}

	return types.Location{Lat: lat, Lon: lon}, nil
}
