// Package handlers contains the HTTP handler implementations for the SeaSafe
// API: safety evaluation, route assessment, current conditions, and alert
// banner management.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"seasafe/internal/core"
	"seasafe/internal/routing"
	"seasafe/internal/safety"
	"seasafe/internal/types"
)

// MaxBatchSamples caps a single batch evaluation request.
const MaxBatchSamples = 50

// jsonFloat marshals like float64 except that non-finite values render as
// null. JSON has no infinity literal, and a blocked assessment carries an
// infinite cost multiplier.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// RouteServiceInterface defines the route assessment contract for the safety
// handler. Matches routing.RouteAssessor but is defined locally to keep the
// handler decoupled from the routing package's concrete type.
type RouteServiceInterface interface {
	Assess(ctx context.Context, waypoints []types.Location, departure time.Time) (*routing.RouteAssessment, error)
}

// SafetyHandler maps HTTP requests to the safety evaluator and route assessor.
type SafetyHandler struct {
	routes     RouteServiceInterface
	thresholds types.SafetyThresholds
	logger     *slog.Logger
}

// NewSafetyHandler creates a SafetyHandler. The thresholds are the server-wide
// defaults; individual evaluate requests may override them.
func NewSafetyHandler(routes RouteServiceInterface, thresholds types.SafetyThresholds, logger *slog.Logger) *SafetyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SafetyHandler{
		routes:     routes,
		thresholds: thresholds,
		logger:     logger,
	}
}

// RegisterRoutes mounts the safety endpoints onto the mux.
func (h *SafetyHandler) RegisterRoutes(r chi.Router) {
	r.Post("/evaluate", h.HandleEvaluate)
	r.Post("/evaluate/batch", h.HandleEvaluateBatch)
	r.Post("/route", h.HandleAssessRoute)
}

// evaluateRequest is the body of POST /v1/safety/evaluate. Sample uses the
// underscore-keyed map form so callers can pass raw upstream point data
// without restructuring it; omitted keys fall back to defaults (notably
// visibility, which defaults to clear).
type evaluateRequest struct {
	Sample     map[string]any          `json:"sample"`
	Thresholds *types.SafetyThresholds `json:"thresholds,omitempty"`
}

// assessmentPayload is the serialized form of a SafetyAssessment. Annotation
// is the map callers attach to shared point data; its keys are omitted
// entirely when absent.
type assessmentPayload struct {
	Level          types.SafetyLevel `json:"level"`
	LevelName      string            `json:"level_name"`
	CostMultiplier jsonFloat         `json:"cost_multiplier"`
	Warnings       []string          `json:"warnings"`
	Annotation     map[string]any    `json:"annotation"`
}

func payloadFromAssessment(a types.SafetyAssessment) assessmentPayload {
	warnings := a.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return assessmentPayload{
		Level:          a.Level,
		LevelName:      a.Level.String(),
		CostMultiplier: jsonFloat(a.CostMultiplier),
		Warnings:       warnings,
		Annotation:     types.AnnotationFromAssessment(a).ToMap(),
	}
}

// resolveThresholds returns the request override when present and valid, or
// the server defaults.
func (h *SafetyHandler) resolveThresholds(override *types.SafetyThresholds) (types.SafetyThresholds, error) {
	if override == nil {
		return h.thresholds, nil
	}
	if err := override.Validate(); err != nil {
		return types.SafetyThresholds{}, err
	}
	return *override, nil
}

// HandleEvaluate handles POST /v1/safety/evaluate.
func (h *SafetyHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := core.DecodeBody(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if req.Sample == nil {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"sample is required",
			nil,
		))
		return
	}

	thresholds, err := h.resolveThresholds(req.Thresholds)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	assessment := safety.Evaluate(types.SampleFromMap(req.Sample), thresholds)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: payloadFromAssessment(assessment)})
}

// batchEvaluateRequest is the body of POST /v1/safety/evaluate/batch.
type batchEvaluateRequest struct {
	Samples    []map[string]any        `json:"samples"`
	Thresholds *types.SafetyThresholds `json:"thresholds,omitempty"`
}

// batchEvaluateResponse pairs per-sample assessments with the aggregate the
// alert banner keys off.
type batchEvaluateResponse struct {
	Assessments []assessmentPayload `json:"assessments"`
	Aggregate   aggregatePayload    `json:"aggregate"`
}

type aggregatePayload struct {
	Level     types.SafetyLevel `json:"level"`
	LevelName string            `json:"level_name"`
	Warnings  []string          `json:"warnings"`
}

// HandleEvaluateBatch handles POST /v1/safety/evaluate/batch.
func (h *SafetyHandler) HandleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchEvaluateRequest
	if err := core.DecodeBody(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if len(req.Samples) == 0 {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"samples is required and must not be empty",
			nil,
		))
		return
	}
	if len(req.Samples) > MaxBatchSamples {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationBatchSize,
			fmt.Sprintf("batch size exceeds maximum of %d samples", MaxBatchSamples),
			nil,
		))
		return
	}

	thresholds, err := h.resolveThresholds(req.Thresholds)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	assessments := make([]types.SafetyAssessment, 0, len(req.Samples))
	payloads := make([]assessmentPayload, 0, len(req.Samples))
	for _, sample := range req.Samples {
		a := safety.Evaluate(types.SampleFromMap(sample), thresholds)
		assessments = append(assessments, a)
		payloads = append(payloads, payloadFromAssessment(a))
	}

	level, warnings := safety.Aggregate(assessments)
	if warnings == nil {
		warnings = []string{}
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: batchEvaluateResponse{
		Assessments: payloads,
		Aggregate: aggregatePayload{
			Level:     level,
			LevelName: level.String(),
			Warnings:  warnings,
		},
	}})
}

// routeRequest is the body of POST /v1/safety/route. Departure is optional
// and defaults to the current time.
type routeRequest struct {
	Waypoints []types.Location `json:"waypoints"`
	Departure time.Time        `json:"departure,omitempty"`
}

// legPayload mirrors routing.LegAssessment with a JSON-safe cost multiplier.
type legPayload struct {
	From           types.Location    `json:"from"`
	To             types.Location    `json:"to"`
	DistanceKm     float64           `json:"distance_km"`
	Level          types.SafetyLevel `json:"level"`
	CostMultiplier jsonFloat         `json:"cost_multiplier"`
}

type routePayload struct {
	Level           types.SafetyLevel `json:"level"`
	LevelName       string            `json:"level_name"`
	Warnings        []string          `json:"warnings"`
	Legs            []legPayload      `json:"legs"`
	Navigable       bool              `json:"navigable"`
	TotalDistanceKm float64           `json:"total_distance_km"`
	// WeightedCost is null when the route crosses a blocked segment.
	WeightedCost jsonFloat `json:"weighted_cost"`
}

// HandleAssessRoute handles POST /v1/safety/route.
func (h *SafetyHandler) HandleAssessRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := core.DecodeBody(r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	departure := req.Departure
	if departure.IsZero() {
		departure = time.Now().UTC()
	}

	result, err := h.routes.Assess(r.Context(), req.Waypoints, departure)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	legs := make([]legPayload, 0, len(result.Legs))
	for _, leg := range result.Legs {
		legs = append(legs, legPayload{
			From:           leg.From,
			To:             leg.To,
			DistanceKm:     leg.DistanceKm,
			Level:          leg.Level,
			CostMultiplier: jsonFloat(leg.CostMultiplier),
		})
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: routePayload{
		Level:           result.Level,
		LevelName:       result.Level.String(),
		Warnings:        warnings,
		Legs:            legs,
		Navigable:       result.Navigable,
		TotalDistanceKm: result.TotalDistanceKm,
		WeightedCost:    jsonFloat(result.WeightedCost),
	}})
}
