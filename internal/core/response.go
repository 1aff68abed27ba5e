package core

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"seasafe/internal/types"
)

// maxRequestBodySize is the maximum allowed size of a request body (1 MB).
const maxRequestBodySize = 1 << 20

// APIResponse is the standard envelope for successful responses.
type APIResponse struct {
	Data any `json:"data,omitempty"`
}

// APIErrorResponse is the standard envelope for error responses.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned to clients.
type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id"`
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fallback := APIErrorResponse{
			Error: ErrorDetail{
				Code:      string(types.ErrCodeInternalUnexpected),
				Message:   "failed to marshal response",
				RequestID: types.GetRequestID(r.Context()),
			},
		}
		// Best-effort write; nothing more to do if this fails too.
		_ = json.NewEncoder(w).Encode(fallback)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes an error response. AppErrors map to their HTTP status with a
// structured body; generic errors become a 500 without leaking internals.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	requestID := types.GetRequestID(r.Context())

	var appErr *types.AppError
	if errors.As(err, &appErr) {
		JSON(w, r, appErr.HTTPStatus(), APIErrorResponse{
			Error: ErrorDetail{
				Code:      string(appErr.Code),
				Message:   appErr.Message,
				Details:   appErr.Details,
				RequestID: requestID,
			},
		})
		return
	}

	JSON(w, r, http.StatusInternalServerError, APIErrorResponse{
		Error: ErrorDetail{
			Code:      string(types.ErrCodeInternalUnexpected),
			Message:   "an unexpected error occurred",
			RequestID: requestID,
		},
	})
}

// DecodeBody reads and unmarshals a JSON request body into dst, enforcing
// the body size cap and rejecting malformed payloads with a validation error.
func DecodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return types.NewAppError(types.ErrCodeValidationBody, "request body is required", nil)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize+1))
	if err != nil {
		return types.NewAppError(types.ErrCodeValidationBody, "failed to read request body", err)
	}
	if int64(len(body)) > maxRequestBodySize {
		return types.NewAppError(types.ErrCodeValidationBody, "request body exceeds 1 MB", nil)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return types.NewAppError(types.ErrCodeValidationBody, "request body is required", nil)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return types.NewAppError(types.ErrCodeValidationBody, "request body is not valid JSON", err)
	}
	return nil
}
