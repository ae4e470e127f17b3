package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"shiv-erp/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
	Field     string `json:"field,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorField(w, r, message, code, "", status)
}

func writeErrorField(w http.ResponseWriter, r *http.Request, message, code, field string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
		Field:     field,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// errorStatus maps a domain error kind to its HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, core.ErrInvalidState):
		return http.StatusConflict, "INVALID_STATE"
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, core.ErrCalculationInconsistency):
		return http.StatusUnprocessableEntity, "CALCULATION_INCONSISTENCY"
	case errors.Is(err, core.ErrDependencyFailure):
		return http.StatusBadGateway, "DEPENDENCY_FAILURE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// writeServiceError renders an error returned by the application service.
// Unclassified errors are logged and reported without their detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, r, "internal server error", code, status)
		return
	}
	writeErrorField(w, r, err.Error(), code, core.FieldOf(err), status)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
