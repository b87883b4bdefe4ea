package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"stockbook/internal/core"
)

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorDetails(w, r, message, code, status, nil)
}

func writeErrorDetails(w http.ResponseWriter, r *http.Request, message, code string, status int, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON wraps v in the success envelope and writes it with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(successResponse{Success: true, Data: v})
}

// writeServiceError maps a core error onto an HTTP status: validation
// failures are 400, missing entities 404, auth failures 401, and anything
// unrecognized is a logged 500 with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var insufficient *core.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		writeErrorDetails(w, r, insufficient.Error(), "INSUFFICIENT_STOCK", http.StatusBadRequest, map[string]string{
			"available": insufficient.Available.String(),
			"requested": insufficient.Requested.String(),
		})
	case core.IsValidation(err):
		writeError(w, r, err.Error(), "INVALID_OPERATION", http.StatusBadRequest)
	case core.IsNotFound(err):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrUnauthorized):
		writeError(w, r, "unauthorized", "UNAUTHORIZED", http.StatusUnauthorized)
	default:
		log.Printf("internal error on %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
