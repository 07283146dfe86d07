package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"research-assistant/internal/contextutil"
	"research-assistant/internal/session"
)

// Sessions is the view of session.Manager the handlers need.
type Sessions interface {
	Acquire() (*session.Session, func(), error)
	Replace(ctx context.Context, filename, path, dest string) (*session.Session, error)
	Status() session.Status
}

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
