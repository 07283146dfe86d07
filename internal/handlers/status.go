package handlers

import (
	"net/http"

	"research-assistant/internal/contextutil"
)

// StatusHandler reports the active session.
type StatusHandler struct {
	sessions Sessions
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(sessions Sessions) *StatusHandler {
	return &StatusHandler{sessions: sessions}
}

// ServeHTTP handles HTTP requests for status.
//
// swagger:route GET /status status
//
// # Session status
//
// Always 200; session_loaded is false until a document is uploaded.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Current session
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(ctx, w, h.sessions.Status())
}
