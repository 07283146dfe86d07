package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"research-assistant/internal/contextutil"
	"research-assistant/internal/session"
)

// RefineHandler improves an earlier answer with extra context.
type RefineHandler struct {
	sessions Sessions
	validate *validator.Validate
}

// NewRefineHandler creates a new RefineHandler.
func NewRefineHandler(sessions Sessions) *RefineHandler {
	return &RefineHandler{
		sessions: sessions,
		validate: validator.New(),
	}
}

// RefineRequest represents the HTTP request payload for answer refinement.
//
// swagger:model RefineRequest
type RefineRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	Context  string `json:"context"`
}

// RefineResponse represents the HTTP response payload for answer refinement.
//
// swagger:model RefineResponse
type RefineResponse struct {
	Answer string `json:"answer"`
}

// ServeHTTP handles HTTP requests for answer refinement.
// A failed generation returns the original answer unchanged.
//
// swagger:route POST /qa/refine refineAnswer
//
// # Refine an answer
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Refined answer
//	  schema:
//	    "$ref": "#/definitions/RefineResponse"
//	'400':
//	  description: Invalid body or no document uploaded
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *RefineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req RefineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		logger.WarnContext(ctx, "request validation failed", "error", err)
		writeError(w, http.StatusBadRequest, "Question and answer are required")
		return
	}

	s, release, err := h.sessions.Acquire()
	if err != nil {
		if errors.Is(err, session.ErrNoDocument) {
			writeError(w, http.StatusBadRequest, "No document has been uploaded yet")
			return
		}
		logger.ErrorContext(ctx, "failed to acquire session", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer release()

	writeJSON(ctx, w, RefineResponse{
		Answer: s.Engine.Refine(ctx, req.Question, req.Answer, req.Context),
	})
}
