package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"research-assistant/internal/contextutil"
	"research-assistant/internal/rag"
	"research-assistant/internal/session"
)

// QAHandler answers questions about the active document.
type QAHandler struct {
	sessions Sessions
	validate *validator.Validate
}

// NewQAHandler creates a new QAHandler.
func NewQAHandler(sessions Sessions) *QAHandler {
	return &QAHandler{
		sessions: sessions,
		validate: validator.New(),
	}
}

// QARequest represents the HTTP request payload for questions.
//
// swagger:model QARequest
type QARequest struct {
	Question     string               `json:"question" validate:"required"`
	SessionNotes []SessionNoteRequest `json:"session_notes,omitempty" validate:"omitempty,dive"`
}

// SessionNoteRequest is a note attached to the question.
// Page may be a number, a numeric string, null or absent.
//
// swagger:model SessionNoteRequest
type SessionNoteRequest struct {
	Page    json.RawMessage `json:"page,omitempty"`
	Content string          `json:"content"`
}

// QAResponse represents the HTTP response payload for questions.
//
// swagger:model QAResponse
type QAResponse struct {
	// The generated answer, or a generation error message
	Answer string `json:"answer"`

	// Selected passages in the order they were given to the model
	Sources []SourceResponse `json:"sources"`

	// One reference per cited page, ascending
	PageReferences []PageReferenceResponse `json:"page_references"`

	// Selection diagnostics, only with ?debug=true
	Debug *rag.DebugInfo `json:"debug,omitempty"`
}

// SourceResponse is one selected passage.
//
// swagger:model SourceResponse
type SourceResponse struct {
	Content   string `json:"content"`
	Page      int    `json:"page"`
	ChunkID   int    `json:"chunk_id"`
	FirstLine string `json:"first_line"`
}

// PageReferenceResponse is one page citation.
//
// swagger:model PageReferenceResponse
type PageReferenceResponse struct {
	Page    int    `json:"page"`
	Text    string `json:"text"`
	Preview string `json:"preview"`
}

// ServeHTTP handles HTTP requests for questions.
//
// swagger:route POST /qa askQuestion
//
// # Ask a question about the uploaded document
//
// Page-specific questions ("what is on page 3?") read the named pages directly;
// other questions use semantic retrieval with citation filtering.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// parameters:
//   - in: query
//     name: debug
//     type: boolean
//     required: false
//
// responses:
//
//	'200':
//	  description: Answer with sources and page references
//	  schema:
//	    "$ref": "#/definitions/QAResponse"
//	'400':
//	  description: Invalid body or no document uploaded
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'503':
//	  description: Retrieval backend unavailable
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *QAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req QARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if err := h.validate.Struct(req); err != nil {
		logger.WarnContext(ctx, "request validation failed", "error", err)
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	debug := false
	if debugParam := r.URL.Query().Get("debug"); debugParam != "" {
		debug = strings.ToLower(debugParam) == "true" || debugParam == "1"
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

	notes := make([]rag.SessionNote, len(req.SessionNotes))
	for i, n := range req.SessionNotes {
		notes[i] = rag.SessionNote{Page: parseNotePage(n.Page), Content: n.Content}
	}

	result, err := s.Engine.Answer(ctx, rag.Request{
		Question: req.Question,
		Notes:    notes,
		Debug:    debug,
	})
	if err != nil {
		if errors.Is(err, rag.ErrRetrieval) {
			logger.ErrorContext(ctx, "retrieval failed", "session_id", s.ID, "error", err)
			writeError(w, http.StatusServiceUnavailable, "Retrieval service unavailable")
			return
		}
		logger.ErrorContext(ctx, "failed to answer question", "session_id", s.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process question")
		return
	}

	resp := QAResponse{
		Answer:         result.Answer,
		Sources:        make([]SourceResponse, len(result.Sources)),
		PageReferences: make([]PageReferenceResponse, len(result.PageReferences)),
		Debug:          result.Debug,
	}
	for i, src := range result.Sources {
		resp.Sources[i] = SourceResponse(src)
	}
	for i, ref := range result.PageReferences {
		resp.PageReferences[i] = PageReferenceResponse(ref)
	}

	logger.InfoContext(ctx, "question answered",
		"session_id", s.ID,
		"sources", len(resp.Sources),
		"pages", len(resp.PageReferences),
	)
	writeJSON(ctx, w, resp)
}

// parseNotePage maps a raw JSON page to a note page. Absent or null means
// unknown; anything present that is not an integer of at least 1 becomes page 1.
func parseNotePage(raw json.RawMessage) *int {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}

	page := 1
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		switch t := v.(type) {
		case float64:
			if t >= 1 && t == math.Trunc(t) && t <= math.MaxInt32 {
				page = int(t)
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil && n >= 1 {
				page = n
			}
		}
	}
	return &page
}
