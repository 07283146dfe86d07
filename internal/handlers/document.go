package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"research-assistant/internal/contextutil"
)

// DocumentHandler serves uploaded files back to the browser.
type DocumentHandler struct {
	uploadDir string
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(uploadDir string) *DocumentHandler {
	return &DocumentHandler{uploadDir: uploadDir}
}

// ServeHTTP handles HTTP requests for uploaded documents.
//
// swagger:route GET /pdf/{filename} getDocument
//
// # Download an uploaded document
//
// ---
// responses:
//
//	'200':
//	  description: File contents
//	'404':
//	  description: No such upload
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *DocumentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	name := chi.URLParam(r, "filename")
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." || name[0] == '.' {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	path := filepath.Join(h.uploadDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		logger.WarnContext(ctx, "document not found", "file", name)
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	http.ServeFile(w, r, path)
}
