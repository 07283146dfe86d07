package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"research-assistant/internal/contextutil"
	"research-assistant/internal/ingest"
)

// UploadHandler accepts a document and makes it the active session.
type UploadHandler struct {
	sessions  Sessions
	uploadDir string
	maxBytes  int64
}

// NewUploadHandler creates a new UploadHandler. Files are saved into uploadDir.
func NewUploadHandler(sessions Sessions, uploadDir string, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		sessions:  sessions,
		uploadDir: uploadDir,
		maxBytes:  maxBytes,
	}
}

// UploadResponse represents the HTTP response payload for uploads.
//
// swagger:model UploadResponse
type UploadResponse struct {
	Message     string `json:"message"`
	Filename    string `json:"filename"`
	TotalChunks int    `json:"total_chunks"`
	SessionID   string `json:"session_id"`
}

// ServeHTTP handles HTTP requests for uploads.
//
// swagger:route POST /upload uploadDocument
//
// # Upload a document
//
// Accepts a multipart form with a single "file" field (.pdf, .md or .txt).
// The previous document and its index are discarded once the new one is indexed;
// a failed upload leaves them in place.
//
// ---
// consumes:
// - multipart/form-data
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Document indexed
//	  schema:
//	    "$ref": "#/definitions/UploadResponse"
//	'400':
//	  description: Missing file, unsupported format or no extractable text
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'413':
//	  description: File too large
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds %d bytes", h.maxBytes))
			return
		}
		logger.WarnContext(ctx, "missing upload file", "error", err)
		writeError(w, http.StatusBadRequest, "A file field is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	filename := filepath.Base(header.Filename)
	if filename == "." || filename == string(filepath.Separator) || !ingest.Supported(filename) {
		writeError(w, http.StatusBadRequest, "Only PDF, Markdown and text files are supported")
		return
	}

	staged, err := stageFile(h.uploadDir, filename, file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds %d bytes", h.maxBytes))
			return
		}
		logger.ErrorContext(ctx, "failed to save upload", "file", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}
	// Gone after a successful Replace; removes the staged copy otherwise.
	defer func() {
		_ = os.Remove(staged)
	}()

	logger.InfoContext(ctx, "processing upload", "file", filename, "size", header.Size)

	s, err := h.sessions.Replace(ctx, filename, staged, filepath.Join(h.uploadDir, filename))
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			writeError(w, http.StatusBadRequest, "Only PDF, Markdown and text files are supported")
		case errors.Is(err, ingest.ErrNoText):
			writeError(w, http.StatusBadRequest, "No text could be extracted from the document")
		default:
			logger.ErrorContext(ctx, "failed to process upload", "file", filename, "error", err)
			writeError(w, http.StatusInternalServerError, "Error processing document")
		}
		return
	}

	writeJSON(ctx, w, UploadResponse{
		Message:     "Document processed successfully",
		Filename:    filename,
		TotalChunks: s.Corpus.Len(),
		SessionID:   s.ID,
	})
}

// stageFile writes src to a hidden file in dir that keeps the upload's
// extension. Hidden names are never served by DocumentHandler.
func stageFile(dir, filename string, src io.Reader) (string, error) {
	tmp, err := os.CreateTemp(dir, ".upload-*"+filepath.Ext(filename))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close upload: %w", err)
	}
	return tmp.Name(), nil
}
