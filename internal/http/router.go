package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"research-assistant/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Sessions       handlers.Sessions
	UploadDir      string
	MaxUploadBytes int64
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	r.Method(http.MethodPost, "/upload", handlers.NewUploadHandler(deps.Sessions, deps.UploadDir, deps.MaxUploadBytes))
	r.Method(http.MethodPost, "/qa", handlers.NewQAHandler(deps.Sessions))
	r.Method(http.MethodPost, "/qa/refine", handlers.NewRefineHandler(deps.Sessions))
	r.Method(http.MethodGet, "/status", handlers.NewStatusHandler(deps.Sessions))
	r.Method(http.MethodGet, "/pdf/{filename}", handlers.NewDocumentHandler(deps.UploadDir))

	return r
}
