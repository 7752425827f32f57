package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/grampsxml/internal/archive"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *archive.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Engine endpoints; nothing is stored.
	r.Post("/parse", h.Parse)
	r.Post("/validate", h.Validate)
	r.Post("/serialize", h.Serialize)

	// Archives.
	r.Get("/archives", h.ListArchives)
	r.Get("/archives/*", h.GetArchive)
	r.Put("/archives/*", h.PutArchive)
	r.Delete("/archives/*", h.DeleteArchive)
	r.Get("/violations/*", h.Violations)
	r.Post("/batch/validate", h.ValidateAll)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
