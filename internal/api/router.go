package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/eduhub/internal/contentservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *contentservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/items", h.ListItems)
	r.Get("/items/{id}", h.GetItem)

	r.Get("/tags", h.ListTags)
	r.Get("/tags/counts", h.TagCounts)

	r.Get("/search", h.Search)
	r.Get("/youtube", h.YouTubeID)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
