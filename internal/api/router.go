package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/narrate/internal/narrator"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *narrator.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/narrations", h.ListNarrations)
	r.Get("/preview/*", h.PreviewPost)
	r.Post("/narrate/*", h.NarratePost)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
