package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/raido/internal/journal"
)

// NewRouter creates a chi router with all control routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(syncer Syncer, history journal.Journal, authEnabled bool, token string) chi.Router {
	h := NewHandler(syncer, history)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/status", h.Status)
	r.Post("/sync", h.TriggerSync)
	r.Get("/runs", h.ListRuns)

	return r
}
