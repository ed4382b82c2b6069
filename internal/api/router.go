package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skaldra/notedown/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/*", h.GetNote)

	// Link graph operations.
	r.Get("/resolve", h.Resolve)
	r.Post("/rename", h.Rename)
	r.Get("/backlinks", h.Backlinks)
	r.Get("/backlink-suggestion", h.BacklinkSuggestion)

	// Lint.
	r.Get("/lint", h.LintCorpus)
	r.Get("/lint/*", h.LintNote)

	// Discovery.
	r.Get("/titles", h.Titles)
	r.Get("/search", h.Search)
	r.Post("/journal", h.Journal)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
