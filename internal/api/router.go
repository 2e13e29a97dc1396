package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/protweight/internal/queryservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *queryservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/graphs", h.ListGraphs)

	r.Route("/{accession}", func(r chi.Router) {
		r.Get("/query_weight", h.QueryWeight)
		r.With(RequireJSON).Post("/query_weight", h.QueryWeight)

		r.Get("/path_to_peptide", h.PathToPeptide)
		r.With(RequireJSON).Post("/path_to_peptide", h.PathToPeptide)

		r.Get("/path_to_fasta", h.PathToFASTA)
		r.With(RequireJSON).Post("/path_to_fasta", h.PathToFASTA)

		r.Get("/bounds", h.Bounds)
	})

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
