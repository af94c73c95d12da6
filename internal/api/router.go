package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/insights/internal/insightservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *insightservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Master document.
	r.Get("/insights", h.GetMaster)
	r.Put("/insights", h.ReplaceMaster)
	r.Get("/statistics", h.Statistics)

	// Reports.
	r.Get("/reports", h.ListReports)
	r.Get("/reports/{filename}", h.GetReport)
	r.Get("/respondents/{name}/report", h.ReportByRespondent)

	// Ingest.
	r.Post("/analyses", h.Ingest)
	r.Post("/analyses/batch", h.IngestBatch)

	// Cross-reference and search.
	r.Post("/compare-insights", h.Compare)
	r.Post("/search", h.Search)

	// Entities and facets.
	r.Post("/entities", h.ExtractEntities)
	r.Get("/entities", h.Entities)
	r.Get("/tags", h.Tags)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
