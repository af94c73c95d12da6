package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/insights/internal/insightservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *insightservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *insightservice.Service) *Handler {
	return &Handler{svc: svc}
}

// urlParam returns a decoded chi URL parameter.
func urlParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// GetMaster handles GET /api/insights.
//
//	@Summary		Get the master insights document
//	@Tags			insights
//	@Produce		json
//	@Success		200	{object}	MasterResponse
//	@Security		BearerAuth
//	@Router			/insights [get]
func (h *Handler) GetMaster(w http.ResponseWriter, r *http.Request) {
	text, stats := h.svc.Master(r.Context())
	writeJSON(w, http.StatusOK, MasterResponse{Insights: text, Statistics: stats})
}

// ReplaceMaster handles PUT /api/insights.
//
//	@Summary		Overwrite the master insights document
//	@Tags			insights
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ReplaceMasterRequest	true	"New document"
//	@Success		200		{object}	models.Statistics
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/insights [put]
func (h *Handler) ReplaceMaster(w http.ResponseWriter, r *http.Request) {
	var req ReplaceMasterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ReplaceMaster(r.Context(), *req.Content); err != nil {
		writeError(w, "replace master", err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Statistics(r.Context()))
}

// Statistics handles GET /api/statistics.
//
//	@Summary		Master document statistics
//	@Tags			insights
//	@Produce		json
//	@Success		200	{object}	models.Statistics
//	@Security		BearerAuth
//	@Router			/statistics [get]
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Statistics(r.Context()))
}

// ListReports handles GET /api/reports.
//
//	@Summary		List stored reports, newest first
//	@Tags			reports
//	@Produce		json
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			entity	query		string	false	"Filter by canonical entity"
//	@Success		200		{object}	ReportListResponse
//	@Security		BearerAuth
//	@Router			/reports [get]
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.ListReports(r.Context(), q.Get("tag"), q.Get("entity"))
	if err != nil {
		writeError(w, "list reports", err)
		return
	}
	writeJSON(w, http.StatusOK, ReportListResponse{Count: len(items), Reports: items})
}

// GetReport handles GET /api/reports/{filename}.
//
//	@Summary		Get one report by filename
//	@Tags			reports
//	@Produce		json
//	@Param			filename	path		string	true	"Report filename"
//	@Success		200			{object}	insightservice.ReportDetail
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/reports/{filename} [get]
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.GetReport(r.Context(), urlParam(r, "filename"))
	if err != nil {
		writeError(w, "get report", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ReportByRespondent handles GET /api/respondents/{name}/report.
func (h *Handler) ReportByRespondent(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	content, err := h.svc.ReportByRespondent(r.Context(), name)
	if err != nil {
		writeError(w, "report by respondent", err)
		return
	}
	writeJSON(w, http.StatusOK, RespondentReportResponse{Respondent: name, Content: content})
}

// Ingest handles POST /api/analyses.
//
//	@Summary		Store a finished interview analysis
//	@Tags			analyses
//	@Accept			json
//	@Produce		json
//	@Param			body	body		IngestRequest	true	"Interview and analysis"
//	@Success		201		{object}	insightservice.IngestResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analyses [post]
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	it := req.item()
	res, err := h.svc.Ingest(r.Context(), it.Transcript, it.Result)
	if err != nil {
		writeError(w, "ingest", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// IngestBatch handles POST /api/analyses/batch.
//
//	@Summary		Store several analyses in order
//	@Tags			analyses
//	@Accept			json
//	@Produce		json
//	@Param			body	body		BatchIngestRequest	true	"Analyses"
//	@Success		200		{object}	BatchIngestResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/analyses/batch [post]
func (h *Handler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchIngestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	items := make([]insightservice.BatchItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = it.item()
	}
	out := h.svc.IngestBatch(r.Context(), items)
	analyzed := 0
	for _, o := range out {
		if o.Success {
			analyzed++
		}
	}
	writeJSON(w, http.StatusOK, BatchIngestResponse{AnalyzedCount: analyzed, Results: out})
}

// Compare handles POST /api/compare-insights.
//
//	@Summary		Find corroborating quotes in other respondents' reports
//	@Tags			insights
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CompareRequest	true	"Insights to cross-reference"
//	@Success		200		{object}	insightservice.CompareResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/compare-insights [post]
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Compare(r.Context(), req.Insights, req.TranscriptName))
}

// Search handles POST /api/search.
//
//	@Summary		Literal search across the master document and reports
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SearchRequest	true	"Query"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [post]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	hits, err := h.svc.Search(r.Context(), req.Query)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: req.Query, Count: len(hits), Results: hits})
}

// ExtractEntities handles POST /api/entities.
func (h *Handler) ExtractEntities(w http.ResponseWriter, r *http.Request) {
	var req EntitiesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"entities": h.svc.ExtractEntities(r.Context(), req.Text),
	})
}

// Entities handles GET /api/entities.
func (h *Handler) Entities(w http.ResponseWriter, r *http.Request) {
	facets, err := h.svc.Entities(r.Context())
	if err != nil {
		writeError(w, "entity facets", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": facets})
}

// Tags handles GET /api/tags.
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	facets, err := h.svc.Tags(r.Context())
	if err != nil {
		writeError(w, "tag facets", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": facets})
}
