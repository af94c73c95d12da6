package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/insights/internal/insightservice"
	"github.com/starford/insights/internal/models"
)

const maxBatchItems = 100

// ReplaceMasterRequest is the request body for overwriting the master document.
type ReplaceMasterRequest struct {
	// Content must be present; an empty document is allowed.
	Content *string `json:"content" example:"# Накопленные инсайты из интервью" validate:"required"`
}

// Validate validates the request.
func (r ReplaceMasterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.NotNil),
	)
}

// IngestRequest carries one interview and its finished analysis.
type IngestRequest struct {
	RespondentName string `json:"respondent_name" example:"Иван Петров" validate:"required"`
	Content        string `json:"content" example:"Транскрипт интервью"`
	WordCount      int    `json:"word_count" example:"1500"`
	Analysis       string `json:"analysis" example:"## Боли\n- ..." validate:"required"`
	TokensUsed     int    `json:"tokens_used" example:"2400"`
	Model          string `json:"model" example:"gpt-4o"`
}

// Validate validates the request.
func (r IngestRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RespondentName, validation.Required),
		validation.Field(&r.Analysis, validation.Required),
		validation.Field(&r.WordCount, validation.Min(0)),
		validation.Field(&r.TokensUsed, validation.Min(0)),
	)
}

func (r IngestRequest) item() insightservice.BatchItem {
	return insightservice.BatchItem{
		Transcript: models.Transcript{
			RespondentName: r.RespondentName,
			Content:        r.Content,
			WordCount:      r.WordCount,
		},
		Result: models.AnalysisResult{
			Success:    true,
			Analysis:   r.Analysis,
			TokensUsed: r.TokensUsed,
			Model:      r.Model,
		},
	}
}

// BatchIngestRequest carries several analyses. Items are checked one by
// one by the service so a bad item does not reject the batch.
type BatchIngestRequest struct {
	Items []IngestRequest `json:"items" validate:"required"`
}

// Validate validates the request.
func (r BatchIngestRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Items, validation.Required, validation.Length(1, maxBatchItems), validation.Skip),
	)
}

// CompareRequest is the request body for cross-referencing insights.
type CompareRequest struct {
	TranscriptName string           `json:"transcript_name" example:"Иван-Петров"`
	Insights       []models.Insight `json:"insights" validate:"required"`
}

// Validate validates the request.
func (r CompareRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Insights, validation.NotNil),
	)
}

// SearchRequest is the request body for a literal search.
type SearchRequest struct {
	Query string `json:"query" example:"переводы" validate:"required"`
}

// Validate validates the request.
func (r SearchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required),
	)
}

// EntitiesRequest is the request body for entity extraction.
type EntitiesRequest struct {
	Text string `json:"text" example:"Перевожу из Сбера в Тинькофф" validate:"required"`
}

// Validate validates the request.
func (r EntitiesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required),
	)
}

// MasterResponse is the master document with its statistics.
type MasterResponse struct {
	Insights   string            `json:"insights"`
	Statistics models.Statistics `json:"statistics"`
}

// ReportListResponse wraps report listings.
type ReportListResponse struct {
	Count   int                 `json:"count" example:"3"`
	Reports []models.ReportInfo `json:"reports"`
}

// RespondentReportResponse is a report looked up by respondent.
type RespondentReportResponse struct {
	Respondent string `json:"respondent" example:"Иван-Петров"`
	Content    string `json:"content"`
}

// BatchIngestResponse reports the outcome of each batch item.
type BatchIngestResponse struct {
	AnalyzedCount int                           `json:"analyzed_count" example:"2"`
	Results       []insightservice.BatchOutcome `json:"results"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Query   string             `json:"query"`
	Count   int                `json:"count"`
	Results []models.SearchHit `json:"results"`
}
