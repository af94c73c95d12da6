// Package insightservice coordinates the master document, the report store
// and the report catalog for the outer shells (HTTP and MCP).
package insightservice

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/starford/insights/internal/apperr"
	"github.com/starford/insights/internal/crossref"
	"github.com/starford/insights/internal/index"
	"github.com/starford/insights/internal/master"
	"github.com/starford/insights/internal/models"
	"github.com/starford/insights/internal/parser"
	"github.com/starford/insights/internal/reports"
	"github.com/starford/insights/internal/search"
)

// Publisher receives change notifications.
type Publisher interface {
	PublishMasterUpdated(totalInterviews int)
}

// Analyzer turns a transcript into an analysis. existing is the current
// master document text and number is the interview's ordinal.
type Analyzer interface {
	Analyze(ctx context.Context, t models.Transcript, existing string, number int) (models.AnalysisResult, error)
}

// IngestResult describes one stored analysis.
type IngestResult struct {
	Respondent      string `json:"respondent"`
	ReportPath      string `json:"report_path"`
	AnalysisID      string `json:"analysis_id"`
	InterviewNumber int    `json:"interview_number"`
	TokensUsed      int    `json:"tokens_used"`
	Model           string `json:"model"`
}

// BatchItem is one entry of a batch ingest.
type BatchItem struct {
	Transcript models.Transcript     `json:"transcript"`
	Result     models.AnalysisResult `json:"result"`
}

// BatchOutcome is the per-item result of a batch ingest.
type BatchOutcome struct {
	Respondent string        `json:"respondent"`
	Success    bool          `json:"success"`
	Result     *IngestResult `json:"result,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// CompareResult is the outcome of a cross-reference run.
type CompareResult struct {
	Comparisons         []models.Comparison `json:"comparisons"`
	TotalReportsChecked int                 `json:"total_reports_checked"`
}

// ReportDetail is a single stored report.
type ReportDetail struct {
	Filename   string          `json:"filename"`
	Respondent string          `json:"respondent"`
	Content    string          `json:"content"`
	Metadata   models.Metadata `json:"metadata"`
	Tags       []string        `json:"tags"`
	Entities   []string        `json:"entities"`
}

// Service is the orchestration layer over the insights core.
type Service struct {
	master   *master.Document
	reports  *reports.Store
	matcher  *crossref.Matcher
	search   *search.Index
	entities *parser.Entities

	db     index.Catalog
	source index.Source

	analyzer  Analyzer
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time

	// writeMu serialises Ingest and ReplaceMaster within this process so
	// interview numbers stay sequential. The master document and report
	// store themselves do no locking, and separate processes sharing one
	// directory are not coordinated.
	writeMu sync.Mutex

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Option configures a Service.
type Option func(*Service)

// WithCatalog attaches the report catalog used for filters and facets.
func WithCatalog(db index.Catalog, src index.Source) Option {
	return func(s *Service) {
		s.db = db
		s.source = src
	}
}

// WithAnalyzer sets the collaborator used by Analyze.
func WithAnalyzer(a Analyzer) Option {
	return func(s *Service) { s.analyzer = a }
}

// WithPublisher sets the change notification sink.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source for analysis identifiers.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service. entities may be nil, in which case the built-in
// dictionary is used.
func New(doc *master.Document, store *reports.Store, entities *parser.Entities, opts ...Option) *Service {
	if entities == nil {
		entities = parser.DefaultEntities()
	}
	s := &Service{
		master:   doc,
		reports:  store,
		entities: entities,
		logger:   slog.Default(),
		now:      time.Now,
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.matcher = crossref.New(store, s.logger)
	s.search = search.New(doc, store)
	return s
}

// Master returns the master document text with its statistics.
func (s *Service) Master(_ context.Context) (string, models.Statistics) {
	text := s.master.Load()
	return text, s.statistics()
}

// ReplaceMaster overwrites the whole master document.
func (s *Service) ReplaceMaster(_ context.Context, content string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if !s.master.Save(content) {
		return fmt.Errorf("%w: master document", apperr.ErrPersist)
	}
	s.publishMaster()
	return nil
}

// Statistics returns master statistics plus the number of stored reports.
func (s *Service) Statistics(_ context.Context) models.Statistics {
	return s.statistics()
}

func (s *Service) statistics() models.Statistics {
	st := s.master.Statistics()
	st.ReportCount = len(s.reports.Scan())
	return st
}

// Ingest stores a finished analysis: it writes the report, appends the
// analysis to the master document and refreshes the catalog row.
func (s *Service) Ingest(_ context.Context, t models.Transcript, res models.AnalysisResult) (*IngestResult, error) {
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("%w: %s", apperr.ErrAnalysisFailed, msg)
	}
	if strings.TrimSpace(t.RespondentName) == "" {
		return nil, fmt.Errorf("%w: respondent name is required", apperr.ErrInvalidInput)
	}
	if strings.TrimSpace(res.Analysis) == "" {
		return nil, fmt.Errorf("%w: analysis is empty", apperr.ErrInvalidInput)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	count := s.master.Statistics().TotalInterviews + 1
	id := s.newID()

	meta := models.Metadata{}.
		Add("analysis_id", id).
		Add("word_count", t.WordCount).
		Add("tokens_used", res.TokensUsed).
		Add("model", res.Model)
	if banks := s.entities.ExtractCached(t.RespondentName, t.Content); len(banks) > 0 {
		meta = meta.Add("banks", strings.Join(banks, ", "))
	}

	rel := s.reports.Save(t.RespondentName, res.Analysis, meta)
	if rel == "" {
		return nil, fmt.Errorf("%w: report for %s", apperr.ErrPersist, t.RespondentName)
	}
	if !s.master.AppendAndPersist(res.Analysis, t.RespondentName, count) {
		return nil, fmt.Errorf("%w: master document", apperr.ErrPersist)
	}

	s.refreshCatalog(path.Base(rel))
	s.publishMaster()

	s.logger.Info("insights: analysis ingested",
		slog.String("respondent", t.RespondentName),
		slog.String("analysis_id", id),
		slog.Int("interview_number", count),
		slog.String("report", rel))

	return &IngestResult{
		Respondent:      t.RespondentName,
		ReportPath:      rel,
		AnalysisID:      id,
		InterviewNumber: count,
		TokensUsed:      res.TokensUsed,
		Model:           res.Model,
	}, nil
}

// IngestBatch ingests items one after another and reports each outcome.
// A failing item does not stop the rest.
func (s *Service) IngestBatch(ctx context.Context, items []BatchItem) []BatchOutcome {
	out := make([]BatchOutcome, 0, len(items))
	for _, it := range items {
		o := BatchOutcome{Respondent: it.Transcript.RespondentName}
		res, err := s.Ingest(ctx, it.Transcript, it.Result)
		if err != nil {
			o.Error = err.Error()
		} else {
			o.Success = true
			o.Result = res
		}
		out = append(out, o)
	}
	return out
}

// Analyze runs the configured Analyzer on t and ingests the result.
func (s *Service) Analyze(ctx context.Context, t models.Transcript) (*IngestResult, error) {
	if s.analyzer == nil {
		return nil, fmt.Errorf("%w: no analyzer configured", apperr.ErrAnalysisFailed)
	}
	existing := s.master.Load()
	number := s.master.Statistics().TotalInterviews + 1
	res, err := s.analyzer.Analyze(ctx, t, existing, number)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrAnalysisFailed, err)
	}
	return s.Ingest(ctx, t, res)
}

// ListReports returns stored reports, newest first. With a tag or entity
// filter the catalog answers; otherwise the reports directory does.
func (s *Service) ListReports(_ context.Context, tag, entity string) ([]models.ReportInfo, error) {
	if tag == "" && entity == "" {
		return s.reports.List(), nil
	}
	if s.db == nil {
		return nil, fmt.Errorf("%w: filters need the report catalog", apperr.ErrInvalidInput)
	}
	rows, err := s.db.ListReports(tag, entity)
	if err != nil {
		return nil, err
	}
	out := make([]models.ReportInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.ReportInfo{
			Filename:   r.Filename,
			Respondent: r.Respondent,
			Path:       path.Join(s.reports.Dir(), r.Filename),
			SizeBytes:  r.SizeBytes,
			ModifiedAt: r.UpdatedAt,
		})
	}
	return out, nil
}

// GetReport returns one report by filename.
func (s *Service) GetReport(_ context.Context, filename string) (*ReportDetail, error) {
	content, ok := s.reports.Read(filename)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	rep := parser.ParseReport(content)
	return &ReportDetail{
		Filename:   filename,
		Respondent: reports.RespondentFromFilename(filename),
		Content:    content,
		Metadata:   nonNilMeta(rep.Metadata),
		Tags:       nonNil(rep.Tags),
		Entities:   s.entities.Extract(rep.Body),
	}, nil
}

// ReportByRespondent returns the content of a report of the respondent.
func (s *Service) ReportByRespondent(_ context.Context, name string) (string, error) {
	content, ok := s.reports.LoadByRespondent(name)
	if !ok {
		return "", apperr.ErrNotFound
	}
	return content, nil
}

// Compare cross-references insights against the reports of every
// respondent other than current.
func (s *Service) Compare(_ context.Context, insights []models.Insight, current string) CompareResult {
	all := s.reports.List()
	return CompareResult{
		Comparisons:         s.matcher.Compare(insights, current, all),
		TotalReportsChecked: len(all) - 1,
	}
}

// Search runs a literal search. The empty query is rejected; whitespace
// is searched for like any other text.
func (s *Service) Search(_ context.Context, query string) ([]models.SearchHit, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", apperr.ErrInvalidInput)
	}
	return s.search.Search(query), nil
}

// ExtractEntities returns the canonical organisation names found in text.
func (s *Service) ExtractEntities(_ context.Context, text string) []string {
	return s.entities.Extract(text)
}

// Tags returns tag frequencies across catalogued reports.
func (s *Service) Tags(_ context.Context) ([]index.FacetCount, error) {
	if s.db == nil {
		return []index.FacetCount{}, nil
	}
	return s.db.TagCounts()
}

// Entities returns entity frequencies across catalogued reports.
func (s *Service) Entities(_ context.Context) ([]index.FacetCount, error) {
	if s.db == nil {
		return []index.FacetCount{}, nil
	}
	return s.db.EntityCounts()
}

func (s *Service) refreshCatalog(filename string) {
	if s.db == nil {
		return
	}
	if err := index.IndexReport(s.db, s.source, filename); err != nil {
		s.logger.Warn("insights: catalog refresh failed", slog.String("filename", filename), slog.String("error", err.Error()))
	}
}

func (s *Service) publishMaster() {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishMasterUpdated(s.master.Statistics().TotalInterviews)
}

func (s *Service) newID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMeta(m models.Metadata) models.Metadata {
	if m == nil {
		return models.Metadata{}
	}
	return m
}
