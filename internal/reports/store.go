// Package reports persists one immutable markdown report per analysed
// interview.
package reports

import (
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/starford/insights/internal/models"
	"github.com/starford/insights/internal/storage"
)

const (
	timestampLayout = "20060102_150405"
	dateTimeLayout  = "2006-01-02 15:04:05"
)

var (
	unsafeNameRe = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s-]`)
	dashRunRe    = regexp.MustCompile(`[-\s]+`)
)

// Store keeps report files in one directory of a storage provider.
type Store struct {
	store  storage.Provider
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for filenames and headers.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger that records swallowed I/O failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a report store over dir (relative to the provider root).
func New(store storage.Provider, dir string, opts ...Option) *Store {
	s := &Store{
		store:  store,
		dir:    dir,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := store.EnsureDir(dir); err != nil {
		s.logger.Error("reports: create dir failed", slog.String("dir", dir), slog.String("error", err.Error()))
	}
	return s
}

// Dir returns the reports directory relative to the provider root.
func (s *Store) Dir() string { return s.dir }

// Sanitize turns a display name into a filename-safe respondent key:
// characters other than word characters, whitespace and hyphens are
// dropped, then runs of whitespace and hyphens become one hyphen.
func Sanitize(name string) string {
	safe := unsafeNameRe.ReplaceAllString(name, "")
	safe = strings.TrimSpace(safe)
	return dashRunRe.ReplaceAllString(safe, "-")
}

// RespondentFromFilename recovers the respondent key from a report
// filename by dropping the extension and the trailing _date_time suffix.
func RespondentFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, ".md")
	for range 2 {
		i := strings.LastIndex(name, "_")
		if i < 0 {
			break
		}
		name = name[:i]
	}
	return name
}

// Save writes a new report and returns its path relative to the provider
// root, or "" when the write failed.
func (s *Store) Save(respondent, analysis string, meta models.Metadata) string {
	now := s.now()
	filename := Sanitize(respondent) + "_" + now.Format(timestampLayout) + ".md"
	rel := path.Join(s.dir, filename)

	var b strings.Builder
	b.WriteString("# Анализ интервью: " + respondent + "\n\n")
	b.WriteString("## Метаданные\n")
	b.WriteString("- Респондент: " + respondent + "\n")
	b.WriteString("- Дата анализа: " + now.Format(dateTimeLayout) + "\n")
	for _, f := range meta {
		b.WriteString("- " + f.Key + ": " + f.Value + "\n")
	}
	b.WriteString("\n---\n\n")
	b.WriteString(analysis)
	b.WriteString("\n")

	if err := s.store.Write(rel, []byte(b.String())); err != nil {
		s.logger.Error("reports: save failed", slog.String("path", rel), slog.String("error", err.Error()))
		return ""
	}
	return rel
}

// Scan returns every report in directory enumeration order. Listing
// failures yield an empty result.
func (s *Store) Scan() []models.ReportInfo {
	metas, err := s.store.List(s.dir)
	if err != nil {
		s.logger.Error("reports: list failed", slog.String("dir", s.dir), slog.String("error", err.Error()))
		return nil
	}
	out := make([]models.ReportInfo, 0, len(metas))
	for _, m := range metas {
		out = append(out, models.ReportInfo{
			Filename:   m.Name,
			Respondent: RespondentFromFilename(m.Name),
			Path:       m.Path,
			SizeBytes:  m.Size,
			ModifiedAt: m.UpdatedAt,
		})
	}
	return out
}

// List returns every report, newest modification first.
func (s *Store) List() []models.ReportInfo {
	out := s.Scan()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ModifiedAt.After(out[j].ModifiedAt)
	})
	return out
}

// Read returns the content of the report with the given filename.
func (s *Store) Read(filename string) (string, bool) {
	if filename == "" || filename != path.Base(filename) || strings.Contains(filename, "\\") {
		return "", false
	}
	data, err := s.store.Read(path.Join(s.dir, filename))
	if err != nil {
		s.logger.Debug("reports: read failed", slog.String("filename", filename), slog.String("error", err.Error()))
		return "", false
	}
	return string(data), true
}

// LoadByRespondent returns the content of the first report, in directory
// enumeration order, whose respondent key matches name ignoring case once
// spaces in name become hyphens. With several reports for one respondent
// the choice is not necessarily the newest.
func (s *Store) LoadByRespondent(name string) (string, bool) {
	want := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	for _, r := range s.Scan() {
		if strings.ToLower(r.Respondent) != want {
			continue
		}
		return s.Read(r.Filename)
	}
	return "", false
}
