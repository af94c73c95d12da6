// Package master maintains the cumulative insights document: a metadata
// header, fixed sections, and one appended entry per analysed interview.
//
// The document has a single writer. Concurrent AppendAndPersist calls race
// on load and save and the last full overwrite wins.
package master

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/starford/insights/internal/models"
	"github.com/starford/insights/internal/parser"
	"github.com/starford/insights/internal/storage"
)

const dateLayout = "2006-01-02"

const defaultTemplate = `# Накопленные инсайты из интервью

## Метаданные
- ` + countLabel + `0
- ` + lastUpdateLabel + neverUpdated + `
- Дата создания базы: %s

## Ключевые темы

_Темы будут добавлены после первичного анализа транскриптов_

## Паттерны поведения

_Паттерны будут выявлены после анализа_

## Боли пользователей

_Боли будут идентифицированы после анализа_

## Рекомендации для следующих интервью

_Рекомендации будут сформированы на основе накопленных данных_
`

// Document is the master insights document stored at one path.
type Document struct {
	store  storage.Provider
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Document.
type Option func(*Document)

// WithClock overrides the time source used for dates.
func WithClock(now func() time.Time) Option {
	return func(d *Document) { d.now = now }
}

// WithLogger sets the logger that records swallowed I/O failures.
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) {
		if l != nil {
			d.logger = l
		}
	}
}

// New returns the document stored at path within store.
func New(store storage.Provider, path string, opts ...Option) *Document {
	d := &Document{
		store:  store,
		path:   path,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load returns the persisted text. When nothing is persisted yet the
// default template is written and returned. Read failures yield "".
func (d *Document) Load() string {
	data, err := d.store.Read(d.path)
	if err == nil {
		return string(data)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		d.logger.Error("master: load failed", slog.String("path", d.path), slog.String("error", err.Error()))
		return ""
	}

	text := fmt.Sprintf(defaultTemplate, d.today())
	if err := d.store.Write(d.path, []byte(text)); err != nil {
		d.logger.Error("master: persist template failed", slog.String("path", d.path), slog.String("error", err.Error()))
	}
	return text
}

// Save replaces the persisted document with text. A failed save leaves
// the previous content in place.
func (d *Document) Save(text string) bool {
	if err := d.store.Write(d.path, []byte(text)); err != nil {
		d.logger.Error("master: save failed", slog.String("path", d.path), slog.String("error", err.Error()))
		return false
	}
	return true
}

// UpdateMetadata sets the interview count to count and the last update to
// today on the first occurrence of each field.
func (d *Document) UpdateMetadata(text string, count int) string {
	return writeHeader(text, header{count: count, lastUpdate: d.today()})
}

// Append adds an entry for respondent holding analysis verbatim.
func (d *Document) Append(text, analysis, respondent string) string {
	return text +
		"\n\n---\n\n## Инсайты из интервью: " + respondent + "\n" +
		"_Дата добавления: " + d.today() + "_\n\n" +
		analysis
}

// AppendAndPersist loads the document, bumps its metadata to count,
// appends the new entry and saves it.
func (d *Document) AppendAndPersist(analysis, respondent string, count int) bool {
	text := d.Load()
	text = d.UpdateMetadata(text, count)
	text = d.Append(text, analysis, respondent)
	return d.Save(text)
}

// Statistics parses the metadata back out of the persisted document and
// collects its hashtags.
func (d *Document) Statistics() models.Statistics {
	text := d.Load()
	h := readHeader(text)
	tags := parser.ExtractTags(text)

	var size int64
	if meta, err := d.store.Stat(d.path); err == nil {
		size = meta.Size
	}
	return models.Statistics{
		TotalInterviews: h.count,
		LastUpdate:      h.lastUpdate,
		TagCount:        len(tags),
		Tags:            tags,
		MasterFileSize:  size,
	}
}

func (d *Document) today() string {
	return d.now().Format(dateLayout)
}
