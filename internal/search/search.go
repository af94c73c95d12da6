// Package search runs literal, case-insensitive substring queries over the
// master document and every stored report.
package search

import (
	"strings"

	"github.com/starford/insights/internal/models"
)

// MasterSource is the source label of hits in the master document.
const MasterSource = "master"

const contextLines = 2

// Master provides the master document text.
type Master interface {
	Load() string
}

// Reports enumerates and reads stored reports.
type Reports interface {
	Scan() []models.ReportInfo
	Read(filename string) (string, bool)
}

// Index searches the master document and the reports.
type Index struct {
	master  Master
	reports Reports
}

// New returns an Index over master and reports.
func New(master Master, reports Reports) *Index {
	return &Index{master: master, reports: reports}
}

// Search returns one hit per matching master line, with two lines of
// context on each side, followed by one hit per matching report. The
// empty query matches everything.
func (x *Index) Search(query string) []models.SearchHit {
	q := strings.ToLower(query)
	hits := []models.SearchHit{}

	lines := strings.Split(x.master.Load(), "\n")
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), q) {
			continue
		}
		lo := max(0, i-contextLines)
		hi := min(len(lines), i+contextLines+1)
		hits = append(hits, models.SearchHit{
			Source:     MasterSource,
			LineNumber: i + 1,
			Context:    strings.Join(lines[lo:hi], "\n"),
		})
	}

	for _, r := range x.reports.Scan() {
		content, ok := x.reports.Read(r.Filename)
		if !ok || !strings.Contains(strings.ToLower(content), q) {
			continue
		}
		hits = append(hits, models.SearchHit{
			Source:     r.Filename,
			Respondent: r.Respondent,
			Matched:    true,
		})
	}
	return hits
}
