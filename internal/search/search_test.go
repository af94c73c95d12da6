package search

import (
	"strings"
	"testing"

	"github.com/starford/insights/internal/models"
)

type fakeMaster string

func (f fakeMaster) Load() string { return string(f) }

type fakeReports struct {
	infos    []models.ReportInfo
	contents map[string]string
}

func (f fakeReports) Scan() []models.ReportInfo { return f.infos }

func (f fakeReports) Read(name string) (string, bool) {
	s, ok := f.contents[name]
	return s, ok
}

func fixture() *Index {
	master := fakeMaster("l1\nl2\nl3 Переводы\nl4\nl5\nl6\nl7 переводы")
	reports := fakeReports{
		infos: []models.ReportInfo{
			{Filename: "b_20250101_000000.md", Respondent: "b"},
			{Filename: "a_20250101_000000.md", Respondent: "a"},
			{Filename: "c_20250101_000000.md", Respondent: "c"},
		},
		contents: map[string]string{
			"a_20250101_000000.md": "ПЕРЕВОДЫ долгие",
			"b_20250101_000000.md": "кэшбэк",
			"c_20250101_000000.md": "переводы и кэшбэк",
		},
	}
	return New(master, reports)
}

func TestSearch_MasterThenReports(t *testing.T) {
	hits := fixture().Search("переводы")
	if len(hits) != 4 {
		t.Fatalf("len = %d, want 4: %+v", len(hits), hits)
	}
	if hits[0].Source != MasterSource || hits[0].LineNumber != 3 {
		t.Errorf("hit 0 = %+v", hits[0])
	}
	if hits[0].Context != "l1\nl2\nl3 Переводы\nl4\nl5" {
		t.Errorf("context = %q", hits[0].Context)
	}
	if hits[1].LineNumber != 7 || hits[1].Context != "l5\nl6\nl7 переводы" {
		t.Errorf("hit 1 = %+v", hits[1])
	}
	if hits[2].Source != "a_20250101_000000.md" || hits[2].Respondent != "a" || !hits[2].Matched {
		t.Errorf("hit 2 = %+v", hits[2])
	}
	if hits[3].Source != "c_20250101_000000.md" {
		t.Errorf("hit 3 = %+v", hits[3])
	}
	for _, h := range hits[2:] {
		if h.Context != "" || h.LineNumber != 0 {
			t.Errorf("report hits carry no line context: %+v", h)
		}
	}
}

func TestSearch_LiteralNotRegex(t *testing.T) {
	x := New(fakeMaster("a.b\naxb"), fakeReports{})
	hits := x.Search("a.b")
	if len(hits) != 1 || !strings.Contains(hits[0].Context, "a.b") || hits[0].LineNumber != 1 {
		t.Errorf("hits = %+v", hits)
	}
}

func TestSearch_EmptyQueryMatchesEverything(t *testing.T) {
	hits := fixture().Search("")
	if len(hits) != 7+3 {
		t.Errorf("len = %d, want 10", len(hits))
	}
}

func TestSearch_NoMatch(t *testing.T) {
	if hits := fixture().Search("ипотека"); len(hits) != 0 {
		t.Errorf("hits = %+v", hits)
	}
}
