package master

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/starford/insights/internal/models"
	"github.com/starford/insights/internal/storage"
)

var fixedDay = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDoc(t *testing.T) (*Document, *storage.FS) {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	d := New(fs, "master_insights.md",
		WithClock(func() time.Time { return fixedDay }),
		WithLogger(quietLogger()))
	return d, fs
}

// failingWrites wraps a provider and rejects every write.
type failingWrites struct {
	storage.Provider
}

func (failingWrites) Write(string, []byte) error { return errors.New("disk full") }

func TestLoad_CreatesDefault(t *testing.T) {
	d, fs := testDoc(t)
	text := d.Load()
	for _, want := range []string{
		"Всего проанализировано интервью: 0",
		"Последнее обновление: не проводилось",
		"Дата создания базы: 2025-03-14",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("default template missing %q", want)
		}
	}
	persisted, err := fs.Read("master_insights.md")
	if err != nil {
		t.Fatalf("template not persisted: %v", err)
	}
	if string(persisted) != text {
		t.Error("persisted text differs from returned text")
	}
	if again := d.Load(); again != text {
		t.Error("second Load returned different text")
	}
}

func TestSave_Overwrites(t *testing.T) {
	d, _ := testDoc(t)
	if !d.Save("manual content") {
		t.Fatal("Save returned false")
	}
	if got := d.Load(); got != "manual content" {
		t.Errorf("Load = %q", got)
	}
}

func TestSave_FailureReportsFalseAndKeepsPrevious(t *testing.T) {
	d, fs := testDoc(t)
	_ = d.Save("previous")

	broken := New(failingWrites{fs}, "master_insights.md", WithLogger(quietLogger()))
	if broken.Save("next") {
		t.Fatal("Save should report failure")
	}
	if broken.AppendAndPersist("analysis", "Иван", 1) {
		t.Fatal("AppendAndPersist should report failure")
	}
	if got := d.Load(); got != "previous" {
		t.Errorf("Load = %q, want previous", got)
	}
}

func TestUpdateMetadata_FirstOccurrenceOnly(t *testing.T) {
	d, _ := testDoc(t)
	text := "- Всего проанализировано интервью: 3\n- Последнее обновление: 2024-01-01\nquoted: Всего проанализировано интервью: 3\n"
	got := d.UpdateMetadata(text, 4)
	want := "- Всего проанализировано интервью: 4\n- Последнее обновление: 2025-03-14\nquoted: Всего проанализировано интервью: 3\n"
	if got != want {
		t.Errorf("UpdateMetadata =\n%q\nwant\n%q", got, want)
	}
	if again := d.UpdateMetadata(got, 4); again != got {
		t.Error("same count on the same day should be idempotent")
	}
}

func TestUpdateMetadata_MissingFieldsUntouched(t *testing.T) {
	d, _ := testDoc(t)
	if got := d.UpdateMetadata("no header here", 9); got != "no header here" {
		t.Errorf("UpdateMetadata = %q", got)
	}
}

func TestAppend_Format(t *testing.T) {
	d, _ := testDoc(t)
	got := d.Append("BASE", "## Боли\n- долго", "Мария")
	want := "BASE\n\n---\n\n## Инсайты из интервью: Мария\n_Дата добавления: 2025-03-14_\n\n## Боли\n- долго"
	if got != want {
		t.Errorf("Append =\n%q\nwant\n%q", got, want)
	}
}

func TestAppendAndPersist_Sequential(t *testing.T) {
	d, _ := testDoc(t)
	names := []string{"Анна", "Борис", "Вера"}
	for i, name := range names {
		if !d.AppendAndPersist(fmt.Sprintf("анализ %d #тег%d", i, i), name, i+1) {
			t.Fatalf("AppendAndPersist %d failed", i)
		}
	}

	stats := d.Statistics()
	if stats.TotalInterviews != len(names) {
		t.Errorf("TotalInterviews = %d, want %d", stats.TotalInterviews, len(names))
	}
	if stats.LastUpdate != "2025-03-14" {
		t.Errorf("LastUpdate = %q", stats.LastUpdate)
	}

	text := d.Load()
	if n := strings.Count(text, "\n---\n\n## Инсайты из интервью: "); n != len(names) {
		t.Errorf("entry separators = %d, want %d", n, len(names))
	}
	last := -1
	for _, name := range names {
		idx := strings.Index(text, "## Инсайты из интервью: "+name)
		if idx <= last {
			t.Errorf("entry for %s out of order", name)
		}
		last = idx
	}
}

func TestStatistics_DefaultsAndTags(t *testing.T) {
	d, _ := testDoc(t)
	_ = d.Save("free text #Mobile #mobile #Боль")
	stats := d.Statistics()
	want := models.Statistics{
		TotalInterviews: 0,
		LastUpdate:      "не проводилось",
		TagCount:        2,
		Tags:            []string{"#Mobile", "#Боль"},
	}
	if stats.TotalInterviews != want.TotalInterviews || stats.LastUpdate != want.LastUpdate || stats.TagCount != want.TagCount {
		t.Errorf("stats = %+v", stats)
	}
	if len(stats.Tags) != 2 || stats.Tags[0] != "#Mobile" || stats.Tags[1] != "#Боль" {
		t.Errorf("tags = %v", stats.Tags)
	}
	if stats.MasterFileSize == 0 {
		t.Error("MasterFileSize should be non-zero")
	}
}
