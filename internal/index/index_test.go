package index

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/insights/internal/parser"
	"github.com/starford/insights/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "insights-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"reports", "report_tags", "report_entities"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := ReportRow{
		Filename:   "Анна_20250314_103000.md",
		Respondent: "Анна",
		Checksum:   "abc123",
		Tags:       []string{"переводы"},
		UpdatedAt:  time.Now(),
	}
	if err := db.UpsertReport(row); err != nil {
		t.Fatalf("UpsertReport: %v", err)
	}
	cs, err := db.GetChecksum(row.Filename)
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestUpsertReplacesFacets(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertReport(ReportRow{Filename: "a.md", Checksum: "1", Tags: []string{"old"}, Entities: []string{"Сбербанк"}, UpdatedAt: now})
	_ = db.UpsertReport(ReportRow{Filename: "a.md", Checksum: "2", Tags: []string{"new"}, UpdatedAt: now})

	if rows, _ := db.ListReports("old", ""); len(rows) != 0 {
		t.Errorf("old tag should be removed on upsert, got %+v", rows)
	}
	if rows, _ := db.ListReports("", "Сбербанк"); len(rows) != 0 {
		t.Errorf("old entity should be removed on upsert, got %+v", rows)
	}
	rows, _ := db.ListReports("new", "")
	if len(rows) != 1 || rows[0].Checksum != "2" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestDeleteReport(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertReport(ReportRow{Filename: "del.md", Checksum: "x", Tags: []string{"t"}, UpdatedAt: time.Now()})

	if err := db.DeleteReport("del.md"); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if cs, _ := db.GetChecksum("del.md"); cs != "" {
		t.Errorf("deleted report still has checksum %q", cs)
	}
	if tags, _ := db.TagCounts(); len(tags) != 0 {
		t.Errorf("expected no tags after delete, got %+v", tags)
	}
}

func TestListReports_FiltersAndOrder(t *testing.T) {
	db := testDB(t)
	base := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	_ = db.UpsertReport(ReportRow{Filename: "a.md", Respondent: "a", Tags: []string{"Переводы"}, Entities: []string{"Тинькофф"}, UpdatedAt: base})
	_ = db.UpsertReport(ReportRow{Filename: "b.md", Respondent: "b", Tags: []string{"переводы", "кэшбэк"}, UpdatedAt: base.Add(time.Hour)})
	_ = db.UpsertReport(ReportRow{Filename: "c.md", Respondent: "c", Entities: []string{"Тинькофф"}, UpdatedAt: base.Add(2 * time.Hour)})

	all, err := db.ListReports("", "")
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(all) != 3 || all[0].Filename != "c.md" || all[2].Filename != "a.md" {
		t.Errorf("all = %+v", all)
	}

	byTag, _ := db.ListReports("#ПЕРЕВОДЫ", "")
	if len(byTag) != 2 || byTag[0].Filename != "b.md" {
		t.Errorf("byTag = %+v", byTag)
	}

	both, _ := db.ListReports("переводы", "Тинькофф")
	if len(both) != 1 || both[0].Filename != "a.md" {
		t.Errorf("both = %+v", both)
	}
	if len(both[0].Entities) != 1 || both[0].Entities[0] != "Тинькофф" {
		t.Errorf("entities not decoded: %+v", both[0])
	}
}

func TestFacetCounts(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertReport(ReportRow{Filename: "a.md", Tags: []string{"Переводы"}, Entities: []string{"Сбербанк"}, UpdatedAt: now})
	_ = db.UpsertReport(ReportRow{Filename: "b.md", Tags: []string{"переводы", "кэшбэк"}, Entities: []string{"Сбербанк", "Альфа-Банк"}, UpdatedAt: now})

	tags, err := db.TagCounts()
	if err != nil {
		t.Fatalf("TagCounts: %v", err)
	}
	if len(tags) != 2 || tags[0].Count != 2 {
		t.Errorf("tags = %+v", tags)
	}
	ents, _ := db.EntityCounts()
	if len(ents) != 2 || ents[0].Name != "Сбербанк" || ents[0].Count != 2 {
		t.Errorf("entities = %+v", ents)
	}
	if n, _ := db.Count(); n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestSync_IndexesAndRemovesStale(t *testing.T) {
	db := testDB(t)
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	src := Source{Store: fs, Dir: "reports", Entities: parser.DefaultEntities()}

	report := "# Анализ интервью: Анна\n\n## Метаданные\n- Респондент: Анна\n\n---\n\nПереводы в Тинькофф #переводы\n"
	_ = fs.Write("reports/Анна_20250314_103000.md", []byte(report))
	_ = db.UpsertReport(ReportRow{Filename: "gone.md", Checksum: "x", UpdatedAt: time.Now()})

	if err := Sync(db, src, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	rows, _ := db.ListReports("", "")
	if len(rows) != 1 {
		t.Fatalf("rows = %+v", rows)
	}
	r := rows[0]
	if r.Respondent != "Анна" || r.SizeBytes != int64(len(report)) {
		t.Errorf("row = %+v", r)
	}
	if len(r.Tags) != 1 || r.Tags[0] != "#переводы" {
		t.Errorf("tags = %v", r.Tags)
	}
	if len(r.Entities) != 1 || r.Entities[0] != "Тинькофф" {
		t.Errorf("entities = %v", r.Entities)
	}

	// A second pass with nothing changed leaves the catalog alone.
	if err := Sync(db, src, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n, _ := db.Count(); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestSync_SkipsUnreadableReports(t *testing.T) {
	db := testDB(t)
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	src := Source{Store: fs, Dir: "reports", Entities: parser.DefaultEntities()}
	_ = fs.Write("reports/Анна_20250314_103000.md", []byte("body #тег"))
	abs, _ := fs.Abs("reports/broken.md")
	if err := os.Symlink(filepath.Join(fs.Root(), "missing-target"), abs); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if err := Sync(db, src, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	rows, _ := db.ListReports("", "")
	if len(rows) != 1 || rows[0].Filename != "Анна_20250314_103000.md" {
		t.Errorf("rows = %+v", rows)
	}
}
