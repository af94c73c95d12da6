package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	s, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return s
}

func TestWriteAndRead(t *testing.T) {
	s := tempRoot(t)
	content := []byte("# Накопленные инсайты\n")
	if err := s.Write("master.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("master.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestReadMissingIsNotExist(t *testing.T) {
	s := tempRoot(t)
	_, err := s.Read("nope.md")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempRoot(t)
	if err := s.Write("reports/a.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("reports/a.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestListFlatMarkdownOnly(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("reports/a.md", []byte("a"))
	_ = s.Write("reports/b.md", []byte("bb"))
	_ = s.Write("reports/readme.txt", []byte("not md"))
	_ = s.Write("reports/nested/c.md", []byte("nested"))

	items, err := s.List("reports")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Name != "a.md" || items[0].Path != "reports/a.md" || items[1].Size != 2 {
		t.Errorf("items = %+v", items)
	}
}

func TestListKeepsGoingPastBrokenEntries(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("reports/a.md", []byte("a"))
	abs, _ := s.Abs("reports/broken.md")
	if err := os.Symlink(filepath.Join(s.Root(), "missing-target"), abs); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	items, err := s.List("reports")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var found bool
	for _, it := range items {
		if it.Name == "a.md" {
			found = true
		}
	}
	if !found {
		t.Errorf("readable report missing from %+v", items)
	}
}

func TestStat(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("m.md", []byte("12345"))
	meta, err := s.Stat("m.md")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if meta.Size != 5 {
		t.Errorf("size = %d, want 5", meta.Size)
	}
	if _, err := s.Stat("missing.md"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)
	for _, p := range []string{"../../etc/passwd", "../outside.md", "/etc/shadow"} {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("atomic.md", []byte("original"))
	if err := s.Write("atomic.md", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".insights-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestFailedWriteKeepsPrevious(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("keep.md", []byte("previous"))
	// A directory in place of the target makes the rename fail.
	if err := os.Mkdir(filepath.Join(s.Root(), "dir.md"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.Root(), "dir.md", "x"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("dir.md", []byte("new")); err == nil {
		t.Error("expected error writing over a non-empty directory")
	}
	got, _ := s.Read("keep.md")
	if string(got) != "previous" {
		t.Errorf("content = %q", got)
	}
}

func TestNewFS_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Insights")
	if _, err := NewFS(dir); err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("root not created: %v", err)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "insights-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}
