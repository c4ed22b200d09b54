package logbook

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "session.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestAppendFormatsLevelAndFoldsLines(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "session.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }
	book.Warn("import failed:\n  missing column %s", "ProvNr")
	lines, _ := book.Tail(1)
	want := "2024-03-01T09:30:00Z WARN  import failed: missing column ProvNr"
	if len(lines) != 1 || lines[0] != want {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
}

func TestNilLogbookIsNoop(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	if lines, total := book.Tail(5); lines != nil || total != 0 {
		t.Fatalf("nil logbook returned %v %d", lines, total)
	}
	if book.Path() != "" {
		t.Fatalf("nil logbook path should be empty")
	}
}

func TestRecentFiltersByLevel(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "session.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Info("imported 3 sample(s)")
	book.Warn("assign rejected: selection does not fit")
	book.Info("removed 1 row(s)")
	book.Error("export /tmp/x.csv: permission denied")

	entries, total := book.Recent(10, LevelWarn)
	if total != 2 || len(entries) != 2 {
		t.Fatalf("warn+ entries = %d/%d, want 2", len(entries), total)
	}
	if entries[0].Level != LevelWarn || entries[1].Level != LevelError {
		t.Fatalf("levels = %s %s", entries[0].Level, entries[1].Level)
	}
	if entries[1].Message != "export /tmp/x.csv: permission denied" {
		t.Fatalf("message = %q", entries[1].Message)
	}
	if _, all := book.Recent(1, LevelInfo); all != 4 {
		t.Fatalf("total = %d, want 4", all)
	}
}

func TestParseEntryKeepsForeignLines(t *testing.T) {
	e := parseEntry("written by hand")
	if e.Level != LevelInfo || e.Message != "written by hand" {
		t.Fatalf("entry = %+v", e)
	}
	e = parseEntry("2024-03-01T09:30:00Z ERROR reload barcodes: bad yaml")
	if e.Level != LevelError || e.Message != "reload barcodes: bad yaml" || e.Time.Hour() != 9 {
		t.Fatalf("entry = %+v", e)
	}
}
