package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/meltforce/gripdose/internal/ingest"
)

const sampleCSV = `date;side;grip;load_kg;duration_s;rest_s
2026-08-01;left;half_crimp;80;20;180
2026-08-01;right;half_crimp;85;20;180
2026-08-03;left;half_crimp;75;30;180
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestImportDryRun verifies that dry-run mode parses and counts files without
// a database connection.
func TestImportDryRun(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "2026-08.csv"), []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not a csv"), 0o644); err != nil {
		t.Fatal(err)
	}

	imp := New(ingest.NewProvider(nil, testLogger()), testLogger(), true)
	stats, err := imp.Import(context.Background(), 1, dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if stats.FilesProcessed != 1 {
		t.Errorf("FilesProcessed = %d, want 1", stats.FilesProcessed)
	}
	if stats.SessionsParsed != 3 {
		t.Errorf("SessionsParsed = %d, want 3", stats.SessionsParsed)
	}
	if stats.SessionsInserted != 0 {
		t.Errorf("SessionsInserted = %d, want 0 in dry-run", stats.SessionsInserted)
	}
}

// TestImportMalformedFile verifies that an unparseable CSV counts as an
// errored file and does not abort the walk.
func TestImportMalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.csv"), []byte("date;side\n2026-08-01"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "good.csv"), []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	imp := New(ingest.NewProvider(nil, testLogger()), testLogger(), true)
	stats, err := imp.Import(context.Background(), 1, dir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if stats.FilesErrored != 1 {
		t.Errorf("FilesErrored = %d, want 1", stats.FilesErrored)
	}
	if stats.FilesProcessed != 1 {
		t.Errorf("FilesProcessed = %d, want 1", stats.FilesProcessed)
	}
}
