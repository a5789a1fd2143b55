package sync

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const sampleCSV = `date;side;grip;load_kg;duration_s;rest_s
2026-08-01;left;half_crimp;80;20;180
2026-08-01;right;half_crimp;85;20;180
`

// newTestServer returns an httptest server that accepts CSV ingest and
// counts the requests it receives.
func newTestServer(t *testing.T, requests *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ingest/csv" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		*requests++

		lines := 0
		for _, b := range body {
			if b == '\n' {
				lines++
			}
		}
		// header line doesn't count as a session
		json.NewEncoder(w).Encode(ingestResult{
			SessionsReceived: lines - 1,
			SessionsInserted: lines - 1,
		})
	}))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSyncerSendsNewFiles(t *testing.T) {
	requests := 0
	srv := newTestServer(t, &requests)
	defer srv.Close()

	exportDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(exportDir, "2026-08.csv"), []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	// non-CSV files are ignored
	if err := os.WriteFile(filepath.Join(exportDir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	s := New(NewClient(srv.URL, "test-key"), state, exportDir, false, testLogger())
	stats, err := s.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if requests != 1 {
		t.Errorf("server received %d requests, want 1", requests)
	}
	if stats.FilesTotal != 1 || stats.FilesSent != 1 {
		t.Errorf("stats = %+v, want 1 total / 1 sent", stats)
	}
	if stats.SessionsInserted != 2 {
		t.Errorf("SessionsInserted = %d, want 2", stats.SessionsInserted)
	}
}

func TestSyncerSkipsAlreadySent(t *testing.T) {
	requests := 0
	srv := newTestServer(t, &requests)
	defer srv.Close()

	exportDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(exportDir, "2026-08.csv"), []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	s := New(NewClient(srv.URL, ""), state, exportDir, false, testLogger())
	if _, err := s.Run(); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	s2 := New(NewClient(srv.URL, ""), state, exportDir, false, testLogger())
	stats, err := s2.Run()
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if requests != 1 {
		t.Errorf("server received %d requests, want 1 (second run should skip)", requests)
	}
	if stats.FilesSkipped != 1 || stats.FilesSent != 0 {
		t.Errorf("stats = %+v, want 1 skipped / 0 sent", stats)
	}
}

func TestSyncerDryRun(t *testing.T) {
	requests := 0
	srv := newTestServer(t, &requests)
	defer srv.Close()

	exportDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(exportDir, "2026-08.csv"), []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	s := New(NewClient(srv.URL, ""), state, exportDir, true, testLogger())
	stats, err := s.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if requests != 0 {
		t.Errorf("dry-run sent %d requests, want 0", requests)
	}
	if stats.FilesSent != 1 {
		t.Errorf("FilesSent = %d, want 1", stats.FilesSent)
	}

	// dry-run must not mark anything as sent
	hash, err := HashFile(filepath.Join(exportDir, "2026-08.csv"))
	if err != nil {
		t.Fatal(err)
	}
	info, _ := os.Stat(filepath.Join(exportDir, "2026-08.csv"))
	sent, err := state.IsSent("2026-08.csv", info.Size(), hash)
	if err != nil {
		t.Fatal(err)
	}
	if sent {
		t.Error("dry-run marked file as sent")
	}
}
