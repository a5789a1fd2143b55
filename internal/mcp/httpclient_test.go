package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meltforce/gripdose/internal/models"
	"github.com/meltforce/gripdose/internal/storage"
)

// newTestServer creates an httptest server that routes requests to handler
// functions keyed by path. Verifies the HTTP client sends correct paths and
// query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestQuerySessions verifies the HTTP client sends the right query params
// and parses the JSON array response.
func TestQuerySessions(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("side"); got != "left" {
				t.Errorf("side=%q, want left", got)
			}
			if got := r.URL.Query().Get("start"); got == "" {
				t.Error("start param missing")
			}
			writeTestJSON(t, w, []models.SessionRecord{
				{Side: models.SideLeft, LoadKg: 80, DurationSec: 20, Date: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	sessions, err := client.QuerySessions(context.Background(), start, end, 1, models.SideLeft)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	if sessions[0].LoadKg != 80 {
		t.Errorf("load_kg=%v, want 80", sessions[0].LoadKg)
	}
}

// TestQueryRecentSessions verifies the client keeps only the most recent n
// records from the fetched window.
func TestQueryRecentSessions(t *testing.T) {
	var all []models.SessionRecord
	for i := range 10 {
		all = append(all, models.SessionRecord{
			Side:        models.SideRight,
			LoadKg:      float64(70 + i),
			DurationSec: 20,
			Date:        time.Date(2026, 8, 1+i, 0, 0, 0, 0, time.UTC),
		})
	}

	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, all)
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	sessions, err := client.QueryRecentSessions(context.Background(), 1, models.SideRight, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 3 {
		t.Fatalf("got %d sessions, want 3", len(sessions))
	}
	// Chronological order preserved, most recent kept
	if sessions[0].LoadKg != 77 || sessions[2].LoadKg != 79 {
		t.Errorf("kept loads %v..%v, want 77..79", sessions[0].LoadKg, sessions[2].LoadKg)
	}
}

// TestGetDosingSettings verifies the settings endpoint parsing.
func TestGetDosingSettings(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/settings": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("side"); got != "right" {
				t.Errorf("side=%q, want right", got)
			}
			writeTestJSON(t, w, models.DosingSettings{
				Side:        models.SideRight,
				ManualScale: 420,
				Policy:      "min",
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	settings, err := client.GetDosingSettings(context.Background(), 1, models.SideRight)
	if err != nil {
		t.Fatal(err)
	}
	if settings.ManualScale != 420 {
		t.Errorf("manual_scale=%v, want 420", settings.ManualScale)
	}
	if settings.Policy != "min" {
		t.Errorf("policy=%q, want min", settings.Policy)
	}
}

// TestGetDataStats verifies the stats endpoint parsing.
func TestGetDataStats(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, storage.DataStats{
				TotalSessions: 120,
				LeftSessions:  60,
				RightSessions: 60,
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	stats, err := client.GetDataStats(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalSessions != 120 {
		t.Errorf("total_sessions=%d, want 120", stats.TotalSessions)
	}
}

// TestHTTPClientServerError verifies the client returns an error on non-200
// responses.
func TestHTTPClientServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"database down"}`))
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	_, err := client.GetDataStats(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}
