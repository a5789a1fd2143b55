package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/meltforce/gripdose/internal/dosing"
	"github.com/meltforce/gripdose/internal/ingest"
	"github.com/meltforce/gripdose/internal/models"
	"github.com/meltforce/gripdose/internal/storage"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	side, ok2 := models.ParseSide(r.URL.Query().Get("side"))
	if !ok2 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "side parameter required (left or right)"})
		return
	}

	settings, err := s.db.GetDosingSettings(r.Context(), uid, side)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if settings == nil {
		// No stored overrides: report the effective defaults.
		settings = &models.DosingSettings{UserID: uid, Side: side, Policy: s.dosing.Policy}
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}

	var body models.DosingSettings
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	side, ok2 := models.ParseSide(string(body.Side))
	if !ok2 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "side must be left or right"})
		return
	}
	if body.Policy != "" {
		if _, ok := dosing.ParsePolicy(body.Policy); !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "policy must be average, min, model, or ratio"})
			return
		}
	}
	if body.ManualScale < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "manual_scale must be >= 0"})
		return
	}
	// Weight overrides only make sense as a complete non-negative triple.
	weightCount := 0
	for _, wv := range []*float64{body.W1, body.W2, body.W3} {
		if wv != nil {
			if *wv < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weights must be non-negative"})
				return
			}
			weightCount++
		}
	}
	if weightCount != 0 && weightCount != 3 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "w1, w2, w3 must be set together"})
		return
	}

	body.UserID = uid
	body.Side = side
	if err := s.db.UpsertDosingSettings(r.Context(), body); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	stats, err := s.db.GetDataStats(r.Context(), uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.db.QueryImportLogs(r.Context(), uid, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// logImport records an import operation's result to the import_logs table.
func (s *Server) logImport(uid int, source string, result *ingest.Result, importErr error, durationMs int) {
	status := "success"
	var errMsg *string
	if importErr != nil {
		status = "error"
		msg := importErr.Error()
		errMsg = &msg
	}

	log := storage.ImportLog{
		UserID:           uid,
		Source:           source,
		Status:           status,
		SessionsReceived: result.SessionsReceived,
		SessionsInserted: result.SessionsInserted,
		SessionsRejected: result.SessionsRejected,
		DurationMs:       &durationMs,
		ErrorMessage:     errMsg,
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()

	if _, err := s.db.InsertImportLog(ctx, log); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
}

// contextWithTimeout returns a background context with a 5-second timeout for
// logging that must not be cancelled with the request.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
