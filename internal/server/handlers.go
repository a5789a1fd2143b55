package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/meltforce/gripdose/internal/dosing"
	"github.com/meltforce/gripdose/internal/models"
)

// historyWindow is how many recent sessions per side feed the estimators.
const historyWindow = 50

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}

	var records []models.SessionRecord
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	start := time.Now()
	result, err := s.ingest.IngestRecords(r.Context(), uid, records)
	s.logImport(uid, "api", result, err, int(time.Since(start).Milliseconds()))
	if err != nil {
		s.log.Error("ingest error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCSVIngest(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	result, err := s.ingest.IngestCSV(r.Context(), uid, r.Body)
	s.logImport(uid, "csv", result, err, int(time.Since(start).Milliseconds()))
	if err != nil {
		s.log.Error("csv ingest error", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}

	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var side models.Side
	if v := r.URL.Query().Get("side"); v != "" {
		side, ok = models.ParseSide(v)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "side must be left or right"})
			return
		}
	}

	sessions, err := s.db.QuerySessions(r.Context(), start, end, uid, side)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// recommendResponse is the single-set suggestion for one side. Load is
// rounded for display; Components carries the full-precision estimates.
type recommendResponse struct {
	Side        models.Side            `json:"side"`
	TargetSec   float64                `json:"target_sec"`
	HasEstimate bool                   `json:"has_estimate"`
	Load        float64                `json:"load,omitempty"`
	Components  *dosing.Recommendation `json:"components,omitempty"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}

	side, ok2 := models.ParseSide(r.URL.Query().Get("side"))
	if !ok2 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "side parameter required (left or right)"})
		return
	}
	target, err := strconv.ParseFloat(r.URL.Query().Get("target"), 64)
	if err != nil || target <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target parameter required (seconds > 0)"})
		return
	}

	env, err := s.dosingEnv(r, uid, side)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if v := r.URL.Query().Get("policy"); v != "" {
		policy, ok := dosing.ParsePolicy(v)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "policy must be average, min, model, or ratio"})
			return
		}
		env.policy = policy
	}

	rec, hasEstimate := dosing.Recommend(env.obs, env.params, env.manual, target, env.policy)
	resp := recommendResponse{Side: side, TargetSec: target, HasEstimate: hasEstimate}
	if hasEstimate {
		resp.Load = dosing.RoundLoad(rec.Load)
		resp.Components = &rec
	}
	writeJSON(w, http.StatusOK, resp)
}

// planRequest is the HTTP shape of a plan. Rest and cap fields are pointers
// so that omitted values fall back to the configured planner defaults while
// an explicit zero stays zero.
type planRequest struct {
	Side       string   `json:"side"`
	TargetSec  float64  `json:"target_sec"`
	Sets       int      `json:"sets"`
	RepsPerSet int      `json:"reps_per_set"`
	RestRepSec *float64 `json:"rest_rep_sec"`
	RestSetSec *float64 `json:"rest_set_sec"`
	CapDrop    *float64 `json:"cap_drop"`
	Policy     string   `json:"policy"`
	Precise    bool     `json:"precise"`
}

type planResponse struct {
	Side        models.Side `json:"side"`
	TargetSec   float64     `json:"target_sec"`
	HasEstimate bool        `json:"has_estimate"`
	Base        float64     `json:"base,omitempty"`
	Loads       []float64   `json:"loads,omitempty"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.mustUserID(w, r)
	if !ok {
		return
	}

	var body planRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	side, ok2 := models.ParseSide(body.Side)
	if !ok2 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "side must be left or right"})
		return
	}
	if body.TargetSec <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target_sec must be > 0"})
		return
	}

	env, err := s.dosingEnv(r, uid, side)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if body.Policy != "" {
		policy, ok := dosing.ParsePolicy(body.Policy)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "policy must be average, min, model, or ratio"})
			return
		}
		env.policy = policy
	}

	req := dosing.PlanRequest{
		TargetSec:  body.TargetSec,
		Sets:       body.Sets,
		RepsPerSet: body.RepsPerSet,
		RestRepSec: orDefault(body.RestRepSec, s.dosing.Planner.RestRepSec),
		RestSetSec: orDefault(body.RestSetSec, s.dosing.Planner.RestSetSec),
		CapDrop:    orDefault(body.CapDrop, s.dosing.Planner.CapDrop),
		Policy:     env.policy,
		Precise:    body.Precise,
	}

	rec, hasEstimate := dosing.Recommend(env.obs, env.params, env.manual, body.TargetSec, env.policy)
	resp := planResponse{Side: side, TargetSec: body.TargetSec, HasEstimate: hasEstimate}
	if hasEstimate {
		loads := dosing.PlanSets(rec.Load, req, env.params, env.recovery, rec.Scale)
		for i := range loads {
			loads[i] = dosing.RoundLoad(loads[i])
		}
		resp.Base = dosing.RoundLoad(rec.Load)
		resp.Loads = loads
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "fatigue"
	}

	from := queryFloat(r, "from", 0)
	step := queryFloat(r, "step", 5)
	var to float64
	switch kind {
	case "fatigue":
		to = queryFloat(r, "to", 300)
	case "recovery":
		to = queryFloat(r, "to", 600)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind must be fatigue or recovery"})
		return
	}
	if step <= 0 || to < from {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid range: need step > 0 and to >= from"})
		return
	}

	var points []dosing.CurvePoint
	if kind == "fatigue" {
		points = dosing.SampleFatigue(s.dosing.CurveParams(), from, to, step)
	} else {
		points = dosing.SampleRecovery(s.dosing.CurveParams(), s.dosing.RecoveryParams(), from, to, step)
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "points": points})
}

// dosingEnv bundles everything a dosing computation needs for one side:
// projected observations, effective curve parameters (per-side weight
// overrides applied), manual scale, and the effective policy.
type dosingEnv struct {
	obs      []dosing.Observation
	params   dosing.CurveParams
	recovery dosing.RecoveryParams
	manual   float64
	policy   dosing.AnchorPolicy
}

func (s *Server) dosingEnv(r *http.Request, uid int, side models.Side) (dosingEnv, error) {
	env := dosingEnv{
		params:   s.dosing.CurveParams(),
		recovery: s.dosing.RecoveryParams(),
		policy:   dosing.AnchorPolicy(s.dosing.Policy),
	}

	settings, err := s.db.GetDosingSettings(r.Context(), uid, side)
	if err != nil {
		return env, fmt.Errorf("loading dosing settings: %w", err)
	}
	if settings != nil {
		env.manual = settings.ManualScale
		if p, ok := dosing.ParsePolicy(settings.Policy); ok {
			env.policy = p
		}
		// Per-side weights only apply as a complete triple.
		if settings.W1 != nil && settings.W2 != nil && settings.W3 != nil {
			env.params.W1, env.params.W2, env.params.W3 = *settings.W1, *settings.W2, *settings.W3
		}
	}

	records, err := s.db.QueryRecentSessions(r.Context(), uid, side, historyWindow)
	if err != nil {
		return env, fmt.Errorf("loading history: %w", err)
	}
	env.obs = dosing.ProjectObservations(records, side)
	return env, nil
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func queryFloat(r *http.Request, name string, def float64) float64 {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return start, end, fmt.Errorf("invalid end: %w", err)
		}
	}

	if startStr == "" {
		// Default: last 90 days of history.
		start = end.AddDate(0, 0, -90)
	} else {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return start, end, fmt.Errorf("invalid start: %w", err)
		}
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
