package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/gripdose/internal/dosing"
	"github.com/meltforce/gripdose/internal/models"
)

// defaultTimeRange returns start/end defaulting to the last 90 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -90)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// requireSide extracts and validates the side argument.
func requireSide(req mcp.CallToolRequest) (models.Side, *mcp.CallToolResult) {
	raw, err := req.RequireString("side")
	if err != nil {
		return "", mcp.NewToolResultError("side parameter is required (left or right)")
	}
	side, ok := models.ParseSide(raw)
	if !ok {
		return "", mcp.NewToolResultError("side must be left or right")
	}
	return side, nil
}

// --- Tool definitions ---

var toolGetRecommendation = mcp.NewTool("get_recommendation",
	mcp.WithDescription("Recommend the load for a single timed isometric hold at a target duration (time-under-tension). Blends a model-based estimate (personal max × fatigue curve) with a model-free estimate interpolated from history."),
	mcp.WithString("side", mcp.Required(), mcp.Description("Hand side: left or right")),
	mcp.WithNumber("target", mcp.Required(), mcp.Description("Target hold duration in seconds")),
	mcp.WithString("policy", mcp.Description("Blending policy: average (default), min (conservative), model, or ratio"), mcp.Enum("average", "min", "model", "ratio")),
)

var toolPlanSets = mcp.NewTool("plan_sets",
	mcp.WithDescription("Plan per-set loads for a multi-set session, simulating capacity depletion during holds and partial recovery during rest. Returns one load per rep in order."),
	mcp.WithString("side", mcp.Required(), mcp.Description("Hand side: left or right")),
	mcp.WithNumber("target_sec", mcp.Required(), mcp.Description("Target hold duration per rep, seconds")),
	mcp.WithNumber("sets", mcp.Required(), mcp.Description("Number of sets")),
	mcp.WithNumber("reps_per_set", mcp.Description("Reps per set. Defaults to 1.")),
	mcp.WithNumber("rest_rep_sec", mcp.Description("Rest between reps, seconds. Defaults to the configured value.")),
	mcp.WithNumber("rest_set_sec", mcp.Description("Rest between sets, seconds. Defaults to the configured value.")),
	mcp.WithNumber("cap_drop", mcp.Description("Max fraction a later load may exceed the first set's load. Defaults to the configured value.")),
	mcp.WithString("policy", mcp.Description("Blending policy for the base load"), mcp.Enum("average", "min", "model", "ratio")),
	mcp.WithBoolean("precise", mcp.Description("Recompute each rep's load from scale × capacity × fatigue(T) instead of scaling the base")),
)

var toolGetHistory = mcp.NewTool("get_history",
	mcp.WithDescription("Query raw hold session history: date, side, grip, load, duration, rest."),
	mcp.WithString("side", mcp.Description("Filter by hand side: left or right. Omit for both.")),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetCurvePoints = mcp.NewTool("get_curve_points",
	mcp.WithDescription("Sample the configured fatigue or recovery curve over a time range, for charting."),
	mcp.WithString("kind", mcp.Required(), mcp.Description("Curve kind"), mcp.Enum("fatigue", "recovery")),
	mcp.WithNumber("from", mcp.Description("Range start, seconds. Defaults to 0.")),
	mcp.WithNumber("to", mcp.Description("Range end, seconds. Defaults to 300 (fatigue) or 600 (recovery).")),
	mcp.WithNumber("step", mcp.Description("Sample step, seconds. Defaults to 5.")),
)

var toolEstimateBeta = mcp.NewTool("estimate_beta",
	mcp.WithDescription("Fit the power-law exponent β of load vs duration from recent history for one side. Higher β means load falls off faster with longer holds."),
	mcp.WithString("side", mcp.Required(), mcp.Description("Hand side: left or right")),
)

var toolGetDosingSettings = mcp.NewTool("get_dosing_settings",
	mcp.WithDescription("Current dosing settings for one side: manual scale override, anchor policy, and optional per-side curve weights."),
	mcp.WithString("side", mcp.Required(), mcp.Description("Hand side: left or right")),
)

var toolGetHistoryStats = mcp.NewTool("get_history_stats",
	mcp.WithDescription("Aggregate history statistics: session counts per side, date range, and per-grip totals."),
)

// --- Tool handlers ---

func (h *handlers) getRecommendation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	side, errRes := requireSide(req)
	if errRes != nil {
		return errRes, nil
	}
	target, err := req.RequireFloat("target")
	if err != nil || target <= 0 {
		return mcp.NewToolResultError("target parameter is required (seconds > 0)"), nil
	}

	uid := UserIDFromContext(ctx)
	obs, params, manual, policy, err := h.dosingEnv(ctx, uid, side)
	if err != nil {
		h.log.Error("mcp get_recommendation", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if v := req.GetString("policy", ""); v != "" {
		p, ok := dosing.ParsePolicy(v)
		if !ok {
			return mcp.NewToolResultError("policy must be average, min, model, or ratio"), nil
		}
		policy = p
	}

	rec, hasEstimate := dosing.Recommend(obs, params, manual, target, policy)
	if !hasEstimate {
		return mcp.NewToolResultText("no estimate: no usable history for this side yet"), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"side":       side,
		"target_sec": target,
		"load":       dosing.RoundLoad(rec.Load),
		"components": rec,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) planSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	side, errRes := requireSide(req)
	if errRes != nil {
		return errRes, nil
	}
	target, err := req.RequireFloat("target_sec")
	if err != nil || target <= 0 {
		return mcp.NewToolResultError("target_sec parameter is required (seconds > 0)"), nil
	}
	sets, err := req.RequireInt("sets")
	if err != nil {
		return mcp.NewToolResultError("sets parameter is required"), nil
	}

	uid := UserIDFromContext(ctx)
	obs, params, manual, policy, err := h.dosingEnv(ctx, uid, side)
	if err != nil {
		h.log.Error("mcp plan_sets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if v := req.GetString("policy", ""); v != "" {
		p, ok := dosing.ParsePolicy(v)
		if !ok {
			return mcp.NewToolResultError("policy must be average, min, model, or ratio"), nil
		}
		policy = p
	}

	rec, hasEstimate := dosing.Recommend(obs, params, manual, target, policy)
	if !hasEstimate {
		return mcp.NewToolResultText("no estimate: no usable history for this side yet"), nil
	}

	planReq := dosing.PlanRequest{
		TargetSec:  target,
		Sets:       sets,
		RepsPerSet: req.GetInt("reps_per_set", 1),
		RestRepSec: req.GetFloat("rest_rep_sec", h.dosing.Planner.RestRepSec),
		RestSetSec: req.GetFloat("rest_set_sec", h.dosing.Planner.RestSetSec),
		CapDrop:    req.GetFloat("cap_drop", h.dosing.Planner.CapDrop),
		Policy:     policy,
		Precise:    req.GetBool("precise", false),
	}

	loads := dosing.PlanSets(rec.Load, planReq, params, h.dosing.RecoveryParams(), rec.Scale)
	for i := range loads {
		loads[i] = dosing.RoundLoad(loads[i])
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"side":       side,
		"target_sec": target,
		"base":       dosing.RoundLoad(rec.Load),
		"loads":      loads,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var side models.Side
	if raw := req.GetString("side", ""); raw != "" {
		var ok bool
		side, ok = models.ParseSide(raw)
		if !ok {
			return mcp.NewToolResultError("side must be left or right"), nil
		}
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	sessions, err := h.ds.QuerySessions(ctx, start, end, uid, side)
	if err != nil {
		h.log.Error("mcp get_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getCurvePoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil || (kind != "fatigue" && kind != "recovery") {
		return mcp.NewToolResultError("kind must be fatigue or recovery"), nil
	}

	from := req.GetFloat("from", 0)
	step := req.GetFloat("step", 5)

	var points []dosing.CurvePoint
	if kind == "fatigue" {
		to := req.GetFloat("to", 300)
		points = dosing.SampleFatigue(h.dosing.CurveParams(), from, to, step)
	} else {
		to := req.GetFloat("to", 600)
		points = dosing.SampleRecovery(h.dosing.CurveParams(), h.dosing.RecoveryParams(), from, to, step)
	}
	if points == nil {
		return mcp.NewToolResultError("invalid range: need step > 0 and to >= from"), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{"kind": kind, "points": points})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) estimateBeta(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	side, errRes := requireSide(req)
	if errRes != nil {
		return errRes, nil
	}

	uid := UserIDFromContext(ctx)
	records, err := h.ds.QueryRecentSessions(ctx, uid, side, 50)
	if err != nil {
		h.log.Error("mcp estimate_beta", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	obs := dosing.ProjectObservations(records, side)

	result, err := mcp.NewToolResultJSON(map[string]any{
		"side":         side,
		"beta":         dosing.EstimateBeta(obs),
		"observations": len(obs),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getDosingSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	side, errRes := requireSide(req)
	if errRes != nil {
		return errRes, nil
	}

	uid := UserIDFromContext(ctx)
	settings, err := h.ds.GetDosingSettings(ctx, uid, side)
	if err != nil {
		h.log.Error("mcp get_dosing_settings", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if settings == nil {
		settings = &models.DosingSettings{UserID: uid, Side: side, Policy: h.dosing.Policy}
	}

	result, err := mcp.NewToolResultJSON(settings)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getHistoryStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	stats, err := h.ds.GetDataStats(ctx, uid)
	if err != nil {
		h.log.Error("mcp get_history_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
