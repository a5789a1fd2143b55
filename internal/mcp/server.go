package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/gripdose/internal/config"
	"github.com/meltforce/gripdose/internal/dosing"
	"github.com/meltforce/gripdose/internal/models"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all dosing tools and resources registered.
func New(ds DataSource, dcfg config.DosingConfig, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("GripDose", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("GripDose grip training dosing server. Recommend loads for timed isometric holds, plan multi-set sessions with fatigue simulation, and query hold history. All data is scoped to the authenticated user and computed per hand side."),
	)

	h := &handlers{ds: ds, dosing: dcfg, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetRecommendation, Handler: h.getRecommendation},
		server.ServerTool{Tool: toolPlanSets, Handler: h.planSets},
		server.ServerTool{Tool: toolGetHistory, Handler: h.getHistory},
		server.ServerTool{Tool: toolGetCurvePoints, Handler: h.getCurvePoints},
		server.ServerTool{Tool: toolEstimateBeta, Handler: h.estimateBeta},
		server.ServerTool{Tool: toolGetDosingSettings, Handler: h.getDosingSettings},
		server.ServerTool{Tool: toolGetHistoryStats, Handler: h.getHistoryStats},
	)

	s.AddResources(
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds     DataSource
	dosing config.DosingConfig
	log    *slog.Logger
}

// dosingEnv loads one side's observations and effective parameters, the same
// composition the HTTP handlers perform.
func (h *handlers) dosingEnv(ctx context.Context, uid int, side models.Side) (obs []dosing.Observation, params dosing.CurveParams, manual float64, policy dosing.AnchorPolicy, err error) {
	params = h.dosing.CurveParams()
	policy = dosing.AnchorPolicy(h.dosing.Policy)

	settings, err := h.ds.GetDosingSettings(ctx, uid, side)
	if err != nil {
		return nil, params, 0, policy, err
	}
	if settings != nil {
		manual = settings.ManualScale
		if p, ok := dosing.ParsePolicy(settings.Policy); ok {
			policy = p
		}
		if settings.W1 != nil && settings.W2 != nil && settings.W3 != nil {
			params.W1, params.W2, params.W3 = *settings.W1, *settings.W2, *settings.W3
		}
	}

	records, err := h.ds.QueryRecentSessions(ctx, uid, side, 50)
	if err != nil {
		return nil, params, 0, policy, err
	}
	return dosing.ProjectObservations(records, side), params, manual, policy, nil
}

// --- Resource definitions ---

var resRecentSessions = mcp.NewResource(
	"gripdose://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Hold sessions from the last 14 days, both hands"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	sessions, err := h.ds.QuerySessions(ctx, start, end, uid, "")
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(sessions)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
