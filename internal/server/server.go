package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/gripdose/internal/config"
	"github.com/meltforce/gripdose/internal/ingest"
	"github.com/meltforce/gripdose/internal/storage"
	"tailscale.com/client/local"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     *storage.DB
	ingest *ingest.Provider
	dosing config.DosingConfig
	log    *slog.Logger
	apiKey string
	router chi.Router
	ts     *local.Client
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, provider *ingest.Provider, cfg *config.Config, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		ingest: provider,
		dosing: cfg.Dosing,
		log:    log,
		apiKey: cfg.Auth.APIKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Ingest endpoints (API key required)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleIngest)
		r.Post("/csv", s.handleCSVIngest)
	})

	// Dosing and history endpoints (no auth — tsnet handles access)
	s.router.Get("/api/v1/sessions", s.handleSessions)
	s.router.Get("/api/v1/recommend", s.handleRecommend)
	s.router.Post("/api/v1/plan", s.handlePlan)
	s.router.Get("/api/v1/curve", s.handleCurve)
	s.router.Get("/api/v1/settings", s.handleGetSettings)
	s.router.Put("/api/v1/settings", s.handlePutSettings)
	s.router.Get("/api/v1/stats", s.handleStats)
	s.router.Get("/api/v1/import-logs", s.handleImportLogs)
}

// SetMCP mounts an MCP transport handler (e.g. the streamable HTTP server)
// under /mcp. Must be called before serving.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
	s.router.Handle("/mcp/*", h)
}

// SetTailscale enables tailnet identity resolution for request user lookup.
func (s *Server) SetTailscale(lc *local.Client) {
	s.ts = lc
}

// mustUserID resolves the requesting user. With tsnet enabled the tailnet
// login maps to a user row; otherwise everything belongs to the default
// local user. Writes a 500 and returns ok=false if resolution fails.
func (s *Server) mustUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	if s.ts == nil {
		return 1, true
	}

	who, err := s.ts.WhoIs(r.Context(), r.RemoteAddr)
	if err != nil || who.UserProfile == nil {
		s.log.Error("tailscale whois failed", "remote", r.RemoteAddr, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "identity resolution failed"})
		return 0, false
	}

	uid, err := s.db.GetOrCreateUser(r.Context(), who.UserProfile.LoginName, who.UserProfile.DisplayName)
	if err != nil {
		s.log.Error("user lookup failed", "login", who.UserProfile.LoginName, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "user lookup failed"})
		return 0, false
	}
	return uid, true
}
