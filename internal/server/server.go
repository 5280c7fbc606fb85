package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/listinglens/listinglens/internal/audit"
	"github.com/listinglens/listinglens/internal/auth"
	"github.com/listinglens/listinglens/internal/config"
	"github.com/listinglens/listinglens/internal/diag"
	"github.com/listinglens/listinglens/internal/logging"
	"github.com/listinglens/listinglens/internal/telemetry"
)

// RuleSetProvider is re-exported so the wiring in cmd stays in one place.
type RuleSetProvider = audit.RuleSetProvider

// Server wraps the HTTP components of the audit service.
type Server struct {
	mux      *http.ServeMux
	cfg      *config.Config
	engine   *audit.Engine
	provider RuleSetProvider
	auth     *auth.Auth
	emitter  *diag.Emitter
	tel      *telemetry.Provider
	log      *logging.Logger
}

// New wires the server. provider is the (usually cached) ruleset resolver
// shared by the engine and the diagnostics endpoint.
func New(cfg *config.Config, engine *audit.Engine, provider RuleSetProvider, authz *auth.Auth, emitter *diag.Emitter, tel *telemetry.Provider, log *logging.Logger) *Server {
	if log == nil {
		log = logging.NewNop()
	}
	s := &Server{
		mux:      http.NewServeMux(),
		cfg:      cfg,
		engine:   engine,
		provider: provider,
		auth:     authz,
		emitter:  emitter,
		tel:      tel,
		log:      log,
	}

	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/v1/audit", s.handleAudit)
	s.mux.HandleFunc("/v1/ruleset", s.handleRuleSet)

	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Start runs the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info("listinglens audit service running", "addr", addr)
	return srv.ListenAndServe()
}

// Shutdown flushes the emitter and telemetry.
func (s *Server) Shutdown(ctx context.Context) {
	if s.emitter != nil {
		s.emitter.Close(ctx)
	}
	if s.tel != nil {
		s.tel.Shutdown(ctx)
	}
}

// organization resolves the caller's org from the X-Api-Key header (or an
// Authorization: Bearer fallback). With no keys configured, requests are
// anonymous and allowed.
func (s *Server) organization(r *http.Request) (auth.Organization, bool) {
	if !s.auth.Enabled() {
		return auth.Organization{}, true
	}
	key := strings.TrimSpace(r.Header.Get("X-Api-Key"))
	if key == "" {
		if bearer, ok := parseBearerToken(r.Header.Get("Authorization")); ok {
			key = bearer
		}
	}
	if key == "" {
		return auth.Organization{}, false
	}
	return s.auth.Lookup(key)
}

// parseBearerToken extracts the token from an Authorization: Bearer header.
func parseBearerToken(h string) (string, bool) {
	if h == "" {
		return "", false
	}
	parts := strings.Fields(h)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
