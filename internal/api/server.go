// Package api exposes the authoring core over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/p-n-ai/clinicase/internal/authoring"
	"github.com/p-n-ai/clinicase/internal/casestore"
	"github.com/p-n-ai/clinicase/internal/clinical"
	"github.com/p-n-ai/clinicase/internal/hub"
	"github.com/p-n-ai/clinicase/internal/learner"
	"github.com/p-n-ai/clinicase/internal/ordering"
	"github.com/p-n-ai/clinicase/internal/scoring"
)

const (
	maxBodyBytes = 1 << 20
	readyTimeout = 2 * time.Second
)

// HealthChecker is a dependency checked by /readyz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds the collaborators of a Server.
type Config struct {
	Store    casestore.Store
	Registry *clinical.Registry
	Views    learner.ViewStore
	Events   learner.EventLogger
	// Checks are run by /readyz, by name.
	Checks map[string]HealthChecker
}

// Server serves the case authoring API.
type Server struct {
	store  casestore.Store
	reg    *clinical.Registry
	views  learner.ViewStore
	events learner.EventLogger
	checks map[string]HealthChecker
}

// New creates a server. Views and Events default to in-memory and no-op
// implementations.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	s := &Server{
		store:  cfg.Store,
		reg:    cfg.Registry,
		views:  cfg.Views,
		events: cfg.Events,
		checks: cfg.Checks,
	}
	if s.reg == nil {
		s.reg = clinical.Default()
	}
	if s.views == nil {
		s.views = learner.NewMemoryViewStore()
	}
	if s.events == nil {
		s.events = learner.NopEventLogger{}
	}
	return s, nil
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /v1/phases", s.handlePhases)
	mux.HandleFunc("GET /v1/phases/{phase}/categories/{category}/template", s.handleTemplate)
	mux.HandleFunc("POST /v1/validate", s.handleValidate)
	mux.HandleFunc("GET /v1/ws/validate", s.handleValidateSocket)

	mux.HandleFunc("POST /v1/cases", s.handleCreateCase)
	mux.HandleFunc("GET /v1/cases/{caseID}", s.handleGetCase)
	mux.HandleFunc("GET /v1/cases/{caseID}/steps", s.handleListSteps)
	mux.HandleFunc("POST /v1/cases/{caseID}/steps", s.handleCreateStep)
	mux.HandleFunc("PUT /v1/cases/{caseID}/steps/{stepID}", s.handleUpdateStep)
	mux.HandleFunc("DELETE /v1/cases/{caseID}/steps/{stepID}", s.handleDeleteStep)
	mux.HandleFunc("POST /v1/cases/{caseID}/reorder", s.handleReorder)
	mux.HandleFunc("GET /v1/cases/{caseID}/progress", s.handleProgress)
	mux.HandleFunc("GET /v1/cases/{caseID}/export.xlsx", s.handleExport)

	mux.HandleFunc("GET /v1/cases/{caseID}/hubs/{hub}", s.handleHub)
	mux.HandleFunc("POST /v1/cases/{caseID}/hubs/{hub}/enter", s.handleHubEnter)
	mux.HandleFunc("POST /v1/cases/{caseID}/hubs/{hub}/select", s.handleHubSelect)

	mux.HandleFunc("POST /v1/score/mcq", handleScoreMCQ)
	mux.HandleFunc("POST /v1/score/essay", handleScoreEssay)
	return mux
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := map[string]string{}
	for _, name := range names {
		if err := s.checks[name].HealthCheck(ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type errorResponse struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *authoring.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: verr.Err.Error(), Errors: verr.Errors})
	case errors.Is(err, casestore.ErrNotFound), errors.Is(err, hub.ErrUnknownSubStep):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, casestore.ErrDuplicateCategory),
		errors.Is(err, authoring.ErrStaleReorder),
		errors.Is(err, ordering.ErrOrderInconsistent):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ordering.ErrBadArrangement), errors.Is(err, scoring.ErrNoSuchOption):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, hub.ErrViewNotRecorded):
		slog.Warn("view not recorded", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusServiceUnavailable, "view not recorded, retry")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// decode reads a JSON body. It writes the 400 response itself and reports
// whether the handler should continue.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
