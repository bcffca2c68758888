package api

import (
	"context"
	"net/http"

	"github.com/p-n-ai/clinicase/internal/hub"
	"github.com/p-n-ai/clinicase/internal/learner"
)

type hubRequest struct {
	LearnerID string `json:"learnerId"`
	StepID    string `json:"stepId"`
}

type hubResponse struct {
	Hub      hub.Kind     `json:"hub"`
	SubSteps []string     `json:"subSteps"`
	Selected string       `json:"selected,omitempty"`
	Viewed   []string     `json:"viewed"`
	Progress hub.Progress `json:"progress"`
}

// tracker opens a learner's hub with the views stored so far.
func (s *Server) tracker(ctx context.Context, caseID string, kind hub.Kind, learnerID string) (*hub.Tracker, []string, error) {
	steps, err := s.store.ListSteps(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}
	subSteps, err := hub.SubSteps(kind, steps)
	if err != nil {
		return nil, nil, err
	}
	viewed, err := s.views.Viewed(ctx, caseID, learnerID)
	if err != nil {
		return nil, nil, err
	}
	rec := learner.Recorder{Views: s.views, Events: s.events, CaseID: caseID, LearnerID: learnerID}

	ids := make([]string, len(subSteps))
	for i, st := range subSteps {
		ids[i] = st.ID
	}
	return hub.NewTracker(kind, subSteps, viewed, rec), ids, nil
}

func (s *Server) hubKind(w http.ResponseWriter, r *http.Request) (hub.Kind, bool) {
	kind := hub.Kind(r.PathValue("hub"))
	if _, ok := kind.Phase(); !ok {
		writeJSONError(w, http.StatusNotFound, "unknown hub "+string(kind))
		return "", false
	}
	return kind, true
}

func respondHub(w http.ResponseWriter, kind hub.Kind, ids []string, t *hub.Tracker) {
	viewed := []string{}
	for _, id := range ids {
		if t.Viewed(id) {
			viewed = append(viewed, id)
		}
	}
	writeJSON(w, http.StatusOK, hubResponse{
		Hub:      kind,
		SubSteps: ids,
		Selected: t.Selected(),
		Viewed:   viewed,
		Progress: t.Progress(),
	})
}

func (s *Server) handleHub(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.hubKind(w, r)
	if !ok {
		return
	}
	learnerID := r.URL.Query().Get("learner")
	if learnerID == "" {
		writeJSONError(w, http.StatusBadRequest, "learner is required")
		return
	}
	t, ids, err := s.tracker(r.Context(), r.PathValue("caseID"), kind, learnerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondHub(w, kind, ids, t)
}

func (s *Server) handleHubEnter(w http.ResponseWriter, r *http.Request) {
	s.hubAction(w, r, func(ctx context.Context, t *hub.Tracker, _ hubRequest) error {
		return t.Enter(ctx)
	})
}

func (s *Server) handleHubSelect(w http.ResponseWriter, r *http.Request) {
	s.hubAction(w, r, func(ctx context.Context, t *hub.Tracker, req hubRequest) error {
		return t.Select(ctx, req.StepID)
	})
}

func (s *Server) hubAction(w http.ResponseWriter, r *http.Request, act func(context.Context, *hub.Tracker, hubRequest) error) {
	kind, ok := s.hubKind(w, r)
	if !ok {
		return
	}
	var req hubRequest
	if !decode(w, r, &req) {
		return
	}
	if req.LearnerID == "" {
		writeJSONError(w, http.StatusBadRequest, "learnerId is required")
		return
	}
	t, ids, err := s.tracker(r.Context(), r.PathValue("caseID"), kind, req.LearnerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := act(r.Context(), t, req); err != nil {
		writeError(w, r, err)
		return
	}
	respondHub(w, kind, ids, t)
}
