package api

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/clinicase/internal/authoring"
	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/casestore"
	"github.com/p-n-ai/clinicase/internal/clinical"
	"github.com/p-n-ai/clinicase/internal/export"
	"github.com/p-n-ai/clinicase/internal/progress"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type caseResponse struct {
	Case      casemodel.Case   `json:"case"`
	Steps     []casemodel.Step `json:"steps"`
	StepCount int              `json:"stepCount"`
}

type progressResponse struct {
	Phases    []progress.PhaseProgress `json:"phases"`
	StepCount int                      `json:"stepCount"`
}

type reorderRequest struct {
	Items  []string                      `json:"items"`
	Groups map[clinical.PhaseID][]string `json:"groups"`
}

type duplicateResponse struct {
	Error    string         `json:"error"`
	Existing casemodel.Step `json:"existing"`
}

func (s *Server) editor(ctx context.Context, caseID string) (*authoring.Editor, error) {
	ed, err := authoring.NewEditor(authoring.EditorConfig{Store: s.store, Registry: s.reg})
	if err != nil {
		return nil, err
	}
	if err := ed.Load(ctx, caseID); err != nil {
		return nil, err
	}
	return ed, nil
}

// decodeStep reads a step body and places it with the server registry.
func (s *Server) decodeStep(w http.ResponseWriter, r *http.Request) (casemodel.Step, bool) {
	var rec casemodel.Record
	if !decode(w, r, &rec) {
		return casemodel.Step{}, false
	}
	st, err := casemodel.FromRecord(s.reg, rec)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return casemodel.Step{}, false
	}
	return st, true
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var c casemodel.Case
	if !decode(w, r, &c) {
		return
	}
	created, err := authoring.CreateCase(r.Context(), s.store, c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("case created", "case_id", created.ID, "title", created.Title)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	ed, err := s.editor(r.Context(), r.PathValue("caseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, caseResponse{Case: ed.Case(), Steps: nonNil(ed.Steps()), StepCount: ed.StepCount()})
}

func (s *Server) handleListSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := s.store.ListSteps(r.Context(), r.PathValue("caseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(steps))
}

func (s *Server) handleCreateStep(w http.ResponseWriter, r *http.Request) {
	st, ok := s.decodeStep(w, r)
	if !ok {
		return
	}
	ed, err := s.editor(r.Context(), r.PathValue("caseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	st.ID = ""
	st.StepIndex = ed.StepCount()
	if st.Type == casemodel.TypeClinical {
		existing, occupied, err := ed.AddClinical(st.Placement.Phase(), st.Placement.Category())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if occupied {
			writeJSON(w, http.StatusConflict, duplicateResponse{
				Error:    fmt.Sprintf("%s: %v", st.Placement.Category(), casestore.ErrDuplicateCategory),
				Existing: existing,
			})
			return
		}
	}

	saved, err := ed.Save(r.Context(), st)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateStep(w http.ResponseWriter, r *http.Request) {
	st, ok := s.decodeStep(w, r)
	if !ok {
		return
	}
	ed, err := s.editor(r.Context(), r.PathValue("caseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	st.ID = r.PathValue("stepID")
	saved, err := ed.Save(r.Context(), st)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteStep(w http.ResponseWriter, r *http.Request) {
	ed, err := s.editor(r.Context(), r.PathValue("caseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := ed.Delete(r.Context(), r.PathValue("stepID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decode(w, r, &req) {
		return
	}
	ed, err := s.editor(r.Context(), r.PathValue("caseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := ed.Reorder(r.Context(), req.Items, req.Groups); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(ed.Steps()))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	ed, err := s.editor(r.Context(), r.PathValue("caseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{Phases: ed.Progress(), StepCount: ed.StepCount()})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ed, err := s.editor(r.Context(), r.PathValue("caseID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Workbook(&buf, ed.Case(), ed.Steps(), s.reg); err != nil {
		writeError(w, r, fmt.Errorf("export case: %w", err))
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="case-%s.xlsx"`, ed.Case().ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handlePhases(w http.ResponseWriter, _ *http.Request) {
	type phaseResponse struct {
		clinical.Phase
		Categories []clinical.Category `json:"categories"`
	}
	phases := s.reg.Phases()
	out := make([]phaseResponse, 0, len(phases))
	for _, p := range phases {
		out = append(out, phaseResponse{Phase: p, Categories: s.reg.CategoriesForPhase(p.ID)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	p, err := s.reg.Place(clinical.PhaseID(r.PathValue("phase")), clinical.CategoryID(r.PathValue("category")))
	if err != nil {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, casemodel.NewClinicalStep(s.reg, p, 0))
}

func nonNil(steps []casemodel.Step) []casemodel.Step {
	if steps == nil {
		return []casemodel.Step{}
	}
	return steps
}

