// Package progress derives per-phase completion from a case's steps.
package progress

import (
	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/clinical"
)

// PhaseProgress counts the filled categories of one phase.
type PhaseProgress struct {
	Phase  clinical.PhaseID `json:"phase"`
	Filled int              `json:"filled"`
	Total  int              `json:"total"`
}

// Complete reports whether every category of a non-empty phase is filled.
func (p PhaseProgress) Complete() bool {
	return p.Total > 0 && p.Filled == p.Total
}

// ForPhase counts the distinct categories of phase occupied by steps. Legacy
// steps count toward the category they map to; standalone steps count toward
// none. Duplicate categories are counted once.
func ForPhase(reg *clinical.Registry, phase clinical.PhaseID, steps []casemodel.Step) PhaseProgress {
	registered := make(map[clinical.CategoryID]struct{})
	for _, c := range reg.CategoriesForPhase(phase) {
		registered[c.ID] = struct{}{}
	}

	filled := make(map[clinical.CategoryID]struct{})
	for _, s := range steps {
		p, cat := s.Slot()
		if p != phase || cat == "" {
			continue
		}
		if _, ok := registered[cat]; ok {
			filled[cat] = struct{}{}
		}
	}
	return PhaseProgress{Phase: phase, Filled: len(filled), Total: len(registered)}
}

// All returns the progress of every phase in canonical order.
func All(reg *clinical.Registry, steps []casemodel.Step) []PhaseProgress {
	phases := reg.Phases()
	out := make([]PhaseProgress, 0, len(phases))
	for _, p := range phases {
		out = append(out, ForPhase(reg, p.ID, steps))
	}
	return out
}
