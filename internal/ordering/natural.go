// Package ordering derives the display order of a case's steps and runs the
// reorder session that rewrites their step indexes.
package ordering

import (
	"cmp"
	"math"
	"slices"

	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/clinical"
)

// unplaced is the sort index of phases and categories that hold no step.
const unplaced = math.MaxInt

// PhaseView is one phase in natural display order.
type PhaseView struct {
	Phase      clinical.Phase
	Categories []CategoryView
	// Steps are the phase's member steps by step index. Standalone MCQ and
	// essay steps are never members.
	Steps []casemodel.Step
}

// StartIndex is the smallest member step index, or math.MaxInt when empty.
func (v PhaseView) StartIndex() int {
	return startOf(v.Steps)
}

// CategoryView is a registered category and the step occupying it, if any.
type CategoryView struct {
	Category clinical.Category
	Step     *casemodel.Step
}

// Natural returns the phases sorted by their first step, with
// history_presentation always first. Phases and categories without steps
// keep registry order among themselves after the occupied ones.
func Natural(reg *clinical.Registry, steps []casemodel.Step) []PhaseView {
	members := membersByPhase(steps)

	views := make([]PhaseView, 0, len(reg.Phases()))
	for _, p := range reg.Phases() {
		views = append(views, PhaseView{
			Phase:      p,
			Categories: categoryViews(reg.CategoriesForPhase(p.ID), members[p.ID]),
			Steps:      members[p.ID],
		})
	}

	slices.SortStableFunc(views, func(a, b PhaseView) int {
		return compareStart(a.Phase.ID, a.StartIndex(), b.Phase.ID, b.StartIndex())
	})
	return views
}

func compareStart(a clinical.PhaseID, ai int, b clinical.PhaseID, bi int) int {
	switch {
	case a == clinical.PhaseHistoryPresentation && b != a:
		return -1
	case b == clinical.PhaseHistoryPresentation && a != b:
		return 1
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	}
	return 0
}

func categoryViews(cats []clinical.Category, members []casemodel.Step) []CategoryView {
	out := make([]CategoryView, len(cats))
	for i, c := range cats {
		out[i] = CategoryView{Category: c}
		for j := range members {
			if _, cat := members[j].Slot(); cat == c.ID {
				s := members[j]
				out[i].Step = &s
				break
			}
		}
	}
	slices.SortStableFunc(out, func(a, b CategoryView) int {
		return cmp.Compare(viewIndex(a), viewIndex(b))
	})
	return out
}

func viewIndex(v CategoryView) int {
	if v.Step == nil {
		return unplaced
	}
	return v.Step.StepIndex
}

// membersByPhase groups non-standalone steps by resolved phase, each group
// sorted by step index.
func membersByPhase(steps []casemodel.Step) map[clinical.PhaseID][]casemodel.Step {
	out := make(map[clinical.PhaseID][]casemodel.Step)
	for _, s := range steps {
		if s.IsStandalone() {
			continue
		}
		p, _ := s.Slot()
		out[p] = append(out[p], s)
	}
	for p := range out {
		sortByIndex(out[p])
	}
	return out
}

func standalone(steps []casemodel.Step) []casemodel.Step {
	var out []casemodel.Step
	for _, s := range steps {
		if s.IsStandalone() {
			out = append(out, s)
		}
	}
	sortByIndex(out)
	return out
}

func sortByIndex(steps []casemodel.Step) {
	slices.SortStableFunc(steps, func(a, b casemodel.Step) int {
		return cmp.Compare(a.StepIndex, b.StepIndex)
	})
}

func startOf(steps []casemodel.Step) int {
	if len(steps) == 0 {
		return unplaced
	}
	lo := steps[0].StepIndex
	for _, s := range steps[1:] {
		lo = min(lo, s.StepIndex)
	}
	return lo
}
