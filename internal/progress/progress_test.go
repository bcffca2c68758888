package progress_test

import (
	"testing"

	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/clinical"
	"github.com/p-n-ai/clinicase/internal/progress"
)

func place(t *testing.T, phase clinical.PhaseID, cat clinical.CategoryID, index int) casemodel.Step {
	t.Helper()
	reg := clinical.Default()
	return casemodel.NewClinicalStep(reg, reg.MustPlace(phase, cat), index)
}

func legacy(t *testing.T, typ casemodel.Type, index int) casemodel.Step {
	t.Helper()
	s, err := casemodel.NewLegacyStep(typ, index)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestForPhase_DuplicatesCountOnce(t *testing.T) {
	reg := clinical.Default()
	steps := []casemodel.Step{
		place(t, clinical.PhaseHistoryPresentation, clinical.CategoryPresentHistory, 0),
		place(t, clinical.PhaseHistoryPresentation, clinical.CategoryPresentHistory, 1),
		place(t, clinical.PhaseHistoryPresentation, clinical.CategoryPresentHistory, 2),
		legacy(t, casemodel.TypeInfo, 3),
	}

	got := progress.ForPhase(reg, clinical.PhaseHistoryPresentation, steps)

	if got.Filled != 1 {
		t.Errorf("Filled = %d, want 1", got.Filled)
	}
	if got.Total != 4 {
		t.Errorf("Total = %d, want 4", got.Total)
	}
	if got.Filled > got.Total {
		t.Error("Filled exceeds Total")
	}
}

func TestForPhase_Complete(t *testing.T) {
	reg := clinical.Default()
	var steps []casemodel.Step
	for i, c := range reg.CategoriesForPhase(clinical.PhaseHistoryPresentation) {
		steps = append(steps, place(t, clinical.PhaseHistoryPresentation, c.ID, i))
	}

	got := progress.ForPhase(reg, clinical.PhaseHistoryPresentation, steps)
	if !got.Complete() {
		t.Errorf("ForPhase() = %+v, want complete", got)
	}

	if progress.ForPhase(reg, clinical.PhaseHistoryPresentation, steps[:3]).Complete() {
		t.Error("3 of 4 categories should not be complete")
	}
}

func TestForPhase_LegacyAndStandalone(t *testing.T) {
	reg := clinical.Default()
	steps := []casemodel.Step{
		legacy(t, casemodel.TypeDiagnosis, 0),
		legacy(t, casemodel.TypeMCQ, 1),
		legacy(t, casemodel.TypeEssay, 2),
	}

	diag := progress.ForPhase(reg, clinical.PhaseDiagnosis, steps)
	if !diag.Complete() {
		t.Errorf("diagnosis = %+v, want complete from the legacy step", diag)
	}

	assess := progress.ForPhase(reg, clinical.PhaseAssessment, steps)
	if assess.Filled != 0 || assess.Total != 13 {
		t.Errorf("assessment = %+v, want 0/13", assess)
	}
}

func TestForPhase_UnknownPhase(t *testing.T) {
	got := progress.ForPhase(clinical.Default(), "imaging", nil)
	if got.Total != 0 || got.Complete() {
		t.Errorf("ForPhase(unknown) = %+v", got)
	}
}

func TestAll(t *testing.T) {
	got := progress.All(clinical.Default(), nil)
	if len(got) != 5 {
		t.Fatalf("All() = %d phases, want 5", len(got))
	}
	if got[0].Phase != clinical.PhaseHistoryPresentation || got[4].Phase != clinical.PhaseTreatment {
		t.Errorf("All() order = %v", got)
	}
}
