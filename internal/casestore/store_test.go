package casestore_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/casestore"
	"github.com/p-n-ai/clinicase/internal/clinical"
	"github.com/p-n-ai/clinicase/internal/ordering"
)

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) casestore.Store {
		return casestore.NewMemoryStore(clinical.Default())
	})
}

func TestMemoryStore_StepsAreDetached(t *testing.T) {
	reg := clinical.Default()
	store := casestore.NewMemoryStore(reg)
	ctx := t.Context()

	c, _ := store.CreateCase(ctx, casemodel.Case{Title: "Knee"})
	st := casemodel.NewClinicalStep(reg, reg.MustPlace(clinical.PhaseHistoryPresentation, clinical.CategoryPresentHistory), 0)
	saved, err := store.CreateStep(ctx, c.ID, st)
	if err != nil {
		t.Fatal(err)
	}

	saved.Content.(casemodel.ClinicalContent).Fields["chief_complaint"] = "mutated"

	steps, _ := store.ListSteps(ctx, c.ID)
	if got := steps[0].Content.(casemodel.ClinicalContent).Fields.Text("chief_complaint"); got != "" {
		t.Errorf("stored content changed through a returned step: %q", got)
	}
}

// runStoreSuite exercises the Store contract against a fresh store per
// subtest.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) casestore.Store) {
	reg := clinical.Default()

	t.Run("case round trip", func(t *testing.T) {
		store := newStore(t)
		ctx := t.Context()

		c, err := store.CreateCase(ctx, casemodel.Case{
			Title:      "ACL rupture",
			CategoryID: "msk",
			Difficulty: casemodel.DifficultyIntermediate,
			Duration:   20,
			Metadata:   casemodel.CaseMetadata{Brief: "Footballer, twisting injury"},
		})
		if err != nil {
			t.Fatalf("CreateCase() error = %v", err)
		}
		if c.ID == "" {
			t.Fatal("CreateCase() returned no ID")
		}

		got, err := store.GetCase(ctx, c.ID)
		if err != nil {
			t.Fatalf("GetCase() error = %v", err)
		}
		if got != c {
			t.Errorf("GetCase() = %+v, want %+v", got, c)
		}
	})

	t.Run("unknown case", func(t *testing.T) {
		store := newStore(t)
		ctx := t.Context()

		if _, err := store.GetCase(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, casestore.ErrNotFound) {
			t.Errorf("GetCase() error = %v, want ErrNotFound", err)
		}
		if _, err := store.GetCase(ctx, "not-a-uuid"); !errors.Is(err, casestore.ErrNotFound) {
			t.Errorf("GetCase(bad id) error = %v, want ErrNotFound", err)
		}
		mcq, _ := casemodel.NewLegacyStep(casemodel.TypeMCQ, 0)
		if _, err := store.CreateStep(ctx, "00000000-0000-0000-0000-000000000000", mcq); !errors.Is(err, casestore.ErrNotFound) {
			t.Errorf("CreateStep() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("steps", func(t *testing.T) {
		store := newStore(t)
		ctx := t.Context()
		c, _ := store.CreateCase(ctx, casemodel.Case{Title: "Shoulder"})

		pain := casemodel.NewClinicalStep(reg, reg.MustPlace(clinical.PhaseHistoryPresentation, clinical.CategoryHistoryOfPain), 1)
		mcq, _ := casemodel.NewLegacyStep(casemodel.TypeMCQ, 0)

		savedPain, err := store.CreateStep(ctx, c.ID, pain)
		if err != nil {
			t.Fatalf("CreateStep(pain) error = %v", err)
		}
		savedMCQ, err := store.CreateStep(ctx, c.ID, mcq)
		if err != nil {
			t.Fatalf("CreateStep(mcq) error = %v", err)
		}

		steps, err := store.ListSteps(ctx, c.ID)
		if err != nil {
			t.Fatalf("ListSteps() error = %v", err)
		}
		if len(steps) != 2 || steps[0].ID != savedMCQ.ID || steps[1].ID != savedPain.ID {
			t.Fatalf("ListSteps() order = %v", steps)
		}
		if steps[1].Placement.Category() != clinical.CategoryHistoryOfPain {
			t.Errorf("placement lost: %v", steps[1].Placement)
		}

		edited, err := casemodel.UpdateContent(savedPain, "pain.intensity", 0)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := store.UpdateStep(ctx, c.ID, edited); err != nil {
			t.Fatalf("UpdateStep() error = %v", err)
		}
		steps, _ = store.ListSteps(ctx, c.ID)
		if v, ok := steps[1].Content.(casemodel.ClinicalContent).Fields.Lookup("pain", "intensity"); !ok || v != float64(0) {
			t.Errorf("pain.intensity after update = %v, %v", v, ok)
		}

		if err := store.DeleteStep(ctx, c.ID, savedMCQ.ID); err != nil {
			t.Fatalf("DeleteStep() error = %v", err)
		}
		steps, _ = store.ListSteps(ctx, c.ID)
		if len(steps) != 1 || steps[0].StepIndex != 1 {
			t.Errorf("after delete = %v, want the pain step still at index 1", steps)
		}
		if err := store.DeleteStep(ctx, c.ID, savedMCQ.ID); !errors.Is(err, casestore.ErrNotFound) {
			t.Errorf("second DeleteStep() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("duplicate category", func(t *testing.T) {
		store := newStore(t)
		ctx := t.Context()
		c, _ := store.CreateCase(ctx, casemodel.Case{Title: "Hip"})

		p := reg.MustPlace(clinical.PhaseDiagnosis, clinical.CategoryDiagnoses)
		if _, err := store.CreateStep(ctx, c.ID, casemodel.NewClinicalStep(reg, p, 0)); err != nil {
			t.Fatal(err)
		}
		if _, err := store.CreateStep(ctx, c.ID, casemodel.NewClinicalStep(reg, p, 1)); !errors.Is(err, casestore.ErrDuplicateCategory) {
			t.Errorf("second CreateStep() error = %v, want ErrDuplicateCategory", err)
		}
	})

	t.Run("bulk reorder", func(t *testing.T) {
		store := newStore(t)
		ctx := t.Context()
		c, _ := store.CreateCase(ctx, casemodel.Case{Title: "Ankle"})

		var ids []string
		for i, typ := range []casemodel.Type{casemodel.TypeMCQ, casemodel.TypeEssay, casemodel.TypeDiagnosis} {
			st, _ := casemodel.NewLegacyStep(typ, i)
			saved, err := store.CreateStep(ctx, c.ID, st)
			if err != nil {
				t.Fatal(err)
			}
			ids = append(ids, saved.ID)
		}

		err := store.BulkReorder(ctx, c.ID, []ordering.IndexUpdate{
			{ID: ids[0], StepIndex: 2},
			{ID: ids[1], StepIndex: 0},
			{ID: ids[2], StepIndex: 1},
		})
		if err != nil {
			t.Fatalf("BulkReorder() error = %v", err)
		}
		steps, _ := store.ListSteps(ctx, c.ID)
		if steps[0].ID != ids[1] || steps[1].ID != ids[2] || steps[2].ID != ids[0] {
			t.Errorf("order after reorder = %s, %s, %s", steps[0].ID, steps[1].ID, steps[2].ID)
		}

		err = store.BulkReorder(ctx, c.ID, []ordering.IndexUpdate{
			{ID: ids[0], StepIndex: 0},
			{ID: "00000000-0000-0000-0000-000000000000", StepIndex: 1},
		})
		if !errors.Is(err, casestore.ErrNotFound) {
			t.Fatalf("BulkReorder(unknown) error = %v, want ErrNotFound", err)
		}
		steps, _ = store.ListSteps(ctx, c.ID)
		if steps[2].ID != ids[0] {
			t.Error("a failed reorder should leave every index unchanged")
		}
	})
}
