package clinical_test

import (
	"strings"
	"testing"

	"github.com/p-n-ai/clinicase/internal/clinical"
)

func TestDefault_PhasesInCanonicalOrder(t *testing.T) {
	reg := clinical.Default()

	phases := reg.Phases()
	want := clinical.AllPhaseIDs()
	if len(phases) != len(want) {
		t.Fatalf("len(Phases()) = %d, want %d", len(phases), len(want))
	}
	for i, p := range phases {
		if p.ID != want[i] {
			t.Errorf("Phases()[%d] = %q, want %q", i, p.ID, want[i])
		}
		if p.Order != i+1 {
			t.Errorf("%s order = %d, want %d", p.ID, p.Order, i+1)
		}
	}
}

func TestDefault_CategoryCounts(t *testing.T) {
	reg := clinical.Default()

	tests := []struct {
		phase clinical.PhaseID
		want  int
	}{
		{clinical.PhaseHistoryPresentation, 4},
		{clinical.PhaseAssessment, 13},
		{clinical.PhaseDiagnosis, 1},
		{clinical.PhaseProblemList, 1},
		{clinical.PhaseTreatment, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			if got := len(reg.CategoriesForPhase(tt.phase)); got != tt.want {
				t.Errorf("len(CategoriesForPhase(%s)) = %d, want %d", tt.phase, got, tt.want)
			}
		})
	}
}

func TestRegistry_LookupMisses(t *testing.T) {
	reg := clinical.Default()

	if _, ok := reg.PhaseByID("nonexistent"); ok {
		t.Error("PhaseByID(nonexistent) should miss")
	}
	if cats := reg.CategoriesForPhase("nonexistent"); len(cats) != 0 {
		t.Errorf("CategoriesForPhase(nonexistent) = %v, want empty", cats)
	}
	if _, ok := reg.CategoryByID(clinical.PhaseDiagnosis, clinical.CategoryPresentHistory); ok {
		t.Error("CategoryByID should miss when the category belongs to another phase")
	}
	if tmpl := reg.DefaultTemplate("nonexistent"); tmpl == nil || len(tmpl) != 0 {
		t.Errorf("DefaultTemplate(nonexistent) = %v, want empty map", tmpl)
	}
}

func TestRegistry_CategoryByID(t *testing.T) {
	reg := clinical.Default()

	cat, ok := reg.CategoryByID(clinical.PhaseAssessment, "rom_arom")
	if !ok {
		t.Fatal("CategoryByID(assessment, rom_arom) not found")
	}
	if cat.Label != "ROM - AROM" {
		t.Errorf("Label = %q, want ROM - AROM", cat.Label)
	}
	if cat.InputMode != clinical.InputUserInput {
		t.Errorf("InputMode = %q, want user_input", cat.InputMode)
	}
	if !cat.HasDataType(clinical.DataNumbers) {
		t.Error("rom_arom should carry numbers")
	}
}

func TestRegistry_DefaultTemplateIsACopy(t *testing.T) {
	reg := clinical.Default()

	first := reg.DefaultTemplate(clinical.CategoryHistoryOfPain)
	pain, ok := first["pain"].(map[string]any)
	if !ok {
		t.Fatalf("history_of_pain template pain = %T, want map", first["pain"])
	}
	if v, present := pain["intensity"]; !present || v != nil {
		t.Errorf("pain.intensity = %v (present %v), want explicit null", v, present)
	}
	pain["intensity"] = 7

	second := reg.DefaultTemplate(clinical.CategoryHistoryOfPain)
	if second["pain"].(map[string]any)["intensity"] != nil {
		t.Error("mutating a returned template leaked into the registry")
	}
}

func TestRegistry_Place(t *testing.T) {
	reg := clinical.Default()

	p, err := reg.Place(clinical.PhaseDiagnosis, clinical.CategoryDiagnoses)
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}
	if p.Phase() != clinical.PhaseDiagnosis || p.Category() != clinical.CategoryDiagnoses {
		t.Errorf("Place() = %v/%v", p.Phase(), p.Category())
	}

	if _, err := reg.Place(clinical.PhaseDiagnosis, clinical.CategoryProblems); err == nil {
		t.Error("Place() should reject a category from another phase")
	}
	if _, err := reg.Place("triage", "anything"); err == nil {
		t.Error("Place() should reject an unknown phase")
	}
	if !(clinical.Placement{}).IsZero() {
		t.Error("zero Placement should report IsZero")
	}
}

func TestLoad_RejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "not yaml",
			doc:     "phases: [",
			wantErr: "parse registry",
		},
		{
			name:    "bad input mode",
			doc:     strings.Replace(validDoc, "author_only", "learner", 1),
			wantErr: "schema",
		},
		{
			name:    "missing phase",
			doc:     validDoc[:strings.Index(validDoc, "  - id: treatment")],
			wantErr: "expected 5 phases",
		},
		{
			name:    "duplicate category",
			doc:     strings.Replace(validDoc, "id: d1", "id: h1", 1),
			wantErr: "registered under both",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := clinical.Load([]byte(tt.doc))
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MinimalDocument(t *testing.T) {
	reg, err := clinical.Load([]byte(validDoc))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := len(reg.CategoriesForPhase(clinical.PhaseAssessment)); got != 1 {
		t.Errorf("assessment categories = %d, want 1", got)
	}
}

const validDoc = `
phases:
  - id: history_presentation
    label: History
    short_label: H
    order: 1
    categories:
      - {id: h1, label: H1, input_mode: author_only, data_types: [text]}
  - id: assessment
    label: Assessment
    short_label: A
    order: 2
    categories:
      - {id: a1, label: A1, input_mode: user_input, data_types: [numbers]}
  - id: diagnosis
    label: Diagnosis
    short_label: D
    order: 3
    categories:
      - {id: d1, label: D1, input_mode: user_input, data_types: [text]}
  - id: problem_list
    label: Problems
    short_label: P
    order: 4
    categories:
      - {id: p1, label: P1, input_mode: user_input, data_types: [text]}
  - id: treatment
    label: Treatment
    short_label: T
    order: 5
    categories:
      - {id: t1, label: T1, input_mode: user_input, data_types: [text]}
`
