package casemodel_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/clinical"
)

func TestMapLegacyType_StandaloneTypes(t *testing.T) {
	for _, typ := range []casemodel.Type{casemodel.TypeMCQ, casemodel.TypeEssay} {
		m, ok := casemodel.MapLegacyType(typ)
		if !ok {
			t.Fatalf("MapLegacyType(%s) not found", typ)
		}
		if m.Category != "" {
			t.Errorf("MapLegacyType(%s).Category = %q, want none", typ, m.Category)
		}
		if !m.Standalone {
			t.Errorf("MapLegacyType(%s) should be standalone", typ)
		}
	}
}

func TestMapLegacyType_PlacedTypesAreRegistered(t *testing.T) {
	reg := clinical.Default()

	for _, typ := range casemodel.LegacyTypes() {
		m, ok := casemodel.MapLegacyType(typ)
		if !ok {
			t.Fatalf("MapLegacyType(%s) not found", typ)
		}
		if m.Standalone {
			continue
		}
		if _, err := reg.Place(m.Phase, m.Category); err != nil {
			t.Errorf("MapLegacyType(%s) = %s/%s is not registered: %v", typ, m.Phase, m.Category, err)
		}
	}

	if _, ok := casemodel.MapLegacyType(casemodel.TypeClinical); ok {
		t.Error("clinical steps carry their own placement and should not map")
	}
}

func TestNum(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantSet   bool
		wantBlank bool
		wantInt   int
		wantOK    bool
	}{
		{"null", `null`, false, true, 0, false},
		{"zero", `0`, true, false, 0, true},
		{"number", `7`, true, false, 7, true},
		{"numeric string", `"42"`, true, false, 42, true},
		{"whole decimal", `"4.0"`, true, false, 4, true},
		{"fraction", `4.5`, true, false, 0, false},
		{"blank string", `"  "`, true, true, 0, false},
		{"junk", `"12abc"`, true, false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n casemodel.Num
			if err := json.Unmarshal([]byte(tt.json), &n); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.json, err)
			}
			if n.IsSet() != tt.wantSet {
				t.Errorf("IsSet() = %v, want %v", n.IsSet(), tt.wantSet)
			}
			if n.Blank() != tt.wantBlank {
				t.Errorf("Blank() = %v, want %v", n.Blank(), tt.wantBlank)
			}
			got, ok := n.Int()
			if ok != tt.wantOK || got != tt.wantInt {
				t.Errorf("Int() = %d, %v, want %d, %v", got, ok, tt.wantInt, tt.wantOK)
			}
		})
	}
}

func TestNum_RejectsBooleans(t *testing.T) {
	var n casemodel.Num
	if err := json.Unmarshal([]byte(`true`), &n); err == nil {
		t.Error("Unmarshal(true) should fail")
	}
}

func TestNum_MarshalKeepsForm(t *testing.T) {
	out, err := json.Marshal(struct {
		A casemodel.Num `json:"a"`
		B casemodel.Num `json:"b"`
		C casemodel.Num `json:"c"`
	}{casemodel.IntNum(3), casemodel.TextNum(""), casemodel.Num{}})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != `{"a":3,"b":"","c":null}` {
		t.Errorf("Marshal() = %s", out)
	}
}

func TestStep_JSONDecodesClinicalPlacement(t *testing.T) {
	raw := `{
		"id": "s1",
		"stepIndex": 3,
		"type": "clinical",
		"phase": "history_presentation",
		"category": "history_of_pain",
		"input_mode": "user_input",
		"content": {"pain": {"intensity": 0, "frequency": "daily"}}
	}`

	var s casemodel.Step
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if s.Placement.Category() != clinical.CategoryHistoryOfPain {
		t.Errorf("Category = %q, want history_of_pain", s.Placement.Category())
	}
	if s.InputMode != clinical.InputAuthorOnly {
		t.Errorf("InputMode = %q, want the registry's author_only", s.InputMode)
	}
	c, ok := s.Content.(casemodel.ClinicalContent)
	if !ok {
		t.Fatalf("Content = %T, want ClinicalContent", s.Content)
	}
	if v, _ := c.Fields.Lookup("pain", "intensity"); v != float64(0) {
		t.Errorf("pain.intensity = %v, want 0", v)
	}
}

func TestStep_JSONRejectsUnregisteredPlacement(t *testing.T) {
	raw := `{"stepIndex": 0, "type": "clinical", "phase": "diagnosis", "category": "rom_arom", "content": {}}`

	var s casemodel.Step
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		t.Error("Unmarshal() should reject a category outside its phase")
	}
}

func TestStep_JSONRejectsUnknownType(t *testing.T) {
	var s casemodel.Step
	if err := json.Unmarshal([]byte(`{"stepIndex": 0, "type": "quiz"}`), &s); err == nil {
		t.Error("Unmarshal() should reject unknown type")
	}
}

func TestNewClinicalStep_UsesTemplate(t *testing.T) {
	reg := clinical.Default()
	p := reg.MustPlace(clinical.PhaseHistoryPresentation, clinical.CategoryPresentHistory)

	s := casemodel.NewClinicalStep(reg, p, 4)

	if s.StepIndex != 4 || s.Type != casemodel.TypeClinical {
		t.Errorf("step = %+v", s)
	}
	c := s.Content.(casemodel.ClinicalContent)
	if _, ok := c.Fields.Lookup("chief_complaint"); !ok {
		t.Error("template field chief_complaint missing")
	}
}

func TestNewLegacyStep(t *testing.T) {
	s, err := casemodel.NewLegacyStep(casemodel.TypeMCQ, 2)
	if err != nil {
		t.Fatalf("NewLegacyStep() error = %v", err)
	}
	mcq := s.Content.(casemodel.MCQContent)
	if len(mcq.Options) != casemodel.MinMCQOptions {
		t.Errorf("starter options = %d, want %d", len(mcq.Options), casemodel.MinMCQOptions)
	}
	if !s.IsStandalone() {
		t.Error("MCQ step should be standalone")
	}

	if _, err := casemodel.NewLegacyStep(casemodel.TypeClinical, 0); err == nil {
		t.Error("NewLegacyStep(clinical) should fail")
	}
}

func TestUpdateContent_DoesNotMutateOriginal(t *testing.T) {
	reg := clinical.Default()
	orig := casemodel.NewClinicalStep(reg, reg.MustPlace(clinical.PhaseHistoryPresentation, clinical.CategoryHistoryOfPain), 0)

	next, err := casemodel.UpdateContent(orig, "pain.intensity", 0)
	if err != nil {
		t.Fatalf("UpdateContent() error = %v", err)
	}

	if v, _ := orig.Content.(casemodel.ClinicalContent).Fields.Lookup("pain", "intensity"); v != nil {
		t.Errorf("original pain.intensity = %v, want nil", v)
	}
	if v, _ := next.Content.(casemodel.ClinicalContent).Fields.Lookup("pain", "intensity"); v != float64(0) {
		t.Errorf("updated pain.intensity = %v, want 0", v)
	}
}

func TestUpdateContent_TypedField(t *testing.T) {
	s, _ := casemodel.NewLegacyStep(casemodel.TypeMCQ, 0)

	next, err := casemodel.UpdateContent(s, "maxScore", "5")
	if err != nil {
		t.Fatalf("UpdateContent() error = %v", err)
	}
	if got := next.Content.(casemodel.MCQContent).MaxScore.IntOr(-1); got != 5 {
		t.Errorf("maxScore = %d, want 5", got)
	}
	if s.Content.(casemodel.MCQContent).MaxScore.IsSet() {
		t.Error("original maxScore changed")
	}
}

func TestItemHelpers(t *testing.T) {
	s, _ := casemodel.NewLegacyStep(casemodel.TypeMCQ, 0)

	s2, err := casemodel.AddItem(s, "options", map[string]any{"label": "C"})
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	s3, err := casemodel.UpdateItem(s2, "options", 2, "isCorrect", true)
	if err != nil {
		t.Fatalf("UpdateItem() error = %v", err)
	}
	s4, err := casemodel.RemoveItem(s3, "options", 0)
	if err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}

	if n := len(s.Content.(casemodel.MCQContent).Options); n != 2 {
		t.Errorf("original options = %d, want 2", n)
	}
	opts := s4.Content.(casemodel.MCQContent).Options
	if len(opts) != 2 || opts[1].Label != "C" || !opts[1].IsCorrect {
		t.Errorf("options = %+v", opts)
	}

	if _, err := casemodel.UpdateItem(s, "options", 9, "label", "x"); !errors.Is(err, casemodel.ErrIndexOutOfRange) {
		t.Errorf("UpdateItem(9) error = %v, want ErrIndexOutOfRange", err)
	}
	if _, err := casemodel.AddItem(s, "explanationOnFail", "x"); !errors.Is(err, casemodel.ErrNotAList) {
		t.Errorf("AddItem(string field) error = %v, want ErrNotAList", err)
	}
}

func TestWithItemAt_CopyOnWrite(t *testing.T) {
	list := []int{1, 2, 3}

	out := casemodel.WithItemAt(list, 1, func(v int) int { return v * 10 })

	if list[1] != 2 {
		t.Errorf("input modified: %v", list)
	}
	if out[1] != 20 {
		t.Errorf("out = %v", out)
	}
	if same := casemodel.WithItemAt(list, 5, func(v int) int { return 0 }); &same[0] != &list[0] {
		t.Error("out-of-range update should return the input slice")
	}
}

func TestMoved(t *testing.T) {
	list := []string{"a", "b", "c", "d"}

	out, err := casemodel.Moved(list, 0, 2)
	if err != nil {
		t.Fatalf("Moved() error = %v", err)
	}
	want := []string{"b", "c", "a", "d"}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("Moved() = %v, want %v", out, want)
		}
	}
	if list[0] != "a" {
		t.Errorf("input modified: %v", list)
	}

	if _, err := casemodel.Moved(list, 0, 4); !errors.Is(err, casemodel.ErrIndexOutOfRange) {
		t.Errorf("Moved(0, 4) error = %v, want ErrIndexOutOfRange", err)
	}
}

func TestMCQOptionLimits(t *testing.T) {
	c := casemodel.MCQContent{Options: make([]casemodel.MCQOption, casemodel.MaxMCQOptions)}
	if _, err := c.AddOption(); !errors.Is(err, casemodel.ErrTooManyOptions) {
		t.Errorf("AddOption() error = %v, want ErrTooManyOptions", err)
	}

	c = casemodel.MCQContent{Options: make([]casemodel.MCQOption, casemodel.MinMCQOptions)}
	if _, err := c.RemoveOption(0); !errors.Is(err, casemodel.ErrTooFewOptions) {
		t.Errorf("RemoveOption() error = %v, want ErrTooFewOptions", err)
	}

	c = casemodel.MCQContent{Options: []casemodel.MCQOption{{IsCorrect: true}, {}, {IsCorrect: true}}}
	marked := c.MarkCorrect(1)
	if marked.CorrectCount() != 1 || !marked.Options[1].IsCorrect {
		t.Errorf("MarkCorrect(1) = %+v", marked.Options)
	}
	if c.CorrectCount() != 2 {
		t.Error("MarkCorrect modified the original options")
	}
}

func TestApplyJSON(t *testing.T) {
	s, _ := casemodel.NewLegacyStep(casemodel.TypeDiagnosis, 0)

	good, err := casemodel.ApplyJSON(s, `{"primary": "ACL tear", "ddx": ["meniscal injury"]}`)
	if err != nil {
		t.Fatalf("ApplyJSON() error = %v", err)
	}
	if got := good.Content.(casemodel.FreeformContent).Fields.Text("primary"); got != "ACL tear" {
		t.Errorf("primary = %q", got)
	}

	for _, raw := range []string{`{"primary": `, `["not", "an", "object"]`} {
		kept, err := casemodel.ApplyJSON(good, raw)
		if !errors.Is(err, casemodel.ErrMalformedContent) {
			t.Errorf("ApplyJSON(%q) error = %v, want ErrMalformedContent", raw, err)
		}
		if kept.Content.(casemodel.FreeformContent).Fields.Text("primary") != "ACL tear" {
			t.Errorf("ApplyJSON(%q) did not keep the last valid content", raw)
		}
	}

	mcq, _ := casemodel.NewLegacyStep(casemodel.TypeMCQ, 0)
	if _, err := casemodel.ApplyJSON(mcq, `{}`); !errors.Is(err, casemodel.ErrNotFreeform) {
		t.Errorf("ApplyJSON(mcq) error = %v, want ErrNotFreeform", err)
	}
}
