package scoring_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/scoring"
)

func mcq() casemodel.MCQContent {
	c := casemodel.MCQContent{
		Question:          "First-line imaging for a suspected scaphoid fracture?",
		MaxScore:          casemodel.IntNum(4),
		ExplanationOnFail: "Plain films with scaphoid views come first.",
		Options: []casemodel.MCQOption{
			{Label: "MRI", Feedback: "Reserved for occult fractures"},
			{Label: "X-ray", Feedback: "Correct"},
		},
	}
	return c.MarkCorrect(1)
}

func TestMCQ(t *testing.T) {
	tests := []struct {
		name     string
		selected int
		want     scoring.MCQResult
	}{
		{"correct", 1, scoring.MCQResult{Correct: true, Score: 4, MaxScore: 4, Feedback: "Correct"}},
		{"miss", 0, scoring.MCQResult{Score: 0, MaxScore: 4, Feedback: "Reserved for occult fractures", Explanation: "Plain films with scaphoid views come first."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scoring.MCQ(mcq(), tt.selected)
			if err != nil {
				t.Fatalf("MCQ() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("MCQ() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMCQ_OutOfRange(t *testing.T) {
	for _, i := range []int{-1, 2} {
		if _, err := scoring.MCQ(mcq(), i); !errors.Is(err, scoring.ErrNoSuchOption) {
			t.Errorf("MCQ(%d) error = %v, want ErrNoSuchOption", i, err)
		}
	}
}

func TestEssay(t *testing.T) {
	q := casemodel.EssayQuestion{
		QuestionText: "Describe the Ottawa ankle rules.",
		Keywords:     []string{"malleolus", "tenderness", "weight bearing", "navicular"},
		Synonyms:     []string{"unable to walk"},
		MaxScore:     casemodel.IntNum(8),
	}

	tests := []struct {
		name    string
		answer  string
		score   int
		matched int
	}{
		{"all keywords", "Bony TENDERNESS at the posterior malleolus or the navicular, or no weight bearing.", 8, 4},
		{"half", "tenderness over the malleolus", 4, 2},
		{"synonym credits a missing keyword", "tenderness over the malleolus, unable to walk", 6, 2},
		{"nothing", "ice and rest", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoring.Essay(q, tt.answer)
			if got.Score != tt.score || len(got.Matched) != tt.matched {
				t.Errorf("Essay() = %+v, want score %d with %d matched", got, tt.score, tt.matched)
			}
			if len(got.Matched)+len(got.Missing) != len(q.Keywords) {
				t.Errorf("matched and missing should partition the keywords: %+v", got)
			}
		})
	}
}

func TestEssay_NormalisesUnicode(t *testing.T) {
	q := casemodel.EssayQuestion{
		Keywords: []string{"Ödem"},
		MaxScore: casemodel.IntNum(2),
	}
	// A capital O followed by a combining diaeresis.
	got := scoring.Essay(q, "Deutliches O\u0308dem am Knöchel")
	if got.Score != 2 {
		t.Errorf("Essay() score = %d, want 2", got.Score)
	}
}

func TestEssay_NoKeywords(t *testing.T) {
	got := scoring.Essay(casemodel.EssayQuestion{Keywords: []string{" "}, MaxScore: casemodel.IntNum(3)}, "anything")
	if got.Score != 0 || got.MaxScore != 3 {
		t.Errorf("Essay() = %+v, want 0 of 3", got)
	}
}
