// Package scoring marks learner answers to MCQ and essay steps.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/p-n-ai/clinicase/internal/casemodel"
)

// ErrNoSuchOption is returned for a selection outside the option list.
var ErrNoSuchOption = errors.New("no such option")

// MCQResult is the outcome of one MCQ answer.
type MCQResult struct {
	Correct     bool   `json:"correct"`
	Score       int    `json:"score"`
	MaxScore    int    `json:"maxScore"`
	Feedback    string `json:"feedback"`
	Explanation string `json:"explanation,omitempty"`
}

// MCQ scores the option at selected. A correct answer earns the full max
// score; a miss earns nothing and carries the explanation.
func MCQ(c casemodel.MCQContent, selected int) (MCQResult, error) {
	if selected < 0 || selected >= len(c.Options) {
		return MCQResult{}, fmt.Errorf("%w: %d of %d", ErrNoSuchOption, selected, len(c.Options))
	}
	opt := c.Options[selected]
	r := MCQResult{
		Correct:  opt.IsCorrect,
		MaxScore: c.MaxScore.IntOr(casemodel.MinMaxScore),
		Feedback: opt.Feedback,
	}
	if r.Correct {
		r.Score = r.MaxScore
	} else {
		r.Explanation = c.ExplanationOnFail
	}
	return r, nil
}

// EssayResult is the keyword coverage of one essay answer.
type EssayResult struct {
	Score    int      `json:"score"`
	MaxScore int      `json:"maxScore"`
	Matched  []string `json:"matched"`
	Missing  []string `json:"missing"`
	// Synonyms found in the answer. Each one credits a missing keyword.
	Synonyms []string `json:"synonyms,omitempty"`
}

// Essay scores an answer by keyword coverage. Matching ignores case and
// Unicode normalisation form. Blank keywords are ignored.
func Essay(q casemodel.EssayQuestion, answer string) EssayResult {
	text := fold(answer)
	r := EssayResult{
		MaxScore: q.MaxScore.IntOr(casemodel.MinMaxScore),
		Matched:  []string{},
		Missing:  []string{},
	}

	total := 0
	for _, kw := range q.Keywords {
		k := fold(kw)
		if k == "" {
			continue
		}
		total++
		if strings.Contains(text, k) {
			r.Matched = append(r.Matched, kw)
		} else {
			r.Missing = append(r.Missing, kw)
		}
	}
	if total == 0 {
		return r
	}

	for _, syn := range q.Synonyms {
		if s := fold(syn); s != "" && strings.Contains(text, s) {
			r.Synonyms = append(r.Synonyms, syn)
		}
	}

	credited := len(r.Matched) + min(len(r.Synonyms), len(r.Missing))
	r.Score = int(math.Round(float64(r.MaxScore) * float64(credited) / float64(total)))
	return r
}

func fold(s string) string {
	return strings.TrimSpace(cases.Fold().String(norm.NFC.String(s)))
}
