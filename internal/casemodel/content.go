package casemodel

import (
	"encoding/json"
)

// Content is the payload of a step. The concrete type follows Step.Type.
type Content interface {
	isContent()
}

func (MCQContent) isContent()           {}
func (EssayContent) isContent()         {}
func (InfoContent) isContent()          {}
func (HistoryContent) isContent()       {}
func (InvestigationContent) isContent() {}
func (ClinicalContent) isContent()      {}
func (FreeformContent) isContent()      {}

// HintBlock is the optional hint shared by MCQ and essay steps.
type HintBlock struct {
	// HintEnabled is on unless explicitly false.
	HintEnabled  *bool  `json:"hint_enabled,omitempty"`
	Tag          string `json:"tag"`
	HintText     string `json:"hint_text"`
	ExpectedTime Num    `json:"expected_time"`
}

// HintOn reports whether the hint block is active.
func (h HintBlock) HintOn() bool {
	return h.HintEnabled == nil || *h.HintEnabled
}

// MCQOption is one answer choice.
type MCQOption struct {
	Label     string `json:"label"`
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedback"`
}

// MCQContent is a multiple choice question.
type MCQContent struct {
	Question          string      `json:"question,omitempty"`
	Prompt            string      `json:"prompt,omitempty"`
	MaxScore          Num         `json:"maxScore"`
	ExplanationOnFail string      `json:"explanationOnFail"`
	Options           []MCQOption `json:"options"`
	HintBlock
}

// QuestionText returns the question, falling back to the prompt.
func (c MCQContent) QuestionText() string {
	if c.Question != "" {
		return c.Question
	}
	return c.Prompt
}

// CorrectCount returns how many options are marked correct.
func (c MCQContent) CorrectCount() int {
	n := 0
	for _, o := range c.Options {
		if o.IsCorrect {
			n++
		}
	}
	return n
}

// EssayQuestion is one free-text question with its marking keywords.
type EssayQuestion struct {
	QuestionText  string   `json:"question_text"`
	Keywords      []string `json:"keywords"`
	Synonyms      []string `json:"synonyms"`
	MaxScore      Num      `json:"max_score"`
	PerfectAnswer string   `json:"perfect_answer"`
}

// EssayContent is a set of essay questions.
type EssayContent struct {
	EssayQuestions []EssayQuestion `json:"essayQuestions"`
	HintBlock
}

// InfoContent introduces the patient.
type InfoContent struct {
	PatientName    string `json:"patientName"`
	Age            Num    `json:"age"`
	Gender         string `json:"gender"`
	Description    string `json:"description"`
	ChiefComplaint string `json:"chiefComplaint"`
	ImageURL       string `json:"imageUrl,omitempty"`
}

// HistoryQuestion is a scripted history-taking exchange.
type HistoryQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Icon     string `json:"icon,omitempty"`
}

// HistoryContent is the legacy history step.
type HistoryContent struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Questions   []HistoryQuestion `json:"questions"`
}

// Investigation is one test and its result.
type Investigation struct {
	GroupLabel  string `json:"groupLabel"`
	TestName    string `json:"testName"`
	Description string `json:"description"`
	Result      string `json:"result"`
	VideoURL    string `json:"videoUrl,omitempty"`
}

// Xray is a labelled image.
type Xray struct {
	Label    string `json:"label"`
	ImageURL string `json:"imageUrl"`
}

// InvestigationContent is the legacy investigation step.
type InvestigationContent struct {
	Investigations []Investigation `json:"investigations"`
	Xrays          []Xray          `json:"xrays"`
}

// Fields is a free-form JSON object.
type Fields map[string]any

// Lookup walks nested objects along path.
func (f Fields) Lookup(path ...string) (any, bool) {
	var cur any = map[string]any(f)
	for _, key := range path {
		m, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Text returns the string at path, or "" when absent or not a string.
func (f Fields) Text(path ...string) string {
	v, _ := f.Lookup(path...)
	s, _ := v.(string)
	return s
}

// List returns the array at path, or nil.
func (f Fields) List(path ...string) []any {
	v, _ := f.Lookup(path...)
	l, _ := v.([]any)
	return l
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Fields:
		return m, true
	}
	return nil, false
}

// ClinicalContent is the category-shaped record of a clinical step.
type ClinicalContent struct {
	Fields Fields
}

func (c ClinicalContent) MarshalJSON() ([]byte, error) {
	return marshalFields(c.Fields)
}

func (c *ClinicalContent) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &c.Fields)
}

// FreeformContent is the unvalidated JSON of legacy diagnosis and treatment
// steps.
type FreeformContent struct {
	Fields Fields
}

func (c FreeformContent) MarshalJSON() ([]byte, error) {
	return marshalFields(c.Fields)
}

func (c *FreeformContent) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &c.Fields)
}

func marshalFields(f Fields) ([]byte, error) {
	if f == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(f))
}
