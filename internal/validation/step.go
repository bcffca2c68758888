package validation

import (
	"fmt"
	"strings"

	"github.com/p-n-ai/clinicase/internal/casemodel"
)

// Step validates a step according to its kind. Diagnosis and treatment steps
// of the legacy kinds hold free-form JSON and are always valid.
func Step(s casemodel.Step) Errors {
	switch c := s.Content.(type) {
	case casemodel.MCQContent:
		return MCQ(c)
	case casemodel.EssayContent:
		return Essay(c)
	case casemodel.InfoContent:
		return Info(c)
	case casemodel.HistoryContent:
		return History(c)
	case casemodel.InvestigationContent:
		return Investigation(c)
	case casemodel.ClinicalContent:
		return Clinical(s.Placement.Category(), c)
	default:
		return Errors{}
	}
}

// MCQ validates a multiple choice question.
func MCQ(c casemodel.MCQContent) Errors {
	errs := Errors{}

	requireText(errs, Field("question"), c.QuestionText(), "Question is required")
	requireRange(errs, Field("maxScore"), c.MaxScore, casemodel.MinMaxScore, casemodel.MaxMaxScore, "Max score")
	requireText(errs, Field("explanationOnFail"), c.ExplanationOnFail, "Explanation on fail is required")

	options := Field("options")
	switch {
	case len(c.Options) < casemodel.MinMCQOptions:
		errs.add(options, fmt.Sprintf("At least %d options are required", casemodel.MinMCQOptions))
	case len(c.Options) > casemodel.MaxMCQOptions:
		errs.add(options, fmt.Sprintf("At most %d options are allowed", casemodel.MaxMCQOptions))
	}
	for i, o := range c.Options {
		requireText(errs, options.At(i).Key("label"), o.Label, "Option label is required")
		requireText(errs, options.At(i).Key("feedback"), o.Feedback, "Option feedback is required")
	}
	if n := c.CorrectCount(); n != 1 {
		errs.add(Field("correctAnswer"), fmt.Sprintf("Exactly one correct answer is required (currently %d)", n))
	}

	hint(errs, c.HintBlock)
	return errs
}

// Essay validates an essay step. The hint block applies to the step as a
// whole, not per question.
func Essay(c casemodel.EssayContent) Errors {
	errs := Errors{}

	questions := Field("essayQuestions")
	if len(c.EssayQuestions) == 0 {
		errs.add(questions, "At least one question is required")
	}
	for i, q := range c.EssayQuestions {
		requireText(errs, questions.At(i).Key("question_text"), q.QuestionText, "Question text is required")
		if !anyText(q.Keywords) {
			errs.add(questions.At(i).Key("keywords"), "At least one keyword is required")
		}
	}

	hint(errs, c.HintBlock)
	return errs
}

// hint applies the hint rules unless the hint is explicitly switched off.
func hint(errs Errors, h casemodel.HintBlock) {
	if !h.HintOn() {
		return
	}
	switch {
	case blank(h.Tag):
		errs.add(Field("tag"), "Tag is required")
	case !casemodel.ValidHintTag(h.Tag):
		errs.add(Field("tag"), "Tag must be one of: "+hintTagList())
	}
	requireText(errs, Field("hint_text"), h.HintText, "Hint text is required")
	if !h.ExpectedTime.Blank() {
		checkRange(errs, Field("expected_time"), h.ExpectedTime, casemodel.MinExpectedTime, casemodel.MaxExpectedTime, "Expected time (seconds)")
	}
}

func hintTagList() string {
	tags := casemodel.HintTags()
	s := make([]string, len(tags))
	for i, t := range tags {
		s[i] = string(t)
	}
	return strings.Join(s, ", ")
}

func anyText(list []string) bool {
	for _, s := range list {
		if !blank(s) {
			return true
		}
	}
	return false
}

// Info validates the patient introduction step.
func Info(c casemodel.InfoContent) Errors {
	errs := Errors{}

	name := Field("patientName")
	switch {
	case blank(c.PatientName):
		errs.add(name, "Patient name is required")
	case !IsValidPatientName(c.PatientName):
		errs.add(name, "Patient name may contain only letters and spaces")
	}

	// A literal 0 counts as provided and then fails the range check.
	requireRange(errs, Field("age"), c.Age, casemodel.MinPatientAge, casemodel.MaxPatientAge, "Age")

	requireText(errs, Field("gender"), c.Gender, "Gender is required")
	requireText(errs, Field("description"), c.Description, "Description is required")
	requireText(errs, Field("chiefComplaint"), c.ChiefComplaint, "Chief complaint is required")

	if c.ImageURL != "" && !IsValidImageURL(c.ImageURL) {
		errs.add(Field("imageUrl"), "Image URL must start with http(s):// or data:image/")
	}
	return errs
}

// History validates the legacy history step.
func History(c casemodel.HistoryContent) Errors {
	errs := Errors{}

	requireText(errs, Field("title"), c.Title, "Title is required")

	questions := Field("questions")
	if len(c.Questions) == 0 {
		errs.add(questions, "At least one question is required")
	}
	for i, q := range c.Questions {
		requireText(errs, questions.At(i).Key("question"), q.Question, "Question is required")
		requireText(errs, questions.At(i).Key("answer"), q.Answer, "Answer is required")
	}
	return errs
}

// Investigation validates the legacy investigation step.
func Investigation(c casemodel.InvestigationContent) Errors {
	errs := Errors{}

	if len(c.Investigations) == 0 && len(c.Xrays) == 0 {
		errs.add(Field("investigations"), "Add at least one investigation or X-ray")
	}

	invs := Field("investigations")
	for i, inv := range c.Investigations {
		p := invs.At(i)
		requireText(errs, p.Key("groupLabel"), inv.GroupLabel, "Group label is required")
		requireText(errs, p.Key("testName"), inv.TestName, "Test name is required")
		requireText(errs, p.Key("description"), inv.Description, "Description is required")
		switch inv.Result {
		case "":
			errs.add(p.Key("result"), "Result is required")
		case casemodel.ResultPositive, casemodel.ResultNegative, casemodel.ResultInconclusive:
		default:
			errs.add(p.Key("result"), "Result must be Positive, Negative or Inconclusive")
		}
		if inv.VideoURL != "" && !IsYouTubeURL(inv.VideoURL) {
			errs.add(p.Key("videoUrl"), "Video URL must be a YouTube link")
		}
	}

	xrays := Field("xrays")
	for i, x := range c.Xrays {
		p := xrays.At(i)
		requireText(errs, p.Key("label"), x.Label, "X-ray label is required")
		switch {
		case blank(x.ImageURL):
			errs.add(p.Key("imageUrl"), "X-ray image is required")
		case !IsValidImageURL(x.ImageURL):
			errs.add(p.Key("imageUrl"), "Image URL must start with http(s):// or data:image/")
		}
	}
	return errs
}
