package validation

import (
	"github.com/p-n-ai/clinicase/internal/casemodel"
)

// Case validates case-level metadata.
func Case(c casemodel.Case) Errors {
	errs := Errors{}

	requireText(errs, Field("title"), c.Title, "Title is required")
	requireText(errs, Field("categoryId"), c.CategoryID, "Category is required")
	if !c.Difficulty.Valid() {
		errs.add(Field("difficulty"), "Difficulty must be Beginner, Intermediate or Advanced")
	}
	checkRange(errs, Field("duration"), casemodel.IntNum(c.Duration), casemodel.MinCaseDuration, casemodel.MaxCaseDuration, "Duration (minutes)")
	if c.ThumbnailURL != "" && !IsValidImageURL(c.ThumbnailURL) {
		errs.add(Field("thumbnailUrl"), "Thumbnail must start with http(s):// or data:image/")
	}
	return errs
}

// StepErrors pairs a step with the errors found in it.
type StepErrors struct {
	Step   casemodel.Step
	Errors Errors
}

// Steps validates every step and returns those with errors, in input order.
// Steps that share a step index are reported separately.
func Steps(steps []casemodel.Step) []StepErrors {
	var out []StepErrors
	for _, s := range steps {
		if errs := Step(s); errs.HasErrors() {
			out = append(out, StepErrors{Step: s, Errors: errs})
		}
	}
	return out
}
