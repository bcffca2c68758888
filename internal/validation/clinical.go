package validation

import (
	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/clinical"
)

// Clinical validates a clinical step by category. Categories without rules
// of their own (most assessment findings, past and social history) are
// always valid.
func Clinical(category clinical.CategoryID, c casemodel.ClinicalContent) Errors {
	errs := Errors{}
	f := c.Fields

	switch category {
	case clinical.CategoryPresentHistory:
		if t, _ := textOf(f["chief_complaint"]); t == "" {
			errs.add(Field("chief_complaint"), "Chief complaint is required")
		}

	case clinical.CategoryHistoryOfPain:
		pain := Field("pain")
		// 0 is a valid intensity; only a missing or null value is an error.
		if v, ok := f.Lookup("pain", "intensity"); !ok || v == nil {
			errs.add(pain.Key("intensity"), "Pain intensity is required")
		}
		if !present(f.Lookup("pain", "frequency")) {
			errs.add(pain.Key("frequency"), "Pain frequency is required")
		}

	case clinical.CategoryDiagnoses:
		labelledList(errs, f, "diagnoses", "At least one diagnosis is required", "Diagnosis label is required")

	case clinical.CategoryProblems:
		labelledList(errs, f, "problems", "At least one problem is required", "Problem label is required")

	case clinical.CategoryTreatmentPlan:
		if len(f.List("treatments")) == 0 {
			errs.add(Field("treatments"), "At least one treatment is required")
		}
	}
	return errs
}

// labelledList requires a non-empty list whose rows each carry a label.
func labelledList(errs Errors, f casemodel.Fields, key, emptyMsg, labelMsg string) {
	list := f.List(key)
	if len(list) == 0 {
		errs.add(Field(key), emptyMsg)
		return
	}
	for i, row := range list {
		obj, _ := row.(map[string]any)
		if t, _ := textOf(obj["label"]); t == "" {
			errs.add(Field(key).At(i).Key("label"), labelMsg)
		}
	}
}
