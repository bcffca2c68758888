package casemodel

import "github.com/p-n-ai/clinicase/internal/clinical"

// LegacyMapping places a legacy step type within the clinical phases.
// Standalone types carry no category and may sit anywhere in the order.
type LegacyMapping struct {
	Phase      clinical.PhaseID
	Category   clinical.CategoryID
	Standalone bool
}

var legacyTable = map[Type]LegacyMapping{
	TypeInfo:          {Phase: clinical.PhaseHistoryPresentation, Category: clinical.CategoryPresentHistory},
	TypeHistory:       {Phase: clinical.PhaseHistoryPresentation, Category: clinical.CategoryPastHistory},
	TypeInvestigation: {Phase: clinical.PhaseAssessment, Category: clinical.CategoryInvestigations},
	TypeDiagnosis:     {Phase: clinical.PhaseDiagnosis, Category: clinical.CategoryDiagnoses},
	TypeTreatment:     {Phase: clinical.PhaseTreatment, Category: clinical.CategoryTreatmentPlan},
	TypeMCQ:           {Phase: clinical.PhaseAssessment, Standalone: true},
	TypeEssay:         {Phase: clinical.PhaseAssessment, Standalone: true},
}

// MapLegacyType returns the phase/category a legacy type maps to. Clinical
// and unknown types report false.
func MapLegacyType(t Type) (LegacyMapping, bool) {
	m, ok := legacyTable[t]
	return m, ok
}
