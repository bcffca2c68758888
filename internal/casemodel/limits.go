package casemodel

// Business limits shared by the editors and the validators.
const (
	MinMCQOptions = 2
	MaxMCQOptions = 6

	MinMaxScore = 1
	MaxMaxScore = 10

	MinExpectedTime = 1   // seconds
	MaxExpectedTime = 600 // seconds

	MinPatientAge = 1
	MaxPatientAge = 110

	MinCaseDuration = 1  // minutes
	MaxCaseDuration = 30 // minutes
)

// HintTag classifies the topic an assessment hint points at.
type HintTag string

const (
	TagClinicalReasoning HintTag = "clinical_reasoning"
	TagAnatomy           HintTag = "anatomy"
	TagPhysiology        HintTag = "physiology"
	TagPathology         HintTag = "pathology"
	TagPharmacology      HintTag = "pharmacology"
	TagEthics            HintTag = "ethics"
)

// HintTags returns every accepted hint tag.
func HintTags() []HintTag {
	return []HintTag{
		TagClinicalReasoning,
		TagAnatomy,
		TagPhysiology,
		TagPathology,
		TagPharmacology,
		TagEthics,
	}
}

// ValidHintTag reports whether s is one of HintTags.
func ValidHintTag(s string) bool {
	for _, t := range HintTags() {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Investigation results.
const (
	ResultPositive     = "Positive"
	ResultNegative     = "Negative"
	ResultInconclusive = "Inconclusive"
)

// Patient genders accepted on the info step.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)
