// Package casemodel defines cases, their steps and the content each step kind
// carries, together with pure helpers for editing them.
package casemodel

import (
	"fmt"

	"github.com/p-n-ai/clinicase/internal/clinical"
)

// Type is the step kind.
type Type string

const (
	TypeClinical      Type = "clinical"
	TypeInfo          Type = "info"
	TypeHistory       Type = "history"
	TypeMCQ           Type = "mcq"
	TypeInvestigation Type = "investigation"
	TypeEssay         Type = "essay"
	TypeDiagnosis     Type = "diagnosis"
	TypeTreatment     Type = "treatment"
)

// LegacyTypes returns the flat educational step types.
func LegacyTypes() []Type {
	return []Type{TypeInfo, TypeHistory, TypeMCQ, TypeInvestigation, TypeEssay, TypeDiagnosis, TypeTreatment}
}

// IsLegacy reports whether t is one of LegacyTypes.
func (t Type) IsLegacy() bool {
	_, ok := legacyTable[t]
	return ok
}

// Step is one unit of case content.
type Step struct {
	ID        string
	StepIndex int
	Type      Type

	// Placement and InputMode are set on clinical steps only.
	Placement clinical.Placement
	InputMode clinical.InputMode

	Content Content
}

// NewClinicalStep creates a clinical step seeded with the category template.
func NewClinicalStep(reg *clinical.Registry, p clinical.Placement, index int) Step {
	return Step{
		StepIndex: index,
		Type:      TypeClinical,
		Placement: p,
		InputMode: reg.InputModeOf(p),
		Content:   ClinicalContent{Fields: reg.DefaultTemplate(p.Category())},
	}
}

// NewLegacyStep creates a legacy step with starter content.
func NewLegacyStep(t Type, index int) (Step, error) {
	if !t.IsLegacy() {
		return Step{}, fmt.Errorf("%q is not a legacy step type", t)
	}
	return Step{StepIndex: index, Type: t, Content: starterContent(t)}, nil
}

// Slot resolves the phase and category a step belongs to. Standalone steps
// (MCQ and essay) report an empty category.
func (s Step) Slot() (clinical.PhaseID, clinical.CategoryID) {
	if s.Type == TypeClinical {
		return s.Placement.Phase(), s.Placement.Category()
	}
	m, _ := MapLegacyType(s.Type)
	return m.Phase, m.Category
}

// IsStandalone reports whether the step floats freely in the case order.
func (s Step) IsStandalone() bool {
	m, ok := MapLegacyType(s.Type)
	return ok && m.Standalone
}

// WithContent returns a copy of s holding c.
func (s Step) WithContent(c Content) Step {
	s.Content = c
	return s
}

func starterContent(t Type) Content {
	switch t {
	case TypeMCQ:
		return MCQContent{Options: []MCQOption{{}, {}}}
	case TypeEssay:
		return EssayContent{EssayQuestions: []EssayQuestion{{Keywords: []string{}, Synonyms: []string{}}}}
	case TypeInfo:
		return InfoContent{}
	case TypeHistory:
		return HistoryContent{Questions: []HistoryQuestion{{}}}
	case TypeInvestigation:
		return InvestigationContent{Investigations: []Investigation{}, Xrays: []Xray{}}
	case TypeDiagnosis, TypeTreatment:
		return FreeformContent{Fields: Fields{}}
	default:
		return ClinicalContent{Fields: Fields{}}
	}
}
