package casemodel

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/p-n-ai/clinicase/internal/clinical"
)

// Record is the serializable form of a step, as exchanged with persistence
// and the authoring UI.
type Record struct {
	ID        string          `json:"id,omitempty"`
	StepIndex int             `json:"stepIndex"`
	Type      Type            `json:"type"`
	Phase     string          `json:"phase,omitempty"`
	Category  string          `json:"category,omitempty"`
	InputMode string          `json:"input_mode,omitempty"`
	Content   json.RawMessage `json:"content"`
}

// Record converts s to its serializable form.
func (s Step) Record() (Record, error) {
	content, err := json.Marshal(s.Content)
	if err != nil {
		return Record{}, fmt.Errorf("marshal %s content: %w", s.Type, err)
	}
	r := Record{
		ID:        s.ID,
		StepIndex: s.StepIndex,
		Type:      s.Type,
		Content:   content,
	}
	if s.Type == TypeClinical {
		r.Phase = string(s.Placement.Phase())
		r.Category = string(s.Placement.Category())
		r.InputMode = string(s.InputMode)
	}
	return r, nil
}

// FromRecord rebuilds a step, checking clinical placements against reg.
func FromRecord(reg *clinical.Registry, r Record) (Step, error) {
	s := Step{ID: r.ID, StepIndex: r.StepIndex, Type: r.Type}
	if r.StepIndex < 0 {
		return Step{}, fmt.Errorf("step %s: negative stepIndex %d", r.ID, r.StepIndex)
	}

	switch {
	case r.Type == TypeClinical:
		p, err := reg.Place(clinical.PhaseID(r.Phase), clinical.CategoryID(r.Category))
		if err != nil {
			return Step{}, fmt.Errorf("step %s: %w", r.ID, err)
		}
		s.Placement = p
		s.InputMode = reg.InputModeOf(p)
	case r.Type.IsLegacy():
	default:
		return Step{}, fmt.Errorf("step %s: unknown type %q", r.ID, r.Type)
	}

	content, err := DecodeContent(r.Type, r.Content)
	if err != nil {
		return Step{}, fmt.Errorf("step %s: %w", r.ID, err)
	}
	s.Content = content
	return s, nil
}

// DecodeContent parses raw JSON into the content type of t. Missing or null
// content decodes to the empty value of that type.
func DecodeContent(t Type, raw []byte) (Content, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	switch t {
	case TypeMCQ:
		return decodeAs[MCQContent](t, raw)
	case TypeEssay:
		return decodeAs[EssayContent](t, raw)
	case TypeInfo:
		return decodeAs[InfoContent](t, raw)
	case TypeHistory:
		return decodeAs[HistoryContent](t, raw)
	case TypeInvestigation:
		return decodeAs[InvestigationContent](t, raw)
	case TypeDiagnosis, TypeTreatment:
		c, err := decodeAs[FreeformContent](t, raw)
		if err == nil && c.Fields == nil {
			c.Fields = Fields{}
		}
		return c, err
	case TypeClinical:
		c, err := decodeAs[ClinicalContent](t, raw)
		if err == nil && c.Fields == nil {
			c.Fields = Fields{}
		}
		return c, err
	default:
		return nil, fmt.Errorf("unknown step type %q", t)
	}
}

func decodeAs[C Content](t Type, raw []byte) (C, error) {
	var c C
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("decode %s content: %w", t, err)
	}
	return c, nil
}

func (s Step) MarshalJSON() ([]byte, error) {
	r, err := s.Record()
	if err != nil {
		return nil, err
	}
	return json.Marshal(r)
}

// UnmarshalJSON decodes a step against the bundled registry.
func (s *Step) UnmarshalJSON(b []byte) error {
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	step, err := FromRecord(clinical.Default(), r)
	if err != nil {
		return err
	}
	*s = step
	return nil
}
