// Package clinical holds the static registry of clinical phases and the
// categories authored within each phase.
package clinical

// PhaseID identifies one of the five fixed clinical phases.
type PhaseID string

const (
	PhaseHistoryPresentation PhaseID = "history_presentation"
	PhaseAssessment          PhaseID = "assessment"
	PhaseDiagnosis           PhaseID = "diagnosis"
	PhaseProblemList         PhaseID = "problem_list"
	PhaseTreatment           PhaseID = "treatment"
)

// AllPhaseIDs returns the phase IDs in canonical order.
func AllPhaseIDs() []PhaseID {
	return []PhaseID{
		PhaseHistoryPresentation,
		PhaseAssessment,
		PhaseDiagnosis,
		PhaseProblemList,
		PhaseTreatment,
	}
}

// CategoryID identifies a category. IDs are unique across all phases.
type CategoryID string

// Categories with validation rules of their own.
const (
	CategoryPresentHistory CategoryID = "present_history"
	CategoryHistoryOfPain  CategoryID = "history_of_pain"
	CategoryPastHistory    CategoryID = "past_history"
	CategoryInvestigations CategoryID = "investigations"
	CategoryDiagnoses      CategoryID = "diagnoses"
	CategoryProblems       CategoryID = "problems"
	CategoryTreatmentPlan  CategoryID = "treatment_plan"
)

// InputMode says who fills a category's content.
type InputMode string

const (
	InputAuthorOnly InputMode = "author_only"
	InputUserInput  InputMode = "user_input"
)

// DataType tags the kinds of data a category carries.
type DataType string

const (
	DataText    DataType = "text"
	DataNumbers DataType = "numbers"
	DataImage   DataType = "image"
	DataLinks   DataType = "links"
)

// Phase is a registry entry for a clinical phase.
type Phase struct {
	ID          PhaseID `yaml:"id" json:"id"`
	Label       string  `yaml:"label" json:"label"`
	ShortLabel  string  `yaml:"short_label" json:"shortLabel"`
	Icon        string  `yaml:"icon" json:"icon"`
	Description string  `yaml:"description" json:"description"`
	Order       int     `yaml:"order" json:"order"`
}

// Category is a registry entry scoped to one phase.
type Category struct {
	ID        CategoryID `json:"id"`
	Phase     PhaseID    `json:"phase"`
	Label     string     `json:"label"`
	InputMode InputMode  `json:"inputMode"`
	DataTypes []DataType `json:"dataTypes"`
}

// HasDataType reports whether the category is tagged with dt.
func (c Category) HasDataType(dt DataType) bool {
	for _, t := range c.DataTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// Placement is a phase/category pair known to exist in a registry.
// The zero value is not a valid placement; obtain one from Registry.Place.
type Placement struct {
	phase    PhaseID
	category CategoryID
}

// Phase returns the placement's phase.
func (p Placement) Phase() PhaseID { return p.phase }

// Category returns the placement's category.
func (p Placement) Category() CategoryID { return p.category }

// IsZero reports whether p was never placed.
func (p Placement) IsZero() bool { return p.phase == "" }
