package casemodel

// Difficulty grades a case.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// CaseMetadata holds descriptive case fields.
type CaseMetadata struct {
	Brief string `json:"brief"`
}

// Case is a clinical simulation. Its steps are stored separately and ordered
// by StepIndex.
type Case struct {
	ID                 string       `json:"id,omitempty"`
	Title              string       `json:"title"`
	CategoryID         string       `json:"categoryId"`
	Difficulty         Difficulty   `json:"difficulty"`
	Duration           int          `json:"duration"` // minutes
	Metadata           CaseMetadata `json:"metadata"`
	ThumbnailURL       string       `json:"thumbnailUrl,omitempty"`
	IsLocked           bool         `json:"isLocked"`
	PrerequisiteCaseID string       `json:"prerequisiteCaseId,omitempty"`
}
