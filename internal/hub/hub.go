// Package hub tracks which sub-steps of a grouped learner view have been
// viewed.
package hub

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/clinical"
)

var (
	// ErrUnknownSubStep is returned when selecting a step outside the hub.
	ErrUnknownSubStep = errors.New("step is not part of this hub")
	// ErrViewNotRecorded is returned when a view could not be stored.
	ErrViewNotRecorded = errors.New("step view not recorded")
)

// Kind names a hub.
type Kind string

const (
	KindHistory    Kind = "history"
	KindAssessment Kind = "assessment"
)

// Phase returns the clinical phase a hub groups.
func (k Kind) Phase() (clinical.PhaseID, bool) {
	switch k {
	case KindHistory:
		return clinical.PhaseHistoryPresentation, true
	case KindAssessment:
		return clinical.PhaseAssessment, true
	}
	return "", false
}

// SubSteps returns the steps shown inside a hub, by step index. Standalone
// MCQ and essay steps are never hub sub-steps.
func SubSteps(k Kind, steps []casemodel.Step) ([]casemodel.Step, error) {
	phase, ok := k.Phase()
	if !ok {
		return nil, fmt.Errorf("unknown hub %q", k)
	}
	var out []casemodel.Step
	for _, s := range steps {
		if s.IsStandalone() {
			continue
		}
		if p, _ := s.Slot(); p == phase {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b casemodel.Step) int {
		return cmp.Compare(a.StepIndex, b.StepIndex)
	})
	return out, nil
}

// Progress summarises a hub for display.
type Progress struct {
	ViewedCount     int  `json:"viewedCount"`
	TotalSteps      int  `json:"totalSteps"`
	ProgressPercent int  `json:"progressPercent"`
	IsComplete      bool `json:"isComplete"`
}

// Compute derives hub progress from its sub-step IDs and a viewed set. IDs
// in viewed that are not sub-steps are ignored. An empty hub is 0% and not
// complete.
func Compute(subSteps []string, viewed map[string]bool) Progress {
	n := 0
	for _, id := range subSteps {
		if viewed[id] {
			n++
		}
	}
	p := Progress{ViewedCount: n, TotalSteps: len(subSteps)}
	if p.TotalSteps > 0 {
		p.ProgressPercent = int(math.Round(100 * float64(n) / float64(p.TotalSteps)))
		p.IsComplete = n == p.TotalSteps
	}
	return p
}

// Recorder receives step view notifications.
type Recorder interface {
	StepViewed(ctx context.Context, stepID string) error
}

// Tracker follows one learner through one hub. Its viewed set only grows.
type Tracker struct {
	kind     Kind
	subSteps []string
	viewed   map[string]bool
	selected string
	recorder Recorder
}

// NewTracker opens a hub over subSteps with the viewed IDs already known for
// the learner. recorder may be nil.
func NewTracker(kind Kind, subSteps []casemodel.Step, viewed []string, recorder Recorder) *Tracker {
	t := &Tracker{
		kind:     kind,
		viewed:   make(map[string]bool, len(viewed)),
		recorder: recorder,
	}
	for _, s := range subSteps {
		t.subSteps = append(t.subSteps, s.ID)
	}
	for _, id := range viewed {
		t.viewed[id] = true
	}
	return t
}

// Enter selects the first sub-step when nothing is selected yet.
func (t *Tracker) Enter(ctx context.Context) error {
	if t.selected != "" || len(t.subSteps) == 0 {
		return nil
	}
	return t.Select(ctx, t.subSteps[0])
}

// Select shows a sub-step and marks it viewed. Selecting a step that was
// already viewed changes only the selection. When the recorder fails the
// step stays selected but unviewed, and the error wraps ErrViewNotRecorded
// so the caller can retry.
func (t *Tracker) Select(ctx context.Context, stepID string) error {
	if !t.contains(stepID) {
		return fmt.Errorf("%s hub, step %s: %w", t.kind, stepID, ErrUnknownSubStep)
	}
	t.selected = stepID
	if t.viewed[stepID] {
		return nil
	}

	if t.recorder != nil {
		if err := t.recorder.StepViewed(ctx, stepID); err != nil {
			slog.Warn("failed to record step view", "hub", t.kind, "step_id", stepID, "error", err)
			return fmt.Errorf("%s hub, step %s: %w: %w", t.kind, stepID, ErrViewNotRecorded, err)
		}
	}
	t.viewed[stepID] = true
	return nil
}

// Selected returns the selected sub-step ID.
func (t *Tracker) Selected() string {
	return t.selected
}

// Viewed reports whether a sub-step has been viewed.
func (t *Tracker) Viewed(stepID string) bool {
	return t.viewed[stepID]
}

// Progress returns the current hub progress.
func (t *Tracker) Progress() Progress {
	return Compute(t.subSteps, t.viewed)
}

func (t *Tracker) contains(id string) bool {
	return slices.Contains(t.subSteps, id)
}
