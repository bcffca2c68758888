package learner

import (
	"context"
	"fmt"
	"log/slog"
)

// Recorder reports hub views for one learner on one case. It satisfies
// hub.Recorder.
type Recorder struct {
	Views     ViewStore
	Events    EventLogger
	CaseID    string
	LearnerID string
}

// StepViewed stores the view and then logs a step_viewed event. A view that
// could not be stored is returned as an error and no event is logged. An
// event that could not be logged only produces a warning, since the view
// itself is safe.
func (r Recorder) StepViewed(ctx context.Context, stepID string) error {
	if r.Views != nil {
		if err := r.Views.MarkViewed(ctx, r.CaseID, r.LearnerID, stepID); err != nil {
			return fmt.Errorf("store view: %w", err)
		}
	}
	if r.Events == nil {
		return nil
	}
	if err := r.Events.LogEvent(ctx, StepViewed(r.CaseID, r.LearnerID, stepID)); err != nil {
		slog.Warn("failed to log step view", "case_id", r.CaseID, "learner_id", r.LearnerID, "step_id", stepID, "error", err)
	}
	return nil
}
