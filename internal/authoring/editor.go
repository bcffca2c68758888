// Package authoring is the case editing session: it keeps one case's step
// list, gates saves on validation and commits reorders through the store.
package authoring

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/casestore"
	"github.com/p-n-ai/clinicase/internal/clinical"
	"github.com/p-n-ai/clinicase/internal/ordering"
	"github.com/p-n-ai/clinicase/internal/progress"
	"github.com/p-n-ai/clinicase/internal/validation"
)

var (
	// ErrInvalidStep is returned by Save when the step has validation errors.
	ErrInvalidStep = errors.New("step has validation errors")
	// ErrInvalidCase is returned by CreateCase when the case metadata is invalid.
	ErrInvalidCase = errors.New("case has validation errors")
	// ErrNotLoaded is returned when the editor has no case loaded.
	ErrNotLoaded = errors.New("no case loaded")
	// ErrStaleReorder is returned when the steps changed after reordering began.
	ErrStaleReorder = errors.New("steps changed since reordering began")
)

// ValidationError carries the error map that blocked a write.
type ValidationError struct {
	Err    error
	Errors validation.Errors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %d field(s)", e.Err, len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return e.Err }

// EditorConfig holds the collaborators of an Editor.
type EditorConfig struct {
	Store    casestore.Store
	Registry *clinical.Registry
}

// Editor edits one case. It is not safe for concurrent use; every editing
// session loads its own Editor.
type Editor struct {
	store casestore.Store
	reg   *clinical.Registry

	c     casemodel.Case
	steps []casemodel.Step
}

// NewEditor creates an editor with no case loaded.
func NewEditor(cfg EditorConfig) (*Editor, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if cfg.Registry == nil {
		cfg.Registry = clinical.Default()
	}
	return &Editor{store: cfg.Store, reg: cfg.Registry}, nil
}

// CreateCase validates and persists a new case.
func CreateCase(ctx context.Context, store casestore.Store, c casemodel.Case) (casemodel.Case, error) {
	if errs := validation.Case(c); errs.HasErrors() {
		return casemodel.Case{}, &ValidationError{Err: ErrInvalidCase, Errors: errs}
	}
	return store.CreateCase(ctx, c)
}

// Load replaces the editor state with the stored case and its steps.
func (e *Editor) Load(ctx context.Context, caseID string) error {
	c, err := e.store.GetCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("load case: %w", err)
	}
	steps, err := e.store.ListSteps(ctx, caseID)
	if err != nil {
		return fmt.Errorf("load steps: %w", err)
	}
	e.c = c
	e.steps = steps
	return nil
}

// Case returns the loaded case.
func (e *Editor) Case() casemodel.Case { return e.c }

// Steps returns a copy of the saved steps in step index order.
func (e *Editor) Steps() []casemodel.Step { return slices.Clone(e.steps) }

// StepCount is the number of saved steps.
func (e *Editor) StepCount() int { return len(e.steps) }

// Registry returns the category registry the editor places steps with.
func (e *Editor) Registry() *clinical.Registry { return e.reg }

// Step returns a saved step by ID.
func (e *Editor) Step(id string) (casemodel.Step, bool) {
	i := e.indexOf(id)
	if i < 0 {
		return casemodel.Step{}, false
	}
	return e.steps[i], true
}

// AddClinical returns a new unsaved step for a category, seeded with the
// category template. When the category already has a step, that step is
// returned instead and existing reports true.
func (e *Editor) AddClinical(phase clinical.PhaseID, category clinical.CategoryID) (s casemodel.Step, existing bool, err error) {
	if e.c.ID == "" {
		return casemodel.Step{}, false, ErrNotLoaded
	}
	p, err := e.reg.Place(phase, category)
	if err != nil {
		return casemodel.Step{}, false, err
	}
	for _, st := range e.steps {
		if st.Type == casemodel.TypeClinical && st.Placement == p {
			return st, true, nil
		}
	}
	return casemodel.NewClinicalStep(e.reg, p, e.StepCount()), false, nil
}

// AddLegacy returns a new unsaved legacy step at the end of the case.
func (e *Editor) AddLegacy(t casemodel.Type) (casemodel.Step, error) {
	if e.c.ID == "" {
		return casemodel.Step{}, ErrNotLoaded
	}
	return casemodel.NewLegacyStep(t, e.StepCount())
}

// Validate returns the error map of s.
func (e *Editor) Validate(s casemodel.Step) validation.Errors {
	return validation.Step(s)
}

// ValidateAll returns every saved step that has errors, in step order.
func (e *Editor) ValidateAll() []validation.StepErrors {
	return validation.Steps(e.steps)
}

// Save persists s when it has no validation errors. A step without an ID is
// created; otherwise the stored step's content is replaced and it keeps its
// step index. Only a reorder commit moves a saved step.
func (e *Editor) Save(ctx context.Context, s casemodel.Step) (casemodel.Step, error) {
	if e.c.ID == "" {
		return casemodel.Step{}, ErrNotLoaded
	}
	if errs := validation.Step(s); errs.HasErrors() {
		return casemodel.Step{}, &ValidationError{Err: ErrInvalidStep, Errors: errs}
	}

	if s.ID == "" {
		saved, err := e.store.CreateStep(ctx, e.c.ID, s)
		if err != nil {
			return casemodel.Step{}, fmt.Errorf("create step: %w", err)
		}
		e.steps = append(e.steps, saved)
		e.sort()
		slog.Info("step created", "case_id", e.c.ID, "step_id", saved.ID, "type", saved.Type)
		return saved, nil
	}

	i := e.indexOf(s.ID)
	if i < 0 {
		return casemodel.Step{}, fmt.Errorf("step %s: %w", s.ID, casestore.ErrNotFound)
	}
	s.StepIndex = e.steps[i].StepIndex
	saved, err := e.store.UpdateStep(ctx, e.c.ID, s)
	if err != nil {
		return casemodel.Step{}, fmt.Errorf("update step: %w", err)
	}
	e.steps = casemodel.WithItemAt(e.steps, i, func(casemodel.Step) casemodel.Step { return saved })
	e.sort()
	return saved, nil
}

// Delete removes a saved step. Other steps keep their indexes.
func (e *Editor) Delete(ctx context.Context, stepID string) error {
	if e.c.ID == "" {
		return ErrNotLoaded
	}
	i := e.indexOf(stepID)
	if i < 0 {
		return fmt.Errorf("step %s: %w", stepID, casestore.ErrNotFound)
	}
	if err := e.store.DeleteStep(ctx, e.c.ID, stepID); err != nil {
		return fmt.Errorf("delete step: %w", err)
	}
	e.steps = casemodel.WithoutItemAt(e.steps, i)
	slog.Info("step deleted", "case_id", e.c.ID, "step_id", stepID)
	return nil
}

// BeginReorder opens a reorder draft over the saved steps.
func (e *Editor) BeginReorder() ordering.Session {
	return ordering.NewSession(e.reg, e.steps).Enter()
}

// CommitReorder commits the draft of s, persists the new indexes and adopts
// the committed order.
func (e *Editor) CommitReorder(ctx context.Context, s ordering.Session) error {
	if e.c.ID == "" {
		return ErrNotLoaded
	}
	if !sameIDs(s.Steps(), e.steps) {
		return ErrStaleReorder
	}
	committed, updates, err := s.Commit()
	if err != nil {
		return err
	}
	if err := e.store.BulkReorder(ctx, e.c.ID, updates); err != nil {
		return fmt.Errorf("save reorder: %w", err)
	}
	e.steps = committed.Steps()
	return nil
}

// Reorder arranges the steps by item keys and group orders (see
// ordering.Session.Arrange) and commits the result.
func (e *Editor) Reorder(ctx context.Context, keys []string, groups map[clinical.PhaseID][]string) error {
	s, err := e.BeginReorder().Arrange(keys, groups)
	if err != nil {
		return err
	}
	return e.CommitReorder(ctx, s)
}

// Progress returns category completion per phase.
func (e *Editor) Progress() []progress.PhaseProgress {
	return progress.All(e.reg, e.steps)
}

// Outline returns the steps grouped by phase in display order.
func (e *Editor) Outline() []ordering.PhaseView {
	return ordering.Natural(e.reg, e.steps)
}

func (e *Editor) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(e.steps, func(s casemodel.Step) bool { return s.ID == id })
}

func (e *Editor) sort() {
	e.steps = slices.Clone(e.steps)
	slices.SortStableFunc(e.steps, func(a, b casemodel.Step) int {
		return cmp.Compare(a.StepIndex, b.StepIndex)
	})
}

func sameIDs(a, b []casemodel.Step) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s.ID]++
	}
	for _, s := range b {
		seen[s.ID]--
	}
	for _, n := range seen {
		if n != 0 {
			return false
		}
	}
	return true
}
