// Package casestore persists cases and their steps.
package casestore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/clinical"
	"github.com/p-n-ai/clinicase/internal/ordering"
)

var (
	// ErrNotFound is returned for unknown cases and steps.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateCategory is returned when a clinical category of a case is
	// already occupied by another step.
	ErrDuplicateCategory = errors.New("category already has a step in this case")
)

// Store is the persistence collaborator of the authoring core. Steps are
// returned ordered by step index. Deleting a step does not renumber the
// others; only BulkReorder rewrites indexes.
type Store interface {
	CreateCase(ctx context.Context, c casemodel.Case) (casemodel.Case, error)
	GetCase(ctx context.Context, id string) (casemodel.Case, error)
	CreateStep(ctx context.Context, caseID string, s casemodel.Step) (casemodel.Step, error)
	UpdateStep(ctx context.Context, caseID string, s casemodel.Step) (casemodel.Step, error)
	DeleteStep(ctx context.Context, caseID, stepID string) error
	BulkReorder(ctx context.Context, caseID string, updates []ordering.IndexUpdate) error
	ListSteps(ctx context.Context, caseID string) ([]casemodel.Step, error)
}

// MemoryStore is an in-memory Store. Steps are kept in their serialized form
// so callers never share content with the store.
type MemoryStore struct {
	reg   *clinical.Registry
	mu    sync.RWMutex
	cases map[string]casemodel.Case
	steps map[string]map[string]casemodel.Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(reg *clinical.Registry) *MemoryStore {
	return &MemoryStore{
		reg:   reg,
		cases: make(map[string]casemodel.Case),
		steps: make(map[string]map[string]casemodel.Record),
	}
}

func (s *MemoryStore) CreateCase(_ context.Context, c casemodel.Case) (casemodel.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	s.cases[c.ID] = c
	s.steps[c.ID] = make(map[string]casemodel.Record)
	return c, nil
}

func (s *MemoryStore) GetCase(_ context.Context, id string) (casemodel.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cases[id]
	if !ok {
		return casemodel.Case{}, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	return c, nil
}

func (s *MemoryStore) CreateStep(_ context.Context, caseID string, st casemodel.Step) (casemodel.Step, error) {
	rec, err := st.Record()
	if err != nil {
		return casemodel.Step{}, err
	}
	rec.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	steps, ok := s.steps[caseID]
	if !ok {
		return casemodel.Step{}, fmt.Errorf("case %s: %w", caseID, ErrNotFound)
	}
	if err := checkCategory(steps, rec); err != nil {
		return casemodel.Step{}, err
	}
	steps[rec.ID] = rec
	return casemodel.FromRecord(s.reg, rec)
}

func (s *MemoryStore) UpdateStep(_ context.Context, caseID string, st casemodel.Step) (casemodel.Step, error) {
	rec, err := st.Record()
	if err != nil {
		return casemodel.Step{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	steps := s.steps[caseID]
	if _, ok := steps[rec.ID]; !ok {
		return casemodel.Step{}, fmt.Errorf("step %s: %w", rec.ID, ErrNotFound)
	}
	if err := checkCategory(steps, rec); err != nil {
		return casemodel.Step{}, err
	}
	steps[rec.ID] = rec
	return casemodel.FromRecord(s.reg, rec)
}

func (s *MemoryStore) DeleteStep(_ context.Context, caseID, stepID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps := s.steps[caseID]
	if _, ok := steps[stepID]; !ok {
		return fmt.Errorf("step %s: %w", stepID, ErrNotFound)
	}
	delete(steps, stepID)
	return nil
}

// BulkReorder applies every update or none.
func (s *MemoryStore) BulkReorder(_ context.Context, caseID string, updates []ordering.IndexUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps, ok := s.steps[caseID]
	if !ok {
		return fmt.Errorf("case %s: %w", caseID, ErrNotFound)
	}
	for _, u := range updates {
		if _, ok := steps[u.ID]; !ok {
			return fmt.Errorf("step %s: %w", u.ID, ErrNotFound)
		}
		if u.StepIndex < 0 {
			return fmt.Errorf("step %s: negative stepIndex %d", u.ID, u.StepIndex)
		}
	}
	for _, u := range updates {
		rec := steps[u.ID]
		rec.StepIndex = u.StepIndex
		steps[u.ID] = rec
	}
	return nil
}

func (s *MemoryStore) ListSteps(_ context.Context, caseID string) ([]casemodel.Step, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	steps, ok := s.steps[caseID]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", caseID, ErrNotFound)
	}
	out := make([]casemodel.Step, 0, len(steps))
	for _, rec := range steps {
		st, err := casemodel.FromRecord(s.reg, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	sortSteps(out)
	return out, nil
}

func checkCategory(steps map[string]casemodel.Record, rec casemodel.Record) error {
	if rec.Type != casemodel.TypeClinical {
		return nil
	}
	for id, other := range steps {
		if id != rec.ID && other.Type == casemodel.TypeClinical &&
			other.Phase == rec.Phase && other.Category == rec.Category {
			return fmt.Errorf("%s/%s: %w", rec.Phase, rec.Category, ErrDuplicateCategory)
		}
	}
	return nil
}

func sortSteps(steps []casemodel.Step) {
	slices.SortFunc(steps, func(a, b casemodel.Step) int {
		if c := cmp.Compare(a.StepIndex, b.StepIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
