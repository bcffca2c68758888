package ordering

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/clinical"
)

var (
	// ErrNotReordering is returned by draft transitions outside a session.
	ErrNotReordering = errors.New("not in reorder mode")
	// ErrOrderInconsistent means the draft no longer holds each committed
	// step exactly once. Committing it would lose or duplicate steps.
	ErrOrderInconsistent = errors.New("reorder draft is inconsistent with the case steps")
	// ErrBadArrangement is returned when an arrangement is not a permutation
	// of the current draft.
	ErrBadArrangement = errors.New("arrangement does not match the draft")
)

// ItemKind distinguishes the two kinds of reorderable item.
type ItemKind int

const (
	KindGroup ItemKind = iota
	KindStandalone
)

func (k ItemKind) String() string {
	if k == KindStandalone {
		return "standalone"
	}
	return "group"
}

// Item is one reorderable entry: a phase group with its member steps, or a
// single standalone MCQ or essay step.
type Item struct {
	Kind      ItemKind
	Phase     clinical.PhaseID
	Steps     []casemodel.Step
	Collapsed bool
}

// Key identifies the item within a draft: the phase ID of a group or the
// step key of a standalone step.
func (it Item) Key() string {
	if it.Kind == KindGroup {
		return string(it.Phase)
	}
	return StepKey(it.Steps[0])
}

// StartIndex is the item's position before reordering. Empty groups report
// math.MaxInt.
func (it Item) StartIndex() int {
	return startOf(it.Steps)
}

// StepKey identifies a step within a case: its ID, or its index for a step
// that has not been persisted yet.
func StepKey(s casemodel.Step) string {
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("#%d", s.StepIndex)
}

// Draft is the ephemeral order edited in reorder mode. History steps form a
// pinned prefix that cannot be moved; everything else is in Items.
type Draft struct {
	Pinned []casemodel.Step
	Items  []Item
}

// Flatten lays the draft out as one sequence: pinned steps, then each item's
// steps in item order. Empty groups contribute nothing.
func (d Draft) Flatten() []casemodel.Step {
	out := slices.Clone(d.Pinned)
	for _, it := range d.Items {
		out = append(out, it.Steps...)
	}
	return out
}

// IndexUpdate is one entry of a bulk reorder request.
type IndexUpdate struct {
	ID        string `json:"id"`
	StepIndex int    `json:"stepIndex"`
}

// Session holds the committed steps of a case and, while reordering, the
// draft being edited. Transitions return a new Session and leave the
// receiver unchanged.
type Session struct {
	reg       *clinical.Registry
	committed []casemodel.Step
	draft     *Draft
}

// NewSession starts outside reorder mode over a copy of steps.
func NewSession(reg *clinical.Registry, steps []casemodel.Step) Session {
	return Session{reg: reg, committed: slices.Clone(steps)}
}

// Steps returns the committed steps.
func (s Session) Steps() []casemodel.Step {
	return slices.Clone(s.committed)
}

// Active reports whether a reorder draft is open.
func (s Session) Active() bool {
	return s.draft != nil
}

// Draft returns the open draft.
func (s Session) Draft() (Draft, bool) {
	if s.draft == nil {
		return Draft{}, false
	}
	return *s.draft, true
}

// Enter snapshots the committed steps into a fresh draft.
func (s Session) Enter() Session {
	d := BuildDraft(s.reg, s.committed)
	s.draft = &d
	return s
}

// BuildDraft arranges steps for reordering: history steps pinned first, then
// every other phase group and standalone step merged by start index. Empty
// phase groups sort last in registry order.
func BuildDraft(reg *clinical.Registry, steps []casemodel.Step) Draft {
	members := membersByPhase(steps)

	var items []Item
	for _, p := range reg.Phases() {
		if p.ID == clinical.PhaseHistoryPresentation {
			continue
		}
		items = append(items, Item{Kind: KindGroup, Phase: p.ID, Steps: members[p.ID]})
	}
	for _, st := range standalone(steps) {
		p, _ := st.Slot()
		items = append(items, Item{Kind: KindStandalone, Phase: p, Steps: []casemodel.Step{st}})
	}
	slices.SortStableFunc(items, func(a, b Item) int {
		return cmp.Compare(a.StartIndex(), b.StartIndex())
	})

	return Draft{
		Pinned: slices.Clone(members[clinical.PhaseHistoryPresentation]),
		Items:  items,
	}
}

// Resume reopens reorder mode with a draft kept from an earlier request.
// The draft is checked against the committed steps on Commit.
func (s Session) Resume(d Draft) Session {
	s.draft = &d
	return s
}

// MoveItem moves the item at from to position to.
func (s Session) MoveItem(from, to int) (Session, error) {
	return s.edit(func(d Draft) (Draft, error) {
		items, err := casemodel.Moved(d.Items, from, to)
		if err != nil {
			return d, fmt.Errorf("move item: %w", err)
		}
		d.Items = items
		return d, nil
	})
}

// MoveWithinGroup reorders the steps of the phase group at item. Steps never
// leave their group.
func (s Session) MoveWithinGroup(item, from, to int) (Session, error) {
	return s.edit(func(d Draft) (Draft, error) {
		if item < 0 || item >= len(d.Items) {
			return d, fmt.Errorf("item %d: %w", item, casemodel.ErrIndexOutOfRange)
		}
		if d.Items[item].Kind != KindGroup {
			return d, fmt.Errorf("item %d is a standalone step", item)
		}
		steps, err := casemodel.Moved(d.Items[item].Steps, from, to)
		if err != nil {
			return d, fmt.Errorf("move within %s: %w", d.Items[item].Phase, err)
		}
		d.Items = casemodel.WithItemAt(d.Items, item, func(it Item) Item {
			it.Steps = steps
			return it
		})
		return d, nil
	})
}

// ToggleCollapsed flips the display state of a group. The group's steps are
// not touched.
func (s Session) ToggleCollapsed(item int) (Session, error) {
	return s.edit(func(d Draft) (Draft, error) {
		if item < 0 || item >= len(d.Items) {
			return d, fmt.Errorf("item %d: %w", item, casemodel.ErrIndexOutOfRange)
		}
		d.Items = casemodel.WithItemAt(d.Items, item, func(it Item) Item {
			it.Collapsed = !it.Collapsed
			return it
		})
		return d, nil
	})
}

// Arrange applies a whole arrangement at once, as sent by a client that did
// its dragging locally. keys must list every item key exactly once. groups
// optionally gives the new member order of a phase group by step key; groups
// not mentioned keep their order.
func (s Session) Arrange(keys []string, groups map[clinical.PhaseID][]string) (Session, error) {
	return s.edit(func(d Draft) (Draft, error) {
		byKey := make(map[string]Item, len(d.Items))
		for _, it := range d.Items {
			byKey[it.Key()] = it
		}
		if len(keys) != len(byKey) {
			return d, fmt.Errorf("%w: %d items given, draft has %d", ErrBadArrangement, len(keys), len(byKey))
		}

		items := make([]Item, 0, len(keys))
		for _, k := range keys {
			it, ok := byKey[k]
			if !ok {
				return d, fmt.Errorf("%w: unknown or repeated item %q", ErrBadArrangement, k)
			}
			delete(byKey, k)
			if order, ok := groups[it.Phase]; ok && it.Kind == KindGroup {
				steps, err := permute(it.Steps, order)
				if err != nil {
					return d, fmt.Errorf("group %s: %w", it.Phase, err)
				}
				it.Steps = steps
			}
			items = append(items, it)
		}
		d.Items = items
		return d, nil
	})
}

func permute(steps []casemodel.Step, order []string) ([]casemodel.Step, error) {
	if len(order) != len(steps) {
		return nil, fmt.Errorf("%w: %d steps given, group has %d", ErrBadArrangement, len(order), len(steps))
	}
	byKey := make(map[string]casemodel.Step, len(steps))
	for _, st := range steps {
		byKey[StepKey(st)] = st
	}
	out := make([]casemodel.Step, 0, len(order))
	for _, k := range order {
		st, ok := byKey[k]
		if !ok {
			return nil, fmt.Errorf("%w: step %q is not in this group", ErrBadArrangement, k)
		}
		delete(byKey, k)
		out = append(out, st)
	}
	return out, nil
}

// Commit flattens the draft, renumbers every step from 0 and makes the
// result the committed order. It fails with ErrOrderInconsistent rather than
// drop or duplicate a step.
func (s Session) Commit() (Session, []IndexUpdate, error) {
	if s.draft == nil {
		return s, nil, ErrNotReordering
	}
	flat := s.draft.Flatten()
	if err := sameSteps(s.committed, flat); err != nil {
		return s, nil, err
	}

	steps := make([]casemodel.Step, len(flat))
	updates := make([]IndexUpdate, len(flat))
	for i, st := range flat {
		st.StepIndex = i
		steps[i] = st
		updates[i] = IndexUpdate{ID: st.ID, StepIndex: i}
	}
	return Session{reg: s.reg, committed: steps}, updates, nil
}

// Cancel discards the draft. The committed steps are untouched.
func (s Session) Cancel() Session {
	s.draft = nil
	return s
}

func (s Session) edit(fn func(Draft) (Draft, error)) (Session, error) {
	if s.draft == nil {
		return s, ErrNotReordering
	}
	d, err := fn(*s.draft)
	if err != nil {
		return s, err
	}
	s.draft = &d
	return s, nil
}

// sameSteps checks that flat holds each committed step exactly once.
func sameSteps(committed, flat []casemodel.Step) error {
	want := make(map[string]int, len(committed))
	for _, st := range committed {
		want[StepKey(st)]++
	}
	for _, st := range flat {
		k := StepKey(st)
		if want[k] == 0 {
			return fmt.Errorf("%w: step %q is unknown or placed twice", ErrOrderInconsistent, k)
		}
		want[k]--
	}
	for k, n := range want {
		if n > 0 {
			return fmt.Errorf("%w: step %q was dropped", ErrOrderInconsistent, k)
		}
	}
	return nil
}
