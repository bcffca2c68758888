package validation

import (
	"fmt"

	"github.com/p-n-ai/clinicase/internal/casemodel"
)

// Touched records which content fields the author has interacted with. It
// mirrors the content shape as a tree so that a list element and a field of
// the same name never collide.
type Touched struct {
	root node
}

type node struct {
	marked bool
	keys   map[string]*node
	items  map[int]*node
}

func (n *node) child(s Segment, create bool) *node {
	if s.IsIndex {
		if c, ok := n.items[s.Index]; ok || !create {
			return c
		}
		if n.items == nil {
			n.items = map[int]*node{}
		}
		c := &node{}
		n.items[s.Index] = c
		return c
	}
	if c, ok := n.keys[s.Key]; ok || !create {
		return c
	}
	if n.keys == nil {
		n.keys = map[string]*node{}
	}
	c := &node{}
	n.keys[s.Key] = c
	return c
}

// Mark records p as touched.
func (t *Touched) Mark(p Path) {
	n := &t.root
	for _, s := range p {
		n = n.child(s, true)
	}
	n.marked = true
}

// IsTouched reports whether p, or any field containing it, was marked.
func (t *Touched) IsTouched(p Path) bool {
	n := &t.root
	if n.marked {
		return true
	}
	for _, s := range p {
		if n = n.child(s, false); n == nil {
			return false
		}
		if n.marked {
			return true
		}
	}
	return false
}

// MarkAll marks every field present in the step content, walking nested
// objects and lists, plus every field the step currently has an error on
// (such as correctAnswer, which has no content field of its own). Editors
// call it when a save is attempted so that all errors show.
func (t *Touched) MarkAll(s casemodel.Step) error {
	m, err := casemodel.ContentMap(s.Content)
	if err != nil {
		return fmt.Errorf("mark all: %w", err)
	}
	for k, v := range m {
		t.walk(Field(k), v)
	}
	for k := range Step(s) {
		if p, err := ParsePath(k); err == nil {
			t.Mark(p)
		}
	}
	return nil
}

func (t *Touched) walk(p Path, v any) {
	t.Mark(p)
	switch v := v.(type) {
	case map[string]any:
		for k, child := range v {
			t.walk(p.Key(k), child)
		}
	case []any:
		for i, child := range v {
			t.walk(p.At(i), child)
		}
	}
}

// Reset forgets every mark.
func (t *Touched) Reset() {
	t.root = node{}
}

// Visible returns the subset of errs whose field has been touched. Keys that
// do not parse as paths are always shown.
func (t *Touched) Visible(errs Errors) Errors {
	out := Errors{}
	for k, msg := range errs {
		p, err := ParsePath(k)
		if err != nil || t.IsTouched(p) {
			out[k] = msg
		}
	}
	return out
}
