package casemodel

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIndexOutOfRange is returned when an item index does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNotAList is returned when an item helper targets a non-array field.
	ErrNotAList = errors.New("field is not a list")
	// ErrTooManyOptions is returned when adding past MaxMCQOptions.
	ErrTooManyOptions = fmt.Errorf("an MCQ allows at most %d options", MaxMCQOptions)
	// ErrTooFewOptions is returned when removing below MinMCQOptions.
	ErrTooFewOptions = fmt.Errorf("an MCQ needs at least %d options", MinMCQOptions)
)

// WithItemAt returns a copy of list with element i replaced by update(list[i]).
// The input is never modified; an out-of-range index returns list as is.
func WithItemAt[T any](list []T, i int, update func(T) T) []T {
	if i < 0 || i >= len(list) {
		return list
	}
	out := make([]T, len(list))
	copy(out, list)
	out[i] = update(out[i])
	return out
}

// Appended returns a new slice holding list followed by items.
func Appended[T any](list []T, items ...T) []T {
	out := make([]T, len(list), len(list)+len(items))
	copy(out, list)
	return append(out, items...)
}

// WithoutItemAt returns a new slice without element i.
func WithoutItemAt[T any](list []T, i int) []T {
	if i < 0 || i >= len(list) {
		return list
	}
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

// Moved returns a new slice with the element at from moved to position to.
func Moved[T any](list []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return nil, fmt.Errorf("move %d -> %d of %d: %w", from, to, len(list), ErrIndexOutOfRange)
	}
	item := list[from]
	out := WithoutItemAt(list, from)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out, nil
}

// UpdateContent sets one content field and returns the new step. Nested
// fields use dots ("pain.intensity"). The original step is left untouched.
func UpdateContent(s Step, field string, value any) (Step, error) {
	path := strings.Split(field, ".")
	return editFields(s, func(m map[string]any) error {
		return setPath(m, path, value)
	})
}

// AddItem appends item to the array field and returns the new step.
func AddItem(s Step, field string, item any) (Step, error) {
	return editList(s, field, func(list []any) ([]any, error) {
		return Appended(list, item), nil
	})
}

// UpdateItem sets key on element i of the array field.
func UpdateItem(s Step, field string, i int, key string, value any) (Step, error) {
	return editList(s, field, func(list []any) ([]any, error) {
		if i < 0 || i >= len(list) {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, ErrIndexOutOfRange)
		}
		var err error
		out := WithItemAt(list, i, func(el any) any {
			obj, ok := el.(map[string]any)
			if !ok {
				err = fmt.Errorf("%s[%d] is not an object", field, i)
				return el
			}
			obj[key] = value
			return obj
		})
		return out, err
	})
}

// RemoveItem drops element i of the array field.
func RemoveItem(s Step, field string, i int) (Step, error) {
	return editList(s, field, func(list []any) ([]any, error) {
		if i < 0 || i >= len(list) {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, ErrIndexOutOfRange)
		}
		return WithoutItemAt(list, i), nil
	})
}

func editList(s Step, field string, fn func([]any) ([]any, error)) (Step, error) {
	path := strings.Split(field, ".")
	return editFields(s, func(m map[string]any) error {
		cur, _ := Fields(m).Lookup(path...)
		var list []any
		switch v := cur.(type) {
		case nil:
		case []any:
			list = v
		default:
			return fmt.Errorf("%s: %w", field, ErrNotAList)
		}
		next, err := fn(list)
		if err != nil {
			return err
		}
		return setPath(m, path, next)
	})
}

// editFields applies fn to a detached map form of the content and decodes
// the result back into the step's content type. The map is built fresh from
// JSON, so nothing reachable from the original step is mutated.
func editFields(s Step, fn func(map[string]any) error) (Step, error) {
	m, err := contentMap(s.Content)
	if err != nil {
		return s, err
	}
	if err := fn(m); err != nil {
		return s, err
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return s, fmt.Errorf("marshal edited content: %w", err)
	}
	c, err := DecodeContent(s.Type, raw)
	if err != nil {
		return s, err
	}
	return s.WithContent(c), nil
}

// ContentMap returns a detached generic form of c.
func ContentMap(c Content) (map[string]any, error) {
	return contentMap(c)
}

func contentMap(c Content) (map[string]any, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	m := map[string]any{}
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return m, nil
}

func setPath(m map[string]any, path []string, value any) error {
	for i, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			if m[key] != nil {
				return fmt.Errorf("%s is not an object", strings.Join(path[:i+1], "."))
			}
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
	return nil
}

// WithOption returns c with option i replaced by fn(option).
func (c MCQContent) WithOption(i int, fn func(MCQOption) MCQOption) MCQContent {
	c.Options = WithItemAt(c.Options, i, fn)
	return c
}

// AddOption appends a blank option.
func (c MCQContent) AddOption() (MCQContent, error) {
	if len(c.Options) >= MaxMCQOptions {
		return c, ErrTooManyOptions
	}
	c.Options = Appended(c.Options, MCQOption{})
	return c, nil
}

// RemoveOption drops option i.
func (c MCQContent) RemoveOption(i int) (MCQContent, error) {
	if i < 0 || i >= len(c.Options) {
		return c, fmt.Errorf("option %d: %w", i, ErrIndexOutOfRange)
	}
	if len(c.Options) <= MinMCQOptions {
		return c, ErrTooFewOptions
	}
	c.Options = WithoutItemAt(c.Options, i)
	return c, nil
}

// MarkCorrect makes option i the single correct answer.
func (c MCQContent) MarkCorrect(i int) MCQContent {
	if i < 0 || i >= len(c.Options) {
		return c
	}
	out := make([]MCQOption, len(c.Options))
	for j, o := range c.Options {
		o.IsCorrect = j == i
		out[j] = o
	}
	c.Options = out
	return c
}

// WithQuestion returns c with question i replaced by fn(question).
func (c EssayContent) WithQuestion(i int, fn func(EssayQuestion) EssayQuestion) EssayContent {
	c.EssayQuestions = WithItemAt(c.EssayQuestions, i, fn)
	return c
}

// AddQuestion appends a blank essay question.
func (c EssayContent) AddQuestion() EssayContent {
	c.EssayQuestions = Appended(c.EssayQuestions, EssayQuestion{Keywords: []string{}, Synonyms: []string{}})
	return c
}

// RemoveQuestion drops question i.
func (c EssayContent) RemoveQuestion(i int) EssayContent {
	c.EssayQuestions = WithoutItemAt(c.EssayQuestions, i)
	return c
}

// WithQuestion returns c with question i replaced by fn(question).
func (c HistoryContent) WithQuestion(i int, fn func(HistoryQuestion) HistoryQuestion) HistoryContent {
	c.Questions = WithItemAt(c.Questions, i, fn)
	return c
}

// AddQuestion appends a blank history question.
func (c HistoryContent) AddQuestion() HistoryContent {
	c.Questions = Appended(c.Questions, HistoryQuestion{})
	return c
}

// RemoveQuestion drops question i.
func (c HistoryContent) RemoveQuestion(i int) HistoryContent {
	c.Questions = WithoutItemAt(c.Questions, i)
	return c
}

// WithInvestigation returns c with investigation i replaced by fn(inv).
func (c InvestigationContent) WithInvestigation(i int, fn func(Investigation) Investigation) InvestigationContent {
	c.Investigations = WithItemAt(c.Investigations, i, fn)
	return c
}

// AddInvestigation appends inv.
func (c InvestigationContent) AddInvestigation(inv Investigation) InvestigationContent {
	c.Investigations = Appended(c.Investigations, inv)
	return c
}

// RemoveInvestigation drops investigation i.
func (c InvestigationContent) RemoveInvestigation(i int) InvestigationContent {
	c.Investigations = WithoutItemAt(c.Investigations, i)
	return c
}

// WithXray returns c with X-ray i replaced by fn(x).
func (c InvestigationContent) WithXray(i int, fn func(Xray) Xray) InvestigationContent {
	c.Xrays = WithItemAt(c.Xrays, i, fn)
	return c
}

// AddXray appends x.
func (c InvestigationContent) AddXray(x Xray) InvestigationContent {
	c.Xrays = Appended(c.Xrays, x)
	return c
}

// RemoveXray drops X-ray i.
func (c InvestigationContent) RemoveXray(i int) InvestigationContent {
	c.Xrays = WithoutItemAt(c.Xrays, i)
	return c
}
