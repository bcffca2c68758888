// Package validation checks step and case content before it may be saved.
// Validators never fail; they return the field errors they found, keyed by
// the path of the offending field.
package validation

import "sort"

// Errors maps a field path (in Path.String form) to a message. An absent key
// means the field is valid.
type Errors map[string]string

// HasErrors reports whether any field is invalid. Saving is refused while it
// is true.
func (e Errors) HasErrors() bool {
	return len(e) > 0
}

// Keys returns the error keys in sorted order.
func (e Errors) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e Errors) add(p Path, msg string) {
	e[p.String()] = msg
}
