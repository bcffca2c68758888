package validation

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step in a path into step content: an object key or a list
// index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path addresses a field inside step content, such as options[2].label.
type Path []Segment

// Field starts a path at a top-level key.
func Field(name string) Path {
	return Path{{Key: name}}
}

// Key returns p extended with an object key.
func (p Path) Key(name string) Path {
	return append(p[:len(p):len(p)], Segment{Key: name})
}

// At returns p extended with a list index.
func (p Path) At(i int) Path {
	return append(p[:len(p):len(p)], Segment{Index: i, IsIndex: true})
}

// String renders p as error keys are written: keys joined by dots, indexes
// in brackets.
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		switch {
		case s.IsIndex:
			fmt.Fprintf(&b, "[%d]", s.Index)
		case i > 0:
			b.WriteByte('.')
			b.WriteString(s.Key)
		default:
			b.WriteString(s.Key)
		}
	}
	return b.String()
}

// ParsePath parses the String form of a path.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("empty path")
	}
	var p Path
	for _, part := range strings.Split(s, ".") {
		key, rest, indexed := strings.Cut(part, "[")
		if key == "" {
			return nil, fmt.Errorf("path %q: empty key", s)
		}
		p = append(p, Segment{Key: key})
		for indexed {
			num, after, ok := strings.Cut(rest, "]")
			if !ok {
				return nil, fmt.Errorf("path %q: unclosed index", s)
			}
			i, err := strconv.Atoi(num)
			if err != nil || i < 0 {
				return nil, fmt.Errorf("path %q: bad index %q", s, num)
			}
			p = append(p, Segment{Index: i, IsIndex: true})
			if after == "" {
				break
			}
			if !strings.HasPrefix(after, "[") {
				return nil, fmt.Errorf("path %q: unexpected %q", s, after)
			}
			rest = after[1:]
		}
	}
	return p, nil
}
