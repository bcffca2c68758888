package casemodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberLiteral = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][+-]?\d+)?$`)

// Num is a numeric form field kept as entered. Authoring UIs send numbers,
// numeric strings, blank strings or nothing at all, and the validators need
// to tell those apart (a literal 0 is provided, a blank string is not).
type Num struct {
	raw string
	set bool
}

// IntNum returns a Num holding n.
func IntNum(n int) Num {
	return Num{raw: strconv.Itoa(n), set: true}
}

// TextNum returns a Num holding s exactly as typed.
func TextNum(s string) Num {
	return Num{raw: s, set: true}
}

// IsSet reports whether a value (possibly blank) was supplied.
func (n Num) IsSet() bool { return n.set }

// Blank reports whether the field is absent or whitespace only.
func (n Num) Blank() bool {
	return !n.set || strings.TrimSpace(n.raw) == ""
}

// String returns the value as entered.
func (n Num) String() string { return n.raw }

// Int parses the value as a whole number. Decimal forms such as "4.0" are
// accepted; "4.5" and "4abc" are not.
func (n Num) Int() (int, bool) {
	if n.Blank() {
		return 0, false
	}
	s := strings.TrimSpace(n.raw)
	if i, err := strconv.Atoi(s); err == nil {
		return i, true
	}
	if !numberLiteral.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// IntOr returns the parsed value or fallback.
func (n Num) IntOr(fallback int) int {
	if i, ok := n.Int(); ok {
		return i
	}
	return fallback
}

func (n Num) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	if numberLiteral.MatchString(n.raw) {
		return []byte(n.raw), nil
	}
	return json.Marshal(n.raw)
}

func (n *Num) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = Num{}
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = TextNum(s)
	case numberLiteral.Match(b):
		*n = Num{raw: string(b), set: true}
	default:
		return fmt.Errorf("numeric field: unexpected value %s", b)
	}
	return nil
}
