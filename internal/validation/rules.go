package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/p-n-ai/clinicase/internal/casemodel"
)

var (
	imageURLPattern   = regexp.MustCompile(`^https?://.+`)
	imageDataPattern  = regexp.MustCompile(`^data:image/.+`)
	youTubePattern    = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.be)/.+`)
	patientNameFormat = regexp.MustCompile(`^[A-Za-z\p{Zs}\t\n\v\f\r\x{2028}\x{2029}\x{FEFF}\x{0600}-\x{06FF}]+$`)
)

// IsValidImageURL reports whether s is an http(s) URL or an inline
// data:image URI.
func IsValidImageURL(s string) bool {
	return imageURLPattern.MatchString(s) || imageDataPattern.MatchString(s)
}

// IsYouTubeURL reports whether s points at youtube.com or youtu.be.
func IsYouTubeURL(s string) bool {
	return youTubePattern.MatchString(s)
}

// IsValidPatientName reports whether s holds only Latin or Arabic letters and
// whitespace. Whitespace includes Unicode spaces such as U+00A0, which
// pasted names often carry.
func IsValidPatientName(s string) bool {
	return patientNameFormat.MatchString(s)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func requireText(errs Errors, p Path, value, msg string) {
	if blank(value) {
		errs.add(p, msg)
	}
}

// requireRange checks a numeric form field that must be present.
func requireRange(errs Errors, p Path, n casemodel.Num, lo, hi int, label string) {
	if n.Blank() {
		errs.add(p, label+" is required")
		return
	}
	checkRange(errs, p, n, lo, hi, label)
}

func checkRange(errs Errors, p Path, n casemodel.Num, lo, hi int, label string) {
	v, ok := n.Int()
	if !ok || v < lo || v > hi {
		errs.add(p, fmt.Sprintf("%s must be a whole number between %d and %d", label, lo, hi))
	}
}

// textOf returns v as a trimmed string when it is one.
func textOf(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// present reports whether a free-form field holds a value. Zero numbers and
// false count as values; nil, missing and blank strings do not.
func present(v any, found bool) bool {
	if !found || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return !blank(s)
	}
	return true
}
