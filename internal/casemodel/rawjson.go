package casemodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrMalformedContent reports hand-edited content that could not be applied.
// It is advisory: the step returned alongside it is the previous, valid one.
var ErrMalformedContent = errors.New("malformed content JSON")

// ErrNotFreeform is returned when raw editing targets a structured step.
var ErrNotFreeform = errors.New("raw JSON editing is limited to diagnosis and treatment steps")

var objectSchema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(`{"type": "object"}`))
	if err != nil {
		panic(fmt.Sprintf("casemodel: compile object schema: %v", err))
	}
	return s
}()

// ApplyJSON replaces the content of a legacy diagnosis or treatment step with
// hand-written JSON. Invalid input leaves the step as it was and returns
// ErrMalformedContent, which callers may surface or ignore.
func ApplyJSON(s Step, raw string) (Step, error) {
	if s.Type != TypeDiagnosis && s.Type != TypeTreatment {
		return s, ErrNotFreeform
	}

	res, err := objectSchema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return s, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.Description())
		}
		return s, fmt.Errorf("%w: %s", ErrMalformedContent, strings.Join(msgs, "; "))
	}

	var fields Fields
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return s, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	return s.WithContent(FreeformContent{Fields: fields}), nil
}
