package clinical

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const documentSchema = `{
  "type": "object",
  "required": ["phases"],
  "properties": {
    "phases": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "label", "short_label", "order", "categories"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "label": {"type": "string", "minLength": 1},
          "short_label": {"type": "string"},
          "icon": {"type": "string"},
          "description": {"type": "string"},
          "order": {"type": "integer", "minimum": 1, "maximum": 5},
          "categories": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["id", "label", "input_mode", "data_types"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "label": {"type": "string", "minLength": 1},
                "input_mode": {"enum": ["author_only", "user_input"]},
                "data_types": {
                  "type": "array",
                  "uniqueItems": true,
                  "items": {"enum": ["text", "numbers", "image", "links"]}
                },
                "template": {"type": ["object", "null"]}
              }
            }
          }
        }
      }
    }
  }
}`

var compiledSchema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	if err != nil {
		panic(fmt.Sprintf("clinical: compile registry schema: %v", err))
	}
	return s
}()

// checkDocument validates the raw document shape before it is decoded.
func checkDocument(data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse registry: %w", err)
	}
	res, err := compiledSchema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("check registry schema: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("registry does not match schema:\n  %s", strings.Join(msgs, "\n  "))
	}
	return nil
}

// validateDocument checks the invariants the schema cannot express and
// reports every problem found.
func validateDocument(doc document) error {
	var errs []string

	want := AllPhaseIDs()
	if len(doc.Phases) != len(want) {
		errs = append(errs, fmt.Sprintf("expected %d phases, got %d", len(want), len(doc.Phases)))
	}
	for i, pd := range doc.Phases {
		if i < len(want) && pd.ID != want[i] {
			errs = append(errs, fmt.Sprintf("phase %d: expected %q, got %q", i+1, want[i], pd.ID))
		}
		if pd.Order != i+1 {
			errs = append(errs, fmt.Sprintf("phase %q: order must be %d, got %d", pd.ID, i+1, pd.Order))
		}
	}

	seen := make(map[CategoryID]PhaseID)
	for _, pd := range doc.Phases {
		for _, cd := range pd.Categories {
			if prev, dup := seen[cd.ID]; dup {
				errs = append(errs, fmt.Sprintf("category %q registered under both %q and %q", cd.ID, prev, pd.ID))
				continue
			}
			seen[cd.ID] = pd.ID
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
