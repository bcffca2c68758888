// Package casefile reads case bundles (a case and its steps) from YAML or
// JSON files.
package casefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/clinical"
)

// Format is a bundle encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Bundle is a case with its steps.
type Bundle struct {
	Case  casemodel.Case   `json:"case"`
	Steps []casemodel.Step `json:"steps"`
}

type bundleDoc struct {
	Case  casemodel.Case     `json:"case"`
	Steps []casemodel.Record `json:"steps"`
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported case file extension %q", filepath.Ext(path))
}

// Load reads a bundle file, placing clinical steps with reg.
func Load(path string, reg *clinical.Registry) (Bundle, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Bundle{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("reading case file: %w", err)
	}
	b, err := Parse(data, format, reg)
	if err != nil {
		return Bundle{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return b, nil
}

// Parse decodes a bundle. YAML documents go through the same JSON field
// names as the API.
func Parse(data []byte, format Format, reg *clinical.Registry) (Bundle, error) {
	if format == FormatYAML {
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Bundle{}, fmt.Errorf("parsing YAML: %w", err)
		}
		var err error
		if data, err = json.Marshal(raw); err != nil {
			return Bundle{}, fmt.Errorf("converting YAML: %w", err)
		}
	}

	var doc bundleDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Bundle{}, fmt.Errorf("parsing case file: %w", err)
	}

	b := Bundle{Case: doc.Case, Steps: make([]casemodel.Step, 0, len(doc.Steps))}
	for i, rec := range doc.Steps {
		s, err := casemodel.FromRecord(reg, rec)
		if err != nil {
			return Bundle{}, fmt.Errorf("steps[%d]: %w", i, err)
		}
		b.Steps = append(b.Steps, s)
	}
	return b, nil
}
