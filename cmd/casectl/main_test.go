package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const validFile = `
case:
  title: Plantar fasciitis
  categoryId: msk
  difficulty: Beginner
  duration: 10
steps:
  - stepIndex: 0
    type: clinical
    phase: diagnosis
    category: diagnoses
    content:
      diagnoses:
        - label: Plantar fasciopathy
`

const invalidFile = `
case:
  title: Plantar fasciitis
  duration: 45
steps:
  - stepIndex: 0
    type: mcq
    content: {}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeCase(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "case.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRegistry(t *testing.T) {
	out, err := execute(t, "registry")
	if err != nil {
		t.Fatalf("registry error = %v", err)
	}
	if !strings.Contains(out, "history_of_pain") || !strings.Contains(out, "treatment_plan") {
		t.Errorf("output missing categories:\n%s", out)
	}

	out, err = execute(t, "registry", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var phases []map[string]any
	if err := json.Unmarshal([]byte(out), &phases); err != nil || len(phases) != 5 {
		t.Errorf("registry --json = %d phases, %v", len(phases), err)
	}
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", writeCase(t, validFile))
	if err != nil {
		t.Fatalf("validate error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "OK") {
		t.Errorf("output = %s, want OK", out)
	}

	out, err = execute(t, "validate", writeCase(t, invalidFile))
	if !errors.Is(err, errInvalidCase) {
		t.Fatalf("validate error = %v, want errInvalidCase", err)
	}
	for _, want := range []string{"case: duration:", "step 0 (mcq): question:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidate_JSON(t *testing.T) {
	out, err := execute(t, "validate", "--json", writeCase(t, invalidFile))
	if !errors.Is(err, errInvalidCase) {
		t.Fatalf("validate error = %v", err)
	}
	dec := json.NewDecoder(strings.NewReader(out))
	var report validateReport
	if err := dec.Decode(&report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Valid || len(report.Steps) != 1 || report.Case["duration"] == "" {
		t.Errorf("report = %+v", report)
	}
}

func TestValidate_Args(t *testing.T) {
	if _, err := execute(t, "validate"); err == nil {
		t.Error("validate without a file should fail")
	}
	if _, err := execute(t, "validate", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("validate of a missing file should fail")
	}
}

func TestExport(t *testing.T) {
	output := filepath.Join(t.TempDir(), "review.xlsx")
	out, err := execute(t, "export", writeCase(t, validFile), "-o", output)
	if err != nil {
		t.Fatalf("export error = %v\n%s", err, out)
	}

	f, err := excelize.OpenFile(output)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Steps")
	if err != nil || len(rows) != 2 {
		t.Errorf("Steps rows = %d, %v", len(rows), err)
	}

	if _, err := execute(t, "export", writeCase(t, validFile)); err == nil {
		t.Error("export without -o should fail")
	}
}
