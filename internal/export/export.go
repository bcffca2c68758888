// Package export writes case review workbooks.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/clinicase/internal/casemodel"
	"github.com/p-n-ai/clinicase/internal/clinical"
	"github.com/p-n-ai/clinicase/internal/progress"
	"github.com/p-n-ai/clinicase/internal/validation"
)

// Sheet names, in workbook order.
const (
	SheetSteps    = "Steps"
	SheetProgress = "Progress"
	SheetErrors   = "Errors"
)

// Workbook writes an XLSX review of a case to w: one row per step, category
// completion per phase and every outstanding validation error.
func Workbook(w io.Writer, c casemodel.Case, steps []casemodel.Step, reg *clinical.Registry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetSteps); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetProgress, SheetErrors} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("add sheet %s: %w", name, err)
		}
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	errs := make([]validation.Errors, len(steps))
	for i, s := range steps {
		errs[i] = validation.Step(s)
	}

	rows := [][]any{{"Index", "Type", "Phase", "Category", "ID", "Errors"}}
	for i, s := range steps {
		phase, cat := s.Slot()
		rows = append(rows, []any{s.StepIndex, string(s.Type), string(phase), string(cat), s.ID, len(errs[i])})
	}
	if err := writeRows(f, SheetSteps, header, rows); err != nil {
		return err
	}

	rows = [][]any{{"Phase", "Filled", "Total", "Complete"}}
	for _, p := range progress.All(reg, steps) {
		rows = append(rows, []any{string(p.Phase), p.Filled, p.Total, strconv.FormatBool(p.Complete())})
	}
	if err := writeRows(f, SheetProgress, header, rows); err != nil {
		return err
	}

	rows = [][]any{{"Index", "Field", "Message", "Type", "ID"}}
	for i, s := range steps {
		for _, key := range errs[i].Keys() {
			rows = append(rows, []any{s.StepIndex, key, errs[i][key], string(s.Type), s.ID})
		}
	}
	if err := writeRows(f, SheetErrors, header, rows); err != nil {
		return err
	}

	if err := f.SetDocProps(&excelize.DocProperties{Title: c.Title, Subject: c.CategoryID}); err != nil {
		return fmt.Errorf("set properties: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header int, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return nil
}
