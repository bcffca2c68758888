package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/clinicase/internal/casefile"
	"github.com/p-n-ai/clinicase/internal/progress"
	"github.com/p-n-ai/clinicase/internal/validation"
)

var errInvalidCase = errors.New("case file has validation errors")

type stepReport struct {
	StepIndex int               `json:"stepIndex"`
	Type      string            `json:"type"`
	Errors    validation.Errors `json:"errors"`
}

type validateReport struct {
	Case      validation.Errors        `json:"case"`
	Steps     []stepReport             `json:"steps"`
	Progress  []progress.PhaseProgress `json:"progress"`
	StepCount int                      `json:"stepCount"`
	Valid     bool                     `json:"valid"`
}

func newValidateCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a case file (YAML or JSON)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			b, err := casefile.Load(args[0], reg)
			if err != nil {
				return err
			}

			report := validateReport{
				Case:      validation.Case(b.Case),
				Steps:     []stepReport{},
				Progress:  progress.All(reg, b.Steps),
				StepCount: len(b.Steps),
			}
			for _, s := range b.Steps {
				if errs := validation.Step(s); errs.HasErrors() {
					report.Steps = append(report.Steps, stepReport{StepIndex: s.StepIndex, Type: string(s.Type), Errors: errs})
				}
			}
			report.Valid = !report.Case.HasErrors() && len(report.Steps) == 0

			out := cmd.OutOrStdout()
			if asJSON {
				if err := printJSON(out, report); err != nil {
					return err
				}
			} else {
				printReport(cmd, report)
			}
			if !report.Valid {
				return errInvalidCase
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printReport(cmd *cobra.Command, r validateReport) {
	out := cmd.OutOrStdout()
	for _, key := range r.Case.Keys() {
		fmt.Fprintf(out, "case: %s: %s\n", key, r.Case[key])
	}
	for _, s := range r.Steps {
		for _, key := range s.Errors.Keys() {
			fmt.Fprintf(out, "step %d (%s): %s: %s\n", s.StepIndex, s.Type, key, s.Errors[key])
		}
	}
	fmt.Fprintf(out, "%d steps\n", r.StepCount)
	for _, p := range r.Progress {
		fmt.Fprintf(out, "  %-22s %d/%d\n", p.Phase, p.Filled, p.Total)
	}
	if r.Valid {
		fmt.Fprintln(out, "OK")
	}
}
