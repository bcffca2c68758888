package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/clinicase/internal/casefile"
	"github.com/p-n-ai/clinicase/internal/export"
)

func newExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write an XLSX review workbook for a case file",
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

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			if err := export.Workbook(f, b.Case, b.Steps, reg); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d steps)\n", output, len(b.Steps))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output workbook path (required)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
