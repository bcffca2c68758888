package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/clinicase/internal/clinical"
)

type registryPhase struct {
	clinical.Phase
	Categories []clinical.Category `json:"categories"`
}

func newRegistryCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "List clinical phases and their categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registryFor(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if asJSON {
				phases := make([]registryPhase, 0, len(reg.Phases()))
				for _, p := range reg.Phases() {
					phases = append(phases, registryPhase{Phase: p, Categories: reg.CategoriesForPhase(p.ID)})
				}
				return printJSON(out, phases)
			}

			for _, p := range reg.Phases() {
				cats := reg.CategoriesForPhase(p.ID)
				fmt.Fprintf(out, "%d. %s (%s), %d categories\n", p.Order, p.Label, p.ID, len(cats))
				for _, c := range cats {
					fmt.Fprintf(out, "   %-28s %-12s %v\n", c.ID, c.InputMode, c.DataTypes)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
