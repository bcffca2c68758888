// casectl works with case files offline: it lists the category registry,
// validates case bundles and exports review workbooks.
//
// Usage:
//
//	casectl registry [--json]
//	casectl validate FILE [--json]
//	casectl export FILE -o OUT.xlsx
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "casectl",
		Short: "Validate and export clinical case files",
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.PersistentFlags().String("registry", "", "category registry YAML (default: bundled)")

	root.AddCommand(newRegistryCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newExportCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
