package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/clinicase/internal/clinical"
)

// registryFor loads the registry named by --registry, or the bundled one.
func registryFor(cmd *cobra.Command) (*clinical.Registry, error) {
	path, _ := cmd.Flags().GetString("registry")
	if path == "" {
		return clinical.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return clinical.Load(data)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
