package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nebula-admin/internal/app"
	"nebula-admin/internal/module"
)

func newModulesCmd() *cobra.Command {
	modulesCmd := &cobra.Command{
		Use:   "modules",
		Short: "Inspect registered admin modules",
	}
	modulesCmd.AddCommand(newModulesListCmd())
	return modulesCmd
}

// newModulesListCmd enumerates the built-in screens plus any YAML definitions
// from $MODULES_DIR. Definitions are configuration, so no database is opened.
func newModulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List module definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := module.NewRegistry(module.Deps{})
			if err := app.RegisterBuiltins(registry); err != nil {
				return err
			}
			if dir := os.Getenv("MODULES_DIR"); dir != "" {
				if err := registry.LoadYAMLDir(dir); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, def := range registry.Definitions() {
				kind := "table:" + def.Table
				if !def.Tabular() {
					kind = "custom"
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", def.Name, def.Title, kind)
			}
			return nil
		},
	}
}
