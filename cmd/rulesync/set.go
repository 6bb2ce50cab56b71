// Package main provides the entry point for the rulesync CLI.
package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/output"
)

// newSetCmd creates the set command.
func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Update a manifest configuration value",
		Long: `Update a whitelisted manifest field. Array fields take
comma-separated values.

Supported keys: ` + strings.Join(manifest.SettableKeys(), ", ") + `

Examples:
  rulesync set agents_md.paths "~/Code/AGENTS.md,~/Work/*/AGENTS.md"
  rulesync set agents_md.header "# Team Conventions"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, args[0], args[1])
		},
	}
}

// runSet executes the set command.
func runSet(cmd *cobra.Command, key, value string) error {
	printer := newPrinterFor(cmd)

	layout, _, err := resolveStore()
	if err != nil {
		printer.Error(err)
		return err
	}
	man, err := manifest.Load(layout.ManifestPath())
	if err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}

	if err := man.Set(key, value); err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}
	if boolFlag(cmd, "dry-run") {
		printer.Verbosef("[dry-run] would set %s = %s", key, value)
		return nil
	}
	if err := man.Save(layout.ManifestPath()); err != nil {
		err = output.NewSystemErrorWithCause("saving manifest", err)
		printer.Error(err)
		return err
	}

	current, _ := man.Get(key)
	if printer.IsJSON() {
		return printer.Success(map[string]any{"key": key, "value": current})
	}
	printer.Print("Set %s = %s\n", key, current)
	return nil
}
