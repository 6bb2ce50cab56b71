// Package main provides the entry point for the rulesync CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gorewood/rulesync/internal/engine"
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/output"
)

// newRemoveRuleCmd creates the remove-rule command.
func newRemoveRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-rule <id>",
		Short: "Remove a canonical rule and sync the removal",
		Long: `Remove a canonical rule file and its manifest entry, then run a sync
pass so stale generated output disappears from every target.

The rule file is snapshotted into a backup set before removal.

Examples:
  rulesync remove-rule code-style
  rulesync remove-rule code-style --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemoveRule(cmd, args[0])
		},
	}
}

// runRemoveRule executes the remove-rule command.
func runRemoveRule(cmd *cobra.Command, id string) error {
	printer := newPrinterFor(cmd)

	layout, home, err := resolveStore()
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

	rule := man.FindRule(id)
	if rule == nil {
		err := output.NewUserError(fmt.Sprintf("rule %q not found in manifest", id))
		printer.Error(err)
		return err
	}

	ops, err := engine.Begin(layout, "remove-rule", engineOptions(cmd, printer))
	if err != nil {
		err = output.NewSystemErrorWithCause("starting remove-rule", err)
		printer.Error(err)
		return err
	}

	ruleFile := rule.File
	rulePath := layout.RulePath(ruleFile)
	if pathExists(rulePath) {
		if err := ops.RemoveFile(rulePath); err != nil {
			err = output.NewSystemErrorWithCause("removing rule file", err)
			printer.Error(err)
			return err
		}
	}

	man.RemoveRule(id)

	if ops.DryRun {
		printer.Verbosef("[dry-run] would remove %q from manifest and sync", id)
		return nil
	}
	if err := man.Save(layout.ManifestPath()); err != nil {
		err = output.NewSystemErrorWithCause("saving manifest", err)
		printer.Error(err)
		return err
	}

	res, err := syncPass(printer, layout, home, man, ops, "")
	if err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.WriteJSON(map[string]any{"removed": id, "sync": res})
	}
	printer.Print("Removed rules/%s\n", ruleFile)
	printSyncResult(printer, res)
	return nil
}
