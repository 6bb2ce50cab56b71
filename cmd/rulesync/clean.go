// Package main provides the entry point for the rulesync CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gorewood/rulesync/internal/engine"
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/output"
	"github.com/gorewood/rulesync/internal/wizard"
)

// newCleanCmd creates the clean command.
func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove generated files and restore originals",
		Long: `Reverse synchronization: scan every active target for files carrying
the provenance header and for managed skill entries, remove them, and
restore whatever the latest backup set holds for those paths.

The canonical store under ~/.rulesync is never touched.

Examples:
  rulesync clean            # Confirm, then remove and restore
  rulesync clean --dry-run  # Preview what would be removed
  rulesync clean --yes      # Skip the confirmation prompt`,
		RunE: runClean,
	}
}

// runClean executes the clean command.
func runClean(cmd *cobra.Command, _ []string) error {
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

	// Plan before opening a backup set so the restore source stays the
	// previous run, not the one this command creates.
	plan, err := engine.PlanClean(home, layout, man)
	if err != nil {
		err = output.NewSystemErrorWithCause("planning clean", err)
		printer.Error(err)
		return err
	}

	if plan.Empty() {
		if printer.IsJSON() {
			return printer.WriteJSON(&engine.CleanResult{})
		}
		printer.Println("Nothing to clean -- no generated files or managed skill entries found.")
		return nil
	}

	if !printer.IsJSON() {
		printCleanPlan(printer, plan)
	}

	autoAccept := boolFlag(cmd, "yes") || printer.IsJSON() || !printer.IsTTY()
	ok, err := wizard.Confirm("Proceed?", true, autoAccept)
	if err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}
	if !ok {
		printer.Println("Aborted.")
		return nil
	}

	ops, err := engine.Begin(layout, "clean", engineOptions(cmd, printer))
	if err != nil {
		err = output.NewSystemErrorWithCause("starting clean", err)
		printer.Error(err)
		return err
	}
	res, err := engine.ExecuteClean(plan, ops)
	if err != nil {
		err = output.NewSystemErrorWithCause("clean failed", err)
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.WriteJSON(res)
	}
	printer.Section("Summary")
	suffix := ""
	if res.DryRun {
		suffix = " (dry-run)"
	}
	printer.Print("  %d removed, %d restored from backup.%s\n", res.Removed, res.Restored, suffix)
	return nil
}

// printCleanPlan shows what clean would remove and restore.
func printCleanPlan(printer *output.Printer, plan *engine.CleanPlan) {
	restorable := make(map[string]bool, len(plan.Restorable))
	for _, p := range plan.Restorable {
		restorable[p] = true
	}

	printer.Section(fmt.Sprintf("Generated rule files (%d)", len(plan.RuleFiles)))
	for _, f := range plan.RuleFiles {
		tag := ""
		if restorable[f] {
			tag = "  <- will restore from backup"
		}
		printer.Println("  " + f + tag)
	}

	printer.Section(fmt.Sprintf("Managed skill entries (%d)", len(plan.SkillEntries)))
	for _, s := range plan.SkillEntries {
		printer.Println("  " + s)
	}

	if len(plan.Restorable) > 0 {
		printer.Print("\n  %d files will be restored from backup (%s)\n", len(plan.Restorable), plan.BackupID)
	}
	printer.Println("  The canonical store in ~/.rulesync is not affected.")
	printer.Println()
}
