// Package main provides the entry point for the rulesync CLI.
package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/rulesync/internal/engine"
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/output"
)

// newReconfigureCmd creates the reconfigure command.
func newReconfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconfigure",
		Short: "Change which agents receive rules and skills",
		Long: `Reselect the active rule and skill targets, then run a sync pass.

Targets that stay selected keep their per-target sync_mode and
conflict_strategy; newly added targets get the defaults (symlink,
overwrite). With --yes the current selection is kept as-is.

Examples:
  rulesync reconfigure           # Interactive reselection
  rulesync reconfigure --yes     # Keep current selection, just re-sync`,
		RunE: runReconfigure,
	}
}

// runReconfigure executes the reconfigure command.
func runReconfigure(cmd *cobra.Command, _ []string) error {
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

	currentRules := refNames(man.ActiveTargets.Rules)
	currentSkills := refNames(man.ActiveTargets.Skills)
	if !printer.IsJSON() {
		printer.KeyValue("Current rule targets", strings.Join(currentRules, ", "))
		printer.KeyValue("Current skill targets", strings.Join(currentSkills, ", "))
	}

	autoAccept := boolFlag(cmd, "yes") || printer.IsJSON() || !printer.IsTTY()
	ruleTargets, skillTargets, err := selectTargets(home, currentRules, currentSkills, autoAccept)
	if err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}

	man.SetActiveTargets(ruleTargets, skillTargets)

	ops, err := engine.Begin(layout, "reconfigure", engineOptions(cmd, printer))
	if err != nil {
		err = output.NewSystemErrorWithCause("starting reconfigure", err)
		printer.Error(err)
		return err
	}
	if !ops.DryRun {
		if err := man.Save(layout.ManifestPath()); err != nil {
			err = output.NewSystemErrorWithCause("saving manifest", err)
			printer.Error(err)
			return err
		}
	}

	res, err := syncPass(printer, layout, home, man, ops, "")
	if err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.WriteJSON(map[string]any{
			"rule_targets":  ruleTargets,
			"skill_targets": skillTargets,
			"sync":          res,
		})
	}
	printSyncResult(printer, res)
	return nil
}

// refNames extracts the names from raw target refs.
func refNames(refs []manifest.TargetRef) []string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.Name)
	}
	return names
}

