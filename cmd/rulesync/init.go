// Package main provides the entry point for the rulesync CLI.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/rulesync/internal/engine"
	"github.com/gorewood/rulesync/internal/importer"
	"github.com/gorewood/rulesync/internal/output"
	"github.com/gorewood/rulesync/internal/target"
	"github.com/gorewood/rulesync/internal/wizard"
)

// Defaults written into a fresh manifest's agents_md block.
const (
	defaultAgentsHeader   = "# Workspace AGENTS Rules"
	defaultAgentsPreamble = "These rules apply across this workspace unless explicitly overridden."
)

// newInitCmd creates the init command.
func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "First-time setup: import existing rules and skills",
		Long: `Walk through first-time setup: detect which agents already have rules
configured, import and deduplicate their content into the canonical
store, choose sync targets, write the manifest, and run the first
synchronization pass.

Source agent files are only read, never modified. With --yes every
prompt accepts its defaults, which makes init scriptable.

Examples:
  rulesync init         # Interactive setup
  rulesync init --yes   # Accept all defaults, no prompts`,
		RunE: runInit,
	}
}

// runInit executes the init command.
func runInit(cmd *cobra.Command, _ []string) error {
	printer := newPrinterFor(cmd)

	layout, home, err := resolveStore()
	if err != nil {
		printer.Error(err)
		return err
	}
	autoAccept := boolFlag(cmd, "yes") || printer.IsJSON() || !printer.IsTTY()

	if layout.Exists() {
		printer.Warn("init will overwrite existing canonical content in %s", layout.Root)
		ok, err := wizard.Confirm("Proceed?", true, autoAccept)
		if err != nil || !ok {
			printer.Println("Aborted.")
			return err
		}
	}

	sources, err := selectSources(home, autoAccept)
	if err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}
	if len(sources) == 0 {
		printer.Println("No sources selected. Aborted.")
		return nil
	}

	rules, skillDirs, err := scanSources(printer, home, sources)
	if err != nil {
		err = output.NewSystemErrorWithCause("scanning sources", err)
		printer.Error(err)
		return err
	}

	if len(sources) > 1 {
		rules = dedupRules(printer, rules, autoAccept)
	}

	rules, err = selectRules(rules, autoAccept)
	if err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}
	if len(rules) == 0 {
		printer.Println("No rules selected. Aborted.")
		return nil
	}
	skillDirs, err = selectSkills(skillDirs, autoAccept)
	if err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}

	ruleTargets, skillTargets, err := selectTargets(home, target.RuleTargets(home), target.SkillTargets(home), autoAccept)
	if err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}

	var agentsPaths []string
	if containsString(ruleTargets, "agents-md") && !autoAccept {
		raw, err := wizard.Input("AGENTS.md output paths (comma-separated)", "~/Code/AGENTS.md", autoAccept)
		if err != nil {
			err = output.NewUserError(err.Error())
			printer.Error(err)
			return err
		}
		agentsPaths = splitList(raw)
	}

	printer.Section("Writing canonical source")

	ops, err := engine.Begin(layout, "init", engineOptions(cmd, printer))
	if err != nil {
		err = output.NewSystemErrorWithCause("starting init", err)
		printer.Error(err)
		return err
	}
	man, err := writeCanonical(layout, ops, sources, rules, skillDirs, ruleTargets, skillTargets, agentsPaths)
	if err != nil {
		err = output.NewSystemErrorWithCause("writing canonical store", err)
		printer.Error(err)
		return err
	}

	res, err := syncPass(printer, layout, home, man, ops, "")
	if err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.WriteJSON(map[string]any{
			"sources": sources,
			"rules":   len(rules),
			"skills":  len(skillDirs),
			"sync":    res,
		})
	}
	printSyncResult(printer, res)
	printer.Print("\nDone. Edit rules in %s and run 'rulesync sync' to propagate.\n", layout.RulesDir())
	return nil
}

// containsString reports whether list holds v.
func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// splitList splits a comma-separated flag value, dropping empties.
func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// dedupRules collapses duplicate candidates, asking the user to pick a
// side for flagged near-duplicates when running interactively.
func dedupRules(printer *output.Printer, rules []importer.Rule, autoAccept bool) []importer.Rule {
	var choose importer.Chooser
	if !autoAccept {
		choose = func(existing, candidate importer.Rule, ratio float64, diff string) bool {
			printer.Warn("'%s' from %s differs from %s (%.0f%%)", candidate.ID, candidate.Source, existing.Source, ratio*100)
			printer.Print("%s", diff)
			keep, err := wizard.Confirm(fmt.Sprintf("Keep version from %s?", existing.Source), true, false)
			if err != nil {
				return true
			}
			return keep
		}
	}

	unique, dups := importer.Deduplicate(rules, choose)
	for _, d := range dups {
		switch {
		case d.Distinct:
			printer.Verbosef("'%s' candidates differ too much (%.0f%%), keeping both", d.ID, d.Ratio*100)
		default:
			printer.Verbosef("duplicate '%s': kept %s, dropped %s (%.0f%%)", d.ID, d.Kept, d.Dropped, d.Ratio*100)
		}
	}
	return unique
}
