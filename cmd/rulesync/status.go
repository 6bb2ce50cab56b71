// Package main provides the entry point for the rulesync CLI.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/rulesync/internal/engine"
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/output"
)

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show canonical rules, targets and skills",
		Long: `Show the current sync configuration and state: canonical rules with
their provenance and flags, active rule and skill targets, active and
archived skills, configured AGENTS.md paths, and the last sync date.

Examples:
  rulesync status          # Human-readable overview
  rulesync status --json   # Structured output for scripting`,
		RunE: runStatus,
	}
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, _ []string) error {
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

	rep, err := engine.Status(layout, man)
	if err != nil {
		err = output.NewSystemErrorWithCause("gathering status", err)
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.WriteJSON(rep)
	}
	printHumanStatus(printer, rep)
	return nil
}

// printHumanStatus outputs status in human-readable form.
func printHumanStatus(printer *output.Printer, rep *engine.StatusReport) {
	printer.Section(fmt.Sprintf("Rules (%d)", len(rep.Rules)))
	if len(rep.Rules) == 0 {
		printer.Println("  (none)")
	}
	for _, r := range rep.Rules {
		var flags []string
		if r.AlwaysApply {
			flags = append(flags, "alwaysApply")
		}
		if r.Globs != "" {
			flags = append(flags, "globs="+r.Globs)
		}
		if len(r.Exclude) > 0 {
			flags = append(flags, "exclude="+strings.Join(r.Exclude, ","))
		}
		printer.Print("  %-30s [%-7s] %-24s %s\n",
			r.ID, r.ImportedFrom, strings.Join(flags, ", "), r.Description)
	}

	printer.Section("Active Targets")
	printer.KeyValue("Rules", strings.Join(rep.RuleTargets, ", "))
	printer.KeyValue("Skills", strings.Join(rep.SkillTargets, ", "))

	printer.Section(fmt.Sprintf("Skills (%d)", len(rep.Skills)))
	printSkillGrid(printer, rep.Skills)

	if len(rep.Archived) > 0 {
		printer.Section(fmt.Sprintf("Archived Skills (%d)", len(rep.Archived)))
		printSkillGrid(printer, rep.Archived)
	}

	printer.Section("AGENTS.md Paths")
	if len(rep.AgentsMDPaths) == 0 {
		printer.Println("  (none configured)")
	}
	for _, p := range rep.AgentsMDPaths {
		printer.Println("  " + p)
	}

	printer.Section("Last Synced")
	printer.Println("  " + rep.LastSynced)
	printer.Println()
}

// printSkillGrid renders skill names four per row.
func printSkillGrid(printer *output.Printer, names []string) {
	if len(names) == 0 {
		printer.Println("  (none)")
		return
	}
	for i := 0; i < len(names); i += 4 {
		end := i + 4
		if end > len(names) {
			end = len(names)
		}
		row := make([]string, 0, 4)
		for _, n := range names[i:end] {
			row = append(row, fmt.Sprintf("%-20s", n))
		}
		printer.Println("  " + strings.Join(row, "  "))
	}
}
