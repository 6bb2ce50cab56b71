// Package main provides the entry point for the rulesync CLI.
package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gorewood/rulesync/internal/engine"
	"github.com/gorewood/rulesync/internal/fsops"
	"github.com/gorewood/rulesync/internal/generate"
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/output"
	"github.com/gorewood/rulesync/internal/skills"
	"github.com/gorewood/rulesync/internal/store"
)

// newSyncCmd creates the sync command.
func newSyncCmd() *cobra.Command {
	var onlyFlag string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Regenerate all agent configs from the canonical store",
		Long: `Run a full synchronization pass: generate rule output for every
active rule target and deliver skills to every active skill target.

A second run with unchanged canonical content writes nothing. Files
that would be overwritten are snapshotted into a timestamped backup
set first.

Examples:
  rulesync sync                 # Full pass over all active targets
  rulesync sync --only cursor   # Restrict to a single target
  rulesync sync --dry-run       # Preview without writing
  rulesync sync --diff          # Show diffs for changed files`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, onlyFlag)
		},
	}
	cmd.Flags().StringVar(&onlyFlag, "only", "", "Restrict sync to a single target")
	return cmd
}

// runSync executes the sync command.
func runSync(cmd *cobra.Command, only string) error {
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

	ops, err := engine.Begin(layout, "sync", engineOptions(cmd, printer))
	if err != nil {
		err = output.NewSystemErrorWithCause("starting sync", err)
		printer.Error(err)
		return err
	}

	res, err := syncPass(printer, layout, home, man, ops, only)
	if err != nil {
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.WriteJSON(res)
	}
	printSyncResult(printer, res)
	printDiffs(printer, ops.Changes())
	return nil
}

// syncPass runs the engine pass and maps failures to exit-code errors.
// Shared by every command that ends in an implicit sync.
func syncPass(printer *output.Printer, layout store.Layout, home string, man *manifest.Manifest, ops *fsops.Ops, only string) (*engine.SyncResult, error) {
	res, err := engine.Sync(home, layout, man, ops, only, time.Now().UTC())
	if err != nil {
		var vErr *manifest.ValidationError
		var tErr *engine.UnknownTargetError
		if errors.As(err, &vErr) || errors.As(err, &tErr) {
			return nil, output.NewUserError(err.Error())
		}
		return nil, output.NewSystemErrorWithCause("sync failed", err)
	}
	for _, w := range res.Warnings {
		printer.Warn("%s", w)
	}
	return res, nil
}

// printSyncResult renders a pass in human-readable form.
func printSyncResult(printer *output.Printer, res *engine.SyncResult) {
	printer.Section("Rules")
	if len(res.Rules) == 0 {
		printer.Println("  (no rule targets)")
	}
	for _, r := range res.Rules {
		printer.KeyValue(r.Target, describeRules(r))
		for _, w := range r.Warnings {
			printer.Warn("%s", w)
		}
	}

	printer.Section("Skills")
	if len(res.Skills) == 0 {
		printer.Println("  (no skill targets)")
	}
	for _, s := range res.Skills {
		printer.KeyValue(s.Target, describeSkills(s))
		for _, w := range s.Warnings {
			printer.Warn("%s", w)
		}
	}

	printer.Section("Summary")
	suffix := ""
	if res.DryRun {
		suffix = " (dry-run)"
	}
	printer.Print("  %d rule targets, %d skill targets synced.%s\n",
		len(res.Rules), len(res.Skills), suffix)
}

func describeRules(r *generate.Result) string {
	parts := []string{fmt.Sprintf("%d rules", r.Rules)}
	if n := len(r.Written); n > 0 {
		parts = append(parts, fmt.Sprintf("%d written", n))
	}
	if n := len(r.Unchanged); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unchanged", n))
	}
	if n := len(r.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d stale removed", n))
	}
	return strings.Join(parts, ", ")
}

func describeSkills(s *skills.Result) string {
	var parts []string
	if n := len(s.Linked); n > 0 {
		parts = append(parts, fmt.Sprintf("%d linked", n))
	}
	if n := len(s.Copied); n > 0 {
		parts = append(parts, fmt.Sprintf("%d copied", n))
	}
	if n := len(s.Unchanged); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unchanged", n))
	}
	if n := len(s.Archived); n > 0 {
		parts = append(parts, fmt.Sprintf("%d archived", n))
	}
	if n := len(s.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", n))
	}
	if len(parts) == 0 {
		return "up to date"
	}
	return strings.Join(parts, ", ")
}
