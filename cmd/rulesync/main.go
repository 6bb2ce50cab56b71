// Package main provides the entry point for the rulesync CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gorewood/rulesync/internal/engine"
	"github.com/gorewood/rulesync/internal/fsops"
	"github.com/gorewood/rulesync/internal/output"
	"github.com/gorewood/rulesync/internal/store"
)

// Build info set via ldflags at build time by goreleaser.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2024-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}

func main() {
	os.Exit(run())
}

func run() int {
	cmd := newRootCmd()
	err := fang.Execute(context.Background(), cmd, fang.WithVersion(buildVersion()))
	return output.GetExitCode(err)
}

// newRootCmd creates the root command for the rulesync CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rulesync",
		Short: "Keep AI agent rules and skills in sync",
		Long: `Rulesync - one canonical store of agent rules and skills, projected
into every tool's native format.

Rules live once under ~/.rulesync/rules/ and are generated into Cursor,
Codex, Claude Code, Gemini CLI, Kiro and AGENTS.md files. Skills live
under ~/.rulesync/skills/ and are delivered as symlinks or marked
copies. Every generated artifact carries a provenance header, so sync
and clean only ever touch content rulesync wrote itself.

All commands support --json for structured output.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if isJSONMode(cmd) {
				printer := output.NewPrinter(cmd.OutOrStdout(), true, false)
				err := output.NewUserError("no command specified. Run 'rulesync --help' for usage")
				printer.Error(err)
				return err
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().Bool("dry-run", false, "Preview changes without writing anything")
	cmd.PersistentFlags().Bool("diff", false, "Show diffs for changed files")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Show per-file detail")
	cmd.PersistentFlags().BoolP("yes", "y", false, "Accept defaults and skip confirmation prompts")
	cmd.PersistentFlags().String("color", "auto", "Colorize output: auto, always, never")

	// Configure lipgloss for TTY detection
	lipgloss.SetHasDarkBackground(true)

	addCommandGroups(cmd)
	addCommands(cmd)

	return cmd
}

// addCommandGroups defines the command groups for help output.
func addCommandGroups(cmd *cobra.Command) {
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "rules", Title: "Rule Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "skills", Title: "Skill Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "admin", Title: "Admin Commands:"})
}

// addCommands adds all subcommands with their group assignments.
func addCommands(cmd *cobra.Command) {
	// Core commands: sync, status, clean
	addGroupedCommand(cmd, newSyncCmd(), "core")
	addGroupedCommand(cmd, newStatusCmd(), "core")
	addGroupedCommand(cmd, newCleanCmd(), "core")

	// Rule commands: add-rule, remove-rule, set
	addGroupedCommand(cmd, newAddRuleCmd(), "rules")
	addGroupedCommand(cmd, newRemoveRuleCmd(), "rules")
	addGroupedCommand(cmd, newSetCmd(), "rules")

	// Skill commands
	addGroupedCommand(cmd, newSkillCmd(), "skills")

	// Admin commands: init, reconfigure, serve
	addGroupedCommand(cmd, newInitCmd(), "admin")
	addGroupedCommand(cmd, newReconfigureCmd(), "admin")
	addGroupedCommand(cmd, newServeCmd(), "admin")
}

// addGroupedCommand adds a subcommand with a group assignment.
func addGroupedCommand(parent *cobra.Command, child *cobra.Command, groupID string) {
	child.GroupID = groupID
	parent.AddCommand(child)
}

// isJSONMode reads the --json persistent flag from the command hierarchy.
func isJSONMode(cmd *cobra.Command) bool {
	return boolFlag(cmd, "json")
}

// boolFlag reads a persistent bool flag from the command hierarchy.
func boolFlag(cmd *cobra.Command, name string) bool {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup(name)
	}
	return flag != nil && flag.Value.String() == "true"
}

// useColor reports whether human output should be styled, honoring the
// --color flag before falling back to TTY detection.
func useColor(cmd *cobra.Command) bool {
	mode := "auto"
	if flag := cmd.Root().PersistentFlags().Lookup("color"); flag != nil {
		mode = flag.Value.String()
	}
	return output.ResolveColorMode(mode, output.IsTTY(cmd.OutOrStdout()))
}

// newPrinterFor builds the printer for a command from its flags.
func newPrinterFor(cmd *cobra.Command) *output.Printer {
	return output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd)).
		WithStderr(cmd.ErrOrStderr()).
		WithVerbose(boolFlag(cmd, "verbose"))
}

// resolveStore returns the canonical store layout and the home
// directory targets are resolved against.
func resolveStore() (store.Layout, string, error) {
	layout, err := store.Resolve()
	if err != nil {
		return store.Layout{}, "", output.NewSystemErrorWithCause("resolving canonical store", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return store.Layout{}, "", output.NewSystemErrorWithCause("resolving home directory", err)
	}
	return layout, home, nil
}

// engineOptions assembles the run-wide engine options from flags.
func engineOptions(cmd *cobra.Command, printer *output.Printer) engine.Options {
	return engine.Options{
		DryRun: boolFlag(cmd, "dry-run"),
		Diff:   boolFlag(cmd, "diff"),
		Log:    printer,
	}
}

// printDiffs writes recorded diffs for changed files in human mode.
func printDiffs(printer *output.Printer, changes []fsops.Change) {
	if printer.IsJSON() {
		return
	}
	for _, c := range changes {
		if c.Diff != "" {
			printer.Println()
			printer.Print("%s", c.Diff)
		}
	}
}
