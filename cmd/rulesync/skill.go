// Package main provides the entry point for the rulesync CLI.
package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/rulesync/internal/engine"
	"github.com/gorewood/rulesync/internal/fsops"
	"github.com/gorewood/rulesync/internal/output"
	"github.com/gorewood/rulesync/internal/skills"
	"github.com/gorewood/rulesync/internal/store"
)

// newSkillCmd creates the skill command group.
func newSkillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skill",
		Short: "Manage the canonical skill set",
		Long: `Manage canonical skills: archive skills out of active delivery,
restore them, or list what is active and archived.

Archiving moves a skill from ~/.rulesync/skills/ into
~/.rulesync/skills-archive/; the next sync removes its managed entries
from every target. Restore reverses the move.`,
	}
	cmd.AddCommand(newSkillArchiveCmd())
	cmd.AddCommand(newSkillRestoreCmd())
	cmd.AddCommand(newSkillListCmd())
	return cmd
}

// newSkillArchiveCmd creates the skill archive command.
func newSkillArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <name>...",
		Short: "Move skills out of active delivery",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSkillMove(cmd, args, "skill-archive", skills.Archive,
				"Archived %s. Run 'rulesync sync' to remove delivered entries.")
		},
	}
}

// newSkillRestoreCmd creates the skill restore command.
func newSkillRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <name>...",
		Short: "Restore archived skills to active delivery",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSkillMove(cmd, args, "skill-restore", skills.Restore,
				"Restored %s. Run 'rulesync sync' to deliver again.")
		},
	}
}

// runSkillMove executes archive or restore with shared plumbing.
func runSkillMove(cmd *cobra.Command, names []string, command string, move func([]string, store.Layout, *fsops.Ops) ([]string, error), doneFormat string) error {
	printer := newPrinterFor(cmd)

	layout, _, err := resolveStore()
	if err != nil {
		printer.Error(err)
		return err
	}
	ops, err := engine.Begin(layout, command, engineOptions(cmd, printer))
	if err != nil {
		err = output.NewSystemErrorWithCause("starting "+command, err)
		printer.Error(err)
		return err
	}

	moved, err := move(names, layout, ops)
	if err != nil {
		err = output.NewUserError(err.Error())
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		return printer.WriteJSON(map[string]any{
			"moved":   moved,
			"dry_run": ops.DryRun,
		})
	}
	printer.Print(doneFormat+"\n", strings.Join(moved, ", "))
	return nil
}

// newSkillListCmd creates the skill list command.
func newSkillListCmd() *cobra.Command {
	var archivedFlag bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active or archived skills",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSkillList(cmd, archivedFlag)
		},
	}
	cmd.Flags().BoolVar(&archivedFlag, "archived", false, "List archived skills instead of active ones")
	return cmd
}

// runSkillList executes the skill list command.
func runSkillList(cmd *cobra.Command, archived bool) error {
	printer := newPrinterFor(cmd)

	layout, _, err := resolveStore()
	if err != nil {
		printer.Error(err)
		return err
	}

	var names []string
	if archived {
		names, err = skills.ListArchived(layout)
	} else {
		names, err = skills.List(layout)
	}
	if err != nil {
		err = output.NewSystemErrorWithCause("listing skills", err)
		printer.Error(err)
		return err
	}

	if printer.IsJSON() {
		key := "skills"
		if archived {
			key = "archived_skills"
		}
		return printer.Success(map[string]any{key: names})
	}
	if len(names) == 0 {
		printer.Println("(none)")
		return nil
	}
	for _, n := range names {
		printer.Println(n)
	}
	return nil
}
