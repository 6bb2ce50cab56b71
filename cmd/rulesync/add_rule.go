// Package main provides the entry point for the rulesync CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/rulesync/internal/engine"
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/output"
)

// newAddRuleCmd creates the add-rule command.
func newAddRuleCmd() *cobra.Command {
	var (
		descriptionFlag string
		fileFlag        string
		excludeFlag     string
		noAlwaysApply   bool
	)
	cmd := &cobra.Command{
		Use:   "add-rule <id>",
		Short: "Create a canonical rule and sync it everywhere",
		Long: `Create a new canonical rule, register it in the manifest, and run a
sync pass so every active target picks it up.

The id becomes the filename (my-rule -> rules/my-rule.md). Content
comes from --file, or a placeholder is created for editing.

Examples:
  rulesync add-rule code-style --description "Formatting conventions"
  rulesync add-rule deploy-notes --file ./notes.md --exclude kiro,gemini`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddRule(cmd, args[0], descriptionFlag, fileFlag, excludeFlag, !noAlwaysApply)
		},
	}
	cmd.Flags().StringVar(&descriptionFlag, "description", "", "Short description shown in Cursor's rule picker")
	cmd.Flags().StringVar(&fileFlag, "file", "", "Read rule content from this file")
	cmd.Flags().StringVar(&excludeFlag, "exclude", "", "Comma-separated targets to skip")
	cmd.Flags().BoolVar(&noAlwaysApply, "no-always-apply", false, "Do not mark the rule alwaysApply for Cursor")
	return cmd
}

// runAddRule executes the add-rule command.
func runAddRule(cmd *cobra.Command, id, description, file, exclude string, alwaysApply bool) error {
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

	ruleFile := id + ".md"
	rulePath := layout.RulePath(ruleFile)
	if man.FindRule(id) != nil || pathExists(rulePath) {
		err := output.NewUserError(fmt.Sprintf("rule %q already exists", id))
		printer.Error(err)
		return err
	}

	content := fmt.Sprintf("# %s\n\nTODO: Add rule content.\n", titleFromID(id))
	if file != "" {
		data, readErr := os.ReadFile(expandHome(file, home))
		if readErr != nil {
			err := output.NewUserError(fmt.Sprintf("reading %s: %v", file, readErr))
			printer.Error(err)
			return err
		}
		content = string(data)
	}

	ops, err := engine.Begin(layout, "add-rule", engineOptions(cmd, printer))
	if err != nil {
		err = output.NewSystemErrorWithCause("starting add-rule", err)
		printer.Error(err)
		return err
	}

	if _, err := ops.WriteFile(rulePath, content, nil); err != nil {
		err = output.NewSystemErrorWithCause("writing rule file", err)
		printer.Error(err)
		return err
	}

	rule := manifest.Rule{
		ID:           id,
		File:         ruleFile,
		ImportedFrom: "manual",
		Cursor:       &manifest.CursorMeta{AlwaysApply: &alwaysApply, Description: description},
		Exclude:      splitList(exclude),
	}
	man.Rules = append(man.Rules, rule)

	if ops.DryRun {
		printer.Verbosef("[dry-run] would add %q to manifest and sync", id)
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
		return printer.WriteJSON(map[string]any{"rule": rule, "sync": res})
	}
	printer.Print("Created rules/%s\n", ruleFile)
	printSyncResult(printer, res)
	return nil
}

// titleFromID turns a slug into a heading ("code-style" -> "Code Style").
func titleFromID(id string) string {
	words := strings.Split(id, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// expandHome resolves a leading ~ against the home directory.
func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
