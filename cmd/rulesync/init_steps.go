// Package main provides the entry point for the rulesync CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gorewood/rulesync/internal/fsops"
	"github.com/gorewood/rulesync/internal/importer"
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/output"
	"github.com/gorewood/rulesync/internal/store"
	"github.com/gorewood/rulesync/internal/target"
	"github.com/gorewood/rulesync/internal/wizard"
)

// selectSources asks which agents to import from. Agents that already
// have rule content on disk are preselected.
func selectSources(home string, autoAccept bool) ([]string, error) {
	var options []wizard.Option
	var detected []string
	for _, spec := range target.All(home) {
		if !spec.HasRules() || spec.Format == target.FormatSummary {
			continue
		}
		path := spec.RulesDir
		if path == "" {
			path = spec.RulesFile
		}
		if pathExists(path) {
			detected = append(detected, spec.Name)
		}
		options = append(options, wizard.Option{
			Value: spec.Name,
			Label: fmt.Sprintf("%s  (%s)", spec.Label, path),
		})
	}
	return wizard.MultiSelect(
		"Step 1: Which agents do you currently have rules configured in?",
		options, detected, autoAccept)
}

// scanSources imports candidate rules and skills from each source.
func scanSources(printer *output.Printer, home string, sources []string) ([]importer.Rule, []string, error) {
	var rules []importer.Rule
	var skillDirs []string
	for _, name := range sources {
		spec, ok := target.Lookup(home, name)
		if !ok {
			continue
		}
		res, err := importer.Scan(spec)
		if err != nil {
			return nil, nil, err
		}
		for _, note := range res.Notes {
			printer.Verbosef("%s", note)
		}
		for _, r := range res.Rules {
			printer.Verbosef("%s: imported '%s'", spec.Label, r.ID)
		}
		rules = append(rules, res.Rules...)
		skillDirs = append(skillDirs, res.Skills...)
	}
	return rules, skillDirs, nil
}

// selectRules lets the user pick which candidates become canonical.
func selectRules(rules []importer.Rule, autoAccept bool) ([]importer.Rule, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	options := make([]wizard.Option, 0, len(rules))
	defaults := make([]string, 0, len(rules))
	for _, r := range rules {
		options = append(options, wizard.Option{
			Value: r.ID,
			Label: fmt.Sprintf("%-30s [%-6s]  %s", r.ID, r.Source, importer.Preview(r)),
		})
		defaults = append(defaults, r.ID)
	}
	selected, err := wizard.MultiSelect(
		fmt.Sprintf("Step 2: Select rules to import (%d found):", len(rules)),
		options, defaults, autoAccept)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(selected))
	for _, id := range selected {
		keep[id] = true
	}
	var out []importer.Rule
	for _, r := range rules {
		if keep[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

// selectSkills lets the user pick which skill directories to copy in.
func selectSkills(dirs []string, autoAccept bool) ([]string, error) {
	if len(dirs) == 0 {
		return nil, nil
	}
	options := make([]wizard.Option, 0, len(dirs))
	defaults := make([]string, 0, len(dirs))
	for _, d := range dirs {
		options = append(options, wizard.Option{
			Value: d,
			Label: fmt.Sprintf("%-30s [%s]", filepath.Base(d), filepath.Dir(d)),
		})
		defaults = append(defaults, d)
	}
	return wizard.MultiSelect(
		fmt.Sprintf("Step 3: Select skills to import (%d found):", len(dirs)),
		options, defaults, autoAccept)
}

// selectTargets asks which agents receive rules and which receive
// skills. Options always cover the full registry; defaults carry the
// current (or detected) selection.
func selectTargets(home string, ruleDefaults, skillDefaults []string, autoAccept bool) (rules, skills []string, err error) {
	ruleOptions := targetOptions(home, target.RuleTargets(home))
	skillOptions := targetOptions(home, target.SkillTargets(home))

	rules, err = wizard.MultiSelect(
		"Step 4: Which agents do you want to sync RULES to?",
		ruleOptions, ruleDefaults, autoAccept)
	if err != nil {
		return nil, nil, err
	}
	skills, err = wizard.MultiSelect(
		"Step 5: Which agents do you want to sync SKILLS to?",
		skillOptions, skillDefaults, autoAccept)
	if err != nil {
		return nil, nil, err
	}
	return rules, skills, nil
}

func targetOptions(home string, names []string) []wizard.Option {
	options := make([]wizard.Option, 0, len(names))
	for _, name := range names {
		spec, ok := target.Lookup(home, name)
		if !ok {
			continue
		}
		options = append(options, wizard.Option{
			Value: name,
			Label: fmt.Sprintf("%s  (%s)", spec.Label, spec.Description),
		})
	}
	return options
}

// writeCanonical materializes the selections: rule files, copied
// skills, and the manifest describing them.
func writeCanonical(layout store.Layout, ops *fsops.Ops, sources []string, rules []importer.Rule, skillDirs []string, ruleTargets, skillTargets, agentsPaths []string) (*manifest.Manifest, error) {
	// A re-init replaces the canonical rule set wholesale; the old
	// files go into this run's backup set first.
	if pathExists(layout.RulesDir()) {
		if err := ops.RemoveTree(layout.RulesDir()); err != nil {
			return nil, err
		}
	}

	entries, err := importer.WriteRules(rules, layout, ops)
	if err != nil {
		return nil, err
	}
	if _, err := importer.CopySkills(skillDirs, layout, ops); err != nil {
		return nil, err
	}

	man := &manifest.Manifest{
		Version:      manifest.SchemaVersion,
		ImportedFrom: sources,
		Rules:        entries,
		AgentsMD: manifest.AgentsMD{
			Paths:    agentsPaths,
			Header:   defaultAgentsHeader,
			Preamble: defaultAgentsPreamble,
		},
	}
	man.SetActiveTargets(ruleTargets, skillTargets)

	if !ops.DryRun {
		if err := man.Save(layout.ManifestPath()); err != nil {
			return nil, err
		}
	}
	return man, nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
