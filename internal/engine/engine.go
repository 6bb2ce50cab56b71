// Package engine orchestrates full synchronization passes. Each
// operation is a plain function returning a structured result; the CLI
// and the MCP server are thin formatting layers over these.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/gorewood/rulesync/internal/backup"
	"github.com/gorewood/rulesync/internal/fsops"
	"github.com/gorewood/rulesync/internal/generate"
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/skills"
	"github.com/gorewood/rulesync/internal/store"
	"github.com/gorewood/rulesync/internal/target"
)

// Options carries the run-wide switches shared by every operation.
type Options struct {
	DryRun bool
	Diff   bool
	Log    fsops.Logger
}

// Begin opens a backup set for the named command and returns the
// effect layer every subsequent mutation goes through.
func Begin(layout store.Layout, command string, opts Options) (*fsops.Ops, error) {
	set, err := backup.Begin(layout.BackupsDir(), command, opts.DryRun)
	if err != nil {
		return nil, fmt.Errorf("opening backup set: %w", err)
	}
	return &fsops.Ops{
		Backup: set,
		DryRun: opts.DryRun,
		Diff:   opts.Diff,
		Log:    opts.Log,
	}, nil
}

// UnknownTargetError reports a pass restricted to a target name that is
// not in the registry.
type UnknownTargetError struct {
	Name    string
	Options []string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown target %q (options: %s)", e.Name, strings.Join(e.Options, ", "))
}

// SyncResult aggregates one full synchronization pass.
type SyncResult struct {
	Rules    []*generate.Result `json:"rules"`
	Skills   []*skills.Result   `json:"skills"`
	Warnings []string           `json:"warnings,omitempty"`
	BackupID string             `json:"backup_id,omitempty"`
	DryRun   bool               `json:"dry_run,omitempty"`
}

// Sync runs a full pass: rule generation for every active rule target
// and skill delivery for every active skill target. only restricts the
// pass to a single target when non-empty. The manifest's updated stamp
// is refreshed unless this is a dry run.
func Sync(home string, layout store.Layout, man *manifest.Manifest, ops *fsops.Ops, only string, now time.Time) (*SyncResult, error) {
	norm, err := man.Normalize()
	if err != nil {
		return nil, err
	}

	ruleTargets := norm.Rules
	skillTargets := norm.Skills
	if only != "" {
		if _, ok := target.Lookup(home, only); !ok {
			return nil, &UnknownTargetError{Name: only, Options: targetNames(home)}
		}
		ruleTargets = filterTargets(ruleTargets, only)
		skillTargets = filterTargets(skillTargets, only)
	}

	res := &SyncResult{DryRun: ops.DryRun}
	if ops.Backup != nil {
		res.BackupID = ops.Backup.ID()
	}

	for _, t := range ruleTargets {
		spec, ok := target.Lookup(home, t.Name)
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("unknown rule target %q in manifest, skipping", t.Name))
			continue
		}
		if !spec.HasRules() {
			continue
		}
		r, err := generate.Run(spec, man, layout, ops, now)
		if err != nil {
			return nil, err
		}
		res.Rules = append(res.Rules, r)
	}

	for _, t := range skillTargets {
		spec, ok := target.Lookup(home, t.Name)
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("unknown skill target %q in manifest, skipping", t.Name))
			continue
		}
		if !spec.HasSkills() {
			continue
		}
		r, err := skills.Deliver(t, spec.SkillsDir, layout, ops, now)
		if err != nil {
			return nil, err
		}
		res.Skills = append(res.Skills, r)
	}

	if !ops.DryRun {
		if err := man.Save(layout.ManifestPath()); err != nil {
			return nil, fmt.Errorf("stamping manifest: %w", err)
		}
	}
	return res, nil
}

func filterTargets(ts []manifest.Target, only string) []manifest.Target {
	var out []manifest.Target
	for _, t := range ts {
		if t.Name == only {
			out = append(out, t)
		}
	}
	return out
}

func targetNames(home string) []string {
	var names []string
	for _, s := range target.All(home) {
		names = append(names, s.Name)
	}
	return names
}
