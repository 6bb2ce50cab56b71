package engine

import (
	"os"

	"github.com/gorewood/rulesync/internal/backup"
	"github.com/gorewood/rulesync/internal/fsops"
	"github.com/gorewood/rulesync/internal/generate"
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/skills"
	"github.com/gorewood/rulesync/internal/store"
	"github.com/gorewood/rulesync/internal/target"
)

// CleanPlan lists everything a clean pass would touch. Planning reads
// only; the caller confirms before Execute mutates anything.
type CleanPlan struct {
	RuleFiles    []string `json:"rule_files"`
	SkillEntries []string `json:"skill_entries"`
	Restorable   []string `json:"restorable,omitempty"`
	BackupID     string   `json:"backup_id,omitempty"`

	set *backup.Set
}

// Empty reports whether there is nothing to clean.
func (p *CleanPlan) Empty() bool {
	return len(p.RuleFiles) == 0 && len(p.SkillEntries) == 0
}

// CleanResult reports what a clean pass removed and restored.
type CleanResult struct {
	Removed  int  `json:"removed"`
	Restored int  `json:"restored"`
	DryRun   bool `json:"dry_run,omitempty"`
}

// PlanClean scans every active target for provenance-marked rule
// artifacts and managed skill entries, then matches them against the
// latest backup set to see what can be restored afterwards. The
// canonical store is never part of the plan.
func PlanClean(home string, layout store.Layout, man *manifest.Manifest) (*CleanPlan, error) {
	norm, err := man.Normalize()
	if err != nil {
		return nil, err
	}

	plan := &CleanPlan{}
	for _, t := range norm.Rules {
		spec, ok := target.Lookup(home, t.Name)
		if !ok || !spec.HasRules() {
			continue
		}
		found, err := generate.FindArtifacts(spec, man)
		if err != nil {
			return nil, err
		}
		plan.RuleFiles = append(plan.RuleFiles, found...)
	}
	for _, t := range norm.Skills {
		spec, ok := target.Lookup(home, t.Name)
		if !ok || !spec.HasSkills() {
			continue
		}
		found, err := skills.FindManaged(spec.SkillsDir, layout)
		if err != nil {
			return nil, err
		}
		plan.SkillEntries = append(plan.SkillEntries, found...)
	}

	latest, err := backup.Latest(layout.BackupsDir())
	if err != nil {
		return nil, err
	}
	if latest != nil {
		plan.set = latest
		plan.BackupID = latest.ID()
		originals, err := latest.Restorable()
		if err != nil {
			return nil, err
		}
		targets := make(map[string]bool, len(plan.RuleFiles)+len(plan.SkillEntries))
		for _, p := range plan.RuleFiles {
			targets[p] = true
		}
		for _, p := range plan.SkillEntries {
			targets[p] = true
		}
		for _, o := range originals {
			if targets[o] {
				plan.Restorable = append(plan.Restorable, o)
			}
		}
	}
	return plan, nil
}

// ExecuteClean removes everything the plan names and restores the
// originals recorded in the latest backup set.
func ExecuteClean(plan *CleanPlan, ops *fsops.Ops) (*CleanResult, error) {
	res := &CleanResult{DryRun: ops.DryRun}

	for _, path := range plan.RuleFiles {
		if err := ops.RemoveFile(path); err != nil {
			return nil, err
		}
		res.Removed++
	}
	for _, path := range plan.SkillEntries {
		info, err := os.Lstat(path)
		if err != nil {
			continue
		}
		if info.IsDir() {
			err = ops.RemoveManagedTree(path)
		} else {
			err = ops.RemoveFile(path)
		}
		if err != nil {
			return nil, err
		}
		res.Removed++
	}

	if plan.set != nil && len(plan.Restorable) > 0 {
		n, err := plan.set.Restore(plan.Restorable, ops.DryRun)
		if err != nil {
			return nil, err
		}
		res.Restored = n
	}
	return res, nil
}
