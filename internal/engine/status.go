package engine

import (
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/skills"
	"github.com/gorewood/rulesync/internal/store"
)

// RuleStatus is one rule entry condensed for display.
type RuleStatus struct {
	ID           string   `json:"id"`
	File         string   `json:"file"`
	ImportedFrom string   `json:"imported_from"`
	Description  string   `json:"description,omitempty"`
	AlwaysApply  bool     `json:"always_apply,omitempty"`
	Globs        string   `json:"globs,omitempty"`
	Exclude      []string `json:"exclude,omitempty"`
}

// StatusReport is the full configuration and state snapshot.
type StatusReport struct {
	Rules         []RuleStatus `json:"rules"`
	RuleTargets   []string     `json:"rule_targets"`
	SkillTargets  []string     `json:"skill_targets"`
	Skills        []string     `json:"skills"`
	Archived      []string     `json:"archived_skills"`
	AgentsMDPaths []string     `json:"agents_md_paths"`
	LastSynced    string       `json:"last_synced"`
}

// Status assembles the report without touching any target directory.
func Status(layout store.Layout, man *manifest.Manifest) (*StatusReport, error) {
	norm, err := man.Normalize()
	if err != nil {
		return nil, err
	}

	rep := &StatusReport{
		AgentsMDPaths: man.AgentsMD.Paths,
		LastSynced:    man.Updated,
	}
	if rep.LastSynced == "" {
		rep.LastSynced = "never"
	}
	for _, t := range norm.Rules {
		rep.RuleTargets = append(rep.RuleTargets, t.Name)
	}
	for _, t := range norm.Skills {
		rep.SkillTargets = append(rep.SkillTargets, t.Name)
	}
	for _, r := range man.Rules {
		rs := RuleStatus{
			ID:           r.ID,
			File:         r.File,
			ImportedFrom: r.ImportedFrom,
			Exclude:      r.Exclude,
		}
		if r.Cursor != nil {
			rs.Description = r.Cursor.Description
			rs.Globs = r.Cursor.Globs
			if r.Cursor.AlwaysApply != nil {
				rs.AlwaysApply = *r.Cursor.AlwaysApply
			}
		}
		rep.Rules = append(rep.Rules, rs)
	}

	if rep.Skills, err = skills.List(layout); err != nil {
		return nil, err
	}
	if rep.Archived, err = skills.ListArchived(layout); err != nil {
		return nil, err
	}
	return rep, nil
}
