package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/rulesync/internal/engine"
	"github.com/gorewood/rulesync/internal/fsops"
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/skills"
	"github.com/gorewood/rulesync/internal/store"
)

// --- Shared types ---

// RuleInfo is a condensed canonical rule for output.
type RuleInfo struct {
	ID           string   `json:"id"                      jsonschema:"rule identifier"`
	File         string   `json:"file"                    jsonschema:"filename inside the canonical rules directory"`
	ImportedFrom string   `json:"imported_from"           jsonschema:"source the rule was imported from"`
	Description  string   `json:"description,omitempty"   jsonschema:"short description shown in Cursor's rule picker"`
	AlwaysApply  bool     `json:"always_apply,omitempty"  jsonschema:"whether Cursor applies the rule unconditionally"`
	Exclude      []string `json:"exclude,omitempty"       jsonschema:"targets that skip this rule"`
}

// TargetRules summarizes rule generation for one target.
type TargetRules struct {
	Target    string `json:"target"    jsonschema:"target name"`
	Rules     int    `json:"rules"     jsonschema:"number of rules rendered"`
	Written   int    `json:"written"   jsonschema:"files written or rewritten"`
	Unchanged int    `json:"unchanged" jsonschema:"files left untouched"`
	Removed   int    `json:"removed"   jsonschema:"stale generated files removed"`
}

// TargetSkills summarizes skill delivery for one target.
type TargetSkills struct {
	Target    string   `json:"target"             jsonschema:"target name"`
	Linked    []string `json:"linked,omitempty"   jsonschema:"skills delivered as symlinks"`
	Copied    []string `json:"copied,omitempty"   jsonschema:"skills delivered as copies"`
	Archived  []string `json:"archived,omitempty" jsonschema:"conflicting entries moved to the archive"`
	Removed   []string `json:"removed,omitempty"  jsonschema:"stale managed entries removed"`
	Unchanged int      `json:"unchanged"          jsonschema:"entries already up to date"`
}

// SyncSummary aggregates one full synchronization pass.
type SyncSummary struct {
	Rules    []TargetRules  `json:"rules,omitempty"     jsonschema:"rule generation per target"`
	Skills   []TargetSkills `json:"skills,omitempty"    jsonschema:"skill delivery per target"`
	Warnings []string       `json:"warnings,omitempty"  jsonschema:"non-fatal warnings"`
	BackupID string         `json:"backup_id,omitempty" jsonschema:"backup set displaced files were saved to"`
	DryRun   bool           `json:"dry_run,omitempty"   jsonschema:"whether this was a preview"`
}

func summarize(res *engine.SyncResult) SyncSummary {
	out := SyncSummary{
		Warnings: res.Warnings,
		BackupID: res.BackupID,
		DryRun:   res.DryRun,
	}
	for _, r := range res.Rules {
		out.Rules = append(out.Rules, TargetRules{
			Target:    r.Target,
			Rules:     r.Rules,
			Written:   len(r.Written),
			Unchanged: len(r.Unchanged),
			Removed:   len(r.Removed),
		})
		out.Warnings = append(out.Warnings, r.Warnings...)
	}
	for _, s := range res.Skills {
		out.Skills = append(out.Skills, TargetSkills{
			Target:    s.Target,
			Linked:    s.Linked,
			Copied:    s.Copied,
			Archived:  s.Archived,
			Removed:   s.Removed,
			Unchanged: len(s.Unchanged),
		})
		out.Warnings = append(out.Warnings, s.Warnings...)
	}
	return out
}

// loadManifest reads the manifest behind the store layout.
func loadManifest(layout store.Layout) (*manifest.Manifest, error) {
	return manifest.Load(layout.ManifestPath())
}

// begin opens a backup set and the effect layer for a mutating tool.
func begin(layout store.Layout, command string, dryRun bool) (*fsops.Ops, error) {
	ops, err := engine.Begin(layout, command, engine.Options{DryRun: dryRun})
	if err != nil {
		return nil, fmt.Errorf("opening backup set: %w", err)
	}
	return ops, nil
}

// runSync performs a full pass and saves the manifest stamp.
func runSync(layout store.Layout, home string, man *manifest.Manifest, ops *fsops.Ops, only string) (SyncSummary, error) {
	res, err := engine.Sync(home, layout, man, ops, only, time.Now())
	if err != nil {
		return SyncSummary{}, fmt.Errorf("syncing: %w", err)
	}
	return summarize(res), nil
}

// --- Status tool ---

// StatusInput is the input for the status tool (no parameters needed).
type StatusInput struct{}

// StatusOutput is the output for the status tool.
type StatusOutput struct {
	Rules         []RuleInfo `json:"rules"           jsonschema:"canonical rules"`
	RuleTargets   []string   `json:"rule_targets"    jsonschema:"targets receiving rule syncs"`
	SkillTargets  []string   `json:"skill_targets"   jsonschema:"targets receiving skill delivery"`
	Skills        []string   `json:"skills"          jsonschema:"active canonical skills"`
	Archived      []string   `json:"archived_skills" jsonschema:"archived skills"`
	AgentsMDPaths []string   `json:"agents_md_paths" jsonschema:"workspace AGENTS.md paths"`
	LastSynced    string     `json:"last_synced"     jsonschema:"date of the last sync, or never"`
}

func handleStatus(layout store.Layout) mcp.ToolHandlerFor[StatusInput, StatusOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
		man, err := loadManifest(layout)
		if err != nil {
			return nil, StatusOutput{}, err
		}
		rep, err := engine.Status(layout, man)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("collecting status: %w", err)
		}

		out := StatusOutput{
			RuleTargets:   rep.RuleTargets,
			SkillTargets:  rep.SkillTargets,
			Skills:        rep.Skills,
			Archived:      rep.Archived,
			AgentsMDPaths: rep.AgentsMDPaths,
			LastSynced:    rep.LastSynced,
		}
		for _, r := range rep.Rules {
			out.Rules = append(out.Rules, RuleInfo{
				ID:           r.ID,
				File:         r.File,
				ImportedFrom: r.ImportedFrom,
				Description:  r.Description,
				AlwaysApply:  r.AlwaysApply,
				Exclude:      r.Exclude,
			})
		}
		return nil, out, nil
	}
}

// --- List archived tool ---

// ListArchivedInput is the input for the list_archived tool (no parameters needed).
type ListArchivedInput struct{}

// ListArchivedOutput is the output for the list_archived tool.
type ListArchivedOutput struct {
	Skills []string `json:"skills" jsonschema:"archived skill names"`
}

func handleListArchived(layout store.Layout) mcp.ToolHandlerFor[ListArchivedInput, ListArchivedOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ ListArchivedInput) (*mcp.CallToolResult, ListArchivedOutput, error) {
		names, err := skills.ListArchived(layout)
		if err != nil {
			return nil, ListArchivedOutput{}, fmt.Errorf("listing archive: %w", err)
		}
		return nil, ListArchivedOutput{Skills: names}, nil
	}
}

// --- Sync tool ---

// SyncInput is the input for the sync tool.
type SyncInput struct {
	Target string `json:"target,omitempty"  jsonschema:"restrict the pass to this target"`
	DryRun bool   `json:"dry_run,omitempty" jsonschema:"preview without writing"`
}

func handleSync(layout store.Layout, home string) mcp.ToolHandlerFor[SyncInput, SyncSummary] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input SyncInput) (*mcp.CallToolResult, SyncSummary, error) {
		man, err := loadManifest(layout)
		if err != nil {
			return nil, SyncSummary{}, err
		}
		ops, err := begin(layout, "sync", input.DryRun)
		if err != nil {
			return nil, SyncSummary{}, err
		}
		out, err := runSync(layout, home, man, ops, input.Target)
		return nil, out, err
	}
}

// --- Set config tool ---

// SetConfigInput is the input for the set_config tool.
type SetConfigInput struct {
	Key   string `json:"key"   jsonschema:"configuration key, e.g. agents_md.paths"`
	Value string `json:"value" jsonschema:"new value; comma-separated for array keys"`
}

// SetConfigOutput is the output for the set_config tool.
type SetConfigOutput struct {
	Key   string `json:"key"   jsonschema:"configuration key that was set"`
	Value string `json:"value" jsonschema:"the stored value after parsing"`
}

func handleSetConfig(layout store.Layout) mcp.ToolHandlerFor[SetConfigInput, SetConfigOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input SetConfigInput) (*mcp.CallToolResult, SetConfigOutput, error) {
		man, err := loadManifest(layout)
		if err != nil {
			return nil, SetConfigOutput{}, err
		}
		if err := man.Set(input.Key, input.Value); err != nil {
			return nil, SetConfigOutput{}, err
		}
		if err := man.Save(layout.ManifestPath()); err != nil {
			return nil, SetConfigOutput{}, fmt.Errorf("saving manifest: %w", err)
		}
		stored, err := man.Get(input.Key)
		if err != nil {
			return nil, SetConfigOutput{}, err
		}
		return nil, SetConfigOutput{Key: input.Key, Value: stored}, nil
	}
}

// --- Reconfigure tool ---

// ReconfigureInput is the input for the reconfigure tool.
type ReconfigureInput struct {
	RuleTargets  []string `json:"rule_targets"      jsonschema:"targets that receive rule syncs"`
	SkillTargets []string `json:"skill_targets"     jsonschema:"targets that receive skill delivery"`
	DryRun       bool     `json:"dry_run,omitempty" jsonschema:"preview without writing"`
}

// ReconfigureOutput is the output for the reconfigure tool.
type ReconfigureOutput struct {
	RuleTargets  []string    `json:"rule_targets"  jsonschema:"active rule targets after the change"`
	SkillTargets []string    `json:"skill_targets" jsonschema:"active skill targets after the change"`
	Sync         SyncSummary `json:"sync"          jsonschema:"result of the follow-up sync"`
}

func handleReconfigure(layout store.Layout, home string) mcp.ToolHandlerFor[ReconfigureInput, ReconfigureOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ReconfigureInput) (*mcp.CallToolResult, ReconfigureOutput, error) {
		man, err := loadManifest(layout)
		if err != nil {
			return nil, ReconfigureOutput{}, err
		}
		man.SetActiveTargets(input.RuleTargets, input.SkillTargets)

		ops, err := begin(layout, "reconfigure", input.DryRun)
		if err != nil {
			return nil, ReconfigureOutput{}, err
		}
		if !ops.DryRun {
			if err := man.Save(layout.ManifestPath()); err != nil {
				return nil, ReconfigureOutput{}, fmt.Errorf("saving manifest: %w", err)
			}
		}
		sync, err := runSync(layout, home, man, ops, "")
		if err != nil {
			return nil, ReconfigureOutput{}, err
		}
		return nil, ReconfigureOutput{
			RuleTargets:  input.RuleTargets,
			SkillTargets: input.SkillTargets,
			Sync:         sync,
		}, nil
	}
}

// --- Add rule tool ---

// AddRuleInput is the input for the add_rule tool.
type AddRuleInput struct {
	ID          string   `json:"id"                    jsonschema:"rule identifier; becomes the filename"`
	Content     string   `json:"content"               jsonschema:"markdown content of the rule"`
	Description string   `json:"description,omitempty" jsonschema:"short description shown in Cursor's rule picker"`
	AlwaysApply *bool    `json:"always_apply,omitempty" jsonschema:"whether Cursor applies the rule unconditionally (default true)"`
	Exclude     []string `json:"exclude,omitempty"     jsonschema:"targets that skip this rule"`
	DryRun      bool     `json:"dry_run,omitempty"     jsonschema:"preview without writing"`
}

// AddRuleOutput is the output for the add_rule tool.
type AddRuleOutput struct {
	Rule RuleInfo    `json:"rule" jsonschema:"the rule that was created"`
	Sync SyncSummary `json:"sync" jsonschema:"result of the follow-up sync"`
}

func handleAddRule(layout store.Layout, home string) mcp.ToolHandlerFor[AddRuleInput, AddRuleOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input AddRuleInput) (*mcp.CallToolResult, AddRuleOutput, error) {
		if input.ID == "" {
			return nil, AddRuleOutput{}, fmt.Errorf("rule id is required")
		}
		if input.Content == "" {
			return nil, AddRuleOutput{}, fmt.Errorf("rule content is required")
		}
		man, err := loadManifest(layout)
		if err != nil {
			return nil, AddRuleOutput{}, err
		}
		if man.FindRule(input.ID) != nil {
			return nil, AddRuleOutput{}, fmt.Errorf("rule %q already exists", input.ID)
		}

		alwaysApply := true
		if input.AlwaysApply != nil {
			alwaysApply = *input.AlwaysApply
		}
		ruleFile := input.ID + ".md"

		ops, err := begin(layout, "add-rule", input.DryRun)
		if err != nil {
			return nil, AddRuleOutput{}, err
		}
		if _, err := ops.WriteFile(layout.RulePath(ruleFile), input.Content, nil); err != nil {
			return nil, AddRuleOutput{}, fmt.Errorf("writing rule file: %w", err)
		}

		man.Rules = append(man.Rules, manifest.Rule{
			ID:           input.ID,
			File:         ruleFile,
			ImportedFrom: "mcp",
			Cursor:       &manifest.CursorMeta{AlwaysApply: &alwaysApply, Description: input.Description},
			Exclude:      input.Exclude,
		})
		if !ops.DryRun {
			if err := man.Save(layout.ManifestPath()); err != nil {
				return nil, AddRuleOutput{}, fmt.Errorf("saving manifest: %w", err)
			}
		}
		sync, err := runSync(layout, home, man, ops, "")
		if err != nil {
			return nil, AddRuleOutput{}, err
		}
		return nil, AddRuleOutput{
			Rule: RuleInfo{
				ID:           input.ID,
				File:         ruleFile,
				ImportedFrom: "mcp",
				Description:  input.Description,
				AlwaysApply:  alwaysApply,
				Exclude:      input.Exclude,
			},
			Sync: sync,
		}, nil
	}
}

// --- Remove rule tool ---

// RemoveRuleInput is the input for the remove_rule tool.
type RemoveRuleInput struct {
	ID     string `json:"id"                jsonschema:"rule identifier to remove"`
	DryRun bool   `json:"dry_run,omitempty" jsonschema:"preview without writing"`
}

// RemoveRuleOutput is the output for the remove_rule tool.
type RemoveRuleOutput struct {
	ID   string      `json:"id"   jsonschema:"rule that was removed"`
	Sync SyncSummary `json:"sync" jsonschema:"result of the follow-up sync"`
}

func handleRemoveRule(layout store.Layout, home string) mcp.ToolHandlerFor[RemoveRuleInput, RemoveRuleOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input RemoveRuleInput) (*mcp.CallToolResult, RemoveRuleOutput, error) {
		man, err := loadManifest(layout)
		if err != nil {
			return nil, RemoveRuleOutput{}, err
		}
		rule := man.FindRule(input.ID)
		if rule == nil {
			return nil, RemoveRuleOutput{}, fmt.Errorf("rule %q not found", input.ID)
		}
		ruleFile := rule.File
		man.RemoveRule(input.ID)

		ops, err := begin(layout, "remove-rule", input.DryRun)
		if err != nil {
			return nil, RemoveRuleOutput{}, err
		}
		if err := ops.RemoveFile(layout.RulePath(ruleFile)); err != nil {
			return nil, RemoveRuleOutput{}, fmt.Errorf("removing rule file: %w", err)
		}
		if !ops.DryRun {
			if err := man.Save(layout.ManifestPath()); err != nil {
				return nil, RemoveRuleOutput{}, fmt.Errorf("saving manifest: %w", err)
			}
		}
		sync, err := runSync(layout, home, man, ops, "")
		if err != nil {
			return nil, RemoveRuleOutput{}, err
		}
		return nil, RemoveRuleOutput{ID: input.ID, Sync: sync}, nil
	}
}

// --- Archive / restore skill tools ---

// SkillMoveInput is the input for the archive_skill and restore_skill tools.
type SkillMoveInput struct {
	Names  []string `json:"names"             jsonschema:"skill names to move"`
	DryRun bool     `json:"dry_run,omitempty" jsonschema:"preview without moving"`
}

// SkillMoveOutput is the output for the archive_skill and restore_skill tools.
type SkillMoveOutput struct {
	Moved  []string `json:"moved"             jsonschema:"skills that were moved"`
	DryRun bool     `json:"dry_run,omitempty" jsonschema:"whether this was a preview"`
	Note   string   `json:"note,omitempty"    jsonschema:"follow-up action required"`
}

func handleSkillMove(layout store.Layout, command, note string, move func([]string, store.Layout, *fsops.Ops) ([]string, error)) mcp.ToolHandlerFor[SkillMoveInput, SkillMoveOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input SkillMoveInput) (*mcp.CallToolResult, SkillMoveOutput, error) {
		if len(input.Names) == 0 {
			return nil, SkillMoveOutput{}, fmt.Errorf("at least one skill name is required")
		}
		ops, err := begin(layout, command, input.DryRun)
		if err != nil {
			return nil, SkillMoveOutput{}, err
		}
		moved, err := move(input.Names, layout, ops)
		if err != nil {
			return nil, SkillMoveOutput{}, err
		}
		return nil, SkillMoveOutput{Moved: moved, DryRun: input.DryRun, Note: note}, nil
	}
}

func handleArchiveSkill(layout store.Layout, _ string) mcp.ToolHandlerFor[SkillMoveInput, SkillMoveOutput] {
	return handleSkillMove(layout, "skill-archive",
		"run the sync tool to remove delivered entries", skills.Archive)
}

func handleRestoreSkill(layout store.Layout, _ string) mcp.ToolHandlerFor[SkillMoveInput, SkillMoveOutput] {
	return handleSkillMove(layout, "skill-restore",
		"run the sync tool to deliver again", skills.Restore)
}

// --- Clean tool ---

// CleanInput is the input for the clean tool.
type CleanInput struct {
	DryRun bool `json:"dry_run,omitempty" jsonschema:"preview without removing"`
}

// CleanOutput is the output for the clean tool.
type CleanOutput struct {
	RuleFiles    []string `json:"rule_files"           jsonschema:"generated rule files that were removed"`
	SkillEntries []string `json:"skill_entries"        jsonschema:"managed skill entries that were removed"`
	Restored     int      `json:"restored"             jsonschema:"originals restored from backup"`
	BackupID     string   `json:"backup_id,omitempty"  jsonschema:"backup set the restores came from"`
	DryRun       bool     `json:"dry_run,omitempty"    jsonschema:"whether this was a preview"`
}

func handleClean(layout store.Layout, home string) mcp.ToolHandlerFor[CleanInput, CleanOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input CleanInput) (*mcp.CallToolResult, CleanOutput, error) {
		man, err := loadManifest(layout)
		if err != nil {
			return nil, CleanOutput{}, err
		}
		// Plan before opening a backup set so the restore source stays
		// the previous run.
		plan, err := engine.PlanClean(home, layout, man)
		if err != nil {
			return nil, CleanOutput{}, fmt.Errorf("planning clean: %w", err)
		}
		out := CleanOutput{
			RuleFiles:    plan.RuleFiles,
			SkillEntries: plan.SkillEntries,
			BackupID:     plan.BackupID,
			DryRun:       input.DryRun,
		}
		if plan.Empty() {
			return nil, out, nil
		}
		ops, err := begin(layout, "clean", input.DryRun)
		if err != nil {
			return nil, CleanOutput{}, err
		}
		res, err := engine.ExecuteClean(plan, ops)
		if err != nil {
			return nil, CleanOutput{}, fmt.Errorf("cleaning: %w", err)
		}
		out.Restored = res.Restored
		return nil, out, nil
	}
}
