// Package generate renders canonical rules into each target's native
// format.
//
// Four rendering strategies exist, selected by target identity: one
// file per rule with a frontmatter preamble (Cursor), one sectioned
// document (Codex), one plain concatenated document (Claude Code,
// Gemini CLI, Kiro), and a condensed enumerated summary (AGENTS.md).
// Every artifact starts with the provenance header so later passes and
// the clean reversal can recognize it.
package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorewood/rulesync/internal/frontmatter"
	"github.com/gorewood/rulesync/internal/fsops"
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/marker"
	"github.com/gorewood/rulesync/internal/store"
	"github.com/gorewood/rulesync/internal/target"
)

// SummaryLen caps the derived one-line rule summary in condensed
// output. Carried over from the original format; not user tunable.
const SummaryLen = 120

// SectionPrefix delimits rules in sectioned documents. The importer
// splits on the same heading, so a hand-edited sectioned document
// round-trips into one candidate rule per section.
const SectionPrefix = "## Rule: "

// CanonicalReadError reports an unreadable canonical rule body. It is
// fatal for the whole run: a single canonical store feeds all targets,
// and a missing reference means manifest/store drift that must not be
// papered over.
type CanonicalReadError struct {
	RuleID string
	Path   string
	Err    error
}

func (e *CanonicalReadError) Error() string {
	return fmt.Sprintf("canonical rule %q unreadable at %s: %v", e.RuleID, e.Path, e.Err)
}

func (e *CanonicalReadError) Unwrap() error {
	return e.Err
}

// Result reports what one target's generation pass did.
type Result struct {
	Target    string   `json:"target"`
	Rules     int      `json:"rules"`
	Written   []string `json:"written,omitempty"`
	Unchanged []string `json:"unchanged,omitempty"`
	Removed   []string `json:"removed,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Run generates rule output for one target. The rules slice must
// already be filtered for the target (manifest.RulesFor); now feeds
// the provenance header timestamp.
func Run(spec target.Spec, man *manifest.Manifest, layout store.Layout, ops *fsops.Ops, now time.Time) (*Result, error) {
	res := &Result{Target: spec.Name}
	rules := man.RulesFor(spec.Name)
	res.Rules = len(rules)

	bodies, err := readBodies(rules, layout)
	if err != nil {
		return nil, err
	}

	switch spec.Format {
	case target.FormatRuleFiles:
		return res, genRuleFiles(spec, rules, bodies, ops, now, res)
	case target.FormatSectioned:
		return res, genDocument(spec, rules, bodies, ops, now, res, true)
	case target.FormatDocument:
		return res, genDocument(spec, rules, bodies, ops, now, res, false)
	case target.FormatSummary:
		return res, genSummary(man, rules, bodies, ops, now, res)
	default:
		return res, nil
	}
}

// readBodies loads every canonical rule body up front so a read
// failure aborts before any write happens.
func readBodies(rules []manifest.Rule, layout store.Layout) (map[string]string, error) {
	bodies := make(map[string]string, len(rules))
	for _, r := range rules {
		path := layout.RulePath(r.File)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &CanonicalReadError{RuleID: r.ID, Path: path, Err: err}
		}
		bodies[r.ID] = string(data)
	}
	return bodies, nil
}

// cursorFrontmatter is the metadata preamble baked into .mdc files.
type cursorFrontmatter struct {
	Description string `yaml:"description,omitempty"`
	AlwaysApply *bool  `yaml:"alwaysApply,omitempty"`
	Globs       string `yaml:"globs,omitempty"`
}

// genRuleFiles writes one artifact per rule and cleans up stale
// generated files whose rule no longer exists.
func genRuleFiles(spec target.Spec, rules []manifest.Rule, bodies map[string]string, ops *fsops.Ops, now time.Time, res *Result) error {
	ids := make(map[string]bool, len(rules))
	for _, r := range rules {
		ids[r.ID] = true

		var fm cursorFrontmatter
		if r.Cursor != nil {
			fm = cursorFrontmatter{
				Description: r.Cursor.Description,
				AlwaysApply: r.Cursor.AlwaysApply,
				Globs:       r.Cursor.Globs,
			}
		}
		block, err := frontmatter.Build(fm)
		if err != nil {
			return err
		}

		content := block + "\n\n" + marker.Header(now) + bodies[r.ID]
		path := filepath.Join(spec.RulesDir, r.ID+spec.RuleExt)
		if err := writeArtifact(ops, path, content, res); err != nil {
			return err
		}
	}

	return cleanStale(spec, ids, ops, res)
}

// cleanStale removes generated per-rule artifacts whose identifier no
// longer corresponds to a canonical rule. Files without the provenance
// header are never touched.
func cleanStale(spec target.Spec, ids map[string]bool, ops *fsops.Ops, res *Result) error {
	entries, err := os.ReadDir(spec.RulesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), spec.RuleExt) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), spec.RuleExt)
		if ids[id] {
			continue
		}
		path := filepath.Join(spec.RulesDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		_, body := frontmatter.Split(string(data))
		if !marker.IsGenerated(body) {
			continue
		}
		if err := ops.RemoveFile(path); err != nil {
			return err
		}
		res.Removed = append(res.Removed, path)
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("removed stale generated rule %s (no canonical source)", path))
	}
	return nil
}

// genDocument writes the single concatenated artifact, with or without
// per-rule section delimiters.
func genDocument(spec target.Spec, rules []manifest.Rule, bodies map[string]string, ops *fsops.Ops, now time.Time, res *Result, sectioned bool) error {
	var b strings.Builder
	b.WriteString(marker.Header(now))
	b.WriteString("\n")
	for _, r := range rules {
		if sectioned {
			b.WriteString(SectionPrefix + r.ID + "\n\n")
		}
		b.WriteString(strings.TrimRight(bodies[r.ID], "\n"))
		b.WriteString("\n\n")
	}
	return writeArtifact(ops, spec.RulesFile, b.String(), res)
}

// genSummary writes the condensed enumerated list to every configured
// AGENTS.md path.
func genSummary(man *manifest.Manifest, rules []manifest.Rule, bodies map[string]string, ops *fsops.Ops, now time.Time, res *Result) error {
	if len(man.AgentsMD.Paths) == 0 {
		res.Warnings = append(res.Warnings, "AGENTS.md: no paths configured, skipping")
		return nil
	}

	paths, warnings := ExpandPaths(man.AgentsMD.Paths)
	res.Warnings = append(res.Warnings, warnings...)
	if len(paths) == 0 {
		return nil
	}

	header := man.AgentsMD.Header
	if header == "" {
		header = "# AGENTS Rules"
	}

	var b strings.Builder
	b.WriteString(marker.Header(now))
	b.WriteString(header + "\n\n")
	if man.AgentsMD.Preamble != "" {
		b.WriteString(man.AgentsMD.Preamble + "\n\n")
	}
	for i, r := range rules {
		fmt.Fprintf(&b, "%d. **%s** -- %s\n", i+1, r.ID, Summary(r, bodies[r.ID]))
	}

	for _, path := range paths {
		if err := writeArtifact(ops, path, b.String(), res); err != nil {
			return err
		}
	}
	return nil
}

// Summary derives the one-line description of a rule: the configured
// description when present, else the first non-heading line of the
// body truncated to SummaryLen, else the rule id.
func Summary(r manifest.Rule, body string) string {
	if r.Cursor != nil && r.Cursor.Description != "" {
		return r.Cursor.Description
	}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Truncate on rune boundaries so multibyte content is never cut
		// mid-sequence.
		if runes := []rune(line); len(runes) > SummaryLen {
			return string(runes[:SummaryLen])
		}
		return line
	}
	return r.ID
}

// ExpandPaths resolves the configured AGENTS.md path list: ~ expansion,
// glob patterns, and directory paths normalized to <dir>/AGENTS.md. A
// glob matching nothing produces a warning and is skipped; other paths
// still proceed.
func ExpandPaths(raw []string) (paths []string, warnings []string) {
	home, _ := os.UserHomeDir()
	for _, p := range raw {
		expanded := p
		if strings.HasPrefix(p, "~") && home != "" {
			expanded = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
		if strings.ContainsAny(expanded, "*?[") {
			matches, err := filepath.Glob(expanded)
			if err != nil || len(matches) == 0 {
				warnings = append(warnings, fmt.Sprintf("glob %q matched no files", p))
				continue
			}
			for _, m := range matches {
				paths = append(paths, normalizeAgentsPath(m))
			}
			continue
		}
		paths = append(paths, normalizeAgentsPath(expanded))
	}
	return paths, warnings
}

func normalizeAgentsPath(p string) string {
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return filepath.Join(p, "AGENTS.md")
	}
	return p
}

func writeArtifact(ops *fsops.Ops, path, content string, res *Result) error {
	action, err := ops.WriteFile(path, content, marker.StripTimestamp)
	if err != nil {
		return err
	}
	if action == fsops.ActionUnchanged {
		res.Unchanged = append(res.Unchanged, path)
	} else {
		res.Written = append(res.Written, path)
	}
	return nil
}
