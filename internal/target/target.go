// Package target enumerates the consumers rulesync can project into.
//
// The set is closed: each consumer has a fixed native rule format and
// fixed locations relative to the user's home directory. Rendering
// strategy is selected by target identity through the Format tag, never
// by inspecting file contents at run time.
package target

import "path/filepath"

// Format selects the rendering strategy for a target's rules.
type Format int

// Rendering strategies.
const (
	// FormatNone: the target receives no rule output (skills only).
	FormatNone Format = iota
	// FormatRuleFiles: one individually addressable file per rule,
	// with per-rule metadata in a structured frontmatter preamble.
	FormatRuleFiles
	// FormatSectioned: one concatenated document with a named section
	// delimiter per rule.
	FormatSectioned
	// FormatDocument: one concatenated document, rule bodies joined
	// without delimiters.
	FormatDocument
	// FormatSummary: a condensed enumerated list, one line per rule.
	FormatSummary
)

// Spec describes one consumer.
type Spec struct {
	Name        string
	Label       string
	Description string
	Format      Format

	// RulesDir + RuleExt for FormatRuleFiles targets.
	RulesDir string
	RuleExt  string

	// RulesFile for single-document targets.
	RulesFile string

	// SkillsDir is empty for targets without skill delivery.
	SkillsDir string
}

// HasRules reports whether the target receives rule output.
func (s Spec) HasRules() bool {
	return s.Format != FormatNone
}

// HasSkills reports whether the target receives skill delivery.
func (s Spec) HasSkills() bool {
	return s.SkillsDir != ""
}

// All returns the registry resolved against the given home directory,
// in stable order.
func All(home string) []Spec {
	return []Spec{
		{
			Name:        "cursor",
			Label:       "Cursor",
			Description: "rules as .mdc + skills",
			Format:      FormatRuleFiles,
			RulesDir:    filepath.Join(home, ".cursor", "rules"),
			RuleExt:     ".mdc",
			SkillsDir:   filepath.Join(home, ".cursor", "skills"),
		},
		{
			Name:        "codex",
			Label:       "Codex",
			Description: "rules as model-instructions.md + skills",
			Format:      FormatSectioned,
			RulesFile:   filepath.Join(home, ".codex", "model-instructions.md"),
			SkillsDir:   filepath.Join(home, ".codex", "skills"),
		},
		{
			Name:        "claude",
			Label:       "Claude Code",
			Description: "rules as CLAUDE.md",
			Format:      FormatDocument,
			RulesFile:   filepath.Join(home, ".claude", "CLAUDE.md"),
		},
		{
			Name:        "gemini",
			Label:       "Gemini CLI",
			Description: "rules as GEMINI.md + skills",
			Format:      FormatDocument,
			RulesFile:   filepath.Join(home, ".gemini", "GEMINI.md"),
			SkillsDir:   filepath.Join(home, ".gemini", "skills"),
		},
		{
			Name:        "kiro",
			Label:       "Kiro",
			Description: "rules as steering/conventions.md",
			Format:      FormatDocument,
			RulesFile:   filepath.Join(home, ".kiro", "steering", "conventions.md"),
		},
		{
			Name:        "antigravity",
			Label:       "Antigravity",
			Description: "skills only",
			Format:      FormatNone,
			SkillsDir:   filepath.Join(home, ".gemini", "antigravity", "skills"),
		},
		{
			Name:        "agents-md",
			Label:       "AGENTS.md",
			Description: "condensed rules for the cross-tool standard",
			Format:      FormatSummary,
		},
	}
}

// Lookup returns the spec for name, resolved against home.
func Lookup(home, name string) (Spec, bool) {
	for _, s := range All(home) {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// RuleTargets returns the names of all targets that accept rules.
func RuleTargets(home string) []string {
	var out []string
	for _, s := range All(home) {
		if s.HasRules() {
			out = append(out, s.Name)
		}
	}
	return out
}

// SkillTargets returns the names of all targets that accept skills.
func SkillTargets(home string) []string {
	var out []string
	for _, s := range All(home) {
		if s.HasSkills() {
			out = append(out, s.Name)
		}
	}
	return out
}
