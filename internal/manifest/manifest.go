// Package manifest defines the canonical configuration document and its
// normalization rules.
//
// The manifest is the single description of what rulesync manages: the
// rule entries, the active rule and skill targets, and the AGENTS.md
// output configuration. Target entries appear in two Manifest forms, a
// bare name or a full object; Normalize folds both into one canonical
// Target record so nothing downstream ever branches on input shape.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SchemaVersion is written into new manifests.
const SchemaVersion = "1.0"

// Rule is one canonical rule entry.
type Rule struct {
	ID           string      `yaml:"id"`
	File         string      `yaml:"file"`
	ImportedFrom string      `yaml:"imported_from"`
	Cursor       *CursorMeta `yaml:"cursor,omitempty"`
	Exclude      []string    `yaml:"exclude,omitempty"`
}

// CursorMeta holds the Cursor-specific rule metadata baked into .mdc
// frontmatter.
type CursorMeta struct {
	AlwaysApply *bool  `yaml:"alwaysApply,omitempty"`
	Description string `yaml:"description,omitempty"`
	Globs       string `yaml:"globs,omitempty"`
}

// ExcludesTarget reports whether the rule is excluded for the target.
func (r *Rule) ExcludesTarget(target string) bool {
	for _, e := range r.Exclude {
		if e == target {
			return true
		}
	}
	return false
}

// AgentsMD configures the condensed AGENTS.md output.
type AgentsMD struct {
	Paths    []string `yaml:"paths"`
	Header   string   `yaml:"header,omitempty"`
	Preamble string   `yaml:"preamble,omitempty"`
}

// ActiveTargets holds the raw target selections as written by the user.
type ActiveTargets struct {
	Rules  []TargetRef `yaml:"rules"`
	Skills []TargetRef `yaml:"skills"`
}

// Manifest is the canonical configuration document.
type Manifest struct {
	Version       string        `yaml:"version"`
	Updated       string        `yaml:"updated,omitempty"`
	ImportedFrom  []string      `yaml:"imported_from,omitempty"`
	ActiveTargets ActiveTargets `yaml:"active_targets"`
	Rules         []Rule        `yaml:"rules"`
	AgentsMD      AgentsMD      `yaml:"agents_md,omitempty"`
}

// Load reads and parses the manifest at path.
// The result is raw: call Normalize before handing targets downstream.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s (run 'rulesync init' first)", path)
		}
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// Save writes the manifest to path, stamping the updated date.
func (m *Manifest) Save(path string) error {
	m.Updated = time.Now().UTC().Format("2006-01-02")
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// FindRule returns the rule with the given id, or nil.
func (m *Manifest) FindRule(id string) *Rule {
	for i := range m.Rules {
		if m.Rules[i].ID == id {
			return &m.Rules[i]
		}
	}
	return nil
}

// RemoveRule deletes the rule with the given id.
// Returns false if no such rule exists.
func (m *Manifest) RemoveRule(id string) bool {
	for i := range m.Rules {
		if m.Rules[i].ID == id {
			m.Rules = append(m.Rules[:i], m.Rules[i+1:]...)
			return true
		}
	}
	return false
}

// SetActiveTargets replaces both target selections. Existing skill
// entries keep their sync_mode and conflict_strategy; targets selected
// for the first time get the defaults.
func (m *Manifest) SetActiveTargets(rules, skills []string) {
	old := make(map[string]TargetRef, len(m.ActiveTargets.Skills))
	for _, ref := range m.ActiveTargets.Skills {
		old[ref.Name] = ref
	}

	m.ActiveTargets.Rules = nil
	for _, name := range rules {
		m.ActiveTargets.Rules = append(m.ActiveTargets.Rules, TargetRef{Name: name})
	}
	m.ActiveTargets.Skills = nil
	for _, name := range skills {
		ref, ok := old[name]
		if !ok {
			ref = TargetRef{Name: name}
		}
		m.ActiveTargets.Skills = append(m.ActiveTargets.Skills, ref)
	}
}

// RulesFor returns the rules applicable to a target, honoring each
// rule's exclude set.
func (m *Manifest) RulesFor(target string) []Rule {
	var out []Rule
	for _, r := range m.Rules {
		if !r.ExcludesTarget(target) {
			out = append(out, r)
		}
	}
	return out
}
