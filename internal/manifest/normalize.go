package manifest

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sync modes for skill delivery.
const (
	SyncSymlink = "symlink"
	SyncCopy    = "copy"
)

// Conflict strategies for unmanaged content at a delivery path.
const (
	ConflictOverwrite = "overwrite"
	ConflictArchive   = "archive"
)

var (
	allowedSyncModes = []string{SyncSymlink, SyncCopy}
	allowedConflicts = []string{ConflictOverwrite, ConflictArchive}
)

// TargetRef is a raw target entry as it appears in the manifest. It
// accepts either a bare name or an object form; decoding preserves
// exactly what was written so Normalize can validate it.
type TargetRef struct {
	Name             string `yaml:"name"`
	SyncMode         string `yaml:"sync_mode,omitempty"`
	ConflictStrategy string `yaml:"conflict_strategy,omitempty"`
}

// UnmarshalYAML accepts the compact scalar form ("cursor") and the
// object form ({name: cursor, sync_mode: copy, ...}).
func (t *TargetRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		t.Name = node.Value
		return nil
	}
	type plain TargetRef
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*t = TargetRef(p)
	return nil
}

// MarshalYAML emits the compact scalar form when the entry carries only
// defaults, keeping hand-edited manifests tidy.
func (t TargetRef) MarshalYAML() (any, error) {
	if t.SyncMode == "" && t.ConflictStrategy == "" {
		return t.Name, nil
	}
	type plain TargetRef
	return plain(t), nil
}

// Target is the canonical, fully populated target record. Downstream
// components consume only this form.
type Target struct {
	Name             string
	SyncMode         string
	ConflictStrategy string
}

// Normalized holds the fully populated active target sets.
type Normalized struct {
	Rules  []Target
	Skills []Target
}

// ValidationError reports an invalid manifest value, naming the
// offending entry and the allowed value set.
type ValidationError struct {
	Entry   string
	Field   string
	Value   string
	Allowed []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("target %q: invalid %s %q (allowed: %s)",
		e.Entry, e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// Normalize validates the manifest's active targets and produces
// canonical Target records with all fields populated. It is total over
// valid input: every entry, scalar or object, yields a record with
// sync_mode and conflict_strategy set (defaults symlink/overwrite).
//
// sync_mode and conflict_strategy on rule targets are accepted but
// carry no meaning; they are still validated so a typo does not hide
// in the manifest. Normalize reads nothing from disk and mutates
// nothing.
func (m *Manifest) Normalize() (*Normalized, error) {
	rules, err := normalizeRefs(m.ActiveTargets.Rules)
	if err != nil {
		return nil, err
	}
	skills, err := normalizeRefs(m.ActiveTargets.Skills)
	if err != nil {
		return nil, err
	}
	if err := checkRuleIDs(m.Rules); err != nil {
		return nil, err
	}
	return &Normalized{Rules: rules, Skills: skills}, nil
}

func normalizeRefs(refs []TargetRef) ([]Target, error) {
	out := make([]Target, 0, len(refs))
	for _, ref := range refs {
		t := Target{
			Name:             ref.Name,
			SyncMode:         ref.SyncMode,
			ConflictStrategy: ref.ConflictStrategy,
		}
		if t.SyncMode == "" {
			t.SyncMode = SyncSymlink
		}
		if t.ConflictStrategy == "" {
			t.ConflictStrategy = ConflictOverwrite
		}
		if !contains(allowedSyncModes, t.SyncMode) {
			return nil, &ValidationError{
				Entry: ref.Name, Field: "sync_mode",
				Value: ref.SyncMode, Allowed: allowedSyncModes,
			}
		}
		if !contains(allowedConflicts, t.ConflictStrategy) {
			return nil, &ValidationError{
				Entry: ref.Name, Field: "conflict_strategy",
				Value: ref.ConflictStrategy, Allowed: allowedConflicts,
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// checkRuleIDs enforces id uniqueness across all rule entries.
func checkRuleIDs(rules []Rule) error {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if seen[r.ID] {
			return fmt.Errorf("duplicate rule id %q in manifest", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

// Find returns the skill target with the given name, or nil.
func (n *Normalized) Find(name string) *Target {
	for i := range n.Skills {
		if n.Skills[i].Name == name {
			return &n.Skills[i]
		}
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
