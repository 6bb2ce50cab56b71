// Package store resolves the layout of the canonical rulesync store.
//
// The store is the single authoritative location for rule and skill
// content. Everything under it is owned by rulesync; agent directories
// (~/.cursor, ~/.codex, ...) are shared with the user and only ever
// receive generated artifacts.
package store

import (
	"os"
	"path/filepath"
	"strings"
)

// Layout names the fixed locations inside a canonical store root.
type Layout struct {
	Root string
}

// Resolve returns the store layout.
//
// Resolution:
//   - $RULESYNC_HOME if set (explicit override, used by tests)
//   - ~/.rulesync otherwise
func Resolve() (Layout, error) {
	if dir := os.Getenv("RULESYNC_HOME"); dir != "" {
		return Layout{Root: dir}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, err
	}
	return Layout{Root: filepath.Join(home, ".rulesync")}, nil
}

// ManifestPath returns the manifest file location.
func (l Layout) ManifestPath() string {
	return filepath.Join(l.Root, "manifest.yaml")
}

// RulesDir returns the canonical rule bodies directory.
func (l Layout) RulesDir() string {
	return filepath.Join(l.Root, "rules")
}

// SkillsDir returns the canonical skills directory.
func (l Layout) SkillsDir() string {
	return filepath.Join(l.Root, "skills")
}

// ArchiveDir returns the directory holding archived skills and
// conflict-archived target content, keyed <target>-<name>.
func (l Layout) ArchiveDir() string {
	return filepath.Join(l.Root, "skills-archive")
}

// BackupsDir returns the root of the timestamped backup sets.
func (l Layout) BackupsDir() string {
	return filepath.Join(l.Root, "backups")
}

// RulePath returns the absolute path of a canonical rule body file.
func (l Layout) RulePath(file string) string {
	return filepath.Join(l.RulesDir(), file)
}

// SkillPath returns the absolute path of a canonical skill directory.
func (l Layout) SkillPath(name string) string {
	return filepath.Join(l.SkillsDir(), name)
}

// Exists reports whether the store root has been initialized.
func (l Layout) Exists() bool {
	info, err := os.Stat(l.Root)
	return err == nil && info.IsDir()
}

// ContainsSkill reports whether path lies inside the canonical skills
// directory. Used to decide whether a symlink target or a provenance
// marker source actually points at content we own. The path does not
// have to exist: a marker may reference a skill that was since
// removed, and that case must still classify as ours (stale).
func (l Layout) ContainsSkill(path string) bool {
	resolved := filepath.Clean(path)
	if r, err := filepath.EvalSymlinks(path); err == nil {
		resolved = r
	}
	skills := l.SkillsDir()
	if r, err := filepath.EvalSymlinks(skills); err == nil {
		skills = r
	}
	rel, err := filepath.Rel(skills, resolved)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
