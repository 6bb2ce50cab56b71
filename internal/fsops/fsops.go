// Package fsops performs the engine's effectful file operations.
//
// All target-directory writes and removals go through an Ops value,
// which threads the run's backup set, honors dry-run and diff modes,
// and records every action in a journal for structured reporting. The
// canonical store is never written through fsops during sync; it only
// covers the shared agent directories.
package fsops

import (
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/gorewood/rulesync/internal/backup"
)

// Logger receives detail lines from file operations. A *output.Printer
// satisfies it; nil disables logging.
type Logger interface {
	Verbosef(format string, args ...any)
	Warn(format string, args ...any)
}

// Action classifies a journal entry.
type Action string

// Journal actions.
const (
	ActionWrite     Action = "write"
	ActionRemove    Action = "remove"
	ActionUnchanged Action = "unchanged"
)

// Change is one recorded file operation.
type Change struct {
	Path   string `json:"path"`
	Action Action `json:"action"`
	Diff   string `json:"diff,omitempty"`
}

// Ops carries the effect context for one synchronization run.
type Ops struct {
	Backup  *backup.Set
	DryRun  bool
	Diff    bool
	Log     Logger
	changes []Change
}

// Changes returns the journal of operations performed (or, in dry-run,
// that would have been performed).
func (o *Ops) Changes() []Change {
	return o.changes
}

func (o *Ops) verbosef(format string, args ...any) {
	if o.Log != nil {
		o.Log.Verbosef(format, args...)
	}
}

// record appends a journal entry.
func (o *Ops) record(path string, action Action, diff string) {
	o.changes = append(o.changes, Change{Path: path, Action: action, Diff: diff})
}

// sameContent compares new content against the file on disk after
// applying norm to both sides. norm lets generated-file comparison
// ignore the provenance timestamp line.
func sameContent(path, content string, norm func(string) string) bool {
	existing, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	a, b := string(existing), content
	if norm != nil {
		a, b = norm(a), norm(b)
	}
	return a == b
}

// WriteFile writes content to path, snapshotting any pre-existing file
// first. When norm is non-nil and the on-disk content is equal modulo
// norm, the write is skipped entirely: no backup, no mtime churn, and
// a byte-identical second run.
func (o *Ops) WriteFile(path, content string, norm func(string) string) (Action, error) {
	if sameContent(path, content, norm) {
		o.record(path, ActionUnchanged, "")
		o.verbosef("%s (unchanged)", path)
		return ActionUnchanged, nil
	}

	diff := ""
	if o.Diff {
		diff = o.unifiedDiff(path, content)
	}
	o.record(path, ActionWrite, diff)

	if o.DryRun {
		o.verbosef("[dry-run] would write %s (%d bytes)", path, len(content))
		return ActionWrite, nil
	}
	if err := o.Backup.Snapshot(path); err != nil {
		return ActionWrite, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ActionWrite, err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return ActionWrite, err
	}
	o.verbosef("wrote %s", path)
	return ActionWrite, nil
}

// RemoveFile deletes a file or symlink, snapshotting regular files
// first.
func (o *Ops) RemoveFile(path string) error {
	o.record(path, ActionRemove, "")
	if o.DryRun {
		o.verbosef("[dry-run] would remove %s", path)
		return nil
	}
	if err := o.Backup.Snapshot(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	o.verbosef("removed %s", path)
	return nil
}

// RemoveTree deletes a directory tree, snapshotting it first.
func (o *Ops) RemoveTree(path string) error {
	o.record(path, ActionRemove, "")
	if o.DryRun {
		o.verbosef("[dry-run] would remove %s", path)
		return nil
	}
	if err := o.Backup.Snapshot(path); err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return err
	}
	o.verbosef("removed %s", path)
	return nil
}

// RemoveManagedTree deletes a directory tree the engine provably owns.
// Managed content is reproducible from the canonical store, so it is
// not snapshotted.
func (o *Ops) RemoveManagedTree(path string) error {
	o.record(path, ActionRemove, "")
	if o.DryRun {
		o.verbosef("[dry-run] would remove %s", path)
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return err
	}
	o.verbosef("removed %s", path)
	return nil
}

// Rename moves a file or directory, snapshotting the source first so a
// conflict-archive move stays reversible.
func (o *Ops) Rename(oldPath, newPath string) error {
	o.record(newPath, ActionWrite, "")
	if o.DryRun {
		o.verbosef("[dry-run] would move %s -> %s", oldPath, newPath)
		return nil
	}
	if err := o.Backup.Snapshot(oldPath); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return err
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}
	o.verbosef("moved %s -> %s", oldPath, newPath)
	return nil
}

// CopyTree copies a directory recursively to a fresh destination.
// Symlinks inside the source are skipped: delivery recreates content,
// it does not relay links. The destination is expected to have been
// cleared (and thereby snapshotted) beforehand.
func (o *Ops) CopyTree(src, dst string) error {
	o.record(dst, ActionWrite, "")
	if o.DryRun {
		o.verbosef("[dry-run] would copy %s -> %s", src, dst)
		return nil
	}
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(dst, rel)
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if info.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(dest, data, info.Mode().Perm())
	})
	if err != nil {
		return err
	}
	o.verbosef("copied %s -> %s", src, dst)
	return nil
}

// Symlink creates a symlink at link pointing to target.
// Symlinks are never backed up; they are cheap to recreate.
func (o *Ops) Symlink(target, link string) error {
	o.record(link, ActionWrite, "")
	if o.DryRun {
		o.verbosef("[dry-run] would symlink %s -> %s", link, target)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return err
	}
	if err := os.Symlink(target, link); err != nil {
		return err
	}
	o.verbosef("symlinked %s -> %s", link, target)
	return nil
}

// unifiedDiff renders a line-level diff of the on-disk file against
// the new content.
func (o *Ops) unifiedDiff(path, content string) string {
	existing, err := os.ReadFile(path)
	if err != nil {
		existing = nil
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(existing)),
		B:        difflib.SplitLines(content),
		FromFile: path,
		ToFile:   path + " (new)",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return text
}
