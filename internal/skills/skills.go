// Package skills projects canonical skill directories into each
// target's skill directory.
//
// Delivery is a per-target state machine. Existing entries are first
// classified as managed-symlink (a link resolving into the canonical
// skills store), managed-copy (a directory carrying a valid provenance
// sidecar), or unmanaged (everything else, including sidecars with
// foreign sources). Managed entries are always replaced in place when
// out of date and removed unconditionally when their canonical source
// is gone; unmanaged entries colliding with a canonical skill name are
// handled by the target's conflict strategy. Entries unrelated to any
// canonical skill are never touched.
package skills

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gorewood/rulesync/internal/fsops"
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/marker"
	"github.com/gorewood/rulesync/internal/store"
)

// Classification of an existing entry in a target's skill directory.
type Classification int

// Entry classifications.
const (
	Unmanaged Classification = iota
	ManagedSymlink
	ManagedCopy
)

// Result reports what one target's delivery pass did.
type Result struct {
	Target    string   `json:"target"`
	Linked    []string `json:"linked,omitempty"`
	Copied    []string `json:"copied,omitempty"`
	Archived  []string `json:"archived,omitempty"`
	Removed   []string `json:"removed,omitempty"`
	Unchanged []string `json:"unchanged,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Classify inspects a single entry path and decides whether the engine
// owns it. A sidecar whose declared source does not resolve into the
// canonical store is foreign provenance: the directory belongs to some
// other tool or user and classifies as unmanaged.
func Classify(path string, layout store.Layout) Classification {
	info, err := os.Lstat(path)
	if err != nil {
		return Unmanaged
	}
	if info.Mode()&os.ModeSymlink != 0 {
		dest, err := os.Readlink(path)
		if err != nil {
			return Unmanaged
		}
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(filepath.Dir(path), dest)
		}
		if layout.ContainsSkill(dest) {
			return ManagedSymlink
		}
		return Unmanaged
	}
	if !info.IsDir() {
		return Unmanaged
	}
	sc, err := marker.ReadSidecar(path)
	if err != nil {
		return Unmanaged
	}
	if !layout.ContainsSkill(sc.Source) {
		return Unmanaged
	}
	return ManagedCopy
}

// List returns the canonical skill names, sorted.
func List(layout store.Layout) ([]string, error) {
	entries, err := os.ReadDir(layout.SkillsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Deliver synchronizes one target's skill directory with the canonical
// set, applying the target's sync_mode and conflict_strategy.
func Deliver(t manifest.Target, targetDir string, layout store.Layout, ops *fsops.Ops, now time.Time) (*Result, error) {
	res := &Result{Target: t.Name}

	canonical, err := List(layout)
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(canonical))
	for _, name := range canonical {
		want[name] = true
	}

	// Pass 1: remove managed entries whose canonical source is gone.
	// Staleness removal is unconditional; conflict_strategy only
	// governs unmanaged content.
	existing, err := os.ReadDir(targetDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, e := range existing {
		if want[e.Name()] {
			continue
		}
		path := filepath.Join(targetDir, e.Name())
		switch Classify(path, layout) {
		case ManagedSymlink:
			if err := ops.RemoveFile(path); err != nil {
				return nil, err
			}
		case ManagedCopy:
			if err := ops.RemoveManagedTree(path); err != nil {
				return nil, err
			}
		default:
			continue
		}
		res.Removed = append(res.Removed, path)
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("removed stale skill %s (no canonical source)", path))
	}

	// Pass 2: ensure every canonical skill is delivered.
	for _, name := range canonical {
		if err := deliverOne(t, name, targetDir, layout, ops, now, res); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// deliverOne brings a single skill at the target up to date.
func deliverOne(t manifest.Target, name, targetDir string, layout store.Layout, ops *fsops.Ops, now time.Time, res *Result) error {
	link := filepath.Join(targetDir, name)
	source := layout.SkillPath(name)

	switch Classify(link, layout) {
	case ManagedSymlink:
		if t.SyncMode == manifest.SyncSymlink && symlinkCurrent(link, source) {
			res.Unchanged = append(res.Unchanged, link)
			return nil
		}
		// Wrong destination or mode switched to copy: replace in place.
		if err := ops.RemoveFile(link); err != nil {
			return err
		}

	case ManagedCopy:
		if t.SyncMode == manifest.SyncCopy {
			equal, err := treesEqual(source, link)
			if err != nil {
				return err
			}
			if equal {
				res.Unchanged = append(res.Unchanged, link)
				return nil
			}
		}
		// Managed content is always replaceable, never archived.
		if err := ops.RemoveManagedTree(link); err != nil {
			return err
		}

	case Unmanaged:
		if _, err := os.Lstat(link); err == nil {
			if err := resolveConflict(t, name, link, layout, ops, res); err != nil {
				return err
			}
		}
	}

	return create(t, name, link, source, ops, now, res)
}

// resolveConflict clears unmanaged content occupying a skill's path
// according to the target's conflict strategy. Archive moves the
// content, without deletion, into the store's archive directory keyed
// <target>-<name> so identical skill names from different targets do
// not collide.
func resolveConflict(t manifest.Target, name, link string, layout store.Layout, ops *fsops.Ops, res *Result) error {
	if t.ConflictStrategy == manifest.ConflictArchive {
		key := t.Name + "-" + name
		dest := filepath.Join(layout.ArchiveDir(), key)
		// A prior conflict may already hold the key; later conflicts
		// take a numeric suffix instead of failing the pass.
		for n := 2; ; n++ {
			if _, err := os.Lstat(dest); err != nil {
				break
			}
			key = fmt.Sprintf("%s-%s-%d", t.Name, name, n)
			dest = filepath.Join(layout.ArchiveDir(), key)
		}
		if err := ops.Rename(link, dest); err != nil {
			return err
		}
		res.Archived = append(res.Archived, key)
		return nil
	}

	info, err := os.Lstat(link)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return ops.RemoveTree(link)
	}
	return ops.RemoveFile(link)
}

// create materializes a skill at the target per the sync mode.
func create(t manifest.Target, name, link, source string, ops *fsops.Ops, now time.Time, res *Result) error {
	if t.SyncMode == manifest.SyncCopy {
		if err := ops.CopyTree(source, link); err != nil {
			return err
		}
		sidecar, err := marker.RenderSidecar(source, now)
		if err != nil {
			return err
		}
		if _, err := ops.WriteFile(filepath.Join(link, marker.SidecarName), sidecar, nil); err != nil {
			return err
		}
		res.Copied = append(res.Copied, link)
		return nil
	}
	if err := ops.Symlink(source, link); err != nil {
		return err
	}
	res.Linked = append(res.Linked, link)
	return nil
}

// symlinkCurrent reports whether link already points at source.
func symlinkCurrent(link, source string) bool {
	dest, err := os.Readlink(link)
	if err != nil {
		return false
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(link), dest)
	}
	resolved := filepath.Clean(dest)
	if r, err := filepath.EvalSymlinks(dest); err == nil {
		resolved = r
	}
	want := filepath.Clean(source)
	if r, err := filepath.EvalSymlinks(source); err == nil {
		want = r
	}
	return resolved == want
}

// treesEqual compares a canonical skill directory against a managed
// copy, ignoring the provenance sidecar. Used to keep repeated syncs
// from rewriting up-to-date copies.
func treesEqual(canonical, copied string) (bool, error) {
	canonFiles, err := snapshotTree(canonical, "")
	if err != nil {
		return false, err
	}
	copyFiles, err := snapshotTree(copied, marker.SidecarName)
	if err != nil {
		return false, err
	}
	if len(canonFiles) != len(copyFiles) {
		return false, nil
	}
	for rel, canonPath := range canonFiles {
		copyPath, ok := copyFiles[rel]
		if !ok {
			return false, nil
		}
		a, err := os.ReadFile(canonPath)
		if err != nil {
			return false, err
		}
		b, err := os.ReadFile(copyPath)
		if err != nil {
			return false, err
		}
		if !bytes.Equal(a, b) {
			return false, nil
		}
	}
	return true, nil
}

// snapshotTree maps relative file paths to absolute ones, skipping
// symlinks and the named file.
func snapshotTree(root, skip string) (map[string]string, error) {
	out := make(map[string]string)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if skip != "" && rel == skip {
			return nil
		}
		out[rel] = path
		return nil
	})
	return out, err
}
