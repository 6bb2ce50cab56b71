package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gorewood/rulesync/internal/fsops"
	"github.com/gorewood/rulesync/internal/store"
)

// Archive moves canonical skills out of the active set. The next sync
// removes their managed entries at every target. Returns the names
// actually moved.
func Archive(names []string, layout store.Layout, ops *fsops.Ops) ([]string, error) {
	var moved []string
	for _, name := range names {
		src := layout.SkillPath(name)
		if _, err := os.Stat(src); err != nil {
			return moved, fmt.Errorf("skill %q is not active", name)
		}
		dest := filepath.Join(layout.ArchiveDir(), name)
		if _, err := os.Lstat(dest); err == nil {
			return moved, fmt.Errorf("skill %q is already archived", name)
		}
		if err := ops.Rename(src, dest); err != nil {
			return moved, err
		}
		moved = append(moved, name)
	}
	return moved, nil
}

// Restore moves archived skills back into the active set so the next
// sync delivers them again.
func Restore(names []string, layout store.Layout, ops *fsops.Ops) ([]string, error) {
	var moved []string
	for _, name := range names {
		src := filepath.Join(layout.ArchiveDir(), name)
		if _, err := os.Stat(src); err != nil {
			return moved, fmt.Errorf("skill %q is not archived", name)
		}
		dest := layout.SkillPath(name)
		if _, err := os.Lstat(dest); err == nil {
			return moved, fmt.Errorf("skill %q is already active", name)
		}
		if err := ops.Rename(src, dest); err != nil {
			return moved, err
		}
		moved = append(moved, name)
	}
	return moved, nil
}

// ListArchived returns the names of archived skills, sorted.
// Conflict-archive entries moved aside during delivery live in the
// same directory under a <target>-<name> key and are listed as-is.
func ListArchived(layout store.Layout) ([]string, error) {
	entries, err := os.ReadDir(layout.ArchiveDir())
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
