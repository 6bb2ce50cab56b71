package skills

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/gorewood/rulesync/internal/store"
)

// FindManaged returns the managed entries (symlinks and sidecar-marked
// copies) in a target's skill directory. This is the reversal scan
// used by clean; unmanaged entries are never reported.
func FindManaged(targetDir string, layout store.Layout) ([]string, error) {
	entries, err := os.ReadDir(targetDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var found []string
	for _, e := range entries {
		path := filepath.Join(targetDir, e.Name())
		if Classify(path, layout) != Unmanaged {
			found = append(found, path)
		}
	}
	sort.Strings(found)
	return found, nil
}
