// Package backup implements the non-destructive snapshot store.
//
// Every file the engine is about to overwrite or remove is copied into
// a timestamped backup set before the write, mirroring its original
// location. Sets are immutable once a run completes; later runs create
// new sets rather than touching old ones. A reversal consults the most
// recent set.
//
// The active set is threaded explicitly through the call chain as a
// *Set value; there is no package-level current-backup state.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// metaName is the per-set metadata file. A directory under the backups
// root without it is not a valid set.
const metaName = "meta.yaml"

// Mirror roots inside a set. Paths under the home directory and paths
// elsewhere on the filesystem mirror under separate roots so the two
// never collide and each maps back to its true original location.
const (
	homeMirror = "files-home"
	rootMirror = "files-root"
)

// Meta records how a backup set came to be.
type Meta struct {
	Created string `yaml:"created"`
	Command string `yaml:"command"`
}

// Set is one timestamp-keyed snapshot group for a single run.
type Set struct {
	dir    string
	dryRun bool
	seen   map[string]bool
}

// Begin creates a new backup set under root for the named command.
// In dry-run mode no directory is created and snapshots are no-ops.
func Begin(root, command string, dryRun bool) (*Set, error) {
	ts := time.Now().UTC().Format("20060102T150405Z")
	s := &Set{
		dir:    filepath.Join(root, ts),
		dryRun: dryRun,
		seen:   make(map[string]bool),
	}
	if dryRun {
		return s, nil
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	// Runs within the same second must not share a set.
	for n := 2; ; n++ {
		err := os.Mkdir(s.dir, 0o755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return nil, err
		}
		s.dir = filepath.Join(root, fmt.Sprintf("%s-%d", ts, n))
	}
	meta := Meta{Created: ts, Command: command}
	data, err := yaml.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(s.dir, metaName), data, 0o644); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the set's directory.
func (s *Set) Dir() string {
	return s.dir
}

// ID returns the set's timestamp key.
func (s *Set) ID() string {
	return filepath.Base(s.dir)
}

// dest maps an absolute original path to its mirror location inside
// the set. Paths under the home directory mirror relative to home under
// files-home; anything else mirrors from the filesystem root under
// files-root.
func (s *Set) dest(original string) string {
	clean := filepath.Clean(original)
	if home, err := os.UserHomeDir(); err == nil {
		if r, err := filepath.Rel(home, clean); err == nil && !strings.HasPrefix(r, "..") {
			return filepath.Join(s.dir, homeMirror, r)
		}
	}
	rel := strings.TrimPrefix(clean, string(filepath.Separator))
	return filepath.Join(s.dir, rootMirror, rel)
}

// Snapshot copies the file at path into the set, once per path per
// run. Symlinks are never snapshotted (cheap to recreate), missing
// files are a no-op, and nothing is copied in dry-run mode.
func (s *Set) Snapshot(path string) error {
	if s.seen[path] {
		return nil
	}
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&os.ModeSymlink != 0 {
		return nil
	}
	s.seen[path] = true
	if s.dryRun {
		return nil
	}
	if info.IsDir() {
		return copyTree(path, s.dest(path))
	}
	return copyFile(path, s.dest(path), info.Mode())
}

// Restorable lists the original locations of every file captured in
// the set.
func (s *Set) Restorable() ([]string, error) {
	return listOriginals(s.dir)
}

// Restore copies every snapshotted file whose original path appears in
// targets back to its original location. Returns the restored count.
// Files created since the snapshot are not touched; removing generated
// content is the caller's job, keyed on provenance markers.
func (s *Set) Restore(targets []string, dryRun bool) (int, error) {
	return restoreFrom(s.dir, targets, dryRun)
}

// Latest returns the most recent backup set under root, or nil when no
// set exists. Missing backups are not an error: a reversal proceeds
// without restore rather than failing.
func Latest(root string) (*Set, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), metaName)); err != nil {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, nil
	}
	// Lexical order would put a "-10" suffix before "-9"; compare the
	// same-second suffix numerically.
	sort.Slice(names, func(i, j int) bool {
		bi, ni := splitSetName(names[i])
		bj, nj := splitSetName(names[j])
		if bi != bj {
			return bi < bj
		}
		return ni < nj
	})
	return &Set{dir: filepath.Join(root, names[len(names)-1]), seen: make(map[string]bool)}, nil
}

// splitSetName separates a set name into its timestamp and the numeric
// suffix Begin adds for same-second runs. The first set of a second
// carries no suffix and sorts as 1.
func splitSetName(name string) (string, int) {
	base, suffix, ok := strings.Cut(name, "-")
	if !ok {
		return name, 1
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return name, 1
	}
	return base, n
}

// walkMirror visits every snapshotted file in a set, handing fn the
// mirror path, its file info, and the original absolute location the
// file came from. Missing mirror roots are skipped, not errors.
func walkMirror(setDir string, fn func(mirror string, info os.FileInfo, original string) error) error {
	home, herr := os.UserHomeDir()
	roots := []struct {
		dir  string
		back func(rel string) string
	}{
		{filepath.Join(setDir, homeMirror), func(rel string) string {
			if herr != nil {
				return ""
			}
			return filepath.Join(home, rel)
		}},
		{filepath.Join(setDir, rootMirror), func(rel string) string {
			return string(filepath.Separator) + rel
		}},
	}
	for _, root := range roots {
		err := filepath.Walk(root.dir, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return nil
			}
			rel, rerr := filepath.Rel(root.dir, path)
			if rerr != nil {
				return nil
			}
			original := root.back(rel)
			if original == "" {
				return nil
			}
			return fn(path, info, original)
		})
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// listOriginals maps every file in the set's mirrors back to its
// original absolute path.
func listOriginals(setDir string) ([]string, error) {
	var out []string
	err := walkMirror(setDir, func(_ string, _ os.FileInfo, original string) error {
		out = append(out, original)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func restoreFrom(setDir string, targets []string, dryRun bool) (int, error) {
	want := make(map[string]bool, len(targets))
	for _, t := range targets {
		want[filepath.Clean(t)] = true
	}

	count := 0
	err := walkMirror(setDir, func(mirror string, info os.FileInfo, original string) error {
		if !want[filepath.Clean(original)] {
			return nil
		}
		count++
		if dryRun {
			return nil
		}
		return copyFile(mirror, original, info.Mode())
	})
	return count, err
}

func copyFile(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// copyTree copies a directory recursively, following nothing: symlinks
// inside the tree are skipped (they are recreated by sync, not
// restored).
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target, info.Mode())
	})
}
