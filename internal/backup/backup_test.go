package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// setHome points os.UserHomeDir at a temp dir so backup mirrors and
// restore mapping stay inside the test sandbox.
func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBeginWritesMeta(t *testing.T) {
	home := setHome(t)
	root := filepath.Join(home, ".rulesync", "backups")

	set, err := Begin(root, "sync", false)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if set.ID() == "" {
		t.Error("empty set ID")
	}
	if _, err := os.Stat(filepath.Join(set.Dir(), "meta.yaml")); err != nil {
		t.Errorf("missing meta.yaml: %v", err)
	}
}

func TestBegin_DryRunCreatesNothing(t *testing.T) {
	home := setHome(t)
	root := filepath.Join(home, ".rulesync", "backups")

	set, err := Begin(root, "sync", true)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := os.Stat(set.Dir()); !os.IsNotExist(err) {
		t.Error("dry-run set must not create a directory")
	}
	if err := set.Snapshot(filepath.Join(home, "nothing")); err != nil {
		t.Errorf("dry-run snapshot: %v", err)
	}
}

func TestSnapshotAndRestore(t *testing.T) {
	home := setHome(t)
	root := filepath.Join(home, ".rulesync", "backups")
	original := filepath.Join(home, ".claude", "CLAUDE.md")
	writeFile(t, original, "user content\n")

	set, err := Begin(root, "sync", false)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := set.Snapshot(original); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	restorable, err := set.Restorable()
	if err != nil {
		t.Fatalf("Restorable: %v", err)
	}
	if len(restorable) != 1 || restorable[0] != original {
		t.Fatalf("Restorable = %v, want [%s]", restorable, original)
	}

	// Clobber the original, then bring it back.
	writeFile(t, original, "generated content\n")
	n, err := set.Restore([]string{original}, false)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if n != 1 {
		t.Errorf("restored %d files, want 1", n)
	}
	data, err := os.ReadFile(original)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "user content\n" {
		t.Errorf("restored content = %q", data)
	}
}

func TestSnapshotAndRestore_OutsideHome(t *testing.T) {
	home := setHome(t)
	root := filepath.Join(home, ".rulesync", "backups")
	inside := filepath.Join(home, "proj", "AGENTS.md")
	writeFile(t, inside, "home notes\n")
	outside := filepath.Join(t.TempDir(), "work", "AGENTS.md")
	writeFile(t, outside, "workspace notes\n")

	set, err := Begin(root, "sync", false)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := set.Snapshot(inside); err != nil {
		t.Fatal(err)
	}
	if err := set.Snapshot(outside); err != nil {
		t.Fatal(err)
	}

	restorable, err := set.Restorable()
	if err != nil {
		t.Fatalf("Restorable: %v", err)
	}
	got := map[string]bool{}
	for _, p := range restorable {
		got[p] = true
	}
	if len(restorable) != 2 || !got[inside] || !got[outside] {
		t.Fatalf("Restorable = %v, want [%s %s]", restorable, inside, outside)
	}

	// The out-of-home original must round-trip to its true location.
	writeFile(t, outside, "generated content\n")
	n, err := set.Restore([]string{outside}, false)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if n != 1 {
		t.Errorf("restored %d files, want 1", n)
	}
	data, err := os.ReadFile(outside)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "workspace notes\n" {
		t.Errorf("restored content = %q", data)
	}
}

func TestSnapshot_OncePerPath(t *testing.T) {
	home := setHome(t)
	root := filepath.Join(home, ".rulesync", "backups")
	original := filepath.Join(home, "notes.md")
	writeFile(t, original, "first\n")

	set, err := Begin(root, "sync", false)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := set.Snapshot(original); err != nil {
		t.Fatal(err)
	}
	writeFile(t, original, "second\n")
	if err := set.Snapshot(original); err != nil {
		t.Fatal(err)
	}

	if _, err := set.Restore([]string{original}, false); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(original)
	if string(data) != "first\n" {
		t.Errorf("second snapshot overwrote the first: %q", data)
	}
}

func TestSnapshot_MissingAndSymlink(t *testing.T) {
	home := setHome(t)
	root := filepath.Join(home, ".rulesync", "backups")
	set, err := Begin(root, "sync", false)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := set.Snapshot(filepath.Join(home, "absent")); err != nil {
		t.Errorf("missing file: %v", err)
	}

	target := filepath.Join(home, "real")
	writeFile(t, target, "x")
	link := filepath.Join(home, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := set.Snapshot(link); err != nil {
		t.Errorf("symlink: %v", err)
	}
	restorable, err := set.Restorable()
	if err != nil {
		t.Fatal(err)
	}
	if len(restorable) != 0 {
		t.Errorf("Restorable = %v, want empty", restorable)
	}
}

func TestSnapshot_Directory(t *testing.T) {
	home := setHome(t)
	root := filepath.Join(home, ".rulesync", "backups")
	dir := filepath.Join(home, ".cursor", "skills", "review")
	writeFile(t, filepath.Join(dir, "SKILL.md"), "# Review\n")
	writeFile(t, filepath.Join(dir, "ref", "extra.md"), "more\n")

	set, err := Begin(root, "sync", false)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := set.Snapshot(dir); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	restorable, err := set.Restorable()
	if err != nil {
		t.Fatal(err)
	}
	if len(restorable) != 2 {
		t.Errorf("Restorable = %v, want both files", restorable)
	}
}

func TestBegin_SameSecondGetsDistinctSets(t *testing.T) {
	home := setHome(t)
	root := filepath.Join(home, ".rulesync", "backups")

	a, err := Begin(root, "sync", false)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Begin(root, "clean", false)
	if err != nil {
		t.Fatal(err)
	}
	if a.Dir() == b.Dir() {
		t.Errorf("both sets share %s", a.Dir())
	}

	latest, err := Latest(root)
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID() != b.ID() {
		t.Errorf("Latest = %s, want the later set %s", latest.ID(), b.ID())
	}
}

func TestLatest(t *testing.T) {
	home := setHome(t)
	root := filepath.Join(home, ".rulesync", "backups")

	latest, err := Latest(root)
	if err != nil {
		t.Fatalf("Latest on missing root: %v", err)
	}
	if latest != nil {
		t.Error("expected nil set for missing root")
	}

	// Older and newer sets; a stray directory without meta is ignored.
	writeFile(t, filepath.Join(root, "20250101T000000Z", "meta.yaml"), "command: sync\n")
	writeFile(t, filepath.Join(root, "20260101T000000Z", "meta.yaml"), "command: clean\n")
	if err := os.MkdirAll(filepath.Join(root, "99999999T000000Z"), 0o755); err != nil {
		t.Fatal(err)
	}

	latest, err = Latest(root)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || latest.ID() != "20260101T000000Z" {
		t.Errorf("Latest = %v, want 20260101T000000Z", latest)
	}
}

func TestLatest_NumericSuffixOrder(t *testing.T) {
	home := setHome(t)
	root := filepath.Join(home, ".rulesync", "backups")

	// Eleven sets in one second: the suffix must compare numerically,
	// not lexically (where "-10" sorts before "-9").
	writeFile(t, filepath.Join(root, "20260101T000000Z", "meta.yaml"), "command: sync\n")
	for n := 2; n <= 11; n++ {
		name := fmt.Sprintf("20260101T000000Z-%d", n)
		writeFile(t, filepath.Join(root, name, "meta.yaml"), "command: sync\n")
	}

	latest, err := Latest(root)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || latest.ID() != "20260101T000000Z-11" {
		t.Errorf("Latest = %v, want 20260101T000000Z-11", latest)
	}
}
