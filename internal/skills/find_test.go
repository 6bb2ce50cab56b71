package skills

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindManaged(t *testing.T) {
	f := newFixture(t)
	f.addSkill(t, "review", "# Review\n")
	f.addSkill(t, "deploy", "# Deploy\n")

	tgt := symlinkTarget(t)
	if _, err := Deliver(tgt, f.targetDir, f.layout, f.ops, testNow); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if _, err := os.Readlink(filepath.Join(f.targetDir, "review")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	// An unmanaged neighbor must not be reported.
	if err := os.MkdirAll(filepath.Join(f.targetDir, "user-skill"), 0o755); err != nil {
		t.Fatal(err)
	}

	found, err := FindManaged(f.targetDir, f.layout)
	if err != nil {
		t.Fatalf("FindManaged: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("found = %v, want both managed entries", found)
	}
	if found[0] != filepath.Join(f.targetDir, "deploy") {
		t.Errorf("found not sorted: %v", found)
	}
}

func TestFindManaged_MissingDir(t *testing.T) {
	f := newFixture(t)
	found, err := FindManaged(filepath.Join(f.home, "absent"), f.layout)
	if err != nil || found != nil {
		t.Errorf("FindManaged = %v, %v, want nil, nil", found, err)
	}
}
