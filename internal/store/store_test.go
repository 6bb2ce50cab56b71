package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RULESYNC_HOME", dir)

	layout, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if layout.Root != dir {
		t.Errorf("Root = %q, want %q", layout.Root, dir)
	}
}

func TestResolve_DefaultsToHome(t *testing.T) {
	t.Setenv("RULESYNC_HOME", "")

	layout, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	home, _ := os.UserHomeDir()
	if layout.Root != filepath.Join(home, ".rulesync") {
		t.Errorf("Root = %q, want ~/.rulesync", layout.Root)
	}
}

func TestLayoutPaths(t *testing.T) {
	l := Layout{Root: "/store"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"manifest", l.ManifestPath(), "/store/manifest.yaml"},
		{"rules dir", l.RulesDir(), "/store/rules"},
		{"skills dir", l.SkillsDir(), "/store/skills"},
		{"archive dir", l.ArchiveDir(), "/store/skills-archive"},
		{"backups dir", l.BackupsDir(), "/store/backups"},
		{"rule path", l.RulePath("code-style.md"), "/store/rules/code-style.md"},
		{"skill path", l.SkillPath("review"), "/store/skills/review"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != filepath.FromSlash(tt.want) {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if (Layout{Root: filepath.Join(dir, "absent")}).Exists() {
		t.Error("Exists() = true for missing root")
	}
	if !(Layout{Root: dir}).Exists() {
		t.Error("Exists() = false for present root")
	}

	file := filepath.Join(dir, "plainfile")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if (Layout{Root: file}).Exists() {
		t.Error("Exists() = true for a plain file")
	}
}

func TestContainsSkill(t *testing.T) {
	root := t.TempDir()
	l := Layout{Root: root}
	if err := os.MkdirAll(l.SkillPath("review"), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"skill dir", l.SkillPath("review"), true},
		{"skills root", l.SkillsDir(), true},
		{"missing skill", l.SkillPath("gone"), true},
		{"store root", root, false},
		{"outside", filepath.Join(root, "..", "elsewhere"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.ContainsSkill(tt.path); got != tt.want {
				t.Errorf("ContainsSkill(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestContainsSkill_Symlink(t *testing.T) {
	root := t.TempDir()
	l := Layout{Root: root}
	if err := os.MkdirAll(l.SkillPath("review"), 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(t.TempDir(), "review")
	if err := os.Symlink(l.SkillPath("review"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if !l.ContainsSkill(link) {
		t.Error("symlink resolving into the store should count as ours")
	}
}
