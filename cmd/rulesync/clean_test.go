package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCleanCommand(t *testing.T) {
	home, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	if out, err := runCLI(t, "sync"); err != nil {
		t.Fatalf("sync failed: %v\nOutput: %s", err, out)
	}
	if _, err := os.Stat(filepath.Join(home, ".claude", "CLAUDE.md")); err != nil {
		t.Fatalf("sync should have written CLAUDE.md: %v", err)
	}

	out, err := runCLI(t, "clean", "--yes", "--json")
	if err != nil {
		t.Fatalf("clean failed: %v\nOutput: %s", err, out)
	}

	result := parseJSON(t, out)
	if removed, _ := result["removed"].(float64); removed != 1 {
		t.Errorf("removed = %v, want 1", result["removed"])
	}
	if _, err := os.Stat(filepath.Join(home, ".claude", "CLAUDE.md")); err == nil {
		t.Error("clean should remove the generated CLAUDE.md")
	}

	// The canonical store stays intact.
	if _, err := os.Stat(layout.RulePath("code-style.md")); err != nil {
		t.Errorf("canonical rule body should survive clean: %v", err)
	}
}

func TestCleanCommand_RestoresOriginal(t *testing.T) {
	home, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	// A pre-existing user file at the artifact path gets displaced by
	// sync and must come back on clean.
	userFile := filepath.Join(home, ".claude", "CLAUDE.md")
	if err := os.MkdirAll(filepath.Dir(userFile), 0o755); err != nil {
		t.Fatalf("creating user dir: %v", err)
	}
	if err := os.WriteFile(userFile, []byte("my own notes\n"), 0o644); err != nil {
		t.Fatalf("writing user file: %v", err)
	}

	if out, err := runCLI(t, "sync"); err != nil {
		t.Fatalf("sync failed: %v\nOutput: %s", err, out)
	}
	out, err := runCLI(t, "clean", "--yes", "--json")
	if err != nil {
		t.Fatalf("clean failed: %v\nOutput: %s", err, out)
	}

	result := parseJSON(t, out)
	if restored, _ := result["restored"].(float64); restored != 1 {
		t.Errorf("restored = %v, want 1", result["restored"])
	}
	data, err := os.ReadFile(userFile)
	if err != nil {
		t.Fatalf("restored file missing: %v", err)
	}
	if string(data) != "my own notes\n" {
		t.Errorf("restored content = %q, want original user content", data)
	}
}

func TestCleanCommand_NothingToClean(t *testing.T) {
	_, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	out, err := runCLI(t, "clean", "--yes")
	if err != nil {
		t.Fatalf("clean failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "Nothing to clean") {
		t.Errorf("output = %q, want 'Nothing to clean'", out)
	}
}

func TestCleanCommand_DryRun(t *testing.T) {
	home, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	if out, err := runCLI(t, "sync"); err != nil {
		t.Fatalf("sync failed: %v\nOutput: %s", err, out)
	}

	out, err := runCLI(t, "clean", "--dry-run", "--yes", "--json")
	if err != nil {
		t.Fatalf("clean failed: %v\nOutput: %s", err, out)
	}
	result := parseJSON(t, out)
	if result["dry_run"] != true {
		t.Errorf("dry_run = %v, want true", result["dry_run"])
	}
	if _, err := os.Stat(filepath.Join(home, ".claude", "CLAUDE.md")); err != nil {
		t.Error("dry-run clean should leave the artifact in place")
	}
}
