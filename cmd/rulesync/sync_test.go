package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorewood/rulesync/internal/marker"
)

func TestSyncCommand(t *testing.T) {
	home, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	out, err := runCLI(t, "sync", "--json")
	if err != nil {
		t.Fatalf("command failed: %v\nOutput: %s", err, out)
	}

	result := parseJSON(t, out)
	rules, ok := result["rules"].([]any)
	if !ok || len(rules) != 1 {
		t.Fatalf("rules = %v, want 1 target result", result["rules"])
	}

	data, err := os.ReadFile(filepath.Join(home, ".claude", "CLAUDE.md"))
	if err != nil {
		t.Fatalf("CLAUDE.md not written: %v", err)
	}
	if !marker.IsGenerated(string(data)) {
		t.Error("CLAUDE.md should carry the provenance header")
	}
	if !strings.Contains(string(data), "Body of code-style.") {
		t.Errorf("CLAUDE.md missing rule body:\n%s", data)
	}

	// Backup ID recorded and set present on disk.
	backupID, _ := result["backup_id"].(string)
	if backupID == "" {
		t.Fatal("sync result should carry a backup_id")
	}
	if _, err := os.Stat(filepath.Join(layout.BackupsDir(), backupID)); err != nil {
		t.Errorf("backup set %s missing: %v", backupID, err)
	}
}

func TestSyncCommand_Human(t *testing.T) {
	_, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	out, err := runCLI(t, "sync")
	if err != nil {
		t.Fatalf("command failed: %v\nOutput: %s", err, out)
	}

	for _, check := range []string{"Rules", "claude", "1 rules", "1 written", "Summary"} {
		if !strings.Contains(out, check) {
			t.Errorf("human output missing %q\nOutput: %s", check, out)
		}
	}
}

func TestSyncCommand_DryRun(t *testing.T) {
	home, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	out, err := runCLI(t, "sync", "--dry-run", "--json")
	if err != nil {
		t.Fatalf("command failed: %v\nOutput: %s", err, out)
	}

	result := parseJSON(t, out)
	if result["dry_run"] != true {
		t.Errorf("dry_run = %v, want true", result["dry_run"])
	}
	if _, err := os.Stat(filepath.Join(home, ".claude", "CLAUDE.md")); err == nil {
		t.Error("dry-run should not write CLAUDE.md")
	}
}

func TestSyncCommand_UnknownOnly(t *testing.T) {
	_, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	out, err := runCLI(t, "sync", "--only", "fleep", "--json")
	if err == nil {
		t.Fatal("expected error for unknown --only target")
	}

	result := parseJSON(t, out)
	if code, _ := result["code"].(float64); code != 1 {
		t.Errorf("error code = %v, want 1 (user error)", result["code"])
	}
	if msg, _ := result["error"].(string); !strings.Contains(msg, "fleep") {
		t.Errorf("error should name the unknown target: %v", result["error"])
	}
}

func TestSyncCommand_DiffFlag(t *testing.T) {
	_, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	out, err := runCLI(t, "sync", "--diff")
	if err != nil {
		t.Fatalf("command failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "+") {
		t.Errorf("--diff output should contain added lines:\n%s", out)
	}
}
