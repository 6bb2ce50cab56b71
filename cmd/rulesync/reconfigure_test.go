package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReconfigureCommand_KeepSelection(t *testing.T) {
	home, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	// With --yes the current selection is kept and a sync pass runs.
	out, err := runCLI(t, "reconfigure", "--yes", "--json")
	if err != nil {
		t.Fatalf("command failed: %v\nOutput: %s", err, out)
	}

	result := parseJSON(t, out)
	targets, ok := result["rule_targets"].([]any)
	if !ok || len(targets) != 1 || targets[0] != "claude" {
		t.Errorf("rule_targets = %v, want [claude]", result["rule_targets"])
	}
	if _, err := os.Stat(filepath.Join(home, ".claude", "CLAUDE.md")); err != nil {
		t.Errorf("reconfigure should run a sync pass: %v", err)
	}
}

func TestReconfigureCommand_NoManifest(t *testing.T) {
	setupHome(t)

	out, err := runCLI(t, "reconfigure", "--yes", "--json")
	if err == nil {
		t.Fatal("expected error for uninitialized store")
	}
	result := parseJSON(t, out)
	if code, _ := result["code"].(float64); code != 1 {
		t.Errorf("error code = %v, want 1 (user error)", result["code"])
	}
}
