package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorewood/rulesync/internal/manifest"
)

const cursorFixture = `---
description: Formatting conventions
alwaysApply: true
---

# Code Style

Use tabs for indentation.
`

func TestInitCommand_AutoAccept(t *testing.T) {
	home, layout := setupHome(t)

	// A pre-existing Cursor rule is detected and imported.
	cursorRules := filepath.Join(home, ".cursor", "rules")
	if err := os.MkdirAll(cursorRules, 0o755); err != nil {
		t.Fatalf("creating cursor rules dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cursorRules, "code-style.mdc"), []byte(cursorFixture), 0o644); err != nil {
		t.Fatalf("writing cursor rule: %v", err)
	}

	out, err := runCLI(t, "init", "--yes", "--json")
	if err != nil {
		t.Fatalf("command failed: %v\nOutput: %s", err, out)
	}

	result := parseJSON(t, out)
	if rules, _ := result["rules"].(float64); rules != 1 {
		t.Errorf("rules = %v, want 1", result["rules"])
	}

	// Canonical body imported without the frontmatter block.
	data, err := os.ReadFile(layout.RulePath("code-style.md"))
	if err != nil {
		t.Fatalf("canonical rule not written: %v", err)
	}
	if strings.Contains(string(data), "alwaysApply") {
		t.Errorf("canonical body should not carry frontmatter:\n%s", data)
	}
	if !strings.Contains(string(data), "Use tabs for indentation.") {
		t.Errorf("canonical body missing content:\n%s", data)
	}

	// Manifest registered the rule with its Cursor metadata.
	man, err := manifest.Load(layout.ManifestPath())
	if err != nil {
		t.Fatalf("loading manifest: %v", err)
	}
	rule := man.FindRule("code-style")
	if rule == nil {
		t.Fatal("rule missing from manifest")
	}
	if rule.ImportedFrom != "cursor" {
		t.Errorf("ImportedFrom = %q, want %q", rule.ImportedFrom, "cursor")
	}
	if rule.Cursor == nil || rule.Cursor.Description != "Formatting conventions" {
		t.Errorf("Cursor meta = %+v, want description preserved", rule.Cursor)
	}

	// The first sync pass already delivered to the default targets.
	claude, err := os.ReadFile(filepath.Join(home, ".claude", "CLAUDE.md"))
	if err != nil {
		t.Fatalf("CLAUDE.md not written: %v", err)
	}
	if !strings.Contains(string(claude), "Use tabs for indentation.") {
		t.Errorf("CLAUDE.md missing imported rule:\n%s", claude)
	}
}

func TestInitCommand_NoSources(t *testing.T) {
	setupHome(t)

	// Nothing on disk to detect: --yes accepts the empty selection.
	out, err := runCLI(t, "init", "--yes")
	if err != nil {
		t.Fatalf("command failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "Aborted") {
		t.Errorf("output = %q, want abort notice", out)
	}
}
