package main

import (
	"strings"
	"testing"
)

func TestStatusCommand_JSON(t *testing.T) {
	_, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	out, err := runCLI(t, "status", "--json")
	if err != nil {
		t.Fatalf("command failed: %v\nOutput: %s", err, out)
	}

	result := parseJSON(t, out)

	rules, ok := result["rules"].([]any)
	if !ok || len(rules) != 1 {
		t.Fatalf("rules = %v, want 1 entry", result["rules"])
	}
	rule := rules[0].(map[string]any)
	if rule["id"] != "code-style" {
		t.Errorf("rule id = %v, want %q", rule["id"], "code-style")
	}
	if rule["imported_from"] != "cursor" {
		t.Errorf("imported_from = %v, want %q", rule["imported_from"], "cursor")
	}

	targets, ok := result["rule_targets"].([]any)
	if !ok || len(targets) != 1 || targets[0] != "claude" {
		t.Errorf("rule_targets = %v, want [claude]", result["rule_targets"])
	}
	if result["last_synced"] != "never" {
		t.Errorf("last_synced = %v, want %q", result["last_synced"], "never")
	}
}

func TestStatusCommand_Human(t *testing.T) {
	_, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	out, err := runCLI(t, "status")
	if err != nil {
		t.Fatalf("command failed: %v\nOutput: %s", err, out)
	}

	checks := []string{
		"Rules (1)",
		"code-style",
		"Formatting conventions",
		"Active Targets",
		"claude",
		"Last Synced",
		"never",
	}
	for _, check := range checks {
		if !strings.Contains(out, check) {
			t.Errorf("human output missing %q\nOutput: %s", check, out)
		}
	}
}

func TestStatusCommand_NoManifest(t *testing.T) {
	setupHome(t)

	out, err := runCLI(t, "status", "--json")
	if err == nil {
		t.Fatal("expected error for uninitialized store")
	}

	result := parseJSON(t, out)
	code, ok := result["code"].(float64)
	if !ok {
		t.Fatalf("missing or invalid 'code' in error output: %v", result)
	}
	if code != 1 {
		t.Errorf("error code = %v, want 1 (user error)", code)
	}
	if msg, _ := result["error"].(string); !strings.Contains(msg, "rulesync init") {
		t.Errorf("error should point at init: %v", result["error"])
	}
}
