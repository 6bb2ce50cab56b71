package main

import (
	"strings"
	"testing"

	"github.com/gorewood/rulesync/internal/manifest"
)

func TestSetCommand(t *testing.T) {
	_, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	out, err := runCLI(t, "set", "agents_md.paths", "~/Code/AGENTS.md, ~/Work/AGENTS.md", "--json")
	if err != nil {
		t.Fatalf("command failed: %v\nOutput: %s", err, out)
	}

	result := parseJSON(t, out)
	if result["key"] != "agents_md.paths" {
		t.Errorf("key = %v, want %q", result["key"], "agents_md.paths")
	}

	man, err := manifest.Load(layout.ManifestPath())
	if err != nil {
		t.Fatalf("reloading manifest: %v", err)
	}
	want := []string{"~/Code/AGENTS.md", "~/Work/AGENTS.md"}
	if len(man.AgentsMD.Paths) != len(want) {
		t.Fatalf("paths = %v, want %v", man.AgentsMD.Paths, want)
	}
	for i, p := range want {
		if man.AgentsMD.Paths[i] != p {
			t.Errorf("paths[%d] = %q, want %q", i, man.AgentsMD.Paths[i], p)
		}
	}
}

func TestSetCommand_Header(t *testing.T) {
	_, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	out, err := runCLI(t, "set", "agents_md.header", "# Team Conventions")
	if err != nil {
		t.Fatalf("command failed: %v\nOutput: %s", err, out)
	}
	if !strings.Contains(out, "# Team Conventions") {
		t.Errorf("output should echo the new value: %q", out)
	}

	man, err := manifest.Load(layout.ManifestPath())
	if err != nil {
		t.Fatalf("reloading manifest: %v", err)
	}
	if man.AgentsMD.Header != "# Team Conventions" {
		t.Errorf("header = %q, want %q", man.AgentsMD.Header, "# Team Conventions")
	}
}

func TestSetCommand_UnknownKey(t *testing.T) {
	_, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	out, err := runCLI(t, "set", "nonsense.key", "value", "--json")
	if err == nil {
		t.Fatal("expected error for unsupported key")
	}

	result := parseJSON(t, out)
	if code, _ := result["code"].(float64); code != 1 {
		t.Errorf("error code = %v, want 1 (user error)", result["code"])
	}
}

func TestSetCommand_DryRun(t *testing.T) {
	_, layout := setupHome(t)
	seedStore(t, layout, seededManifest())

	if out, err := runCLI(t, "set", "agents_md.header", "# Changed", "--dry-run"); err != nil {
		t.Fatalf("command failed: %v\nOutput: %s", err, out)
	}

	man, err := manifest.Load(layout.ManifestPath())
	if err != nil {
		t.Fatalf("reloading manifest: %v", err)
	}
	if man.AgentsMD.Header == "# Changed" {
		t.Error("dry-run should not save the manifest")
	}
}
