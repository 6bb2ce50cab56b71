package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/store"
)

func TestRootCommand_Version(t *testing.T) {
	// Set version for testing
	version = "1.2.3"

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	err := cmd.Execute()
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "1.2.3") {
		t.Errorf("--version output should contain version: %q", output)
	}
	if !strings.Contains(output, "rulesync") {
		t.Errorf("--version output should contain 'rulesync': %q", output)
	}
}

func TestRootCommand_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()

	// Check for expected help content
	expectations := []string{
		"rulesync",
		"Usage:",
		"--json",
		"--dry-run",
		"--help",
		"sync",
		"status",
		"clean",
	}

	for _, expected := range expectations {
		if !strings.Contains(output, expected) {
			t.Errorf("--help output should contain %q: %q", expected, output)
		}
	}
}

func TestRootCommand_JSONFlag_NoSubcommand(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--json"})

	err := cmd.Execute()
	// Should error because no subcommand is provided
	if err == nil {
		t.Fatal("Expected error when running with --json but no subcommand")
	}

	output := buf.String()

	// Should output JSON error
	var result map[string]any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("Output should be valid JSON: %v\nOutput: %s", err, output)
	}

	if _, ok := result["error"]; !ok {
		t.Errorf("JSON output should contain 'error' field: %s", output)
	}
	if _, ok := result["code"]; !ok {
		t.Errorf("JSON output should contain 'code' field: %s", output)
	}
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"json", "dry-run", "diff", "verbose", "yes", "color"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("--%s should be a persistent flag", name)
		}
	}
}

// setupHome points HOME and RULESYNC_HOME at a fresh temp directory and
// returns the home path with the canonical store layout under it.
func setupHome(t *testing.T) (string, store.Layout) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	layout := store.Layout{Root: filepath.Join(home, ".rulesync")}
	t.Setenv("RULESYNC_HOME", layout.Root)
	return home, layout
}

// seedStore writes a canonical rule body and the manifest so commands
// have something to sync.
func seedStore(t *testing.T, layout store.Layout, man *manifest.Manifest) {
	t.Helper()
	if err := os.MkdirAll(layout.RulesDir(), 0o755); err != nil {
		t.Fatalf("creating rules dir: %v", err)
	}
	for _, r := range man.Rules {
		body := "# " + titleFromID(r.ID) + "\n\nBody of " + r.ID + ".\n"
		if err := os.WriteFile(layout.RulePath(r.File), []byte(body), 0o644); err != nil {
			t.Fatalf("writing rule body: %v", err)
		}
	}
	if err := man.Save(layout.ManifestPath()); err != nil {
		t.Fatalf("saving manifest: %v", err)
	}
}

// seededManifest returns a manifest with one rule synced to claude.
func seededManifest() *manifest.Manifest {
	always := true
	man := &manifest.Manifest{
		Version: manifest.SchemaVersion,
		Rules: []manifest.Rule{
			{
				ID:           "code-style",
				File:         "code-style.md",
				ImportedFrom: "cursor",
				Cursor: &manifest.CursorMeta{
					AlwaysApply: &always,
					Description: "Formatting conventions",
				},
			},
		},
	}
	man.SetActiveTargets([]string{"claude"}, nil)
	return man
}

// runCLI executes the root command with args and returns combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// parseJSON decodes command output into a generic map.
func parseJSON(t *testing.T, out string) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, out)
	}
	return result
}
