// Package mcp provides a Model Context Protocol server for rulesync.
// It exposes synchronization operations as MCP tools that any
// MCP-capable agent can use.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/rulesync/internal/store"
)

// NewServer creates an MCP server with all rulesync tools registered.
func NewServer(version string, layout store.Layout, home string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "rulesync",
		Version: version,
	}, nil)
	registerTools(server, layout, home)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for read-only tools.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// writeAnnotations returns annotations for tools that mutate targets
// or the manifest. Regeneration is idempotent: identical canonical
// input produces identical target output.
func writeAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		IdempotentHint:  true,
		OpenWorldHint:   boolPtr(false),
	}
}

// destructiveAnnotations returns annotations for clean, which removes
// generated files (displaced originals come back from backup).
func destructiveAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(true),
		OpenWorldHint:   boolPtr(false),
	}
}

// registerTools adds all rulesync tools to the server.
func registerTools(server *mcp.Server, layout store.Layout, home string) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "status",
		Description: "Return the current sync configuration and state: canonical rules, active targets, skills, archived skills, AGENTS.md paths, and last sync date.",
		Annotations: readOnlyAnnotations(),
	}, handleStatus(layout))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_archived",
		Description: "List all archived (inactive) skills.",
		Annotations: readOnlyAnnotations(),
	}, handleListArchived(layout))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync",
		Description: "Regenerate all agent configs from the canonical store. Optionally restrict to a single target or preview with dry_run.",
		Annotations: writeAnnotations(),
	}, handleSync(layout, home))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_config",
		Description: "Update a manifest configuration value (agents_md.paths, agents_md.header, agents_md.preamble). Array values are comma-separated.",
		Annotations: writeAnnotations(),
	}, handleSetConfig(layout))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reconfigure",
		Description: "Change which agents receive rule syncs and skill delivery, then re-sync. Preserves existing per-target sync_mode and conflict_strategy.",
		Annotations: writeAnnotations(),
	}, handleReconfigure(layout, home))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_rule",
		Description: "Create a new canonical rule, register it in the manifest, and sync.",
		Annotations: writeAnnotations(),
	}, handleAddRule(layout, home))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_rule",
		Description: "Remove a canonical rule and its manifest entry, then sync so targets drop the generated output.",
		Annotations: writeAnnotations(),
	}, handleRemoveRule(layout, home))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "archive_skill",
		Description: "Move skills out of active delivery into the archive. The next sync removes their managed entries from every target.",
		Annotations: writeAnnotations(),
	}, handleArchiveSkill(layout, home))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "restore_skill",
		Description: "Restore archived skills back to active delivery.",
		Annotations: writeAnnotations(),
	}, handleRestoreSkill(layout, home))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clean",
		Description: "Remove all generated files and managed skill entries from every active target, restoring displaced originals from the latest backup set.",
		Annotations: destructiveAnnotations(),
	}, handleClean(layout, home))
}
