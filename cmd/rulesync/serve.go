// Package main provides the entry point for the rulesync CLI.
package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	rulesyncmcp "github.com/gorewood/rulesync/internal/mcp"
)

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run rulesync as a Model Context Protocol (MCP) server over stdio.

This exposes rulesync operations as MCP tools that any MCP-capable
agent environment can use (Claude Code, Cursor, Gemini CLI, etc).

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "rulesync": {
        "command": "rulesync",
        "args": ["serve"]
      }
    }
  }

Available tools: status, sync, set_config, reconfigure, add_rule,
remove_rule, archive_skill, restore_skill, list_archived, clean`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			layout, home, err := resolveStore()
			if err != nil {
				return err
			}
			server := rulesyncmcp.NewServer(buildVersion(), layout, home)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
