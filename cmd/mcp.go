package cmd

import (
	"github.com/spf13/cobra"

	"github.com/smartsdlc/sdlc/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for editor and agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets MCP clients run analyses and query history natively.
Configure with:

  {
    "mcpServers": {
      "sdlc": { "command": "sdlc", "args": ["mcp"] }
    }
  }

Available tools: sdlc_analyze, sdlc_list_operations, sdlc_history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			// History is optional for MCP use; analysis still works.
			ui.VerboseLog("history store unavailable: %v", err)
			s = nil
		}

		eng, err := getPipeline()
		if err != nil {
			return err
		}

		return mcp.NewServer(eng, s).ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
