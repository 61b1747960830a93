package cmd

import (
	"github.com/huangsam/orgpulse/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the orgpulse MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents list snapshots and query
organization, repository and contributor rollups with their drill-downs.

The tools only read the snapshot store; collection is not exposed.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		st, err := openStore(rootCtx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
		return mcp.StartMCPServer(rootCtx, cfg, st)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
