package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Running the root command without a
// subcommand starts the server, matching what MCP client launch configs expect.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:          "redmine-mcp-server",
		Short:        "MCP server for the Redmine REST API",
		Long:         "redmine-mcp-server exposes Redmine issues, projects, versions, news and documents as MCP tools.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, version)
		},
	}
	root.PersistentFlags().String("config", "", "Path to the YAML configuration file (environment variables only when empty)")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("redmine-mcp-server version %s\n", version))

	root.AddCommand(NewServeCmd(version))
	root.AddCommand(NewToolsCmd())
	return root
}
