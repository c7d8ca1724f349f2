package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"redmine-mcp-server/internal/application"
	"redmine-mcp-server/internal/domain"
)

// NewToolsCmd creates the "tools" subcommand, which prints the tool catalog that
// tools/list would return. It needs no Redmine credentials.
func NewToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the registered MCP tools as JSON",
		RunE:  runTools,
	}
	cmd.Flags().Bool("names", false, "Print only tool names, one per line")
	return cmd
}

func runTools(cmd *cobra.Command, _ []string) error {
	namesOnly, _ := cmd.Flags().GetBool("names")

	registry := application.NewToolRegistry()
	// The catalog is never invoked here, so no executor is needed.
	if err := registry.RegisterProviders(application.DefaultProviders(nil)...); err != nil {
		return exitError(ExitRuntime, "%v", err)
	}

	descriptors := registry.List()
	if namesOnly {
		for _, d := range descriptors {
			fmt.Fprintln(cmd.OutOrStdout(), d.Name)
		}
		return nil
	}

	definitions := make([]domain.ToolDefinition, 0, len(descriptors))
	for _, d := range descriptors {
		definitions = append(definitions, d.Definition())
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(definitions); err != nil {
		return exitError(ExitRuntime, "failed to encode tools: %v", err)
	}
	return nil
}
