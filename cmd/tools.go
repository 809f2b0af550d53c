package cmd

import (
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/app"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/registry"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool catalogue",
	Long: `Prints every tool the server exposes, with its arguments. The catalogue
is fixed at build time, so this needs neither a running server nor any
credentials.`,
	Args: cobra.NoArgs,
	RunE: runTools,
}

func runTools(cmd *cobra.Command, args []string) error {
	defs, err := app.Catalogue(GetVersion())
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"TOOL", "ARGUMENTS", "DESCRIPTION"})
	for _, def := range defs {
		t.AppendRow(table.Row{def.Name, formatArguments(def.Schema), def.Description})
	}
	t.Render()
	return nil
}

// formatArguments renders a schema as "query*, maxResults, strategy" with
// required arguments starred, sorted for stable output.
func formatArguments(schema registry.InputSchema) string {
	names := make([]string, 0, len(schema))
	for name, spec := range schema {
		if spec.Required {
			name += "*"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
