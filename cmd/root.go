package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the aoma-mesh application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "aoma-mesh",
	Short: "MCP server for the AOMA engineering knowledge base",
	Long: `aoma-mesh serves the AOMA engineering knowledge base over the Model
Context Protocol. It exposes retrieval tools for Jira tickets, git history,
indexed code and knowledge documents, plus an orchestrated analysis tool
that fans a question out across all of them and synthesizes one attributed
answer.

Clients connect over stdio (editors, agents) or over HTTP (services); both
transports serve the same tool catalogue.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from the main
// package to inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application. Called by
// main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "aoma-mesh version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
