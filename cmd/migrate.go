package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/app"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/config"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/pkg/logging"
)

var migrateConfigPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Long: `Applies the table definitions to the database named by DATABASE_URL
(or the configuration file). Safe to run repeatedly; existing tables are
left untouched.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(migrateConfigPath)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return &config.MissingFieldError{Field: "database.url", EnvVar: "DATABASE_URL"}
	}

	logging.Init(logging.ParseLevel(cfg.LogLevel), os.Stderr)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return app.Migrate(ctx, cfg)
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().StringVar(&migrateConfigPath, "config-path", "", "Path to an optional YAML configuration file")
}
