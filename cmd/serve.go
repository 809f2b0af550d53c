package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/app"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/config"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/pkg/logging"
)

var (
	serveConfigPath string
	serveTransport  string
	servePort       int
	serveLogLevel   string
	serveDebug      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the aoma-mesh server",
	Long: `Starts the aoma-mesh server and blocks until it is terminated.

With --transport stdio (the default) the server speaks MCP on stdin/stdout
for a single client, and additionally binds the HTTP surface so health and
metrics stay reachable. With --transport http only the HTTP surface runs.

Configuration comes from built-in defaults, overlaid by the YAML file named
with --config-path if given, overlaid by environment variables. OPENAI_API_KEY
and DATABASE_URL are required.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Stdout belongs to the MCP protocol in stdio mode, so logs always go
	// to stderr.
	logging.Init(logLevelFor(cfg), os.Stderr)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	application, err := app.NewApplication(ctx, cfg, GetVersion())
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run(ctx)
}

// loadConfig layers the serve flags on top of file and environment
// configuration. Flags win when explicitly set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("transport") {
		cfg.Server.Transport = serveTransport
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = serveLogLevel
	}
	return cfg, nil
}

func logLevelFor(cfg config.Config) logging.LogLevel {
	if serveDebug {
		return logging.LevelDebug
	}
	return logging.ParseLevel(cfg.LogLevel)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Path to an optional YAML configuration file")
	serveCmd.Flags().StringVar(&serveTransport, "transport", config.TransportStdio, "Transport to serve: stdio or http")
	serveCmd.Flags().IntVar(&servePort, "port", 3333, "HTTP port (falls back to the next free port when busy)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging (overrides --log-level)")
}
