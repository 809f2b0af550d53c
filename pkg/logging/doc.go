// Package logging provides structured, level-filtered logging built on the
// standard slog package.
//
// Every log call names a subsystem so log lines can be filtered per
// component:
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Bootstrap", "Server starting up")
//	logging.Debug("Config", "Loaded configuration from %s", configPath)
//	logging.Warn("Health", "Probe %s unhealthy", name)
//	logging.Error("Database", err, "Query failed")
//
// Subsystems in use include Bootstrap, Config, Registry, Health, Agent,
// Server and HTTPServer.
//
// Output goes to the writer passed to Init. When the server speaks MCP over
// stdio, stdout belongs to the protocol, so logs must go to stderr or a
// file. Calls made before Init are dropped.
//
// The package is safe for concurrent use; level filtering happens before
// any formatting work.
package logging
