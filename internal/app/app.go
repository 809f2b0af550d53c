// Package app assembles and runs the server: configuration, dependent
// services, the tool catalogue, transports and signal handling.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/agent"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/config"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/health"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/metrics"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/registry"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/server"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/services"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/tools"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/pkg/logging"
)

// ServerName identifies this server to MCP clients and in logs.
const ServerName = "aoma-mesh"

// Application is the fully wired server plus the resources it owns.
type Application struct {
	cfg     config.Config
	srv     *server.Server
	checker *health.Aggregator
	pool    *pgxpool.Pool
}

// NewApplication builds every component from configuration. It parses the
// database pool configuration but does not touch the network; the first
// connections happen in the startup health gate inside Run.
func NewApplication(ctx context.Context, cfg config.Config, version string) (*Application, error) {
	llm, err := services.NewOpenAIService(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("build OpenAI service: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("build database pool: %w", err)
	}
	data := services.NewPostgresService(pool)

	collector := metrics.NewCollector()
	checker := health.NewAggregator(cfg.Health.ProbeTimeout, cfg.Health.CacheTTL)
	checker.RegisterProbe("openai", llm.Ping)
	checker.RegisterProbe("postgres", data.Ping)

	reg, err := buildRegistry(cfg, collector, data, llm, checker, version)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build tool registry: %w", err)
	}
	logging.Info("Bootstrap", "Registered %d tools", reg.Len())

	return &Application{
		cfg:     cfg,
		srv:     server.New(ServerName, version, cfg.Server, reg, checker, collector),
		checker: checker,
		pool:    pool,
	}, nil
}

// Catalogue lists the tool definitions without touching any external
// service; handlers are wired to inert stubs and never invoked.
func Catalogue(version string) ([]registry.Definition, error) {
	cfg := config.GetDefaults()
	checker := health.NewAggregator(cfg.Health.ProbeTimeout, cfg.Health.CacheTTL)
	reg, err := buildRegistry(cfg, metrics.NewCollector(), offlineData{}, offlineLLM{}, checker, version)
	if err != nil {
		return nil, err
	}
	return reg.Definitions(), nil
}

var errOffline = errors.New("no backing service in offline mode")

type offlineData struct{}

func (offlineData) SearchTickets(context.Context, string, string, int) ([]services.Ticket, error) {
	return nil, errOffline
}
func (offlineData) SearchCommits(context.Context, string, int) ([]services.Commit, error) {
	return nil, errOffline
}
func (offlineData) SearchCodeFiles(context.Context, string, string, int) ([]services.CodeFile, error) {
	return nil, errOffline
}
func (offlineData) SearchDocuments(context.Context, string, int) ([]services.Document, error) {
	return nil, errOffline
}
func (offlineData) Ping(context.Context) error { return errOffline }

type offlineLLM struct{}

func (offlineLLM) Complete(context.Context, services.CompletionRequest) (string, error) {
	return "", errOffline
}
func (offlineLLM) Ping(context.Context) error { return errOffline }

// buildRegistry registers the complete tool catalogue: retrieval tools over
// the data and completion services, the orchestrated analysis tool, and the
// introspection pair.
func buildRegistry(cfg config.Config, collector *metrics.Collector, data services.DataService, llm services.CompletionService, checker *health.Aggregator, version string) (*registry.Registry, error) {
	reg := registry.New(cfg.Server.DefaultToolTimeout, collector)

	if err := tools.RegisterRetrievalTools(reg, data, llm); err != nil {
		return nil, err
	}

	orchestrator := agent.NewOrchestrator(reg, llm, agent.DefaultSelectionTable())
	if err := tools.RegisterAnalysisTool(reg, orchestrator); err != nil {
		return nil, err
	}

	info := tools.ServerInfo{
		Name:       ServerName,
		Version:    version,
		Transports: transportsFor(cfg.Server.Transport),
	}
	if err := tools.RegisterIntrospectionTools(reg, checker, info); err != nil {
		return nil, err
	}
	return reg, nil
}

func transportsFor(transport string) []string {
	if transport == config.TransportStdio {
		return []string{"stdio", "http"}
	}
	return []string{"http"}
}

// gate refuses to start while every dependent service is down. A partial
// outage only logs: degraded serving beats not serving at all.
func gate(ctx context.Context, checker *health.Aggregator) error {
	report := checker.Check(ctx, true)
	switch report.Status {
	case health.StatusUnhealthy:
		return &health.DependencyUnhealthyError{Report: report}
	case health.StatusDegraded:
		for _, svc := range report.Services {
			if !svc.Healthy {
				logging.Warn("Bootstrap", "Starting degraded: %s is unhealthy: %s", svc.Name, svc.Error)
			}
		}
	}
	return nil
}

// Run starts the transports and blocks until a termination signal arrives
// or the stdio client disconnects, then drains and shuts down.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	defer a.pool.Close()

	if err := gate(ctx, a.checker); err != nil {
		return err
	}

	if err := a.srv.Start(ctx); err != nil {
		return err
	}

	waitErr := a.srv.Wait(ctx)
	stop() // further signals terminate immediately

	if err := a.srv.Stop(); err != nil {
		logging.Error("Bootstrap", err, "Shutdown did not complete cleanly")
		if waitErr == nil {
			waitErr = err
		}
	}
	return waitErr
}

// Migrate applies the database schema and exits. Used by the migrate
// subcommand so deployments can create tables before first serve.
func Migrate(ctx context.Context, cfg config.Config) error {
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("build database pool: %w", err)
	}
	defer pool.Close()

	data := services.NewPostgresService(pool)
	if err := data.Migrate(ctx); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	logging.Info("Bootstrap", "Database schema applied")
	return nil
}
