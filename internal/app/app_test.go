package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/config"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/health"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/metrics"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/services/mock"
)

func TestBuildRegistry_FullCatalogue(t *testing.T) {
	cfg := config.GetDefaults()
	checker := health.NewAggregator(time.Second, time.Minute)

	reg, err := buildRegistry(cfg, metrics.NewCollector(), &mock.DataService{}, &mock.CompletionService{}, checker, "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, 7, reg.Len())

	var names []string
	for _, def := range reg.Definitions() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{
		"query_aoma_knowledge",
		"search_jira_tickets",
		"search_git_commits",
		"search_code_files",
		"analyze_development_context",
		"get_system_health",
		"get_server_capabilities",
	}, names)
}

func TestCatalogue_NeedsNoServices(t *testing.T) {
	defs, err := Catalogue("dev")
	require.NoError(t, err)
	assert.Len(t, defs, 7)
}

func TestTransportsFor(t *testing.T) {
	assert.Equal(t, []string{"stdio", "http"}, transportsFor(config.TransportStdio))
	assert.Equal(t, []string{"http"}, transportsFor(config.TransportHTTP))
}

func TestGate(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy dependencies pass", func(t *testing.T) {
		checker := health.NewAggregator(time.Second, time.Minute)
		checker.RegisterProbe("openai", func(ctx context.Context) error { return nil })
		checker.RegisterProbe("postgres", func(ctx context.Context) error { return nil })

		require.NoError(t, gate(ctx, checker))
	})

	t.Run("partial outage passes degraded", func(t *testing.T) {
		checker := health.NewAggregator(time.Second, time.Minute)
		checker.RegisterProbe("openai", func(ctx context.Context) error { return nil })
		checker.RegisterProbe("postgres", func(ctx context.Context) error { return errors.New("down") })

		require.NoError(t, gate(ctx, checker))
	})

	t.Run("total outage refuses startup", func(t *testing.T) {
		checker := health.NewAggregator(time.Second, time.Minute)
		checker.RegisterProbe("openai", func(ctx context.Context) error { return errors.New("down") })
		checker.RegisterProbe("postgres", func(ctx context.Context) error { return errors.New("down") })

		err := gate(ctx, checker)
		var unhealthy *health.DependencyUnhealthyError
		require.ErrorAs(t, err, &unhealthy)
		assert.Equal(t, health.StatusUnhealthy, unhealthy.Report.Status)
		assert.Contains(t, err.Error(), "openai")
		assert.Contains(t, err.Error(), "postgres")
	})
}
