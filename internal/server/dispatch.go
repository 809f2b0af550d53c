package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/health"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/metrics"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/registry"
)

// Dispatcher is the transport-independent core both bindings funnel into.
// It resolves the four protocol methods against the registry and the
// resource table; transports only translate envelopes and error shapes.
type Dispatcher struct {
	registry  *registry.Registry
	checker   *health.Aggregator
	collector *metrics.Collector
	resources []Resource
}

// NewDispatcher builds the dispatch core and its fixed resource table.
func NewDispatcher(reg *registry.Registry, checker *health.Aggregator, collector *metrics.Collector) *Dispatcher {
	d := &Dispatcher{
		registry:  reg,
		checker:   checker,
		collector: collector,
	}
	d.resources = builtinResources(d)
	return d
}

// ListTools answers tools/list. It never fails.
func (d *Dispatcher) ListTools() []registry.Definition {
	return d.registry.Definitions()
}

// CallResult is the transport-facing shape of one successful tools/call.
type CallResult struct {
	Content   interface{} `json:"content"`
	Source    string      `json:"source,omitempty"`
	ElapsedMs float64     `json:"elapsedMs"`
}

// CallTool answers tools/call for the given transport binding.
func (d *Dispatcher) CallTool(ctx context.Context, transport, name string, args map[string]interface{}) (*CallResult, error) {
	ec := registry.NewExecutionContext(transport, "tools/call")
	result, err := d.registry.Execute(ctx, name, args, ec)
	if err != nil {
		return nil, err
	}
	return &CallResult{
		Content:   result.Payload,
		Source:    result.Source,
		ElapsedMs: float64(result.Elapsed) / 1e6,
	}, nil
}

// ListResources answers resources/list. It never fails.
func (d *Dispatcher) ListResources() []ResourceDescriptor {
	descriptors := make([]ResourceDescriptor, 0, len(d.resources))
	for _, res := range d.resources {
		descriptors = append(descriptors, res.ResourceDescriptor)
	}
	return descriptors
}

// ReadResource answers resources/read. Unknown URIs fail with
// UnknownResourceError.
func (d *Dispatcher) ReadResource(ctx context.Context, uri string) (string, error) {
	for _, res := range d.resources {
		if res.URI == uri {
			content, err := res.Read(ctx)
			if err != nil {
				return "", fmt.Errorf("read resource %s: %w", uri, err)
			}
			return content, nil
		}
	}
	return "", &UnknownResourceError{URI: uri}
}

// Health exposes the health aggregator to the HTTP surface.
func (d *Dispatcher) Health(ctx context.Context, forceRefresh bool) health.Report {
	return d.checker.Check(ctx, forceRefresh)
}

// MetricsBody is the flat metrics document served by GET /metrics and the
// metrics resource.
type MetricsBody struct {
	metrics.Snapshot
	UptimeMs  float64 `json:"uptimeMs"`
	Timestamp string  `json:"timestamp"`
}

func metricsBody(d *Dispatcher) MetricsBody {
	return MetricsBody{
		Snapshot:  d.collector.Snapshot(),
		UptimeMs:  float64(d.collector.Uptime()) / 1e6,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func marshalJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
