package server

import (
	"context"
	"fmt"
)

// Resource URIs served by both transports.
const (
	ResourceHealthURI  = "aoma://health"
	ResourceMetricsURI = "aoma://metrics"
	ResourceCatalogURI = "aoma://docs/catalog"
)

// ResourceDescriptor is the read-only listing entry for one resource.
type ResourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

// Resource pairs a descriptor with its read handler.
type Resource struct {
	ResourceDescriptor
	Read func(ctx context.Context) (string, error)
}

// UnknownResourceError reports a resources/read against a URI the server
// does not serve.
type UnknownResourceError struct {
	URI string
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("unknown resource: %s", e.URI)
}

func builtinResources(d *Dispatcher) []Resource {
	return []Resource{
		{
			ResourceDescriptor: ResourceDescriptor{
				URI:         ResourceHealthURI,
				Name:        "System Health",
				Description: "Aggregated health of the knowledge base dependencies",
				MimeType:    "application/json",
			},
			Read: func(ctx context.Context) (string, error) {
				report := d.Health(ctx, false)
				return marshalJSON(report)
			},
		},
		{
			ResourceDescriptor: ResourceDescriptor{
				URI:         ResourceMetricsURI,
				Name:        "Server Metrics",
				Description: "Request counters and latency since process start",
				MimeType:    "application/json",
			},
			Read: func(ctx context.Context) (string, error) {
				return marshalJSON(metricsBody(d))
			},
		},
		{
			ResourceDescriptor: ResourceDescriptor{
				URI:         ResourceCatalogURI,
				Name:        "Tool Catalog",
				Description: "Names, descriptions and input schemas of every registered tool",
				MimeType:    "application/json",
			},
			Read: func(ctx context.Context) (string, error) {
				return marshalJSON(d.ListTools())
			},
		},
	}
}
