// Package health probes the server's dependent services and rolls their
// statuses into one cached report.
package health

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// Status is the overall rollup level.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// DependencyUnhealthyError is returned by the startup gate when every
// dependent service failed its probe and the server refuses to come up.
type DependencyUnhealthyError struct {
	Report Report
}

func (e *DependencyUnhealthyError) Error() string {
	names := make([]string, 0, len(e.Report.Services))
	for _, s := range e.Report.Services {
		names = append(names, s.Name)
	}
	return fmt.Sprintf("all dependent services unhealthy: %s", strings.Join(names, ", "))
}

// ServiceHealth is the probe result for one dependent service.
type ServiceHealth struct {
	Name      string  `json:"name"`
	Healthy   bool    `json:"healthy"`
	LatencyMs float64 `json:"latencyMs"`
	Error     string  `json:"error,omitempty"`
}

// Report is a point-in-time health rollup across all dependent services.
type Report struct {
	Status    Status          `json:"status"`
	Services  []ServiceHealth `json:"services"`
	Timestamp time.Time       `json:"timestamp"`
}

// ProbeFunc checks one dependent service. A nil return means healthy. The
// context carries the per-probe deadline; probes must not outlive it.
type ProbeFunc func(ctx context.Context) error

type probe struct {
	name string
	fn   ProbeFunc
}

// Aggregator runs all registered probes in parallel, each under its own
// timeout, and caches the resulting report for a TTL window so repeated
// health polling does not hammer the dependent services.
type Aggregator struct {
	probes       []probe
	probeTimeout time.Duration
	cacheTTL     time.Duration

	mu     sync.Mutex
	cached *Report
}

// NewAggregator creates an aggregator with no probes registered.
func NewAggregator(probeTimeout, cacheTTL time.Duration) *Aggregator {
	return &Aggregator{
		probeTimeout: probeTimeout,
		cacheTTL:     cacheTTL,
	}
}

// RegisterProbe adds a named probe. Call during startup only; the probe set
// is fixed once Check starts being used.
func (a *Aggregator) RegisterProbe(name string, fn ProbeFunc) {
	a.probes = append(a.probes, probe{name: name, fn: fn})
}

// Check returns the current health report. A non-forced check within the
// TTL window of the last computed report returns the cached report
// unchanged, original timestamp included. A forced check always recomputes
// and replaces the cache.
func (a *Aggregator) Check(ctx context.Context, forceRefresh bool) Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !forceRefresh && a.cached != nil && time.Since(a.cached.Timestamp) < a.cacheTTL {
		return *a.cached
	}

	report := a.compute(ctx)
	a.cached = &report
	return report
}

// compute runs every probe in parallel and rolls the results up. A probe
// that times out or returns an error is recorded as unhealthy and never
// aborts the other probes.
func (a *Aggregator) compute(ctx context.Context) Report {
	results := make([]ServiceHealth, len(a.probes))

	var g errgroup.Group
	for i, p := range a.probes {
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, a.probeTimeout)
			defer cancel()

			start := time.Now()
			err := runProbe(probeCtx, p.fn)
			latency := float64(time.Since(start)) / float64(time.Millisecond)

			entry := ServiceHealth{Name: p.name, Healthy: err == nil, LatencyMs: latency}
			if err != nil {
				entry.Error = err.Error()
				logging.Warn("Health", "Probe %s unhealthy: %v", p.name, err)
			}
			results[i] = entry
			return nil
		})
	}
	_ = g.Wait() // probe goroutines always return nil

	return Report{
		Status:    rollup(results),
		Services:  results,
		Timestamp: time.Now(),
	}
}

// runProbe enforces the probe deadline even when the probe itself ignores
// context cancellation.
func runProbe(ctx context.Context, fn ProbeFunc) error {
	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// rollup reduces per-service health deterministically and order-
// independently: every service healthy means healthy, every service
// unhealthy means unhealthy, anything in between means degraded because
// request serving is still possible on the surviving services.
func rollup(services []ServiceHealth) Status {
	healthy := 0
	for _, s := range services {
		if s.Healthy {
			healthy++
		}
	}
	switch {
	case healthy == len(services):
		return StatusHealthy
	case healthy == 0:
		return StatusUnhealthy
	default:
		return StatusDegraded
	}
}
