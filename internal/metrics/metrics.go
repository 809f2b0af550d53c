// Package metrics provides process-wide request counters for the server.
//
// A single Collector instance is shared by every tool execution path. All
// mutation goes through RecordOutcome so counters can never tear under
// concurrency; readers get immutable copies through Snapshot.
package metrics

import (
	"sync"
	"time"
)

// Snapshot is an immutable copy of the collector state at one point in time.
type Snapshot struct {
	TotalRequests         int64     `json:"totalRequests"`
	SuccessfulRequests    int64     `json:"successfulRequests"`
	FailedRequests        int64     `json:"failedRequests"`
	AverageResponseTimeMs float64   `json:"averageResponseTimeMs"`
	LastRequestTime       time.Time `json:"lastRequestTime"`
}

// Collector accumulates request outcomes. The zero value is not usable;
// construct with NewCollector.
type Collector struct {
	mu        sync.Mutex
	total     int64
	succeeded int64
	failed    int64
	avgMs     float64
	lastAt    time.Time
	startedAt time.Time
}

// NewCollector returns a Collector with process start time recorded for
// uptime reporting.
func NewCollector() *Collector {
	return &Collector{startedAt: time.Now()}
}

// RecordOutcome registers one finished request. Exactly one of the
// success/failure counters is incremented, and the running average response
// time is updated with the incremental mean formula so no history needs to
// be stored.
func (c *Collector) RecordOutcome(success bool, elapsed time.Duration) {
	elapsedMs := float64(elapsed) / float64(time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	if success {
		c.succeeded++
	} else {
		c.failed++
	}
	c.avgMs += (elapsedMs - c.avgMs) / float64(c.total)
	c.lastAt = time.Now()
}

// Snapshot returns a copy of the current counters. The returned value shares
// no state with the collector.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		TotalRequests:         c.total,
		SuccessfulRequests:    c.succeeded,
		FailedRequests:        c.failed,
		AverageResponseTimeMs: c.avgMs,
		LastRequestTime:       c.lastAt,
	}
}

// Uptime reports how long the process has been collecting.
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startedAt)
}
