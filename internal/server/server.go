// Package server binds the tool registry to its two transports: MCP over
// stdio for editor and agent clients, and JSON-RPC over HTTP for service
// callers. Both transports share one dispatch core, so a tool behaves
// identically no matter which binding invoked it.
package server

import (
	"context"
	"fmt"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/config"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/health"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/metrics"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/registry"
	"github.com/mattcarp/aoma-mesh-mcp-sub010/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

// Server owns the transport bindings and their lifecycle. The HTTP surface
// always runs so health and metrics stay reachable; the stdio binding is
// added when the configured transport asks for it.
type Server struct {
	name    string
	version string
	cfg     config.ServerConfig

	dispatcher *Dispatcher
	mcp        *mcpserver.MCPServer
	http       *httpServer

	cancelStdio context.CancelFunc
	stdioDone   chan error
}

// New assembles a server over an already-populated registry.
func New(name, version string, cfg config.ServerConfig, reg *registry.Registry, checker *health.Aggregator, collector *metrics.Collector) *Server {
	d := NewDispatcher(reg, checker, collector)
	return &Server{
		name:       name,
		version:    version,
		cfg:        cfg,
		dispatcher: d,
		mcp:        newMCPServer(name, version, d),
		http:       newHTTPServer(d, cfg.Host, cfg.Port, cfg.MaxPortAttempts),
	}
}

// Dispatcher exposes the dispatch core, mainly for tests.
func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// HTTPAddr returns the bound HTTP address. Empty until Start succeeds.
func (s *Server) HTTPAddr() string {
	return s.http.addr
}

// Start brings the transports up and returns once they are accepting
// requests. The stdio binding runs until its stdin closes or the server
// is stopped.
func (s *Server) Start(ctx context.Context) error {
	if err := s.http.start(); err != nil {
		return fmt.Errorf("start HTTP transport: %w", err)
	}

	if s.cfg.Transport == config.TransportStdio {
		stdioCtx, cancel := context.WithCancel(ctx)
		s.cancelStdio = cancel
		s.stdioDone = make(chan error, 1)

		go func() {
			logging.Info("Server", "Serving MCP on stdio")
			s.stdioDone <- mcpserver.NewStdioServer(s.mcp).Listen(stdioCtx, os.Stdin, os.Stdout)
		}()
	}

	logging.Info("Server", "%s %s started (transport=%s)", s.name, s.version, s.cfg.Transport)
	return nil
}

// Wait blocks until the stdio binding ends or the context is cancelled.
// In HTTP-only mode it blocks on the context alone.
func (s *Server) Wait(ctx context.Context) error {
	if s.stdioDone == nil {
		<-ctx.Done()
		return nil
	}
	select {
	case err := <-s.stdioDone:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("stdio transport: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}

// Stop drains in-flight HTTP requests and tears down the stdio binding.
func (s *Server) Stop() error {
	if s.cancelStdio != nil {
		s.cancelStdio()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown HTTP transport: %w", err)
	}

	logging.Info("Server", "Server stopped")
	return nil
}
