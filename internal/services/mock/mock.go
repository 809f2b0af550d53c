// Package mock provides configurable in-memory implementations of the
// service interfaces for tests.
package mock

import (
	"context"

	"github.com/mattcarp/aoma-mesh-mcp-sub010/internal/services"
)

// CompletionService is a CompletionService whose behavior is supplied per
// test. Unset funcs return zero values.
type CompletionService struct {
	CompleteFunc func(ctx context.Context, req services.CompletionRequest) (string, error)
	PingFunc     func(ctx context.Context) error

	// Requests records every Complete call for assertions.
	Requests []services.CompletionRequest
}

var _ services.CompletionService = (*CompletionService)(nil)

func (m *CompletionService) Complete(ctx context.Context, req services.CompletionRequest) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

func (m *CompletionService) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// DataService is a DataService whose behavior is supplied per test.
type DataService struct {
	Tickets   []services.Ticket
	Commits   []services.Commit
	CodeFiles []services.CodeFile
	Documents []services.Document

	// Err, when set, is returned by every search method.
	Err error

	PingFunc func(ctx context.Context) error
}

var _ services.DataService = (*DataService)(nil)

func (m *DataService) SearchTickets(ctx context.Context, query, projectKey string, limit int) ([]services.Ticket, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tickets, nil
}

func (m *DataService) SearchCommits(ctx context.Context, query string, limit int) ([]services.Commit, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Commits, nil
}

func (m *DataService) SearchCodeFiles(ctx context.Context, query, language string, limit int) ([]services.CodeFile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.CodeFiles, nil
}

func (m *DataService) SearchDocuments(ctx context.Context, query string, limit int) ([]services.Document, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Documents, nil
}

func (m *DataService) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}
