// Package services wraps the server's external collaborators: the OpenAI
// completion service and the Postgres-backed structured-data service. The
// rest of the server depends only on the interfaces here, so tests swap in
// fakes and the concrete clients stay at the edge.
package services

import (
	"context"
	"time"
)

// CompletionRequest is one prompt for the completion service.
type CompletionRequest struct {
	System    string // optional system instruction
	Prompt    string
	MaxTokens int // 0 means provider default
}

// CompletionService generates text from a prompt. Synthesis and the
// knowledge tools treat it as a black box.
type CompletionService interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Ping verifies the service is reachable; used by health probes.
	Ping(ctx context.Context) error
}

// Ticket is one Jira ticket row.
type Ticket struct {
	Key      string    `json:"key"`
	Project  string    `json:"project"`
	Summary  string    `json:"summary"`
	Status   string    `json:"status"`
	Priority string    `json:"priority"`
	Updated  time.Time `json:"updated"`
}

// Commit is one git commit row.
type Commit struct {
	Hash       string    `json:"hash"`
	Repository string    `json:"repository"`
	Author     string    `json:"author"`
	Message    string    `json:"message"`
	Date       time.Time `json:"date"`
}

// CodeFile is one indexed source file row.
type CodeFile struct {
	Path       string `json:"path"`
	Repository string `json:"repository"`
	Language   string `json:"language"`
	Snippet    string `json:"snippet"`
}

// Document is one knowledge-base document row.
type Document struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url,omitempty"`
}

// DataService answers parameterized queries against the structured stores
// the tools search: Jira tickets, git history, indexed code, and the AOMA
// knowledge base.
type DataService interface {
	SearchTickets(ctx context.Context, query, projectKey string, limit int) ([]Ticket, error)
	SearchCommits(ctx context.Context, query string, limit int) ([]Commit, error)
	SearchCodeFiles(ctx context.Context, query, language string, limit int) ([]CodeFile, error)
	SearchDocuments(ctx context.Context, query string, limit int) ([]Document, error)

	// Ping verifies the backing store is reachable; used by health probes.
	Ping(ctx context.Context) error
}
