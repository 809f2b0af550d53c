package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the structured-data tables. Apply it via
// [PostgresService.Migrate] or manually during deployment. The tables are
// populated by external ingestion jobs; this server only reads them.
const Schema = `
CREATE TABLE IF NOT EXISTS jira_tickets (
    key       TEXT PRIMARY KEY,
    project   TEXT NOT NULL,
    summary   TEXT NOT NULL,
    status    TEXT NOT NULL DEFAULT '',
    priority  TEXT NOT NULL DEFAULT '',
    updated   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_jira_tickets_project ON jira_tickets(project);

CREATE TABLE IF NOT EXISTS git_commits (
    hash       TEXT PRIMARY KEY,
    repository TEXT NOT NULL,
    author     TEXT NOT NULL DEFAULT '',
    message    TEXT NOT NULL,
    date       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS code_files (
    path       TEXT NOT NULL,
    repository TEXT NOT NULL,
    language   TEXT NOT NULL DEFAULT '',
    snippet    TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (repository, path)
);
CREATE INDEX IF NOT EXISTS idx_code_files_language ON code_files(language);

CREATE TABLE IF NOT EXISTS aoma_documents (
    title   TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    url     TEXT NOT NULL DEFAULT ''
);
`

// DB is the database interface used by [PostgresService]. Both
// *pgxpool.Pool and *pgx.Conn satisfy it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresService is a DataService backed by PostgreSQL.
type PostgresService struct {
	db DB
}

// Compile-time interface check.
var _ DataService = (*PostgresService)(nil)

// NewPostgresService wraps an existing connection or pool.
func NewPostgresService(db DB) *PostgresService {
	return &PostgresService{db: db}
}

// Migrate executes the [Schema] DDL, creating the tables if they do not
// already exist.
func (s *PostgresService) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("services: migrate: %w", err)
	}
	return nil
}

// searchPattern turns a free-text query into a case-insensitive LIKE
// pattern. Whitespace runs collapse to single wildcards so "login  timeout"
// matches "login page timeout".
func searchPattern(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "%"
	}
	return "%" + strings.Join(fields, "%") + "%"
}

// clampLimit bounds caller-supplied result counts to something sane.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 15
	case limit > 100:
		return 100
	default:
		return limit
	}
}

// SearchTickets implements DataService.
func (s *PostgresService) SearchTickets(ctx context.Context, query, projectKey string, limit int) ([]Ticket, error) {
	sql := `SELECT key, project, summary, status, priority, updated
		FROM jira_tickets
		WHERE summary ILIKE $1 AND ($2 = '' OR project = $2)
		ORDER BY updated DESC
		LIMIT $3`
	rows, err := s.db.Query(ctx, sql, searchPattern(query), projectKey, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("services: search tickets: %w", err)
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.Key, &t.Project, &t.Summary, &t.Status, &t.Priority, &t.Updated); err != nil {
			return nil, fmt.Errorf("services: scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// SearchCommits implements DataService.
func (s *PostgresService) SearchCommits(ctx context.Context, query string, limit int) ([]Commit, error) {
	sql := `SELECT hash, repository, author, message, date
		FROM git_commits
		WHERE message ILIKE $1
		ORDER BY date DESC
		LIMIT $2`
	rows, err := s.db.Query(ctx, sql, searchPattern(query), clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("services: search commits: %w", err)
	}
	defer rows.Close()

	var commits []Commit
	for rows.Next() {
		var c Commit
		if err := rows.Scan(&c.Hash, &c.Repository, &c.Author, &c.Message, &c.Date); err != nil {
			return nil, fmt.Errorf("services: scan commit: %w", err)
		}
		commits = append(commits, c)
	}
	return commits, rows.Err()
}

// SearchCodeFiles implements DataService.
func (s *PostgresService) SearchCodeFiles(ctx context.Context, query, language string, limit int) ([]CodeFile, error) {
	sql := `SELECT path, repository, language, snippet
		FROM code_files
		WHERE (path ILIKE $1 OR snippet ILIKE $1) AND ($2 = '' OR language = $2)
		ORDER BY repository, path
		LIMIT $3`
	rows, err := s.db.Query(ctx, sql, searchPattern(query), language, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("services: search code files: %w", err)
	}
	defer rows.Close()

	var files []CodeFile
	for rows.Next() {
		var f CodeFile
		if err := rows.Scan(&f.Path, &f.Repository, &f.Language, &f.Snippet); err != nil {
			return nil, fmt.Errorf("services: scan code file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// SearchDocuments implements DataService.
func (s *PostgresService) SearchDocuments(ctx context.Context, query string, limit int) ([]Document, error) {
	sql := `SELECT title, content, url
		FROM aoma_documents
		WHERE title ILIKE $1 OR content ILIKE $1
		ORDER BY title
		LIMIT $2`
	rows, err := s.db.Query(ctx, sql, searchPattern(query), clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("services: search documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.Title, &d.Content, &d.URL); err != nil {
			return nil, fmt.Errorf("services: scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Ping implements DataService.
func (s *PostgresService) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("services: ping: %w", err)
	}
	return nil
}
