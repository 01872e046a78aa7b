package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Seed populates an empty database with a small set of sample entities across
// every collection so the server is searchable out of the box. Seeding a
// non-empty database is a no-op.
func (s *SQLite) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&count); err != nil {
		return fmt.Errorf("seed precheck: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	authorID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO users (id, display_name) VALUES (?, ?)",
		authorID, "Mika Tanaka"); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, category, platforms, tags,
			stack, author_id, status, upvotes, views, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'published', ?, ?, ?, ?)`,
		uuid.NewString(), "Inbox Triage Agent",
		"An agent that labels and drafts replies for incoming support email.",
		"automation", list("claude-code", "cursor"), list("email", "agents"),
		list("go", "sqlite"), authorID, 42, 310, now, now); err != nil {
		return fmt.Errorf("seed projects: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO resources (id, title, description, type, category,
			platforms, tags, author_id, status, use_count, featured,
			created_at, updated_at)
		VALUES (?, ?, ?, 'article', ?, ?, ?, ?, 'APPROVED', ?, 1, ?, ?)`,
		uuid.NewString(), "Cursor Setup Guide",
		"Step-by-step setup for Cursor with recommended defaults.",
		"getting-started", list("cursor"), list("setup", "editor"),
		authorID, 120, now, now); err != nil {
		return fmt.Errorf("seed resources: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO skills (id, slug, name, description, category, platforms,
			tags, author_id, status, use_count, featured, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'published', ?, 0, ?, ?)`,
		uuid.NewString(), "code-review", "Code Review",
		"Reviews diffs for correctness, style, and missing tests.",
		"engineering", list("claude-code"), list("review", "quality"),
		authorID, 87, now, now); err != nil {
		return fmt.Errorf("seed skills: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO subagents (id, slug, name, description, category,
			platforms, tags, author_id, status, installs, featured,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'published', ?, 0, ?, ?)`,
		uuid.NewString(), "python-expert", "Python Expert Agent",
		"A sub-agent specialized in Python debugging and profiling.",
		"engineering", list("claude-code"), list("python", "debugging"),
		authorID, 55, now, now); err != nil {
		return fmt.Errorf("seed subagents: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO mcp_servers (id, slug, name, description, category,
			platforms, tags, author_id, status, installs, featured,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'published', ?, 1, ?, ?)`,
		uuid.NewString(), "postgres-mcp", "Postgres MCP Server",
		"Exposes schema inspection and read-only queries over MCP.",
		"data", list("claude-code", "cursor"), list("postgres", "database"),
		authorID, 204, now, now); err != nil {
		return fmt.Errorf("seed mcp_servers: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO platforms (id, slug, name, description, tags, status,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'published', ?, ?)`,
		uuid.NewString(), "claude-code", "Claude Code",
		"Anthropic's agentic coding CLI.", list("cli", "agents"),
		now, now); err != nil {
		return fmt.Errorf("seed platforms: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO prompts (id, title, description, category, platform_slug,
			tags, author_id, status, copy_count, featured, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'published', ?, 0, ?, ?)`,
		uuid.NewString(), "Refactor Planner",
		"Prompt template for planning multi-file refactors safely.",
		"engineering", "claude-code", list("refactoring", "planning"),
		authorID, 66, now, now); err != nil {
		return fmt.Errorf("seed prompts: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO guides (id, slug, title, excerpt, category, platforms,
			tags, author_id, status, views, featured, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'published', ?, 0, ?, ?)`,
		uuid.NewString(), "claude-code-debugging", "Claude Code Debugging",
		"How to debug agent sessions and inspect tool calls.",
		"guides", list("claude-code"), list("debugging"),
		authorID, 150, now, now); err != nil {
		return fmt.Errorf("seed guides: %w", err)
	}

	return tx.Commit()
}

func list(items ...string) string {
	b, _ := json.Marshal(items)
	return string(b)
}
