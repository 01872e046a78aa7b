// Package store provides the SQLite implementation of the entities.Store
// contract. The database is the site's source of truth; the search index is a
// derived cache over it, so every query here pre-filters to publishable rows
// and joins author display names before handing rows to the transformer.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kensaku/internal/entities"
)

// Moderation states queried by the store. Resources go through an approval
// queue; everything else publishes directly.
const (
	statusPublished = "published"
	statusApproved  = "APPROVED"
)

// SQLite implements entities.Store backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at dbPath and initializes the
// schema. Parent directories are created if they do not exist.
func NewSQLite(dbPath string) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT,
		platforms TEXT NOT NULL DEFAULT '[]',
		tags TEXT NOT NULL DEFAULT '[]',
		stack TEXT NOT NULL DEFAULT '[]',
		author_id TEXT REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'published',
		upvotes INTEGER NOT NULL DEFAULT 0,
		views INTEGER NOT NULL DEFAULT 0,
		thumbnail TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT 'article',
		category TEXT,
		platforms TEXT NOT NULL DEFAULT '[]',
		tags TEXT NOT NULL DEFAULT '[]',
		author_id TEXT REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'PENDING',
		use_count INTEGER NOT NULL DEFAULT 0,
		featured INTEGER NOT NULL DEFAULT 0,
		thumbnail TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS skills (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT,
		platforms TEXT NOT NULL DEFAULT '[]',
		tags TEXT NOT NULL DEFAULT '[]',
		author_id TEXT REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'published',
		use_count INTEGER NOT NULL DEFAULT 0,
		featured INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS subagents (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT,
		platforms TEXT NOT NULL DEFAULT '[]',
		tags TEXT NOT NULL DEFAULT '[]',
		author_id TEXT REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'published',
		installs INTEGER NOT NULL DEFAULT 0,
		featured INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS mcp_servers (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT,
		platforms TEXT NOT NULL DEFAULT '[]',
		tags TEXT NOT NULL DEFAULT '[]',
		author_id TEXT REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'published',
		installs INTEGER NOT NULL DEFAULT 0,
		featured INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS platforms (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'published',
		logo TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS prompts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT,
		platform_slug TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		author_id TEXT REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'published',
		copy_count INTEGER NOT NULL DEFAULT 0,
		featured INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS guides (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL,
		title TEXT NOT NULL,
		excerpt TEXT NOT NULL DEFAULT '',
		category TEXT,
		platforms TEXT NOT NULL DEFAULT '[]',
		tags TEXT NOT NULL DEFAULT '[]',
		author_id TEXT REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'published',
		views INTEGER NOT NULL DEFAULT 0,
		featured INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);
	CREATE INDEX IF NOT EXISTS idx_resources_status ON resources(status);
	CREATE INDEX IF NOT EXISTS idx_skills_status ON skills(status);
	CREATE INDEX IF NOT EXISTS idx_subagents_status ON subagents(status);
	CREATE INDEX IF NOT EXISTS idx_mcp_servers_status ON mcp_servers(status);
	CREATE INDEX IF NOT EXISTS idx_prompts_status ON prompts(status);
	CREATE INDEX IF NOT EXISTS idx_guides_status ON guides(status);
	`
	_, err := db.Exec(schema)
	return err
}

// Projects returns all published projects with author names joined.
func (s *SQLite) Projects(ctx context.Context) ([]*entities.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.description, p.category, p.platforms, p.tags,
		       p.stack, u.display_name, p.status, p.upvotes, p.views,
		       p.thumbnail, p.created_at, p.updated_at
		FROM projects p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.status = ?`, statusPublished)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []*entities.Project
	for rows.Next() {
		var (
			p                       entities.Project
			category, author, thumb sql.NullString
			platforms, tags, stack  string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &category,
			&platforms, &tags, &stack, &author, &p.Status, &p.Upvotes,
			&p.Views, &thumb, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.Category = nullable(category)
		p.AuthorName = nullable(author)
		p.Thumbnail = nullable(thumb)
		p.Platforms = decodeList(platforms)
		p.Tags = decodeList(tags)
		p.Stack = decodeList(stack)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// Resources returns approved resources only; the moderation gate lives here,
// not in the transformer.
func (s *SQLite) Resources(ctx context.Context) ([]*entities.Resource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.title, r.description, r.type, r.category, r.platforms,
		       r.tags, u.display_name, r.status, r.use_count, r.featured,
		       r.thumbnail, r.created_at, r.updated_at
		FROM resources r
		LEFT JOIN users u ON u.id = r.author_id
		WHERE r.status = ?`, statusApproved)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	var resources []*entities.Resource
	for rows.Next() {
		var (
			r                       entities.Resource
			category, author, thumb sql.NullString
			platforms, tags         string
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &r.Type,
			&category, &platforms, &tags, &author, &r.Status, &r.UseCount,
			&r.Featured, &thumb, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan resource: %w", err)
		}
		r.Category = nullable(category)
		r.AuthorName = nullable(author)
		r.Thumbnail = nullable(thumb)
		r.Platforms = decodeList(platforms)
		r.Tags = decodeList(tags)
		resources = append(resources, &r)
	}
	return resources, rows.Err()
}

// Skills returns all published skills.
func (s *SQLite) Skills(ctx context.Context) ([]*entities.Skill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sk.id, sk.slug, sk.name, sk.description, sk.category,
		       sk.platforms, sk.tags, u.display_name, sk.status, sk.use_count,
		       sk.featured, sk.created_at, sk.updated_at
		FROM skills sk
		LEFT JOIN users u ON u.id = sk.author_id
		WHERE sk.status = ?`, statusPublished)
	if err != nil {
		return nil, fmt.Errorf("query skills: %w", err)
	}
	defer rows.Close()

	var skills []*entities.Skill
	for rows.Next() {
		var (
			sk               entities.Skill
			category, author sql.NullString
			platforms, tags  string
		)
		if err := rows.Scan(&sk.ID, &sk.Slug, &sk.Name, &sk.Description,
			&category, &platforms, &tags, &author, &sk.Status, &sk.UseCount,
			&sk.Featured, &sk.CreatedAt, &sk.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		sk.Category = nullable(category)
		sk.AuthorName = nullable(author)
		sk.Platforms = decodeList(platforms)
		sk.Tags = decodeList(tags)
		skills = append(skills, &sk)
	}
	return skills, rows.Err()
}

// Subagents returns all published sub-agents.
func (s *SQLite) Subagents(ctx context.Context) ([]*entities.Subagent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sa.id, sa.slug, sa.name, sa.description, sa.category,
		       sa.platforms, sa.tags, u.display_name, sa.status, sa.installs,
		       sa.featured, sa.created_at, sa.updated_at
		FROM subagents sa
		LEFT JOIN users u ON u.id = sa.author_id
		WHERE sa.status = ?`, statusPublished)
	if err != nil {
		return nil, fmt.Errorf("query subagents: %w", err)
	}
	defer rows.Close()

	var subagents []*entities.Subagent
	for rows.Next() {
		var (
			sa               entities.Subagent
			category, author sql.NullString
			platforms, tags  string
		)
		if err := rows.Scan(&sa.ID, &sa.Slug, &sa.Name, &sa.Description,
			&category, &platforms, &tags, &author, &sa.Status, &sa.Installs,
			&sa.Featured, &sa.CreatedAt, &sa.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subagent: %w", err)
		}
		sa.Category = nullable(category)
		sa.AuthorName = nullable(author)
		sa.Platforms = decodeList(platforms)
		sa.Tags = decodeList(tags)
		subagents = append(subagents, &sa)
	}
	return subagents, rows.Err()
}

// MCPServers returns all published MCP server listings.
func (s *SQLite) MCPServers(ctx context.Context) ([]*entities.MCPServer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.slug, m.name, m.description, m.category, m.platforms,
		       m.tags, u.display_name, m.status, m.installs, m.featured,
		       m.created_at, m.updated_at
		FROM mcp_servers m
		LEFT JOIN users u ON u.id = m.author_id
		WHERE m.status = ?`, statusPublished)
	if err != nil {
		return nil, fmt.Errorf("query mcp servers: %w", err)
	}
	defer rows.Close()

	var servers []*entities.MCPServer
	for rows.Next() {
		var (
			m                entities.MCPServer
			category, author sql.NullString
			platforms, tags  string
		)
		if err := rows.Scan(&m.ID, &m.Slug, &m.Name, &m.Description,
			&category, &platforms, &tags, &author, &m.Status, &m.Installs,
			&m.Featured, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan mcp server: %w", err)
		}
		m.Category = nullable(category)
		m.AuthorName = nullable(author)
		m.Platforms = decodeList(platforms)
		m.Tags = decodeList(tags)
		servers = append(servers, &m)
	}
	return servers, rows.Err()
}

// Platforms returns all published platform profiles.
func (s *SQLite) Platforms(ctx context.Context) ([]*entities.Platform, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slug, name, description, tags, status, logo,
		       created_at, updated_at
		FROM platforms
		WHERE status = ?`, statusPublished)
	if err != nil {
		return nil, fmt.Errorf("query platforms: %w", err)
	}
	defer rows.Close()

	var platforms []*entities.Platform
	for rows.Next() {
		var (
			p    entities.Platform
			logo sql.NullString
			tags string
		)
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &tags,
			&p.Status, &logo, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan platform: %w", err)
		}
		p.Logo = nullable(logo)
		p.Tags = decodeList(tags)
		platforms = append(platforms, &p)
	}
	return platforms, rows.Err()
}

// Prompts returns all published prompt templates.
func (s *SQLite) Prompts(ctx context.Context) ([]*entities.Prompt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pr.id, pr.title, pr.description, pr.category, pr.platform_slug,
		       pr.tags, u.display_name, pr.status, pr.copy_count, pr.featured,
		       pr.created_at, pr.updated_at
		FROM prompts pr
		LEFT JOIN users u ON u.id = pr.author_id
		WHERE pr.status = ?`, statusPublished)
	if err != nil {
		return nil, fmt.Errorf("query prompts: %w", err)
	}
	defer rows.Close()

	var prompts []*entities.Prompt
	for rows.Next() {
		var (
			pr               entities.Prompt
			category, author sql.NullString
			tags             string
		)
		if err := rows.Scan(&pr.ID, &pr.Title, &pr.Description, &category,
			&pr.PlatformSlug, &tags, &author, &pr.Status, &pr.CopyCount,
			&pr.Featured, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		pr.Category = nullable(category)
		pr.AuthorName = nullable(author)
		pr.Tags = decodeList(tags)
		prompts = append(prompts, &pr)
	}
	return prompts, rows.Err()
}

// Guides returns all published guides.
func (s *SQLite) Guides(ctx context.Context) ([]*entities.Guide, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.slug, g.title, g.excerpt, g.category, g.platforms,
		       g.tags, u.display_name, g.status, g.views, g.featured,
		       g.created_at, g.updated_at
		FROM guides g
		LEFT JOIN users u ON u.id = g.author_id
		WHERE g.status = ?`, statusPublished)
	if err != nil {
		return nil, fmt.Errorf("query guides: %w", err)
	}
	defer rows.Close()

	var guides []*entities.Guide
	for rows.Next() {
		var (
			g                entities.Guide
			category, author sql.NullString
			platforms, tags  string
		)
		if err := rows.Scan(&g.ID, &g.Slug, &g.Title, &g.Excerpt, &category,
			&platforms, &tags, &author, &g.Status, &g.Views, &g.Featured,
			&g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan guide: %w", err)
		}
		g.Category = nullable(category)
		g.AuthorName = nullable(author)
		g.Platforms = decodeList(platforms)
		g.Tags = decodeList(tags)
		guides = append(guides, &g)
	}
	return guides, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// decodeList parses a JSON array column; malformed or empty values decode to
// an empty list rather than failing the whole collection read.
func decodeList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil || list == nil {
		return []string{}
	}
	return list
}

func nullable(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	v := s.String
	return &v
}
