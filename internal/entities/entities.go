// Package entities defines the source entity shapes handed to the search
// subsystem and the read contract of the external data store.
//
// Entities arrive with relations already resolved (author display name, owning
// platform slug) so the transformer never performs I/O. Moderation lives
// upstream: stores return only publishable rows (resources approved, everything
// else published).
package entities

import (
	"context"
	"time"
)

// Project is a community-submitted project with engagement counters.
type Project struct {
	ID          string
	Name        string
	Description string
	Category    *string
	Platforms   []string
	Tags        []string
	Stack       []string
	AuthorName  *string
	Status      string
	Upvotes     int
	Views       int
	Thumbnail   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Resource is an external learning resource (article, video, repo).
type Resource struct {
	ID          string
	Title       string
	Description string
	Type        string
	Category    *string
	Platforms   []string
	Tags        []string
	AuthorName  *string
	Status      string
	UseCount    int
	Featured    bool
	Thumbnail   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Skill is an installable agent skill.
type Skill struct {
	ID          string
	Slug        string
	Name        string
	Description string
	Category    *string
	Platforms   []string
	Tags        []string
	AuthorName  *string
	Status      string
	UseCount    int
	Featured    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Subagent is a reusable sub-agent definition.
type Subagent struct {
	ID          string
	Slug        string
	Name        string
	Description string
	Category    *string
	Platforms   []string
	Tags        []string
	AuthorName  *string
	Status      string
	Installs    int
	Featured    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MCPServer is a Model Context Protocol server listing.
type MCPServer struct {
	ID          string
	Slug        string
	Name        string
	Description string
	Category    *string
	Platforms   []string
	Tags        []string
	AuthorName  *string
	Status      string
	Installs    int
	Featured    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Platform is a profile page for an agent platform (editor, CLI, runtime).
type Platform struct {
	ID          string
	Slug        string
	Name        string
	Description string
	Tags        []string
	Status      string
	Logo        *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Prompt is a prompt template owned by a platform.
type Prompt struct {
	ID           string
	Title        string
	Description  string
	Category     *string
	PlatformSlug string
	Tags         []string
	AuthorName   *string
	Status       string
	CopyCount    int
	Featured     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Guide is a long-form platform guide.
type Guide struct {
	ID         string
	Slug       string
	Title      string
	Excerpt    string
	Category   *string
	Platforms  []string
	Tags       []string
	AuthorName *string
	Status     string
	Views      int
	Featured   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store is the read contract the index rebuild consumes. Implementations must
// pre-filter each collection to publishable rows; the transformer does not
// re-check moderation state.
type Store interface {
	Projects(ctx context.Context) ([]*Project, error)
	Resources(ctx context.Context) ([]*Resource, error)
	Skills(ctx context.Context) ([]*Skill, error)
	Subagents(ctx context.Context) ([]*Subagent, error)
	MCPServers(ctx context.Context) ([]*MCPServer, error)
	Platforms(ctx context.Context) ([]*Platform, error)
	Prompts(ctx context.Context) ([]*Prompt, error)
	Guides(ctx context.Context) ([]*Guide, error)

	Close() error
}
