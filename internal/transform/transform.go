// Package transform maps source entities to normalized SearchDocuments.
//
// Every function is pure and deterministic: no I/O, no clock, same input
// always yields the same document. Timestamps are copied from the source and
// converted to Unix seconds.
package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/kensaku/internal/entities"
	"github.com/hyperjump/kensaku/internal/models"
)

// ErrUnknownModel is returned by FromModel for a model name outside the closed
// set. This indicates a schema/config mismatch, not bad runtime data, and must
// propagate rather than be swallowed.
var ErrUnknownModel = errors.New("unknown model")

const (
	// featuredBonus is added to popularity for entities flagged featured.
	featuredBonus = 100
	// platformPopularity biases platform profiles toward top-of-results.
	platformPopularity = 1000
)

// Model names the source collections for dispatch.
type Model string

const (
	ModelProject  Model = "project"
	ModelResource Model = "resource"
	ModelSkill    Model = "skill"
	ModelSubagent Model = "subagent"
	ModelMCP      Model = "mcpServer"
	ModelPlatform Model = "platform"
	ModelPrompt   Model = "prompt"
	ModelGuide    Model = "guide"
)

// FromModel dispatches to the transform for the named model. The entity must
// be the pointer type matching the model; anything else fails with
// ErrUnknownModel or a type mismatch error.
func FromModel(model Model, entity any) (*models.SearchDocument, error) {
	switch model {
	case ModelProject:
		if p, ok := entity.(*entities.Project); ok {
			return Project(p), nil
		}
	case ModelResource:
		if r, ok := entity.(*entities.Resource); ok {
			return Resource(r), nil
		}
	case ModelSkill:
		if s, ok := entity.(*entities.Skill); ok {
			return Skill(s), nil
		}
	case ModelSubagent:
		if s, ok := entity.(*entities.Subagent); ok {
			return Subagent(s), nil
		}
	case ModelMCP:
		if m, ok := entity.(*entities.MCPServer); ok {
			return MCPServer(m), nil
		}
	case ModelPlatform:
		if p, ok := entity.(*entities.Platform); ok {
			return Platform(p), nil
		}
	case ModelPrompt:
		if p, ok := entity.(*entities.Prompt); ok {
			return Prompt(p), nil
		}
	case ModelGuide:
		if g, ok := entity.(*entities.Guide); ok {
			return Guide(g), nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	return nil, fmt.Errorf("%w: entity type does not match model %q", ErrUnknownModel, model)
}

// Project maps a project. Popularity is upvotes + views.
func Project(p *entities.Project) *models.SearchDocument {
	return &models.SearchDocument{
		ID:          models.DocumentID(models.EntityProject, p.ID),
		EntityType:  models.EntityProject,
		EntityID:    p.ID,
		Title:       p.Name,
		Description: p.Description,
		Content: mergeContent(p.Name, p.Description,
			strings.Join(p.Tags, " "),
			strings.Join(p.Stack, " "),
			deref(p.Category), deref(p.AuthorName)),
		Category:   p.Category,
		Platforms:  orEmpty(p.Platforms),
		Tags:       orEmpty(p.Tags),
		Author:     p.AuthorName,
		Status:     p.Status,
		CreatedAt:  p.CreatedAt.Unix(),
		UpdatedAt:  p.UpdatedAt.Unix(),
		Popularity: p.Upvotes + p.Views,
		URL:        "/projects/" + p.ID,
		Thumbnail:  p.Thumbnail,
	}
}

// Resource maps a resource. Rows must already be approved upstream.
func Resource(r *entities.Resource) *models.SearchDocument {
	return &models.SearchDocument{
		ID:          models.DocumentID(models.EntityResource, r.ID),
		EntityType:  models.EntityResource,
		EntityID:    r.ID,
		Title:       r.Title,
		Description: r.Description,
		Content: mergeContent(r.Title, r.Description, r.Type,
			strings.Join(r.Tags, " "),
			deref(r.Category), deref(r.AuthorName)),
		Category:   r.Category,
		Platforms:  orEmpty(r.Platforms),
		Tags:       orEmpty(r.Tags),
		Author:     r.AuthorName,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt.Unix(),
		UpdatedAt:  r.UpdatedAt.Unix(),
		Popularity: counterPopularity(r.UseCount, r.Featured),
		URL:        "/resources/" + r.ID,
		Thumbnail:  r.Thumbnail,
	}
}

// Skill maps a skill. The detail path embeds the slug, falling back to the
// collection root when the slug is absent.
func Skill(s *entities.Skill) *models.SearchDocument {
	return &models.SearchDocument{
		ID:          models.DocumentID(models.EntitySkill, s.ID),
		EntityType:  models.EntitySkill,
		EntityID:    s.ID,
		Title:       s.Name,
		Description: s.Description,
		Content: mergeContent(s.Name, s.Description,
			strings.Join(s.Tags, " "),
			deref(s.Category), deref(s.AuthorName)),
		Category:   s.Category,
		Platforms:  orEmpty(s.Platforms),
		Tags:       orEmpty(s.Tags),
		Author:     s.AuthorName,
		Status:     s.Status,
		CreatedAt:  s.CreatedAt.Unix(),
		UpdatedAt:  s.UpdatedAt.Unix(),
		Popularity: counterPopularity(s.UseCount, s.Featured),
		URL:        slugPath("/skills", s.Slug),
	}
}

// Subagent maps a sub-agent definition.
func Subagent(s *entities.Subagent) *models.SearchDocument {
	return &models.SearchDocument{
		ID:          models.DocumentID(models.EntitySubagent, s.ID),
		EntityType:  models.EntitySubagent,
		EntityID:    s.ID,
		Title:       s.Name,
		Description: s.Description,
		Content: mergeContent(s.Name, s.Description,
			strings.Join(s.Tags, " "),
			deref(s.Category), deref(s.AuthorName)),
		Category:   s.Category,
		Platforms:  orEmpty(s.Platforms),
		Tags:       orEmpty(s.Tags),
		Author:     s.AuthorName,
		Status:     s.Status,
		CreatedAt:  s.CreatedAt.Unix(),
		UpdatedAt:  s.UpdatedAt.Unix(),
		Popularity: counterPopularity(s.Installs, s.Featured),
		URL:        slugPath("/subagents", s.Slug),
	}
}

// MCPServer maps an MCP server listing.
func MCPServer(m *entities.MCPServer) *models.SearchDocument {
	return &models.SearchDocument{
		ID:          models.DocumentID(models.EntityMCP, m.ID),
		EntityType:  models.EntityMCP,
		EntityID:    m.ID,
		Title:       m.Name,
		Description: m.Description,
		Content: mergeContent(m.Name, m.Description,
			strings.Join(m.Tags, " "),
			deref(m.Category), deref(m.AuthorName)),
		Category:   m.Category,
		Platforms:  orEmpty(m.Platforms),
		Tags:       orEmpty(m.Tags),
		Author:     m.AuthorName,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt.Unix(),
		UpdatedAt:  m.UpdatedAt.Unix(),
		Popularity: counterPopularity(m.Installs, m.Featured),
		URL:        slugPath("/mcp", m.Slug),
	}
}

// Platform maps a platform profile. Popularity is a fixed high constant so
// profiles surface near the top of mixed results.
func Platform(p *entities.Platform) *models.SearchDocument {
	return &models.SearchDocument{
		ID:          models.DocumentID(models.EntityPlatform, p.ID),
		EntityType:  models.EntityPlatform,
		EntityID:    p.ID,
		Title:       p.Name,
		Description: p.Description,
		Content: mergeContent(p.Name, p.Description,
			strings.Join(p.Tags, " ")),
		Category:   nil,
		Platforms:  []string{p.Slug},
		Tags:       orEmpty(p.Tags),
		Author:     nil,
		Status:     p.Status,
		CreatedAt:  p.CreatedAt.Unix(),
		UpdatedAt:  p.UpdatedAt.Unix(),
		Popularity: platformPopularity,
		URL:        slugPath("/platforms", p.Slug),
		Thumbnail:  p.Logo,
	}
}

// Prompt maps a prompt template. The owning platform slug becomes its single
// platform membership.
func Prompt(p *entities.Prompt) *models.SearchDocument {
	platforms := []string{}
	if p.PlatformSlug != "" {
		platforms = []string{p.PlatformSlug}
	}
	return &models.SearchDocument{
		ID:          models.DocumentID(models.EntityPrompt, p.ID),
		EntityType:  models.EntityPrompt,
		EntityID:    p.ID,
		Title:       p.Title,
		Description: p.Description,
		Content: mergeContent(p.Title, p.Description,
			strings.Join(p.Tags, " "),
			p.PlatformSlug, deref(p.Category), deref(p.AuthorName)),
		Category:   p.Category,
		Platforms:  platforms,
		Tags:       orEmpty(p.Tags),
		Author:     p.AuthorName,
		Status:     p.Status,
		CreatedAt:  p.CreatedAt.Unix(),
		UpdatedAt:  p.UpdatedAt.Unix(),
		Popularity: counterPopularity(p.CopyCount, p.Featured),
		URL:        "/prompts/" + p.ID,
	}
}

// Guide maps a platform guide.
func Guide(g *entities.Guide) *models.SearchDocument {
	return &models.SearchDocument{
		ID:          models.DocumentID(models.EntityGuide, g.ID),
		EntityType:  models.EntityGuide,
		EntityID:    g.ID,
		Title:       g.Title,
		Description: g.Excerpt,
		Content: mergeContent(g.Title, g.Excerpt,
			strings.Join(g.Tags, " "),
			strings.Join(g.Platforms, " "),
			deref(g.Category), deref(g.AuthorName)),
		Category:   g.Category,
		Platforms:  orEmpty(g.Platforms),
		Tags:       orEmpty(g.Tags),
		Author:     g.AuthorName,
		Status:     g.Status,
		CreatedAt:  g.CreatedAt.Unix(),
		UpdatedAt:  g.UpdatedAt.Unix(),
		Popularity: counterPopularity(g.Views, g.Featured),
		URL:        slugPath("/guides", g.Slug),
	}
}

// mergeContent joins non-empty parts with single spaces. Title and description
// come first so Content always contains them as substrings.
func mergeContent(parts ...string) string {
	merged := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			merged = append(merged, p)
		}
	}
	return strings.Join(merged, " ")
}

func counterPopularity(count int, featured bool) int {
	if featured {
		return count + featuredBonus
	}
	return count
}

func slugPath(root, slug string) string {
	if slug == "" {
		return root
	}
	return root + "/" + slug
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
