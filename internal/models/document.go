// Package models defines core data structures for search documents, queries, and results.
package models

import "strings"

// EntityType identifies which source collection a document came from.
type EntityType string

// The closed set of indexable entity types. Values must not contain "_"
// because document IDs are split on the first underscore.
const (
	EntityProject  EntityType = "project"
	EntityResource EntityType = "resource"
	EntitySkill    EntityType = "skill"
	EntitySubagent EntityType = "subagent"
	EntityMCP      EntityType = "mcp"
	EntityPlatform EntityType = "platform"
	EntityPrompt   EntityType = "prompt"
	EntityGuide    EntityType = "guide"
)

// EntityTypes lists every indexable entity type.
var EntityTypes = []EntityType{
	EntityProject,
	EntityResource,
	EntitySkill,
	EntitySubagent,
	EntityMCP,
	EntityPlatform,
	EntityPrompt,
	EntityGuide,
}

// SearchDocument is the normalized unit stored in the index. Every source
// entity maps to exactly one SearchDocument; documents are recomputed wholesale
// on each index rebuild and never mutated in place.
type SearchDocument struct {
	// ID is the composite key "{entityType}_{entityId}", globally unique
	// across all entity types sharing the index.
	ID          string     `json:"id"`
	EntityType  EntityType `json:"entityType"`
	EntityID    string     `json:"entityId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	// Content is a whitespace-joined merge of title, description, and
	// entity-specific secondary fields. It is the deepest field the fuzzy
	// matcher searches and always contains Title and Description as substrings.
	Content   string   `json:"content"`
	Category  *string  `json:"category"`
	Platforms []string `json:"platforms"`
	Tags      []string `json:"tags"`
	Author    *string  `json:"author"`
	Status    string   `json:"status"`
	// CreatedAt and UpdatedAt are Unix timestamps in whole seconds.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
	// Popularity combines engagement counters plus a fixed featured bonus.
	Popularity int     `json:"popularity"`
	URL        string  `json:"url"`
	Thumbnail  *string `json:"thumbnail"`
	// Vectors is reserved for future embedding-based hybrid search and is
	// always absent in the current design.
	Vectors map[string][]float32 `json:"_vectors,omitempty"`
}

// DocumentID builds the composite document ID for an entity.
func DocumentID(entityType EntityType, entityID string) string {
	return string(entityType) + "_" + entityID
}

// SplitDocumentID parses a composite ID back into its entity type and entity
// ID. The first "_" separates the two, so entity IDs containing underscores
// round-trip safely. Returns ok=false if id has no separator.
func SplitDocumentID(id string) (EntityType, string, bool) {
	entityType, entityID, ok := strings.Cut(id, "_")
	if !ok || entityType == "" || entityID == "" {
		return "", "", false
	}
	return EntityType(entityType), entityID, true
}
