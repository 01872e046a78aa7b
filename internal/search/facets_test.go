package search

import (
	"reflect"
	"testing"

	"github.com/hyperjump/kensaku/internal/models"
)

func facetDoc(entityType models.EntityType, category *string, platforms ...string) *models.SearchDocument {
	return &models.SearchDocument{
		EntityType: entityType,
		Category:   category,
		Platforms:  platforms,
	}
}

func TestCountFacets(t *testing.T) {
	eng := "engineering"
	docs := []*models.SearchDocument{
		facetDoc(models.EntitySkill, &eng, "claude-code"),
		facetDoc(models.EntitySkill, nil, "claude-code", "cursor"),
		facetDoc(models.EntityMCP, &eng),
	}

	facets := CountFacets(docs)

	wantTypes := map[string]int{"skill": 2, "mcp": 1}
	if !reflect.DeepEqual(facets.EntityType, wantTypes) {
		t.Errorf("EntityType = %v, want %v", facets.EntityType, wantTypes)
	}

	wantPlatforms := map[string]int{"claude-code": 2, "cursor": 1}
	if !reflect.DeepEqual(facets.Platform, wantPlatforms) {
		t.Errorf("Platform = %v, want %v", facets.Platform, wantPlatforms)
	}

	wantCategories := map[string]int{"engineering": 2}
	if !reflect.DeepEqual(facets.Category, wantCategories) {
		t.Errorf("Category = %v, want %v", facets.Category, wantCategories)
	}
}

func TestCountFacetsEmpty(t *testing.T) {
	facets := CountFacets(nil)
	if facets.EntityType == nil || facets.Platform == nil || facets.Category == nil {
		t.Fatal("facet tables must be non-nil even with no documents")
	}
	if len(facets.EntityType) != 0 || len(facets.Platform) != 0 || len(facets.Category) != 0 {
		t.Errorf("facets over empty input = %+v", facets)
	}
}
