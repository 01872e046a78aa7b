package search

import "github.com/hyperjump/kensaku/internal/models"

// CountFacets builds frequency tables over the filtered, pre-pagination
// candidate set in a single pass. A document counts once per entity type,
// once per platform it belongs to, and once per non-nil category; documents
// without a category contribute to no category bucket.
func CountFacets(docs []*models.SearchDocument) models.Facets {
	facets := models.NewFacets()
	for _, doc := range docs {
		facets.EntityType[string(doc.EntityType)]++
		for _, platform := range doc.Platforms {
			facets.Platform[platform]++
		}
		if doc.Category != nil {
			facets.Category[*doc.Category]++
		}
	}
	return facets
}
