package models

// SearchResult is a single search hit.
type SearchResult struct {
	Document *SearchDocument `json:"document"`
	// Score is a normalized similarity in (0, 1]; higher is better and the
	// best hit of a query scores 1.
	Score float64 `json:"score"`
	// Highlights maps "title" and "description" to marked-up copies with
	// query terms wrapped. Only present for hits that had recorded match
	// locations.
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Facets holds frequency tables over the filtered (pre-pagination) candidate
// set. A document counts once in EntityType, once per platform in Platform,
// and once in Category when its category is non-nil.
type Facets struct {
	EntityType map[string]int `json:"entityType"`
	Platform   map[string]int `json:"platform"`
	Category   map[string]int `json:"category"`
}

// NewFacets returns empty (non-nil) facet tables.
func NewFacets() Facets {
	return Facets{
		EntityType: make(map[string]int),
		Platform:   make(map[string]int),
		Category:   make(map[string]int),
	}
}

// SearchMeta carries pagination and timing metadata for a search response.
type SearchMeta struct {
	Total      int   `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	// Latency is wall-clock milliseconds spent inside Search.
	Latency int64 `json:"latency"`
	// Cached reports whether the index was already fresh, as opposed to
	// rebuilt for this request.
	Cached bool `json:"cached"`
}

// SearchResponse is the envelope returned for a search request.
type SearchResponse struct {
	Results []*SearchResult `json:"results"`
	Facets  Facets          `json:"facets"`
	Meta    SearchMeta      `json:"meta"`
}

// Suggestion is a single autocomplete hit.
type Suggestion struct {
	Text       string     `json:"text"`
	Type       string     `json:"type"`
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
	URL        string     `json:"url"`
}

// IndexStats is a snapshot of index state for operational visibility.
type IndexStats struct {
	Documents int `json:"documents"`
	// Indexing is reserved for a future async rebuild mode; rebuilds are
	// currently synchronous so this is always false.
	Indexing bool `json:"indexing"`
	// LastBuilt is the Unix timestamp of the last successful rebuild, zero
	// when no index has been built.
	LastBuilt int64 `json:"lastBuilt"`
}
