package models

// Sort orders supported by search.
const (
	SortRelevance = "relevance"
	// SortRecent orders by CreatedAt descending. Creation time, not
	// modification time, is what the comparator reads.
	SortRecent  = "recent"
	SortPopular = "popular"
)

const (
	// DefaultLimit is the page size applied when none is requested.
	DefaultLimit = 20
	// MaxLimit is the hard cap on page size regardless of the requested value.
	MaxLimit = 50
	// DefaultSuggestLimit is the suggestion count applied when none is requested.
	DefaultSuggestLimit = 8
)

// SearchQuery represents a search request with optional filters.
type SearchQuery struct {
	Query    string `json:"q"`
	Type     string `json:"type,omitempty"`
	Platform string `json:"platform,omitempty"`
	Category string `json:"category,omitempty"`
	Sort     string `json:"sort,omitempty"`
	Page     int    `json:"page,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Normalize clamps pagination and sort to valid values. Malformed input is
// corrected rather than rejected: page defaults to 1, limit to DefaultLimit
// (capped at MaxLimit), sort to relevance.
func (q *SearchQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	switch q.Sort {
	case SortRelevance, SortRecent, SortPopular:
	default:
		q.Sort = SortRelevance
	}
}
