// Package index provides the in-memory Bleve fuzzy index over SearchDocuments.
//
// Indexes are disposable: each cache rebuild constructs a fresh memory-only
// index from the full document list and the previous one is closed. Nothing is
// ever written to disk.
package index

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/kensaku/internal/models"
)

// Fuzziness levels per term length. Short terms get a tighter edit distance so
// they don't match half the corpus.
const (
	shortTermLen   = 4
	shortFuzziness = 1
	fuzziness      = 2
)

// Hit is one ranked match from the index.
type Hit struct {
	ID string
	// Score is Bleve's native relevance score (higher is better). Callers
	// normalize before exposing it.
	Score float64
	// Fields lists the stored fields that had recorded match locations.
	// Empty means the hit matched without location data and gets no
	// highlighting.
	Fields map[string]bool
}

// Index is a memory-only fuzzy index over a fixed document list.
type Index struct {
	idx  bleve.Index
	docs int
}

// New builds an index over docs. Use standard analyzer (lowercase + tokenize,
// no stemming) on the text fields so fuzzy terms match surface forms.
func New(docs []*models.SearchDocument) (*Index, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textField)
	docMapping.AddFieldMappingsAt("description", textField)
	docMapping.AddFieldMappingsAt("content", textField)
	docMapping.AddFieldMappingsAt("tags", textField)

	exactField := bleve.NewTextFieldMapping()
	exactField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", exactField)
	docMapping.AddFieldMappingsAt("entityType", exactField)

	im.DefaultMapping = docMapping

	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	batch := idx.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, doc); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("failed to apply index batch: %w", err)
	}

	return &Index{idx: idx, docs: len(docs)}, nil
}

// Search runs a fuzzy match for query and returns up to limit hits in
// relevance order. Match locations are requested so callers can decide which
// hits are highlightable.
func (i *Index) Search(query string, limit int) ([]*Hit, error) {
	if limit <= 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequest(buildFuzzyQuery(query))
	req.Size = limit
	req.IncludeLocations = true

	res, err := i.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}

	hits := make([]*Hit, len(res.Hits))
	for n, hit := range res.Hits {
		fields := make(map[string]bool, len(hit.Locations))
		for field := range hit.Locations {
			fields[field] = true
		}
		hits[n] = &Hit{ID: hit.ID, Score: hit.Score, Fields: fields}
	}
	return hits, nil
}

// DocCount returns the number of indexed documents.
func (i *Index) DocCount() int {
	return i.docs
}

// Close releases the index.
func (i *Index) Close() error {
	return i.idx.Close()
}

// buildFuzzyQuery creates a disjunction of per-term FuzzyQueries so any term
// can match (OR semantics, like a MatchQuery but typo tolerant).
func buildFuzzyQuery(query string) blevequery.Query {
	terms := tokenize(query)
	if len(terms) == 0 {
		return bleve.NewMatchQuery(query)
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		if len(term) <= shortTermLen {
			fq.SetFuzziness(shortFuzziness)
		} else {
			fq.SetFuzziness(fuzziness)
		}
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// tokenize splits a query into lowercase terms, dropping empty strings.
func tokenize(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			terms = append(terms, w)
		}
	}
	return terms
}
