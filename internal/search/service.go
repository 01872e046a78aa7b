// Package search provides the SearchService: a TTL-cached in-memory fuzzy
// index over all site entities, with faceted search, suggestions, and
// operational stats.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/kensaku/internal/entities"
	"github.com/hyperjump/kensaku/internal/index"
	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/transform"
)

// DefaultTTL is the maximum age an index is trusted before a rebuild is forced.
const DefaultTTL = 5 * time.Minute

// Service owns the single in-memory index instance shared by all requests.
// The index and its backing document map are replaced wholesale on rebuild,
// never mutated field by field.
type Service struct {
	store  entities.Store
	logger *zap.Logger
	ttl    time.Duration

	// group deduplicates concurrent rebuilds: stale observers share one
	// in-flight rebuild instead of each re-fetching all collections.
	group singleflight.Group

	mu      sync.RWMutex
	idx     *index.Index
	docs    map[string]*models.SearchDocument
	builtAt time.Time

	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides the index time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// New creates a search service over the given store. The index is built
// lazily on the first search.
func New(store entities.Store, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logger,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// snapshot returns the current index and document map under the read lock.
func (s *Service) snapshot() (*index.Index, map[string]*models.SearchDocument) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx, s.docs
}

func (s *Service) fresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx != nil && s.now().Sub(s.builtAt) < s.ttl
}

// ensureFresh rebuilds the index when missing or older than the TTL.
// Returns whether the existing index was already fresh. Concurrent callers
// observing a stale index share a single rebuild.
func (s *Service) ensureFresh(ctx context.Context) (cached bool, err error) {
	if s.fresh() {
		return true, nil
	}
	_, err, _ = s.group.Do("rebuild", func() (any, error) {
		// Another caller may have finished a rebuild while we waited.
		if s.fresh() {
			return nil, nil
		}
		return nil, s.rebuild(ctx)
	})
	return false, err
}

// rebuild fetches all collections in parallel, transforms them into documents,
// and swaps in a fresh index. All-or-nothing: any fetch failure aborts the
// rebuild and the previous index stays in use.
func (s *Service) rebuild(ctx context.Context) error {
	start := s.now()

	var (
		projects  []*entities.Project
		resources []*entities.Resource
		skills    []*entities.Skill
		subagents []*entities.Subagent
		servers   []*entities.MCPServer
		platforms []*entities.Platform
		prompts   []*entities.Prompt
		guides    []*entities.Guide
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if projects, err = s.store.Projects(gctx); err != nil {
			return fmt.Errorf("fetch projects: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if resources, err = s.store.Resources(gctx); err != nil {
			return fmt.Errorf("fetch resources: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if skills, err = s.store.Skills(gctx); err != nil {
			return fmt.Errorf("fetch skills: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if subagents, err = s.store.Subagents(gctx); err != nil {
			return fmt.Errorf("fetch subagents: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if servers, err = s.store.MCPServers(gctx); err != nil {
			return fmt.Errorf("fetch mcp servers: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if platforms, err = s.store.Platforms(gctx); err != nil {
			return fmt.Errorf("fetch platforms: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if prompts, err = s.store.Prompts(gctx); err != nil {
			return fmt.Errorf("fetch prompts: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if guides, err = s.store.Guides(gctx); err != nil {
			return fmt.Errorf("fetch guides: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("index rebuild aborted", zap.Error(err))
		return err
	}

	docs := make([]*models.SearchDocument, 0,
		len(projects)+len(resources)+len(skills)+len(subagents)+
			len(servers)+len(platforms)+len(prompts)+len(guides))
	for _, p := range projects {
		docs = append(docs, transform.Project(p))
	}
	for _, r := range resources {
		docs = append(docs, transform.Resource(r))
	}
	for _, sk := range skills {
		docs = append(docs, transform.Skill(sk))
	}
	for _, sa := range subagents {
		docs = append(docs, transform.Subagent(sa))
	}
	for _, m := range servers {
		docs = append(docs, transform.MCPServer(m))
	}
	for _, p := range platforms {
		docs = append(docs, transform.Platform(p))
	}
	for _, p := range prompts {
		docs = append(docs, transform.Prompt(p))
	}
	for _, gd := range guides {
		docs = append(docs, transform.Guide(gd))
	}

	idx, err := index.New(docs)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	byID := make(map[string]*models.SearchDocument, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}

	// The swapped-out index is not closed here: readers that took a snapshot
	// before the swap may still be searching it. Memory-only indexes hold no
	// file handles, so the garbage collector reclaims them once the last
	// reader drops its reference.
	s.mu.Lock()
	s.idx = idx
	s.docs = byID
	s.builtAt = s.now()
	s.mu.Unlock()

	s.logger.Info("index rebuilt",
		zap.Int("documents", len(docs)),
		zap.Duration("took", s.now().Sub(start)))
	return nil
}

// Invalidate drops the cached index and timestamp so the next search rebuilds
// immediately regardless of TTL. Write paths are expected to call this after
// create/update/delete; missing calls only widen staleness up to the TTL.
// The dropped index stays open for readers that already snapshotted it.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.idx = nil
	s.docs = nil
	s.builtAt = time.Time{}
	s.mu.Unlock()
	s.logger.Debug("search index invalidated")
}

type candidate struct {
	hit *index.Hit
	doc *models.SearchDocument
}

// Search executes a fuzzy search with filters, sorting, facets, pagination,
// and highlighting.
func (s *Service) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	start := time.Now()
	query.Normalize()

	// Empty queries short-circuit before any freshness check so they never
	// force an index build.
	if strings.TrimSpace(query.Query) == "" {
		return &models.SearchResponse{
			Results: []*models.SearchResult{},
			Facets:  models.NewFacets(),
			Meta: models.SearchMeta{
				Page:    query.Page,
				Limit:   query.Limit,
				Latency: time.Since(start).Milliseconds(),
				Cached:  true,
			},
		}, nil
	}

	cached, err := s.ensureFresh(ctx)
	idx, docs := s.snapshot()
	if idx == nil {
		if err == nil {
			err = errors.New("search index unavailable")
		}
		return nil, err
	}
	if err != nil {
		// Serve the last good index when the upstream store is down; fail
		// only when nothing has ever been built.
		s.logger.Warn("serving stale index after rebuild failure", zap.Error(err))
	}

	hits, err := idx.Search(query.Query, idx.DocCount())
	if err != nil {
		return nil, err
	}

	// Filters prune the ranked candidate list; they never re-rank.
	candidates := make([]candidate, 0, len(hits))
	for _, hit := range hits {
		doc, ok := docs[hit.ID]
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{hit: hit, doc: doc})
	}
	candidates = filterType(candidates, query.Type)
	candidates = filterPlatform(candidates, query.Platform)
	candidates = filterCategory(candidates, query.Category)

	switch query.Sort {
	case models.SortRecent:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].doc.CreatedAt > candidates[j].doc.CreatedAt
		})
	case models.SortPopular:
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].doc.Popularity > candidates[j].doc.Popularity
		})
	}

	// Facets describe the filtered set before pagination.
	filtered := make([]*models.SearchDocument, len(candidates))
	for i, c := range candidates {
		filtered[i] = c.doc
	}
	facets := CountFacets(filtered)
	total := len(candidates)

	offset := (query.Page - 1) * query.Limit
	end := offset + query.Limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}
	page := candidates[offset:end]

	var maxScore float64
	if len(hits) > 0 {
		maxScore = hits[0].Score
	}
	terms := strings.Fields(query.Query)

	results := make([]*models.SearchResult, 0, len(page))
	for _, c := range page {
		result := &models.SearchResult{
			Document: c.doc,
			Score:    normalizeScore(c.hit.Score, maxScore),
		}
		// Only hits with recorded match locations get highlight markup;
		// weak content-only matches surfaced by filtering stay plain.
		if len(c.hit.Fields) > 0 {
			result.Highlights = map[string]string{
				"title":       HighlightTerms(c.doc.Title, terms),
				"description": HighlightTerms(c.doc.Description, terms),
			}
		}
		results = append(results, result)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}

	return &models.SearchResponse{
		Results: results,
		Facets:  facets,
		Meta: models.SearchMeta{
			Total:      total,
			Page:       query.Page,
			Limit:      query.Limit,
			TotalPages: totalPages,
			Latency:    time.Since(start).Milliseconds(),
			Cached:     cached,
		},
	}, nil
}

// Suggest returns up to limit lightweight title suggestions for autocomplete.
// An empty query returns an empty list without touching the index.
func (s *Service) Suggest(ctx context.Context, query string, limit int) ([]*models.Suggestion, error) {
	if strings.TrimSpace(query) == "" {
		return []*models.Suggestion{}, nil
	}
	if limit <= 0 {
		limit = models.DefaultSuggestLimit
	}

	_, err := s.ensureFresh(ctx)
	idx, docs := s.snapshot()
	if idx == nil {
		if err == nil {
			err = errors.New("search index unavailable")
		}
		return nil, err
	}

	hits, err := idx.Search(query, limit)
	if err != nil {
		return nil, err
	}

	suggestions := make([]*models.Suggestion, 0, len(hits))
	for _, hit := range hits {
		doc, ok := docs[hit.ID]
		if !ok {
			continue
		}
		suggestions = append(suggestions, &models.Suggestion{
			Text:       doc.Title,
			Type:       string(doc.EntityType),
			EntityType: doc.EntityType,
			EntityID:   doc.EntityID,
			URL:        doc.URL,
		})
	}
	return suggestions, nil
}

// Healthy reports whether an index exists after a freshness attempt. Rebuild
// failures are swallowed into false, never propagated.
func (s *Service) Healthy(ctx context.Context) bool {
	if _, err := s.ensureFresh(ctx); err != nil {
		s.logger.Debug("health freshness check failed", zap.Error(err))
	}
	idx, _ := s.snapshot()
	return idx != nil
}

// Stats returns a read-only snapshot of index state.
func (s *Service) Stats() models.IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.IndexStats{}
	if s.idx != nil {
		stats.Documents = s.idx.DocCount()
		stats.LastBuilt = s.builtAt.Unix()
	}
	return stats
}

// Close releases the current index, if any.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx != nil {
		err := s.idx.Close()
		s.idx = nil
		s.docs = nil
		return err
	}
	return nil
}

// normalizeScore maps Bleve's open-ended relevance score onto (0, 1] with the
// best hit of the query at 1. Hits without a native score default to 1.
func normalizeScore(score, maxScore float64) float64 {
	if score <= 0 || maxScore <= 0 {
		return 1
	}
	return score / maxScore
}

func filterType(candidates []candidate, entityType string) []candidate {
	if entityType == "" {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		if string(c.doc.EntityType) == entityType {
			out = append(out, c)
		}
	}
	return out
}

func filterPlatform(candidates []candidate, platform string) []candidate {
	if platform == "" {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		for _, p := range c.doc.Platforms {
			if p == platform {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func filterCategory(candidates []candidate, category string) []candidate {
	if category == "" {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		if c.doc.Category != nil && *c.doc.Category == category {
			out = append(out, c)
		}
	}
	return out
}
