package index

import (
	"testing"

	"github.com/hyperjump/kensaku/internal/models"
)

func fixtureDocs() []*models.SearchDocument {
	return []*models.SearchDocument{
		{
			ID:          "resource_r1",
			EntityType:  models.EntityResource,
			EntityID:    "r1",
			Title:       "Cursor Setup Guide",
			Description: "Step-by-step setup for Cursor with recommended defaults.",
			Content:     "Cursor Setup Guide Step-by-step setup for Cursor with recommended defaults. setup editor",
			Platforms:   []string{"cursor"},
			Tags:        []string{"setup", "editor"},
		},
		{
			ID:          "guide_g1",
			EntityType:  models.EntityGuide,
			EntityID:    "g1",
			Title:       "Claude Code Debugging",
			Description: "How to debug agent sessions and inspect tool calls.",
			Content:     "Claude Code Debugging How to debug agent sessions and inspect tool calls. debugging",
			Platforms:   []string{"claude-code"},
			Tags:        []string{"debugging"},
		},
		{
			ID:          "subagent_a1",
			EntityType:  models.EntitySubagent,
			EntityID:    "a1",
			Title:       "Python Expert Agent",
			Description: "A sub-agent specialized in Python debugging and profiling.",
			Content:     "Python Expert Agent A sub-agent specialized in Python debugging and profiling. python",
			Platforms:   []string{"claude-code"},
			Tags:        []string{"python"},
		},
	}
}

func TestSearchBasicMatch(t *testing.T) {
	idx, err := New(fixtureDocs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = idx.Close() }()

	hits, err := idx.Search("cursor", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want exactly 1", len(hits))
	}
	if hits[0].ID != "resource_r1" {
		t.Errorf("top hit = %q, want resource_r1", hits[0].ID)
	}
	if hits[0].Score <= 0 {
		t.Errorf("score = %f, want > 0", hits[0].Score)
	}
}

func TestSearchTypoTolerance(t *testing.T) {
	idx, err := New(fixtureDocs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = idx.Close() }()

	hits, err := idx.Search("curser", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected fuzzy hit for typo \"curser\"")
	}
	if hits[0].ID != "resource_r1" {
		t.Errorf("top hit = %q, want resource_r1", hits[0].ID)
	}
}

func TestSearchRecordsMatchFields(t *testing.T) {
	idx, err := New(fixtureDocs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = idx.Close() }()

	hits, err := idx.Search("debugging", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected hits for \"debugging\"")
	}
	for _, hit := range hits {
		if len(hit.Fields) == 0 {
			t.Errorf("hit %s has no recorded match fields", hit.ID)
		}
	}
}

func TestSearchLimit(t *testing.T) {
	idx, err := New(fixtureDocs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = idx.Close() }()

	hits, err := idx.Search("agent", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) > 1 {
		t.Errorf("got %d hits, want at most 1", len(hits))
	}
}

func TestDocCount(t *testing.T) {
	idx, err := New(fixtureDocs())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = idx.Close() }()

	if idx.DocCount() != 3 {
		t.Errorf("DocCount = %d, want 3", idx.DocCount())
	}
}

func TestEmptyIndex(t *testing.T) {
	idx, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = idx.Close() }()

	hits, err := idx.Search("anything", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits from empty index", len(hits))
	}
}
