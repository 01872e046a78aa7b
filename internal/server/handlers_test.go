package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/kensaku/internal/config"
	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/search"
	"github.com/hyperjump/kensaku/internal/store"
)

// newTestServer wires the full stack over a seeded temp database and returns
// an httptest server mounted on the real router.
func newTestServer(t *testing.T) (*httptest.Server, *store.SQLite) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "entities.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	if err := st.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	logger := zap.NewNop()
	svc := search.New(st, logger)
	srv := NewServer(svc, &config.ServerConfig{Host: "localhost", Port: 0}, logger)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		_ = svc.Close()
		_ = st.Close()
	})
	return ts, st
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestSearchEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	var body models.SearchResponse
	resp := getJSON(t, ts.URL+"/api/v1/search?q=cursor", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if len(body.Results) == 0 {
		t.Fatal("no results for seeded query")
	}
	if body.Results[0].Document.Title != "Cursor Setup Guide" {
		t.Errorf("top result = %q", body.Results[0].Document.Title)
	}
	if body.Meta.Page != 1 || body.Meta.Limit != models.DefaultLimit {
		t.Errorf("meta = %+v, want defaults applied", body.Meta)
	}
	if body.Facets.EntityType == nil {
		t.Error("facets missing from envelope")
	}
}

func TestSearchEndpointMalformedPagination(t *testing.T) {
	ts, _ := newTestServer(t)

	var body models.SearchResponse
	resp := getJSON(t, ts.URL+"/api/v1/search?q=cursor&page=abc&limit=-5", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, malformed pagination must be corrected not rejected", resp.StatusCode)
	}
	if body.Meta.Page != 1 {
		t.Errorf("page = %d, want 1", body.Meta.Page)
	}
	if body.Meta.Limit != models.DefaultLimit {
		t.Errorf("limit = %d, want %d", body.Meta.Limit, models.DefaultLimit)
	}
}

func TestSearchEndpointLimitCap(t *testing.T) {
	ts, _ := newTestServer(t)

	var body models.SearchResponse
	getJSON(t, ts.URL+"/api/v1/search?q=cursor&limit=1000", &body)
	if body.Meta.Limit != models.MaxLimit {
		t.Errorf("limit = %d, want capped at %d", body.Meta.Limit, models.MaxLimit)
	}
}

func TestSearchEndpointEmptyQuery(t *testing.T) {
	ts, _ := newTestServer(t)

	var body models.SearchResponse
	resp := getJSON(t, ts.URL+"/api/v1/search", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body.Results == nil {
		t.Error("results must encode as an empty array, not null")
	}
	if len(body.Results) != 0 || body.Meta.Total != 0 {
		t.Errorf("empty query returned %d results", len(body.Results))
	}
}

func TestSuggestEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	var body struct {
		Suggestions []*models.Suggestion `json:"suggestions"`
	}
	resp := getJSON(t, ts.URL+"/api/v1/suggest?q=cursor&limit=3", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(body.Suggestions) == 0 {
		t.Fatal("no suggestions for seeded query")
	}
	s := body.Suggestions[0]
	if s.Text == "" || s.URL == "" || s.EntityType == "" {
		t.Errorf("suggestion missing fields: %+v", s)
	}
}

func TestInvalidateEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/invalidate", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "invalidated" {
		t.Errorf("body = %v", body)
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	// Before any search the index does not exist yet.
	var before models.IndexStats
	getJSON(t, ts.URL+"/api/v1/stats", &before)
	if before.Documents != 0 {
		t.Errorf("documents = %d before first search, want 0", before.Documents)
	}

	getJSON(t, ts.URL+"/api/v1/search?q=cursor", nil)

	var after models.IndexStats
	getJSON(t, ts.URL+"/api/v1/stats", &after)
	if after.Documents != 8 {
		t.Errorf("documents = %d, want 8 (one per seeded collection)", after.Documents)
	}
	if after.LastBuilt == 0 {
		t.Error("lastBuilt not set after build")
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, st := newTestServer(t)

	resp := getJSON(t, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	// With the database gone and no index built yet on a fresh service, a
	// second server reports unhealthy.
	_ = st.Close()
	logger := zap.NewNop()
	svc := search.New(st, logger)
	t.Cleanup(func() { _ = svc.Close() })
	broken := httptest.NewServer(NewServer(svc, &config.ServerConfig{}, logger).Routes())
	t.Cleanup(broken.Close)

	resp = getJSON(t, broken.URL+"/health", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when the store is unreachable", resp.StatusCode)
	}
}

func TestUnknownRoute(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := getJSON(t, ts.URL+"/api/v1/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
