package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/codecontext/codecontext/internal/embedclient"
	"github.com/codecontext/codecontext/internal/extraction"
	"github.com/codecontext/codecontext/internal/filemeta"
	"github.com/codecontext/codecontext/internal/incremental"
	"github.com/codecontext/codecontext/internal/lock"
	"github.com/codecontext/codecontext/internal/orchestrator"
	"github.com/codecontext/codecontext/internal/registry"
	"github.com/codecontext/codecontext/internal/reranker"
	"github.com/codecontext/codecontext/internal/vectorstore"
)

func newEmbedServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Texts []string `json:"texts"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		vectors := make([][]float32, len(req.Texts))
		for i := range vectors {
			vectors[i] = []float32{1, 0, 0}
		}
		json.NewEncoder(w).Encode(struct {
			Embeddings [][]float32 `json:"embeddings"`
		}{Embeddings: vectors})
	}))
}

// indexedCoordinator builds a Coordinator against a codebase that has
// already been fully indexed via the orchestrator, so Search has real
// chunks, a real registry entry, and a real file on disk to re-parse.
func indexedCoordinator(t *testing.T) (*Coordinator, string, *httptest.Server) {
	t.Helper()

	dataDir := t.TempDir()
	server := newEmbedServer(t)

	reg, err := registry.New(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	locks, err := lock.New(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	fileMeta := func(canonicalPath string) (*filemeta.Store, error) {
		return filemeta.Open(dataDir, canonicalPath)
	}
	extractor := extraction.NewExtractor()
	embedder := embedclient.New(server.URL)
	store := vectorstore.New()

	o := &orchestrator.Orchestrator{
		DataDir:   dataDir,
		Registry:  reg,
		FileMeta:  fileMeta,
		Locks:     locks,
		Extractor: extractor,
		Embedder:  embedder,
		Store:     store,
	}

	codebase := t.TempDir()
	content := `package sample

// Greet returns a friendly greeting.
func Greet(name string) string {
	return "hello " + name
}
`
	if err := os.WriteFile(filepath.Join(codebase, "greet.go"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := o.IndexCodebase(context.Background(), codebase, orchestrator.Options{}); err != nil {
		t.Fatal(err)
	}

	sync := &incremental.Processor{
		Registry:  reg,
		FileMeta:  fileMeta,
		Locks:     locks,
		Extractor: extractor,
		Embedder:  embedder,
		Store:     store,
	}

	c := &Coordinator{
		Registry:  reg,
		Sync:      sync,
		Extractor: extractor,
		Embedder:  embedder,
		Store:     store,
	}
	return c, codebase, server
}

func TestSearchReturnsHybridResults(t *testing.T) {
	c, codebase, server := indexedCoordinator(t)
	defer server.Close()

	resp, err := c.Search(context.Background(), "Greet", codebase, Options{Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	if resp.Strategy != "hybrid" {
		t.Fatalf("expected hybrid strategy, got %s", resp.Strategy)
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected at least one result")
	}
	first := resp.Results[0]
	if first.FilePath != "greet.go" {
		t.Fatalf("expected match in greet.go, got %s", first.FilePath)
	}
	if len(first.Connections.Exports) == 0 {
		t.Fatalf("expected connection enrichment to attribute exports, got %+v", first.Connections)
	}
}

func TestSearchReturnsNotIndexedForUnknownCodebase(t *testing.T) {
	c, _, server := indexedCoordinator(t)
	defer server.Close()

	resp, err := c.Search(context.Background(), "Greet", t.TempDir(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Success {
		t.Fatal("expected an unregistered codebase to report not indexed")
	}
	if resp.Message != "not indexed" {
		t.Fatalf("expected not-indexed message, got %q", resp.Message)
	}
}

func TestSearchDegradesToBM25WhenEmbedderFails(t *testing.T) {
	c, codebase, server := indexedCoordinator(t)
	server.Close() // embedder calls now fail

	resp, err := c.Search(context.Background(), "Greet", codebase, Options{Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Strategy != "bm25" {
		t.Fatalf("expected bm25-only strategy once the embedder is unreachable, got %s", resp.Strategy)
	}
}

func TestSearchWithRerankingPreservesOriginalScore(t *testing.T) {
	c, codebase, server := indexedCoordinator(t)
	defer server.Close()

	rerankServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Docs []string `json:"docs"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		results := make([]struct {
			Index int     `json:"index"`
			Score float64 `json:"score"`
		}, len(req.Docs))
		for i := range results {
			results[i] = struct {
				Index int     `json:"index"`
				Score float64 `json:"score"`
			}{Index: i, Score: float64(len(req.Docs) - i)}
		}
		json.NewEncoder(w).Encode(struct {
			Results []struct {
				Index int     `json:"index"`
				Score float64 `json:"score"`
			} `json:"results"`
		}{Results: results})
	}))
	defer rerankServer.Close()

	c.Reranker = reranker.New(rerankServer.URL)

	resp, err := c.Search(context.Background(), "Greet", codebase, Options{Limit: 5, EnableReranking: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected at least one result")
	}
	if !resp.Results[0].Reranked {
		t.Fatal("expected top result to be marked reranked")
	}
	if resp.Results[0].OriginalScore == nil {
		t.Fatal("expected original hybrid score to be preserved after reranking")
	}
}

func TestStableSortResultsBreaksTiesByChunkID(t *testing.T) {
	results := []Result{
		{ID: "chunk_b", FilePath: "z.go", StartLine: 1, Score: 0.9},
		{ID: "chunk_a", FilePath: "a.go", StartLine: 5, Score: 0.9},
		{ID: "chunk_c", FilePath: "a.go", StartLine: 1, Score: 0.9},
		{ID: "chunk_x", FilePath: "m.go", StartLine: 1, Score: 0.5},
	}
	stableSortResults(results)

	want := []string{"chunk_a", "chunk_b", "chunk_c", "chunk_x"}
	for i, id := range want {
		if results[i].ID != id {
			t.Fatalf("expected tie-break order %v, got %v", want, idsOf(results))
		}
	}
}

func idsOf(results []Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}
