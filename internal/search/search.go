// Package search implements C12 (SearchCoordinator): resolving a codebase
// to its namespace, issuing a hybrid dense+BM25 query, optional reranking,
// and enriching hits with connection context (§4.12).
package search

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/codecontext/codecontext/internal/embedclient"
	"github.com/codecontext/codecontext/internal/extraction"
	"github.com/codecontext/codecontext/internal/incremental"
	"github.com/codecontext/codecontext/internal/registry"
	"github.com/codecontext/codecontext/internal/reranker"
	"github.com/codecontext/codecontext/internal/vectorstore"
)

// Options configures one search call.
type Options struct {
	Limit           int
	VectorWeight    float64
	BM25Weight      float64
	EnableReranking bool
}

// Symbol is a hit's attributed symbol, per §6.3's result envelope.
type Symbol struct {
	Name      string
	Type      string
	StartLine int
	EndLine   int
	Scope     string
}

// Connections carries a hit's source file's import/export graph.
type Connections struct {
	Imports      []string
	Exports      []string
	RelatedFiles []string
}

// Result is one ranked, enriched hit.
type Result struct {
	ID            string
	FilePath      string
	StartLine     int
	EndLine       int
	Language      string
	Content       string
	Score         float64
	OriginalScore *float64
	Reranked      bool
	Symbols       []Symbol
	Connections   Connections
}

// Response is the top-level search envelope (§6.3).
type Response struct {
	Success      bool
	Message      string
	TotalResults int
	SearchTimeMs int64
	Strategy     string // "hybrid" | "bm25"
	Results      []Result
}

const defaultLimit = 15

// Coordinator drives C12, reusing C7 (namespace resolution), C11 (a
// best-effort pre-query sync), E1, E2, and optionally E3, plus C4 for
// per-hit connection-context enrichment.
type Coordinator struct {
	Registry  *registry.Registry
	Sync      *incremental.Processor
	Extractor *extraction.Extractor
	Embedder  *embedclient.Client
	Store     *vectorstore.Store
	Reranker  *reranker.Client // nil disables reranking
}

// Search runs the full §4.12 pipeline for one query against one codebase.
func (c *Coordinator) Search(ctx context.Context, query, codebasePath string, opts Options) (*Response, error) {
	start := time.Now()

	canonicalPath, err := filepath.Abs(codebasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve canonical path: %w", err)
	}

	entry, ok := c.Registry.Get(canonicalPath)
	if !ok {
		return &Response{Success: false, Message: "not indexed"}, nil
	}
	namespace := entry.Namespace

	if c.Sync != nil {
		if _, err := c.Sync.ProcessIncrementalUpdate(ctx, canonicalPath, namespace, incremental.Options{}); err != nil {
			log.Printf("Warning: best-effort incremental sync before search failed for %s: %v\n", canonicalPath, err)
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	requestLimit := limit
	if opts.EnableReranking && c.Reranker != nil {
		requestLimit = limit * 2
	}

	embedding, err := c.Embedder.Embed(ctx, query, embedclient.ModeQuery)
	if err != nil {
		log.Printf("Warning: query embedding failed, degrading to BM25-only search: %v\n", err)
		embedding = nil
	}

	hits, err := c.Store.Search(ctx, namespace, vectorstore.SearchOptions{
		Embedding: embedding, Query: query, Limit: requestLimit,
		VectorWeight: opts.VectorWeight, BM25Weight: opts.BM25Weight,
	})
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}

	strategy := "hybrid"
	if len(embedding) == 0 {
		strategy = "bm25"
	}

	results := hitsToResults(hits)

	if opts.EnableReranking && c.Reranker != nil && len(results) > 0 {
		results = c.rerank(ctx, query, results)
	}

	stableSortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}

	for i := range results {
		c.enrichConnections(canonicalPath, &results[i])
	}

	return &Response{
		Success:      true,
		TotalResults: len(results),
		SearchTimeMs: time.Since(start).Milliseconds(),
		Strategy:     strategy,
		Results:      results,
	}, nil
}

func hitsToResults(hits []vectorstore.SearchHit) []Result {
	results := make([]Result, len(hits))
	for i, hit := range hits {
		symbols := make([]Symbol, len(hit.Metadata.Symbols))
		for j, name := range hit.Metadata.Symbols {
			symbols[j] = Symbol{Name: name}
		}
		results[i] = Result{
			ID:        hit.ID,
			FilePath:  hit.Metadata.RelativePath,
			StartLine: hit.Metadata.StartLine,
			EndLine:   hit.Metadata.EndLine,
			Language:  hit.Metadata.Language,
			Content:   hit.Metadata.Content,
			Score:     hit.Score,
			Symbols:   symbols,
		}
	}
	return results
}

// rerank re-scores results with E3, preserving each hit's hybrid score as
// OriginalScore (§4.12 step 5). A reranker failure leaves hybrid order
// untouched rather than failing the search.
func (c *Coordinator) rerank(ctx context.Context, query string, results []Result) []Result {
	docs := make([]string, len(results))
	for i, r := range results {
		symbolNames := make([]string, len(r.Symbols))
		for j, s := range r.Symbols {
			symbolNames[j] = s.Name
		}
		docs[i] = fmt.Sprintf("%s:%d-%d %s\n%s", r.FilePath, r.StartLine, r.EndLine, strings.Join(symbolNames, ","), r.Content)
	}

	scored, err := c.Reranker.Rerank(ctx, query, docs, len(docs))
	if err != nil {
		log.Printf("Warning: reranking failed, falling back to hybrid order: %v\n", err)
		return results
	}

	for _, s := range scored {
		if s.Index < 0 || s.Index >= len(results) {
			continue
		}
		original := results[s.Index].Score
		results[s.Index].OriginalScore = &original
		results[s.Index].Score = s.Score
		results[s.Index].Reranked = true
	}
	return results
}

// enrichConnections re-parses a hit's whole source file (not just its
// chunk) to attribute the file's full import/export graph, per §4.12 step
// 6. A read or parse failure leaves Connections empty rather than failing
// the search.
func (c *Coordinator) enrichConnections(codebaseRoot string, r *Result) {
	absPath := filepath.Join(codebaseRoot, filepath.FromSlash(r.FilePath))
	content, err := os.ReadFile(absPath)
	if err != nil {
		return
	}

	result, err := c.Extractor.Extract(r.Language, absPath, content)
	if err != nil || result == nil {
		return
	}

	imports := make([]string, 0, len(result.File.Imports))
	for _, imp := range result.File.Imports {
		imports = append(imports, imp.Module)
	}

	r.Connections = Connections{
		Imports:      imports,
		Exports:      result.File.Exports,
		RelatedFiles: imports,
	}
}

// stableSortResults orders hits by decreasing score, breaking ties by
// ascending chunk id (lexicographic) for deterministic output (§4.12).
func stableSortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
}
