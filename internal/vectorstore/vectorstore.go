// Package vectorstore implements E2 (VectorStore): a hybrid dense-vector
// (chromem-go) + lexical BM25 (bleve) store, keyed by namespace, satisfying
// the upsert/delete/search contract of §6.2.
package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/philippgille/chromem-go"
)

// Row is one chunk as handed to Upsert. Metadata carries everything a
// search hit needs to reconstruct a result (§6.2).
type Row struct {
	ID           string
	Content      string
	Embedding    []float32
	FilePath     string
	RelativePath string
	StartLine    int
	EndLine      int
	Language     string
	Symbols      []string // kept as a list in the row map; not written to the dense index's metadata
}

// SearchOptions configures a hybrid query.
type SearchOptions struct {
	Embedding    []float32
	Query        string
	Limit        int
	VectorWeight float64
	BM25Weight   float64
}

// SearchHit is one ranked result.
type SearchHit struct {
	ID       string
	Score    float64
	Metadata Row
}

// DefaultVectorWeight and DefaultBM25Weight are the §4.10 default hybrid
// blend weights.
const (
	DefaultVectorWeight = 0.6
	DefaultBM25Weight   = 0.4
)

type namespaceIndex struct {
	collection *chromem.Collection
	bleveIndex bleve.Index
	rows       map[string]Row // id -> row, for metadata reconstruction
}

// Store is the hybrid E2 VectorStore implementation. One Store instance
// manages every namespace (codebase) the process has touched.
type Store struct {
	db *chromem.DB

	mu         sync.RWMutex
	namespaces map[string]*namespaceIndex
}

// New creates an empty hybrid store.
func New() *Store {
	return &Store{
		db:         chromem.NewDB(),
		namespaces: make(map[string]*namespaceIndex),
	}
}

func (s *Store) getOrCreate(namespace string) (*namespaceIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ns, ok := s.namespaces[namespace]; ok {
		return ns, nil
	}

	collection, err := s.db.CreateCollection(namespace, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create chromem collection %q: %w", namespace, err)
	}
	bleveIndex, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index %q: %w", namespace, err)
	}

	ns := &namespaceIndex{collection: collection, bleveIndex: bleveIndex, rows: make(map[string]Row)}
	s.namespaces[namespace] = ns
	return ns, nil
}

func buildMapping() *bleve.IndexMapping {
	mapping := bleve.NewIndexMapping()

	content := bleve.NewTextFieldMapping()
	content.Analyzer = "standard"
	content.Store = true
	content.Index = true
	content.IncludeTermVectors = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("content", content)
	mapping.DefaultMapping = doc
	return mapping
}

type bleveDoc struct {
	Content string `json:"content"`
}

// Upsert inserts or replaces rows within a namespace. Re-upserting the same
// id replaces its dense and lexical entries.
func (s *Store) Upsert(ctx context.Context, namespace string, rows []Row) error {
	ns, err := s.getOrCreate(namespace)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := ns.bleveIndex.NewBatch()
	for _, row := range rows {
		// chromem-go has no in-place update; delete-then-add keeps upsert
		// idempotent for re-indexed chunks sharing the same content hash id.
		_ = ns.collection.Delete(ctx, nil, nil, row.ID)

		doc := chromem.Document{
			ID:        row.ID,
			Content:   row.Content,
			Embedding: row.Embedding,
			Metadata: map[string]string{
				"filePath":     row.FilePath,
				"relativePath": row.RelativePath,
				"language":     row.Language,
			},
		}
		if err := ns.collection.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add chunk %s to namespace %q: %w", row.ID, namespace, err)
		}

		if err := batch.Index(row.ID, bleveDoc{Content: row.Content}); err != nil {
			return fmt.Errorf("index chunk %s in bm25 index: %w", row.ID, err)
		}
		ns.rows[row.ID] = row
	}
	if batch.Size() > 0 {
		if err := ns.bleveIndex.Batch(batch); err != nil {
			return fmt.Errorf("execute bm25 batch for namespace %q: %w", namespace, err)
		}
	}
	return nil
}

// DeleteByIds removes chunks from both the dense and lexical indices.
func (s *Store) DeleteByIds(ctx context.Context, namespace string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		return nil
	}
	for _, id := range ids {
		_ = ns.collection.Delete(ctx, nil, nil, id)
		_ = ns.bleveIndex.Delete(id)
		delete(ns.rows, id)
	}
	return nil
}

// GetChunkIdsForFile returns every chunk id currently stored for filePath in
// the namespace. The incremental processor does not call it: it takes a
// file's old chunk ids from the file metadata store (C8).
func (s *Store) GetChunkIdsForFile(namespace, filePath string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		return nil
	}
	var ids []string
	for id, row := range ns.rows {
		if row.FilePath == filePath {
			ids = append(ids, id)
		}
	}
	return ids
}

// ClearNamespace removes an entire namespace's data.
func (s *Store) ClearNamespace(namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		return nil
	}
	if err := ns.bleveIndex.Close(); err != nil {
		return fmt.Errorf("close bm25 index for namespace %q: %w", namespace, err)
	}
	s.db.DeleteCollection(namespace)
	delete(s.namespaces, namespace)
	return nil
}

// Search issues a weighted dense+BM25 hybrid query. If opts.Embedding is
// nil, the dense leg is skipped and the result degrades to a pure BM25
// search (the SearchCoordinator reports this as strategy "bm25").
func (s *Store) Search(ctx context.Context, namespace string, opts SearchOptions) ([]SearchHit, error) {
	s.mu.RLock()
	ns, ok := s.namespaces[namespace]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 15
	}

	denseScores, err := s.denseScores(ctx, ns, opts.Embedding, limit*2)
	if err != nil {
		return nil, err
	}
	bm25Scores, err := s.bm25Scores(ns, opts.Query, limit*2)
	if err != nil {
		return nil, err
	}

	combined := combineScores(denseScores, bm25Scores, opts.VectorWeight, opts.BM25Weight)

	s.mu.RLock()
	defer s.mu.RUnlock()
	hits := make([]SearchHit, 0, len(combined))
	for id, score := range combined {
		row, ok := ns.rows[id]
		if !ok {
			continue
		}
		hits = append(hits, SearchHit{ID: id, Score: score, Metadata: row})
	}
	sortHitsDescending(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *Store) denseScores(ctx context.Context, ns *namespaceIndex, embedding []float32, n int) (map[string]float64, error) {
	scores := make(map[string]float64)
	if len(embedding) == 0 {
		return scores, nil
	}
	if ns.collection.Count() == 0 {
		return scores, nil
	}
	if n > ns.collection.Count() {
		n = ns.collection.Count()
	}
	docs, err := ns.collection.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("dense query: %w", err)
	}
	for _, doc := range docs {
		scores[doc.ID] = float64(doc.Similarity)
	}
	return scores, nil
}

func (s *Store) bm25Scores(ns *namespaceIndex, queryStr string, n int) (map[string]float64, error) {
	scores := make(map[string]float64)
	if strings.TrimSpace(queryStr) == "" {
		return scores, nil
	}
	q := bleve.NewMatchQuery(queryStr)
	q.SetField("content")
	req := bleve.NewSearchRequest(q)
	req.Size = n
	result, err := ns.bleveIndex.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bm25 query: %w", err)
	}
	maxScore := 0.0
	for _, hit := range result.Hits {
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}
	for _, hit := range result.Hits {
		if maxScore > 0 {
			scores[hit.ID] = hit.Score / maxScore
		} else {
			scores[hit.ID] = hit.Score
		}
	}
	return scores, nil
}

func combineScores(dense, bm25 map[string]float64, vectorWeight, bm25Weight float64) map[string]float64 {
	if vectorWeight == 0 && bm25Weight == 0 {
		vectorWeight, bm25Weight = DefaultVectorWeight, DefaultBM25Weight
	}
	combined := make(map[string]float64, len(dense)+len(bm25))
	for id, score := range dense {
		combined[id] += score * vectorWeight
	}
	for id, score := range bm25 {
		combined[id] += score * bm25Weight
	}
	return combined
}

func sortHitsDescending(hits []SearchHit) {
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].Score > hits[j-1].Score; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
}
