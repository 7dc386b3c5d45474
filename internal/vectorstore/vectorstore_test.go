package vectorstore

import (
	"context"
	"testing"
)

func sampleRow(id, content, filePath string, embedding []float32) Row {
	return Row{
		ID: id, Content: content, Embedding: embedding,
		FilePath: filePath, RelativePath: filePath, StartLine: 1, EndLine: 10, Language: "go",
	}
}

func TestUpsertAndSearchHybrid(t *testing.T) {
	s := New()
	ctx := context.Background()

	rows := []Row{
		sampleRow("chunk_1", "func ParseJSON() {}", "a.go", []float32{1, 0, 0}),
		sampleRow("chunk_2", "func WriteFile() {}", "b.go", []float32{0, 1, 0}),
	}
	if err := s.Upsert(ctx, "ns1", rows); err != nil {
		t.Fatal(err)
	}

	hits, err := s.Search(ctx, "ns1", SearchOptions{Embedding: []float32{1, 0, 0}, Query: "ParseJSON", Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].ID != "chunk_1" {
		t.Fatalf("expected chunk_1 to rank first, got %s", hits[0].ID)
	}
}

func TestGetChunkIdsForFile(t *testing.T) {
	s := New()
	ctx := context.Background()
	rows := []Row{
		sampleRow("chunk_1", "a", "a.go", []float32{1, 0}),
		sampleRow("chunk_2", "b", "a.go", []float32{0, 1}),
		sampleRow("chunk_3", "c", "b.go", []float32{1, 1}),
	}
	if err := s.Upsert(ctx, "ns1", rows); err != nil {
		t.Fatal(err)
	}
	ids := s.GetChunkIdsForFile("ns1", "a.go")
	if len(ids) != 2 {
		t.Fatalf("expected 2 chunk ids for a.go, got %v", ids)
	}
}

func TestDeleteByIdsRemovesFromBothIndices(t *testing.T) {
	s := New()
	ctx := context.Background()
	rows := []Row{sampleRow("chunk_1", "hello world", "a.go", []float32{1, 0})}
	if err := s.Upsert(ctx, "ns1", rows); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteByIds(ctx, "ns1", []string{"chunk_1"}); err != nil {
		t.Fatal(err)
	}
	if ids := s.GetChunkIdsForFile("ns1", "a.go"); len(ids) != 0 {
		t.Fatalf("expected no chunk ids after delete, got %v", ids)
	}
	hits, err := s.Search(ctx, "ns1", SearchOptions{Query: "hello", Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no search hits after delete, got %v", hits)
	}
}

func TestClearNamespaceRemovesEverything(t *testing.T) {
	s := New()
	ctx := context.Background()
	rows := []Row{sampleRow("chunk_1", "hello world", "a.go", []float32{1, 0})}
	if err := s.Upsert(ctx, "ns1", rows); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearNamespace("ns1"); err != nil {
		t.Fatal(err)
	}
	hits, err := s.Search(ctx, "ns1", SearchOptions{Query: "hello", Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Fatal("expected cleared namespace to return no hits")
	}
}

func TestSearchDegradesToBM25WithoutEmbedding(t *testing.T) {
	s := New()
	ctx := context.Background()
	rows := []Row{
		sampleRow("chunk_1", "parse json payload", "a.go", []float32{1, 0}),
		sampleRow("chunk_2", "write bytes to disk", "b.go", []float32{0, 1}),
	}
	if err := s.Upsert(ctx, "ns1", rows); err != nil {
		t.Fatal(err)
	}
	hits, err := s.Search(ctx, "ns1", SearchOptions{Query: "json payload", Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 || hits[0].ID != "chunk_1" {
		t.Fatalf("expected bm25-only search to rank chunk_1 first, got %+v", hits)
	}
}
