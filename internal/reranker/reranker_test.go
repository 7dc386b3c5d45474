package reranker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRerankReturnsScoredResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(rerankResponse{Results: []Scored{
			{Index: 1, Score: 0.9},
			{Index: 0, Score: 0.4},
		}})
	}))
	defer server.Close()

	client := New(server.URL)
	results, err := client.Rerank(context.Background(), "parse json", []string{"doc a", "doc b"}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Index != 1 || results[0].Score != 0.9 {
		t.Fatalf("unexpected rerank results: %+v", results)
	}
}

func TestRerankPropagatesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.Rerank(context.Background(), "q", []string{"a"}, 1)
	if err == nil {
		t.Fatal("expected an error from a failing reranker")
	}
}
