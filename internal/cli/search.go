package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codecontext/codecontext/internal/search"
)

var (
	searchPathFlag   string
	searchLimitFlag  int
	searchRerankFlag bool
	searchJSONFlag   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search an indexed codebase",
	Long: `Search issues a hybrid dense-vector + BM25 query against an already
indexed codebase and prints the ranked results, each with its file,
line range, and surrounding symbol/connection context.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchPathFlag, "path", ".", "codebase to search (must already be indexed)")
	searchCmd.Flags().IntVar(&searchLimitFlag, "limit", 0, "maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchRerankFlag, "rerank", false, "rerank results with the configured reranker")
	searchCmd.Flags().BoolVar(&searchJSONFlag, "json", false, "print raw JSON instead of formatted output")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	deps, err := newCollaborators(searchPathFlag)
	if err != nil {
		return err
	}

	limit := searchLimitFlag
	if limit <= 0 {
		limit = deps.cfg.Search.DefaultLimit
	}

	resp, err := deps.coordinator.Search(context.Background(), query, searchPathFlag, search.Options{
		Limit:           limit,
		VectorWeight:    deps.cfg.Search.VectorWeight,
		BM25Weight:      deps.cfg.Search.BM25Weight,
		EnableReranking: searchRerankFlag && deps.reranker != nil,
	})
	if err != nil {
		return err
	}

	if searchJSONFlag {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if !resp.Success {
		fmt.Println(resp.Message)
		return nil
	}

	fmt.Printf("%d results (%s, %dms)\n\n", resp.TotalResults, resp.Strategy, resp.SearchTimeMs)
	for i, r := range resp.Results {
		fmt.Printf("%d. %s:%d-%d  score=%.4f", i+1, r.FilePath, r.StartLine, r.EndLine, r.Score)
		if r.Reranked && r.OriginalScore != nil {
			fmt.Printf(" (hybrid=%.4f, reranked)", *r.OriginalScore)
		}
		fmt.Println()
		if len(r.Connections.Imports) > 0 {
			fmt.Printf("   imports: %v\n", r.Connections.Imports)
		}
		fmt.Println()
	}
	return nil
}
