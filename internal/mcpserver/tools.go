package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/codecontext/codecontext/internal/orchestrator"
	"github.com/codecontext/codecontext/internal/search"
)

func requireAbsolutePath(argsMap map[string]interface{}, key string) (string, error) {
	raw, ok := argsMap[key].(string)
	if !ok || raw == "" {
		return "", fmt.Errorf("%s parameter is required", key)
	}
	if !filepath.IsAbs(raw) {
		return "", fmt.Errorf("%s must be an absolute path, got %q", key, raw)
	}
	return raw, nil
}

// AddIndexCodebaseTool registers index_codebase: it spawns a detached
// background worker running C10 and returns immediately with a log-file
// handle, per §6.1.
func AddIndexCodebaseTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"index_codebase",
		mcp.WithDescription("Index a codebase for hybrid semantic+keyword search. Runs in the background; poll get_indexing_status for progress."),
		mcp.WithString("codebase_path",
			mcp.Required(),
			mcp.Description("Absolute path to the codebase root to index")),
		mcp.WithBoolean("force_reindex",
			mcp.Description("Clear any existing index for this codebase before indexing (default: false)")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		codebasePath, err := requireAbsolutePath(argsMap, "codebase_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		forceReindex, _ := argsMap["force_reindex"].(bool)

		canonicalPath, err := filepath.Abs(codebasePath)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		logPath := srv.logPathFor(canonicalPath)

		logFile, err := os.Create(logPath)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("create log file: %v", err)), nil
		}
		worker := log.New(logFile, "", log.LstdFlags)

		go func() {
			defer logFile.Close()
			worker.Printf("indexing started for %s (force_reindex=%v)", canonicalPath, forceReindex)
			result, err := srv.Orchestrator.IndexCodebase(context.Background(), canonicalPath, orchestrator.Options{
				ForceReindex:           forceReindex,
				EnableContentFiltering: true,
			})
			if err != nil {
				worker.Printf("indexing failed: %v", err)
				return
			}
			worker.Printf("indexing complete: success=%v files=%d chunks=%d symbols=%d errors=%d elapsed=%s",
				result.Success, result.TotalFiles, result.TotalChunks, result.TotalSymbols, len(result.Errors), result.IndexingTime)
		}()

		response, _ := json.Marshal(map[string]interface{}{
			"status":   "started",
			"log_file": logPath,
		})
		return mcp.NewToolResultText(string(response)), nil
	})
}

// AddSearchCodebaseTool registers search_codebase: invokes C12 and returns
// the §6.3 result envelope.
func AddSearchCodebaseTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"search_codebase",
		mcp.WithDescription("Search an already-indexed codebase using hybrid dense-vector and keyword search. Returns ranked code chunks with symbol and connection context."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language or keyword search query")),
		mcp.WithString("codebase_path",
			mcp.Required(),
			mcp.Description("Absolute path to the previously indexed codebase root")),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 5)")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		query, ok := argsMap["query"].(string)
		if !ok || query == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}
		codebasePath, err := requireAbsolutePath(argsMap, "codebase_path")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := 5
		if raw, ok := argsMap["max_results"].(float64); ok && raw > 0 {
			limit = int(raw)
		}

		result, err := srv.Coordinator.Search(ctx, query, codebasePath, search.Options{
			Limit:           limit,
			EnableReranking: srv.Coordinator.Reranker != nil,
		})
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}

		response, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(response)), nil
	})
}

// AddGetIndexingStatusTool registers get_indexing_status: returns C7's
// registry snapshot, optionally enriched from the most recent background
// index log.
func AddGetIndexingStatusTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"get_indexing_status",
		mcp.WithDescription("Report indexing status for one codebase, or every registered codebase if codebase_path is omitted."),
		mcp.WithString("codebase_path",
			mcp.Description("Absolute path to a specific codebase to report on")),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, _ := request.Params.Arguments.(map[string]interface{})

		if raw, ok := argsMap["codebase_path"].(string); ok && raw != "" {
			codebasePath, err := requireAbsolutePath(argsMap, "codebase_path")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			canonicalPath, err := filepath.Abs(codebasePath)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			entry, ok := srv.Registry.Get(canonicalPath)
			if !ok {
				response, _ := json.Marshal(map[string]interface{}{"indexed": false, "codebase_path": canonicalPath})
				return mcp.NewToolResultText(string(response)), nil
			}
			status := map[string]interface{}{
				"indexed":         true,
				"codebase_path":   entry.CanonicalPath,
				"namespace":       entry.Namespace,
				"registered_at":   entry.RegisteredAt,
				"last_indexed_at": entry.LastIndexedAt,
			}
			if summary, ok := readLogSummary(srv.logPathFor(canonicalPath)); ok {
				status["last_run"] = summary
			}
			response, _ := json.Marshal(status)
			return mcp.NewToolResultText(string(response)), nil
		}

		entries := srv.Registry.All()
		response, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(response)), nil
	})
}

// AddClearIndexTool registers clear_index: invokes C7.Clear and tears down
// the corresponding vector-store namespace(s).
func AddClearIndexTool(s *server.MCPServer, srv *Server) {
	tool := mcp.NewTool(
		"clear_index",
		mcp.WithDescription("Remove a codebase's index (or every index if codebase_path is omitted)."),
		mcp.WithString("codebase_path",
			mcp.Description("Absolute path to the codebase to clear")),
		mcp.WithDestructiveHintAnnotation(true),
	)
	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, _ := request.Params.Arguments.(map[string]interface{})

		var targets []string
		if raw, ok := argsMap["codebase_path"].(string); ok && raw != "" {
			codebasePath, err := requireAbsolutePath(argsMap, "codebase_path")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			canonicalPath, err := filepath.Abs(codebasePath)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			targets = []string{canonicalPath}
		} else {
			for _, entry := range srv.Registry.All() {
				targets = append(targets, entry.CanonicalPath)
			}
		}

		cleared := make([]string, 0, len(targets))
		for _, canonicalPath := range targets {
			entry, ok := srv.Registry.Get(canonicalPath)
			if !ok {
				continue
			}
			if err := srv.Store.ClearNamespace(entry.Namespace); err != nil {
				log.Printf("Warning: failed to clear vector store namespace %s: %v\n", entry.Namespace, err)
			}
			if err := srv.Registry.Clear(canonicalPath); err != nil {
				log.Printf("Warning: failed to clear registry entry for %s: %v\n", canonicalPath, err)
				continue
			}
			cleared = append(cleared, canonicalPath)
		}

		response, _ := json.Marshal(map[string]interface{}{"cleared": cleared})
		return mcp.NewToolResultText(string(response)), nil
	})
}

func (s *Server) logPathFor(canonicalPath string) string {
	return filepath.Join(s.LogDir, sanitizeLogName(canonicalPath)+".log")
}

func sanitizeLogName(path string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return replacer.Replace(path)
}

// readLogSummary returns the last "indexing complete: ..." or "indexing
// failed: ..." line of a background index log, to report the outcome without
// holding that state in memory across server restarts.
func readLogSummary(logPath string) (string, bool) {
	file, err := os.Open(logPath)
	if err != nil {
		return "", false
	}
	defer file.Close()

	var lastComplete string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "indexing complete:") || strings.Contains(line, "indexing failed:") {
			lastComplete = line
		}
	}
	if lastComplete == "" {
		return "", false
	}
	return lastComplete, true
}
