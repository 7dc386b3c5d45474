// Package mcpserver implements the stdio JSON-RPC tool protocol of §6.1: a
// thin adapter exposing index_codebase, search_codebase, get_indexing_status,
// and clear_index as MCP tools. Semantics live in C10-C12; this package
// only parses arguments and shapes responses.
package mcpserver

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/codecontext/codecontext/internal/incremental"
	"github.com/codecontext/codecontext/internal/lock"
	"github.com/codecontext/codecontext/internal/orchestrator"
	"github.com/codecontext/codecontext/internal/registry"
	"github.com/codecontext/codecontext/internal/search"
	"github.com/codecontext/codecontext/internal/vectorstore"
)

// Server wraps an MCP stdio server exposing the four codebase-indexing tools.
type Server struct {
	mcp          *server.MCPServer
	Registry     *registry.Registry
	Locks        *lock.Service
	Orchestrator *orchestrator.Orchestrator
	Incremental  *incremental.Processor
	Coordinator  *search.Coordinator
	Store        *vectorstore.Store
	LogDir       string
}

// New builds an MCP server with all four tools registered.
func New(deps Server) *Server {
	s := deps
	s.mcp = server.NewMCPServer(
		"codecontext-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	AddIndexCodebaseTool(s.mcp, &s)
	AddSearchCodebaseTool(s.mcp, &s)
	AddGetIndexingStatusTool(s.mcp, &s)
	AddClearIndexTool(s.mcp, &s)

	return &s
}

// Serve starts the MCP server on stdio and blocks until a shutdown signal
// or a fatal server error, per the teacher's graceful-shutdown pattern.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting codecontext MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
