package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codecontext/codecontext/internal/daemon"
	"github.com/codecontext/codecontext/internal/mcpserver"
)

var mcpPathFlag string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve indexing and search as MCP tools over stdio",
	Long: `mcp starts a stdio JSON-RPC server exposing index_codebase,
search_codebase, get_indexing_status, and clear_index as tools for a
coding assistant to call. The server runs until interrupted.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpPathFlag, "path", ".", "root directory to load configuration from")
}

func runMCP(cmd *cobra.Command, args []string) error {
	deps, err := newCollaborators(mcpPathFlag)
	if err != nil {
		return err
	}

	singleton := daemon.NewSingleton(deps.dataDir)
	won, err := singleton.EnforceSingleton()
	if err != nil {
		return fmt.Errorf("acquire mcp server lock: %w", err)
	}
	if !won {
		return fmt.Errorf("an MCP server is already running for %s", deps.dataDir)
	}
	defer singleton.Release()

	logDir, err := logDirFor(deps.dataDir)
	if err != nil {
		return err
	}

	srv := mcpserver.New(mcpserver.Server{
		Registry:     deps.registry,
		Locks:        deps.locks,
		Orchestrator: deps.orchestrator,
		Incremental:  deps.incremental,
		Coordinator:  deps.coordinator,
		Store:        deps.store,
		LogDir:       logDir,
	})

	return srv.Serve(context.Background())
}

func logDirFor(dataDir string) (string, error) {
	dir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}
	return dir, nil
}
