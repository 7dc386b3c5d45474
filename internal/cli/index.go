package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codecontext/codecontext/internal/incremental"
	"github.com/codecontext/codecontext/internal/orchestrator"
	"github.com/codecontext/codecontext/internal/watchmode"
)

var (
	forceReindexFlag bool
	incrementalFlag  bool
	watchFlag        bool
)

// indexCmd represents the index command.
var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a codebase for hybrid semantic + keyword search",
	Long: `Index walks a codebase, extracts symbols and chunks from every supported
source file, embeds each chunk, and upserts it into the hybrid vector
store. Defaults to the current directory when no path is given.

Examples:
  # Full index of the current directory
  codecontext index

  # Re-index, clearing any existing chunks first
  codecontext index --force

  # Sync only files that changed since the last index
  codecontext index --incremental

  # Index once, then keep syncing on every subsequent file change
  codecontext index --watch
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&forceReindexFlag, "force", false, "clear the existing index before indexing")
	indexCmd.Flags().BoolVar(&incrementalFlag, "incremental", false, "sync only files changed since the last index")
	indexCmd.Flags().BoolVar(&watchFlag, "watch", false, "keep running, syncing on every subsequent file change")
}

func runIndex(cmd *cobra.Command, args []string) error {
	codebasePath := "."
	if len(args) == 1 {
		codebasePath = args[0]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cancelling...")
		cancel()
	}()

	deps, err := newCollaborators(codebasePath)
	if err != nil {
		return err
	}

	if incrementalFlag {
		canonicalPath, err := filepath.Abs(codebasePath)
		if err != nil {
			return fmt.Errorf("resolve canonical path: %w", err)
		}
		entry, ok := deps.registry.Get(canonicalPath)
		if !ok {
			return fmt.Errorf("codebase is not yet indexed; run a full index first")
		}
		result, err := deps.incremental.ProcessIncrementalUpdate(ctx, codebasePath, entry.Namespace, incremental.Options{})
		if err != nil {
			return err
		}
		fmt.Printf("Incremental sync complete: %d files processed, %d chunks created, %d chunks deleted (%dms)\n",
			result.FilesProcessed, result.ChunksCreated, result.ChunksDeleted, result.ProcessingTimeMs)
		return nil
	}

	var result *orchestrator.Result
	err = withSpinner("indexing", func() error {
		var indexErr error
		result, indexErr = deps.orchestrator.IndexCodebase(ctx, codebasePath, orchestrator.Options{
			ForceReindex:           forceReindexFlag,
			EnableContentFiltering: true,
			SupportedLanguages:     deps.cfg.Paths.SupportedLanguages,
		})
		return indexErr
	})
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("indexing did not complete: %d errors", len(result.Errors))
	}

	fmt.Printf("Indexed %d files into namespace %s: %d chunks, %d symbols (%s)\n",
		result.TotalFiles, result.Namespace, result.TotalChunks, result.TotalSymbols, result.IndexingTime)
	if len(result.Errors) > 0 {
		fmt.Printf("%d files were skipped:\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  %s: %s\n", e.File, e.Error)
		}
	}

	if !watchFlag {
		return nil
	}
	return runWatch(ctx, deps, codebasePath, result.Namespace)
}

func runWatch(ctx context.Context, deps *collaborators, codebasePath, namespace string) error {
	w, err := watchmode.New(codebasePath)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	fmt.Println("Watching for changes (Ctrl-C to stop)...")
	err = w.Run(ctx, func(changedFiles []string) {
		result, err := deps.incremental.ProcessIncrementalUpdate(ctx, codebasePath, namespace, incremental.Options{})
		if err != nil {
			fmt.Printf("Warning: incremental sync failed: %v\n", err)
			return
		}
		fmt.Printf("Synced %d change(s): %d files processed, %d chunks created, %d chunks deleted\n",
			len(changedFiles), result.FilesProcessed, result.ChunksCreated, result.ChunksDeleted)
	})
	if err == context.Canceled {
		return nil
	}
	return err
}
