package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var statusPathFlag string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show indexing status for a codebase, or all known codebases",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusPathFlag, "path", "", "codebase to report on (default: all known codebases)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	rootDir := statusPathFlag
	if rootDir == "" {
		rootDir = "."
	}
	deps, err := newCollaborators(rootDir)
	if err != nil {
		return err
	}

	if statusPathFlag == "" {
		entries := deps.registry.All()
		if len(entries) == 0 {
			fmt.Println("No codebases indexed yet.")
			return nil
		}
		for _, e := range entries {
			printStatusEntry(e.CanonicalPath, e.Namespace, e.LastIndexedAt)
		}
		return nil
	}

	canonicalPath, err := filepath.Abs(statusPathFlag)
	if err != nil {
		return err
	}
	entry, ok := deps.registry.Get(canonicalPath)
	if !ok {
		fmt.Printf("%s is not indexed\n", canonicalPath)
		return nil
	}
	printStatusEntry(entry.CanonicalPath, entry.Namespace, entry.LastIndexedAt)
	return nil
}

func printStatusEntry(canonicalPath, namespace string, lastIndexedAt time.Time) {
	last := "never"
	if !lastIndexedAt.IsZero() {
		last = lastIndexedAt.Format(time.RFC3339)
	}
	fmt.Printf("%s\n  namespace: %s\n  last indexed: %s\n", canonicalPath, namespace, last)
}
