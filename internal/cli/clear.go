package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var clearPathFlag string

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove a codebase's index, or every indexed codebase",
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().StringVar(&clearPathFlag, "path", "", "codebase to clear (default: every known codebase)")
}

func runClear(cmd *cobra.Command, args []string) error {
	rootDir := clearPathFlag
	if rootDir == "" {
		rootDir = "."
	}
	deps, err := newCollaborators(rootDir)
	if err != nil {
		return err
	}

	var targets []string
	if clearPathFlag != "" {
		canonicalPath, err := filepath.Abs(clearPathFlag)
		if err != nil {
			return err
		}
		targets = append(targets, canonicalPath)
	} else {
		for _, e := range deps.registry.All() {
			targets = append(targets, e.CanonicalPath)
		}
	}

	for _, canonicalPath := range targets {
		entry, ok := deps.registry.Get(canonicalPath)
		if !ok {
			continue
		}
		if err := deps.store.ClearNamespace(entry.Namespace); err != nil {
			fmt.Printf("Warning: failed to clear namespace %s for %s: %v\n", entry.Namespace, canonicalPath, err)
		}
		if err := deps.registry.Clear(canonicalPath); err != nil {
			return fmt.Errorf("clear registration for %s: %w", canonicalPath, err)
		}
		fmt.Printf("Cleared %s\n", canonicalPath)
	}
	if len(targets) == 0 {
		fmt.Println("Nothing to clear.")
	}
	return nil
}
