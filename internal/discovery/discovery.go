// Package discovery walks a codebase root and yields candidate files of
// supported languages, in a deterministic order, skipping well-known
// ignore directories.
package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/codecontext/codecontext/internal/langdetect"
)

// defaultSkipDirs are directory basenames that are never descended into,
// regardless of ignore-pattern configuration — mirroring the teacher's
// hardcoded skip of its own data directory (".cortex") generalized to any
// hidden directory plus the well-known dependency/build directories.
var defaultSkipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
}

// FileDiscoverer walks a root directory and returns absolute file paths for
// files whose language is supported, in lexicographically sorted order.
type FileDiscoverer struct {
	rootDir     string
	dataDirName string // e.g. ".codecontext" — always skipped
	ignore      []glob.Glob
}

// New creates a FileDiscoverer rooted at rootDir. dataDirName names the
// process's own data directory within the codebase (if any) to skip;
// ignorePatterns are additional glob patterns (relative, forward-slash) to
// exclude from the walk entirely (as opposed to C2's post-hoc filtering).
func New(rootDir, dataDirName string, ignorePatterns []string) (*FileDiscoverer, error) {
	fd := &FileDiscoverer{rootDir: rootDir, dataDirName: dataDirName}
	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.ignore = append(fd.ignore, g)
	}
	return fd, nil
}

// Discover walks the tree and returns absolute paths to candidate files,
// sorted lexicographically for reproducible indexing runs.
func (fd *FileDiscoverer) Discover() ([]string, error) {
	var results []string

	err := filepath.Walk(fd.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, relErr := filepath.Rel(fd.rootDir, path)
		if relErr != nil {
			return relErr
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if fd.shouldSkipDir(relPath, info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if fd.shouldIgnoreFile(relPath) {
			return nil
		}

		lang := langdetect.Detect(path, nil).Language
		if !langdetect.Supported(lang) {
			return nil
		}

		results = append(results, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(results)
	return results, nil
}

func (fd *FileDiscoverer) shouldSkipDir(relPath, baseName string) bool {
	if relPath == "." {
		return false
	}
	if strings.HasPrefix(baseName, ".") {
		return true
	}
	if fd.dataDirName != "" && baseName == fd.dataDirName {
		return true
	}
	if defaultSkipDirs[baseName] {
		return true
	}
	return fd.matchesIgnore(relPath) || fd.matchesIgnore(relPath+"/**")
}

func (fd *FileDiscoverer) shouldIgnoreFile(relPath string) bool {
	return fd.matchesIgnore(relPath)
}

func (fd *FileDiscoverer) matchesIgnore(relPath string) bool {
	for _, g := range fd.ignore {
		if g.Match(relPath) {
			return true
		}
	}
	return false
}
