// Package filter decides whether a discovered file is worth indexing.
package filter

import (
	"strings"

	"github.com/gobwas/glob"
)

// MaxFileSize is the default size cap beyond which a file is treated as a
// data file rather than source.
const MaxFileSize = 500_000

// Decision is the outcome of a filter evaluation.
type Decision struct {
	Include    bool
	Reason     string
	Confidence float64
}

// testGeneratedVendoredPatterns are glob patterns (matched against a
// forward-slash relative path) that mark a file as test, generated, or
// vendored code, not worth indexing for retrieval. Evaluated in order;
// first match wins.
var testGeneratedVendoredPatterns = []string{
	"**/node_modules/**",
	"**/vendor/**",
	"**/.git/**",
	"**/dist/**",
	"**/build/**",
	"**/target/**",
	"**/__pycache__/**",
	"**/*_test.go",
	"**/*.test.ts",
	"**/*.test.tsx",
	"**/*.test.js",
	"**/*.spec.ts",
	"**/*.spec.js",
	"**/test/**",
	"**/tests/**",
	"**/__tests__/**",
	"**/*.min.js",
	"**/*.min.css",
	"**/*_pb.go",
	"**/*.pb.go",
	"**/*.generated.go",
	"**/*.gen.go",
}

// configLockfileNames are files excluded as configuration/lockfiles rather
// than source, evaluated by exact basename.
var configLockfileNames = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"go.sum":            true,
	"Cargo.lock":        true,
	"composer.lock":     true,
	"Gemfile.lock":      true,
	"poetry.lock":       true,
}

// ContentFilter evaluates relative paths and content for inclusion.
type ContentFilter struct {
	excludeGlobs []glob.Glob
	maxSize      int64
}

// New compiles the default ContentFilter. extraIgnore is an additional list
// of glob patterns (e.g. from project configuration) to exclude, applied
// with the same precedence as the built-in test/generated/vendored rules.
func New(extraIgnore []string) (*ContentFilter, error) {
	cf := &ContentFilter{maxSize: MaxFileSize}

	all := append(append([]string{}, testGeneratedVendoredPatterns...), extraIgnore...)
	for _, pattern := range all {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		cf.excludeGlobs = append(cf.excludeGlobs, g)
	}

	return cf, nil
}

// ShouldInclude decides whether relPath/content should be indexed.
// content may be nil if only a path-based decision is desired; the size
// check then always passes and the binary check is skipped.
func (cf *ContentFilter) ShouldInclude(relPath string, content []byte) Decision {
	relPath = toSlash(relPath)

	// 1. Path matches a test/generated/vendored/minified pattern.
	for _, g := range cf.excludeGlobs {
		if g.Match(relPath) || g.Match("/"+relPath) {
			return Decision{Include: false, Reason: "Matches test/generated/vendored pattern"}
		}
	}

	// 2. Size exceeds the cap.
	if int64(len(content)) > cf.maxSize {
		return Decision{Include: false, Reason: "File too large (likely data file)"}
	}

	// 3. Binary signature or high ratio of non-text bytes.
	if content != nil && looksBinary(content) {
		return Decision{Include: false, Reason: "Binary content detected"}
	}

	// 4. Known configuration/lockfile list.
	base := relPath
	if idx := strings.LastIndexByte(relPath, '/'); idx >= 0 {
		base = relPath[idx+1:]
	}
	if configLockfileNames[base] {
		return Decision{Include: false, Reason: "Configuration/lockfile, not source"}
	}

	return Decision{Include: true, Reason: "", Confidence: 0.8}
}

// looksBinary applies the same null-byte heuristic the teacher uses for
// isTextFile: a null byte in the first chunk of content is a strong signal
// of binary data that no ecosystem MIME sniffer in the pack improves on.
func looksBinary(content []byte) bool {
	probe := content
	if len(probe) > 512 {
		probe = probe[:512]
	}

	nonText := 0
	for _, b := range probe {
		if b == 0 {
			return true
		}
		if b < 7 || (b > 13 && b < 32) {
			nonText++
		}
	}

	if len(probe) == 0 {
		return false
	}
	return float64(nonText)/float64(len(probe)) > 0.3
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
