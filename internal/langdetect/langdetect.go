// Package langdetect maps a file path and an optional content prefix to a
// language tag, the extension it was matched on, and a confidence score.
package langdetect

import (
	"path/filepath"
	"strings"
)

// Result is the outcome of a language detection attempt.
type Result struct {
	Language   string
	Extension  string
	Confidence float64
}

// extensionTable maps lowercase extensions (including the leading dot) to
// a language tag. Kept as a flat switch-shaped map rather than a registry
// interface: the set of supported languages is small and fixed, matching
// how the teacher resolves languages in detectLanguage.
var extensionTable = map[string]string{
	".ts":  "typescript",
	".tsx": "typescript",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
	".py":  "python",
	".pyi": "python",
	".java": "java",
	".go":  "go",
	".rs":  "rust",
	".c":   "c",
	".h":   "c",
	".cpp": "cpp",
	".cc":  "cpp",
	".cxx": "cpp",
	".hpp": "cpp",
	".hxx": "cpp",
	".php": "php",
	".rb":  "ruby",
}

// shebangOverrides maps interpreter names found on a shebang line to a
// language tag, for extensionless scripts.
var shebangOverrides = map[string]string{
	"python":  "python",
	"python3": "python",
	"node":    "javascript",
	"ruby":    "ruby",
}

// Detect resolves the language of a file from its path and, optionally, a
// prefix of its content (used only to resolve shebang lines on extensionless
// files). A nil or empty content is valid; extension matching alone is
// sufficient for the overwhelming majority of files.
func Detect(path string, contentPrefix []byte) Result {
	ext := strings.ToLower(filepath.Ext(path))

	if lang, ok := extensionTable[ext]; ok {
		return Result{Language: lang, Extension: ext, Confidence: 1.0}
	}

	if ext == "" && len(contentPrefix) > 0 {
		if lang, conf, ok := detectFromShebang(contentPrefix); ok {
			return Result{Language: lang, Extension: ext, Confidence: conf}
		}
	}

	return Result{Language: "unknown", Extension: ext, Confidence: 0}
}

// Supported reports whether a language tag is one this module can extract
// symbols and chunks from.
func Supported(language string) bool {
	switch language {
	case "go", "typescript", "javascript", "python", "rust", "c", "cpp", "java", "php", "ruby":
		return true
	default:
		return false
	}
}

// detectFromShebang inspects the first line of content for a `#!` shebang
// and resolves the interpreter name to a language. Confidence is lower than
// extension-based matches since the heuristic can misfire on wrapper scripts.
func detectFromShebang(content []byte) (language string, confidence float64, ok bool) {
	firstLine := content
	if idx := strings.IndexByte(string(content), '\n'); idx >= 0 {
		firstLine = content[:idx]
	}
	line := strings.TrimSpace(string(firstLine))
	if !strings.HasPrefix(line, "#!") {
		return "", 0, false
	}

	interpreterLine := strings.TrimPrefix(line, "#!")
	fields := strings.Fields(interpreterLine)
	if len(fields) == 0 {
		return "", 0, false
	}

	// Handle `#!/usr/bin/env python3` as well as `#!/usr/bin/python3`.
	interpreter := filepath.Base(fields[0])
	if interpreter == "env" && len(fields) > 1 {
		interpreter = fields[1]
	}

	if lang, found := shebangOverrides[interpreter]; found {
		return lang, 0.6, true
	}
	return "", 0, false
}
