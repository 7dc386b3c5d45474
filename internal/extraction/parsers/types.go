// Package parsers implements per-language AST backends for C4/C5. Each
// backend parses one file and returns symbols, imports, exports, and the
// top-level declaration spans ChunkExtractor uses as chunk boundaries.
package parsers

import "github.com/codecontext/codecontext/internal/extraction"

// TopLevelDecl is one top-level (or class-member) declaration span, used by
// the chunk extractor to carve a file into semantic chunks.
type TopLevelDecl struct {
	Name      string
	Kind      extraction.SymbolKind
	// StartLine is the first line of the declaration itself (not the doc
	// comment); DocStartLine is where the chunk should actually begin,
	// including any immediately preceding doc-comment block.
	StartLine    int
	EndLine      int
	DocStartLine int

	// IsClass marks a class-like declaration. The chunk extractor splits
	// every class with at least one method into an overview chunk plus one
	// chunk per method, whatever the class's size.
	IsClass bool
	// ConstructorEndLine is the end line of the class's constructor, used to
	// bound the overview chunk; zero if the class has no constructor.
	ConstructorEndLine int
	Methods            []TopLevelDecl
}

// ParseResult is a single file's complete AST-derived extraction.
type ParseResult struct {
	Language    string
	Symbols     []extraction.Symbol
	Imports     []extraction.Import
	Exports     []string
	ParseErrors []string
	TopLevel    []TopLevelDecl
}

// Backend parses one source file for one language.
type Backend interface {
	Language() string
	Parse(source []byte, filePath string) (*ParseResult, error)
}
