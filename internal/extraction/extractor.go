package extraction

import (
	"fmt"

	"github.com/codecontext/codecontext/internal/extraction/parsers"
)

// Extractor routes a file to the right language backend and falls back to a
// degraded, symbol-free extraction when the AST parse itself fails (§4.4, §7).
type Extractor struct {
	backends map[string]parsers.Backend
}

// NewExtractor builds an Extractor with one backend per supported language.
// Constructing tree-sitter grammars is cheap relative to parsing, so one
// Extractor is shared across an entire indexing run.
func NewExtractor() *Extractor {
	ts := parsers.NewTypeScriptBackend()
	js := parsers.NewJavaScriptBackend()
	c := parsers.NewCBackend()
	cpp := parsers.NewCppBackend()

	backends := map[string]parsers.Backend{
		"go":         parsers.NewGoBackend(),
		"typescript": ts,
		"javascript": js,
		"python":     parsers.NewPythonBackend(),
		"rust":       parsers.NewRustBackend(),
		"c":          c,
		"cpp":        cpp,
		"java":       parsers.NewJavaBackend(),
		"php":        parsers.NewPHPBackend(),
		"ruby":       parsers.NewRubyBackend(),
	}
	return &Extractor{backends: backends}
}

// SupportsLanguage reports whether a backend exists for the given language.
func (e *Extractor) SupportsLanguage(language string) bool {
	_, ok := e.backends[language]
	return ok
}

// ExtractResult bundles a file's symbol extraction with the raw top-level
// declaration spans ChunkExtractor needs, since both derive from one parse.
type ExtractResult struct {
	File     FileExtraction
	TopLevel []parsers.TopLevelDecl
}

// Extract parses one file's content and returns its full extraction. On an
// AST parse failure it does not return an error: it returns an extraction
// with no symbols, imports or top-level declarations and records the failure
// in ParseErrors, so the file is still chunked in fixed-size line windows
// instead of being dropped (§4.4).
func (e *Extractor) Extract(language, filePath string, content []byte) (*ExtractResult, error) {
	backend, ok := e.backends[language]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", language)
	}

	parsed, err := backend.Parse(content, filePath)
	if err != nil || parsed == nil {
		degraded := regexFallback(language, filePath, content)
		degraded.ParseErrors = append(degraded.ParseErrors, errString(err))
		return &ExtractResult{File: *fileExtractionFrom(degraded, language, filePath)}, nil
	}

	file := fileExtractionFrom(parsed, language, filePath)
	return &ExtractResult{File: *file, TopLevel: parsed.TopLevel}, nil
}

func errString(err error) string {
	if err == nil {
		return "parse failed: empty tree"
	}
	return err.Error()
}

func fileExtractionFrom(p *parsers.ParseResult, language, filePath string) *FileExtraction {
	return &FileExtraction{
		Language:    language,
		FilePath:    filePath,
		Symbols:     p.Symbols,
		Imports:     p.Imports,
		Exports:     p.Exports,
		ParseErrors: p.ParseErrors,
	}
}

// regexFallback gives a degraded extraction for a file the real parser
// rejected: it records zero symbols rather than guessing at structure, since
// a wrong symbol is worse than no symbol, and leaves TopLevel empty so
// ChunkFile falls through to windowChunks's fixed-size line windows (§7)
// instead of treating the whole file as one declaration.
func regexFallback(language, filePath string, content []byte) *parsers.ParseResult {
	return &parsers.ParseResult{
		Language:    language,
		Symbols:     nil,
		Imports:     nil,
		Exports:     nil,
		ParseErrors: nil,
		TopLevel:    nil,
	}
}
