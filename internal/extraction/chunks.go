package extraction

import (
	"strings"

	"github.com/codecontext/codecontext/internal/extraction/parsers"
)

// ChunkingConfig tunes ChunkExtractor's (C5) behavior.
type ChunkingConfig struct {
	// OverviewLines bounds a class's overview chunk when it has no
	// constructor: the first OverviewLines lines of the class (counted from
	// its doc comment, if any), or the whole class if it's shorter.
	OverviewLines int
	// FallbackWindowLines is the fixed-size window used for files with no
	// top-level declarations at all (e.g. a script with only statements).
	FallbackWindowLines int
}

// DefaultChunkingConfig matches the values used across the pipeline unless a
// codebase's config overrides them.
var DefaultChunkingConfig = ChunkingConfig{OverviewLines: 40, FallbackWindowLines: 100}

// ChunkFile carves one file's source into semantic chunks (C5), using the
// AST-level TopLevelDecl spans from Extract and the FileExtraction for
// symbol/import/export attribution. Chunk IDs are deterministic (§3).
func ChunkFile(cfg ChunkingConfig, result *ExtractResult, filePath, relativePath string, source []byte) []Chunk {
	lines := strings.Split(string(source), "\n")

	if len(result.TopLevel) == 0 {
		return windowChunks(cfg, result, filePath, relativePath, lines)
	}

	var chunks []Chunk
	for _, decl := range result.TopLevel {
		if decl.IsClass && len(decl.Methods) > 0 {
			chunks = append(chunks, classChunks(cfg, result, filePath, relativePath, lines, decl)...)
			continue
		}
		chunks = append(chunks, declChunk(result, filePath, relativePath, lines, decl))
	}
	return chunks
}

// declChunk builds one chunk spanning a declaration's doc comment through
// its end, per §4.5 ("top-level declaration -> one chunk").
func declChunk(result *ExtractResult, filePath, relativePath string, lines []string, decl parsers.TopLevelDecl) Chunk {
	start := decl.DocStartLine
	if start == 0 {
		start = decl.StartLine
	}
	content := joinLines(lines, start, decl.EndLine)
	chunk := Chunk{
		ID:           ComputeChunkID(filePath, start, content),
		Content:      content,
		FilePath:     filePath,
		RelativePath: relativePath,
		StartLine:    start,
		EndLine:      decl.EndLine,
		Language:     result.File.Language,
	}
	AttributeSymbolsAndImports(&chunk, &result.File)
	return chunk
}

// classChunks splits a class into an overview chunk (signature plus
// constructor, or the first OverviewLines lines when there is no
// constructor) and one chunk per method, whose first symbol is named
// "<ClassName>.<methodName>" so the chunk's identity reads like a qualified
// symbol (§4.5). ChunkFile applies it to every class with at least one
// method, whatever the class's size.
func classChunks(cfg ChunkingConfig, result *ExtractResult, filePath, relativePath string, lines []string, decl parsers.TopLevelDecl) []Chunk {
	start := decl.DocStartLine
	if start == 0 {
		start = decl.StartLine
	}

	overviewEnd := decl.ConstructorEndLine + 3
	if decl.ConstructorEndLine == 0 {
		overviewEnd = start + cfg.OverviewLines - 1
	}
	if overviewEnd > decl.EndLine {
		overviewEnd = decl.EndLine
	}
	if overviewEnd < start {
		overviewEnd = start
	}

	content := joinLines(lines, start, overviewEnd)
	overview := Chunk{
		ID:           ComputeChunkID(filePath, start, content),
		Content:      content,
		FilePath:     filePath,
		RelativePath: relativePath,
		StartLine:    start,
		EndLine:      overviewEnd,
		Language:     result.File.Language,
	}
	AttributeSymbolsAndImports(&overview, &result.File)

	chunks := []Chunk{overview}
	for _, method := range decl.Methods {
		mStart := method.DocStartLine
		if mStart == 0 {
			mStart = method.StartLine
		}
		mContent := joinLines(lines, mStart, method.EndLine)
		mChunk := Chunk{
			ID:           ComputeChunkID(filePath, mStart, mContent),
			Content:      mContent,
			FilePath:     filePath,
			RelativePath: relativePath,
			StartLine:    mStart,
			EndLine:      method.EndLine,
			Language:     result.File.Language,
		}
		AttributeSymbolsAndImports(&mChunk, &result.File)
		qualified := Symbol{Name: decl.Name + "." + method.Name, Type: SymbolMethod, StartLine: method.StartLine, EndLine: method.EndLine}
		symbols := []Symbol{qualified}
		for _, s := range mChunk.Symbols {
			if s.Name == qualified.Name {
				symbols[0].Scope = s.Scope
				continue
			}
			symbols = append(symbols, s)
		}
		mChunk.Symbols = symbols
		chunks = append(chunks, mChunk)
	}
	return chunks
}

// windowChunks handles files with no top-level declarations (scripts,
// config-like source) by splitting into fixed-size, non-overlapping line
// windows.
func windowChunks(cfg ChunkingConfig, result *ExtractResult, filePath, relativePath string, lines []string) []Chunk {
	window := cfg.FallbackWindowLines
	if window <= 0 {
		window = 100
	}

	var chunks []Chunk
	for start := 1; start <= len(lines); start += window {
		end := start + window - 1
		if end > len(lines) {
			end = len(lines)
		}
		content := joinLines(lines, start, end)
		if strings.TrimSpace(content) == "" {
			continue
		}
		chunk := Chunk{
			ID:           ComputeChunkID(filePath, start, content),
			Content:      content,
			FilePath:     filePath,
			RelativePath: relativePath,
			StartLine:    start,
			EndLine:      end,
			Language:     result.File.Language,
		}
		AttributeSymbolsAndImports(&chunk, &result.File)
		chunks = append(chunks, chunk)
	}
	return chunks
}

func joinLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}
