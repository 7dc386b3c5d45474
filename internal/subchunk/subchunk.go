// Package subchunk implements C6 (SubChunker): splitting an oversized chunk
// into embeddable pieces while covering every byte exactly once (§4.6).
package subchunk

import (
	"strings"

	"github.com/codecontext/codecontext/internal/extraction"
)

// Config bounds sub-chunk size.
type Config struct {
	// MaxChars is the embedding size cap a sub-chunk's content must fit
	// within.
	MaxChars int
}

// DefaultConfig matches the embedding provider's practical input limit.
var DefaultConfig = Config{MaxChars: 8000}

// Split breaks a chunk into one or more sub-chunks, each within cfg.MaxChars,
// preferring to break at a line ending in "}" (a likely statement/block
// boundary), falling back to any line boundary, and finally a hard
// mid-line split if a single line exceeds the cap on its own. The
// concatenation of every returned sub-chunk's Content reproduces chunk.Content
// byte-for-byte (P7).
func Split(cfg Config, chunk extraction.Chunk) []extraction.Chunk {
	if cfg.MaxChars <= 0 || len(chunk.Content) <= cfg.MaxChars {
		return []extraction.Chunk{chunk}
	}

	var pieces []string
	remaining := chunk.Content
	for len(remaining) > cfg.MaxChars {
		cut := bestSplitPoint(remaining, cfg.MaxChars)
		pieces = append(pieces, remaining[:cut])
		remaining = remaining[cut:]
	}
	if remaining != "" {
		pieces = append(pieces, remaining)
	}

	return buildSubChunks(chunk, pieces)
}

// bestSplitPoint finds where to cut content of length > limit, preferring
// (in order): the last "}\n" boundary at or before limit, the last plain
// newline at or before limit, or a hard cut at limit if neither exists.
func bestSplitPoint(content string, limit int) int {
	window := content[:limit]

	if idx := strings.LastIndex(window, "}\n"); idx != -1 {
		return idx + 2
	}
	if idx := strings.LastIndex(window, "\n"); idx != -1 {
		return idx + 1
	}
	return limit
}

// buildSubChunks converts content pieces back into Chunks with recomputed
// line ranges, ids, and symbol/import/export attribution.
func buildSubChunks(original extraction.Chunk, pieces []string) []extraction.Chunk {
	chunks := make([]extraction.Chunk, 0, len(pieces))
	line := original.StartLine

	file := extraction.FileExtraction{
		Language: original.Language,
		FilePath: original.FilePath,
		Symbols:  original.Symbols,
		Imports:  original.Imports,
		Exports:  original.Exports,
	}

	for _, piece := range pieces {
		lineCount := strings.Count(piece, "\n")
		if !strings.HasSuffix(piece, "\n") && piece != "" {
			lineCount++
		}
		end := line + lineCount - 1
		if end < line {
			end = line
		}

		sub := extraction.Chunk{
			ID:           extraction.ComputeChunkID(original.FilePath, line, piece),
			Content:      piece,
			FilePath:     original.FilePath,
			RelativePath: original.RelativePath,
			StartLine:    line,
			EndLine:      end,
			Language:     original.Language,
		}
		extraction.AttributeSymbolsAndImports(&sub, &file)
		chunks = append(chunks, sub)

		line = end + 1
	}
	return chunks
}
