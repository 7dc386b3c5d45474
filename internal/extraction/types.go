// Package extraction implements C4 (SymbolExtractor) and C5 (ChunkExtractor):
// AST-driven per-file symbol, import, export, and semantic-chunk extraction.
package extraction

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SymbolKind enumerates the kinds of declarations SymbolExtractor records.
type SymbolKind string

const (
	SymbolFunction  SymbolKind = "function"
	SymbolClass     SymbolKind = "class"
	SymbolInterface SymbolKind = "interface"
	SymbolType      SymbolKind = "type"
	SymbolVariable  SymbolKind = "variable"
	SymbolConstant  SymbolKind = "constant"
	SymbolMethod    SymbolKind = "method"
	SymbolNamespace SymbolKind = "namespace"
)

// Scope enumerates the scope of a symbol declaration.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeLocal  Scope = "local"
	ScopeExport Scope = "export"
)

// Symbol is a single declaration with its location and visibility.
type Symbol struct {
	Name      string     `json:"name"`
	Type      SymbolKind `json:"type"`
	StartLine int        `json:"startLine"`
	EndLine   int        `json:"endLine"`
	Scope     Scope      `json:"scope,omitempty"`
}

// Overlaps reports whether the symbol's line range overlaps [start, end].
func (s Symbol) Overlaps(start, end int) bool {
	return s.StartLine <= end && s.EndLine >= start
}

// Import is a single module import statement.
type Import struct {
	Module         string   `json:"module"`
	ImportedNames  []string `json:"importedNames"`
	Line           int      `json:"line"`
}

// FileExtraction is the per-file output of SymbolExtractor (C4): every
// declaration, import, and export in the file, plus any non-fatal parse
// errors encountered along the way.
type FileExtraction struct {
	Language    string   `json:"language"`
	FilePath    string   `json:"filePath"`
	Symbols     []Symbol `json:"symbols"`
	Imports     []Import `json:"imports"`
	Exports     []string `json:"exports"`
	ParseErrors []string `json:"parseErrors,omitempty"`
}

// Chunk is a semantically bounded, retrievable source-code unit (C5's
// output, enriched with C4's attribution per §3 of the specification).
type Chunk struct {
	ID           string   `json:"id"`
	Content      string   `json:"content"`
	FilePath     string   `json:"filePath"`
	RelativePath string   `json:"relativePath"`
	StartLine    int      `json:"startLine"`
	EndLine      int      `json:"endLine"`
	Language     string   `json:"language"`
	Symbols      []Symbol `json:"symbols"`
	Imports      []Import `json:"imports"`
	Exports      []string `json:"exports"`
}

// ComputeChunkID derives a chunk's content-and-location-bound identity per
// §3: "chunk_" + first-16-hex(sha256(filePath + ":" + startLine + ":" + content)).
func ComputeChunkID(filePath string, startLine int, content string) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", filePath, startLine, content)))
	return "chunk_" + hex.EncodeToString(h[:])[:16]
}

// AttributeSymbolsAndImports fills in a chunk's Symbols, Imports, and
// Exports fields from a file's full extraction, per §3: symbols overlapping
// the chunk's line range, imports at or before the chunk's end line (imports
// are file-scoped; every chunk of the file shares them), and exports that
// name one of the chunk's attributed symbols.
func AttributeSymbolsAndImports(chunk *Chunk, file *FileExtraction) {
	chunk.Symbols = nil
	for _, sym := range file.Symbols {
		if sym.Overlaps(chunk.StartLine, chunk.EndLine) {
			chunk.Symbols = append(chunk.Symbols, sym)
		}
	}

	chunk.Imports = nil
	for _, imp := range file.Imports {
		if imp.Line <= chunk.EndLine {
			chunk.Imports = append(chunk.Imports, imp)
		}
	}

	exportSet := make(map[string]bool, len(file.Exports))
	for _, name := range file.Exports {
		exportSet[name] = true
	}
	chunk.Exports = nil
	for _, sym := range chunk.Symbols {
		if exportSet[sym.Name] {
			chunk.Exports = append(chunk.Exports, sym.Name)
		}
	}
}
