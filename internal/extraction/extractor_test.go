package extraction

import (
	"strings"
	"testing"
)

const goSample = `package sample

// Adder adds two numbers.
func Adder(a, b int) int {
	return a + b
}

// Multiplier multiplies two numbers.
func Multiplier(a, b int) int {
	return a * b
}
`

func TestExtractorRoutesByLanguage(t *testing.T) {
	e := NewExtractor()
	if !e.SupportsLanguage("go") {
		t.Fatal("expected go to be supported")
	}
	if e.SupportsLanguage("cobol") {
		t.Fatal("did not expect cobol to be supported")
	}

	result, err := e.Extract("go", "sample.go", []byte(goSample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.File.ParseErrors) != 0 {
		t.Fatalf("unexpected parse errors: %v", result.File.ParseErrors)
	}
	if len(result.TopLevel) != 2 {
		t.Fatalf("expected 2 top-level funcs, got %d", len(result.TopLevel))
	}
}

func TestExtractorDegradesOnParseFailure(t *testing.T) {
	e := NewExtractor()
	result, err := e.Extract("go", "bad.go", []byte("not valid go code {{{"))
	if err != nil {
		t.Fatalf("Extract should not surface parser errors: %v", err)
	}
	if len(result.File.ParseErrors) == 0 {
		t.Fatal("expected a recorded parse error for invalid source")
	}
}

func TestChunkFileOnePerDeclaration(t *testing.T) {
	e := NewExtractor()
	result, err := e.Extract("go", "sample.go", []byte(goSample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks := ChunkFile(DefaultChunkingConfig, result, "/repo/sample.go", "sample.go", []byte(goSample))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks (one per function), got %d", len(chunks))
	}
	for _, c := range chunks {
		if !strings.Contains(c.Content, "func ") {
			t.Errorf("chunk content should include the func declaration: %q", c.Content)
		}
		if c.ID == "" {
			t.Error("expected a non-empty deterministic chunk id")
		}
	}
}

func TestExtractDegradedResultChunksByWindow(t *testing.T) {
	e := NewExtractor()
	content := strings.Repeat("not valid go code {{{\n", 50)
	result, err := e.Extract("go", "bad.go", []byte(content))
	if err != nil {
		t.Fatalf("Extract should not surface parser errors: %v", err)
	}
	if len(result.TopLevel) != 0 {
		t.Fatalf("expected no top-level declarations from a degraded parse, got %+v", result.TopLevel)
	}

	chunks := ChunkFile(ChunkingConfig{OverviewLines: 40, FallbackWindowLines: 20}, result, "/repo/bad.go", "bad.go", []byte(content))
	if len(chunks) != 3 {
		t.Fatalf("expected a real parse failure to fall through to window chunking, got %d chunks", len(chunks))
	}
}

func TestChunkFileFallsBackToWindowsWithoutDeclarations(t *testing.T) {
	result := &ExtractResult{File: FileExtraction{Language: "text", FilePath: "notes.txt"}}
	content := strings.Repeat("line\n", 250)
	chunks := ChunkFile(ChunkingConfig{OverviewLines: 40, FallbackWindowLines: 100}, result, "/repo/notes.txt", "notes.txt", []byte(content))
	if len(chunks) != 3 {
		t.Fatalf("expected 3 windows of 100 lines for 250 lines, got %d", len(chunks))
	}
}
