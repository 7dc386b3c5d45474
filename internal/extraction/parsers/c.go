package parsers

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"

	"github.com/codecontext/codecontext/internal/extraction"
)

// CBackend parses C files. It also serves C++ sources, since the example
// pack carries no separate tree-sitter-cpp grammar; the C grammar handles
// the subset of C++ that matters for symbol/chunk extraction well enough.
type CBackend struct {
	treeSitterBackend
}

// NewCBackend creates a backend tagged "c".
func NewCBackend() *CBackend {
	lang := sitter.NewLanguage(c.Language())
	return &CBackend{newTreeSitterBackend(lang, "c")}
}

// NewCppBackend creates a backend tagged "cpp", reusing the C grammar.
func NewCppBackend() *CBackend {
	lang := sitter.NewLanguage(c.Language())
	return &CBackend{newTreeSitterBackend(lang, "cpp")}
}

func isCComment(line string) bool {
	return strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") || strings.HasPrefix(line, "*")
}

// Parse implements Backend.
func (b *CBackend) Parse(source []byte, filePath string) (*ParseResult, error) {
	tree, root, lines := b.parseTree(source)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s as %s", filePath, b.lang)
	}
	defer tree.Close()

	result := &ParseResult{Language: b.lang}

	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "preproc_include":
			result.Imports = append(result.Imports, extraction.Import{
				Module: strings.Trim(nodeText(n, source), "#include \t\"<>"), ImportedNames: []string{}, Line: startLine(n),
			})
		case "struct_specifier", "union_specifier", "enum_specifier":
			b.extractType(n, source, lines, result)
		case "function_definition":
			b.extractFunction(n, source, lines, result)
		case "declaration":
			if isTopLevelCNode(n) {
				b.extractDeclaration(n, source, lines, result)
			}
		}
		return true
	})

	return result, nil
}

func (b *CBackend) extractType(n *sitter.Node, source []byte, lines []string, result *ParseResult) {
	nameNode := findChildByFieldName(n, "name")
	name := nodeText(nameNode, source)
	if name == "" {
		return
	}
	result.Symbols = append(result.Symbols, extraction.Symbol{
		Name: name, Type: extraction.SymbolType, StartLine: startLine(n), EndLine: endLine(n), Scope: extraction.ScopeGlobal,
	})
	result.TopLevel = append(result.TopLevel, TopLevelDecl{
		Name: name, Kind: extraction.SymbolType, StartLine: startLine(n), EndLine: endLine(n),
		DocStartLine: docStart(lines, startLine(n), isCComment),
	})
}

func (b *CBackend) extractFunction(n *sitter.Node, source []byte, lines []string, result *ParseResult) {
	declarator := findChildByFieldName(n, "declarator")
	name := findCFunctionName(declarator, source)
	if name == "" {
		return
	}
	result.Symbols = append(result.Symbols, extraction.Symbol{
		Name: name, Type: extraction.SymbolFunction, StartLine: startLine(n), EndLine: endLine(n), Scope: extraction.ScopeGlobal,
	})
	result.Exports = append(result.Exports, name)
	result.TopLevel = append(result.TopLevel, TopLevelDecl{
		Name: name, Kind: extraction.SymbolFunction, StartLine: startLine(n), EndLine: endLine(n),
		DocStartLine: docStart(lines, startLine(n), isCComment),
	})
}

func findCFunctionName(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	switch n.Kind() {
	case "identifier":
		return nodeText(n, source)
	case "function_declarator", "pointer_declarator":
		return findCFunctionName(findChildByFieldName(n, "declarator"), source)
	default:
		for _, child := range directChildren(n) {
			if child.Kind() == "identifier" {
				return nodeText(child, source)
			}
		}
	}
	return ""
}

func isTopLevelCNode(n *sitter.Node) bool {
	parent := n.Parent()
	for parent != nil {
		switch parent.Kind() {
		case "function_definition", "compound_statement":
			return false
		case "translation_unit":
			return true
		}
		parent = parent.Parent()
	}
	return true
}

func (b *CBackend) extractDeclaration(n *sitter.Node, source []byte, lines []string, result *ParseResult) {
	typeNode := findChildByFieldName(n, "type")
	if typeNode == nil {
		return
	}
	isConst := strings.Contains(nodeText(typeNode, source), "const")

	for _, child := range directChildren(n) {
		switch child.Kind() {
		case "init_declarator", "pointer_declarator", "array_declarator":
			b.extractDeclarator(child, source, result, isConst)
		}
	}
}

func (b *CBackend) extractDeclarator(n *sitter.Node, source []byte, result *ParseResult, isConst bool) {
	var name string
	if n.Kind() == "init_declarator" {
		name = nodeText(findChildByFieldName(n, "declarator"), source)
	} else {
		name = nodeText(n, source)
	}
	if name == "" {
		return
	}
	kind := extraction.SymbolVariable
	if isConst {
		kind = extraction.SymbolConstant
	}
	result.Symbols = append(result.Symbols, extraction.Symbol{
		Name: name, Type: kind, StartLine: startLine(n), EndLine: endLine(n), Scope: extraction.ScopeGlobal,
	})
}
