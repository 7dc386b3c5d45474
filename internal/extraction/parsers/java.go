package parsers

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/codecontext/codecontext/internal/extraction"
)

// JavaBackend parses Java files.
type JavaBackend struct {
	treeSitterBackend
}

// NewJavaBackend creates a backend tagged "java".
func NewJavaBackend() *JavaBackend {
	lang := sitter.NewLanguage(java.Language())
	return &JavaBackend{newTreeSitterBackend(lang, "java")}
}

func isJavaComment(line string) bool {
	return strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") || strings.HasPrefix(line, "*")
}

// Parse implements Backend.
func (b *JavaBackend) Parse(source []byte, filePath string) (*ParseResult, error) {
	tree, root, lines := b.parseTree(source)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s as java", filePath)
	}
	defer tree.Close()

	result := &ParseResult{Language: "java"}

	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_declaration":
			result.Imports = append(result.Imports, b.extractImport(n, source))
			return false
		case "class_declaration":
			result.TopLevel = append(result.TopLevel, b.extractClassLike(n, source, lines, result, extraction.SymbolClass))
			return false
		case "interface_declaration":
			result.TopLevel = append(result.TopLevel, b.extractClassLike(n, source, lines, result, extraction.SymbolInterface))
			return false
		case "enum_declaration":
			result.TopLevel = append(result.TopLevel, b.extractClassLike(n, source, lines, result, extraction.SymbolType))
			return false
		}
		return true
	})

	return result, nil
}

func (b *JavaBackend) extractImport(n *sitter.Node, source []byte) extraction.Import {
	text := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(nodeText(n, source)), "import "), ";")
	return extraction.Import{Module: strings.TrimSpace(text), ImportedNames: []string{}, Line: startLine(n)}
}

func (b *JavaBackend) extractClassLike(n *sitter.Node, source []byte, lines []string, result *ParseResult, kind extraction.SymbolKind) TopLevelDecl {
	name := nodeText(findChildByFieldName(n, "name"), source)
	isPublic := strings.Contains(javaModifiers(n, source), "public")
	scope := extraction.ScopeGlobal
	if isPublic {
		scope = extraction.ScopeExport
		result.Exports = append(result.Exports, name)
	}

	decl := TopLevelDecl{
		Name: name, Kind: kind, StartLine: startLine(n), EndLine: endLine(n),
		DocStartLine: docStart(lines, startLine(n), isJavaComment), IsClass: kind == extraction.SymbolClass,
	}
	result.Symbols = append(result.Symbols, extraction.Symbol{Name: name, Type: kind, StartLine: decl.StartLine, EndLine: decl.EndLine, Scope: scope})

	body := findChildByFieldName(n, "body")
	if body == nil {
		return decl
	}
	for _, member := range directChildren(body) {
		if member.Kind() != "method_declaration" && member.Kind() != "constructor_declaration" {
			continue
		}
		methodName := nodeText(findChildByFieldName(member, "name"), source)
		method := TopLevelDecl{
			Name: methodName, Kind: extraction.SymbolMethod, StartLine: startLine(member), EndLine: endLine(member),
			DocStartLine: docStart(lines, startLine(member), isJavaComment),
		}
		if member.Kind() == "constructor_declaration" {
			decl.ConstructorEndLine = method.EndLine
		}
		decl.Methods = append(decl.Methods, method)
		result.Symbols = append(result.Symbols, extraction.Symbol{
			Name: name + "." + methodName, Type: extraction.SymbolMethod, StartLine: method.StartLine, EndLine: method.EndLine, Scope: extraction.ScopeLocal,
		})
	}
	return decl
}

func javaModifiers(n *sitter.Node, source []byte) string {
	for _, child := range directChildren(n) {
		if child.Kind() == "modifiers" {
			return nodeText(child, source)
		}
	}
	return ""
}
