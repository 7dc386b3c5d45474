package parsers

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"

	"github.com/codecontext/codecontext/internal/extraction"
)

// PHPBackend parses PHP files.
type PHPBackend struct {
	treeSitterBackend
}

// NewPHPBackend creates a backend tagged "php".
func NewPHPBackend() *PHPBackend {
	lang := sitter.NewLanguage(php.LanguagePHP())
	return &PHPBackend{newTreeSitterBackend(lang, "php")}
}

func isPHPComment(line string) bool {
	return strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "#")
}

// Parse implements Backend.
func (b *PHPBackend) Parse(source []byte, filePath string) (*ParseResult, error) {
	tree, root, lines := b.parseTree(source)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s as php", filePath)
	}
	defer tree.Close()

	result := &ParseResult{Language: "php"}

	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "namespace_use_declaration":
			result.Imports = append(result.Imports, b.extractUse(n, source))
		case "class_declaration":
			result.TopLevel = append(result.TopLevel, b.extractClassLike(n, source, lines, result, extraction.SymbolClass))
			return false
		case "interface_declaration":
			result.TopLevel = append(result.TopLevel, b.extractClassLike(n, source, lines, result, extraction.SymbolInterface))
			return false
		case "trait_declaration":
			result.TopLevel = append(result.TopLevel, b.extractClassLike(n, source, lines, result, extraction.SymbolClass))
			return false
		case "function_definition":
			name := nodeText(findChildByFieldName(n, "name"), source)
			if name == "" {
				return true
			}
			result.Symbols = append(result.Symbols, extraction.Symbol{
				Name: name, Type: extraction.SymbolFunction, StartLine: startLine(n), EndLine: endLine(n), Scope: extraction.ScopeGlobal,
			})
			result.Exports = append(result.Exports, name)
			result.TopLevel = append(result.TopLevel, TopLevelDecl{
				Name: name, Kind: extraction.SymbolFunction, StartLine: startLine(n), EndLine: endLine(n),
				DocStartLine: docStart(lines, startLine(n), isPHPComment),
			})
		case "const_declaration":
			b.extractConst(n, source, lines, result)
		}
		return true
	})

	return result, nil
}

func (b *PHPBackend) extractUse(n *sitter.Node, source []byte) extraction.Import {
	text := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(nodeText(n, source)), "use "), ";")
	return extraction.Import{Module: strings.TrimSpace(text), ImportedNames: []string{}, Line: startLine(n)}
}

func (b *PHPBackend) extractClassLike(n *sitter.Node, source []byte, lines []string, result *ParseResult, kind extraction.SymbolKind) TopLevelDecl {
	name := nodeText(findChildByFieldName(n, "name"), source)
	decl := TopLevelDecl{
		Name: name, Kind: kind, StartLine: startLine(n), EndLine: endLine(n),
		DocStartLine: docStart(lines, startLine(n), isPHPComment), IsClass: kind == extraction.SymbolClass,
	}
	result.Symbols = append(result.Symbols, extraction.Symbol{Name: name, Type: kind, StartLine: decl.StartLine, EndLine: decl.EndLine, Scope: extraction.ScopeGlobal})
	result.Exports = append(result.Exports, name)

	body := findChildByFieldName(n, "body")
	if body == nil {
		return decl
	}
	for _, member := range directChildren(body) {
		if member.Kind() != "method_declaration" {
			continue
		}
		methodName := nodeText(findChildByFieldName(member, "name"), source)
		method := TopLevelDecl{
			Name: methodName, Kind: extraction.SymbolMethod, StartLine: startLine(member), EndLine: endLine(member),
			DocStartLine: docStart(lines, startLine(member), isPHPComment),
		}
		if methodName == "__construct" {
			decl.ConstructorEndLine = method.EndLine
		}
		decl.Methods = append(decl.Methods, method)
		result.Symbols = append(result.Symbols, extraction.Symbol{
			Name: name + "->" + methodName, Type: extraction.SymbolMethod, StartLine: method.StartLine, EndLine: method.EndLine, Scope: extraction.ScopeLocal,
		})
	}
	return decl
}

func (b *PHPBackend) extractConst(n *sitter.Node, source []byte, lines []string, result *ParseResult) {
	for _, child := range directChildren(n) {
		if child.Kind() != "const_element" {
			continue
		}
		name := nodeText(findChildByFieldName(child, "name"), source)
		if name == "" {
			continue
		}
		result.Symbols = append(result.Symbols, extraction.Symbol{
			Name: name, Type: extraction.SymbolConstant, StartLine: startLine(child), EndLine: endLine(child), Scope: extraction.ScopeGlobal,
		})
		result.TopLevel = append(result.TopLevel, TopLevelDecl{
			Name: name, Kind: extraction.SymbolConstant, StartLine: startLine(child), EndLine: endLine(child),
			DocStartLine: docStart(lines, startLine(child), isPHPComment),
		})
	}
}
