package parsers

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/codecontext/codecontext/internal/extraction"
)

// TypeScriptBackend parses TypeScript and JavaScript (they share a grammar
// closely enough that the teacher's own parser reuses the TypeScript
// grammar for both; we do the same).
type TypeScriptBackend struct {
	treeSitterBackend
}

// NewTypeScriptBackend creates a backend tagged "typescript".
func NewTypeScriptBackend() *TypeScriptBackend {
	lang := sitter.NewLanguage(typescript.LanguageTypescript())
	return &TypeScriptBackend{newTreeSitterBackend(lang, "typescript")}
}

// NewJavaScriptBackend creates a backend tagged "javascript", reusing the
// TypeScript grammar (it is a syntactic superset for our purposes).
func NewJavaScriptBackend() *TypeScriptBackend {
	lang := sitter.NewLanguage(typescript.LanguageTypescript())
	return &TypeScriptBackend{newTreeSitterBackend(lang, "javascript")}
}

func isJSComment(line string) bool {
	return strings.HasPrefix(line, "//") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "/*")
}

// Parse implements Backend.
func (b *TypeScriptBackend) Parse(source []byte, filePath string) (*ParseResult, error) {
	tree, root, lines := b.parseTree(source)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s as %s", filePath, b.lang)
	}
	defer tree.Close()

	result := &ParseResult{Language: b.lang}

	exported := map[string]bool{}

	for _, child := range directChildren(root) {
		b.visitTopLevel(child, source, lines, result, exported)
	}

	for name := range exported {
		result.Exports = append(result.Exports, name)
	}

	return result, nil
}

func (b *TypeScriptBackend) visitTopLevel(n *sitter.Node, source []byte, lines []string, result *ParseResult, exported map[string]bool) {
	switch n.Kind() {
	case "import_statement":
		result.Imports = append(result.Imports, b.extractImport(n, source))
		return
	case "export_statement":
		b.visitExport(n, source, lines, result, exported)
		return
	}
	b.visitDeclaration(n, source, lines, result, false)
}

func (b *TypeScriptBackend) visitExport(n *sitter.Node, source []byte, lines []string, result *ParseResult, exported map[string]bool) {
	// export { a, b }; — named re-export with no declaration.
	if clause := findChildByFieldName(n, "clause"); clause != nil {
		walkTree(clause, func(node *sitter.Node) bool {
			if node.Kind() == "export_specifier" {
				nameNode := findChildByFieldName(node, "name")
				if nameNode != nil {
					exported[nodeText(nameNode, source)] = true
				}
			}
			return true
		})
		return
	}

	// export default X / export class/function/const ...
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(uint(i))
		switch child.Kind() {
		case "class_declaration", "interface_declaration", "type_alias_declaration",
			"function_declaration", "lexical_declaration", "variable_declaration", "enum_declaration":
			names := b.visitDeclaration(child, source, lines, result, true)
			for _, name := range names {
				exported[name] = true
			}
		}
	}
}

// visitDeclaration records a declaration (class/interface/type/function/
// const/var/enum) as a symbol and a top-level chunk boundary. Returns the
// names it declared, so callers can mark them exported.
func (b *TypeScriptBackend) visitDeclaration(n *sitter.Node, source []byte, lines []string, result *ParseResult, isExport bool) []string {
	scope := extraction.ScopeGlobal
	if isExport {
		scope = extraction.ScopeExport
	}

	switch n.Kind() {
	case "class_declaration":
		name := declName(n, source)
		decl := b.extractClass(n, source, lines, name)
		result.Symbols = append(result.Symbols, extraction.Symbol{
			Name: name, Type: extraction.SymbolClass, StartLine: startLine(n), EndLine: endLine(n), Scope: scope,
		})
		for _, m := range decl.Methods {
			result.Symbols = append(result.Symbols, extraction.Symbol{
				Name: name + "." + m.Name, Type: extraction.SymbolMethod, StartLine: m.StartLine, EndLine: m.EndLine, Scope: extraction.ScopeLocal,
			})
		}
		result.TopLevel = append(result.TopLevel, decl)
		return []string{name}

	case "interface_declaration":
		name := declName(n, source)
		result.Symbols = append(result.Symbols, extraction.Symbol{Name: name, Type: extraction.SymbolInterface, StartLine: startLine(n), EndLine: endLine(n), Scope: scope})
		result.TopLevel = append(result.TopLevel, b.simpleTopLevel(n, lines, name, extraction.SymbolInterface))
		return []string{name}

	case "type_alias_declaration":
		name := declName(n, source)
		result.Symbols = append(result.Symbols, extraction.Symbol{Name: name, Type: extraction.SymbolType, StartLine: startLine(n), EndLine: endLine(n), Scope: scope})
		result.TopLevel = append(result.TopLevel, b.simpleTopLevel(n, lines, name, extraction.SymbolType))
		return []string{name}

	case "enum_declaration":
		name := declName(n, source)
		result.Symbols = append(result.Symbols, extraction.Symbol{Name: name, Type: extraction.SymbolType, StartLine: startLine(n), EndLine: endLine(n), Scope: scope})
		result.TopLevel = append(result.TopLevel, b.simpleTopLevel(n, lines, name, extraction.SymbolType))
		return []string{name}

	case "function_declaration":
		name := declName(n, source)
		result.Symbols = append(result.Symbols, extraction.Symbol{Name: name, Type: extraction.SymbolFunction, StartLine: startLine(n), EndLine: endLine(n), Scope: scope})
		result.TopLevel = append(result.TopLevel, b.simpleTopLevel(n, lines, name, extraction.SymbolFunction))
		return []string{name}

	case "lexical_declaration", "variable_declaration":
		return b.visitVariableDeclaration(n, source, lines, result, scope)
	}
	return nil
}

func (b *TypeScriptBackend) visitVariableDeclaration(n *sitter.Node, source []byte, lines []string, result *ParseResult, scope extraction.Scope) []string {
	var names []string
	for _, child := range directChildren(n) {
		if child.Kind() != "variable_declarator" {
			continue
		}
		nameNode := findChildByFieldName(child, "name")
		if nameNode == nil {
			continue
		}
		name := nodeText(nameNode, source)
		names = append(names, name)
		result.Symbols = append(result.Symbols, extraction.Symbol{
			Name: name, Type: extraction.SymbolConstant, StartLine: startLine(n), EndLine: endLine(n), Scope: scope,
		})

		valueNode := findChildByFieldName(child, "value")
		nonTrivial := valueNode != nil && nonTrivialThreshold(nodeText(valueNode, source))
		if nonTrivial {
			result.TopLevel = append(result.TopLevel, b.simpleTopLevel(n, lines, name, extraction.SymbolConstant))
		}
	}
	return names
}

// nonTrivialThreshold decides whether a top-level const initializer is
// "non-trivial" enough to deserve its own chunk per §4.5 ("exported const
// with non-trivial initializer"). A short literal is not worth a chunk.
func nonTrivialThreshold(valueText string) bool {
	return len(strings.TrimSpace(valueText)) > 40
}

func (b *TypeScriptBackend) simpleTopLevel(n *sitter.Node, lines []string, name string, kind extraction.SymbolKind) TopLevelDecl {
	return TopLevelDecl{
		Name:         name,
		Kind:         kind,
		StartLine:    startLine(n),
		EndLine:      endLine(n),
		DocStartLine: docStart(lines, startLine(n), isJSComment),
	}
}

func (b *TypeScriptBackend) extractClass(n *sitter.Node, source []byte, lines []string, className string) TopLevelDecl {
	decl := TopLevelDecl{
		Name:         className,
		Kind:         extraction.SymbolClass,
		StartLine:    startLine(n),
		EndLine:      endLine(n),
		DocStartLine: docStart(lines, startLine(n), isJSComment),
		IsClass:      true,
	}

	body := findChildByFieldName(n, "body")
	if body == nil {
		return decl
	}

	for _, member := range directChildren(body) {
		if member.Kind() != "method_definition" {
			continue
		}
		nameNode := findChildByFieldName(member, "name")
		methodName := nodeText(nameNode, source)
		method := TopLevelDecl{
			Name:         methodName,
			Kind:         extraction.SymbolMethod,
			StartLine:    startLine(member),
			EndLine:      endLine(member),
			DocStartLine: docStart(lines, startLine(member), isJSComment),
		}
		if methodName == "constructor" {
			decl.ConstructorEndLine = method.EndLine
		}
		decl.Methods = append(decl.Methods, method)
	}
	return decl
}

func (b *TypeScriptBackend) extractImport(n *sitter.Node, source []byte) extraction.Import {
	imp := extraction.Import{Line: startLine(n)}

	sourceNode := findChildByFieldName(n, "source")
	if sourceNode != nil {
		imp.Module = strings.Trim(nodeText(sourceNode, source), "\"'`")
	}

	clause := findChildByFieldName(n, "import_clause")
	imp.ImportedNames = []string{}
	if clause != nil {
		walkTree(clause, func(node *sitter.Node) bool {
			switch node.Kind() {
			case "identifier":
				imp.ImportedNames = append(imp.ImportedNames, nodeText(node, source))
			case "import_specifier":
				nameNode := findChildByFieldName(node, "name")
				if nameNode != nil {
					imp.ImportedNames = append(imp.ImportedNames, nodeText(nameNode, source))
				}
			}
			return true
		})
	}

	return imp
}

func declName(n *sitter.Node, source []byte) string {
	nameNode := findChildByFieldName(n, "name")
	return nodeText(nameNode, source)
}
