package parsers

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/codecontext/codecontext/internal/extraction"
)

// PythonBackend parses Python files.
type PythonBackend struct {
	treeSitterBackend
}

// NewPythonBackend creates a backend tagged "python".
func NewPythonBackend() *PythonBackend {
	lang := sitter.NewLanguage(python.Language())
	return &PythonBackend{newTreeSitterBackend(lang, "python")}
}

func isPyComment(line string) bool {
	return strings.HasPrefix(line, "#")
}

// Parse implements Backend.
func (b *PythonBackend) Parse(source []byte, filePath string) (*ParseResult, error) {
	tree, root, lines := b.parseTree(source)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s as python", filePath)
	}
	defer tree.Close()

	result := &ParseResult{Language: "python"}

	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(uint(i))
		switch child.Kind() {
		case "import_statement", "import_from_statement":
			result.Imports = append(result.Imports, b.extractImport(child, source))
		case "class_definition":
			result.TopLevel = append(result.TopLevel, b.extractClass(child, source, lines, result))
		case "function_definition":
			result.TopLevel = append(result.TopLevel, b.extractFunction(child, source, lines, result, ""))
		case "expression_statement":
			b.extractTopLevelAssignment(child, source, lines, result)
		}
	}

	// Python has no export keyword; a module's public surface is every name
	// not prefixed with an underscore (PEP 8 convention).
	for _, sym := range result.Symbols {
		if !strings.HasPrefix(sym.Name, "_") {
			result.Exports = append(result.Exports, sym.Name)
		}
	}

	return result, nil
}

func (b *PythonBackend) extractImport(n *sitter.Node, source []byte) extraction.Import {
	imp := extraction.Import{Line: startLine(n)}
	switch n.Kind() {
	case "import_statement":
		walkTree(n, func(node *sitter.Node) bool {
			if node.Kind() == "dotted_name" && node.Parent() == n {
				imp.Module = nodeText(node, source)
			}
			return true
		})
	case "import_from_statement":
		moduleNode := findChildByFieldName(n, "module_name")
		if moduleNode != nil {
			imp.Module = nodeText(moduleNode, source)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(uint(i))
			if child.Kind() == "dotted_name" && child != moduleNode {
				imp.ImportedNames = append(imp.ImportedNames, nodeText(child, source))
			}
		}
	}
	if imp.ImportedNames == nil {
		imp.ImportedNames = []string{}
	}
	return imp
}

func (b *PythonBackend) extractClass(n *sitter.Node, source []byte, lines []string, result *ParseResult) TopLevelDecl {
	nameNode := findChildByFieldName(n, "name")
	name := nodeText(nameNode, source)

	decl := TopLevelDecl{
		Name:         name,
		Kind:         extraction.SymbolClass,
		StartLine:    startLine(n),
		EndLine:      endLine(n),
		DocStartLine: docStart(lines, startLine(n), isPyComment),
		IsClass:      true,
	}
	result.Symbols = append(result.Symbols, extraction.Symbol{
		Name: name, Type: extraction.SymbolClass, StartLine: decl.StartLine, EndLine: decl.EndLine, Scope: extraction.ScopeGlobal,
	})

	body := findChildByFieldName(n, "body")
	if body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			member := body.Child(uint(i))
			if member.Kind() != "function_definition" {
				continue
			}
			methodNameNode := findChildByFieldName(member, "name")
			methodName := nodeText(methodNameNode, source)
			method := TopLevelDecl{
				Name:         methodName,
				Kind:         extraction.SymbolMethod,
				StartLine:    startLine(member),
				EndLine:      endLine(member),
				DocStartLine: docStart(lines, startLine(member), isPyComment),
			}
			if methodName == "__init__" {
				decl.ConstructorEndLine = method.EndLine
			}
			decl.Methods = append(decl.Methods, method)
			result.Symbols = append(result.Symbols, extraction.Symbol{
				Name: name + "." + methodName, Type: extraction.SymbolMethod, StartLine: method.StartLine, EndLine: method.EndLine, Scope: extraction.ScopeLocal,
			})
		}
	}
	return decl
}

func (b *PythonBackend) extractFunction(n *sitter.Node, source []byte, lines []string, result *ParseResult, className string) TopLevelDecl {
	nameNode := findChildByFieldName(n, "name")
	name := nodeText(nameNode, source)

	decl := TopLevelDecl{
		Name:         name,
		Kind:         extraction.SymbolFunction,
		StartLine:    startLine(n),
		EndLine:      endLine(n),
		DocStartLine: docStart(lines, startLine(n), isPyComment),
	}
	result.Symbols = append(result.Symbols, extraction.Symbol{
		Name: name, Type: extraction.SymbolFunction, StartLine: decl.StartLine, EndLine: decl.EndLine, Scope: extraction.ScopeGlobal,
	})
	return decl
}

// extractTopLevelAssignment records a module-level `NAME = value` as a
// constant (ALL_CAPS, following Python convention) or a variable symbol.
func (b *PythonBackend) extractTopLevelAssignment(stmt *sitter.Node, source []byte, lines []string, result *ParseResult) {
	var assign *sitter.Node
	for i := 0; i < int(stmt.ChildCount()); i++ {
		if stmt.Child(uint(i)).Kind() == "assignment" {
			assign = stmt.Child(uint(i))
			break
		}
	}
	if assign == nil {
		return
	}
	left := findChildByFieldName(assign, "left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	name := nodeText(left, source)
	kind := extraction.SymbolVariable
	if isPyConstantName(name) {
		kind = extraction.SymbolConstant
	}
	result.Symbols = append(result.Symbols, extraction.Symbol{
		Name: name, Type: kind, StartLine: startLine(stmt), EndLine: endLine(stmt), Scope: extraction.ScopeGlobal,
	})
	if kind == extraction.SymbolConstant {
		result.TopLevel = append(result.TopLevel, TopLevelDecl{
			Name: name, Kind: kind, StartLine: startLine(stmt), EndLine: endLine(stmt),
			DocStartLine: docStart(lines, startLine(stmt), isPyComment),
		})
	}
}

func isPyConstantName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			return false
		}
	}
	return true
}
