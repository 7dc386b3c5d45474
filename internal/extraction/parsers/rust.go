package parsers

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/codecontext/codecontext/internal/extraction"
)

// RustBackend parses Rust files.
type RustBackend struct {
	treeSitterBackend
}

// NewRustBackend creates a backend tagged "rust".
func NewRustBackend() *RustBackend {
	lang := sitter.NewLanguage(rust.Language())
	return &RustBackend{newTreeSitterBackend(lang, "rust")}
}

func isRustComment(line string) bool {
	return strings.HasPrefix(line, "//") || strings.HasPrefix(line, "/*") || strings.HasPrefix(line, "*")
}

// Parse implements Backend. impl blocks are folded into the struct/enum they
// extend as methods, matching how the teacher's parser attributes them.
func (b *RustBackend) Parse(source []byte, filePath string) (*ParseResult, error) {
	tree, root, lines := b.parseTree(source)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s as rust", filePath)
	}
	defer tree.Close()

	result := &ParseResult{Language: "rust"}
	decls := map[string]*TopLevelDecl{}
	var order []string

	register := func(decl TopLevelDecl) {
		if _, exists := decls[decl.Name]; !exists {
			order = append(order, decl.Name)
		}
		d := decl
		decls[decl.Name] = &d
	}

	walkTree(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "use_declaration":
			result.Imports = append(result.Imports, b.extractUse(n, source))
		case "struct_item", "enum_item", "trait_item":
			name := nodeText(findChildByFieldName(n, "name"), source)
			if name == "" {
				return true
			}
			isPub := hasPubVisibility(n, source)
			scope := extraction.ScopeGlobal
			if isPub {
				scope = extraction.ScopeExport
				result.Exports = append(result.Exports, name)
			}
			result.Symbols = append(result.Symbols, extraction.Symbol{
				Name: name, Type: extraction.SymbolClass, StartLine: startLine(n), EndLine: endLine(n), Scope: scope,
			})
			register(TopLevelDecl{
				Name: name, Kind: extraction.SymbolClass, StartLine: startLine(n), EndLine: endLine(n),
				DocStartLine: docStart(lines, startLine(n), isRustComment), IsClass: true,
			})
		case "impl_item":
			typeNode := findChildByFieldName(n, "type")
			typeName := nodeText(typeNode, source)
			body := findChildByFieldName(n, "body")
			if body == nil {
				return false
			}
			decl, exists := decls[typeName]
			for _, member := range directChildren(body) {
				if member.Kind() != "function_item" {
					continue
				}
				methodName := nodeText(findChildByFieldName(member, "name"), source)
				method := TopLevelDecl{
					Name: methodName, Kind: extraction.SymbolMethod, StartLine: startLine(member), EndLine: endLine(member),
					DocStartLine: docStart(lines, startLine(member), isRustComment),
				}
				result.Symbols = append(result.Symbols, extraction.Symbol{
					Name: typeName + "::" + methodName, Type: extraction.SymbolMethod, StartLine: method.StartLine, EndLine: method.EndLine, Scope: extraction.ScopeLocal,
				})
				if exists {
					if methodName == "new" {
						decl.ConstructorEndLine = method.EndLine
					}
					decl.Methods = append(decl.Methods, method)
				}
			}
			return false
		case "function_item":
			if !isTopLevelRustItem(n) {
				return true
			}
			name := nodeText(findChildByFieldName(n, "name"), source)
			if name == "" {
				return true
			}
			isPub := hasPubVisibility(n, source)
			scope := extraction.ScopeGlobal
			if isPub {
				scope = extraction.ScopeExport
				result.Exports = append(result.Exports, name)
			}
			result.Symbols = append(result.Symbols, extraction.Symbol{
				Name: name, Type: extraction.SymbolFunction, StartLine: startLine(n), EndLine: endLine(n), Scope: scope,
			})
			register(TopLevelDecl{
				Name: name, Kind: extraction.SymbolFunction, StartLine: startLine(n), EndLine: endLine(n),
				DocStartLine: docStart(lines, startLine(n), isRustComment),
			})
		case "const_item", "static_item":
			if !isTopLevelRustItem(n) {
				return true
			}
			name := nodeText(findChildByFieldName(n, "name"), source)
			if name == "" {
				return true
			}
			result.Symbols = append(result.Symbols, extraction.Symbol{
				Name: name, Type: extraction.SymbolConstant, StartLine: startLine(n), EndLine: endLine(n), Scope: extraction.ScopeGlobal,
			})
			register(TopLevelDecl{
				Name: name, Kind: extraction.SymbolConstant, StartLine: startLine(n), EndLine: endLine(n),
				DocStartLine: docStart(lines, startLine(n), isRustComment),
			})
		}
		return true
	})

	for _, name := range order {
		result.TopLevel = append(result.TopLevel, *decls[name])
	}

	return result, nil
}

func isTopLevelRustItem(n *sitter.Node) bool {
	parent := n.Parent()
	for parent != nil {
		switch parent.Kind() {
		case "impl_item", "function_item", "trait_item":
			return false
		case "source_file":
			return true
		}
		parent = parent.Parent()
	}
	return true
}

func hasPubVisibility(n *sitter.Node, source []byte) bool {
	for _, child := range directChildren(n) {
		if child.Kind() == "visibility_modifier" {
			return true
		}
	}
	return false
}

func (b *RustBackend) extractUse(n *sitter.Node, source []byte) extraction.Import {
	return extraction.Import{Module: strings.TrimSpace(nodeText(n, source)), ImportedNames: []string{}, Line: startLine(n)}
}
