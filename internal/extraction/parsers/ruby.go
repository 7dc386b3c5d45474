package parsers

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"

	"github.com/codecontext/codecontext/internal/extraction"
)

// RubyBackend parses Ruby files.
type RubyBackend struct {
	treeSitterBackend
}

// NewRubyBackend creates a backend tagged "ruby".
func NewRubyBackend() *RubyBackend {
	lang := sitter.NewLanguage(ruby.Language())
	return &RubyBackend{newTreeSitterBackend(lang, "ruby")}
}

func isRubyComment(line string) bool {
	return strings.HasPrefix(line, "#")
}

// Parse implements Backend. Ruby has no static import statement (requires
// are ordinary method calls), so Imports is always empty; this matches the
// teacher's own admission that it cannot reliably count requires either.
func (b *RubyBackend) Parse(source []byte, filePath string) (*ParseResult, error) {
	tree, root, lines := b.parseTree(source)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s as ruby", filePath)
	}
	defer tree.Close()

	result := &ParseResult{Language: "ruby"}

	for _, child := range directChildren(root) {
		b.visitTopLevel(child, source, lines, result, "")
	}

	return result, nil
}

func (b *RubyBackend) visitTopLevel(n *sitter.Node, source []byte, lines []string, result *ParseResult, owner string) {
	switch n.Kind() {
	case "class":
		result.TopLevel = append(result.TopLevel, b.extractClass(n, source, lines, result))
	case "module":
		b.extractModule(n, source, lines, result)
	case "method":
		b.extractMethod(n, source, lines, result, owner)
	case "assignment":
		b.extractAssignment(n, source, result)
	}
}

func (b *RubyBackend) extractClass(n *sitter.Node, source []byte, lines []string, result *ParseResult) TopLevelDecl {
	name := nodeText(findChildByFieldName(n, "name"), source)
	decl := TopLevelDecl{
		Name: name, Kind: extraction.SymbolClass, StartLine: startLine(n), EndLine: endLine(n),
		DocStartLine: docStart(lines, startLine(n), isRubyComment), IsClass: true,
	}
	result.Symbols = append(result.Symbols, extraction.Symbol{Name: name, Type: extraction.SymbolClass, StartLine: decl.StartLine, EndLine: decl.EndLine, Scope: extraction.ScopeGlobal})

	for _, member := range rubyBodyMembers(n) {
		if member.Kind() != "method" {
			continue
		}
		methodName := nodeText(findChildByFieldName(member, "name"), source)
		method := TopLevelDecl{
			Name: methodName, Kind: extraction.SymbolMethod, StartLine: startLine(member), EndLine: endLine(member),
			DocStartLine: docStart(lines, startLine(member), isRubyComment),
		}
		if methodName == "initialize" {
			decl.ConstructorEndLine = method.EndLine
		}
		decl.Methods = append(decl.Methods, method)
		result.Symbols = append(result.Symbols, extraction.Symbol{
			Name: name + "#" + methodName, Type: extraction.SymbolMethod, StartLine: method.StartLine, EndLine: method.EndLine, Scope: extraction.ScopeLocal,
		})
	}
	return decl
}

func (b *RubyBackend) extractModule(n *sitter.Node, source []byte, lines []string, result *ParseResult) {
	name := nodeText(findChildByFieldName(n, "name"), source)
	result.Symbols = append(result.Symbols, extraction.Symbol{
		Name: name, Type: extraction.SymbolNamespace, StartLine: startLine(n), EndLine: endLine(n), Scope: extraction.ScopeGlobal,
	})
	result.TopLevel = append(result.TopLevel, TopLevelDecl{
		Name: name, Kind: extraction.SymbolNamespace, StartLine: startLine(n), EndLine: endLine(n),
		DocStartLine: docStart(lines, startLine(n), isRubyComment),
	})
	for _, member := range rubyBodyMembers(n) {
		b.visitTopLevel(member, source, lines, result, name)
	}
}

func (b *RubyBackend) extractMethod(n *sitter.Node, source []byte, lines []string, result *ParseResult, owner string) {
	name := nodeText(findChildByFieldName(n, "name"), source)
	if name == "" {
		return
	}
	qualified := name
	if owner != "" {
		qualified = owner + "." + name
	}
	result.Symbols = append(result.Symbols, extraction.Symbol{
		Name: qualified, Type: extraction.SymbolFunction, StartLine: startLine(n), EndLine: endLine(n), Scope: extraction.ScopeGlobal,
	})
	result.TopLevel = append(result.TopLevel, TopLevelDecl{
		Name: name, Kind: extraction.SymbolFunction, StartLine: startLine(n), EndLine: endLine(n),
		DocStartLine: docStart(lines, startLine(n), isRubyComment),
	})
}

func (b *RubyBackend) extractAssignment(n *sitter.Node, source []byte, result *ParseResult) {
	left := findChildByFieldName(n, "left")
	if left == nil {
		return
	}
	name := nodeText(left, source)
	if name == "" {
		return
	}
	kind := extraction.SymbolVariable
	if name[0] >= 'A' && name[0] <= 'Z' {
		kind = extraction.SymbolConstant
	}
	result.Symbols = append(result.Symbols, extraction.Symbol{
		Name: name, Type: kind, StartLine: startLine(n), EndLine: endLine(n), Scope: extraction.ScopeGlobal,
	})
}

// rubyBodyMembers returns a class/module's direct members, descending
// through the body_statement wrapper tree-sitter-ruby inserts.
func rubyBodyMembers(n *sitter.Node) []*sitter.Node {
	var members []*sitter.Node
	for _, child := range directChildren(n) {
		if child.Kind() == "body_statement" {
			members = append(members, directChildren(child)...)
		} else if child.Kind() == "class" || child.Kind() == "module" || child.Kind() == "method" {
			members = append(members, child)
		}
	}
	return members
}
