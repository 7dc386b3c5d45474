package parsers

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/codecontext/codecontext/internal/extraction"
)

// GoBackend parses Go files with go/ast rather than tree-sitter: the
// standard library already gives us an exact, dependency-free parser for
// our own implementation language.
type GoBackend struct{}

// NewGoBackend creates a Go backend.
func NewGoBackend() *GoBackend { return &GoBackend{} }

func (b *GoBackend) Language() string { return "go" }

// Parse implements Backend.
func (b *GoBackend) Parse(source []byte, filePath string) (*ParseResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, source, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}

	result := &ParseResult{Language: "go"}
	lines := strings.Split(string(source), "\n")

	for _, imp := range file.Imports {
		result.Imports = append(result.Imports, extraction.Import{
			Module:        strings.Trim(imp.Path.Value, "\""),
			ImportedNames: []string{},
			Line:          fset.Position(imp.Pos()).Line,
		})
	}

	methodsByRecv := map[string][]TopLevelDecl{}
	var funcDecls []*ast.FuncDecl

	// file.Decls holds only top-level declarations; walking it directly
	// (rather than ast.Inspect over the whole tree) keeps local var/const
	// declarations inside function bodies out of the symbol table, matching
	// the top-level-only guard the C and Rust backends enforce via an
	// ancestor-chain check.
	for _, n := range file.Decls {
		switch decl := n.(type) {
		case *ast.GenDecl:
			b.processGenDecl(decl, fset, lines, result)
		case *ast.FuncDecl:
			funcDecls = append(funcDecls, decl)
		}
	}

	for _, decl := range funcDecls {
		recv := receiverTypeName(decl)
		if recv == "" {
			b.processFunc(decl, fset, lines, result)
			continue
		}
		method := TopLevelDecl{
			Name:         decl.Name.Name,
			Kind:         extraction.SymbolMethod,
			StartLine:    fset.Position(decl.Pos()).Line,
			EndLine:      fset.Position(decl.End()).Line,
			DocStartLine: docStartLineFromDoc(decl.Doc, fset, decl),
		}
		methodsByRecv[recv] = append(methodsByRecv[recv], method)
		result.Symbols = append(result.Symbols, extraction.Symbol{
			Name: recv + "." + decl.Name.Name, Type: extraction.SymbolMethod, StartLine: method.StartLine, EndLine: method.EndLine, Scope: goScope(decl.Name.Name),
		})
	}

	// Attach methods to their struct's TopLevelDecl.
	for i := range result.TopLevel {
		decl := &result.TopLevel[i]
		if decl.Kind != extraction.SymbolClass {
			continue
		}
		decl.Methods = methodsByRecv[decl.Name]
	}

	for _, sym := range result.Symbols {
		if sym.Scope == extraction.ScopeExport {
			result.Exports = append(result.Exports, sym.Name)
		}
	}

	return result, nil
}

func goScope(name string) extraction.Scope {
	if name == "" {
		return extraction.ScopeLocal
	}
	if name[0] >= 'A' && name[0] <= 'Z' {
		return extraction.ScopeExport
	}
	return extraction.ScopeGlobal
}

func receiverTypeName(decl *ast.FuncDecl) string {
	if decl.Recv == nil || len(decl.Recv.List) == 0 {
		return ""
	}
	expr := decl.Recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}

func (b *GoBackend) processGenDecl(decl *ast.GenDecl, fset *token.FileSet, lines []string, result *ParseResult) {
	for _, spec := range decl.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			b.processTypeSpec(s, decl, fset, lines, result)
		case *ast.ValueSpec:
			b.processValueSpec(s, decl, fset, result)
		}
	}
}

func (b *GoBackend) processTypeSpec(spec *ast.TypeSpec, decl *ast.GenDecl, fset *token.FileSet, lines []string, result *ParseResult) {
	name := spec.Name.Name
	kind := extraction.SymbolType
	isStruct := false
	switch spec.Type.(type) {
	case *ast.StructType:
		kind = extraction.SymbolClass
		isStruct = true
	case *ast.InterfaceType:
		kind = extraction.SymbolInterface
	}

	start := fset.Position(decl.Pos()).Line
	end := fset.Position(spec.End()).Line
	scope := goScope(name)
	if scope == extraction.ScopeExport {
		result.Exports = append(result.Exports, name)
	}
	result.Symbols = append(result.Symbols, extraction.Symbol{Name: name, Type: kind, StartLine: start, EndLine: end, Scope: scope})
	result.TopLevel = append(result.TopLevel, TopLevelDecl{
		Name: name, Kind: kind, StartLine: start, EndLine: end,
		DocStartLine: docStartLineFromDoc(decl.Doc, fset, decl),
		IsClass:      isStruct,
	})
}

func (b *GoBackend) processValueSpec(spec *ast.ValueSpec, decl *ast.GenDecl, fset *token.FileSet, result *ParseResult) {
	for _, name := range spec.Names {
		if name.Name == "_" {
			continue
		}
		kind := extraction.SymbolVariable
		if decl.Tok == token.CONST {
			kind = extraction.SymbolConstant
		}
		start := fset.Position(decl.Pos()).Line
		end := fset.Position(spec.End()).Line
		scope := goScope(name.Name)
		if scope == extraction.ScopeExport {
			result.Exports = append(result.Exports, name.Name)
		}
		result.Symbols = append(result.Symbols, extraction.Symbol{Name: name.Name, Type: kind, StartLine: start, EndLine: end, Scope: scope})
		if kind == extraction.SymbolConstant {
			result.TopLevel = append(result.TopLevel, TopLevelDecl{
				Name: name.Name, Kind: kind, StartLine: start, EndLine: end,
				DocStartLine: docStartLineFromDoc(decl.Doc, fset, decl),
			})
		}
	}
}

func (b *GoBackend) processFunc(decl *ast.FuncDecl, fset *token.FileSet, lines []string, result *ParseResult) {
	name := decl.Name.Name
	start := fset.Position(decl.Pos()).Line
	end := fset.Position(decl.End()).Line
	scope := goScope(name)
	if scope == extraction.ScopeExport {
		result.Exports = append(result.Exports, name)
	}
	result.Symbols = append(result.Symbols, extraction.Symbol{Name: name, Type: extraction.SymbolFunction, StartLine: start, EndLine: end, Scope: scope})
	result.TopLevel = append(result.TopLevel, TopLevelDecl{
		Name: name, Kind: extraction.SymbolFunction, StartLine: start, EndLine: end,
		DocStartLine: docStartLineFromDoc(decl.Doc, fset, decl),
	})
}

func docStartLineFromDoc(doc *ast.CommentGroup, fset *token.FileSet, decl ast.Node) int {
	if doc != nil && len(doc.List) > 0 {
		return fset.Position(doc.Pos()).Line
	}
	return fset.Position(decl.Pos()).Line
}
