package parsers

import (
	"testing"

	"github.com/codecontext/codecontext/internal/extraction"
)

const goFixture = `package sample

import "fmt"

// Greeter greets people.
type Greeter struct {
	Name string
}

// NewGreeter builds a Greeter.
func NewGreeter(name string) *Greeter {
	return &Greeter{Name: name}
}

// Greet returns a greeting.
func (g *Greeter) Greet() string {
	return fmt.Sprintf("hello, %s", g.Name)
}

const MaxGreetings = 10

func helper() string {
	return "internal"
}
`

func TestGoBackendExtractsStructAndMethods(t *testing.T) {
	b := NewGoBackend()
	result, err := b.Parse([]byte(goFixture), "sample.go")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var class *TopLevelDecl
	for i := range result.TopLevel {
		if result.TopLevel[i].Name == "Greeter" {
			class = &result.TopLevel[i]
		}
	}
	if class == nil {
		t.Fatal("expected Greeter struct in TopLevel")
	}
	if len(class.Methods) != 1 || class.Methods[0].Name != "Greet" {
		t.Fatalf("expected Greeter to have method Greet, got %+v", class.Methods)
	}

	foundConst := false
	for _, sym := range result.Symbols {
		if sym.Name == "MaxGreetings" && sym.Type == extraction.SymbolConstant {
			foundConst = true
		}
	}
	if !foundConst {
		t.Error("expected MaxGreetings constant symbol")
	}

	if len(result.Imports) != 1 || result.Imports[0].Module != "fmt" {
		t.Fatalf("expected one fmt import, got %v", result.Imports)
	}

	foundHelper, foundNewGreeter := false, false
	for _, name := range result.Exports {
		if name == "helper" {
			foundHelper = true
		}
		if name == "NewGreeter" {
			foundNewGreeter = true
		}
	}
	if foundHelper {
		t.Error("unexported helper should not appear in Exports")
	}
	if !foundNewGreeter {
		t.Error("expected exported NewGreeter in Exports")
	}
}

func TestGoBackendParseErrorOnInvalidSyntax(t *testing.T) {
	b := NewGoBackend()
	_, err := b.Parse([]byte("this is not valid go"), "bad.go")
	if err == nil {
		t.Fatal("expected parse error for invalid Go source")
	}
}

const goLocalDeclFixture = `package sample

func run() {
	var localVar = 1
	const localConst = 2
	_ = localVar
	_ = localConst
}
`

func TestGoBackendSkipsLocalDeclarations(t *testing.T) {
	b := NewGoBackend()
	result, err := b.Parse([]byte(goLocalDeclFixture), "sample.go")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	for _, decl := range result.TopLevel {
		if decl.Name == "localVar" || decl.Name == "localConst" {
			t.Fatalf("expected local declarations inside a function body to be dropped, got %+v", decl)
		}
	}
	for _, sym := range result.Symbols {
		if sym.Name == "localVar" || sym.Name == "localConst" {
			t.Fatalf("expected local declarations inside a function body to be dropped from Symbols, got %+v", sym)
		}
	}
}
