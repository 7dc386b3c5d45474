package parsers

import (
	"testing"

	"github.com/codecontext/codecontext/internal/extraction"
)

const pyFixture = `import os
from typing import List

MAX_RETRIES = 3

class Client:
    def __init__(self, host):
        self.host = host

    def fetch(self, path):
        return self.host + path

def helper():
    return None

def _private():
    return None
`

func TestPythonBackendExtractsClassAndFunctions(t *testing.T) {
	b := NewPythonBackend()
	result, err := b.Parse([]byte(pyFixture), "client.py")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var class *TopLevelDecl
	for i := range result.TopLevel {
		if result.TopLevel[i].Name == "Client" {
			class = &result.TopLevel[i]
		}
	}
	if class == nil {
		t.Fatal("expected Client class in TopLevel")
	}
	if class.ConstructorEndLine == 0 {
		t.Error("expected __init__ to set ConstructorEndLine")
	}
	if len(class.Methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(class.Methods))
	}

	if len(result.Imports) != 2 {
		t.Fatalf("expected 2 imports, got %v", result.Imports)
	}

	foundConst := false
	for _, sym := range result.Symbols {
		if sym.Name == "MAX_RETRIES" && sym.Type == extraction.SymbolConstant {
			foundConst = true
		}
	}
	if !foundConst {
		t.Error("expected MAX_RETRIES to be recorded as a constant (ALL_CAPS convention)")
	}

	foundHelper, foundPrivate := false, false
	for _, name := range result.Exports {
		if name == "helper" {
			foundHelper = true
		}
		if name == "_private" {
			foundPrivate = true
		}
	}
	if !foundHelper {
		t.Error("expected helper in Exports")
	}
	if foundPrivate {
		t.Error("underscore-prefixed _private should not appear in Exports")
	}
}
