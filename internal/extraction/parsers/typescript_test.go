package parsers

import "testing"

const tsFixture = `import { readFile } from "fs";

export class Widget {
  constructor(private name: string) {}

  render(): string {
    return this.name;
  }
}

export function build(): Widget {
  return new Widget("a");
}

const internalHelper = 1;
`

func TestTypeScriptBackendExtractsClassAndExports(t *testing.T) {
	b := NewTypeScriptBackend()
	result, err := b.Parse([]byte(tsFixture), "widget.ts")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var class *TopLevelDecl
	for i := range result.TopLevel {
		if result.TopLevel[i].Name == "Widget" {
			class = &result.TopLevel[i]
		}
	}
	if class == nil {
		t.Fatal("expected Widget class in TopLevel")
	}
	if class.ConstructorEndLine == 0 {
		t.Error("expected constructor to set ConstructorEndLine")
	}
	if len(class.Methods) != 2 {
		t.Fatalf("expected constructor + render as methods, got %d", len(class.Methods))
	}

	if len(result.Imports) != 1 || result.Imports[0].Module != "fs" {
		t.Fatalf("expected one fs import, got %v", result.Imports)
	}

	foundWidget, foundBuild := false, false
	for _, name := range result.Exports {
		if name == "Widget" {
			foundWidget = true
		}
		if name == "build" {
			foundBuild = true
		}
	}
	if !foundWidget || !foundBuild {
		t.Fatalf("expected Widget and build in Exports, got %v", result.Exports)
	}
}

func TestJavaScriptBackendTagsLanguage(t *testing.T) {
	b := NewJavaScriptBackend()
	if b.Language() != "javascript" {
		t.Fatalf("expected javascript, got %s", b.Language())
	}
}
