package filter

import (
	"strings"
	"testing"
)

func TestShouldIncludeExcludesVendored(t *testing.T) {
	cf, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	d := cf.ShouldInclude("vendor/github.com/foo/bar.go", []byte("package bar"))
	if d.Include {
		t.Error("vendored file should be excluded")
	}
}

func TestShouldIncludeExcludesTestFiles(t *testing.T) {
	cf, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	d := cf.ShouldInclude("internal/foo/foo_test.go", []byte("package foo"))
	if d.Include {
		t.Error("test file should be excluded")
	}
}

func TestShouldIncludeExcludesOversized(t *testing.T) {
	cf, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	big := make([]byte, MaxFileSize+1)
	d := cf.ShouldInclude("data/huge.json", big)
	if d.Include {
		t.Error("oversized file should be excluded")
	}
	if d.Reason != "File too large (likely data file)" {
		t.Errorf("unexpected reason: %q", d.Reason)
	}
}

func TestShouldIncludeExcludesBinary(t *testing.T) {
	cf, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	content := []byte("some text\x00with a null byte")
	d := cf.ShouldInclude("pkg/blob.dat", content)
	if d.Include {
		t.Error("binary content should be excluded")
	}
}

func TestShouldIncludeExcludesLockfiles(t *testing.T) {
	cf, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	d := cf.ShouldInclude("package-lock.json", []byte("{}"))
	if d.Include {
		t.Error("lockfile should be excluded")
	}
}

func TestShouldIncludeAcceptsNormalSource(t *testing.T) {
	cf, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	d := cf.ShouldInclude("internal/foo/foo.go", []byte("package foo\n\nfunc Foo() {}\n"))
	if !d.Include {
		t.Errorf("normal source should be included, got reason %q", d.Reason)
	}
	if d.Confidence < 0.5 {
		t.Errorf("inclusion confidence should be >= 0.5, got %v", d.Confidence)
	}
}

func TestShouldIncludeCustomIgnorePatterns(t *testing.T) {
	cf, err := New([]string{"**/*.proto"})
	if err != nil {
		t.Fatal(err)
	}

	d := cf.ShouldInclude("api/service.proto", []byte("syntax = \"proto3\";"))
	if d.Include {
		t.Error("custom ignore pattern should exclude the file")
	}
}

func TestShouldIncludeNormalizesBackslashPaths(t *testing.T) {
	cf, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	d := cf.ShouldInclude(strings.ReplaceAll("vendor/foo/bar.go", "/", "\\"), []byte("x"))
	if d.Include {
		t.Error("backslash path should still match vendor exclusion")
	}
}
