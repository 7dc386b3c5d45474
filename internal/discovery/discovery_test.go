package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverIsSortedAndFiltersUnsupported(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.go"), "package main")
	writeFile(t, filepath.Join(root, "a.go"), "package main")
	writeFile(t, filepath.Join(root, "readme.bin"), "\x00\x01")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), "module.exports = {}")

	fd, err := New(root, ".codecontext", nil)
	if err != nil {
		t.Fatal(err)
	}

	files, err := fd.Discover()
	if err != nil {
		t.Fatal(err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "a.go" || filepath.Base(files[1]) != "b.go" {
		t.Errorf("expected sorted [a.go, b.go], got %v", files)
	}
}

func TestDiscoverSkipsDataDirAndHidden(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, ".codecontext", "registry.json"), "{}")
	writeFile(t, filepath.Join(root, ".codecontext", "stray.go"), "package main")
	writeFile(t, filepath.Join(root, ".git", "config.go"), "package main")

	fd, err := New(root, ".codecontext", nil)
	if err != nil {
		t.Fatal(err)
	}

	files, err := fd.Discover()
	if err != nil {
		t.Fatal(err)
	}

	if len(files) != 1 {
		t.Fatalf("expected only main.go, got %v", files)
	}
}

func TestDiscoverRespectsIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "gen", "gen.go"), "package gen")

	fd, err := New(root, ".codecontext", []string{"gen/**"})
	if err != nil {
		t.Fatal(err)
	}

	files, err := fd.Discover()
	if err != nil {
		t.Fatal(err)
	}

	if len(files) != 1 {
		t.Fatalf("expected ignore pattern to exclude gen/, got %v", files)
	}
}

func TestDiscoverDeterministicAcrossRuns(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"z.go", "m.go", "a.go"} {
		writeFile(t, filepath.Join(root, name), "package main")
	}

	fd, err := New(root, ".codecontext", nil)
	if err != nil {
		t.Fatal(err)
	}

	first, err := fd.Discover()
	if err != nil {
		t.Fatal(err)
	}
	second, err := fd.Discover()
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatal("discovery result length changed across runs")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("discovery order not stable: %v vs %v", first, second)
		}
	}
}
