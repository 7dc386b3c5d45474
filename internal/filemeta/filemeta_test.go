package filemeta

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDetectChangesAddedModifiedUnchanged(t *testing.T) {
	dataDir := t.TempDir()
	codebase := t.TempDir()

	filePath := filepath.Join(codebase, "a.go")
	if err := os.WriteFile(filePath, []byte("package a"), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := Open(dataDir, codebase)
	if err != nil {
		t.Fatal(err)
	}

	changes, err := store.DetectChanges(map[string]string{"a.go": filePath}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes.Added) != 1 {
		t.Fatalf("expected a.go to be Added, got %+v", changes)
	}

	info, _ := os.Stat(filePath)
	store.Set(FileState{RelativePath: "a.go", Hash: HashFile([]byte("package a")), Size: info.Size(), ModTime: info.ModTime()})

	changes, err = store.DetectChanges(map[string]string{"a.go": filePath}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes.Unchanged) != 1 || len(changes.Added) != 0 {
		t.Fatalf("expected a.go to be Unchanged after recording state, got %+v", changes)
	}

	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(filePath, []byte("package a // changed"), 0o644); err != nil {
		t.Fatal(err)
	}

	changes, err = store.DetectChanges(map[string]string{"a.go": filePath}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes.Modified) != 1 {
		t.Fatalf("expected a.go to be Modified after content change, got %+v", changes)
	}
}

func TestDetectChangesSameSizeDifferentContentStillHashes(t *testing.T) {
	dataDir := t.TempDir()
	codebase := t.TempDir()
	filePath := filepath.Join(codebase, "a.go")
	if err := os.WriteFile(filePath, []byte("package aaa"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := Open(dataDir, codebase)
	if err != nil {
		t.Fatal(err)
	}
	info, _ := os.Stat(filePath)
	store.Set(FileState{RelativePath: "a.go", Hash: HashFile([]byte("package aaa")), Size: info.Size(), ModTime: info.ModTime()})

	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(filePath, []byte("package bbb"), 0o644); err != nil {
		t.Fatal(err)
	}

	changes, err := store.DetectChanges(map[string]string{"a.go": filePath}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes.Modified) != 1 {
		t.Fatalf("expected same-size content change to be caught by hash comparison, got %+v", changes)
	}
}

func TestDetectChangesTimeGateSkipsOldFiles(t *testing.T) {
	dataDir := t.TempDir()
	codebase := t.TempDir()
	filePath := filepath.Join(codebase, "a.go")
	if err := os.WriteFile(filePath, []byte("package a"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := Open(dataDir, codebase)
	if err != nil {
		t.Fatal(err)
	}

	future := time.Now().Add(time.Hour)
	changes, err := store.DetectChanges(map[string]string{"a.go": filePath}, &future)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes.Added) != 0 || len(changes.Modified) != 0 || len(changes.Unchanged) != 0 {
		t.Fatalf("expected time-gated file to be skipped entirely, got %+v", changes)
	}
}

func TestDetectChangesMarksDeleted(t *testing.T) {
	dataDir := t.TempDir()
	codebase := t.TempDir()
	store, err := Open(dataDir, codebase)
	if err != nil {
		t.Fatal(err)
	}

	store.Set(FileState{RelativePath: "gone.go", Hash: "x", ModTime: time.Now()})

	changes, err := store.DetectChanges(map[string]string{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes.Deleted) != 1 || changes.Deleted[0] != "gone.go" {
		t.Fatalf("expected gone.go to be Deleted, got %+v", changes)
	}
}

func TestStorePersistsAcrossInstances(t *testing.T) {
	dataDir := t.TempDir()
	codebase := t.TempDir()

	s1, err := Open(dataDir, codebase)
	if err != nil {
		t.Fatal(err)
	}
	s1.Set(FileState{RelativePath: "a.go", Hash: "abc", ModTime: time.Now(), ChunkIDs: []string{"chunk_1"}})
	if err := s1.Save(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(dataDir, codebase)
	if err != nil {
		t.Fatal(err)
	}
	state, ok := s2.Get("a.go")
	if !ok || state.Hash != "abc" {
		t.Fatalf("expected persisted state for a.go, got %+v ok=%v", state, ok)
	}
}

func TestSetDoesNotPersistUntilSave(t *testing.T) {
	dataDir := t.TempDir()
	codebase := t.TempDir()

	s1, err := Open(dataDir, codebase)
	if err != nil {
		t.Fatal(err)
	}
	s1.Set(FileState{RelativePath: "a.go", Hash: "abc", ModTime: time.Now()})

	s2, err := Open(dataDir, codebase)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s2.Get("a.go"); ok {
		t.Fatal("expected Set without Save to leave disk state untouched")
	}

	if err := s1.Save(); err != nil {
		t.Fatal(err)
	}
	s3, err := Open(dataDir, codebase)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s3.Get("a.go"); !ok {
		t.Fatal("expected Save to flush the pending Set to disk")
	}
}

func TestStorePathIsStablePerCodebase(t *testing.T) {
	a := StorePath("/data", "/repo/one")
	b := StorePath("/data", "/repo/one")
	c := StorePath("/data", "/repo/two")
	if a != b {
		t.Fatal("expected stable path for same codebase")
	}
	if a == c {
		t.Fatal("expected distinct paths for distinct codebases")
	}
}
