package lock

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireAndRelease(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	result, err := s.Acquire("full:/repo/foo")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Acquired {
		t.Fatalf("expected first acquire to succeed, got %+v", result)
	}

	if err := s.Release("full:/repo/foo"); err != nil {
		t.Fatal(err)
	}

	result, err = s.Acquire("full:/repo/foo")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Acquired {
		t.Fatal("expected acquire after release to succeed")
	}
}

func TestAcquireContention(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Acquire("incremental:/repo/foo"); err != nil {
		t.Fatal(err)
	}

	result, err := s.Acquire("incremental:/repo/foo")
	if err != nil {
		t.Fatal(err)
	}
	if result.Acquired {
		t.Fatal("expected second acquire to be denied while lock is held")
	}
	if result.Message == "" {
		t.Fatal("expected a human-readable denial message")
	}
}

func TestAcquireRemovesStaleLock(t *testing.T) {
	s, err := NewWithStaleness(t.TempDir(), 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Acquire("full:/repo/foo"); err != nil {
		t.Fatal(err)
	}

	time.Sleep(20 * time.Millisecond)

	result, err := s.Acquire("full:/repo/foo")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Acquired {
		t.Fatal("expected stale lock to be reaped and reacquired")
	}
}

func TestAcquireRemovesCorruptLock(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "lock-full_repo_foo.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := s.Acquire("full:repo:foo")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Acquired {
		t.Fatal("expected corrupt lock file to be reaped and reacquired")
	}
}

func TestReleaseMissingLockIsNoop(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Release("never:acquired"); err != nil {
		t.Fatalf("expected releasing a missing lock to be a no-op, got %v", err)
	}
}
