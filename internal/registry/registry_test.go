package registry

import "testing"

func TestGenerateNamespaceIsDeterministic(t *testing.T) {
	a := GenerateNamespace("/repo/foo")
	b := GenerateNamespace("/repo/foo")
	if a != b {
		t.Fatalf("expected stable namespace, got %s vs %s", a, b)
	}
	if GenerateNamespace("/repo/bar") == a {
		t.Fatal("expected different paths to get different namespaces")
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	first, err := r.Register("/repo/foo")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Register("/repo/foo")
	if err != nil {
		t.Fatal(err)
	}
	if first.Namespace != second.Namespace {
		t.Fatal("expected idempotent registration to return the same namespace")
	}
}

func TestRegisterPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	r1, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	entry, err := r1.Register("/repo/foo")
	if err != nil {
		t.Fatal(err)
	}

	r2, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := r2.Get("/repo/foo")
	if !ok {
		t.Fatal("expected registration to persist across instances")
	}
	if got.Namespace != entry.Namespace {
		t.Fatalf("expected same namespace after reload, got %s vs %s", got.Namespace, entry.Namespace)
	}
}

func TestGetByNamespace(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	entry, err := r.Register("/repo/foo")
	if err != nil {
		t.Fatal(err)
	}
	got, ok := r.GetByNamespace(entry.Namespace)
	if !ok || got.CanonicalPath != "/repo/foo" {
		t.Fatalf("expected reverse lookup to find /repo/foo, got %+v ok=%v", got, ok)
	}
}

func TestUpdateLastIndexedPersists(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register("/repo/foo"); err != nil {
		t.Fatal(err)
	}
	if err := r.UpdateLastIndexed("/repo/foo"); err != nil {
		t.Fatal(err)
	}

	r2, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	entry, ok := r2.Get("/repo/foo")
	if !ok || entry.LastIndexedAt.IsZero() {
		t.Fatalf("expected LastIndexedAt to persist, got %+v ok=%v", entry, ok)
	}
}

func TestUpdateLastIndexedUnregisteredFails(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.UpdateLastIndexed("/repo/never-registered"); err == nil {
		t.Fatal("expected an error updating an unregistered codebase")
	}
}

func TestClearRemovesEntry(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register("/repo/foo"); err != nil {
		t.Fatal(err)
	}
	if err := r.Clear("/repo/foo"); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Get("/repo/foo"); ok {
		t.Fatal("expected entry to be gone after Clear")
	}

	r2, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(r2.All()) != 0 {
		t.Fatal("expected Clear to persist to disk")
	}
}
