package credentials

import (
	"os"
	"testing"
)

func TestStoreKeyAndGet(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := store.StoreKey("anthropic", "sk-test-123"); err != nil {
		t.Fatalf("StoreKey: %v", err)
	}

	key, source, err := store.Get("anthropic")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if key != "sk-test-123" || source != SourceFile {
		t.Fatalf("unexpected result: key=%q source=%q", key, source)
	}
}

func TestGetNotConfigured(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, _, err := store.Get("anthropic"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGetFallsBackToEnvironment(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-env-key")
	key, source, err := store.Get("anthropic")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if key != "sk-env-key" || source != SourceEnvironment {
		t.Fatalf("unexpected result: key=%q source=%q", key, source)
	}
}

func TestFilePreferredOverEnvironment(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Setenv("ANTHROPIC_API_KEY", "sk-env-key")
	if err := store.StoreKey("anthropic", "sk-file-key"); err != nil {
		t.Fatalf("StoreKey: %v", err)
	}

	key, source, err := store.Get("anthropic")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if key != "sk-file-key" || source != SourceFile {
		t.Fatalf("expected file to win over environment, got key=%q source=%q", key, source)
	}
}

func TestRemove(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.StoreKey("anthropic", "sk-test"); err != nil {
		t.Fatalf("StoreKey: %v", err)
	}
	if err := store.Remove("anthropic"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, _, err := store.Get("anthropic"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured after removal, got %v", err)
	}
}

func TestListReturnsOnlyFileBackedProviders(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Setenv("OPENAI_API_KEY", "sk-env-key")
	if err := store.StoreKey("anthropic", "sk-test"); err != nil {
		t.Fatalf("StoreKey: %v", err)
	}

	list := store.List()
	if len(list) != 1 || list[0] != "anthropic" {
		t.Fatalf("expected only file-backed providers listed, got %v", list)
	}
}

func TestIsConfigured(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if store.IsConfigured("anthropic") {
		t.Fatal("expected not configured before any key is set")
	}
	if err := store.StoreKey("anthropic", "sk-test"); err != nil {
		t.Fatalf("StoreKey: %v", err)
	}
	if !store.IsConfigured("anthropic") {
		t.Fatal("expected configured after StoreKey")
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	first, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := first.StoreKey("anthropic", "sk-test"); err != nil {
		t.Fatalf("StoreKey: %v", err)
	}

	second, err := New(dir)
	if err != nil {
		t.Fatalf("New (second): %v", err)
	}
	key, _, err := second.Get("anthropic")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if key != "sk-test" {
		t.Fatalf("expected persisted key, got %q", key)
	}
}

func TestFilePermissionsAreOwnerOnly(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.StoreKey("anthropic", "sk-test"); err != nil {
		t.Fatalf("StoreKey: %v", err)
	}

	info, err := os.Stat(dir + "/credentials.json")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
}

func TestEnvVarNames(t *testing.T) {
	if got := EnvVarNames("anthropic"); len(got) != 1 || got[0] != "ANTHROPIC_API_KEY" {
		t.Fatalf("unexpected env var names: %v", got)
	}
	if got := EnvVarNames("unknown-provider"); got != nil {
		t.Fatalf("expected nil for an unknown provider, got %v", got)
	}
}
