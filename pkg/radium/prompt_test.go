package radium

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPromptTemplateRenderNonStrict(t *testing.T) {
	tmpl := &PromptTemplate{Path: "inline", Body: "Echo {{user_input}}, bye {{missing}}"}

	out, err := tmpl.Render(map[string]string{"user_input": "hello"}, RenderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Echo hello, bye " {
		t.Fatalf("got %q", out)
	}
}

func TestPromptTemplateRenderStrictMissing(t *testing.T) {
	tmpl := &PromptTemplate{Path: "inline", Body: "{{missing}}"}

	if _, err := tmpl.Render(nil, RenderOptions{Strict: true}); err == nil {
		t.Fatal("expected error for missing placeholder in strict mode")
	}
}

func TestTemplateCacheInvalidatesOnModTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tmpl.txt")
	if err := os.WriteFile(path, []byte("v1 {{x}}"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := NewTemplateCache()
	first, err := cache.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if first.Body != "v1 {{x}}" {
		t.Fatalf("got %q", first.Body)
	}

	if err := os.WriteFile(path, []byte("v2 {{x}}"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Force the mtime forward so the cache observes a change regardless of
	// filesystem timestamp resolution.
	future := time.Now().Add(time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	second, err := cache.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if second.Body != "v2 {{x}}" {
		t.Fatalf("expected reload, got %q", second.Body)
	}
}
