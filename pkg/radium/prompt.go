package radium

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// PromptTemplate is a textual body containing {{placeholder}} tokens.
// Rendering is pure: (template, context) -> string. Templates are cached by
// file path with modification-time invalidation.
type PromptTemplate struct {
	Path string
	Body string
}

// RenderOptions controls placeholder-miss behavior.
type RenderOptions struct {
	// Strict, when true, makes a missing placeholder an error instead of
	// rendering it as an empty string.
	Strict bool
}

// Render substitutes every {{placeholder}} in the template body with the
// corresponding value from context. Missing placeholders render as empty
// strings unless opts.Strict is set, in which case Render returns an error.
func (t *PromptTemplate) Render(context map[string]string, opts RenderOptions) (string, error) {
	var missing []string
	rendered := placeholderPattern.ReplaceAllStringFunc(t.Body, func(match string) string {
		sub := placeholderPattern.FindStringSubmatch(match)
		key := sub[1]
		if val, ok := context[key]; ok {
			return val
		}
		missing = append(missing, key)
		return ""
	})
	if opts.Strict && len(missing) > 0 {
		return "", fmt.Errorf("prompt template %s: missing placeholders: %s", t.Path, strings.Join(missing, ", "))
	}
	return rendered, nil
}

// TemplateCache loads PromptTemplate bodies from disk, invalidating a cached
// entry when the underlying file's modification time changes.
type TemplateCache struct {
	mu      sync.RWMutex
	entries map[string]cachedTemplate
}

type cachedTemplate struct {
	template *PromptTemplate
	modTime  time.Time
}

// NewTemplateCache creates an empty template cache.
func NewTemplateCache() *TemplateCache {
	return &TemplateCache{entries: make(map[string]cachedTemplate)}
}

// Load returns the PromptTemplate for path, re-reading the file if it has
// changed since the last load.
func (c *TemplateCache) Load(path string) (*PromptTemplate, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat prompt template %s: %w", path, err)
	}

	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && entry.modTime.Equal(info.ModTime()) {
		return entry.template, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template %s: %w", path, err)
	}
	tmpl := &PromptTemplate{Path: path, Body: string(data)}

	c.mu.Lock()
	c.entries[path] = cachedTemplate{template: tmpl, modTime: info.ModTime()}
	c.mu.Unlock()

	return tmpl, nil
}
