package policy

import "strings"

// matchesGlob implements the small glob dialect spec.md §4.3 needs: an
// exact match, a bare "*" matching everything, a prefix pattern ("read_*"),
// a suffix pattern ("*_file"), or (falling through) a literal match. This
// mirrors internal/agent/approval.go's matchesPattern rather than reaching
// for path/filepath.Match, which anchors on path separators and rejects
// patterns like "mcp:*" that aren't filesystem paths.
func matchesGlob(pattern, value string) bool {
	if pattern == "" {
		return false
	}
	if pattern == "*" {
		return true
	}
	if pattern == value {
		return true
	}
	switch {
	case strings.HasSuffix(pattern, "*") && strings.HasPrefix(pattern, "*"):
		middle := pattern[1 : len(pattern)-1]
		return strings.Contains(value, middle)
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(value, strings.TrimSuffix(pattern, "*"))
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(value, strings.TrimPrefix(pattern, "*"))
	default:
		return pattern == value
	}
}
