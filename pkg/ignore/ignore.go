// Package ignore provides gitignore-based file filtering using go-git
package ignore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Matcher provides gitignore-based file filtering
type Matcher struct {
	matcher gitignore.Matcher
}

// NewMatcher creates a matcher with layered ignore files:
// 1. .gitignore and related git ignore files (foundation)
// 2. .prehookignore (repo overrides)
// 3. ~/.prehook/.prehookignore (user overrides)
func NewMatcher(repoRoot string) (*Matcher, error) {
	fs := osfs.New(repoRoot)

	var allPatterns []gitignore.Pattern

	// Default patterns that should always be ignored (highest priority)
	defaultPatterns := []string{".git/**", "node_modules/**"}
	for _, pattern := range defaultPatterns {
		allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
	}

	// Layer 1: standard gitignore patterns (foundation).
	// ReadPatterns with nil reads .gitignore, global excludes, and .git/info/exclude
	if gitPatterns, err := gitignore.ReadPatterns(fs, nil); err == nil {
		allPatterns = append(allPatterns, gitPatterns...)
	}

	// Layer 2: repo-level .prehookignore overrides
	if repoPatterns, err := readIgnoreFile(filepath.Join(repoRoot, ".prehookignore")); err == nil {
		for _, pattern := range repoPatterns {
			allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
		}
	}

	// Layer 3: user-level ~/.prehook/.prehookignore overrides
	if homeDir, err := os.UserHomeDir(); err == nil {
		userIgnorePath := filepath.Join(homeDir, ".prehook", ".prehookignore")
		if userPatterns, err := readIgnoreFile(userIgnorePath); err == nil {
			for _, pattern := range userPatterns {
				allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
			}
		}
	}

	return &Matcher{
		matcher: gitignore.NewMatcher(allPatterns),
	}, nil
}

// readIgnoreFile reads patterns from a .prehookignore file
func readIgnoreFile(path string) ([]string, error) {
	cleaned := filepath.Clean(path)
	// Allowlist: only .prehookignore files are readable through this path
	if !strings.HasSuffix(cleaned, string(os.PathSeparator)+".prehookignore") {
		return nil, fmt.Errorf("disallowed ignore file path: %s", cleaned)
	}
	content, err := os.ReadFile(cleaned) // #nosec G304 -- path cleaned and allowlisted
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}

// IsIgnored reports whether the given repo-relative path is ignored.
func (m *Matcher) IsIgnored(relPath string) bool {
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	return m.matcher.Match(parts, false)
}
