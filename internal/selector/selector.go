// Package selector narrows the staged file set to the files each hook
// invocation should receive. Filtering layers, in order: runner-level ignore
// rules and exclude globs, the document's global exclude regex, then the
// hook's own files/exclude regexes and type filters.
package selector

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fenrow/prehook/internal/filetypes"
	"github.com/fenrow/prehook/internal/hookcfg"
	"github.com/fenrow/prehook/pkg/ignore"
	"github.com/fenrow/prehook/pkg/logger"
)

// SelectionError reports an invalid per-hook filter pattern. It is scoped to
// the offending hook; other hooks still run.
type SelectionError struct {
	HookID  string
	Pattern string
	Err     error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("hook %s: invalid pattern %q: %v", e.HookID, e.Pattern, e.Err)
}

func (e *SelectionError) Unwrap() error { return e.Err }

// Candidate is a staged file with its detected type tags.
type Candidate struct {
	Path string
	Tags []string
}

// Selector computes per-hook file subsets from one pre-tagged candidate set.
type Selector struct {
	root       string
	candidates []Candidate
}

// Options configures candidate construction.
type Options struct {
	// GlobalExclude is the document-level exclusion regex (may be nil).
	GlobalExclude *regexp.Regexp
	// ExcludeGlobs are runner-settings globs (doublestar syntax).
	ExcludeGlobs []string
	// IgnoreMatcher applies .gitignore/.prehookignore layers (may be nil).
	IgnoreMatcher *ignore.Matcher
}

// New tags and pre-filters the candidate files under root. Files are
// repo-relative slash paths; order is preserved.
func New(root string, files []string, opts Options) *Selector {
	s := &Selector{root: root}

	for _, f := range files {
		path := filepath.ToSlash(f)
		if opts.GlobalExclude != nil && opts.GlobalExclude.MatchString(path) {
			logger.Debug("selector: excluded by global pattern", logger.String("file", path))
			continue
		}
		if opts.IgnoreMatcher != nil && opts.IgnoreMatcher.IsIgnored(path) {
			logger.Debug("selector: excluded by ignore rules", logger.String("file", path))
			continue
		}
		if matchesAnyGlob(opts.ExcludeGlobs, path) {
			logger.Debug("selector: excluded by settings glob", logger.String("file", path))
			continue
		}
		s.candidates = append(s.candidates, Candidate{
			Path: path,
			Tags: filetypes.Tags(root, path),
		})
	}

	return s
}

// Candidates returns the pre-filtered, tagged file set.
func (s *Selector) Candidates() []Candidate {
	return s.candidates
}

// ForHook returns the subset of candidate paths the given invocation should
// run against, applying the hook's files/exclude regexes and type filters.
func (s *Selector) ForHook(inv hookcfg.Invocation) ([]string, error) {
	filesRE, err := compilePattern(inv.Hook.ID, inv.Hook.Files)
	if err != nil {
		return nil, err
	}
	excludeRE, err := compilePattern(inv.Hook.ID, inv.Hook.Exclude)
	if err != nil {
		return nil, err
	}

	var selected []string
	for _, c := range s.candidates {
		if filesRE != nil && !filesRE.MatchString(c.Path) {
			continue
		}
		if excludeRE != nil && excludeRE.MatchString(c.Path) {
			continue
		}
		if !filetypes.Match(c.Tags, inv.Hook.Types, inv.Hook.TypesOr) {
			continue
		}
		selected = append(selected, c.Path)
	}

	return selected, nil
}

func compilePattern(hookID, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &SelectionError{HookID: hookID, Pattern: pattern, Err: err}
	}
	return re, nil
}

func matchesAnyGlob(globs []string, path string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, path); err == nil && ok {
			return true
		}
	}
	return false
}
