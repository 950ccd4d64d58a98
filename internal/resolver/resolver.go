// Package resolver turns pinned hook sources into hook definitions. Remote
// sources are cloned once into a content-addressed cache keyed by (url, rev)
// and their .pre-commit-hooks.yaml manifest is parsed; local sources are
// synthesized from the inline config entry. Concurrent resolution of the
// same source collapses to a single fetch.
package resolver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/fenrow/prehook/internal/hookcfg"
	"github.com/fenrow/prehook/pkg/logger"
)

// ResolutionError reports an unreachable or inconsistent hook source. It is
// fatal to the run: no hooks execute when a declared source cannot resolve.
type ResolutionError struct {
	Source hookcfg.HookSource
	Msg    string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s@%s: %s", e.Source.Repo, e.Source.Rev, e.Msg)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Definition is a resolved hook definition: manifest defaults plus the
// location of the checked-out source.
type Definition struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Entry         string   `yaml:"entry" json:"entry"`
	Language      string   `yaml:"language" json:"language"`
	Files         string   `yaml:"files,omitempty" json:"files,omitempty"`
	Exclude       string   `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Types         []string `yaml:"types,omitempty" json:"types,omitempty"`
	TypesOr       []string `yaml:"types_or,omitempty" json:"types_or,omitempty"`
	Args          []string `yaml:"args,omitempty" json:"args,omitempty"`
	PassFilenames *bool    `yaml:"pass_filenames,omitempty" json:"pass_filenames,omitempty"`
	AlwaysRun     bool     `yaml:"always_run,omitempty" json:"always_run,omitempty"`
	// RepoPath is the local checkout of the hook source (empty for local hooks).
	RepoPath string `yaml:"-" json:"repo_path,omitempty"`
	// Distribution is the python package name from the source's pyproject.toml,
	// recorded for python-language hooks.
	Distribution string `yaml:"-" json:"distribution,omitempty"`
}

// PassesFilenames reports the manifest default, true when unset.
func (d Definition) PassesFilenames() bool {
	if d.PassFilenames == nil {
		return true
	}
	return *d.PassFilenames
}

// Resolver resolves hook sources with an on-disk clone cache and an in-memory
// definition memo. Safe for concurrent use; duplicate in-flight resolutions
// of the same key collapse via singleflight.
type Resolver struct {
	cacheDir string

	group singleflight.Group

	mu   sync.RWMutex
	defs map[string][]Definition

	fetches atomic.Int64
}

// New creates a resolver backed by the given cache directory.
func New(cacheDir string) *Resolver {
	return &Resolver{
		cacheDir: cacheDir,
		defs:     make(map[string][]Definition),
	}
}

// ResolveSource returns all hook definitions declared by the source's
// manifest. Repeated calls for the same (url, rev) return the memoized
// definitions without re-fetching.
func (r *Resolver) ResolveSource(ctx context.Context, source hookcfg.HookSource) ([]Definition, error) {
	if source.IsLocal() {
		return nil, &ResolutionError{Source: source, Msg: "local sources are not resolved remotely"}
	}

	key := source.Key()

	r.mu.RLock()
	if defs, ok := r.defs[key]; ok {
		r.mu.RUnlock()
		return defs, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.group.Do(key, func() (interface{}, error) {
		// Re-check the memo: a concurrent caller may have just populated it.
		r.mu.RLock()
		if defs, ok := r.defs[key]; ok {
			r.mu.RUnlock()
			return defs, nil
		}
		r.mu.RUnlock()

		defs, err := r.fetchSource(ctx, source)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.defs[key] = defs
		r.mu.Unlock()
		return defs, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]Definition), nil
}

// LookupHook resolves the source and returns the definition for the given
// hook id, failing when the manifest does not declare it.
func (r *Resolver) LookupHook(ctx context.Context, source hookcfg.HookSource, id string) (Definition, error) {
	if source.IsLocal() {
		return Definition{}, &ResolutionError{Source: source, Msg: "local hooks carry inline definitions"}
	}

	defs, err := r.ResolveSource(ctx, source)
	if err != nil {
		return Definition{}, err
	}

	for _, def := range defs {
		if def.ID == id {
			return def, nil
		}
	}

	return Definition{}, &ResolutionError{
		Source: source,
		Msg:    fmt.Sprintf("hook id %q not declared in source manifest", id),
	}
}

// ResolveAll warms the cache for every distinct remote source, resolving
// distinct keys in parallel. Any failure aborts the group.
func (r *Resolver) ResolveAll(ctx context.Context, sources []hookcfg.HookSource) error {
	g, gctx := errgroup.WithContext(ctx)

	seen := make(map[string]bool)
	for _, source := range sources {
		if source.IsLocal() || seen[source.Key()] {
			continue
		}
		seen[source.Key()] = true

		src := source
		g.Go(func() error {
			_, err := r.ResolveSource(gctx, src)
			return err
		})
	}

	return g.Wait()
}

// FetchCount returns how many clone-and-parse operations have occurred.
func (r *Resolver) FetchCount() int64 {
	return r.fetches.Load()
}

// fetchSource clones the source at its pinned rev and parses its manifest.
func (r *Resolver) fetchSource(ctx context.Context, source hookcfg.HookSource) ([]Definition, error) {
	r.fetches.Add(1)

	clone, err := cloneSource(ctx, r.cacheDir, source.Repo, source.Rev)
	if err != nil {
		return nil, &ResolutionError{Source: source, Msg: "source unreachable or rev unknown", Err: err}
	}
	if clone.Cached {
		logger.Debug("resolver: reusing cached clone", logger.String("repo", source.Repo), logger.String("rev", source.Rev))
	}

	defs, err := parseManifest(clone.Path)
	if err != nil {
		return nil, &ResolutionError{Source: source, Msg: "invalid hook manifest", Err: err}
	}

	// Python hook repos carry their distribution name in pyproject.toml.
	dist := readDistributionName(clone.Path)
	for i := range defs {
		defs[i].RepoPath = clone.Path
		if dist != "" && isPythonLanguage(defs[i].Language) {
			defs[i].Distribution = dist
		}
	}

	logger.Debug("resolver: source resolved",
		logger.String("repo", source.Repo),
		logger.String("rev", source.Rev),
		logger.Int("hooks", len(defs)))

	return defs, nil
}

// LocalDefinition synthesizes a definition from an inline local hook entry.
func LocalDefinition(hook hookcfg.HookEntry) Definition {
	return Definition{
		ID:            hook.ID,
		Name:          hook.Name,
		Entry:         hook.Entry,
		Language:      hook.Language,
		Files:         hook.Files,
		Types:         hook.Types,
		TypesOr:       hook.TypesOr,
		PassFilenames: hook.PassFilenames,
		AlwaysRun:     hook.AlwaysRun,
	}
}

// CacheKey returns the cache directory name a source clones into.
func CacheKey(source hookcfg.HookSource) string {
	return hashRepoRev(source.Repo, source.Rev)
}

func isPythonLanguage(lang string) bool {
	return lang == "python" || lang == "python3"
}
