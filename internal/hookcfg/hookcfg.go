// Package hookcfg loads and validates the declarative hook document
// (.prehook.yaml): a global exclude pattern plus an ordered list of hook
// source repositories, each pinned to a revision and carrying hook entries
// with argument and file-filter overrides.
package hookcfg

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the hook document looked up at the repository root.
const DefaultFileName = ".prehook.yaml"

// LocalRepo marks hooks defined inline rather than resolved from a remote source.
const LocalRepo = "local"

// ConfigError reports a malformed hook document. It is fatal to the run:
// no hooks execute when the document cannot be loaded.
type ConfigError struct {
	Path string
	Msg  string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %s", e.Path, e.Msg)
	}
	return fmt.Sprintf("config: %s", e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// HookSource identifies a repository of hook definitions pinned to a revision.
// The revision is expected to be immutable (tag or commit, not a moving branch).
type HookSource struct {
	Repo string `yaml:"repo" json:"repo"`
	Rev  string `yaml:"rev" json:"rev"`
}

// IsLocal reports whether the source declares inline local hooks.
func (s HookSource) IsLocal() bool { return s.Repo == LocalRepo }

// Key returns the cache key identity of the source.
func (s HookSource) Key() string { return strings.ToLower(s.Repo) + "@" + s.Rev }

// HookEntry is a single hook declaration within a repo entry.
type HookEntry struct {
	ID              string   `yaml:"id" json:"id"`
	Name            string   `yaml:"name,omitempty" json:"name,omitempty"`
	Args            []string `yaml:"args,omitempty" json:"args,omitempty"`
	LanguageVersion string   `yaml:"language_version,omitempty" json:"language_version,omitempty"`
	Types           []string `yaml:"types,omitempty" json:"types,omitempty"`
	TypesOr         []string `yaml:"types_or,omitempty" json:"types_or,omitempty"`
	Files           string   `yaml:"files,omitempty" json:"files,omitempty"`
	Exclude         string   `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Entry           string   `yaml:"entry,omitempty" json:"entry,omitempty"`
	Language        string   `yaml:"language,omitempty" json:"language,omitempty"`
	PassFilenames   *bool    `yaml:"pass_filenames,omitempty" json:"pass_filenames,omitempty"`
	AlwaysRun       bool     `yaml:"always_run,omitempty" json:"always_run,omitempty"`
	Stages          []string `yaml:"stages,omitempty" json:"stages,omitempty"`
	Timeout         string   `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// PassesFilenames reports whether matched filenames are appended to the
// hook's argv. Defaults to true when unset.
func (h HookEntry) PassesFilenames() bool {
	if h.PassFilenames == nil {
		return true
	}
	return *h.PassFilenames
}

// RepoEntry groups hook entries under one source.
type RepoEntry struct {
	Repo  string      `yaml:"repo" json:"repo"`
	Rev   string      `yaml:"rev,omitempty" json:"rev,omitempty"`
	Hooks []HookEntry `yaml:"hooks" json:"hooks"`
}

// Document is the raw YAML shape of the hook document.
type Document struct {
	Exclude string      `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Repos   []RepoEntry `yaml:"repos" json:"repos"`
}

// Invocation is one hook entry bound to its source, in declared order.
// Per-hook regexes stay raw here; the selector compiles them so an invalid
// pattern surfaces as a SelectionError scoped to that hook.
type Invocation struct {
	Source HookSource
	Hook   HookEntry
}

// Config is the loaded, validated hook document.
type Config struct {
	// Exclude is the compiled global exclusion pattern (may be nil).
	Exclude *regexp.Regexp
	// ExcludeRaw preserves the declared pattern for reporting.
	ExcludeRaw string
	// Invocations preserves declared order: one per hook entry.
	Invocations []Invocation
}

// Load reads and validates the hook document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-specified config path
	if err != nil {
		return nil, &ConfigError{Path: path, Msg: "cannot read hook document", Err: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
			return nil, ce
		}
		return nil, err
	}
	return cfg, nil
}

// Parse validates a hook document and produces the ordered invocation list.
func Parse(data []byte) (*Config, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Msg: "invalid YAML", Err: err}
	}

	if len(doc.Repos) == 0 {
		return nil, &ConfigError{Msg: "no repos declared"}
	}

	cfg := &Config{ExcludeRaw: doc.Exclude}
	if doc.Exclude != "" {
		re, err := regexp.Compile(doc.Exclude)
		if err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("invalid global exclude pattern %q", doc.Exclude), Err: err}
		}
		cfg.Exclude = re
	}

	for ri, repo := range doc.Repos {
		source := HookSource{Repo: repo.Repo, Rev: repo.Rev}
		if repo.Repo == "" {
			return nil, &ConfigError{Msg: fmt.Sprintf("repos[%d]: missing repo", ri)}
		}
		if !source.IsLocal() && strings.TrimSpace(repo.Rev) == "" {
			return nil, &ConfigError{Msg: fmt.Sprintf("repos[%d] (%s): missing rev; sources must be pinned", ri, repo.Repo)}
		}
		if len(repo.Hooks) == 0 {
			return nil, &ConfigError{Msg: fmt.Sprintf("repos[%d] (%s): no hooks declared", ri, repo.Repo)}
		}

		for hi, hook := range repo.Hooks {
			if hook.ID == "" {
				return nil, &ConfigError{Msg: fmt.Sprintf("repos[%d] (%s) hooks[%d]: missing id", ri, repo.Repo, hi)}
			}
			if source.IsLocal() {
				if err := validateLocalHook(ri, hi, hook); err != nil {
					return nil, err
				}
			}
			if hook.Timeout != "" {
				if err := validateTimeout(hook.Timeout); err != nil {
					return nil, &ConfigError{Msg: fmt.Sprintf("hook %s: invalid timeout %q", hook.ID, hook.Timeout), Err: err}
				}
			}
			cfg.Invocations = append(cfg.Invocations, Invocation{Source: source, Hook: hook})
		}
	}

	return cfg, nil
}

// validateLocalHook enforces the inline fields local hooks must carry.
func validateLocalHook(ri, hi int, hook HookEntry) error {
	missing := func(field string) error {
		return &ConfigError{Msg: fmt.Sprintf("repos[%d] (local) hooks[%d] (%s): missing %s", ri, hi, hook.ID, field)}
	}
	if hook.Entry == "" {
		return missing("entry")
	}
	if hook.Language == "" {
		return missing("language")
	}
	if hook.Name == "" {
		return missing("name")
	}
	return nil
}

func validateTimeout(s string) error {
	_, err := time.ParseDuration(s)
	return err
}
