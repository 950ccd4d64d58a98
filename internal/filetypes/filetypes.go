// Package filetypes detects content-type tags for candidate files. Tags feed
// the selector's `types`/`types_or` filters: every file carries a set of tags
// derived from its extension, well-known name, permission bits, and (for
// extensionless files) shebang line.
package filetypes

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// extensionTags maps lowercase extensions to their type tags. The "text" tag
// is implied for everything listed here except entries under binaryExts.
var extensionTags = map[string][]string{
	".py":         {"python"},
	".pyi":        {"python", "pyi"},
	".md":         {"markdown"},
	".markdown":   {"markdown"},
	".yaml":       {"yaml"},
	".yml":        {"yaml"},
	".json":       {"json"},
	".toml":       {"toml"},
	".ini":        {"ini"},
	".cfg":        {"ini"},
	".go":         {"go"},
	".rs":         {"rust"},
	".js":         {"javascript"},
	".jsx":        {"javascript", "jsx"},
	".ts":         {"ts"},
	".tsx":        {"ts", "tsx"},
	".sh":         {"shell", "bash"},
	".bash":       {"shell", "bash"},
	".zsh":        {"shell", "zsh"},
	".html":       {"html"},
	".htm":        {"html"},
	".css":        {"css"},
	".xml":        {"xml"},
	".sql":        {"sql"},
	".txt":        {"plain-text"},
	".rst":        {"rst"},
	".csv":        {"csv"},
	".lock":       {"lockfile"},
	".dockerfile": {"dockerfile"},
}

var binaryExts = map[string][]string{
	".png":  {"image", "png"},
	".jpg":  {"image", "jpeg"},
	".jpeg": {"image", "jpeg"},
	".gif":  {"image", "gif"},
	".pdf":  {"pdf"},
	".zip":  {"zip"},
	".gz":   {"gzip"},
	".whl":  {"wheel"},
	".so":   {"shared-object"},
	".exe":  {"binary"},
}

// nameTags maps well-known basenames to tags.
var nameTags = map[string][]string{
	"dockerfile": {"dockerfile"},
	"makefile":   {"makefile"},
	"gemfile":    {"ruby"},
	"rakefile":   {"ruby"},
}

// shebangTags maps interpreter names found on a shebang line to tags.
var shebangTags = map[string][]string{
	"python":  {"python"},
	"python3": {"python"},
	"sh":      {"shell"},
	"bash":    {"shell", "bash"},
	"zsh":     {"shell", "zsh"},
	"node":    {"javascript"},
	"ruby":    {"ruby"},
	"perl":    {"perl"},
}

// Tags returns the sorted set of type tags for path. root is the directory
// file paths are relative to; stat and shebang inspection are best-effort
// and skipped when the file is unreadable.
func Tags(root, path string) []string {
	set := make(map[string]struct{})
	add := func(tags ...string) {
		for _, t := range tags {
			set[t] = struct{}{}
		}
	}

	add("file")

	base := strings.ToLower(filepath.Base(path))
	ext := strings.ToLower(filepath.Ext(path))

	binary := false
	if tags, ok := binaryExts[ext]; ok {
		add(tags...)
		add("binary")
		binary = true
	}
	if tags, ok := extensionTags[ext]; ok {
		add(tags...)
	}
	if tags, ok := nameTags[base]; ok {
		add(tags...)
	}

	full := filepath.Join(root, filepath.FromSlash(path))
	if info, err := os.Stat(full); err == nil {
		if info.Mode()&0o111 != 0 {
			add("executable")
		} else {
			add("non-executable")
		}
		// Extensionless text files: look at the shebang
		if ext == "" && !binary {
			if tags, ok := shebangLookup(full); ok {
				add(tags...)
			}
		}
	}

	if !binary {
		add("text")
	}

	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Match reports whether the tag set satisfies the given filters:
// all of `types` must be present (AND), and at least one of `typesOr`
// when non-empty (OR).
func Match(tags []string, types, typesOr []string) bool {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}

	for _, required := range types {
		if _, ok := set[required]; !ok {
			return false
		}
	}

	if len(typesOr) > 0 {
		found := false
		for _, candidate := range typesOr {
			if _, ok := set[candidate]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// shebangLookup reads the first line of a file and maps its interpreter to tags.
func shebangLookup(path string) ([]string, bool) {
	f, err := os.Open(path) // #nosec G304 -- candidate file inside the repo being checked
	if err != nil {
		return nil, false
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, false
	}
	line := scanner.Text()
	if !strings.HasPrefix(line, "#!") {
		return nil, false
	}

	line = strings.TrimSpace(line[2:])
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false
	}

	interp := filepath.Base(fields[0])
	// `#!/usr/bin/env python3` style: interpreter is the next field
	if interp == "env" && len(fields) > 1 {
		interp = filepath.Base(fields[1])
	}

	// Strip trailing version digits: python3.12 -> python3
	if tags, ok := shebangTags[interp]; ok {
		return tags, true
	}
	trimmed := strings.TrimRight(interp, "0123456789.")
	if tags, ok := shebangTags[trimmed]; ok {
		return tags, true
	}
	return nil, false
}
