package filetypes

import (
	"os"
	"path/filepath"
	"testing"
)

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func TestTagsByExtension(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		path string
		want []string
	}{
		{"app.py", []string{"python", "text", "file"}},
		{"README.md", []string{"markdown", "text"}},
		{"config.yaml", []string{"yaml", "text"}},
		{"config.yml", []string{"yaml"}},
		{"data.json", []string{"json"}},
		{"pyproject.toml", []string{"toml"}},
		{"main.go", []string{"go"}},
		{"script.sh", []string{"shell", "bash"}},
		{"logo.png", []string{"image", "png", "binary"}},
		{"Makefile", []string{"makefile", "text"}},
		{"Dockerfile", []string{"dockerfile"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			tags := Tags(root, tt.path)
			for _, want := range tt.want {
				if !hasTag(tags, want) {
					t.Errorf("Tags(%q) = %v, missing %q", tt.path, tags, want)
				}
			}
		})
	}
}

func TestBinaryFilesAreNotText(t *testing.T) {
	tags := Tags(t.TempDir(), "photo.jpg")
	if hasTag(tags, "text") {
		t.Errorf("binary file tagged text: %v", tags)
	}
}

func TestShebangDetection(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, "deploy")
	if err := os.WriteFile(script, []byte("#!/usr/bin/env python3\nprint('hi')\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	tags := Tags(root, "deploy")
	if !hasTag(tags, "python") {
		t.Errorf("shebang python not detected: %v", tags)
	}
	if !hasTag(tags, "executable") {
		t.Errorf("executable bit not detected: %v", tags)
	}
}

func TestMatchSemantics(t *testing.T) {
	mdTags := Tags(t.TempDir(), "notes.md")
	pyTags := Tags(t.TempDir(), "app.py")

	// types_or: [markdown] selects markdown, not python-only files.
	if !Match(mdTags, nil, []string{"markdown"}) {
		t.Error("types_or [markdown] should select a markdown file")
	}
	if Match(pyTags, nil, []string{"markdown"}) {
		t.Error("types_or [markdown] should not select a python file")
	}

	// types: AND semantics over all declared tags.
	if !Match(pyTags, []string{"python", "text"}, nil) {
		t.Error("types [python, text] should select a python source file")
	}
	if Match(pyTags, []string{"python", "markdown"}, nil) {
		t.Error("types [python, markdown] requires both tags")
	}

	// Combined: types AND pass plus one of types_or.
	if !Match(pyTags, []string{"text"}, []string{"python", "markdown"}) {
		t.Error("combined filter should select python file")
	}

	// No filters selects everything.
	if !Match(mdTags, nil, nil) {
		t.Error("empty filters should match any file")
	}
}
