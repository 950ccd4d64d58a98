package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatcherDefaults(t *testing.T) {
	root := t.TempDir()
	m, err := NewMatcher(root)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}

	if !m.IsIgnored(".git/HEAD") {
		t.Error(".git contents should always be ignored")
	}
	if !m.IsIgnored("node_modules/pkg/index.js") {
		t.Error("node_modules should always be ignored")
	}
	if m.IsIgnored("src/app.py") {
		t.Error("regular source file should not be ignored")
	}
}

func TestMatcherPrehookignoreLayer(t *testing.T) {
	root := t.TempDir()
	content := "# generated artifacts\ndist/\n*.min.js\n"
	if err := os.WriteFile(filepath.Join(root, ".prehookignore"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewMatcher(root)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}

	if !m.IsIgnored("dist/bundle.js") {
		t.Error("dist/ should be ignored via .prehookignore")
	}
	if !m.IsIgnored("web/app.min.js") {
		t.Error("*.min.js should be ignored via .prehookignore")
	}
	if m.IsIgnored("web/app.js") {
		t.Error("app.js should not be ignored")
	}
}

func TestMatcherGitignoreLayer(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.pyc\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewMatcher(root)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}

	if !m.IsIgnored("pkg/__pycache__/mod.pyc") {
		t.Error("*.pyc should be ignored via .gitignore")
	}
}
