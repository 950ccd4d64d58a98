package selector

import (
	"errors"
	"regexp"
	"testing"

	"github.com/fenrow/prehook/internal/hookcfg"
)

func inv(hook hookcfg.HookEntry) hookcfg.Invocation {
	return hookcfg.Invocation{
		Source: hookcfg.HookSource{Repo: "https://example.com/hooks", Rev: "v1"},
		Hook:   hook,
	}
}

func TestGlobalExcludeAppliedFirst(t *testing.T) {
	files := []string{"app.py", "poetry.lock", "docs/guide.md"}
	s := New(t.TempDir(), files, Options{
		GlobalExclude: regexp.MustCompile(`^poetry\.lock$`),
	})

	got := s.Candidates()
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2", len(got))
	}
	for _, c := range got {
		if c.Path == "poetry.lock" {
			t.Error("poetry.lock should be globally excluded")
		}
	}
}

func TestSettingsGlobExclusion(t *testing.T) {
	files := []string{"src/app.py", "vendor/lib.py"}
	s := New(t.TempDir(), files, Options{
		ExcludeGlobs: []string{"vendor/**"},
	})

	got := s.Candidates()
	if len(got) != 1 || got[0].Path != "src/app.py" {
		t.Errorf("candidates = %v, want only src/app.py", got)
	}
}

func TestForHookTypesOr(t *testing.T) {
	files := []string{"README.md", "app.py", "notes.markdown"}
	s := New(t.TempDir(), files, Options{})

	selected, err := s.ForHook(inv(hookcfg.HookEntry{ID: "prettier", TypesOr: []string{"markdown"}}))
	if err != nil {
		t.Fatalf("ForHook failed: %v", err)
	}
	want := []string{"README.md", "notes.markdown"}
	if len(selected) != len(want) {
		t.Fatalf("selected = %v, want %v", selected, want)
	}
	for i := range want {
		if selected[i] != want[i] {
			t.Errorf("selected[%d] = %q, want %q", i, selected[i], want[i])
		}
	}
}

func TestForHookTypesAnd(t *testing.T) {
	files := []string{"app.py", "README.md"}
	s := New(t.TempDir(), files, Options{})

	selected, err := s.ForHook(inv(hookcfg.HookEntry{ID: "ruff", Types: []string{"python", "text"}}))
	if err != nil {
		t.Fatalf("ForHook failed: %v", err)
	}
	if len(selected) != 1 || selected[0] != "app.py" {
		t.Errorf("selected = %v, want [app.py]", selected)
	}
}

func TestForHookExcludeRegex(t *testing.T) {
	files := []string{"src/app.py", "tests/test_app.py"}
	s := New(t.TempDir(), files, Options{})

	selected, err := s.ForHook(inv(hookcfg.HookEntry{
		ID:      "black",
		Types:   []string{"python"},
		Exclude: `^tests/`,
	}))
	if err != nil {
		t.Fatalf("ForHook failed: %v", err)
	}
	if len(selected) != 1 || selected[0] != "src/app.py" {
		t.Errorf("selected = %v, want [src/app.py]", selected)
	}
}

func TestForHookFilesRegex(t *testing.T) {
	files := []string{"app.py", "setup.py", "README.md"}
	s := New(t.TempDir(), files, Options{})

	selected, err := s.ForHook(inv(hookcfg.HookEntry{ID: "check-setup", Files: `^setup\.py$`}))
	if err != nil {
		t.Fatalf("ForHook failed: %v", err)
	}
	if len(selected) != 1 || selected[0] != "setup.py" {
		t.Errorf("selected = %v, want [setup.py]", selected)
	}
}

func TestForHookInvalidRegex(t *testing.T) {
	s := New(t.TempDir(), []string{"app.py"}, Options{})

	_, err := s.ForHook(inv(hookcfg.HookEntry{ID: "broken", Exclude: `[`}))
	if err == nil {
		t.Fatal("expected error for invalid exclude pattern")
	}
	var se *SelectionError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SelectionError, got %T", err)
	}
	if se.HookID != "broken" {
		t.Errorf("error hook id = %q, want broken", se.HookID)
	}
}

func TestOrderPreserved(t *testing.T) {
	files := []string{"z.py", "a.py", "m.py"}
	s := New(t.TempDir(), files, Options{})

	selected, err := s.ForHook(inv(hookcfg.HookEntry{ID: "ruff", Types: []string{"python"}}))
	if err != nil {
		t.Fatalf("ForHook failed: %v", err)
	}
	want := []string{"z.py", "a.py", "m.py"}
	for i := range want {
		if selected[i] != want[i] {
			t.Errorf("order not preserved: %v", selected)
			break
		}
	}
}
