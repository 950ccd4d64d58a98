package gitctx

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func gitAvailable() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

func runCmd(t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("%s %v failed: %v\n%s", name, args, err, out)
	}
}

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runCmd(t, dir, "git", "init", "-q")
	if err := os.WriteFile(filepath.Join(dir, "base.txt"), []byte("base\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	runCmd(t, dir, "git", "add", "base.txt")
	runCmd(t, dir, "git", "commit", "-q", "-m", "initial")
	return dir
}

func TestCollectStagedNotARepo(t *testing.T) {
	ctx, err := CollectStaged(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ctx != nil && len(ctx.StagedFiles) > 0 {
		t.Errorf("expected no staged files outside a repo, got %v", ctx.StagedFiles)
	}
}

func TestCollectStaged(t *testing.T) {
	if !gitAvailable() {
		t.Skip("git not available")
	}
	dir := initRepo(t)

	// One staged file, one unstaged file, one untouched file.
	if err := os.WriteFile(filepath.Join(dir, "staged.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	runCmd(t, dir, "git", "add", "staged.py")
	if err := os.WriteFile(filepath.Join(dir, "unstaged.py"), []byte("y = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, err := CollectStaged(dir)
	if err != nil {
		t.Fatalf("CollectStaged failed: %v", err)
	}
	if ctx == nil {
		t.Fatal("expected change context for a git repo")
	}

	if len(ctx.StagedFiles) != 1 || ctx.StagedFiles[0] != "staged.py" {
		t.Errorf("staged files = %v, want [staged.py]", ctx.StagedFiles)
	}
	if ctx.GitSHA == "" {
		t.Error("expected git SHA to be populated")
	}
}

func TestCollectTracked(t *testing.T) {
	if !gitAvailable() {
		t.Skip("git not available")
	}
	dir := initRepo(t)

	files, err := CollectTracked(dir)
	if err != nil {
		t.Fatalf("CollectTracked failed: %v", err)
	}
	if len(files) != 1 || files[0] != "base.txt" {
		t.Errorf("tracked files = %v, want [base.txt]", files)
	}
}
