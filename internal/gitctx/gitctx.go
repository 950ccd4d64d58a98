package gitctx

import (
	"bufio"
	"bytes"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// ChangeContext captures a minimal view of the staged change-set.
type ChangeContext struct {
	StagedFiles []string `json:"staged_files"`
	GitSHA      string   `json:"git_sha,omitempty"`
	Branch      string   `json:"branch,omitempty"`
}

// CollectStaged gathers the staged file list for the repo at target path.
// Returns nil if git is unavailable or target is not a repository.
// Deleted files are excluded: hooks operate on content that will exist
// after the commit.
func CollectStaged(target string) (*ChangeContext, error) {
	// Prefer go-git for repo info and file lists
	if ctx, err := collectGoGit(target); err == nil && ctx != nil {
		return ctx, nil
	}

	// CLI fallback
	if _, err := exec.LookPath("git"); err != nil {
		return nil, nil
	}
	if !isRepoCLI(target) {
		return nil, nil
	}
	branch := runGit(target, "rev-parse", "--abbrev-ref", "HEAD")
	sha := runGit(target, "rev-parse", "HEAD")
	files := parseNameOnly(runGitBytes(target, "diff", "--cached", "--name-only", "--diff-filter=ACMR"))
	sort.Strings(files)
	return &ChangeContext{
		StagedFiles: files,
		GitSHA:      sha,
		Branch:      branch,
	}, nil
}

// CollectTracked returns every tracked file in the repository, for
// whole-tree runs (--all-files).
func CollectTracked(target string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(target, &git.PlainOpenOptions{DetectDotGit: true})
	if err == nil {
		if files, ok := trackedGoGit(repo); ok {
			sort.Strings(files)
			return files, nil
		}
	}

	if _, err := exec.LookPath("git"); err != nil {
		return nil, nil
	}
	files := parseNameOnly(runGitBytes(target, "ls-files"))
	sort.Strings(files)
	return files, nil
}

func collectGoGit(target string) (*ChangeContext, error) {
	repo, err := git.PlainOpenWithOptions(target, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, nil
	}
	head, err := repo.Head()
	if err != nil {
		return nil, nil
	}
	branch := head.Name().Short()
	sha := head.Hash().String()

	wt, err := repo.Worktree()
	if err != nil {
		return nil, nil
	}
	st, err := wt.Status()
	if err != nil {
		return nil, nil
	}

	var staged []string
	for path, s := range st {
		switch s.Staging {
		case git.Added, git.Modified, git.Renamed, git.Copied:
			staged = append(staged, filepath.ToSlash(path))
		}
	}
	sort.Strings(staged)

	return &ChangeContext{
		StagedFiles: staged,
		GitSHA:      sha,
		Branch:      branch,
	}, nil
}

func trackedGoGit(repo *git.Repository) ([]string, bool) {
	head, err := repo.Head()
	if err != nil {
		return nil, false
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, false
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, false
	}
	var files []string
	walker := tree.Files()
	defer walker.Close()
	for {
		f, err := walker.Next()
		if err != nil {
			break
		}
		files = append(files, filepath.ToSlash(f.Name))
	}
	return files, true
}

func isRepoCLI(target string) bool {
	out := runGit(target, "rev-parse", "--is-inside-work-tree")
	return strings.TrimSpace(out) == "true"
}

func runGit(dir string, args ...string) string {
	b := runGitBytes(dir, args...)
	return strings.TrimSpace(string(b))
}

func runGitBytes(dir string, args ...string) []byte {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, _ := cmd.Output()
	return out
}

// parseNameOnly parses newline-separated file lists from git output.
func parseNameOnly(data []byte) []string {
	var files []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			files = append(files, filepath.ToSlash(line))
		}
	}
	return files
}
