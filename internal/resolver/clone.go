package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/fenrow/prehook/pkg/logger"
)

// clonedRepo represents a hook source clone in the cache.
type clonedRepo struct {
	Path   string
	Cached bool
}

// cloneSource materializes the given repo/rev into the cache directory,
// reusing an existing clone keyed by repo+rev when present. Revisions are
// pins; a cached checkout for the same key is authoritative and is not
// re-fetched.
func cloneSource(ctx context.Context, cacheDir, repo, rev string) (*clonedRepo, error) {
	if repo == "" {
		return nil, errors.New("repo cannot be empty")
	}
	if rev == "" {
		return nil, errors.New("rev cannot be empty")
	}

	cacheKey := hashRepoRev(repo, rev)
	targetPath := filepath.Join(cacheDir, cacheKey)

	repository, cached, err := openOrCloneRepo(ctx, repo, targetPath)
	if err != nil {
		return nil, err
	}

	hash, err := resolveRevHash(repository, rev)
	if err != nil {
		if !cached {
			_ = os.RemoveAll(targetPath)
		}
		return nil, err
	}

	if err := checkoutHash(repository, hash); err != nil {
		if !cached {
			_ = os.RemoveAll(targetPath)
		}
		return nil, fmt.Errorf("failed to checkout %s: %w", rev, err)
	}

	return &clonedRepo{
		Path:   targetPath,
		Cached: cached,
	}, nil
}

func openOrCloneRepo(ctx context.Context, repo, targetPath string) (*git.Repository, bool, error) {
	// Reuse an existing clone when the checkout is intact
	if repository, err := git.PlainOpen(targetPath); err == nil {
		return repository, true, nil
	}

	// Clean any partial state before cloning
	_ = os.RemoveAll(targetPath)

	cloneURL, err := buildCloneURL(repo)
	if err != nil {
		return nil, false, err
	}

	logger.Info(fmt.Sprintf("Cloning hook source %s into cache", repo))
	repository, err := git.PlainCloneContext(ctx, targetPath, false, &git.CloneOptions{
		URL:          cloneURL,
		Progress:     nil,
		Tags:         git.AllTags,
		SingleBranch: false,
	})
	if err != nil {
		if errors.Is(err, transport.ErrAuthenticationRequired) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("failed to clone %s: %w", cloneURL, err)
	}

	return repository, false, nil
}

func buildCloneURL(repo string) (string, error) {
	trimmed := strings.TrimSpace(repo)
	if strings.HasPrefix(trimmed, "http://") ||
		strings.HasPrefix(trimmed, "https://") ||
		strings.HasPrefix(trimmed, "ssh://") ||
		strings.HasPrefix(trimmed, "file://") {
		return trimmed, nil
	}

	// Filesystem paths (tests, mirrored sources) pass through unchanged
	if filepath.IsAbs(trimmed) {
		return trimmed, nil
	}

	if strings.Contains(trimmed, "://") {
		return "", fmt.Errorf("unsupported repo URL scheme: %s", trimmed)
	}

	trimmed = strings.TrimSuffix(trimmed, ".git")
	return fmt.Sprintf("https://github.com/%s.git", trimmed), nil
}

func hashRepoRev(repo, rev string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(repo) + ":" + rev))
	return hex.EncodeToString(sum[:])[:32]
}

func resolveRevHash(repository *git.Repository, rev string) (plumbing.Hash, error) {
	// go-git's revision parser handles tags, short hashes, and HEAD-relative forms
	if hash, err := repository.ResolveRevision(plumbing.Revision(rev)); err == nil {
		return *hash, nil
	}

	candidates := []plumbing.ReferenceName{
		plumbing.ReferenceName(rev),
		plumbing.NewBranchReferenceName(rev),
		plumbing.NewRemoteReferenceName("origin", rev),
		plumbing.NewTagReferenceName(rev),
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if reference, err := repository.Reference(candidate, true); err == nil {
			return reference.Hash(), nil
		}
	}

	if len(rev) == 40 && isHex(rev) {
		return plumbing.NewHash(rev), nil
	}

	return plumbing.ZeroHash, fmt.Errorf("rev %s not found", rev)
}

func checkoutHash(repository *git.Repository, hash plumbing.Hash) error {
	worktree, err := repository.Worktree()
	if err != nil {
		return err
	}
	return worktree.Checkout(&git.CheckoutOptions{
		Hash:  hash,
		Force: true,
	})
}

func isHex(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}
