package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// Repository wraps a go-git repository
type Repository struct {
	*git.Repository
	path   string
	runner *CommandRunner
}

// OpenRepository opens a git repository at the given path
func OpenRepository(path string) (*Repository, error) {
	// Resolve to absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	// Prefer the worktree root so the git binary sees the same repository
	if wt, err := repo.Worktree(); err == nil {
		absPath = wt.Filesystem.Root()
	}

	return &Repository{
		Repository: repo,
		path:       absPath,
		runner:     NewCommandRunner(absPath),
	}, nil
}

// GetRepoRoot returns the root directory of the repository
func (r *Repository) GetRepoRoot() string {
	return r.path
}

// Runner returns the git command runner bound to this repository
func (r *Repository) Runner() *CommandRunner {
	return r.runner
}

// LookupReference returns the named reference without following symbolic
// references. It returns nil when the reference does not exist.
func (r *Repository) LookupReference(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	ref, err := r.Reference(name, false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up reference %s: %w", name, err)
	}
	return ref, nil
}

// ResolveReference follows symbolic references down to a hash reference.
// It returns nil when the reference, or the one it points to, does not exist.
func (r *Repository) ResolveReference(name plumbing.ReferenceName) (*plumbing.Reference, error) {
	ref, err := r.Reference(name, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reference %s: %w", name, err)
	}
	return ref, nil
}

// ListReferences returns every reference whose canonical name starts with prefix
func (r *Repository) ListReferences(prefix string) ([]*plumbing.Reference, error) {
	refs, err := r.References()
	if err != nil {
		return nil, fmt.Errorf("failed to get references: %w", err)
	}

	var result []*plumbing.Reference
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if strings.HasPrefix(ref.Name().String(), prefix) {
			result = append(result, ref)
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("failed to iterate references: %w", err)
	}

	return result, nil
}

// HeadTarget returns the reference HEAD points to. For a detached HEAD it
// returns plumbing.HEAD itself.
func (r *Repository) HeadTarget() (plumbing.ReferenceName, error) {
	head, err := r.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if head.Type() == plumbing.SymbolicReference {
		return head.Target(), nil
	}
	return plumbing.HEAD, nil
}
