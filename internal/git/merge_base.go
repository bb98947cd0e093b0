package git

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// FindCommonAncestor returns the best common ancestor of two commits, or nil
// when their histories are unrelated
func (r *Repository) FindCommonAncestor(a, b plumbing.Hash) (*object.Commit, error) {
	commitA, err := r.CommitObject(a)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", a, err)
	}

	commitB, err := r.CommitObject(b)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", b, err)
	}

	mergeBases, err := commitA.MergeBase(commitB)
	if err != nil {
		return nil, fmt.Errorf("failed to find merge base: %w", err)
	}

	if len(mergeBases) == 0 {
		return nil, nil
	}

	return mergeBases[0], nil
}

// IsAncestor checks if the first commit is an ancestor of the second one
func (r *Repository) IsAncestor(ancestor, descendant plumbing.Hash) (bool, error) {
	// If they're the same, ancestor is an ancestor
	if ancestor == descendant {
		return true, nil
	}

	ancestorCommit, err := r.CommitObject(ancestor)
	if err != nil {
		return false, fmt.Errorf("failed to get ancestor commit: %w", err)
	}

	descendantCommit, err := r.CommitObject(descendant)
	if err != nil {
		return false, fmt.Errorf("failed to get descendant commit: %w", err)
	}

	return ancestorCommit.IsAncestor(descendantCommit)
}
