package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5/plumbing"

	treelineerrors "treeline.dev/treeline/internal/errors"
)

// BranchCollection gives access to the branches of a repository. A branch is
// built once per collection, so repeated lookups (including the tracked branch
// of another branch) share one instance and its resolved attributes.
type BranchCollection struct {
	store  BranchStore
	logger *slog.Logger

	mu       sync.Mutex
	branches map[plumbing.ReferenceName]*Branch
}

func newBranchCollection(store BranchStore, logger *slog.Logger) *BranchCollection {
	return &BranchCollection{
		store:    store,
		logger:   logger,
		branches: make(map[plumbing.ReferenceName]*Branch),
	}
}

// Get returns the branch with the given name, or nil when it does not exist.
// name may be canonical (refs/heads/main, refs/remotes/origin/main) or short;
// a short name is tried as a local branch first.
func (c *BranchCollection) Get(name string) (*Branch, error) {
	if name == "" {
		return nil, fmt.Errorf("branch name: %w", treelineerrors.ErrInvalidArgument)
	}

	var candidates []plumbing.ReferenceName
	if strings.HasPrefix(name, "refs/") {
		candidates = []plumbing.ReferenceName{plumbing.ReferenceName(name)}
	} else {
		candidates = []plumbing.ReferenceName{
			plumbing.NewBranchReferenceName(name),
			plumbing.ReferenceName(remoteBranchPrefix + name),
		}
	}

	for _, canonical := range candidates {
		if !canonical.IsBranch() && !canonical.IsRemote() {
			continue
		}
		ref, err := c.store.LookupReference(canonical)
		if err != nil {
			return nil, err
		}
		if ref != nil {
			return c.branch(canonical), nil
		}
	}
	return nil, nil
}

// MustGet is Get that reports a missing branch as an error
func (c *BranchCollection) MustGet(name string) (*Branch, error) {
	b, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, treelineerrors.NewBranchNotFoundError(name)
	}
	return b, nil
}

// List returns every local and remote-tracking branch sorted by canonical
// name. Symbolic references such as refs/remotes/origin/HEAD are skipped.
func (c *BranchCollection) List() ([]*Branch, error) {
	var names []plumbing.ReferenceName
	for _, prefix := range []string{localBranchPrefix, remoteBranchPrefix} {
		refs, err := c.store.ListReferences(prefix)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			if ref.Type() == plumbing.SymbolicReference {
				continue
			}
			names = append(names, ref.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	branches := make([]*Branch, 0, len(names))
	for _, name := range names {
		branches = append(branches, c.branch(name))
	}
	return branches, nil
}

// Head returns the branch HEAD points at, which may be unborn. It returns nil
// when HEAD is detached.
func (c *BranchCollection) Head() (*Branch, error) {
	target, err := c.store.HeadTarget()
	if err != nil {
		return nil, err
	}
	if target == plumbing.HEAD {
		return nil, nil
	}
	return c.branch(target), nil
}

// SetUpstream makes upstreamName the tracked branch of branchName, or removes
// the tracking configuration when upstreamName is empty
func (c *BranchCollection) SetUpstream(branchName, upstreamName string) error {
	b, err := c.MustGet(branchName)
	if err != nil {
		return err
	}
	if upstreamName == "" {
		return b.UnsetUpstream()
	}

	upstream, err := c.MustGet(upstreamName)
	if err != nil {
		return err
	}
	return b.SetUpstreamTo(upstream)
}

func (c *BranchCollection) branch(canonical plumbing.ReferenceName) *Branch {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.branches[canonical]; ok {
		return b
	}
	b := newBranch(c.store, c, canonical, c.logger)
	c.branches[canonical] = b
	return b
}
