package engine

import (
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	treelineerrors "treeline.dev/treeline/internal/errors"
	"treeline.dev/treeline/internal/git"
	"treeline.dev/treeline/internal/lazy"
)

// Branch is a local or remote-tracking branch.
//
// Tip, TrackedBranch and the ahead/behind counts are resolved on first use
// and stay fixed for the lifetime of the Branch. Build a new BranchCollection
// to observe later changes.
type Branch struct {
	canonical  plumbing.ReferenceName
	store      BranchStore
	collection *BranchCollection

	tip *lazy.Attribute[*object.Commit]
	// tracked holds the canonical name of the upstream, empty when untracked
	tracked *lazy.Attribute[plumbing.ReferenceName]

	divergence *lazy.Group[*divergence]
	aheadBy    *lazy.Attribute[*int]
	behindBy   *lazy.Attribute[*int]
}

// divergence is the handle the ahead/behind counts are computed from. It is
// nil when there is nothing to count.
type divergence struct {
	local    plumbing.Hash
	upstream plumbing.Hash
}

func newBranch(store BranchStore, collection *BranchCollection, canonical plumbing.ReferenceName, logger *slog.Logger) *Branch {
	b := &Branch{
		canonical:  canonical,
		store:      store,
		collection: collection,
	}
	identity := canonical.String()
	opts := groupOptions(logger)

	b.tip = lazy.Once(identity, "tip", func() (*object.Commit, error) {
		ref, err := store.ResolveReference(canonical)
		if err != nil || ref == nil {
			return nil, err
		}
		return store.CommitObject(ref.Hash())
	}, opts...)

	b.tracked = lazy.Once(identity, "tracked_branch", func() (plumbing.ReferenceName, error) {
		ref, err := store.LookupReference(canonical)
		if err != nil || ref == nil {
			return "", err
		}
		upstream, err := store.Upstream(ref.Name())
		if err != nil || upstream == nil {
			return "", err
		}
		return upstream.Name(), nil
	}, opts...)

	b.divergence = lazy.NewGroup[*divergence](identity, lazy.AcquirerFuncs[*divergence]{
		AcquireFunc: b.findDivergence,
	}, opts...)
	b.aheadBy = lazy.Register(b.divergence, "ahead_by", func(d *divergence) (*int, error) {
		if d == nil {
			return nil, nil
		}
		return b.countReachable(d.local, d.upstream)
	})
	b.behindBy = lazy.Register(b.divergence, "behind_by", func(d *divergence) (*int, error) {
		if d == nil {
			return nil, nil
		}
		return b.countReachable(d.upstream, d.local)
	})
	return b
}

// findDivergence returns the two tips to compare, or nil when the branch is
// not tracking, either tip is missing, or the histories share no commit.
func (b *Branch) findDivergence() (*divergence, error) {
	tracked, err := b.TrackedBranch()
	if err != nil || tracked == nil {
		return nil, err
	}

	local, err := b.Tip()
	if err != nil || local == nil {
		return nil, err
	}
	upstream, err := tracked.Tip()
	if err != nil || upstream == nil {
		return nil, err
	}

	base, err := b.store.FindCommonAncestor(local.Hash, upstream.Hash)
	if err != nil || base == nil {
		return nil, err
	}
	return &divergence{local: local.Hash, upstream: upstream.Hash}, nil
}

func (b *Branch) countReachable(since, until plumbing.Hash) (*int, error) {
	iter, err := b.store.CommitsReachable(since, until)
	if err != nil {
		return nil, err
	}
	n, err := git.CountCommits(iter)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Name returns the short name: main, or origin/main for a remote branch
func (b *Branch) Name() string {
	return b.canonical.Short()
}

// CanonicalName returns the full reference name
func (b *Branch) CanonicalName() plumbing.ReferenceName {
	return b.canonical
}

// IsRemote reports whether this is a remote-tracking branch
func (b *Branch) IsRemote() bool {
	return b.canonical.IsRemote()
}

// Tip returns the commit the branch points at, or nil for an unborn branch
func (b *Branch) Tip() (*object.Commit, error) {
	return b.tip.Value()
}

// TrackedBranch returns the upstream branch, or nil when the branch tracks
// nothing or the upstream reference does not exist
func (b *Branch) TrackedBranch() (*Branch, error) {
	name, err := b.tracked.Value()
	if err != nil || name == "" {
		return nil, err
	}
	return b.collection.Get(name.String())
}

// IsTracking reports whether the branch has an existing upstream
func (b *Branch) IsTracking() (bool, error) {
	tracked, err := b.TrackedBranch()
	if err != nil {
		return false, err
	}
	return tracked != nil, nil
}

// AheadBy returns how many commits the branch has that its upstream does not.
// It is nil when the branch is not tracking or the two share no history.
func (b *Branch) AheadBy() (*int, error) {
	return b.aheadBy.Value()
}

// BehindBy returns how many commits the upstream has that the branch does not.
// It is nil when the branch is not tracking or the two share no history.
func (b *Branch) BehindBy() (*int, error) {
	return b.behindBy.Value()
}

// IsCurrentRepositoryHead reports whether HEAD points at this branch
func (b *Branch) IsCurrentRepositoryHead() (bool, error) {
	target, err := b.store.HeadTarget()
	if err != nil {
		return false, err
	}
	return target == b.canonical, nil
}

// Commits walks the history of the tip, newest first. It returns nil for an
// unborn branch.
func (b *Branch) Commits() (object.CommitIter, error) {
	tip, err := b.Tip()
	if err != nil || tip == nil {
		return nil, err
	}
	return b.store.CommitsReachable(tip.Hash, plumbing.ZeroHash)
}

// Remote returns the remote the branch belongs to or tracks. It is empty for
// a local branch with no upstream, one tracking a local branch, or when the
// named remote is not configured.
func (b *Branch) Remote() (string, error) {
	var remote string
	if b.IsRemote() {
		if u, ok := ParseUpstream(b.canonical.String()).(RemoteUpstream); ok {
			remote = u.Remote
		}
	} else {
		configured, _, err := b.store.ConfigGet(b.configKey("remote"))
		if err != nil {
			return "", err
		}
		remote = configured
	}
	if remote == "" || remote == git.LocalRemote {
		return "", nil
	}

	exists, err := b.store.RemoteExists(remote)
	if err != nil || !exists {
		return "", err
	}
	return remote, nil
}

// SetUpstreamTo makes upstream the tracked branch. The remote of a remote
// upstream must exist; nothing is written otherwise.
func (b *Branch) SetUpstreamTo(upstream *Branch) error {
	if b.IsRemote() {
		return fmt.Errorf("cannot set the upstream of %s: %w", b.canonical, treelineerrors.ErrRemoteBranch)
	}
	if upstream == nil {
		return fmt.Errorf("upstream of %s: %w", b.canonical, treelineerrors.ErrInvalidArgument)
	}

	var remote string
	var merge plumbing.ReferenceName
	switch target := ParseUpstream(upstream.CanonicalName().String()).(type) {
	case LocalUpstream:
		remote, merge = target.RemoteName(), target.MergeRef()
	case RemoteUpstream:
		exists, err := b.store.RemoteExists(target.Remote)
		if err != nil {
			return err
		}
		if !exists {
			return treelineerrors.NewRemoteNotFoundError(target.Remote, upstream.CanonicalName().String())
		}
		remote, merge = target.RemoteName(), target.MergeRef()
	case MalformedUpstream:
		return treelineerrors.NewUpstreamParseError(target.Name)
	}

	if err := b.store.ConfigSet(b.configKey("remote"), remote); err != nil {
		return err
	}
	return b.store.ConfigSet(b.configKey("merge"), merge.String())
}

// UnsetUpstream removes the tracking configuration. A branch that tracks
// nothing is left as it is.
func (b *Branch) UnsetUpstream() error {
	if b.IsRemote() {
		return fmt.Errorf("cannot unset the upstream of %s: %w", b.canonical, treelineerrors.ErrRemoteBranch)
	}
	if err := b.store.ConfigUnset(b.configKey("remote")); err != nil {
		return err
	}
	return b.store.ConfigUnset(b.configKey("merge"))
}

func (b *Branch) configKey(field string) string {
	return fmt.Sprintf("branch.%s.%s", b.canonical.Short(), field)
}

func (b *Branch) String() string {
	return b.Name()
}
