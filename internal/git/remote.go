package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// LocalRemote is the remote name git uses for an upstream in the same repository
const LocalRemote = "."

// RemoteExists reports whether a remote with the given name is configured
func (r *Repository) RemoteExists(name string) (bool, error) {
	_, err := r.Remote(name)
	if errors.Is(err, gogit.ErrRemoteNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up remote %s: %w", name, err)
	}
	return true, nil
}

// Upstream returns the reference a local branch is configured to track, or nil
// when the branch has no upstream or the upstream reference does not exist.
func (r *Repository) Upstream(local plumbing.ReferenceName) (*plumbing.Reference, error) {
	if !local.IsBranch() {
		return nil, nil
	}

	cfg, err := r.Config()
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	b, ok := cfg.Branches[local.Short()]
	if !ok || b.Remote == "" || b.Merge == "" {
		return nil, nil
	}

	var upstream plumbing.ReferenceName
	if b.Remote == LocalRemote {
		upstream = b.Merge
	} else {
		remote, ok := cfg.Remotes[b.Remote]
		if !ok {
			return nil, nil
		}
		// Map the merge ref through the remote's fetch refspecs
		for _, spec := range remote.Fetch {
			if spec.Match(b.Merge) {
				upstream = spec.Dst(b.Merge)
				break
			}
		}
		if upstream == "" {
			return nil, nil
		}
	}

	return r.LookupReference(upstream)
}
