package engine

import (
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"treeline.dev/treeline/internal/git"
)

const (
	localBranchPrefix  = "refs/heads/"
	remoteBranchPrefix = "refs/remotes/"
)

// UpstreamTarget is the result of ParseUpstream. It is one of LocalUpstream,
// RemoteUpstream or MalformedUpstream.
type UpstreamTarget interface {
	upstreamTarget()
}

// LocalUpstream is a branch of the same repository
type LocalUpstream struct {
	Branch string
}

// RemoteUpstream is a remote-tracking branch
type RemoteUpstream struct {
	Remote string
	Branch string
}

// MalformedUpstream is a canonical name of any other shape
type MalformedUpstream struct {
	Name string
}

func (LocalUpstream) upstreamTarget()     {}
func (RemoteUpstream) upstreamTarget()    {}
func (MalformedUpstream) upstreamTarget() {}

// RemoteName returns the value of branch.<name>.remote for a local upstream
func (LocalUpstream) RemoteName() string {
	return git.LocalRemote
}

// MergeRef returns the value of branch.<name>.merge
func (u LocalUpstream) MergeRef() plumbing.ReferenceName {
	return plumbing.NewBranchReferenceName(u.Branch)
}

// RemoteName returns the value of branch.<name>.remote
func (u RemoteUpstream) RemoteName() string {
	return u.Remote
}

// MergeRef returns the value of branch.<name>.merge
func (u RemoteUpstream) MergeRef() plumbing.ReferenceName {
	return plumbing.NewBranchReferenceName(u.Branch)
}

// ParseUpstream classifies the canonical name of a branch that is about to
// become an upstream. refs/heads/<b> is local; refs/remotes/<remote>/<b> is
// remote. Anything else, including an empty remote or branch, is malformed.
func ParseUpstream(canonicalName string) UpstreamTarget {
	if short, ok := strings.CutPrefix(canonicalName, localBranchPrefix); ok {
		if short == "" {
			return MalformedUpstream{Name: canonicalName}
		}
		return LocalUpstream{Branch: short}
	}

	if rest, ok := strings.CutPrefix(canonicalName, remoteBranchPrefix); ok {
		remote, branch, found := strings.Cut(rest, "/")
		if !found || remote == "" || branch == "" {
			return MalformedUpstream{Name: canonicalName}
		}
		return RemoteUpstream{Remote: remote, Branch: branch}
	}

	return MalformedUpstream{Name: canonicalName}
}
