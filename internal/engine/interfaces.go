package engine

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"treeline.dev/treeline/internal/git"
)

// ReferenceStore provides read access to references
type ReferenceStore interface {
	LookupReference(name plumbing.ReferenceName) (*plumbing.Reference, error)  // nil when absent
	ResolveReference(name plumbing.ReferenceName) (*plumbing.Reference, error) // nil when absent
	ListReferences(prefix string) ([]*plumbing.Reference, error)
	HeadTarget() (plumbing.ReferenceName, error)
}

// ObjectStore provides access to objects by id
type ObjectStore interface {
	CommitObject(h plumbing.Hash) (*object.Commit, error)
	BlobObject(h plumbing.Hash) (*object.Blob, error)
	ResolveRevision(rev plumbing.Revision) (*plumbing.Hash, error)
}

// AncestryService answers commit graph questions. It never mutates the graph.
type AncestryService interface {
	// FindCommonAncestor returns nil when the two histories are unrelated
	FindCommonAncestor(a, b plumbing.Hash) (*object.Commit, error)
	// CommitsReachable walks commits reachable from since but not from until.
	// Every call walks again.
	CommitsReachable(since, until plumbing.Hash) (object.CommitIter, error)
}

// ConfigStore reads and writes repository configuration
type ConfigStore interface {
	Upstream(local plumbing.ReferenceName) (*plumbing.Reference, error) // nil when untracked
	RemoteExists(name string) (bool, error)
	ConfigGet(key string) (string, bool, error)
	ConfigSet(key, value string) error
	ConfigUnset(key string) error
}

// NoteStore reads and writes notes
type NoteStore interface {
	ReadNote(namespace plumbing.ReferenceName, target plumbing.Hash) (*git.NoteData, error) // nil when absent
	ListNotesRefs() ([]plumbing.ReferenceName, error)
	WriteNote(ctx context.Context, namespace plumbing.ReferenceName, target plumbing.Hash, message string, author, committer object.Signature) error
	RemoveNote(ctx context.Context, namespace plumbing.ReferenceName, target plumbing.Hash, author, committer object.Signature) error
}

// SubmoduleStore enumerates and opens submodules
type SubmoduleStore interface {
	SubmoduleNames() ([]string, error)
	OpenSubmodule(name string) (*git.SubmoduleHandle, error)
}

// BranchStore is what branches need from the repository
type BranchStore interface {
	ReferenceStore
	ObjectStore
	AncestryService
	ConfigStore
}

// Store is the full object store the engine is built on.
// *git.Repository implements it.
type Store interface {
	BranchStore
	NoteStore
	SubmoduleStore
}

var _ Store = (*git.Repository)(nil)
