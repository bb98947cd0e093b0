package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	treelineerrors "treeline.dev/treeline/internal/errors"
	"treeline.dev/treeline/internal/git"
	"treeline.dev/treeline/internal/lazy"
)

// Repository is the entry point of the object model. It hands out fresh
// entities on every call; nothing is cached between calls.
type Repository struct {
	store  Store
	logger *slog.Logger
}

// Option configures a Repository
type Option func(*Repository)

// WithLogger sets the logger entities pass to their lazy groups
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRepository creates a Repository over store
func NewRepository(store Store, opts ...Option) *Repository {
	r := &Repository{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open opens the git repository containing path
func Open(path string, opts ...Option) (*Repository, error) {
	repo, err := git.OpenRepository(path)
	if err != nil {
		return nil, err
	}
	return NewRepository(repo, opts...), nil
}

// Store returns the underlying store
func (r *Repository) Store() Store {
	return r.store
}

// Branches returns a fresh branch collection
func (r *Repository) Branches() *BranchCollection {
	return newBranchCollection(r.store, r.logger)
}

// Submodules returns a fresh submodule collection
func (r *Repository) Submodules() *SubmoduleCollection {
	return &SubmoduleCollection{store: r.store, logger: r.logger}
}

// Notes returns the notes attached to the commit named by rev
func (r *Repository) Notes(rev string) (*NoteCollection, error) {
	hash, err := r.store.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rev, err)
	}
	return newNoteCollection(r.store, *hash), nil
}

// NotesFor returns the notes attached to the commit target
func (r *Repository) NotesFor(target plumbing.Hash) *NoteCollection {
	return newNoteCollection(r.store, target)
}

// Blob returns the blob with the given id. The object is not read until an
// attribute is requested.
func (r *Repository) Blob(id plumbing.Hash) *Blob {
	return newBlob(r.store, id, r.logger)
}

// LookupBlob resolves rev (an object id, or <commit>:<path>) to a blob
func (r *Repository) LookupBlob(rev string) (*Blob, error) {
	if plumbing.IsHash(rev) {
		return r.Blob(plumbing.NewHash(rev)), nil
	}

	commitRev, path, ok := strings.Cut(rev, ":")
	if !ok || commitRev == "" || path == "" {
		return nil, fmt.Errorf("%s is neither a blob id nor <commit>:<path>", rev)
	}

	files, err := r.Files(commitRev)
	if err != nil {
		return nil, err
	}
	for _, b := range files {
		if b.Path() == path {
			return b, nil
		}
	}
	return nil, fmt.Errorf("path %s in %s: %w", path, commitRev, treelineerrors.ErrNotFound)
}

// Files lists every blob in the tree of the commit named by rev. The sizes come
// from the object headers read during the listing, so Size never reopens them.
func (r *Repository) Files(rev string) ([]*Blob, error) {
	hash, err := r.store.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rev, err)
	}

	commit, err := r.store.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", hash, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree of %s: %w", hash, err)
	}

	var blobs []*Blob
	files := tree.Files()
	defer files.Close()
	for {
		f, err := files.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to walk tree of %s: %w", hash, err)
		}
		blobs = append(blobs, newBlobWithSize(r.store, f.Hash, f.Name, f.Size, r.logger))
	}
	return blobs, nil
}

// Head returns the commit HEAD resolves to, or nil for an unborn HEAD
func (r *Repository) Head() (*object.Commit, error) {
	ref, err := r.store.ResolveReference(plumbing.HEAD)
	if err != nil || ref == nil {
		return nil, err
	}
	return r.store.CommitObject(ref.Hash())
}

func groupOptions(logger *slog.Logger) []lazy.Option {
	return []lazy.Option{lazy.WithLogger(logger)}
}
