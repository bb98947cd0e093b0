package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/binary"

	"treeline.dev/treeline/internal/lazy"
)

// Blob is file content stored in the object database
type Blob struct {
	store ObjectStore
	id    plumbing.Hash
	path  string

	group    *lazy.Group[*object.Blob]
	size     lazy.Lazy[int64]
	isBinary *lazy.Attribute[bool]
}

func newBlob(store ObjectStore, id plumbing.Hash, logger *slog.Logger) *Blob {
	b := buildBlob(store, id, logger)
	b.size = lazy.Register(b.group, "size", func(h *object.Blob) (int64, error) {
		return h.Size, nil
	})
	return b
}

// newBlobWithSize builds a blob whose size is already known, e.g. from a tree
// listing. Reading Size never opens the object.
func newBlobWithSize(store ObjectStore, id plumbing.Hash, path string, size int64, logger *slog.Logger) *Blob {
	b := buildBlob(store, id, logger)
	b.path = path
	b.size = lazy.Singleton(size)
	return b
}

func buildBlob(store ObjectStore, id plumbing.Hash, logger *slog.Logger) *Blob {
	b := &Blob{store: store, id: id}
	b.group = lazy.NewGroup[*object.Blob](id.String(), lazy.AcquirerFuncs[*object.Blob]{
		AcquireFunc: func() (*object.Blob, error) {
			return store.BlobObject(id)
		},
	}, groupOptions(logger)...)

	b.isBinary = lazy.Register(b.group, "is_binary", func(h *object.Blob) (bool, error) {
		r, err := h.Reader()
		if err != nil {
			return false, err
		}
		defer r.Close()
		return binary.IsBinary(r)
	})
	return b
}

// ID returns the object id
func (b *Blob) ID() plumbing.Hash {
	return b.id
}

// Path returns the path the blob was listed under, empty when looked up by id
func (b *Blob) Path() string {
	return b.path
}

// Size returns the content size in bytes
func (b *Blob) Size() (int64, error) {
	return b.size.Value()
}

// IsBinary reports whether the content looks binary
func (b *Blob) IsBinary() (bool, error) {
	return b.isBinary.Value()
}

// Retry allows a new attempt after the object could not be read
func (b *Blob) Retry() {
	b.group.Retry()
}

// ContentStream opens the content for reading. The caller must close it.
// Every call reads the object again.
func (b *Blob) ContentStream() (io.ReadCloser, error) {
	obj, err := b.store.BlobObject(b.id)
	if err != nil {
		return nil, fmt.Errorf("failed to get blob %s: %w", b.id, err)
	}
	return obj.Reader()
}

// Content reads the whole content
func (b *Blob) Content() ([]byte, error) {
	r, err := b.ContentStream()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", b.id, err)
	}
	return data, nil
}

func (b *Blob) String() string {
	return b.id.String()
}
