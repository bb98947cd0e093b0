package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	treelineerrors "treeline.dev/treeline/internal/errors"
	"treeline.dev/treeline/internal/git"
)

// DefaultNotesNamespace is the namespace git uses when none is given
const DefaultNotesNamespace = git.NotesRefPrefix + "commits"

// CanonicalizeNamespace prefixes ns with refs/notes/ unless it already is
func CanonicalizeNamespace(ns string) string {
	if strings.HasPrefix(ns, git.NotesRefPrefix) {
		return ns
	}
	return git.NotesRefPrefix + ns
}

// ShortenNamespace strips the refs/notes/ prefix
func ShortenNamespace(ns string) string {
	return strings.TrimPrefix(ns, git.NotesRefPrefix)
}

// Note is a message attached to a commit
type Note struct {
	// BlobID is the id of the blob holding the message
	BlobID plumbing.Hash
	// Namespace is the short namespace, e.g. commits
	Namespace string
	// Message is the note text as stored. git normalizes it to end in a
	// single newline.
	Message string
	// TargetID is the commit the note is attached to
	TargetID plumbing.Hash
}

// Equal compares blob id, namespace and target
func (n *Note) Equal(other *Note) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.BlobID == other.BlobID && n.Namespace == other.Namespace && n.TargetID == other.TargetID
}

func newNote(data *git.NoteData) *Note {
	return &Note{
		BlobID:    data.BlobID,
		Namespace: ShortenNamespace(data.Namespace.String()),
		Message:   data.Message,
		TargetID:  data.Target,
	}
}

// NoteCollection is the set of notes attached to one commit
type NoteCollection struct {
	store  NoteStore
	target plumbing.Hash
}

func newNoteCollection(store NoteStore, target plumbing.Hash) *NoteCollection {
	return &NoteCollection{store: store, target: target}
}

// Target returns the commit the collection belongs to
func (c *NoteCollection) Target() plumbing.Hash {
	return c.target
}

// Get returns the note in namespace ns (short or canonical), or nil when there
// is none
func (c *NoteCollection) Get(ns string) (*Note, error) {
	canonical, err := canonicalNamespace(ns)
	if err != nil {
		return nil, err
	}
	data, err := c.store.ReadNote(canonical, c.target)
	if err != nil || data == nil {
		return nil, err
	}
	return newNote(data), nil
}

// Default returns the note in refs/notes/commits, or nil
func (c *NoteCollection) Default() (*Note, error) {
	return c.Get(DefaultNotesNamespace)
}

// All returns the note of every namespace that has one for the commit, in
// namespace order
func (c *NoteCollection) All() ([]*Note, error) {
	namespaces, err := c.store.ListNotesRefs()
	if err != nil {
		return nil, err
	}

	var notes []*Note
	for _, ns := range namespaces {
		data, err := c.store.ReadNote(ns, c.target)
		if err != nil {
			return nil, err
		}
		if data != nil {
			notes = append(notes, newNote(data))
		}
	}
	return notes, nil
}

// Add attaches a new note. It fails with ErrAlreadyExists when the namespace
// already holds a note for the commit.
func (c *NoteCollection) Add(ctx context.Context, message string, author, committer object.Signature, ns string) (*Note, error) {
	existing, err := c.Get(ns)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("note on %s in %s: %w", c.target, CanonicalizeNamespace(ns), treelineerrors.ErrAlreadyExists)
	}
	return c.write(ctx, message, author, committer, ns)
}

// Edit attaches a note, replacing any note already in the namespace
func (c *NoteCollection) Edit(ctx context.Context, message string, author, committer object.Signature, ns string) (*Note, error) {
	return c.write(ctx, message, author, committer, ns)
}

// Delete removes the note in the namespace. A missing note is not an error.
func (c *NoteCollection) Delete(ctx context.Context, author, committer object.Signature, ns string) error {
	canonical, err := canonicalNamespace(ns)
	if err != nil {
		return err
	}
	existing, err := c.store.ReadNote(canonical, c.target)
	if err != nil || existing == nil {
		return err
	}
	return c.store.RemoveNote(ctx, canonical, c.target, author, committer)
}

func (c *NoteCollection) write(ctx context.Context, message string, author, committer object.Signature, ns string) (*Note, error) {
	if message == "" {
		return nil, fmt.Errorf("note message: %w", treelineerrors.ErrInvalidArgument)
	}
	canonical, err := canonicalNamespace(ns)
	if err != nil {
		return nil, err
	}

	if err := c.store.WriteNote(ctx, canonical, c.target, message, author, committer); err != nil {
		return nil, err
	}

	data, err := c.store.ReadNote(canonical, c.target)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("note on %s in %s vanished after writing: %w", c.target, canonical, treelineerrors.ErrNotFound)
	}
	return newNote(data), nil
}

func canonicalNamespace(ns string) (plumbing.ReferenceName, error) {
	if ns == "" || ns == git.NotesRefPrefix {
		return "", fmt.Errorf("notes namespace: %w", treelineerrors.ErrInvalidArgument)
	}
	return plumbing.ReferenceName(CanonicalizeNamespace(ns)), nil
}
