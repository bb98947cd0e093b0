package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// NotesRefPrefix is the reference namespace notes live under
const NotesRefPrefix = "refs/notes/"

// NoteData is a note read from a notes reference
type NoteData struct {
	BlobID    plumbing.Hash
	Namespace plumbing.ReferenceName
	Target    plumbing.Hash
	Message   string
}

// ReadNote reads the note attached to target in the given notes reference.
// It returns nil when the namespace does not exist or holds no note for target.
func (r *Repository) ReadNote(namespace plumbing.ReferenceName, target plumbing.Hash) (*NoteData, error) {
	ref, err := r.ResolveReference(namespace)
	if err != nil || ref == nil {
		return nil, err
	}

	commit, err := r.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get notes commit for %s: %w", namespace, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get notes tree for %s: %w", namespace, err)
	}

	entry, err := findNoteEntry(tree, target.String())
	if err != nil || entry == nil {
		return nil, err
	}

	blob, err := r.BlobObject(entry.Hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get note blob %s: %w", entry.Hash, err)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open note blob %s: %w", entry.Hash, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read note blob %s: %w", entry.Hash, err)
	}

	return &NoteData{
		BlobID:    entry.Hash,
		Namespace: namespace,
		Target:    target,
		Message:   string(content),
	}, nil
}

// ListNotesRefs returns every notes reference in the repository
func (r *Repository) ListNotesRefs() ([]plumbing.ReferenceName, error) {
	refs, err := r.ListReferences(NotesRefPrefix)
	if err != nil {
		return nil, err
	}

	names := make([]plumbing.ReferenceName, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name())
	}
	return names, nil
}

// WriteNote creates or overwrites the note attached to target
func (r *Repository) WriteNote(ctx context.Context, namespace plumbing.ReferenceName, target plumbing.Hash, message string, author, committer object.Signature) error {
	_, err := r.runner.RunWithEnv(ctx, signatureEnv(author, committer),
		"notes", "--ref", namespace.String(), "add", "-f", "-m", message, target.String())
	if err != nil {
		return fmt.Errorf("failed to write note on %s in %s: %w", target, namespace, err)
	}
	return nil
}

// RemoveNote removes the note attached to target. A missing note is not an error.
func (r *Repository) RemoveNote(ctx context.Context, namespace plumbing.ReferenceName, target plumbing.Hash, author, committer object.Signature) error {
	_, err := r.runner.RunWithEnv(ctx, signatureEnv(author, committer),
		"notes", "--ref", namespace.String(), "remove", "--ignore-missing", target.String())
	if err != nil {
		return fmt.Errorf("failed to remove note on %s in %s: %w", target, namespace, err)
	}
	return nil
}

// findNoteEntry locates the blob for hex in a notes tree, trying each fanout
// depth (ab/cdef..., ab/cd/ef...) git may have used
func findNoteEntry(tree *object.Tree, hex string) (*object.TreeEntry, error) {
	for fanout := 0; 2*fanout < len(hex); fanout++ {
		parts := make([]string, 0, fanout+1)
		rest := hex
		for i := 0; i < fanout; i++ {
			parts = append(parts, rest[:2])
			rest = rest[2:]
		}
		parts = append(parts, rest)

		entry, err := tree.FindEntry(strings.Join(parts, "/"))
		switch {
		case err == nil:
			if entry.Mode.IsFile() {
				return entry, nil
			}
		case errors.Is(err, object.ErrDirectoryNotFound):
			// No deeper fanout can exist either
			return nil, nil
		case errors.Is(err, object.ErrEntryNotFound):
		default:
			return nil, fmt.Errorf("failed to search notes tree: %w", err)
		}
	}
	return nil, nil
}

func signatureEnv(author, committer object.Signature) []string {
	return []string{
		"GIT_AUTHOR_NAME=" + author.Name,
		"GIT_AUTHOR_EMAIL=" + author.Email,
		"GIT_AUTHOR_DATE=" + signatureDate(author),
		"GIT_COMMITTER_NAME=" + committer.Name,
		"GIT_COMMITTER_EMAIL=" + committer.Email,
		"GIT_COMMITTER_DATE=" + signatureDate(committer),
	}
}

func signatureDate(sig object.Signature) string {
	when := sig.When
	if when.IsZero() {
		when = time.Now()
	}
	return when.Format(time.RFC3339)
}
