package git

import (
	"errors"
	"fmt"
	"os"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	format "github.com/go-git/go-git/v5/plumbing/format/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const gitmodulesFile = ".gitmodules"

// SubmoduleHandle is everything the store knows about one submodule, loaded in
// a single round trip. It is only valid until Close.
type SubmoduleHandle struct {
	Name string
	// Config is the submodule entry as go-git parsed it
	Config *config.Submodule
	// Status carries the index and working directory commit ids
	Status *gogit.SubmoduleStatus
	// HeadCommitID is the gitlink in HEAD's tree; zero when absent
	HeadCommitID plumbing.Hash
	// InConfig reports whether .git/config has an entry for the submodule
	InConfig bool
	// Options are the .gitmodules options overlaid with .git/config
	Options *format.Subsection

	closed bool
}

// Option returns the effective value of a submodule option
func (h *SubmoduleHandle) Option(key string) string {
	if h.Options == nil {
		return ""
	}
	return h.Options.Option(key)
}

// Close invalidates the handle. Closing twice is a no-op.
func (h *SubmoduleHandle) Close() {
	if h.closed {
		return
	}
	h.closed = true
	h.Status = nil
	h.Options = nil
}

// Closed reports whether Close has been called
func (h *SubmoduleHandle) Closed() bool {
	return h.closed
}

// SubmoduleNames returns the names of every submodule declared in .gitmodules
func (r *Repository) SubmoduleNames() ([]string, error) {
	wt, err := r.Worktree()
	if errors.Is(err, gogit.ErrIsBareRepository) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	subs, err := wt.Submodules()
	if err != nil {
		return nil, fmt.Errorf("failed to list submodules: %w", err)
	}

	names := make([]string, 0, len(subs))
	for _, sub := range subs {
		names = append(names, sub.Config().Name)
	}
	return names, nil
}

// OpenSubmodule loads the submodule with the given name. It returns an error
// wrapping gogit.ErrSubmoduleNotFound when no such submodule is declared.
func (r *Repository) OpenSubmodule(name string) (*SubmoduleHandle, error) {
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	sub, err := wt.Submodule(name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up submodule %s: %w", name, err)
	}

	status, err := sub.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status of submodule %s: %w", name, err)
	}

	handle := &SubmoduleHandle{
		Name:    name,
		Config:  sub.Config(),
		Status:  status,
		Options: &format.Subsection{Name: name},
	}

	if handle.HeadCommitID, err = r.headGitlink(sub.Config().Path); err != nil {
		return nil, err
	}

	if err := r.loadSubmoduleOptions(wt, handle); err != nil {
		return nil, err
	}

	return handle, nil
}

// headGitlink returns the commit recorded for path in HEAD's tree
func (r *Repository) headGitlink(path string) (plumbing.Hash, error) {
	head, err := r.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.ZeroHash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get HEAD: %w", err)
	}

	commit, err := r.CommitObject(head.Hash())
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get HEAD commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get HEAD tree: %w", err)
	}

	entry, err := tree.FindEntry(path)
	if errors.Is(err, object.ErrEntryNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
		return plumbing.ZeroHash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to find %s in HEAD: %w", path, err)
	}
	if entry.Mode != filemode.Submodule {
		return plumbing.ZeroHash, nil
	}
	return entry.Hash, nil
}

// loadSubmoduleOptions merges the raw .gitmodules entry with the one in
// .git/config; later options win, so .git/config overrides.
func (r *Repository) loadSubmoduleOptions(wt *gogit.Worktree, handle *SubmoduleHandle) error {
	f, err := wt.Filesystem.Open(gitmodulesFile)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to open %s: %w", gitmodulesFile, err)
	}
	if err == nil {
		defer f.Close()
		modules := format.New()
		if err := format.NewDecoder(f).Decode(modules); err != nil {
			return fmt.Errorf("failed to parse %s: %w", gitmodulesFile, err)
		}
		appendSubmoduleOptions(handle.Options, modules, handle.Name)
	}

	cfg, err := r.Config()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	_, handle.InConfig = cfg.Submodules[handle.Name]
	appendSubmoduleOptions(handle.Options, cfg.Raw, handle.Name)
	return nil
}

func appendSubmoduleOptions(dst *format.Subsection, src *format.Config, name string) {
	if !src.HasSection("submodule") {
		return
	}
	section := src.Section("submodule")
	if !section.HasSubsection(name) {
		return
	}
	dst.Options = append(dst.Options, section.Subsection(name).Options...)
}
