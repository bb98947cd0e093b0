package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"treeline.dev/treeline/internal/git"
	"treeline.dev/treeline/internal/lazy"
)

// SubmoduleIgnore is the submodule.<name>.ignore rule
type SubmoduleIgnore int

const (
	// IgnoreUnset means no rule is configured
	IgnoreUnset SubmoduleIgnore = iota
	// IgnoreNone reports every change
	IgnoreNone
	// IgnoreUntracked ignores untracked files in the submodule
	IgnoreUntracked
	// IgnoreDirty ignores any working directory change
	IgnoreDirty
	// IgnoreAll ignores the submodule entirely
	IgnoreAll
)

var ignoreNames = map[string]SubmoduleIgnore{
	"":          IgnoreUnset,
	"none":      IgnoreNone,
	"untracked": IgnoreUntracked,
	"dirty":     IgnoreDirty,
	"all":       IgnoreAll,
}

func (i SubmoduleIgnore) String() string {
	for name, v := range ignoreNames {
		if v == i && name != "" {
			return name
		}
	}
	return "unset"
}

// SubmoduleUpdate is the submodule.<name>.update rule
type SubmoduleUpdate int

const (
	// UpdateUnset means no rule is configured
	UpdateUnset SubmoduleUpdate = iota
	// UpdateCheckout checks out the recorded commit
	UpdateCheckout
	// UpdateRebase rebases the current branch onto the recorded commit
	UpdateRebase
	// UpdateMerge merges the recorded commit
	UpdateMerge
	// UpdateNone leaves the submodule alone
	UpdateNone
)

var updateNames = map[string]SubmoduleUpdate{
	"":         UpdateUnset,
	"checkout": UpdateCheckout,
	"rebase":   UpdateRebase,
	"merge":    UpdateMerge,
	"none":     UpdateNone,
}

func (u SubmoduleUpdate) String() string {
	for name, v := range updateNames {
		if v == u && name != "" {
			return name
		}
	}
	return "unset"
}

// SubmoduleStatus is a set of status flags
type SubmoduleStatus uint32

const (
	// StatusInHead means HEAD's tree records the submodule
	StatusInHead SubmoduleStatus = 1 << iota
	// StatusInIndex means the index records the submodule
	StatusInIndex
	// StatusInConfig means .git/config has an entry for it
	StatusInConfig
	// StatusInWorkDir means the submodule is checked out
	StatusInWorkDir
	// StatusIndexAdded means the index records it but HEAD does not
	StatusIndexAdded
	// StatusIndexDeleted means HEAD records it but the index does not
	StatusIndexDeleted
	// StatusIndexModified means the index and HEAD record different commits
	StatusIndexModified
	// StatusWorkDirUninitialized means it is declared but not checked out
	StatusWorkDirUninitialized
	// StatusWorkDirModified means the checked out commit differs from the index
	StatusWorkDirModified
)

var statusNames = []struct {
	flag SubmoduleStatus
	name string
}{
	{StatusInHead, "in-head"},
	{StatusInIndex, "in-index"},
	{StatusInConfig, "in-config"},
	{StatusInWorkDir, "in-workdir"},
	{StatusIndexAdded, "index-added"},
	{StatusIndexDeleted, "index-deleted"},
	{StatusIndexModified, "index-modified"},
	{StatusWorkDirUninitialized, "workdir-uninitialized"},
	{StatusWorkDirModified, "workdir-modified"},
}

// Has reports whether every flag in f is set
func (s SubmoduleStatus) Has(f SubmoduleStatus) bool {
	return s&f == f
}

func (s SubmoduleStatus) String() string {
	var names []string
	for _, n := range statusNames {
		if s.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// SubmoduleKey is the value submodules are compared by
type SubmoduleKey struct {
	Name         string
	HeadCommitID plumbing.Hash
}

// Submodule is a repository nested in the working tree
type Submodule struct {
	name  string
	group *lazy.Group[*git.SubmoduleHandle]

	path            *lazy.Attribute[string]
	url             *lazy.Attribute[string]
	indexCommitID   *lazy.Attribute[plumbing.Hash]
	headCommitID    *lazy.Attribute[plumbing.Hash]
	workDirCommitID *lazy.Attribute[plumbing.Hash]
	ignore          *lazy.Attribute[SubmoduleIgnore]
	update          *lazy.Attribute[SubmoduleUpdate]
	fetchRecurse    *lazy.Attribute[bool]
	status          *lazy.Attribute[SubmoduleStatus]
}

func newSubmodule(store SubmoduleStore, name string, logger *slog.Logger) *Submodule {
	s := &Submodule{name: name}
	s.group = lazy.NewGroup[*git.SubmoduleHandle](name, lazy.AcquirerFuncs[*git.SubmoduleHandle]{
		AcquireFunc: func() (*git.SubmoduleHandle, error) {
			return store.OpenSubmodule(name)
		},
		ReleaseFunc: func(h *git.SubmoduleHandle) {
			h.Close()
		},
	}, groupOptions(logger)...)

	s.path = lazy.Register(s.group, "path", func(h *git.SubmoduleHandle) (string, error) {
		return h.Config.Path, nil
	})
	s.url = lazy.Register(s.group, "url", func(h *git.SubmoduleHandle) (string, error) {
		return h.Option("url"), nil
	})
	s.indexCommitID = lazy.Register(s.group, "index_commit_id", func(h *git.SubmoduleHandle) (plumbing.Hash, error) {
		return h.Status.Expected, nil
	})
	s.headCommitID = lazy.Register(s.group, "head_commit_id", func(h *git.SubmoduleHandle) (plumbing.Hash, error) {
		return h.HeadCommitID, nil
	})
	s.workDirCommitID = lazy.Register(s.group, "workdir_commit_id", func(h *git.SubmoduleHandle) (plumbing.Hash, error) {
		return h.Status.Current, nil
	})
	s.ignore = lazy.Register(s.group, "ignore", func(h *git.SubmoduleHandle) (SubmoduleIgnore, error) {
		return ParseSubmoduleIgnore(h.Option("ignore"))
	})
	s.update = lazy.Register(s.group, "update", func(h *git.SubmoduleHandle) (SubmoduleUpdate, error) {
		return ParseSubmoduleUpdate(h.Option("update"))
	})
	s.fetchRecurse = lazy.Register(s.group, "fetch_recurse_submodules", func(h *git.SubmoduleHandle) (bool, error) {
		return parseFetchRecurse(h.Option("fetchRecurseSubmodules"))
	})
	s.status = lazy.Register(s.group, "status", func(h *git.SubmoduleHandle) (SubmoduleStatus, error) {
		return submoduleStatus(h), nil
	})
	return s
}

// ParseSubmoduleIgnore parses a submodule ignore rule
func ParseSubmoduleIgnore(value string) (SubmoduleIgnore, error) {
	rule, ok := ignoreNames[strings.ToLower(value)]
	if !ok {
		return IgnoreUnset, fmt.Errorf("unknown ignore rule %q", value)
	}
	return rule, nil
}

// ParseSubmoduleUpdate parses a submodule update rule
func ParseSubmoduleUpdate(value string) (SubmoduleUpdate, error) {
	rule, ok := updateNames[strings.ToLower(value)]
	if !ok {
		return UpdateUnset, fmt.Errorf("unknown update rule %q", value)
	}
	return rule, nil
}

func parseFetchRecurse(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "":
		return false, nil
	case "on-demand":
		return true, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("unknown fetchRecurseSubmodules value %q", value)
	}
	return b, nil
}

func submoduleStatus(h *git.SubmoduleHandle) SubmoduleStatus {
	var s SubmoduleStatus
	head := h.HeadCommitID
	index := h.Status.Expected
	workdir := h.Status.Current

	if !head.IsZero() {
		s |= StatusInHead
	}
	if !index.IsZero() {
		s |= StatusInIndex
	}
	if h.InConfig {
		s |= StatusInConfig
	}
	if workdir.IsZero() {
		s |= StatusWorkDirUninitialized
	} else {
		s |= StatusInWorkDir
	}

	switch {
	case head.IsZero() && !index.IsZero():
		s |= StatusIndexAdded
	case !head.IsZero() && index.IsZero():
		s |= StatusIndexDeleted
	case head != index:
		s |= StatusIndexModified
	}

	if !workdir.IsZero() && !index.IsZero() && workdir != index {
		s |= StatusWorkDirModified
	}
	return s
}

// Name returns the submodule name
func (s *Submodule) Name() string {
	return s.name
}

// Path returns the path of the submodule relative to the working tree
func (s *Submodule) Path() (string, error) {
	return s.path.Value()
}

// URL returns the effective remote url
func (s *Submodule) URL() (string, error) {
	return s.url.Value()
}

// IndexCommitID returns the commit recorded in the index
func (s *Submodule) IndexCommitID() (plumbing.Hash, error) {
	return s.indexCommitID.Value()
}

// HeadCommitID returns the commit recorded in HEAD's tree, zero when absent
func (s *Submodule) HeadCommitID() (plumbing.Hash, error) {
	return s.headCommitID.Value()
}

// WorkDirCommitID returns the commit checked out in the working tree, zero
// when the submodule is not initialized
func (s *Submodule) WorkDirCommitID() (plumbing.Hash, error) {
	return s.workDirCommitID.Value()
}

// IgnoreRule returns the configured ignore rule
func (s *Submodule) IgnoreRule() (SubmoduleIgnore, error) {
	return s.ignore.Value()
}

// UpdateRule returns the configured update rule
func (s *Submodule) UpdateRule() (SubmoduleUpdate, error) {
	return s.update.Value()
}

// FetchRecurseSubmodulesRule reports whether fetches recurse into the submodule
func (s *Submodule) FetchRecurseSubmodulesRule() (bool, error) {
	return s.fetchRecurse.Value()
}

// Status returns the status flags
func (s *Submodule) Status() (SubmoduleStatus, error) {
	return s.status.Value()
}

// Retry allows a new attempt after the submodule could not be opened
func (s *Submodule) Retry() {
	s.group.Retry()
}

// Key returns the value the submodule is compared by
func (s *Submodule) Key() (SubmoduleKey, error) {
	head, err := s.HeadCommitID()
	if err != nil {
		return SubmoduleKey{}, err
	}
	return SubmoduleKey{Name: s.name, HeadCommitID: head}, nil
}

// Equal compares name and head commit id. It is false when either side cannot
// be resolved.
func (s *Submodule) Equal(other *Submodule) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil || s.name != other.name {
		return false
	}
	a, err := s.Key()
	if err != nil {
		return false
	}
	b, err := other.Key()
	if err != nil {
		return false
	}
	return a == b
}

func (s *Submodule) String() string {
	return s.name
}

// SubmoduleCollection gives access to the submodules of a repository
type SubmoduleCollection struct {
	store  SubmoduleStore
	logger *slog.Logger
}

// Get returns the submodule with the given name, or nil when none is declared
func (c *SubmoduleCollection) Get(name string) (*Submodule, error) {
	names, err := c.store.SubmoduleNames()
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if n == name {
			return newSubmodule(c.store, name, c.logger), nil
		}
	}
	return nil, nil
}

// List returns every declared submodule sorted by name
func (c *SubmoduleCollection) List() ([]*Submodule, error) {
	names, err := c.store.SubmoduleNames()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	subs := make([]*Submodule, 0, len(names))
	for _, name := range names {
		subs = append(subs, newSubmodule(c.store, name, c.logger))
	}
	return subs, nil
}
