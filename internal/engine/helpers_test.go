package engine_test

import (
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"treeline.dev/treeline/internal/engine"
	"treeline.dev/treeline/internal/git"
	"treeline.dev/treeline/testhelpers"
)

const mainBranch = "main"

var testSignature = object.Signature{
	Name:  "Test User",
	Email: "test@example.com",
	When:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
}

// countingStore records how often the expensive store operations run
type countingStore struct {
	engine.Store

	mu              sync.Mutex
	blobReads       int
	commonAncestors int
	reachableWalks  int
	submoduleOpens  int
	handles         []*git.SubmoduleHandle

	failBlobs      error
	failSubmodules error
}

func (s *countingStore) BlobObject(h plumbing.Hash) (*object.Blob, error) {
	s.mu.Lock()
	s.blobReads++
	fail := s.failBlobs
	s.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return s.Store.BlobObject(h)
}

func (s *countingStore) FindCommonAncestor(a, b plumbing.Hash) (*object.Commit, error) {
	s.mu.Lock()
	s.commonAncestors++
	s.mu.Unlock()
	return s.Store.FindCommonAncestor(a, b)
}

func (s *countingStore) CommitsReachable(since, until plumbing.Hash) (object.CommitIter, error) {
	s.mu.Lock()
	s.reachableWalks++
	s.mu.Unlock()
	return s.Store.CommitsReachable(since, until)
}

func (s *countingStore) OpenSubmodule(name string) (*git.SubmoduleHandle, error) {
	s.mu.Lock()
	s.submoduleOpens++
	fail := s.failSubmodules
	s.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	h, err := s.Store.OpenSubmodule(name)
	if err == nil {
		s.mu.Lock()
		s.handles = append(s.handles, h)
		s.mu.Unlock()
	}
	return h, err
}

type fixture struct {
	scene *testhelpers.Scene
	store *countingStore
	repo  *engine.Repository
}

func newFixture(t *testing.T, setup testhelpers.SceneSetup) *fixture {
	t.Helper()
	scene := testhelpers.NewScene(t, setup)
	gitRepo, err := git.OpenRepository(scene.Dir)
	require.NoError(t, err)

	store := &countingStore{Store: gitRepo}
	return &fixture{
		scene: scene,
		store: store,
		repo:  engine.NewRepository(store),
	}
}

func (f *fixture) revision(t *testing.T, rev string) plumbing.Hash {
	t.Helper()
	sha, err := f.scene.Repo.GetRevision(rev)
	require.NoError(t, err)
	return plumbing.NewHash(sha)
}

func (f *fixture) branch(t *testing.T, name string) *engine.Branch {
	t.Helper()
	b, err := f.repo.Branches().Get(name)
	require.NoError(t, err)
	require.NotNil(t, b, "branch %s", name)
	return b
}
