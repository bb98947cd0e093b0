package engine_test

import (
	"errors"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"treeline.dev/treeline/internal/engine"
	treelineerrors "treeline.dev/treeline/internal/errors"
	"treeline.dev/treeline/internal/git"
	"treeline.dev/treeline/testhelpers"
)

// divergedTrackingSetup leaves feature tracking main, two commits ahead and
// one behind their merge base
func divergedTrackingSetup(s *testhelpers.Scene) error {
	if err := s.Repo.CreateChangeAndCommit("base", "base"); err != nil {
		return err
	}
	if err := s.Repo.CreateAndCheckoutBranch("feature"); err != nil {
		return err
	}
	if err := s.Repo.SetUpstream("feature", mainBranch); err != nil {
		return err
	}
	if err := s.Repo.CreateChangeAndCommit("f1", "f1"); err != nil {
		return err
	}
	if err := s.Repo.CreateChangeAndCommit("f2", "f2"); err != nil {
		return err
	}
	if err := s.Repo.CheckoutBranch(mainBranch); err != nil {
		return err
	}
	return s.Repo.CreateChangeAndCommit("m1", "m1")
}

func TestBranchNames(t *testing.T) {
	f := newFixture(t, func(s *testhelpers.Scene) error {
		if err := testhelpers.BasicSceneSetup(s); err != nil {
			return err
		}
		if _, err := s.Repo.CreateBareRemote("origin"); err != nil {
			return err
		}
		return s.Repo.PushBranch("origin", mainBranch)
	})

	local := f.branch(t, mainBranch)
	require.Equal(t, "main", local.Name())
	require.Equal(t, plumbing.ReferenceName("refs/heads/main"), local.CanonicalName())
	require.False(t, local.IsRemote())

	remote := f.branch(t, "origin/main")
	require.Equal(t, "origin/main", remote.Name())
	require.Equal(t, plumbing.ReferenceName("refs/remotes/origin/main"), remote.CanonicalName())
	require.True(t, remote.IsRemote())

	tip, err := remote.Tip()
	require.NoError(t, err)
	require.Equal(t, f.revision(t, mainBranch), tip.Hash)
}

func TestTrackedBranch(t *testing.T) {
	t.Run("is nil for an untracked branch", func(t *testing.T) {
		f := newFixture(t, testhelpers.BasicSceneSetup)
		b := f.branch(t, mainBranch)

		tracked, err := b.TrackedBranch()
		require.NoError(t, err)
		require.Nil(t, tracked)

		tracking, err := b.IsTracking()
		require.NoError(t, err)
		require.False(t, tracking)
	})

	t.Run("resolves a local upstream to the shared instance", func(t *testing.T) {
		f := newFixture(t, testhelpers.TrackingSceneSetup)
		branches := f.repo.Branches()
		feature, err := branches.Get("feature")
		require.NoError(t, err)

		tracked, err := feature.TrackedBranch()
		require.NoError(t, err)
		require.NotNil(t, tracked)
		require.Equal(t, "main", tracked.Name())

		main, err := branches.Get(mainBranch)
		require.NoError(t, err)
		require.Same(t, main, tracked)
	})

	t.Run("resolves a remote upstream", func(t *testing.T) {
		f := newFixture(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			if _, err := s.Repo.CreateBareRemote("origin"); err != nil {
				return err
			}
			return s.Repo.PushBranch("origin", mainBranch)
		})

		tracked, err := f.branch(t, mainBranch).TrackedBranch()
		require.NoError(t, err)
		require.NotNil(t, tracked)
		require.Equal(t, "origin/main", tracked.Name())
		require.True(t, tracked.IsRemote())
	})

	t.Run("is nil when the upstream reference is missing", func(t *testing.T) {
		f := newFixture(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.TrackingSceneSetup(s); err != nil {
				return err
			}
			return s.Repo.RunGitCommand("config", "branch.feature.merge", "refs/heads/gone")
		})

		tracked, err := f.branch(t, "feature").TrackedBranch()
		require.NoError(t, err)
		require.Nil(t, tracked)
	})

	t.Run("is resolved once", func(t *testing.T) {
		f := newFixture(t, testhelpers.TrackingSceneSetup)
		b := f.branch(t, "feature")

		first, err := b.TrackedBranch()
		require.NoError(t, err)
		require.NoError(t, f.scene.Repo.RunGitCommand("branch", "--unset-upstream", "feature"))

		second, err := b.TrackedBranch()
		require.NoError(t, err)
		require.Same(t, first, second)
	})
}

func TestAheadBehind(t *testing.T) {
	t.Run("untracked branches compute nothing", func(t *testing.T) {
		f := newFixture(t, testhelpers.BasicSceneSetup)
		b := f.branch(t, mainBranch)

		ahead, err := b.AheadBy()
		require.NoError(t, err)
		require.Nil(t, ahead)

		behind, err := b.BehindBy()
		require.NoError(t, err)
		require.Nil(t, behind)

		require.Zero(t, f.store.commonAncestors)
		require.Zero(t, f.store.reachableWalks)
	})

	t.Run("counts both sides of a divergence", func(t *testing.T) {
		f := newFixture(t, divergedTrackingSetup)
		b := f.branch(t, "feature")

		ahead, err := b.AheadBy()
		require.NoError(t, err)
		require.Equal(t, testhelpers.IntPtr(2), ahead)

		behind, err := b.BehindBy()
		require.NoError(t, err)
		require.Equal(t, testhelpers.IntPtr(1), behind)

		require.Equal(t, 1, f.store.commonAncestors)
		require.Equal(t, 2, f.store.reachableWalks)
	})

	t.Run("counts are cached", func(t *testing.T) {
		f := newFixture(t, divergedTrackingSetup)
		b := f.branch(t, "feature")

		first, err := b.AheadBy()
		require.NoError(t, err)
		second, err := b.AheadBy()
		require.NoError(t, err)
		require.Same(t, first, second)

		_, err = b.BehindBy()
		require.NoError(t, err)
		require.Equal(t, 1, f.store.commonAncestors)
		require.Equal(t, 2, f.store.reachableWalks)
	})

	t.Run("unrelated histories short-circuit", func(t *testing.T) {
		f := newFixture(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			if err := s.Repo.CreateOrphanBranch("orphan"); err != nil {
				return err
			}
			if err := s.Repo.CreateChangeAndCommit("o", "o"); err != nil {
				return err
			}
			return s.Repo.SetUpstream("orphan", mainBranch)
		})
		b := f.branch(t, "orphan")

		tracking, err := b.IsTracking()
		require.NoError(t, err)
		require.True(t, tracking)

		ahead, err := b.AheadBy()
		require.NoError(t, err)
		require.Nil(t, ahead)
		behind, err := b.BehindBy()
		require.NoError(t, err)
		require.Nil(t, behind)

		require.Equal(t, 1, f.store.commonAncestors)
		require.Zero(t, f.store.reachableWalks)
	})

	t.Run("counts against a remote upstream", func(t *testing.T) {
		f := newFixture(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			if _, err := s.Repo.CreateBareRemote("origin"); err != nil {
				return err
			}
			if err := s.Repo.PushBranch("origin", mainBranch); err != nil {
				return err
			}
			return s.Repo.CreateChangeAndCommit("2", "2")
		})
		b := f.branch(t, mainBranch)

		ahead, err := b.AheadBy()
		require.NoError(t, err)
		require.Equal(t, testhelpers.IntPtr(1), ahead)

		behind, err := b.BehindBy()
		require.NoError(t, err)
		require.Equal(t, testhelpers.IntPtr(0), behind)
	})

	t.Run("an unborn branch has no counts", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.scene.Repo.RunGitCommand("config", "branch.main.remote", "."))
		require.NoError(t, f.scene.Repo.RunGitCommand("config", "branch.main.merge", "refs/heads/main"))

		head, err := f.repo.Branches().Head()
		require.NoError(t, err)
		require.NotNil(t, head)

		tip, err := head.Tip()
		require.NoError(t, err)
		require.Nil(t, tip)

		ahead, err := head.AheadBy()
		require.NoError(t, err)
		require.Nil(t, ahead)
	})
}

func TestSetUpstreamTo(t *testing.T) {
	t.Run("local upstream", func(t *testing.T) {
		f := newFixture(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			return s.Repo.CreateBranch("topic")
		})
		branches := f.repo.Branches()

		main, err := branches.Get(mainBranch)
		require.NoError(t, err)
		topic, err := branches.Get("topic")
		require.NoError(t, err)

		require.NoError(t, main.SetUpstreamTo(topic))
		testhelpers.ExpectConfig(t, f.scene.Repo, "branch.main.remote", ".")
		testhelpers.ExpectConfig(t, f.scene.Repo, "branch.main.merge", "refs/heads/topic")

		fresh, err := f.repo.Branches().Get(mainBranch)
		require.NoError(t, err)
		tracked, err := fresh.TrackedBranch()
		require.NoError(t, err)
		require.Equal(t, "topic", tracked.Name())
	})

	t.Run("remote upstream", func(t *testing.T) {
		f := newFixture(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			if _, err := s.Repo.CreateBareRemote("origin"); err != nil {
				return err
			}
			if err := s.Repo.RunGitCommand("push", "origin", "main:topic"); err != nil {
				return err
			}
			return s.Repo.CreateBranch("local")
		})

		local := f.branch(t, "local")
		require.NoError(t, local.SetUpstreamTo(f.branch(t, "origin/topic")))

		testhelpers.ExpectConfig(t, f.scene.Repo, "branch.local.remote", "origin")
		testhelpers.ExpectConfig(t, f.scene.Repo, "branch.local.merge", "refs/heads/topic")

		remote, err := f.branch(t, "local").Remote()
		require.NoError(t, err)
		require.Equal(t, "origin", remote)
	})

	t.Run("missing remote writes nothing", func(t *testing.T) {
		f := newFixture(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			return s.Repo.RunGitCommand("update-ref", "refs/remotes/ghost/main", "HEAD")
		})

		err := f.branch(t, mainBranch).SetUpstreamTo(f.branch(t, "ghost/main"))
		require.Error(t, err)
		require.True(t, errors.Is(err, treelineerrors.ErrConfiguration))

		var remoteErr *treelineerrors.RemoteNotFoundError
		require.True(t, errors.As(err, &remoteErr))
		require.Equal(t, "ghost", remoteErr.Remote)

		testhelpers.ExpectConfig(t, f.scene.Repo, "branch.main.remote", "")
		testhelpers.ExpectConfig(t, f.scene.Repo, "branch.main.merge", "")
	})

	t.Run("malformed upstream name", func(t *testing.T) {
		f := newFixture(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			return s.Repo.RunGitCommand("update-ref", "refs/remotes/lonely", "HEAD")
		})

		err := f.branch(t, mainBranch).SetUpstreamTo(f.branch(t, "refs/remotes/lonely"))
		require.Error(t, err)
		require.True(t, errors.Is(err, treelineerrors.ErrParse))
		testhelpers.ExpectConfig(t, f.scene.Repo, "branch.main.remote", "")
	})

	t.Run("refuses remote branches", func(t *testing.T) {
		f := newFixture(t, func(s *testhelpers.Scene) error {
			if err := testhelpers.BasicSceneSetup(s); err != nil {
				return err
			}
			if _, err := s.Repo.CreateBareRemote("origin"); err != nil {
				return err
			}
			return s.Repo.PushBranch("origin", mainBranch)
		})

		err := f.branch(t, "origin/main").SetUpstreamTo(f.branch(t, mainBranch))
		require.True(t, errors.Is(err, treelineerrors.ErrRemoteBranch))
	})
}

func TestUnsetUpstream(t *testing.T) {
	t.Run("removes both keys", func(t *testing.T) {
		f := newFixture(t, testhelpers.TrackingSceneSetup)

		require.NoError(t, f.branch(t, "feature").UnsetUpstream())
		testhelpers.ExpectConfig(t, f.scene.Repo, "branch.feature.remote", "")
		testhelpers.ExpectConfig(t, f.scene.Repo, "branch.feature.merge", "")
	})

	t.Run("tolerates an untracked branch", func(t *testing.T) {
		f := newFixture(t, testhelpers.BasicSceneSetup)
		require.NoError(t, f.branch(t, mainBranch).UnsetUpstream())
	})
}

func TestParseUpstream(t *testing.T) {
	tests := []struct {
		name string
		want engine.UpstreamTarget
	}{
		{"refs/heads/topic", engine.LocalUpstream{Branch: "topic"}},
		{"refs/heads/feature/x", engine.LocalUpstream{Branch: "feature/x"}},
		{"refs/remotes/origin/topic", engine.RemoteUpstream{Remote: "origin", Branch: "topic"}},
		{"refs/remotes/origin/feature/x", engine.RemoteUpstream{Remote: "origin", Branch: "feature/x"}},
		{"refs/remotes/origin", engine.MalformedUpstream{Name: "refs/remotes/origin"}},
		{"refs/remotes/origin/", engine.MalformedUpstream{Name: "refs/remotes/origin/"}},
		{"refs/heads/", engine.MalformedUpstream{Name: "refs/heads/"}},
		{"refs/tags/v1", engine.MalformedUpstream{Name: "refs/tags/v1"}},
		{"topic", engine.MalformedUpstream{Name: "topic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, engine.ParseUpstream(tt.name))
		})
	}

	local := engine.LocalUpstream{Branch: "topic"}
	require.Equal(t, git.LocalRemote, local.RemoteName())
	require.Equal(t, plumbing.ReferenceName("refs/heads/topic"), local.MergeRef())
}

func TestBranchHeadAndCommits(t *testing.T) {
	f := newFixture(t, divergedTrackingSetup)

	isHead, err := f.branch(t, mainBranch).IsCurrentRepositoryHead()
	require.NoError(t, err)
	require.True(t, isHead)

	isHead, err = f.branch(t, "feature").IsCurrentRepositoryHead()
	require.NoError(t, err)
	require.False(t, isHead)

	iter, err := f.branch(t, "feature").Commits()
	require.NoError(t, err)
	n, err := git.CountCommits(iter)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	remote, err := f.branch(t, "feature").Remote()
	require.NoError(t, err)
	require.Empty(t, remote)
}

func TestBranchRemote(t *testing.T) {
	f := newFixture(t, func(s *testhelpers.Scene) error {
		if err := testhelpers.BasicSceneSetup(s); err != nil {
			return err
		}
		if _, err := s.Repo.CreateBareRemote("origin"); err != nil {
			return err
		}
		if err := s.Repo.PushBranch("origin", "main"); err != nil {
			return err
		}
		if err := s.Repo.CreateBranch("stale"); err != nil {
			return err
		}
		if err := s.Repo.RunGitCommand("config", "branch.stale.remote", "ghost"); err != nil {
			return err
		}
		if err := s.Repo.RunGitCommand("config", "branch.stale.merge", "refs/heads/main"); err != nil {
			return err
		}
		return s.Repo.RunGitCommand("update-ref", "refs/remotes/ghost/main", "HEAD")
	})

	remote, err := f.branch(t, "main").Remote()
	require.NoError(t, err)
	require.Equal(t, "origin", remote)

	remote, err = f.branch(t, "origin/main").Remote()
	require.NoError(t, err)
	require.Equal(t, "origin", remote)

	remote, err = f.branch(t, "stale").Remote()
	require.NoError(t, err)
	require.Empty(t, remote, "configured remote that does not exist")

	remote, err = f.branch(t, "ghost/main").Remote()
	require.NoError(t, err)
	require.Empty(t, remote, "remote-tracking ref without a configured remote")
}

