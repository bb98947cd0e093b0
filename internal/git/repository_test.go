package git_test

import (
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"treeline.dev/treeline/internal/git"
	"treeline.dev/treeline/testhelpers"
)

func TestOpenRepository(t *testing.T) {
	scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
	require.NoError(t, scene.Repo.WriteFile("nested/dir/file.txt", []byte("x")))

	repo, err := git.OpenRepository(filepath.Join(scene.Dir, "nested", "dir"))
	require.NoError(t, err)
	require.Equal(t, scene.Dir, repo.GetRepoRoot())
	require.Equal(t, scene.Dir, repo.Runner().WorkingDir())

	root, err := git.GetRepoRoot()
	require.NoError(t, err)
	require.Equal(t, scene.Dir, root)
}

func TestReferences(t *testing.T) {
	t.Run("lookup does not follow symbolic references", func(t *testing.T) {
		_, repo := openScene(t, testhelpers.BasicSceneSetup)

		ref, err := repo.LookupReference(plumbing.HEAD)
		require.NoError(t, err)
		require.Equal(t, plumbing.SymbolicReference, ref.Type())

		resolved, err := repo.ResolveReference(plumbing.HEAD)
		require.NoError(t, err)
		require.Equal(t, plumbing.HashReference, resolved.Type())
	})

	t.Run("absent references are nil", func(t *testing.T) {
		_, repo := openScene(t, testhelpers.BasicSceneSetup)

		ref, err := repo.LookupReference("refs/heads/missing")
		require.NoError(t, err)
		require.Nil(t, ref)

		ref, err = repo.ResolveReference("refs/heads/missing")
		require.NoError(t, err)
		require.Nil(t, ref)
	})

	t.Run("lists by prefix", func(t *testing.T) {
		scene, repo := openScene(t, testhelpers.BasicSceneSetup)
		require.NoError(t, scene.Repo.CreateBranch("feature"))

		refs, err := repo.ListReferences("refs/heads/")
		require.NoError(t, err)
		names := make([]string, 0, len(refs))
		for _, ref := range refs {
			names = append(names, ref.Name().Short())
		}
		require.ElementsMatch(t, []string{"main", "feature"}, names)
	})

	t.Run("head target", func(t *testing.T) {
		scene, repo := openScene(t, testhelpers.BasicSceneSetup)

		target, err := repo.HeadTarget()
		require.NoError(t, err)
		require.Equal(t, plumbing.NewBranchReferenceName(mainBranch), target)

		require.NoError(t, scene.Repo.CheckoutDetached("HEAD"))
		target, err = repo.HeadTarget()
		require.NoError(t, err)
		require.Equal(t, plumbing.HEAD, target)
	})
}
