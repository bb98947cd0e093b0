// Package testhelpers provides testing utilities for treeline: scratch
// repositories built with the git CLI and a scene that owns their lifetime.
package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
)

// Scene represents a test scene with a temporary directory and Git repository.
type Scene struct {
	Dir    string
	Repo   *GitRepo
	oldDir string
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a new test scene with a temporary directory and Git repository.
// It changes the working directory to the scene and restores it on cleanup, so
// scenes must not be used from parallel tests.
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "treeline-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	// Resolve symlinks (macOS /var -> /private/var) so paths compare equal
	if resolved, err := filepath.EvalSymlinks(tmpDir); err == nil {
		tmpDir = resolved
	}

	oldDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get current directory: %v", err)
	}

	repo, err := NewGitRepo(tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create Git repo: %v", err)
	}

	scene := &Scene{
		Dir:    tmpDir,
		Repo:   repo,
		oldDir: oldDir,
	}

	if err := os.Chdir(tmpDir); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to change directory: %v", err)
	}

	t.Setenv("GIT_CONFIG_GLOBAL", "/dev/null")
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")

	if setup != nil {
		if err := setup(scene); err != nil {
			os.Chdir(oldDir)
			scene.removeAll()
			t.Fatalf("Setup failed: %v", err)
		}
	}

	t.Cleanup(func() {
		os.Chdir(oldDir)
		if os.Getenv("DEBUG") == "" {
			scene.removeAll()
		}
	})

	return scene
}

// removeAll deletes the scene and any sibling repositories it created
func (s *Scene) removeAll() {
	siblings, _ := filepath.Glob(s.Dir + "-*")
	for _, dir := range siblings {
		os.RemoveAll(dir)
	}
	os.RemoveAll(s.Dir)
}

// BasicSceneSetup is a setup function that creates a basic scene with a single commit.
func BasicSceneSetup(scene *Scene) error {
	return scene.Repo.CreateChangeAndCommit("1", "1")
}

// TrackingSceneSetup creates main with one commit and a feature branch that
// tracks main, then leaves main checked out.
func TrackingSceneSetup(scene *Scene) error {
	if err := scene.Repo.CreateChangeAndCommit("1", "1"); err != nil {
		return err
	}
	if err := scene.Repo.CreateBranch("feature"); err != nil {
		return err
	}
	return scene.Repo.SetUpstream("feature", "main")
}
