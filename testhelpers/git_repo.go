package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const textFileName = "test.txt"

// GitRepo is a scratch repository driven through the git CLI
type GitRepo struct {
	Dir string
}

// NewGitRepo initializes a new repository in dir with main as the initial branch
func NewGitRepo(dir string) (*GitRepo, error) {
	cmd := exec.Command("git", "-c", "init.defaultBranch=main", "-c", "core.autocrlf=false", "init", dir, "-b", "main")
	cmd.Env = gitEnv()
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to init repo: %w", err)
	}

	repo := &GitRepo{Dir: dir}
	if err := repo.RunGitCommand("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.RunGitCommand("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}
	return repo, nil
}

// gitEnv keeps the user's global configuration out of test repositories
func gitEnv() []string {
	return append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null", "GIT_CONFIG_NOSYSTEM=1")
}

// RunGitCommand executes a git command in the repository directory
func (r *GitRepo) RunGitCommand(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = gitEnv()
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s failed: %w, output: %s", strings.Join(args, " "), err, string(output))
	}
	return nil
}

// RunGitCommandAndGetOutput executes a git command and returns its trimmed output
func (r *GitRepo) RunGitCommandAndGetOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = gitEnv()
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// WriteFile writes content to a path relative to the repository root
func (r *GitRepo) WriteFile(name string, content []byte) error {
	path := filepath.Join(r.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// CreateChange writes textValue to <prefix>_test.txt and stages it
func (r *GitRepo) CreateChange(textValue string, prefix string) error {
	fileName := textFileName
	if prefix != "" {
		fileName = prefix + "_" + fileName
	}
	if err := r.WriteFile(fileName, []byte(textValue)); err != nil {
		return err
	}
	return r.RunGitCommand("add", fileName)
}

// CreateChangeAndCommit creates a file change and commits it with textValue as message
func (r *GitRepo) CreateChangeAndCommit(textValue string, prefix string) error {
	if err := r.CreateChange(textValue, prefix); err != nil {
		return err
	}
	return r.RunGitCommand("commit", "-m", textValue)
}

// CommitFile writes and commits a single file
func (r *GitRepo) CommitFile(name string, content []byte, message string) error {
	if err := r.WriteFile(name, content); err != nil {
		return err
	}
	if err := r.RunGitCommand("add", name); err != nil {
		return err
	}
	return r.RunGitCommand("commit", "-m", message)
}

// CreateBranch creates a new branch without checking it out
func (r *GitRepo) CreateBranch(name string) error {
	return r.RunGitCommand("branch", name)
}

// CreateAndCheckoutBranch creates and checks out a new branch
func (r *GitRepo) CreateAndCheckoutBranch(name string) error {
	return r.RunGitCommand("checkout", "-b", name)
}

// CreateOrphanBranch checks out a new branch with no history and an empty
// working tree
func (r *GitRepo) CreateOrphanBranch(name string) error {
	if err := r.RunGitCommand("checkout", "--orphan", name); err != nil {
		return err
	}
	return r.RunGitCommand("rm", "-rfq", "--ignore-unmatch", ".")
}

// CheckoutBranch checks out a branch
func (r *GitRepo) CheckoutBranch(name string) error {
	return r.RunGitCommand("checkout", name)
}

// CheckoutDetached checks out a revision in detached HEAD state
func (r *GitRepo) CheckoutDetached(rev string) error {
	return r.RunGitCommand("checkout", "--detach", rev)
}

// SetUpstream configures branch to track upstream (a branch or remote/branch)
func (r *GitRepo) SetUpstream(branch, upstream string) error {
	return r.RunGitCommand("branch", "--set-upstream-to="+upstream, branch)
}

// GetRevision returns the SHA of a revision
func (r *GitRepo) GetRevision(rev string) (string, error) {
	return r.RunGitCommandAndGetOutput("rev-parse", rev)
}

// GetConfig returns the value of a git config key, empty when unset
func (r *GitRepo) GetConfig(key string) string {
	out, err := r.RunGitCommandAndGetOutput("config", "--get", key)
	if err != nil {
		return ""
	}
	return out
}

// AddNote attaches a note to rev in the given notes ref
func (r *GitRepo) AddNote(ref, rev, message string) error {
	return r.RunGitCommand("notes", "--ref", ref, "add", "-m", message, rev)
}

// CreateBareRemote creates a bare repository next to the scene and adds it as
// a remote. Returns the path to the bare repository.
func (r *GitRepo) CreateBareRemote(name string) (string, error) {
	bareDir := r.Dir + "-" + name + ".git"

	cmd := exec.Command("git", "init", "--bare", bareDir)
	cmd.Env = gitEnv()
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to create bare repo: %w", err)
	}

	if err := r.RunGitCommand("remote", "add", name, bareDir); err != nil {
		return "", fmt.Errorf("failed to add remote: %w", err)
	}
	return bareDir, nil
}

// PushBranch pushes a branch to a remote and records it as upstream
func (r *GitRepo) PushBranch(remote, branch string) error {
	return r.RunGitCommand("push", "-u", remote, branch)
}

// Fetch fetches from a remote
func (r *GitRepo) Fetch(remote string) error {
	return r.RunGitCommand("fetch", remote)
}

// AddSubmodule creates a repository with one commit next to the scene and adds
// it as a submodule at path. Returns the submodule repository.
func (r *GitRepo) AddSubmodule(name, path string) (*GitRepo, error) {
	subDir := r.Dir + "-" + name
	sub, err := NewGitRepo(subDir)
	if err != nil {
		return nil, err
	}
	if err := sub.CreateChangeAndCommit("submodule "+name, name); err != nil {
		return nil, err
	}

	if err := r.RunGitCommand("-c", "protocol.file.allow=always", "submodule", "add", "--name", name, subDir, path); err != nil {
		return nil, err
	}
	return sub, nil
}
