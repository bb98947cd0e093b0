package runtime

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"

	"treeline.dev/treeline/internal/config"
	"treeline.dev/treeline/internal/engine"
	treelineerrors "treeline.dev/treeline/internal/errors"
	"treeline.dev/treeline/internal/git"
	"treeline.dev/treeline/internal/output"
)

// Context provides access to the repository and output for commands
type Context struct {
	context.Context
	Repository *engine.Repository
	Splog      *output.Splog
	RepoRoot   string
	Config     *config.RepoConfig
}

// NewContext creates a context over an already opened repository
func NewContext(ctx context.Context, repo *engine.Repository, splog *output.Splog, repoRoot string) *Context {
	return &Context{
		Context:    ctx,
		Repository: repo,
		Splog:      splog,
		RepoRoot:   repoRoot,
		Config:     &config.RepoConfig{},
	}
}

// GetContext opens the repository containing the working directory, loads its
// configuration and sets up logging to out and the CLI log file
func GetContext(ctx context.Context, out io.Writer) (*Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	repoRoot, err := git.GetRepoRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to get repo root: %w", err)
	}

	cfg, err := config.GetRepoConfig(repoRoot)
	if err != nil {
		return nil, err
	}

	logFile := ""
	if cfg.LogFile != nil {
		logFile = *cfg.LogFile
	}
	splog, err := output.NewSplogWithConfig(out, output.LogFilePath(logFile))
	if err != nil {
		return nil, err
	}

	repo, err := engine.Open(repoRoot, engine.WithLogger(splog.Logger()))
	if err != nil {
		_ = splog.Close()
		return nil, err
	}

	c := NewContext(ctx, repo, splog, repoRoot)
	c.Config = cfg
	return c, nil
}

// Close releases the log file
func (c *Context) Close() error {
	return c.Splog.Close()
}

// NotesNamespace returns flagValue when set, else the configured namespace,
// else the default notes namespace
func (c *Context) NotesNamespace(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if c.Config.NotesNamespace != nil && *c.Config.NotesNamespace != "" {
		return *c.Config.NotesNamespace
	}
	return engine.DefaultNotesNamespace
}

// Signature builds an author/committer signature from user.name and user.email
func (c *Context) Signature() (object.Signature, error) {
	store := c.Repository.Store()

	name, ok, err := store.ConfigGet("user.name")
	if err != nil {
		return object.Signature{}, err
	}
	if !ok || name == "" {
		return object.Signature{}, fmt.Errorf("%w: user.name is not set", treelineerrors.ErrConfiguration)
	}

	email, _, err := store.ConfigGet("user.email")
	if err != nil {
		return object.Signature{}, err
	}

	return object.Signature{Name: name, Email: email, When: time.Now()}, nil
}
