// Package errors provides sentinel errors and custom error types for treeline.
// Use errors.Is() and errors.As() to check for specific error types.
//
// Absence (no such note, no tracked branch) is never reported through this
// package: lookups return nil values for that.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrNotFound indicates that a required object or reference does not exist
	ErrNotFound = errors.New("not found")

	// ErrParse indicates a malformed canonical name
	ErrParse = errors.New("parse error")

	// ErrAcquisition indicates that a native handle could not be obtained
	ErrAcquisition = errors.New("handle acquisition failed")

	// ErrConfiguration indicates a missing configuration prerequisite
	ErrConfiguration = errors.New("configuration error")

	// ErrRemoteBranch indicates an operation that is invalid on a remote-tracking branch
	ErrRemoteBranch = errors.New("invalid operation on remote branch")

	// ErrAlreadyExists indicates that a create operation found an existing object
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument indicates an empty or malformed argument to a mutation
	ErrInvalidArgument = errors.New("invalid argument")
)

// ResolutionError is returned by a lazy attribute that could not be resolved.
// When Attribute is empty the handle acquisition itself failed and every
// attribute of the group carries the same error.
type ResolutionError struct {
	Identity  string
	Attribute string
	Err       error
}

func (e *ResolutionError) Error() string {
	if e.Attribute == "" {
		return fmt.Sprintf("failed to acquire %s: %v", e.Identity, e.Err)
	}
	return fmt.Sprintf("failed to resolve %s of %s: %v", e.Attribute, e.Identity, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrAcquisition and the acquisition failed
func (e *ResolutionError) Is(target error) bool {
	return target == ErrAcquisition && e.Attribute == ""
}

// NewAcquisitionError creates a ResolutionError for a failed handle acquisition
func NewAcquisitionError(identity string, err error) *ResolutionError {
	return &ResolutionError{Identity: identity, Err: err}
}

// NewResolutionError creates a ResolutionError for a single attribute
func NewResolutionError(identity, attribute string, err error) *ResolutionError {
	return &ResolutionError{Identity: identity, Attribute: attribute, Err: err}
}

// UpstreamParseError represents a canonical name that is neither a local nor a
// remote-tracking branch
type UpstreamParseError struct {
	CanonicalName string
}

func (e *UpstreamParseError) Error() string {
	return fmt.Sprintf("unable to parse '%s' into a remote and branch name", e.CanonicalName)
}

// Is returns true if the target error is ErrParse
func (e *UpstreamParseError) Is(target error) bool {
	return target == ErrParse
}

// NewUpstreamParseError creates a new UpstreamParseError
func NewUpstreamParseError(canonicalName string) *UpstreamParseError {
	return &UpstreamParseError{CanonicalName: canonicalName}
}

// RemoteNotFoundError represents an upstream that names a remote that is not configured
type RemoteNotFoundError struct {
	Remote        string
	CanonicalName string
}

func (e *RemoteNotFoundError) Error() string {
	return fmt.Sprintf("could not find remote '%s' for branch '%s'", e.Remote, e.CanonicalName)
}

// Is returns true if the target error is ErrConfiguration
func (e *RemoteNotFoundError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewRemoteNotFoundError creates a new RemoteNotFoundError
func NewRemoteNotFoundError(remote, canonicalName string) *RemoteNotFoundError {
	return &RemoteNotFoundError{Remote: remote, CanonicalName: canonicalName}
}

// BranchNotFoundError represents an error when a branch is not found
type BranchNotFoundError struct {
	BranchName string
}

func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("branch %s does not exist", e.BranchName)
}

// Is returns true if the target error is ErrNotFound
func (e *BranchNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewBranchNotFoundError creates a new BranchNotFoundError
func NewBranchNotFoundError(branchName string) *BranchNotFoundError {
	return &BranchNotFoundError{BranchName: branchName}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
