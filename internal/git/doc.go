// Package git is the object store behind treeline.
//
// It wraps a go-git repository and provides the primitives the engine builds on:
//   - Reference lookup and enumeration
//   - Ancestry queries (common ancestor, reachable commit ranges)
//   - Upstream resolution and git configuration writes
//   - Notes and submodule handles
//
// This package should be the only place where go-git or the git binary are used
// directly.
package git
