// Package runtime provides the execution context for treeline commands.
//
// It bundles the repository, logger and repository configuration that every
// command needs.
package runtime
