// Package engine provides the managed object model over a git repository.
//
// Entities (Blob, Submodule, Branch, Note) are created on demand by their
// owning collection and are never cached globally. Attributes that need the
// object store are resolved lazily through the lazy package: all attributes of
// one entity share a single handle acquisition.
//
// Entities are not safe for concurrent use with the same underlying
// repository unless the store guarantees read concurrency.
package engine
