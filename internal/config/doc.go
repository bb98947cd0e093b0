// Package config manages treeline's per-repository settings, stored as JSON
// next to the git directory.
package config
