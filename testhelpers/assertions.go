package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Must is a generic helper function that panics if err is not nil,
// otherwise returns the value. This is useful for test setup code
// where errors are not expected and should halt execution immediately.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectConfig asserts the value of a git config key; an empty expected value
// asserts that the key is unset
func ExpectConfig(t *testing.T, repo *GitRepo, key, expected string) {
	t.Helper()
	require.Equal(t, expected, repo.GetConfig(key), "config %s", key)
}

// IntPtr returns a pointer to n
func IntPtr(n int) *int {
	return &n
}
