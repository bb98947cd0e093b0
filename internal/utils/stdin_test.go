package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadMessage(t *testing.T) {
	t.Run("pipe", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		defer r.Close()

		expected := "my note message"
		go func() {
			_, _ = w.Write([]byte(expected + "\n"))
			_ = w.Close()
		}()

		msg, err := ReadMessage(r)
		require.NoError(t, err)
		require.Equal(t, expected, msg)
	})

	t.Run("reader", func(t *testing.T) {
		msg, err := ReadMessage(strings.NewReader("  first line\nsecond line\n\n"))
		require.NoError(t, err)
		require.Equal(t, "first line\nsecond line", msg)
	})

	t.Run("empty regular file does not block", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty")
		require.NoError(t, os.WriteFile(path, nil, 0600))
		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()

		msg, err := ReadMessage(f)
		require.NoError(t, err)
		require.Empty(t, msg)
	})
}
