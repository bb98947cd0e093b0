package utils

import (
	"io"
	"os"
	"strings"
)

// ReadMessage reads all content from in with surrounding whitespace trimmed.
// A terminal or an empty regular file yields "" without blocking.
func ReadMessage(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return "", err
		}

		// If it's a terminal, we don't want to block waiting for input
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return "", nil
		}

		// If it's a regular file and it's empty, return empty (don't block)
		if stat.Mode().IsRegular() && stat.Size() == 0 {
			return "", nil
		}
	}

	bytes, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(bytes)), nil
}
