package output

import (
	"os"
	"path/filepath"
)

// LogFilePath returns the path of the CLI log file.
// TREELINE_LOG_FILE wins over configured, which wins over ~/.treeline/logs/treeline.log.
func LogFilePath(configured string) string {
	if customPath := os.Getenv("TREELINE_LOG_FILE"); customPath != "" {
		return customPath
	}
	if configured != "" {
		return configured
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "treeline.log"
	}
	return filepath.Join(homeDir, ".treeline", "logs", "treeline.log")
}
