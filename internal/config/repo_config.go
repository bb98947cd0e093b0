package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	treelineerrors "treeline.dev/treeline/internal/errors"
)

const configFileName = ".treeline_config"

// Keys accepted by Get and Set
const (
	KeyNotesNamespace = "notes.namespace"
	KeyLogFile        = "log.file"
)

// RepoConfig represents the repository configuration
type RepoConfig struct {
	NotesNamespace *string `json:"notesNamespace,omitempty"`
	LogFile        *string `json:"logFile,omitempty"`
}

// Path returns the location of the config file for a repository root
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, ".git", configFileName)
}

// GetRepoConfig reads the repository configuration.
// A missing file yields an empty config.
func GetRepoConfig(repoRoot string) (*RepoConfig, error) {
	data, err := os.ReadFile(Path(repoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return &RepoConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read repo config: %w", err)
	}

	var config RepoConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse repo config: %w", err)
	}
	return &config, nil
}

// SaveRepoConfig writes the repository configuration
func SaveRepoConfig(repoRoot string, config *RepoConfig) error {
	configJSON, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(Path(repoRoot), configJSON, 0600)
}

// GetNotesNamespace returns the configured notes namespace, or "" when unset
func GetNotesNamespace(repoRoot string) (string, error) {
	config, err := GetRepoConfig(repoRoot)
	if err != nil {
		return "", err
	}
	if config.NotesNamespace != nil {
		return *config.NotesNamespace, nil
	}
	return "", nil
}

// GetLogFile returns the configured log file path, or "" when unset
func GetLogFile(repoRoot string) (string, error) {
	config, err := GetRepoConfig(repoRoot)
	if err != nil {
		return "", err
	}
	if config.LogFile != nil {
		return *config.LogFile, nil
	}
	return "", nil
}

// Keys lists the settable keys in sorted order
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var fields = map[string]func(*RepoConfig) **string{
	KeyNotesNamespace: func(c *RepoConfig) **string { return &c.NotesNamespace },
	KeyLogFile:        func(c *RepoConfig) **string { return &c.LogFile },
}

// Get returns the value for key and whether it is set
func Get(repoRoot, key string) (string, bool, error) {
	field, ok := fields[key]
	if !ok {
		return "", false, fmt.Errorf("%w: unknown config key %q", treelineerrors.ErrInvalidArgument, key)
	}
	config, err := GetRepoConfig(repoRoot)
	if err != nil {
		return "", false, err
	}
	value := *field(config)
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

// Set stores value under key. An empty value clears the key.
func Set(repoRoot, key, value string) error {
	field, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: unknown config key %q", treelineerrors.ErrInvalidArgument, key)
	}
	config, err := GetRepoConfig(repoRoot)
	if err != nil {
		return err
	}
	if value == "" {
		*field(config) = nil
	} else {
		*field(config) = &value
	}
	return SaveRepoConfig(repoRoot, config)
}
