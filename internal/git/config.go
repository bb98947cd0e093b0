package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5/config"
)

const branchSection = "branch"

// git config exits with 5 when asked to unset a key that is not set
const configKeyMissingExitCode = 5

// configKey is a dotted git configuration key: section[.subsection].option
type configKey struct {
	section    string
	subsection string
	option     string
}

func parseConfigKey(key string) (configKey, error) {
	first := strings.Index(key, ".")
	last := strings.LastIndex(key, ".")
	if first <= 0 || last == len(key)-1 {
		return configKey{}, fmt.Errorf("invalid config key %q", key)
	}

	k := configKey{
		section: strings.ToLower(key[:first]),
		option:  strings.ToLower(key[last+1:]),
	}
	if first != last {
		k.subsection = key[first+1 : last]
	}
	return k, nil
}

// ConfigGet returns the value of a repository-level configuration key.
// The second return value is false when the key is not set.
func (r *Repository) ConfigGet(key string) (string, bool, error) {
	k, err := parseConfigKey(key)
	if err != nil {
		return "", false, err
	}

	cfg, err := r.Config()
	if err != nil {
		return "", false, fmt.Errorf("failed to read config: %w", err)
	}

	if k.section == branchSection && k.subsection != "" {
		b, ok := cfg.Branches[k.subsection]
		if !ok {
			return "", false, nil
		}
		value, err := branchOption(b, k.option)
		if err != nil {
			return "", false, err
		}
		return value, value != "", nil
	}

	if !cfg.Raw.HasSection(k.section) {
		return "", false, nil
	}
	section := cfg.Raw.Section(k.section)
	if k.subsection == "" {
		return section.Option(k.option), section.HasOption(k.option), nil
	}
	if !section.HasSubsection(k.subsection) {
		return "", false, nil
	}
	subsection := section.Subsection(k.subsection)
	return subsection.Option(k.option), subsection.HasOption(k.option), nil
}

// ConfigSet writes one repository-level configuration key with git config,
// which edits the one line and leaves comments and other options alone.
func (r *Repository) ConfigSet(key, value string) error {
	if _, err := parseConfigKey(key); err != nil {
		return err
	}
	if _, err := r.runner.Run(context.Background(), "config", "--local", key, value); err != nil {
		return fmt.Errorf("failed to write config key %s: %w", key, err)
	}
	return nil
}

// ConfigUnset removes one repository-level configuration key. Removing a key
// that is not set is not an error.
func (r *Repository) ConfigUnset(key string) error {
	if _, err := parseConfigKey(key); err != nil {
		return err
	}
	_, err := r.runner.Run(context.Background(), "config", "--local", "--unset-all", key)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == configKeyMissingExitCode {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to unset config key %s: %w", key, err)
	}
	return nil
}

// branch subsections are decoded into config.Config.Branches, so reads of
// branch options go through the typed fields.
func branchOption(b *config.Branch, option string) (string, error) {
	switch option {
	case "remote":
		return b.Remote, nil
	case "merge":
		return string(b.Merge), nil
	case "rebase":
		return b.Rebase, nil
	case "description":
		return b.Description, nil
	default:
		return "", fmt.Errorf("unsupported branch option %q", option)
	}
}
