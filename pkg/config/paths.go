package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigDir returns the path to the gateway config directory (~/.noforma).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".noforma"), nil
}

// DefaultPath returns the path to the config file for the given name
// (e.g. "gateway.yaml"). Absolute paths are returned as-is. The second
// return value reports whether the file exists.
func DefaultPath(name string) (string, bool, error) {
	if filepath.IsAbs(name) {
		_, err := os.Stat(name)
		return name, err == nil, nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", false, err
	}
	path := filepath.Join(dir, name)
	_, err = os.Stat(path)
	return path, err == nil, nil
}
