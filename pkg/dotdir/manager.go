// Package dotdir resolves the .studai/ directory that holds config.toml and,
// when relative paths are configured, the upload and generated-output folders.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the name of the studai directory.
const DirName = ".studai"

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path to a .studai/ directory, creating it when
// it does not exist yet. Order of precedence:
//  1. Provided override
//  2. Local ./.studai/ dir
//  3. Home ~/.studai/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, DirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, DirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating studai directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// EnsureDir creates dir (and parents) if needed and returns its absolute path.
// It is used for the uploads and generated-output directories.
func (m *Manager) EnsureDir(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("directory path is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, DirName))
	return err == nil && info.IsDir()
}
