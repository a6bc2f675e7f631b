// Package session persists conversation state across runs: the active
// response style and a per-session transcript of questions and answers
// under ~/.wikirag.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	stateDir  = ".wikirag"
	styleFile = "current_style"
)

// StateDir returns the state directory path, creating it if needed.
func StateDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	dir := filepath.Join(homeDir, stateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating state directory: %w", err)
	}

	return dir, nil
}

// LoadStyle loads the persisted response style.
// Returns "" if no style has been saved, which is not an error.
func LoadStyle() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(filepath.Join(dir, styleFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading style file: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// SaveStyle persists the response style for future runs.
func SaveStyle(style string) error {
	dir, err := StateDir()
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, styleFile), []byte(style), 0o644); err != nil {
		return fmt.Errorf("writing style file: %w", err)
	}

	return nil
}

// ClearStyle removes the persisted style. Idempotent.
func ClearStyle() error {
	dir, err := StateDir()
	if err != nil {
		return err
	}

	err = os.Remove(filepath.Join(dir, styleFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing style file: %w", err)
	}

	return nil
}
