// SPDX-License-Identifier: MIT

// Package paths confines file access to the artifact directory. Decks
// and skip reports are served over HTTP by name, so every lookup has to
// prove it stays inside the data dir even in the presence of symlinks.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when the file does not exist and the
	// caller did not allow missing files.
	ErrNotFound = errors.New("data file not found")
	// ErrEscapes is returned when the path resolves outside the data
	// directory, before or after symlink resolution.
	ErrEscapes = errors.New("data file escapes data directory")
	// ErrIsDirectory is returned when the path resolves to a directory.
	ErrIsDirectory = errors.New("data file path points to directory")
)

// ResolveDataFilePath resolves a relative path inside the data directory
// while protecting against path traversal and symlink escapes. If
// allowMissing is true the file does not need to exist, but its parent
// directory must still resolve inside the data dir.
func ResolveDataFilePath(dataDir, relPath string, allowMissing bool) (string, error) {
	clean := filepath.Clean(relPath)
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: absolute path %s", ErrEscapes, relPath)
	}
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("%w: traversal in %s", ErrEscapes, relPath)
	}

	root, err := filepath.Abs(dataDir)
	if err != nil {
		return "", fmt.Errorf("resolve data directory: %w", err)
	}

	full := filepath.Join(root, clean)

	// Resolve root symlinks to establish the true base. A data dir that
	// does not exist yet cannot be resolved; fall back to the literal path.
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		resolvedRoot = root
	}

	resolved := full
	info, statErr := os.Stat(full)
	switch {
	case statErr == nil:
		if info.IsDir() {
			return "", fmt.Errorf("%w: %s", ErrIsDirectory, relPath)
		}
		if resolvedPath, evalErr := filepath.EvalSymlinks(full); evalErr == nil {
			resolved = resolvedPath
		}
	case errors.Is(statErr, os.ErrNotExist):
		if !allowMissing {
			return "", fmt.Errorf("%w: %s", ErrNotFound, relPath)
		}
		// Ensure the parent resolves safely before the file exists.
		dir := filepath.Dir(full)
		if realDir, evalErr := filepath.EvalSymlinks(dir); evalErr == nil {
			resolved = filepath.Join(realDir, filepath.Base(full))
		}
	default:
		return "", fmt.Errorf("stat data file: %w", statErr)
	}

	relToRoot, err := filepath.Rel(resolvedRoot, resolved)
	if err != nil {
		return "", fmt.Errorf("resolve relative path: %w", err)
	}
	// Check again after symlink resolution: a link inside the data dir
	// may point anywhere.
	if strings.HasPrefix(relToRoot, "..") || filepath.IsAbs(relToRoot) {
		return "", fmt.Errorf("%w: %s", ErrEscapes, relPath)
	}

	return resolved, nil
}
