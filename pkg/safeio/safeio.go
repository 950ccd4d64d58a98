// Package safeio provides path-validated file access helpers.
package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// CleanUserPath cleans a user-provided path and rejects traversal attempts.
// Returns paths with forward slashes for cross-platform consistency.
func CleanUserPath(p string) (string, error) {
	c := filepath.Clean(p)
	if strings.Contains(c, "..") {
		return "", errors.New("path traversal detected")
	}
	return filepath.ToSlash(c), nil
}

// ReadFileContained reads a file only if it is contained within baseDir.
// Hook manifests and cached clones are read through this gate so a crafted
// manifest path cannot escape the cache directory.
func ReadFileContained(baseDir, filePath string) ([]byte, error) {
	baseDirAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, errors.New("failed to resolve base directory")
	}
	filePathAbs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, errors.New("failed to resolve file path")
	}

	rel, err := filepath.Rel(baseDirAbs, filePathAbs)
	if err != nil {
		return nil, errors.New("failed to compute relative path")
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, errors.New("file path is outside base directory")
	}

	// #nosec G304 -- containment verified above
	return os.ReadFile(filePathAbs)
}
