package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GetPathInfo returns the absolute form of relPath and the directory that
// contains it.
func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}
	return fullPath, filepath.Dir(fullPath), nil
}

// ReadSource reads a Triangle source file. Windows line endings are
// normalised so diagnostics report the same columns on every platform.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	return strings.ReplaceAll(string(data), "\r\n", "\n"), nil
}

// WithExt replaces the extension of path with ext, e.g. prog.s -> prog.tam.
func WithExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
