// Package utils holds the file handling shared by the cactc commands.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetPathInfo resolves relPath to an absolute path and its directory.
func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}
	return fullPath, filepath.Dir(fullPath), nil
}

// ReadSource reads a CACT source file. The returned text is the file content
// with a UTF-8 byte order mark removed.
func ReadSource(path string) (string, error) {
	fullPath, _, err := GetPathInfo(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	return string(data), nil
}

// WriteIR writes module text to path. The content goes to a temporary file
// next to path first, so a failed write never leaves a partial module.
func WriteIR(path, text string) error {
	_, dir, err := GetPathInfo(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(dir, ".cactc-*.ll")
	if err != nil {
		return fmt.Errorf("write ir: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("write ir: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write ir: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write ir: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write ir: %w", err)
	}
	return nil
}
