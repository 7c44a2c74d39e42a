package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolvePagePath joins a slash-separated page path onto outDir, refusing
// paths that would escape it.
func resolvePagePath(outDir, rel string) (string, error) {
	if rel == "" {
		return "", errors.New("page path is required")
	}
	cleanRel := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleanRel) || cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("page path %q must be relative to the output directory", rel)
	}
	full := filepath.Join(outDir, cleanRel)
	back, err := filepath.Rel(outDir, full)
	if err != nil || strings.HasPrefix(back, "..") {
		return "", fmt.Errorf("page path %q escapes the output directory", rel)
	}
	return full, nil
}

// writePage writes content to rel under outDir, replacing any existing file
// atomically.
func writePage(outDir, rel string, content []byte) (string, error) {
	full, err := resolvePagePath(outDir, rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("create page directory: %w", err)
	}
	if err := WriteFileAtomic(full, content); err != nil {
		return "", err
	}
	return full, nil
}

// WriteFileAtomic writes content to a hidden temporary sibling of path and
// renames it into place, so readers never observe a partial file.
func WriteFileAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	// #nosec G302 -- generated documentation is meant to be world readable.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
