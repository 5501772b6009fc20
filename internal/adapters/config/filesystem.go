package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem abstracts the filesystem reads of the loader for testability.
type FileSystem interface {
	// Stat returns file info for the given path.
	Stat(path string) (fs.FileInfo, error)
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the standard library.
type OSFS struct{}

// Stat returns file info for the given path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	// #nosec G304 -- path is located by the loader
	return os.ReadFile(path)
}

// MapFSAdapter serves absolute paths under Root from an fs.FS such as fstest.MapFS.
type MapFSAdapter struct {
	FS   fs.FS
	Root string
}

// Stat returns file info for the given path.
func (m MapFSAdapter) Stat(path string) (fs.FileInfo, error) {
	return fs.Stat(m.FS, m.rel(path))
}

// ReadFile reads the entire file at path.
func (m MapFSAdapter) ReadFile(path string) ([]byte, error) {
	return fs.ReadFile(m.FS, m.rel(path))
}

// rel strips Root. Paths outside Root are returned unchanged so that the fs
// operation fails with a not-found error.
func (m MapFSAdapter) rel(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	if path == m.Root {
		return "."
	}
	prefix := strings.TrimSuffix(m.Root, string(filepath.Separator)) + string(filepath.Separator)
	if !strings.HasPrefix(path, prefix) {
		return path
	}
	return filepath.ToSlash(strings.TrimPrefix(path, prefix))
}
