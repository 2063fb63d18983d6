// Package atomicfile writes files through a temp-file-and-rename sequence so
// that a reader sees either the previous content or the new content, never a
// partial file.
package atomicfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FS wraps an afero filesystem with atomic write helpers.
type FS struct {
	fs afero.Fs
}

// New wraps fs.
func New(fs afero.Fs) *FS {
	return &FS{fs: fs}
}

// NewOS returns an FS backed by the operating system.
func NewOS() *FS {
	return New(afero.NewOsFs())
}

// Fs exposes the underlying filesystem.
func (f *FS) Fs() afero.Fs {
	return f.fs
}

// WriteFile replaces path with data.
// Parameters:
//   - path: destination file; its directory is created when missing.
//   - data: full file content.
//   - perm: mode of the final file.
//
// Returns:
//   - error: non-nil if any step fails; path is left untouched in that case.
func (f *FS) WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := f.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(f.fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func(cause error) error {
		tmp.Close()
		f.fs.Remove(tmpName)
		return cause
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("sync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		f.fs.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := f.fs.Chmod(tmpName, perm); err != nil {
		f.fs.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := f.fs.Rename(tmpName, path); err != nil {
		f.fs.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// WriteJSON marshals v with two-space indentation and writes it atomically.
func (f *FS) WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return f.WriteFile(path, append(data, '\n'), 0644)
}

// ReadJSON decodes path into v. It reports false without error when the file
// does not exist.
func (f *FS) ReadJSON(path string, v any) (bool, error) {
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

// Exists reports whether path exists.
func (f *FS) Exists(path string) bool {
	ok, _ := afero.Exists(f.fs, path)
	return ok
}
