// Package helpers provides file handling utilities.
package helpers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileCleanup is a resource manager for temporary files
type FileCleanup struct {
	files []string
}

// Add registers a file for cleanup
func (fc *FileCleanup) Add(path string) {
	fc.files = append(fc.files, path)
}

// Cleanup removes all registered files. It keeps going after a failure and
// returns the first error.
func (fc *FileCleanup) Cleanup() error {
	var firstErr error
	for _, f := range fc.files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	fc.files = fc.files[:0]
	return firstErr
}

// NewFileCleanup creates a new FileCleanup manager
func NewFileCleanup() *FileCleanup {
	return &FileCleanup{
		files: make([]string, 0),
	}
}

// TempFilePath returns a unique path in the temp dir with the given prefix and
// extension. The file is not created.
func TempFilePath(prefix, ext string) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s%s%s", prefix, uuid.New().String(), ext))
}

// CopyFile copies src to dst, creating or truncating dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	return out.Close()
}

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, perm); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile) // Best effort cleanup
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// VerifyFileNotEmpty checks that a file exists and has content
func VerifyFileNotEmpty(path string) error {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file %s is empty", path)
	}

	return nil
}
