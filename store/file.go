// Package store does the raw file plumbing for the vault: exact-length
// reads and writes, flushes to stable storage, atomic replacement, and
// recursive removal. Record layouts live with the vault engine; this
// package only moves bytes.
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// ErrShortRead reports a file smaller than the record it should hold.
var ErrShortRead = errors.New("file shorter than expected record")

// Exists reports whether path names an existing file or directory.
func Exists(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return true, nil
}

// WriteFile creates path with the given mode, writes data in full, and
// flushes it to stable storage before returning.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := writeAndSync(f, data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Replace writes data to tempPath and renames it over path, so the target
// is always either the old record or the new one.
func Replace(tempPath, path string, data []byte, perm os.FileMode) error {
	if err := WriteFile(tempPath, data, perm); err != nil {
		return err
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// ReadRecord reads exactly size bytes from path. A missing file is reported
// via fs.ErrNotExist; a file shorter than size via ErrShortRead.
func ReadRecord(path string, size int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("read %s: %w", path, ErrShortRead)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return buf, nil
}

// RemoveTree deletes path. Regular files and symlinks are unlinked
// directly; directories are traversed physically and removed children
// first. A path that does not exist is not an error.
func RemoveTree(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("unlink %s: %w", path, err)
		}
		return nil
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove tree %s: %w", path, err)
	}
	return nil
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
