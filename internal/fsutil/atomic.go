// Package fsutil holds small filesystem helpers shared by the seeder and composer.
package fsutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileMode is applied to files written by WriteAtomic.
const FileMode os.FileMode = 0o644

// renameFunc is swapped in tests to simulate failed replacements.
var renameFunc = os.Rename

// WriteAtomic streams r into dir/name through a temporary file in the same
// directory and renames it into place, replacing any existing file. The
// temporary file is removed on every failure path.
func WriteAtomic(dir, name string, r io.Reader) (int64, error) {
	dir = filepath.Clean(dir)
	dst := filepath.Join(dir, name)

	if fi, err := os.Lstat(dst); err == nil && fi.IsDir() {
		return 0, fmt.Errorf("target %q is a directory", dst)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return n, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return n, fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Chmod(FileMode); err != nil {
		return n, fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("close temp file: %w", err)
	}
	if err := renameFunc(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		committed = true
		return n, fmt.Errorf("replace %q: %w", dst, err)
	}
	committed = true
	return n, nil
}

// WriteFileAtomic is WriteAtomic for in-memory content.
func WriteFileAtomic(dir, name string, data []byte) error {
	_, err := WriteAtomic(dir, name, bytes.NewReader(data))
	return err
}
