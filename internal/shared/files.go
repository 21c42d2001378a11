package shared

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temporary file next to path and renames it into place.
//
// Readers of path see either the previous content or the complete new content, never a partial file.
// Failures are reported as [*IOError] and the temporary file is removed.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		return &IOError{Op: "write", Path: path, Err: fmt.Errorf("%w: empty destination", ErrInvalidArgument)}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &IOError{Op: "sync", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return &IOError{Op: "chmod", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &IOError{Op: "rename", Path: path, Err: err}
	}

	committed = true
	return nil
}
