// Package writer persists the local todo file.
package writer

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// ErrIO is matched by every *IoError.
var ErrIO = errors.New("todo file i/o failed")

// IoError reports a failed read or write of the local file.
type IoError struct {
	Op   string
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IoError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}

// ReadFile returns the contents of path. A missing file reads as empty, which
// is the state of the very first sync.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &IoError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// WriteFile atomically replaces the contents of path with data: the bytes are
// written and synced to a temporary sibling which is then renamed over path.
// A crash or an error at any point leaves the previous file intact.
//
// An existing file keeps its permissions; a new one is created with 0644.
func WriteFile(path string, data []byte) error {
	return WriteFileMode(path, data, filePerm)
}

// WriteFileMode is WriteFile with the permissions given to a new file.
//
// When path is a symlink the file it points at is replaced and the link is
// left in place.
func WriteFileMode(path string, data []byte, perm os.FileMode) error {
	target, err := resolve(path)
	if err != nil {
		return &IoError{Op: "resolve", Path: path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return &IoError{Op: "mkdir", Path: filepath.Dir(target), Err: err}
	}

	info, err := os.Stat(target)
	existed := err == nil
	switch {
	case existed && info.IsDir():
		return &IoError{Op: "write", Path: path, Err: errors.New("is a directory")}
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return &IoError{Op: "stat", Path: path, Err: err}
	}

	if err := atomic.WriteFile(target, bytes.NewReader(data)); err != nil {
		return &IoError{Op: "write", Path: path, Err: err}
	}

	// atomic.WriteFile carries over the mode of an existing file only.
	if !existed {
		if err := os.Chmod(target, perm); err != nil {
			return &IoError{Op: "chmod", Path: path, Err: err}
		}
	}
	return nil
}

// resolve returns the file a write to path should replace. Symlinks are
// followed; a dangling link resolves to the path it names.
func resolve(path string) (string, error) {
	fi, err := os.Lstat(path)
	if err != nil || fi.Mode()&fs.ModeSymlink == 0 {
		return path, nil
	}
	target, err := filepath.EvalSymlinks(path)
	if err == nil {
		return target, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	dest, err := os.Readlink(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(path), dest)
	}
	return dest, nil
}
