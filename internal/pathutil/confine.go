// Package pathutil confines file writes requested by remote clients to a set
// of allowed directories.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrOutsideAllowedDirs is returned when a path escapes every allowed directory.
	ErrOutsideAllowedDirs = errors.New("path is outside allowed directories")

	// ErrInvalidPath is returned for empty paths and paths with NUL bytes.
	ErrInvalidPath = errors.New("invalid path")
)

// RedactPath reduces a path to .../<parent>/<basename> for error messages.
// "/home/user/.photolab/audit.jsonl" becomes ".../.photolab/audit.jsonl".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// Confine resolves path to an absolute path with symlinks in its existing
// ancestors evaluated, and checks that the result lies within one of dirs.
// The file itself need not exist.
func Confine(path string, dirs ...string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: path is empty", ErrInvalidPath)
	}
	if strings.ContainsRune(path, '\x00') {
		return "", fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}
	if len(dirs) == 0 {
		return "", fmt.Errorf("%w: no allowed directories configured", ErrOutsideAllowedDirs)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	parent, err := resolve(filepath.Dir(abs))
	if err != nil {
		return "", err
	}
	resolved := filepath.Join(parent, filepath.Base(abs))

	for _, dir := range dirs {
		dirAbs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		root, err := resolve(dirAbs)
		if err != nil {
			continue
		}
		if within(resolved, root) {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrOutsideAllowedDirs, RedactPath(abs))
}

// resolve evaluates symlinks on the deepest existing ancestor of dir and
// re-appends the missing tail.
func resolve(dir string) (string, error) {
	if r, err := filepath.EvalSymlinks(dir); err == nil {
		return r, nil
	}
	up := filepath.Dir(dir)
	if up == dir {
		return "", fmt.Errorf("%w: cannot resolve %s", ErrInvalidPath, RedactPath(dir))
	}
	r, err := resolve(up)
	if err != nil {
		return "", err
	}
	return filepath.Join(r, filepath.Base(dir)), nil
}

// within reports whether path is base or below it. "/tmp/foobar" is not
// within "/tmp/foo".
func within(path, base string) bool {
	return path == base || strings.HasPrefix(path, base+string(os.PathSeparator))
}
