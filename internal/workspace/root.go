package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideWorkspace is returned when a path escapes the workspace root.
var ErrOutsideWorkspace = errors.New("path is outside the workspace root")

// FindRoot locates the workspace root by walking up to a .git directory.
// When none is found the absolute start directory is returned.
func FindRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	dir := abs
	for {
		gitPath := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}

// Resolve turns p into an absolute, symlink-free path. Relative paths are
// joined to root, or to the working directory when root is empty. A non-empty
// root is also enforced as a containment boundary.
func Resolve(root, p string) (string, error) {
	candidate := p
	if !filepath.IsAbs(candidate) {
		base := root
		if base == "" {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			base = wd
		}
		candidate = filepath.Join(base, candidate)
	}
	resolved, err := realPath(candidate)
	if err != nil {
		return "", err
	}
	if root == "" {
		return resolved, nil
	}
	rootResolved, err := realPath(root)
	if err != nil {
		return "", err
	}
	if !Contains(rootResolved, resolved) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrOutsideWorkspace, resolved, rootResolved)
	}
	return resolved, nil
}

// Contains reports whether target is root itself or lies beneath it.
// Both paths must already be absolute and clean.
func Contains(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// realPath resolves symlinks. When the target does not exist yet, the deepest
// existing ancestor is resolved and the missing tail is joined back on.
func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	dir, tail := abs, ""
	for {
		evaluated, err := filepath.EvalSymlinks(dir)
		if err == nil {
			return filepath.Join(evaluated, tail), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		tail = filepath.Join(filepath.Base(dir), tail)
		dir = parent
	}
}
