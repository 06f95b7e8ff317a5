package security

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrOutsideDirectory = errors.New("path is outside configured directory")
)

// PathValidator confines tool paths to one directory tree. Symlinks are
// resolved before the check, so a link inside the tree cannot point out of it.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir. dir need not exist yet.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory: %w", ErrEmptyPath)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}
	root, err := resolveExisting(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}

	return &PathValidator{root: root}, nil
}

// Root returns the resolved root directory.
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the absolute, symlink-free form of path and checks that it
// lies inside the root. Relative paths are taken relative to the root. The
// path itself does not need to exist, which allows output files.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", ErrEmptyPath
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}

	resolved, err := resolveExisting(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !within(v.root, resolved) {
		return "", fmt.Errorf("%w: %s", ErrOutsideDirectory, path)
	}
	return resolved, nil
}

// resolveExisting evaluates symlinks on the longest existing prefix of path
// and appends the missing remainder unchanged.
func resolveExisting(path string) (string, error) {
	var rest []string
	cur := path
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return path, nil
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
