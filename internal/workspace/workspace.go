// Package workspace provides file operations confined to a single root
// directory. Every path is interpreted relative to the root and any path
// that resolves outside it after normalization is rejected before I/O.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is the directory all file operations are confined to.
type Workspace struct {
	root string // absolute
}

// New creates the workspace root if needed and returns a Workspace
// rooted there.
func New(path string) (*Workspace, error) {
	if path == "" {
		return nil, fmt.Errorf("workspace path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute workspace root path.
func (w *Workspace) Root() string {
	return w.root
}

// resolve converts a workspace-relative path to an absolute path,
// rejecting anything that would land outside the root. Absolute input
// paths are rejected outright; the workspace is addressed relatively.
func (w *Workspace) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("path escapes workspace: %s: %w", path, ErrDenied)
	}

	abs := filepath.Clean(filepath.Join(w.root, path))

	// Rel-based containment check: a string prefix comparison would
	// accept a sibling like /work2 when the root is /work.
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s: %w", path, ErrDenied)
	}

	return abs, nil
}

// Read returns the contents of a file.
func (w *Workspace) Read(path string) (string, error) {
	abs, err := w.resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s: %w", path, ErrNotFound)
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("read %s: %w", path, ErrDenied)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return string(data), nil
}

// Write writes content to a file, creating parent directories as needed.
func (w *Workspace) Write(path, content string) error {
	abs, err := w.resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("write %s: %w", path, ErrDenied)
		}
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// List returns directory entries in directory order, directories marked
// with a trailing "/". An empty path lists the workspace root.
func (w *Workspace) List(path string) ([]string, error) {
	if path == "" {
		path = "."
	}
	abs, err := w.resolve(path)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s: %w", path, ErrNotFound)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("list %s: %w", path, ErrDenied)
		}
		return nil, fmt.Errorf("list %s: %w", path, err)
	}

	result := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		result = append(result, name)
	}

	return result, nil
}
