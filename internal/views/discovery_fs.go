package views

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileSystemDiscovery reads views from a root directory: one subdirectory per
// view holding *.query and *.response files, plus prefixes.sparql at the
// root. Files are read on every call so edits show up after invalidation.
type FileSystemDiscovery struct {
	root string
}

var _ Discovery = (*FileSystemDiscovery)(nil)

// NewFileSystemDiscovery creates a new FileSystemDiscovery for the given root directory
func NewFileSystemDiscovery(root string) (*FileSystemDiscovery, error) {
	if root == "" {
		return nil, fmt.Errorf("views root cannot be empty")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat views root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("views root %q is not a directory", root)
	}
	return &FileSystemDiscovery{root: root}, nil
}

// Root returns the views root directory.
func (d *FileSystemDiscovery) Root() string { return d.root }

// ListViews returns the names of the view directories in sorted order.
func (d *FileSystemDiscovery) ListViews(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && ValidName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ReadView reads the templates of one view directory. Subdirectories and
// files with other extensions are ignored.
func (d *FileSystemDiscovery) ReadView(ctx context.Context, name string) (*ViewSource, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrViewNotFound, name)
	}
	dir := filepath.Join(d.root, name)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrViewNotFound, name)
		}
		return nil, fmt.Errorf("failed to read view %q: %w", name, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read view %q: %w", name, err)
	}
	src := &ViewSource{Name: name, Queries: map[string]string{}, Responses: map[string]string{}}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != queryExt && ext != responseExt {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s/%s: %w", name, e.Name(), err)
		}
		base := strings.TrimSuffix(e.Name(), ext)
		if ext == queryExt {
			src.Queries[base] = string(content)
		} else {
			src.Responses[MediaTypeFromFile(base)] = string(content)
		}
	}
	return src, nil
}

func (d *FileSystemDiscovery) ReadPrefixes(ctx context.Context) (string, error) {
	content, err := os.ReadFile(filepath.Join(d.root, PrefixesFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read prefixes: %w", err)
	}
	return string(content), nil
}
