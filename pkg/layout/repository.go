package layout

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when a repository has no layout under a name.
var ErrNotFound = errors.New("layout: not found")

//go:embed builtin/*.bbl
var builtinFS embed.FS

// Repository is a named collection of layouts. It is safe for concurrent use.
type Repository struct {
	mu      sync.RWMutex
	layouts map[string]*Layout
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		layouts: make(map[string]*Layout),
	}
}

// NewBuiltinRepository returns a repository preloaded with the layouts that
// ship with the module.
func NewBuiltinRepository() (*Repository, error) {
	r := NewRepository()
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		f, err := builtinFS.Open("builtin/" + entry.Name())
		if err != nil {
			return nil, err
		}
		layouts, err := Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("layout: builtin %s: %w", entry.Name(), err)
		}
		if err := r.Add(layouts...); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add validates and registers layouts. A later layout replaces an earlier one
// with the same name.
func (r *Repository) Add(layouts ...*Layout) error {
	for _, l := range layouts {
		if l == nil {
			return fmt.Errorf("%w: nil layout", ErrInvalidLayout)
		}
		if err := l.Validate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range layouts {
		r.layouts[l.Name] = l
	}
	return nil
}

// Lookup returns the layout registered under name.
func (r *Repository) Lookup(name string) (*Layout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.layouts[name]; ok {
		return l, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Names returns the registered layout names in sorted order.
func (r *Repository) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.layouts))
	for name := range r.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFiles parses the provided file paths and adds each layout to the
// repository.
func (r *Repository) LoadFiles(paths ...string) error {
	for _, path := range paths {
		layouts, err := ParseFile(path)
		if err != nil {
			return fmt.Errorf("layout: parse %s: %w", path, err)
		}
		if err := r.Add(layouts...); err != nil {
			return fmt.Errorf("layout: add %s: %w", path, err)
		}
	}
	return nil
}

// LoadDir recursively loads all .bbl files from the provided directory.
func (r *Repository) LoadDir(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isLayoutFile(path) {
			return nil
		}
		return r.LoadFiles(path)
	})
}

func isLayoutFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".bbl"
}
