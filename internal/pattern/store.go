package pattern

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrOutsideRoot is returned for paths that resolve outside the content root.
var ErrOutsideRoot = errors.New("path escapes content root")

// LoadError reports why a pattern could not be used.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load pattern %s: %v", e.Path, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// ResolvePath joins rel onto root and rejects results outside root.
func ResolvePath(root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root %s: %w", root, err)
	}
	var p string
	if filepath.IsAbs(rel) {
		p = filepath.Clean(rel)
	} else {
		p = filepath.Join(absRoot, rel)
	}
	r, err := filepath.Rel(absRoot, p)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	return p, nil
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	pattern *Pattern
}

// Store loads patterns from under a content root. Decoded patterns are
// cached by resolved path and invalidated when the file's mtime changes.
type Store struct {
	root string

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewStore creates a store rooted at root.
func NewStore(root string) *Store {
	return &Store{
		root:  root,
		cache: make(map[string]cacheEntry),
	}
}

// Root returns the content root.
func (s *Store) Root() string { return s.root }

// Load returns the pattern at rel. Every failure is a *LoadError.
func (s *Store) Load(rel string) (*Pattern, error) {
	path, err := ResolvePath(s.root, rel)
	if err != nil {
		return nil, &LoadError{Path: rel, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: rel, Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Path: rel, Err: fmt.Errorf("%s is a directory", path)}
	}

	s.mu.Lock()
	entry, ok := s.cache[path]
	s.mu.Unlock()
	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.pattern, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: rel, Err: err}
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return nil, &LoadError{Path: rel, Err: err}
	}

	s.mu.Lock()
	s.cache[path] = cacheEntry{modTime: info.ModTime(), size: info.Size(), pattern: p}
	s.mu.Unlock()
	return p, nil
}
