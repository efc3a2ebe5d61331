// Package cache is a hierarchical, append-only artifact store over a
// filesystem root. Writes publish atomically via rename, so readers never
// observe a partially written artifact and no in-process locking is needed
// across concurrent requests. There is no eviction: artifacts are
// deduplicated by derived key and retained indefinitely.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists artifacts under a fixed root directory. The root is set
// once at construction and never changes.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Exists reports whether an artifact is present at key. Missing
// intermediate segments are treated as absence, never as an error.
func (s *Store) Exists(key Key) bool {
	if key.validate() != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(s.root, key.Path()))
	return err == nil && info.Mode().IsRegular()
}

// Get returns the artifact stored at key.
func (s *Store) Get(key Key) ([]byte, error) {
	if err := key.validate(); err != nil {
		return nil, &NotFoundError{Key: key}
	}
	data, err := os.ReadFile(filepath.Join(s.root, key.Path()))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Key: key}
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", key, err)
	}
	return data, nil
}

// Put stores an artifact at key. The write lands in a temporary file next
// to the final location and is published with a rename, so concurrent
// readers see either the old artifact or the complete new one. Writing
// byte-identical content to an existing key is a no-op overwrite.
func (s *Store) Put(key Key, data []byte) error {
	if err := key.validate(); err != nil {
		return &WriteError{Key: key, Op: "validate", Err: err}
	}

	dst := filepath.Join(s.root, key.Path())
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Key: key, Op: "mkdir", Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+key.Leaf+".*.tmp")
	if err != nil {
		return &WriteError{Key: key, Op: "create", Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Key: key, Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Key: key, Op: "close", Err: err}
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return &WriteError{Key: key, Op: "publish", Err: err}
	}
	return nil
}
