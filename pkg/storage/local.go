package storage

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

// LocalStore implements BlobStore for local filesystem.
type LocalStore struct {
	Root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{Root: root}
}

// path resolves key below Root. Keys may not escape Root.
func (s *LocalStore) path(key string) (string, error) {
	if filepath.IsAbs(key) && s.Root == "" {
		return filepath.Clean(key), nil
	}
	root := s.Root
	if root == "" {
		root = "."
	}
	p := filepath.Join(root, key)
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes %s", key, root)
	}
	return p, nil
}

func (s *LocalStore) Put(ctx context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, err
}

// List returns the keys below prefix in lexical order.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	root, err := s.path(prefix)
	if err != nil {
		return nil, err
	}
	base := s.Root
	if base == "" {
		base = "."
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(base, path)
			keys = append(keys, filepath.ToSlash(rel))
		}
		return nil
	})
	sort.Strings(keys)
	return keys, err
}
