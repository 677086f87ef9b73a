// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package neighbors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the artifact in one file. Writes go to a temporary file
// in the same directory and are renamed into place, so readers see either
// the previous artifact or the new one.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileStore returns a store for the artifact at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the artifact location.
func (s *FileStore) Path() string { return s.path }

// Save writes ix, replacing any previous artifact.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *FileStore) Save(ctx context.Context, ix *Index, meta Metadata) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, saved, err := Marshal(ix, meta)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp model file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("sync model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return nil, fmt.Errorf("replace model file: %w", err)
	}

	return saved, nil
}

// Load reads and verifies the artifact.
func (s *FileStore) Load(ctx context.Context) (*Index, *Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.path)
	s.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", ErrModelNotFound, s.path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open %s: %v", ErrModelLoad, s.path, err)
	}

	return Unmarshal(data)
}

// Stat returns the artifact metadata without decoding the vectors.
func (s *FileStore) Stat(ctx context.Context) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrModelLoad, s.path, err)
	}
	defer func() { _ = f.Close() }()

	return ReadMetadata(f)
}

// Close implements ArtifactStore.
func (s *FileStore) Close() error { return nil }
