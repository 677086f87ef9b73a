// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package neighbors

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Badger keys. The artifact and its JSON metadata are written in one
// transaction so they never disagree.
var (
	artifactKey = []byte("model:artifact")
	metadataKey = []byte("model:metadata")
)

// BadgerStore keeps the artifact in a BadgerDB database.
type BadgerStore struct {
	db     *badger.DB
	closer bool
}

// OpenBadgerStore opens (or creates) a BadgerDB database in dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for models: %w", err)
	}
	return &BadgerStore{db: db, closer: true}, nil
}

// NewBadgerStore wraps an already open database. Close leaves db open.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Save writes ix, replacing any previous artifact.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *BadgerStore) Save(ctx context.Context, ix *Index, meta Metadata) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, saved, err := Marshal(ix, meta)
	if err != nil {
		return nil, err
	}
	metaJSON, err := json.Marshal(saved)
	if err != nil {
		return nil, fmt.Errorf("marshal model metadata: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(artifactKey, data); err != nil {
			return fmt.Errorf("set artifact: %w", err)
		}
		if err := txn.Set(metadataKey, metaJSON); err != nil {
			return fmt.Errorf("set metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Load reads and verifies the artifact.
func (s *BadgerStore) Load(ctx context.Context) (*Index, *Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(artifactKey)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil, ErrModelNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: get artifact: %v", ErrModelLoad, err)
	}

	return Unmarshal(data)
}

// Stat returns the stored metadata.
func (s *BadgerStore) Stat(ctx context.Context) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var meta Metadata
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metadataKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get metadata: %v", ErrModelLoad, err)
	}
	return &meta, nil
}

// Close closes the database if this store opened it.
func (s *BadgerStore) Close() error {
	if s.closer {
		return s.db.Close()
	}
	return nil
}
