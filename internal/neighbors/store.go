// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package neighbors

import (
	"context"
	"fmt"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/logging"
)

// ArtifactStore persists a single index artifact. Save replaces any
// previous artifact; Load and Stat return ErrModelNotFound when none exists.
type ArtifactStore interface {
	Save(ctx context.Context, ix *Index, meta Metadata) (*Metadata, error)
	Load(ctx context.Context) (*Index, *Metadata, error)
	Stat(ctx context.Context) (*Metadata, error)
	Close() error
}

// OpenStore opens the store selected by cfg.Store.
func OpenStore(cfg config.ModelConfig) (ArtifactStore, error) {
	logger := logging.WithComponent("artifact-store")

	var (
		store ArtifactStore
		err   error
	)
	switch cfg.Store {
	case config.StoreFile, "":
		store = NewFileStore(cfg.Path)
	case config.StoreBadger:
		store, err = OpenBadgerStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown model store %q", cfg.Store)
	}
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.Path).Msg("Failed to open model store")
		return nil, err
	}

	logger.Debug().Str("store", cfg.Store).Str("path", cfg.Path).Msg("Model store opened")
	return store, nil
}
