// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package recommend wires the loader, the matrix builder and the neighbor
// index into the two public operations:
//
//   - TrainAndSaveModel: build the rating matrix, fit the index, persist it
//   - GetRecommendations: resolve a title, load the index, rebuild the
//     matrix, and return the nearest books
//
// Both paths reload the source files on every call.
//
// # Row lookup
//
// By default the queried title resolves to its ISBN and the ISBN to its row
// in the book-oriented matrix; neighbors are mapped back to titles by ISBN.
// With index.legacy_positional_lookup the index is fitted over user rows,
// the book's position in the unfiltered book list is used as the row
// number, and neighbor rows are mapped back to book list positions. That
// mode has no semantic meaning and exists to compare against old outputs.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/dataset"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/matrix"
	"github.com/tomtom215/bookshelf/internal/metrics"
	"github.com/tomtom215/bookshelf/internal/neighbors"
)

var (
	// ErrNotFound is returned when no book matches the title, or when the
	// book has no row in the filtered matrix.
	ErrNotFound = errors.New("book not found")

	// ErrTrainingInProgress is returned when a training run is requested
	// while another one is running.
	ErrTrainingInProgress = errors.New("training already in progress")
)

// Suggestion is one recommended book.
type Suggestion struct {
	Title    string  `json:"title"`
	ISBN     string  `json:"isbn"`
	Distance float64 `json:"distance"`
}

// Recommendation is the answer to GetRecommendations: the queried title
// and its nearest books, nearest first.
type Recommendation struct {
	Title string       `json:"title"`
	Items []Suggestion `json:"recommendations"`
}

// Service runs training and queries against one loader and one store.
// It is safe for concurrent use; training runs are serialized.
type Service struct {
	cfg    *config.Config
	loader dataset.Loader
	store  neighbors.ArtifactStore

	trainMu sync.Mutex
}

// NewService creates a Service. The caller owns loader and store.
func NewService(cfg *config.Config, loader dataset.Loader, store neighbors.ArtifactStore) *Service {
	return &Service{cfg: cfg, loader: loader, store: store}
}

func (s *Service) matrixOptions() matrix.Options {
	return matrix.Options{
		MinUserRatings: s.cfg.Matrix.MinUserRatings,
		MinItemRatings: s.cfg.Matrix.MinItemRatings,
	}
}

func (s *Service) indexOptions() neighbors.Options {
	return neighbors.Options{
		Metric:    s.cfg.Index.Metric,
		Algorithm: s.cfg.Index.Algorithm,
	}
}

// BuildRatingMatrix loads the ratings file and builds the filtered matrix.
// Every failure wraps dataset.ErrDataLoad.
func (s *Service) BuildRatingMatrix(ctx context.Context) (*matrix.RatingMatrix, error) {
	ratings, err := s.loader.Ratings(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordSourceLoad("ratings", len(ratings))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := matrix.Build(ratings, s.matrixOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dataset.ErrDataLoad, err)
	}

	logging.Ctx(ctx).Debug().
		Int("input_records", m.Summary.InputRecords).
		Int("kept_records", m.Summary.KeptRecords).
		Int("users", m.Rows()).
		Int("books", m.Cols()).
		Msg("Rating matrix built")
	return m, nil
}

// TrainAndSaveModel fits a fresh index and persists it, replacing any
// previous artifact.
func (s *Service) TrainAndSaveModel(ctx context.Context) error {
	_, err := s.Train(ctx)
	return err
}

// Train is TrainAndSaveModel returning the persisted metadata.
func (s *Service) Train(ctx context.Context) (meta *neighbors.Metadata, err error) {
	if !s.trainMu.TryLock() {
		return nil, ErrTrainingInProgress
	}
	defer s.trainMu.Unlock()

	start := time.Now()
	logger := logging.Ctx(ctx)
	logger.Info().Msg("Starting model training")

	rows, dims := 0, 0
	defer func() {
		metrics.RecordTraining(time.Since(start), rows, dims, err)
	}()

	m, err := s.BuildRatingMatrix(ctx)
	if err != nil {
		return nil, err
	}

	view, err := m.View(s.cfg.Index.EffectiveOrientation())
	if err != nil {
		return nil, err
	}

	ix, err := neighbors.Fit(view, s.indexOptions())
	if err != nil {
		return nil, fmt.Errorf("fit index: %w", err)
	}

	meta, err = s.store.Save(ctx, ix, neighbors.Metadata{
		TrainingDurationMS: time.Since(start).Milliseconds(),
	})
	if err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	rows, dims = ix.Len(), ix.Header.Dims

	logger.Info().
		Str("orientation", ix.Header.Orientation).
		Int("rows", rows).
		Int("dims", dims).
		Int64("size_bytes", meta.SizeBytes).
		Dur("duration", time.Since(start)).
		Msg("Model training complete")
	return meta, nil
}

// GetRecommendations returns the books nearest to title. The result holds
// index.neighbors-1 suggestions when the index is large enough.
func (s *Service) GetRecommendations(ctx context.Context, title string) (rec *Recommendation, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordRecommendation(time.Since(start), err, metrics.Outcome{
			NotFound:   ErrNotFound,
			ModelError: neighbors.ErrModelLoad,
			DataError:  dataset.ErrDataLoad,
		})
	}()

	books, err := s.loader.Books(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordSourceLoad("books", len(books))

	pos := dataset.IndexOfTitle(books, title)
	if pos < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, title)
	}

	ix, _, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	m, err := s.BuildRatingMatrix(ctx)
	if err != nil {
		return nil, err
	}

	view, err := m.View(s.cfg.Index.EffectiveOrientation())
	if err != nil {
		return nil, err
	}
	if ix.Header.Orientation != view.Orientation {
		return nil, fmt.Errorf("%w: index rows are %s, configured orientation is %s",
			neighbors.ErrStaleModel, ix.Header.Orientation, view.Orientation)
	}
	if err := ix.Validate(view.Fingerprint()); err != nil {
		return nil, err
	}

	k := s.cfg.Index.Neighbors - 1
	if s.cfg.Index.LegacyPositionalLookup {
		rec, err = s.positionalNeighbors(ix, books, pos, k)
	} else {
		rec, err = s.isbnNeighbors(ix, view, books, pos, k)
	}
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Str("title", title).
		Int("results", len(rec.Items)).
		Dur("duration", time.Since(start)).
		Msg("Recommendations computed")
	return rec, nil
}

func (s *Service) isbnNeighbors(ix *neighbors.Index, view *matrix.View, books []dataset.Book, pos, k int) (*Recommendation, error) {
	book := books[pos]
	row, ok := view.RowIndex(book.ISBN)
	if !ok {
		return nil, fmt.Errorf("%w: %q (isbn %s) has too few ratings to be indexed", ErrNotFound, book.Title, book.ISBN)
	}

	found, err := ix.RowNeighbors(row, k)
	if err != nil {
		return nil, err
	}

	titles := titlesByISBN(books)
	rec := &Recommendation{Title: book.Title, Items: make([]Suggestion, 0, len(found))}
	for _, n := range found {
		title, ok := titles[n.Key]
		if !ok {
			// Rated but absent from the books file.
			title = n.Key
		}
		rec.Items = append(rec.Items, Suggestion{Title: title, ISBN: n.Key, Distance: n.Distance})
	}
	return rec, nil
}

func (s *Service) positionalNeighbors(ix *neighbors.Index, books []dataset.Book, pos, k int) (*Recommendation, error) {
	if pos >= ix.Len() {
		return nil, fmt.Errorf("%w: book position %d is outside the %d indexed rows", ErrNotFound, pos, ix.Len())
	}

	found, err := ix.RowNeighbors(pos, k)
	if err != nil {
		return nil, err
	}

	rec := &Recommendation{Title: books[pos].Title, Items: make([]Suggestion, 0, len(found))}
	for _, n := range found {
		if n.Row >= len(books) {
			return nil, fmt.Errorf("%w: neighbor row %d has no book at that position (%d books)", ErrNotFound, n.Row, len(books))
		}
		b := books[n.Row]
		rec.Items = append(rec.Items, Suggestion{Title: b.Title, ISBN: b.ISBN, Distance: n.Distance})
	}
	return rec, nil
}

// titlesByISBN maps each ISBN to the title of its first occurrence.
func titlesByISBN(books []dataset.Book) map[string]string {
	titles := make(map[string]string, len(books))
	for i := range books {
		if _, ok := titles[books[i].ISBN]; !ok {
			titles[books[i].ISBN] = books[i].Title
		}
	}
	return titles
}

// ModelInfo returns the metadata of the persisted index.
func (s *Service) ModelInfo(ctx context.Context) (*neighbors.Metadata, error) {
	return s.store.Stat(ctx)
}
