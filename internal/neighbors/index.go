// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package neighbors implements the brute-force cosine neighbor index and
// its persisted artifact.
//
// Fitting keeps every row vector and its norm; a query scans all rows.
// The distance between rows a and b is 1 - cos(a, b), clipped to [0, 2],
// and is defined as 1 when either row has zero norm.
package neighbors

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/tomtom215/bookshelf/internal/matrix"
)

// Supported metric and algorithm names.
const (
	MetricCosine   = "cosine"
	AlgorithmBrute = "brute"
)

var (
	// ErrModelLoad is returned when the persisted index is missing or unreadable.
	ErrModelLoad = errors.New("model load failed")

	// ErrModelNotFound is returned when no index has been persisted yet.
	ErrModelNotFound = fmt.Errorf("%w: no persisted model", ErrModelLoad)

	// ErrStaleModel is returned when the persisted index was fitted over
	// different data than the matrix it is queried with.
	ErrStaleModel = fmt.Errorf("%w: model does not match current data", ErrModelLoad)
)

// Options selects the distance metric and search algorithm.
type Options struct {
	Metric    string
	Algorithm string
}

// DefaultOptions returns cosine / brute.
func DefaultOptions() Options {
	return Options{Metric: MetricCosine, Algorithm: AlgorithmBrute}
}

// Header describes a fitted index. It is stored in clear in the artifact
// so it can be checked before the vectors are decoded.
type Header struct {
	Format      string    `json:"format"`
	Version     int       `json:"version"`
	Metric      string    `json:"metric"`
	Algorithm   string    `json:"algorithm"`
	Orientation string    `json:"orientation"`
	Rows        int       `json:"rows"`
	Dims        int       `json:"dims"`
	Fingerprint string    `json:"fingerprint"`
	TrainedAt   time.Time `json:"trained_at"`
}

// Index is a fitted neighbor index.
type Index struct {
	Header  Header
	Keys    []string
	Vectors [][]float32

	norms []float64
}

// Neighbor is one query result.
type Neighbor struct {
	Row      int
	Key      string
	Distance float64
}

// Fit builds an index over the rows of v. The index references v's rows
// without copying them.
func Fit(v *matrix.View, opts Options) (*Index, error) {
	if opts.Metric != MetricCosine {
		return nil, fmt.Errorf("unsupported metric %q", opts.Metric)
	}
	if opts.Algorithm != AlgorithmBrute {
		return nil, fmt.Errorf("unsupported algorithm %q", opts.Algorithm)
	}
	if len(v.Rows) == 0 {
		return nil, fmt.Errorf("cannot fit an index over zero rows")
	}

	ix := &Index{
		Header: Header{
			Format:      FormatName,
			Version:     FormatVersion,
			Metric:      opts.Metric,
			Algorithm:   opts.Algorithm,
			Orientation: v.Orientation,
			Rows:        len(v.Rows),
			Dims:        v.Dims(),
			Fingerprint: v.Fingerprint(),
			TrainedAt:   time.Now().UTC(),
		},
		Keys:    v.RowKeys,
		Vectors: v.Rows,
	}
	ix.computeNorms()
	for i, n := range ix.norms {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("row %q has a non-finite cell", ix.Keys[i])
		}
	}
	return ix, nil
}

func (ix *Index) computeNorms() {
	ix.norms = make([]float64, len(ix.Vectors))
	for i, row := range ix.Vectors {
		ix.norms[i] = norm(row)
	}
}

// Len returns the number of indexed rows.
func (ix *Index) Len() int { return len(ix.Vectors) }

// KNeighbors returns the k rows nearest to query, nearest first. Ties are
// broken by row number. Row exclude is skipped; pass -1 to keep every row.
// Fewer than k results are returned when the index is smaller.
func (ix *Index) KNeighbors(query []float32, k, exclude int) ([]Neighbor, error) {
	if len(query) != ix.Header.Dims {
		return nil, fmt.Errorf("query has %d dims, index has %d", len(query), ix.Header.Dims)
	}
	if k <= 0 {
		return nil, nil
	}

	qNorm := norm(query)
	all := make([]Neighbor, 0, len(ix.Vectors))
	for i, row := range ix.Vectors {
		if i == exclude {
			continue
		}
		all = append(all, Neighbor{
			Row:      i,
			Key:      ix.Keys[i],
			Distance: cosineDistance(query, row, qNorm, ix.norms[i]),
		})
	}

	slices.SortFunc(all, func(a, b Neighbor) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		return a.Row - b.Row
	})

	if len(all) > k {
		all = all[:k]
	}
	return all, nil
}

// RowNeighbors returns the k rows nearest to row, excluding row itself.
func (ix *Index) RowNeighbors(row, k int) ([]Neighbor, error) {
	if row < 0 || row >= len(ix.Vectors) {
		return nil, fmt.Errorf("row %d out of range [0, %d)", row, len(ix.Vectors))
	}
	return ix.KNeighbors(ix.Vectors[row], k, row)
}

// Validate checks that the index was fitted over a view with fingerprint.
func (ix *Index) Validate(fingerprint string) error {
	if ix.Header.Fingerprint != fingerprint {
		return fmt.Errorf("%w: fitted over %.12s, current data is %.12s", ErrStaleModel, ix.Header.Fingerprint, fingerprint)
	}
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosineDistance(a, b []float32, aNorm, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 1
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	d := 1 - dot/(aNorm*bNorm)
	return min(max(d, 0), 2)
}
