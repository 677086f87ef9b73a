// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package matrix builds the dense user x book rating matrix the neighbor
// index is fitted over.
//
// Build applies two activity filters in order:
//
//  1. keep records whose user has at least MinUserRatings ratings, counted
//     over every input record
//  2. keep records whose book has at least MinItemRatings ratings, counted
//     over the records that survived step 1
//
// and pivots the survivors into users x books with missing cells set to 0.
// Row keys (user ids) and column keys (ISBNs) are sorted ascending, so two
// builds over the same records are identical regardless of input order.
package matrix

import (
	"errors"
	"fmt"
	"slices"

	"github.com/tomtom215/bookshelf/internal/dataset"
)

var (
	// ErrEmptyMatrix is returned when no record survives filtering.
	ErrEmptyMatrix = errors.New("rating matrix is empty after filtering")

	// ErrDuplicateRating is returned when a user rated the same ISBN more
	// than once among the filtered records.
	ErrDuplicateRating = errors.New("duplicate rating")
)

// Options holds the activity thresholds.
type Options struct {
	MinUserRatings int
	MinItemRatings int
}

// DefaultOptions returns the 200/100 thresholds.
func DefaultOptions() Options {
	return Options{MinUserRatings: 200, MinItemRatings: 100}
}

// Summary records how many records and keys each filter kept.
type Summary struct {
	InputRecords   int `json:"input_records"`
	InputUsers     int `json:"input_users"`
	InputItems     int `json:"input_items"`
	UserFiltered   int `json:"records_after_user_filter"`
	KeptRecords    int `json:"kept_records"`
	NonZeroCells   int `json:"non_zero_cells"`
	MinUserRatings int `json:"min_user_ratings"`
	MinItemRatings int `json:"min_item_ratings"`
}

// RatingMatrix is a dense users x books matrix. Values[i][j] is the rating
// UserIDs[i] gave ISBNs[j], or 0.
type RatingMatrix struct {
	UserIDs []int32
	ISBNs   []string
	Values  [][]float32
	Summary Summary
}

// Build filters records and pivots them into a RatingMatrix.
func Build(records []dataset.Rating, opts Options) (*RatingMatrix, error) {
	summary := Summary{
		InputRecords:   len(records),
		MinUserRatings: opts.MinUserRatings,
		MinItemRatings: opts.MinItemRatings,
	}

	userCounts := make(map[int32]int)
	inputItems := make(map[string]struct{})
	for i := range records {
		userCounts[records[i].UserID]++
		inputItems[records[i].ISBN] = struct{}{}
	}
	summary.InputUsers = len(userCounts)
	summary.InputItems = len(inputItems)

	active := make([]dataset.Rating, 0, len(records))
	for i := range records {
		if userCounts[records[i].UserID] >= opts.MinUserRatings {
			active = append(active, records[i])
		}
	}
	summary.UserFiltered = len(active)

	itemCounts := make(map[string]int)
	for i := range active {
		itemCounts[active[i].ISBN]++
	}

	kept := active[:0]
	for i := range active {
		if itemCounts[active[i].ISBN] >= opts.MinItemRatings {
			kept = append(kept, active[i])
		}
	}
	summary.KeptRecords = len(kept)

	if len(kept) == 0 {
		return nil, ErrEmptyMatrix
	}

	m, err := pivot(kept)
	if err != nil {
		return nil, err
	}
	for _, row := range m.Values {
		for _, v := range row {
			if v != 0 {
				summary.NonZeroCells++
			}
		}
	}
	m.Summary = summary
	return m, nil
}

// pivot lays records out densely. Records must be non-empty.
func pivot(records []dataset.Rating) (*RatingMatrix, error) {
	userIdx := make(map[int32]int)
	itemIdx := make(map[string]int)
	for i := range records {
		userIdx[records[i].UserID] = 0
		itemIdx[records[i].ISBN] = 0
	}

	users := make([]int32, 0, len(userIdx))
	for id := range userIdx {
		users = append(users, id)
	}
	slices.Sort(users)
	for i, id := range users {
		userIdx[id] = i
	}

	isbns := make([]string, 0, len(itemIdx))
	for isbn := range itemIdx {
		isbns = append(isbns, isbn)
	}
	slices.Sort(isbns)
	for j, isbn := range isbns {
		itemIdx[isbn] = j
	}

	cols := len(isbns)
	cells := make([]float32, len(users)*cols)
	// Ratings of 0 are legal, so presence is tracked separately.
	filled := make([]bool, len(cells))
	for i := range records {
		r := &records[i]
		k := userIdx[r.UserID]*cols + itemIdx[r.ISBN]
		if filled[k] {
			return nil, fmt.Errorf("%w: user %d, isbn %q", ErrDuplicateRating, r.UserID, r.ISBN)
		}
		filled[k] = true
		cells[k] = r.Rating
	}

	values := make([][]float32, len(users))
	for i := range values {
		values[i] = cells[i*cols : (i+1)*cols : (i+1)*cols]
	}

	return &RatingMatrix{UserIDs: users, ISBNs: isbns, Values: values}, nil
}

// Rows returns the number of users.
func (m *RatingMatrix) Rows() int { return len(m.UserIDs) }

// Cols returns the number of books.
func (m *RatingMatrix) Cols() int { return len(m.ISBNs) }

// UserRow returns the row of userID.
func (m *RatingMatrix) UserRow(userID int32) (int, bool) {
	return slices.BinarySearch(m.UserIDs, userID)
}

// ItemColumn returns the column of isbn.
func (m *RatingMatrix) ItemColumn(isbn string) (int, bool) {
	return slices.BinarySearch(m.ISBNs, isbn)
}

// Equal reports whether two matrices have the same keys and values.
func (m *RatingMatrix) Equal(o *RatingMatrix) bool {
	if !slices.Equal(m.UserIDs, o.UserIDs) || !slices.Equal(m.ISBNs, o.ISBNs) {
		return false
	}
	for i := range m.Values {
		if !slices.Equal(m.Values[i], o.Values[i]) {
			return false
		}
	}
	return true
}
