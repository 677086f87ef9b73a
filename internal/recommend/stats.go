// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package recommend

import (
	"context"

	"github.com/tomtom215/bookshelf/internal/matrix"
	"github.com/tomtom215/bookshelf/internal/metrics"
)

// DatasetStats summarizes the source files and the filtered matrix.
type DatasetStats struct {
	Ratings      int            `json:"ratings"`
	Books        int            `json:"books"`
	Users        int            `json:"users"`
	UsersWithAge int            `json:"users_with_age"`
	MatrixUsers  int            `json:"matrix_users"`
	MatrixBooks  int            `json:"matrix_books"`
	Density      float64        `json:"density"`
	Filter       matrix.Summary `json:"filter"`
}

// Stats loads every source file and reports counts. The users file is only
// ever read here.
func (s *Service) Stats(ctx context.Context) (*DatasetStats, error) {
	m, err := s.BuildRatingMatrix(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.loader.Books(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordSourceLoad("books", len(books))

	users, err := s.loader.Users(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordSourceLoad("users", len(users))

	stats := &DatasetStats{
		Ratings:     m.Summary.InputRecords,
		Books:       len(books),
		Users:       len(users),
		MatrixUsers: m.Rows(),
		MatrixBooks: m.Cols(),
		Filter:      m.Summary,
	}
	for i := range users {
		if users[i].HasAge {
			stats.UsersWithAge++
		}
	}
	if cells := m.Rows() * m.Cols(); cells > 0 {
		stats.Density = float64(m.Summary.NonZeroCells) / float64(cells)
	}
	return stats, nil
}
