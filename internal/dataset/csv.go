// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/tomtom215/bookshelf/internal/logging"
)

// cancelCheckInterval is how many rows are read between context checks.
const cancelCheckInterval = 1 << 16

// CSVLoader reads the source files with encoding/csv.
type CSVLoader struct {
	paths Paths
}

// NewCSVLoader creates a loader for the given files.
func NewCSVLoader(paths Paths) *CSVLoader {
	return &CSVLoader{paths: paths}
}

// Ratings reads the ratings file.
func (l *CSVLoader) Ratings(ctx context.Context) ([]Rating, error) {
	var ratings []Rating
	err := readSemicolonFile(ctx, "ratings", l.paths.Ratings, func(record []string, line int) error {
		r, err := parseRating(record, line)
		if err != nil {
			return err
		}
		ratings = append(ratings, r)
		return nil
	})
	return ratings, err
}

// Books reads the books file.
func (l *CSVLoader) Books(ctx context.Context) ([]Book, error) {
	var books []Book
	err := readSemicolonFile(ctx, "books", l.paths.Books, func(record []string, line int) error {
		b, err := parseBook(record, line)
		if err != nil {
			return err
		}
		books = append(books, b)
		return nil
	})
	return books, err
}

// Users reads the users file. An unset path yields no users.
func (l *CSVLoader) Users(ctx context.Context) ([]User, error) {
	if l.paths.Users == "" {
		return nil, nil
	}
	var users []User
	err := readSemicolonFile(ctx, "users", l.paths.Users, func(record []string, line int) error {
		u, err := parseUser(record, line)
		if err != nil {
			return err
		}
		users = append(users, u)
		return nil
	})
	return users, err
}

// Close implements Loader.
func (l *CSVLoader) Close() error { return nil }

// readSemicolonFile streams a Latin-1 semicolon-delimited file, skipping the
// header row. line is 1-based and counts the header.
func readSemicolonFile(ctx context.Context, kind, path string, fn func(record []string, line int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %s file: %v", ErrDataLoad, kind, err)
	}
	defer f.Close()

	r := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(f))
	r.Comma = ';'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s file %s is empty", ErrDataLoad, kind, path)
		}
		return fmt.Errorf("%w: read %s header: %v", ErrDataLoad, kind, err)
	}

	line := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return fmt.Errorf("%w: %s line %d: %v", ErrDataLoad, kind, line, err)
		}
		if line%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(record, line); err != nil {
			return err
		}
	}

	logging.Ctx(ctx).Debug().
		Str("file", kind).
		Str("path", path).
		Int("rows", line-1).
		Dur("elapsed", time.Since(start)).
		Msg("Source file loaded")
	return nil
}
