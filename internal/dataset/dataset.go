// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package dataset reads the Book-Crossing style source files: ratings,
// books and users, each semicolon-delimited, ISO-8859-1 encoded and with a
// header row. Only the first three columns of each file are used.
//
// Two Loader implementations share the same row parsing:
//
//   - CSVLoader: encoding/csv over a Latin-1 decoding reader
//   - DuckDBLoader: DuckDB read_csv in an in-memory database
//
// Every failure is wrapped with ErrDataLoad.
package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/bookshelf/internal/config"
)

// ErrDataLoad is returned when a source file is missing, unreadable, or
// does not match the expected schema.
var ErrDataLoad = errors.New("data load failed")

// Rating is one (user, isbn, rating) record.
type Rating struct {
	UserID int32
	ISBN   string
	Rating float32
}

// Book is one row of the books file.
type Book struct {
	ISBN   string
	Title  string
	Author string
}

// User is one row of the users file. HasAge is false when the age column
// is NULL, blank or not a number.
type User struct {
	ID       int32
	Location string
	Age      int
	HasAge   bool
}

// Paths locates the three source files. Users may be empty.
type Paths struct {
	Ratings string
	Books   string
	Users   string
}

// Loader reads the source files. Implementations must return records in
// file order.
type Loader interface {
	Ratings(ctx context.Context) ([]Rating, error)
	Books(ctx context.Context) ([]Book, error)
	Users(ctx context.Context) ([]User, error)
	Close() error
}

// PathsFromConfig converts the data section of the configuration.
func PathsFromConfig(cfg config.DataConfig) Paths {
	return Paths{
		Ratings: cfg.RatingsPath,
		Books:   cfg.BooksPath,
		Users:   cfg.UsersPath,
	}
}

// New returns the loader selected by cfg.Loader.
func New(cfg config.DataConfig) (Loader, error) {
	paths := PathsFromConfig(cfg)
	switch cfg.Loader {
	case config.LoaderCSV, "":
		return NewCSVLoader(paths), nil
	case config.LoaderDuckDB:
		return NewDuckDBLoader(paths)
	default:
		return nil, fmt.Errorf("unknown data loader %q", cfg.Loader)
	}
}

// IndexOfTitle returns the position of the first book whose title equals
// title exactly, or -1.
func IndexOfTitle(books []Book, title string) int {
	for i := range books {
		if books[i].Title == title {
			return i
		}
	}
	return -1
}
