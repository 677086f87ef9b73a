// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB driver registration

	"github.com/tomtom215/bookshelf/internal/logging"
)

// DuckDBLoader reads the source files through DuckDB's read_csv in an
// in-memory database. Every column is read as VARCHAR and parsed with the
// same rules as CSVLoader, so both loaders agree on every file.
type DuckDBLoader struct {
	paths Paths
	conn  *sql.DB
}

// NewDuckDBLoader opens an in-memory DuckDB database.
func NewDuckDBLoader(paths Paths) (*DuckDBLoader, error) {
	conn, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	// A single connection keeps the in-memory catalog stable.
	conn.SetMaxOpenConns(1)
	return &DuckDBLoader{paths: paths, conn: conn}, nil
}

// Ratings reads the ratings file.
func (l *DuckDBLoader) Ratings(ctx context.Context) ([]Rating, error) {
	var ratings []Rating
	err := l.query(ctx, "ratings", l.paths.Ratings, func(record []string, line int) error {
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
func (l *DuckDBLoader) Books(ctx context.Context) ([]Book, error) {
	var books []Book
	err := l.query(ctx, "books", l.paths.Books, func(record []string, line int) error {
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
func (l *DuckDBLoader) Users(ctx context.Context) ([]User, error) {
	if l.paths.Users == "" {
		return nil, nil
	}
	var users []User
	err := l.query(ctx, "users", l.paths.Users, func(record []string, line int) error {
		u, err := parseUser(record, line)
		if err != nil {
			return err
		}
		users = append(users, u)
		return nil
	})
	return users, err
}

// Close releases the DuckDB database.
func (l *DuckDBLoader) Close() error {
	return l.conn.Close()
}

// readCSVQuery builds the read_csv statement for path. DuckDB table
// functions do not take bind parameters, so the path is quoted inline.
func readCSVQuery(path string) string {
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	return "SELECT * FROM read_csv(" + quoted +
		", delim = ';', header = true, quote = '\"', escape = '\"'" +
		", encoding = 'latin-1', all_varchar = true, null_padding = true)"
}

func (l *DuckDBLoader) query(ctx context.Context, kind, path string, fn func(record []string, line int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	// read_csv reports a missing file as a generic IO error; check first so
	// the message matches CSVLoader.
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: open %s file: %v", ErrDataLoad, kind, err)
	}

	rows, err := l.conn.QueryContext(ctx, readCSVQuery(path))
	if err != nil {
		return fmt.Errorf("%w: read_csv %s: %w", ErrDataLoad, kind, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("%w: %s columns: %v", ErrDataLoad, kind, err)
	}

	values := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	record := make([]string, len(cols))

	line := 1
	for rows.Next() {
		line++
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("%w: %s line %d: %w", ErrDataLoad, kind, line, err)
		}
		for i := range values {
			record[i] = values[i].String
		}
		if err := fn(record, line); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDataLoad, kind, err)
	}

	logging.Ctx(ctx).Debug().
		Str("file", kind).
		Str("path", path).
		Int("rows", line-1).
		Dur("elapsed", time.Since(start)).
		Msg("Source file loaded via duckdb")
	return nil
}
