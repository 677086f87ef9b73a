// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Package testinfra generates Book-Crossing shaped fixture files for tests.
//
// Files are written semicolon-delimited and ISO-8859-1 encoded with a header
// row, the same layout as the real BX-Book-Ratings.csv, BX-Books.csv and
// BX-Users.csv.
package testinfra

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

// CorpusOptions shapes a generated corpus. With the defaults, every active
// user has exactly 200 ratings and every popular book at least 250, while
// tail books stay at 50 ratings, so filtering with the 200/100 thresholds
// yields an ActiveUsers x PopularBooks matrix.
type CorpusOptions struct {
	ActiveUsers   int
	InactiveUsers int
	PopularBooks  int
	TailBooks     int
	TailPerUser   int
	Seed          uint64
}

// DefaultCorpusOptions returns the 250 users x 150 books scenario.
func DefaultCorpusOptions() CorpusOptions {
	return CorpusOptions{
		ActiveUsers:   250,
		InactiveUsers: 20,
		PopularBooks:  150,
		TailBooks:     250,
		TailPerUser:   50,
		Seed:          42,
	}
}

// Corpus describes the files written by WriteCorpus.
type Corpus struct {
	Dir         string
	RatingsPath string
	BooksPath   string
	UsersPath   string

	// PopularTitles are the titles of books that survive filtering, in
	// ISBN order.
	PopularTitles []string

	// PopularISBNs are the ISBNs of PopularTitles.
	PopularISBNs []string

	// TailTitle names a book present in the books file whose ISBN is
	// filtered out of the matrix.
	TailTitle string

	// AccentedTitle is a popular title containing a non-ASCII Latin-1 rune.
	AccentedTitle string

	// DuplicateTitle appears twice in the books file; the first occurrence
	// is a popular book.
	DuplicateTitle string

	// RatingCount is the number of rating records written.
	RatingCount int
}

// ActiveUserID returns the user id of the i-th active user.
func ActiveUserID(i int) int32 { return int32(1000 + i) }

// InactiveUserID returns the user id of the i-th inactive user.
func InactiveUserID(i int) int32 { return int32(900000 + i) }

// PopularISBN returns the ISBN of the i-th popular book.
func PopularISBN(i int) string { return fmt.Sprintf("0%09d", i) }

// TailISBN returns the ISBN of the i-th tail book.
func TailISBN(i int) string { return fmt.Sprintf("1%09d", i) }

// PopularTitle returns the title of the i-th popular book.
func PopularTitle(i int) string {
	if i == 7 {
		return "Café Noir"
	}
	return fmt.Sprintf("Popular Book %03d", i)
}

// WriteCorpus writes ratings, books and users files into a temp directory.
func WriteCorpus(t testing.TB, opts CorpusOptions) *Corpus {
	t.Helper()

	dir := t.TempDir()
	c := &Corpus{
		Dir:            dir,
		RatingsPath:    filepath.Join(dir, "BX-Book-Ratings.csv"),
		BooksPath:      filepath.Join(dir, "BX-Books.csv"),
		UsersPath:      filepath.Join(dir, "BX-Users.csv"),
		TailTitle:      "Tail Book 000",
		AccentedTitle:  PopularTitle(7),
		DuplicateTitle: PopularTitle(3),
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	score := func() string { return fmt.Sprintf("%d", 1+rng.IntN(10)) }

	ratings := make([][]string, 0, opts.ActiveUsers*(opts.PopularBooks+opts.TailPerUser))
	for u := 0; u < opts.ActiveUsers; u++ {
		uid := fmt.Sprintf("%d", ActiveUserID(u))
		for b := 0; b < opts.PopularBooks; b++ {
			ratings = append(ratings, []string{uid, PopularISBN(b), score()})
		}
		for k := 0; k < opts.TailPerUser && opts.TailBooks > 0; k++ {
			tail := (u*opts.TailPerUser + k) % opts.TailBooks
			ratings = append(ratings, []string{uid, TailISBN(tail), score()})
		}
	}
	for u := 0; u < opts.InactiveUsers; u++ {
		uid := fmt.Sprintf("%d", InactiveUserID(u))
		for b := 0; b < 10 && b < opts.PopularBooks; b++ {
			ratings = append(ratings, []string{uid, PopularISBN((u + b) % opts.PopularBooks), score()})
		}
	}
	// Shuffle so loaders and the matrix builder never depend on file order.
	rng.Shuffle(len(ratings), func(i, j int) { ratings[i], ratings[j] = ratings[j], ratings[i] })
	c.RatingCount = len(ratings)
	WriteLatin1CSV(t, c.RatingsPath, []string{"User-ID", "ISBN", "Book-Rating"}, ratings)

	books := make([][]string, 0, opts.PopularBooks+opts.TailBooks+1)
	for b := 0; b < opts.PopularBooks; b++ {
		books = append(books, []string{PopularISBN(b), PopularTitle(b), fmt.Sprintf("Author %d", b%17), "2001", "Publisher"})
		c.PopularTitles = append(c.PopularTitles, PopularTitle(b))
		c.PopularISBNs = append(c.PopularISBNs, PopularISBN(b))
	}
	for b := 0; b < opts.TailBooks; b++ {
		books = append(books, []string{TailISBN(b), fmt.Sprintf("Tail Book %03d", b), "Tail Author", "1999", "Publisher"})
	}
	books = append(books, []string{"9999999999", c.DuplicateTitle, "Somebody Else", "2010", "Publisher"})
	WriteLatin1CSV(t, c.BooksPath, []string{"ISBN", "Book-Title", "Book-Author", "Year-Of-Publication", "Publisher"}, books)

	users := make([][]string, 0, opts.ActiveUsers+opts.InactiveUsers)
	for u := 0; u < opts.ActiveUsers; u++ {
		age := "NULL"
		if u%3 != 0 {
			age = fmt.Sprintf("%d", 18+u%60)
		}
		users = append(users, []string{fmt.Sprintf("%d", ActiveUserID(u)), "zürich, zürich, switzerland", age})
	}
	for u := 0; u < opts.InactiveUsers; u++ {
		users = append(users, []string{fmt.Sprintf("%d", InactiveUserID(u)), "lisboa, lisboa, portugal", ""})
	}
	WriteLatin1CSV(t, c.UsersPath, []string{"User-ID", "Location", "Age"}, users)

	return c
}

// WriteLatin1CSV writes a semicolon-delimited, double-quoted, ISO-8859-1
// encoded file with a header row.
func WriteLatin1CSV(t testing.TB, path string, header []string, rows [][]string) {
	t.Helper()

	var sb strings.Builder
	writeRow := func(row []string) {
		for i, v := range row {
			if i > 0 {
				sb.WriteByte(';')
			}
			sb.WriteByte('"')
			sb.WriteString(strings.ReplaceAll(v, `"`, `""`))
			sb.WriteByte('"')
		}
		sb.WriteByte('\n')
	}
	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}

	encoded, err := charmap.ISO8859_1.NewEncoder().String(sb.String())
	if err != nil {
		t.Fatalf("encode %s as latin-1: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(encoded), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
