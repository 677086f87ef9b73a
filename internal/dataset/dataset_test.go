// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package dataset

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/testinfra"
)

func smallCorpusOptions() testinfra.CorpusOptions {
	return testinfra.CorpusOptions{
		ActiveUsers:   12,
		InactiveUsers: 3,
		PopularBooks:  9,
		TailBooks:     6,
		TailPerUser:   2,
		Seed:          7,
	}
}

// loaders returns every Loader implementation over the same files.
func loaders(t *testing.T, paths Paths) map[string]Loader {
	t.Helper()

	duck, err := NewDuckDBLoader(paths)
	if err != nil {
		t.Fatalf("NewDuckDBLoader() error = %v", err)
	}
	t.Cleanup(func() { _ = duck.Close() })

	return map[string]Loader{
		"csv":    NewCSVLoader(paths),
		"duckdb": duck,
	}
}

func corpusPaths(c *testinfra.Corpus) Paths {
	return Paths{Ratings: c.RatingsPath, Books: c.BooksPath, Users: c.UsersPath}
}

func TestLoaders_Corpus(t *testing.T) {
	opts := smallCorpusOptions()
	corpus := testinfra.WriteCorpus(t, opts)
	ctx := context.Background()

	for name, loader := range loaders(t, corpusPaths(corpus)) {
		t.Run(name, func(t *testing.T) {
			ratings, err := loader.Ratings(ctx)
			if err != nil {
				t.Fatalf("Ratings() error = %v", err)
			}
			if len(ratings) != corpus.RatingCount {
				t.Errorf("len(ratings) = %d, want %d", len(ratings), corpus.RatingCount)
			}
			for _, r := range ratings {
				if r.Rating < 1 || r.Rating > 10 {
					t.Fatalf("rating out of range: %+v", r)
				}
			}

			books, err := loader.Books(ctx)
			if err != nil {
				t.Fatalf("Books() error = %v", err)
			}
			wantBooks := opts.PopularBooks + opts.TailBooks + 1
			if len(books) != wantBooks {
				t.Errorf("len(books) = %d, want %d", len(books), wantBooks)
			}
			if books[7].Title != corpus.AccentedTitle {
				t.Errorf("books[7].Title = %q, want %q", books[7].Title, corpus.AccentedTitle)
			}
			if books[0].Author != "Author 0" {
				t.Errorf("books[0].Author = %q, want Author 0", books[0].Author)
			}

			users, err := loader.Users(ctx)
			if err != nil {
				t.Fatalf("Users() error = %v", err)
			}
			if len(users) != opts.ActiveUsers+opts.InactiveUsers {
				t.Errorf("len(users) = %d", len(users))
			}
			if users[0].HasAge {
				t.Errorf("users[0] should have no age: %+v", users[0])
			}
			if !users[1].HasAge || users[1].Age != 19 {
				t.Errorf("users[1] = %+v, want age 19", users[1])
			}
			if users[0].Location != "zürich, zürich, switzerland" {
				t.Errorf("users[0].Location = %q", users[0].Location)
			}
		})
	}
}

func TestLoaders_ExtraColumnsIgnored(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		Ratings: filepath.Join(dir, "ratings.csv"),
		Books:   filepath.Join(dir, "books.csv"),
	}
	testinfra.WriteLatin1CSV(t, paths.Ratings, []string{"User-ID", "ISBN", "Book-Rating", "Extra"}, [][]string{
		{"276725", "034545104X", "0", "x"},
		{"276726", "0155061224", "5", "y"},
	})
	testinfra.WriteLatin1CSV(t, paths.Books, []string{"ISBN", "Book-Title", "Book-Author", "Year", "Publisher", "Image-URL"}, [][]string{
		{"0195153448", "Classical Mythology", "Mark P. O. Morford", "2002", "Oxford University Press", "http://images.example/1.jpg"},
		{"0002005018", `Clara "Callan"`, "Richard Bruce Wright", "2001", "HarperFlamingo Canada", "http://images.example/2.jpg"},
	})

	for name, loader := range loaders(t, paths) {
		t.Run(name, func(t *testing.T) {
			ratings, err := loader.Ratings(context.Background())
			if err != nil {
				t.Fatalf("Ratings() error = %v", err)
			}
			want := []Rating{{276725, "034545104X", 0}, {276726, "0155061224", 5}}
			if len(ratings) != len(want) {
				t.Fatalf("ratings = %+v", ratings)
			}
			for i := range want {
				if ratings[i] != want[i] {
					t.Errorf("ratings[%d] = %+v, want %+v", i, ratings[i], want[i])
				}
			}

			books, err := loader.Books(context.Background())
			if err != nil {
				t.Fatalf("Books() error = %v", err)
			}
			if books[1].Title != `Clara "Callan"` {
				t.Errorf("books[1].Title = %q", books[1].Title)
			}

			users, err := loader.Users(context.Background())
			if err != nil || users != nil {
				t.Errorf("Users() with no path = %v, %v; want nil, nil", users, err)
			}
		})
	}
}

func TestLoaders_Errors(t *testing.T) {
	dir := t.TempDir()
	badRatings := filepath.Join(dir, "bad-ratings.csv")
	testinfra.WriteLatin1CSV(t, badRatings, []string{"User-ID", "ISBN", "Book-Rating"}, [][]string{
		{"276725", "034545104X", "0"},
		{"not-a-user", "0155061224", "5"},
	})
	shortRatings := filepath.Join(dir, "short-ratings.csv")
	testinfra.WriteLatin1CSV(t, shortRatings, []string{"User-ID", "ISBN"}, [][]string{
		{"276725", "034545104X"},
	})

	nonFinite := func(value string) string {
		path := filepath.Join(dir, "ratings-"+value+".csv")
		testinfra.WriteLatin1CSV(t, path, []string{"User-ID", "ISBN", "Book-Rating"}, [][]string{
			{"276725", "034545104X", "5"},
			{"276726", "0155061224", value},
		})
		return path
	}

	tests := []struct {
		name  string
		paths Paths
	}{
		{"missing file", Paths{Ratings: filepath.Join(dir, "nope.csv")}},
		{"bad user id", Paths{Ratings: badRatings}},
		{"too few columns", Paths{Ratings: shortRatings}},
		{"nan rating", Paths{Ratings: nonFinite("NaN")}},
		{"inf rating", Paths{Ratings: nonFinite("Inf")}},
		{"negative inf rating", Paths{Ratings: nonFinite("-Infinity")}},
	}

	for _, tt := range tests {
		for name, loader := range loaders(t, tt.paths) {
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				_, err := loader.Ratings(context.Background())
				if !errors.Is(err, ErrDataLoad) {
					t.Errorf("Ratings() error = %v, want ErrDataLoad", err)
				}
			})
		}
	}
}

func TestLoaders_ContextDone(t *testing.T) {
	corpus := testinfra.WriteCorpus(t, testinfra.DefaultCorpusOptions())

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()

	tests := []struct {
		name string
		ctx  context.Context
		want error
	}{
		{"canceled", canceled, context.Canceled},
		{"deadline exceeded", expired, context.DeadlineExceeded},
	}

	for _, tt := range tests {
		for name, loader := range loaders(t, corpusPaths(corpus)) {
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				_, err := loader.Ratings(tt.ctx)
				if !errors.Is(err, tt.want) {
					t.Errorf("Ratings() error = %v, want %v", err, tt.want)
				}
			})
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		loader  string
		wantErr bool
	}{
		{config.LoaderCSV, false},
		{config.LoaderDuckDB, false},
		{"parquet", true},
	}

	for _, tt := range tests {
		t.Run(tt.loader, func(t *testing.T) {
			l, err := New(config.DataConfig{RatingsPath: "r", BooksPath: "b", Loader: tt.loader})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if l != nil {
				_ = l.Close()
			}
		})
	}
}

func TestIndexOfTitle(t *testing.T) {
	books := []Book{
		{ISBN: "1", Title: "Wild Animus"},
		{ISBN: "2", Title: "The Lovely Bones"},
		{ISBN: "3", Title: "Wild Animus"},
	}

	tests := []struct {
		title string
		want  int
	}{
		{"Wild Animus", 0},
		{"The Lovely Bones", 1},
		{"wild animus", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := IndexOfTitle(books, tt.title); got != tt.want {
			t.Errorf("IndexOfTitle(%q) = %d, want %d", tt.title, got, tt.want)
		}
	}
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		in     string
		age    int
		hasAge bool
	}{
		{"NULL", 0, false},
		{"", 0, false},
		{" 34 ", 34, true},
		{"25.0", 25, true},
		{"25.5", 0, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		age, ok := parseAge(tt.in)
		if age != tt.age || ok != tt.hasAge {
			t.Errorf("parseAge(%q) = %d, %v; want %d, %v", tt.in, age, ok, tt.age, tt.hasAge)
		}
	}
}
