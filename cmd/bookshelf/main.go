// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

// Command bookshelf recommends books from the Book-Crossing ratings using
// item-based nearest neighbors.
//
// # Usage
//
//	bookshelf [-config path] [-log-level level] <command> [flags]
//
// Commands:
//
//	train                  build the rating matrix, fit the index, save it
//	recommend -title T     print the nearest books to T
//	stats                  print source file and matrix counts
//	serve                  run the HTTP API (and the retrain loop if enabled)
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (RATINGS_PATH, BOOKS_PATH, MODEL_PATH, ...)
//   - Config file (-config, CONFIG_PATH, or ./config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the running command. serve shuts the HTTP
// server down gracefully and waits for the supervisor tree to stop.
//
// # Example Usage
//
//	export RATINGS_PATH=data/BX-Book-Ratings.csv
//	export BOOKS_PATH=data/BX-Books.csv
//	bookshelf train
//	bookshelf recommend -title "The Lovely Bones: A Novel"
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "bookshelf:", err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, errUsage) {
		return 2
	}
	return 1
}
