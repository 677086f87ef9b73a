// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package config provides centralized configuration management for Bookshelf.

Configuration is loaded in three layers with Koanf v2, each overriding the
previous one:

 1. Defaults built into defaultConfig()
 2. An optional YAML file (CONFIG_PATH, config.yaml, or /etc/bookshelf/config.yaml)
 3. Environment variables

# Configuration Structure

  - DataConfig: ratings, books and users file locations and the loader backend
  - MatrixConfig: activity thresholds applied before the pivot
  - IndexConfig: neighbor search parameters and row orientation
  - ModelConfig: where the fitted index artifact is persisted
  - ServerConfig: HTTP bind address, timeouts, rate limiting and CORS
  - TrainingConfig: periodic retraining inside the server
  - LoggingConfig: zerolog level and output format

# Environment Variables

Data:
  - RATINGS_PATH: ratings file (default: cache/data/BX-Book-Ratings.csv)
  - BOOKS_PATH: books file (default: cache/data/BX-Books.csv)
  - USERS_PATH: users file (default: cache/data/BX-Users.csv)
  - DATA_LOADER: csv or duckdb (default: csv)

Matrix and index:
  - MIN_USER_RATINGS: minimum ratings per user (default: 200)
  - MIN_ITEM_RATINGS: minimum ratings per book (default: 100)
  - INDEX_NEIGHBORS: neighbors fetched per query, self included (default: 6)
  - INDEX_ORIENTATION: items or users (default: items)
  - LEGACY_POSITIONAL_LOOKUP: true/false (default: false)

Model:
  - MODEL_STORE: file or badger (default: file)
  - MODEL_PATH: artifact file or badger directory (default: cache/models/model.gob.gz)

Server:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - CORS_ORIGINS: comma-separated list

Training:
  - TRAINING_ENABLED, TRAINING_INTERVAL, TRAINING_ON_STARTUP, TRAINING_TIMEOUT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

Config is immutable after Load and safe for concurrent reads.
*/
package config
