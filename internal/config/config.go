// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package config

import (
	"fmt"
	"time"
)

// Orientation values for IndexConfig.Orientation.
const (
	OrientationItems = "items"
	OrientationUsers = "users"
)

// Loader backends for DataConfig.Loader.
const (
	LoaderCSV    = "csv"
	LoaderDuckDB = "duckdb"
)

// Artifact store backends for ModelConfig.Store.
const (
	StoreFile   = "file"
	StoreBadger = "badger"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults matching the Book-Crossing dataset layout
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	svc := recommend.NewService(cfg, loader, store)
type Config struct {
	Data     DataConfig     `koanf:"data"`
	Matrix   MatrixConfig   `koanf:"matrix"`
	Index    IndexConfig    `koanf:"index"`
	Model    ModelConfig    `koanf:"model"`
	Server   ServerConfig   `koanf:"server"`
	Training TrainingConfig `koanf:"training"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DataConfig locates the three semicolon-delimited source files.
type DataConfig struct {
	RatingsPath string `koanf:"ratings_path" validate:"required"`
	BooksPath   string `koanf:"books_path" validate:"required"`

	// UsersPath is optional. Users are only surfaced through dataset stats.
	UsersPath string `koanf:"users_path"`

	// Loader selects the ingestion backend: csv (encoding/csv + Latin-1
	// decoding) or duckdb (read_csv through an in-memory DuckDB).
	Loader string `koanf:"loader" validate:"oneof=csv duckdb"`
}

// MatrixConfig holds the activity thresholds applied before pivoting.
// The user filter runs first; the item filter counts only surviving records.
type MatrixConfig struct {
	MinUserRatings int `koanf:"min_user_ratings" validate:"min=1"`
	MinItemRatings int `koanf:"min_item_ratings" validate:"min=1"`
}

// IndexConfig configures the neighbor index.
type IndexConfig struct {
	Metric    string `koanf:"metric" validate:"oneof=cosine"`
	Algorithm string `koanf:"algorithm" validate:"oneof=brute"`

	// Neighbors is the number of rows fetched per query including the
	// queried row itself; Neighbors-1 suggestions are returned.
	Neighbors int `koanf:"neighbors" validate:"min=2,max=1000"`

	// Orientation selects whether index rows are books (items) or users.
	Orientation string `koanf:"orientation" validate:"oneof=items users"`

	// LegacyPositionalLookup queries the user-oriented matrix at the book's
	// position in the unfiltered book list. Kept for parity checks only.
	LegacyPositionalLookup bool `koanf:"legacy_positional_lookup"`
}

// EffectiveOrientation returns the orientation actually used for fitting.
// Legacy positional lookup always runs over user rows.
func (c IndexConfig) EffectiveOrientation() string {
	if c.LegacyPositionalLookup {
		return OrientationUsers
	}
	return c.Orientation
}

// ModelConfig holds artifact persistence settings.
type ModelConfig struct {
	Store string `koanf:"store" validate:"oneof=file badger"`

	// Path is the artifact file for the file store, or the database
	// directory for the badger store.
	Path string `koanf:"path" validate:"required"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// Addr returns the listen address for http.Server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TrainingConfig controls the retraining service run by the supervisor tree.
type TrainingConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Interval  time.Duration `koanf:"interval"`
	OnStartup bool          `koanf:"on_startup"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from the default locations.
func Load() (*Config, error) {
	return LoadWithKoanf("")
}
