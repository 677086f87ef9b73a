// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/dataset"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/neighbors"
	"github.com/tomtom215/bookshelf/internal/recommend"
)

// errUsage marks command line mistakes; the flag package has already
// printed the details.
var errUsage = errors.New("usage error")

const usage = `Usage: bookshelf [-config path] [-log-level level] <command> [flags]

Commands:
  train       build the rating matrix, fit the index, save it
  recommend   print the nearest books to -title
  stats       print source file and matrix counts
  serve       run the HTTP API
`

// app holds what every command needs. close releases the loader and store.
type app struct {
	cfg    *config.Config
	loader dataset.Loader
	store  neighbors.ArtifactStore
	svc    *recommend.Service
}

func newApp(cfg *config.Config) (*app, error) {
	loader, err := dataset.New(cfg.Data)
	if err != nil {
		return nil, err
	}
	store, err := neighbors.OpenStore(cfg.Model)
	if err != nil {
		_ = loader.Close()
		return nil, err
	}
	return &app{
		cfg:    cfg,
		loader: loader,
		store:  store,
		svc:    recommend.NewService(cfg, loader, store),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logging.Warn().Err(err).Msg("Error closing model store")
	}
	if err := a.loader.Close(); err != nil {
		logging.Warn().Err(err).Msg("Error closing data loader")
	}
}

// run parses the global flags, loads configuration and dispatches.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("bookshelf", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "path to a YAML config file")
	logLevel := fs.String("log-level", "", "override logging.level")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	command, rest := fs.Arg(0), fs.Args()[1:]

	cfg, err := config.LoadWithKoanf(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(stderr, "invalid -log-level %q: %v\n", *logLevel, err)
			return fmt.Errorf("%w: %v", errUsage, err)
		}
	}
	initLogging(cfg.Logging, command, stderr)

	switch command {
	case "train":
		return runTrain(ctx, cfg, rest, stdout, stderr)
	case "recommend":
		return runRecommend(ctx, cfg, rest, stdout, stderr)
	case "stats":
		return runStats(ctx, cfg, rest, stdout, stderr)
	case "serve":
		return runServe(ctx, cfg, rest, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		fs.Usage()
		return errUsage
	}
}

// initLogging uses the console format for interactive commands unless
// LOG_FORMAT asks otherwise; serve keeps the configured format.
func initLogging(lc config.LoggingConfig, command string, stderr io.Writer) {
	format := lc.Format
	if command != "serve" && os.Getenv("LOG_FORMAT") == "" {
		format = "console"
	}
	logCfg := logging.DefaultConfig()
	logCfg.Level = lc.Level
	logCfg.Format = format
	logCfg.Caller = lc.Caller
	logCfg.Output = stderr
	logging.Init(logCfg)
}

func parseCommandFlags(fs *flag.FlagSet, args []string, stderr io.Writer) error {
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return flag.ErrHelp
		}
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return errUsage
	}
	return nil
}

func runTrain(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the model metadata as JSON")
	if err := parseCommandFlags(fs, args, stderr); err != nil {
		return ignoreHelp(err)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	meta, err := a.svc.Train(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(stdout, meta)
	}
	fmt.Fprintf(stdout, "trained %s index: %d rows x %d dims, %d bytes, %dms\n",
		meta.Orientation, meta.Rows, meta.Dims, meta.SizeBytes, meta.TrainingDurationMS)
	return nil
}

func runRecommend(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	title := fs.String("title", "", "exact book title to query (required)")
	asJSON := fs.Bool("json", false, "print the recommendations as JSON")
	if err := parseCommandFlags(fs, args, stderr); err != nil {
		return ignoreHelp(err)
	}
	if *title == "" {
		fmt.Fprintln(stderr, "recommend: -title is required")
		return errUsage
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	rec, err := a.svc.GetRecommendations(ctx, *title)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(stdout, rec)
	}

	fmt.Fprintf(stdout, "Books similar to %q:\n", rec.Title)
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tISBN\tDISTANCE")
	for i, s := range rec.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\n", i+1, s.Title, s.ISBN, s.Distance)
	}
	return tw.Flush()
}

func runStats(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the statistics as JSON")
	if err := parseCommandFlags(fs, args, stderr); err != nil {
		return ignoreHelp(err)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.svc.Stats(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(stdout, stats)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ratings\t%d\n", stats.Ratings)
	fmt.Fprintf(tw, "books\t%d\n", stats.Books)
	fmt.Fprintf(tw, "users\t%d\n", stats.Users)
	fmt.Fprintf(tw, "users with age\t%d\n", stats.UsersWithAge)
	fmt.Fprintf(tw, "matrix\t%d users x %d books\n", stats.MatrixUsers, stats.MatrixBooks)
	fmt.Fprintf(tw, "density\t%.4f\n", stats.Density)
	return tw.Flush()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ignoreHelp(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}
