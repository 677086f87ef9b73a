// Bookshelf - Collaborative Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"time"

	"github.com/tomtom215/bookshelf/internal/api"
	"github.com/tomtom215/bookshelf/internal/config"
	"github.com/tomtom215/bookshelf/internal/logging"
	"github.com/tomtom215/bookshelf/internal/supervisor"
	"github.com/tomtom215/bookshelf/internal/supervisor/services"
)

func runServe(ctx context.Context, cfg *config.Config, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	if err := parseCommandFlags(fs, args, stderr); err != nil {
		return ignoreHelp(err)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	logging.Info().
		Str("ratings", cfg.Data.RatingsPath).
		Str("loader", cfg.Data.Loader).
		Str("model_store", cfg.Model.Store).
		Str("orientation", cfg.Index.EffectiveOrientation()).
		Bool("training_enabled", cfg.Training.Enabled).
		Msg("Starting Bookshelf with supervisor tree")

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}

	handler := api.NewHandler(a.svc, cfg.Training.Timeout)
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFromServer(cfg.Server))
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// POST /model/train runs synchronously under its own timeout.
		WriteTimeout: cfg.Training.Timeout + cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, logging.Logger()))

	if cfg.Training.Enabled {
		tree.AddTrainingService(services.NewRetrainService(a.svc, services.RetrainServiceConfig{
			OnStartup: cfg.Training.OnStartup,
			Interval:  cfg.Training.Interval,
			Timeout:   cfg.Training.Timeout,
		}, logging.Logger()))
	}

	// Blocks until a signal cancels ctx and the tree has stopped.
	serveErr := <-tree.ServeBackground(ctx)
	if errors.Is(serveErr, context.Canceled) {
		serveErr = nil
	}
	if serveErr != nil {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Bookshelf stopped")
	return serveErr
}
